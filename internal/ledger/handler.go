// internal/ledger/handler.go
package ledger

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stokvelhub/internal/member"
	"stokvelhub/internal/phone"
	"stokvelhub/internal/proof"
	"stokvelhub/internal/submission"
)

type Handler struct {
	engine Engine
	subs   *submission.Store
	proofs proof.Store
}

func NewHandler(engine Engine, subs *submission.Store, proofs proof.Store) *Handler {
	return &Handler{engine: engine, subs: subs, proofs: proofs}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/submissions", h.handleSubmit)
	r.Get("/submissions", h.handleListSubmissions)
	r.Get("/submissions/{reference}", h.handleGetSubmission)
	r.Post("/submissions/{id}/approve", h.handleApprove)
	r.Post("/submissions/{id}/reject", h.handleReject)
	r.Post("/members/{id}/recalculate", h.handleRecalculate)
	r.Post("/recalculate", h.handleRecalculateAll)
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/proofs/{ref}", h.handleGetProof)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		Phone         string `json:"phone"`
		Amount        string `json:"amount"`
		PaymentDate   string `json:"payment_date"`
		PaymentPeriod string `json:"payment_period"`
		PaymentMethod string `json:"payment_method"`
		Notes         string `json:"notes"`
		ProofBlob     string `json:"proof_blob,omitempty"` // base64
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}
	paymentDate, err := time.Parse("2006-01-02", req.PaymentDate)
	if err != nil {
		http.Error(w, "invalid payment date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	var proofRef string
	if req.ProofBlob != "" {
		blob, err := base64.StdEncoding.DecodeString(req.ProofBlob)
		if err != nil {
			http.Error(w, "invalid proof blob", http.StatusBadRequest)
			return
		}
		proofRef, err = h.proofs.Save(r.Context(), blob)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	result, err := h.engine.Submit(r.Context(), SubmitInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Amount:        amount,
		PaymentDate:   paymentDate,
		PaymentPeriod: req.PaymentPeriod,
		PaymentMethod: req.PaymentMethod,
		ProofRef:      proofRef,
		Notes:         req.Notes,
	})
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	var (
		subs []*submission.Submission
		err  error
	)
	switch {
	case r.URL.Query().Get("status") != "":
		subs, err = h.subs.ListByStatus(r.Context(), r.URL.Query().Get("status"))
	case r.URL.Query().Get("phone") != "":
		// Rows store the normalized form; accept whatever format the caller
		// submitted with.
		var normalized string
		normalized, err = phone.Normalize(r.URL.Query().Get("phone"))
		if err != nil {
			http.Error(w, "invalid phone", http.StatusBadRequest)
			return
		}
		subs, err = h.subs.ListByPhone(r.Context(), normalized)
	case r.URL.Query().Get("member_id") != "":
		var memberID uuid.UUID
		memberID, err = uuid.Parse(r.URL.Query().Get("member_id"))
		if err != nil {
			http.Error(w, "invalid member ID", http.StatusBadRequest)
			return
		}
		subs, err = h.subs.ListByMember(r.Context(), nil, memberID)
	default:
		subs, err = h.subs.ListByStatus(r.Context(), submission.StatusPending)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(subs)
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subs.GetByReference(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	json.NewEncoder(w).Encode(sub)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid submission ID", http.StatusBadRequest)
		return
	}

	var req struct {
		ApprovedBy string `json:"approved_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.engine.Approve(r.Context(), id, req.ApprovedBy); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid submission ID", http.StatusBadRequest)
		return
	}

	var req struct {
		RejectedBy string `json:"rejected_by"`
		Reason     string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.engine.Reject(r.Context(), id, req.RejectedBy, req.Reason); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid member ID", http.StatusBadRequest)
		return
	}

	stats, err := h.engine.Recalculate(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	json.NewEncoder(w).Encode(stats)
}

func (h *Handler) handleRecalculateAll(w http.ResponseWriter, r *http.Request) {
	processed, err := h.engine.RecalculateAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]int{"processed": processed})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var (
		stats *DashboardStats
		err   error
	)
	if r.URL.Query().Get("source") == "authoritative" {
		stats, err = h.engine.DashboardSlow(r.Context())
	} else {
		stats, err = h.engine.Dashboard(r.Context())
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(stats)
}

func (h *Handler) handleGetProof(w http.ResponseWriter, r *http.Request) {
	blob, err := h.proofs.Get(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(blob)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, phone.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, submission.ErrNotFound), errors.Is(err, member.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, submission.ErrAlreadyProcessed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
