// internal/interest/handler.go
package interest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"stokvelhub/internal/audit"
	"stokvelhub/internal/config"
	"stokvelhub/internal/member"
)

type Handler struct {
	store    *Store
	members  *member.Store
	cfg      *config.Config
	auditLog *audit.Log
}

func NewHandler(store *Store, members *member.Store, cfg *config.Config, auditLog *audit.Log) *Handler {
	return &Handler{store: store, members: members, cfg: cfg, auditLog: auditLog}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/interest/{year}", h.handleGetPool)
	r.Post("/interest/{year}/bank-interest", h.handleAddBankInterest)
	r.Get("/interest/{year}/distribution", h.handleDistribution)
}

func (h *Handler) handleGetPool(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return
	}

	pool, err := h.store.GetPool(r.Context(), year)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(pool)
}

func (h *Handler) handleAddBankInterest(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return
	}

	var req struct {
		Amount  string `json:"amount"`
		AddedBy string `json:"added_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	if err := h.store.AddBankInterest(r.Context(), year, amount); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.auditLog.Record(r.Context(), req.AddedBy, "bank_interest_added", "interest_pool", strconv.Itoa(year), map[string]interface{}{
		"amount": amount.String(),
	})

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleDistribution(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return
	}

	pool, err := h.store.GetPool(r.Context(), year)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	members, err := h.members.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	plan := BuildDistribution(pool, members, h.cfg.InterestThreshold)
	json.NewEncoder(w).Encode(plan)
}
