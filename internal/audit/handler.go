// internal/audit/handler.go
package audit

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const defaultListLimit = 50

type Handler struct {
	log *Log
}

func NewHandler(log *Log) *Handler {
	return &Handler{log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/audit", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.log.List(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(entries)
}
