package handlers

import (
	"net/http"
)

// ValidateBidHandler обрабатывает POST|GET /api/bids/{bidId}/validate
func (h *Handler) ValidateBidHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := intParam(r, "bidId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.Validator.Run(r.Context(), bidID)
	if err != nil {
		h.writeError(w, err, "validate bid")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetValidationsHandler возвращает последний сохранённый прогон без перепроверки
func (h *Handler) GetValidationsHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := intParam(r, "bidId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.Validator.Results(r.Context(), bidID)
	if err != nil {
		h.writeError(w, err, "get validations")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
