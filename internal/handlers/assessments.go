package handlers

import (
	"net/http"

	"complyform/internal/assessment"
	"complyform/models"
)

// CreateAssessmentHandler обрабатывает POST /api/assessments
func (h *Handler) CreateAssessmentHandler(w http.ResponseWriter, r *http.Request) {
	var req assessment.Request
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := h.Assessor.Assess(r.Context(), req)
	if err != nil {
		h.writeError(w, err, "assess opportunity")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GetAssessmentsHandler обрабатывает GET /api/organizations/{orgId}/assessments
func (h *Handler) GetAssessmentsHandler(w http.ResponseWriter, r *http.Request) {
	orgID, err := intParam(r, "orgId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.Assessor.List(r.Context(), orgID)
	if err != nil {
		h.writeError(w, err, "list assessments")
		return
	}
	if list == nil {
		list = []models.Assessment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetAssessmentSummaryHandler обрабатывает GET /api/organizations/{orgId}/assessments/summary
func (h *Handler) GetAssessmentSummaryHandler(w http.ResponseWriter, r *http.Request) {
	orgID, err := intParam(r, "orgId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sum, err := h.Assessor.Summary(r.Context(), orgID)
	if err != nil {
		h.writeError(w, err, "summarize assessments")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
