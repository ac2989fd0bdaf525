package handlers

import (
	"net/http"
	"strings"

	"complyform/models"
)

// CreateSubcontractorHandler обрабатывает POST /api/subcontractors.
// Если directoryId не указан, ссылка ищется по юридическому имени.
func (h *Handler) CreateSubcontractorHandler(w http.ResponseWriter, r *http.Request) {
	var sub models.Subcontractor
	if err := readJSON(w, r, &sub); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sub.LegalName = strings.TrimSpace(sub.LegalName)
	if sub.OrganizationID <= 0 {
		http.Error(w, "organizationId must be positive", http.StatusBadRequest)
		return
	}
	if sub.LegalName == "" || len(sub.LegalName) > 255 {
		http.Error(w, "legalName is required and max length 255", http.StatusBadRequest)
		return
	}

	if sub.DirectoryID != nil {
		if _, err := h.Store.GetDirectoryEntry(r.Context(), *sub.DirectoryID); err != nil {
			h.writeError(w, err, "get directory entry")
			return
		}
	} else {
		h.linkDirectory(r, &sub)
	}

	if err := h.Store.CreateSubcontractor(r.Context(), &sub); err != nil {
		h.writeError(w, err, "create subcontractor")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// GetSubcontractorHandler обрабатывает GET /api/subcontractors/{subcontractorId}
func (h *Handler) GetSubcontractorHandler(w http.ResponseWriter, r *http.Request) {
	subID, err := intParam(r, "subcontractorId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sub, err := h.Store.GetSubcontractor(r.Context(), subID)
	if err != nil {
		h.writeError(w, err, "get subcontractor")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
