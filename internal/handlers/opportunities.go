package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"complyform/internal/sentinel"
	"complyform/models"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	var params PaginationParams
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	params.Limit = 5 // дефолт
	params.Offset = 0

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 50 {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}

// CreateOpportunityHandler обрабатывает POST /api/opportunities
func (h *Handler) CreateOpportunityHandler(w http.ResponseWriter, r *http.Request) {
	var opp models.Opportunity
	if err := readJSON(w, r, &opp); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validateOpportunity(&opp); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opp.JurisdictionID = nil
	if opp.JurisdictionCode != "" {
		j, err := h.Store.GetJurisdictionByCode(r.Context(), opp.JurisdictionCode)
		if errors.Is(err, sentinel.ErrNotFound) {
			http.Error(w, "unknown jurisdictionCode", http.StatusBadRequest)
			return
		}
		if err != nil {
			h.writeError(w, err, "get jurisdiction")
			return
		}
		opp.JurisdictionID = &j.ID
	}
	opp.IsActive = true

	if err := h.Store.CreateOpportunity(r.Context(), &opp); err != nil {
		h.writeError(w, err, "create opportunity")
		return
	}
	writeJSON(w, http.StatusCreated, opp)
}

// validateOpportunity проверяет обязательные поля закупки
func validateOpportunity(o *models.Opportunity) error {
	o.Title = strings.TrimSpace(o.Title)
	o.JurisdictionCode = strings.ToUpper(strings.TrimSpace(o.JurisdictionCode))
	if o.Title == "" || len(o.Title) > 500 {
		return errors.New("title is required and max length 500")
	}
	if o.MBEGoal.IsNegative() || o.MBEGoal.GreaterThan(hundred) ||
		o.VSBEGoal.IsNegative() || o.VSBEGoal.GreaterThan(hundred) {
		return errors.New("goals must be between 0 and 100")
	}
	if o.TotalValue.IsNegative() {
		return errors.New("totalValue must not be negative")
	}
	return nil
}

// GetOpportunitiesHandler возвращает активные закупки с фильтром по юрисдикции
func (h *Handler) GetOpportunitiesHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)
	code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("jurisdiction")))

	opps, err := h.Store.GetOpportunities(r.Context(), code, params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, err, "get opportunities")
		return
	}
	if opps == nil {
		opps = []models.Opportunity{}
	}
	writeJSON(w, http.StatusOK, opps)
}

// GetOpportunityHandler обрабатывает GET /api/opportunities/{opportunityId}
func (h *Handler) GetOpportunityHandler(w http.ResponseWriter, r *http.Request) {
	oppID, err := intParam(r, "opportunityId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opp, err := h.Store.GetOpportunity(r.Context(), oppID)
	if err != nil {
		h.writeError(w, err, "get opportunity")
		return
	}
	writeJSON(w, http.StatusOK, opp)
}
