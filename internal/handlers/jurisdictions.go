package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"complyform/internal/compliance"
	"complyform/models"
)

// CreateJurisdictionHandler обрабатывает POST /api/jurisdictions
func (h *Handler) CreateJurisdictionHandler(w http.ResponseWriter, r *http.Request) {
	var j models.Jurisdiction
	if err := readJSON(w, r, &j); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	j.Code = strings.ToUpper(strings.TrimSpace(j.Code))
	if j.Code == "" || len(j.Code) > 10 {
		http.Error(w, "code is required and max length 10", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(j.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	for _, goal := range []decimal.NullDecimal{j.MBEGoalTypical, j.VSBEGoalTypical} {
		if err := validatePercent(goal); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if err := h.Store.CreateJurisdiction(r.Context(), &j); err != nil {
		h.writeError(w, err, "create jurisdiction")
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func validatePercent(v decimal.NullDecimal) error {
	if !v.Valid {
		return nil
	}
	if v.Decimal.IsNegative() || v.Decimal.GreaterThan(hundred) {
		return errors.New("goal must be between 0 and 100")
	}
	return nil
}

// GetJurisdictionHandler обрабатывает GET /api/jurisdictions/{code}
func (h *Handler) GetJurisdictionHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	j, err := h.Store.GetJurisdictionByCode(r.Context(), code)
	if err != nil {
		h.writeError(w, err, "get jurisdiction")
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// normalizeRule проверяет тип, важность и порог правила
func normalizeRule(rule *models.ComplianceRule) error {
	rule.Name = strings.TrimSpace(rule.Name)
	if rule.Name == "" || len(rule.Name) > 200 {
		return errors.New("ruleName is required and max length 200")
	}
	kind, err := compliance.ParseRuleType(rule.Type)
	if err != nil {
		return err
	}
	rule.Type = kind.String()

	switch strings.ToUpper(rule.Severity) {
	case "", models.SeverityError:
		rule.Severity = models.SeverityError
	case models.SeverityWarning:
		rule.Severity = models.SeverityWarning
	default:
		return errors.New("severity must be ERROR or WARNING")
	}

	t := rule.Definition.Threshold
	if t.IsNegative() || t.GreaterThan(hundred) {
		return errors.New("threshold must be between 0 and 100")
	}
	return nil
}

// CreateRuleHandler обрабатывает POST /api/jurisdictions/{code}/rules
func (h *Handler) CreateRuleHandler(w http.ResponseWriter, r *http.Request) {
	var rule models.ComplianceRule
	if err := readJSON(w, r, &rule); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := normalizeRule(&rule); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	j, err := h.Store.GetJurisdictionByCode(r.Context(), strings.ToUpper(chi.URLParam(r, "code")))
	if err != nil {
		h.writeError(w, err, "get jurisdiction")
		return
	}
	rule.JurisdictionID = j.ID
	rule.JurisdictionCode = j.Code

	if err := h.Store.CreateComplianceRule(r.Context(), &rule); err != nil {
		h.writeError(w, err, "create compliance rule")
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// GetRulesHandler обрабатывает GET /api/jurisdictions/{code}/rules
func (h *Handler) GetRulesHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	if _, err := h.Store.GetJurisdictionByCode(r.Context(), code); err != nil {
		h.writeError(w, err, "get jurisdiction")
		return
	}
	rules, err := h.Store.GetRulesByJurisdictionCode(r.Context(), code)
	if err != nil {
		h.writeError(w, err, "get compliance rules")
		return
	}
	if rules == nil {
		rules = []models.ComplianceRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

// UpdateRuleHandler обрабатывает PUT /api/rules/{ruleId}; юрисдикция правила не меняется
func (h *Handler) UpdateRuleHandler(w http.ResponseWriter, r *http.Request) {
	ruleID, err := intParam(r, "ruleId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req models.ComplianceRule
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := normalizeRule(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rule, err := h.Store.GetComplianceRule(r.Context(), ruleID)
	if err != nil {
		h.writeError(w, err, "get compliance rule")
		return
	}
	rule.Name = req.Name
	rule.Type = req.Type
	rule.Severity = req.Severity
	rule.Definition = req.Definition

	if err := h.Store.UpdateComplianceRule(r.Context(), rule); err != nil {
		h.writeError(w, err, "update compliance rule")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// DeleteRuleHandler обрабатывает DELETE /api/rules/{ruleId}
func (h *Handler) DeleteRuleHandler(w http.ResponseWriter, r *http.Request) {
	ruleID, err := intParam(r, "ruleId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Store.DeleteComplianceRule(r.Context(), ruleID); err != nil {
		h.writeError(w, err, "delete compliance rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
