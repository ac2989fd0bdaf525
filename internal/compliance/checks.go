package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"complyform/internal/sentinel"
	"complyform/models"
)

// CheckID стабильный идентификатор проверки (хранится в результатах)
type CheckID string

const (
	CheckDirectoryJurisdiction CheckID = "directory_jurisdiction_match"
	CheckNAICSAssigned         CheckID = "naics_code_valid"
	CheckCertificationExists   CheckID = "certification_exists"
	CheckNAICSMatch            CheckID = "naics_match_certification"
	CheckJurisdictionRules     CheckID = "jurisdiction_compliance"
	CheckMBEPercentage         CheckID = "mbe_percentage"
	CheckJurisdictionGoals     CheckID = "jurisdiction_specific_goals"
)

// Порядок выполнения проверок
var checkOrder = []CheckID{
	CheckDirectoryJurisdiction,
	CheckNAICSAssigned,
	CheckCertificationExists,
	CheckNAICSMatch,
	CheckJurisdictionRules,
	CheckMBEPercentage,
	CheckJurisdictionGoals,
}

// CheckSet набор включённых проверок
type CheckSet map[CheckID]bool

// DefaultChecks все проверки, кроме naics_code_valid
func DefaultChecks() CheckSet {
	set := CheckSet{}
	for _, id := range checkOrder {
		set[id] = id != CheckNAICSAssigned
	}
	return set
}

// ParseCheckSet строит набор из списка идентификаторов; пустой список даёт набор по умолчанию
func ParseCheckSet(ids []string) (CheckSet, error) {
	if len(ids) == 0 {
		return DefaultChecks(), nil
	}
	known := map[CheckID]bool{}
	for _, id := range checkOrder {
		known[id] = true
	}
	set := CheckSet{}
	for _, raw := range ids {
		id := CheckID(strings.TrimSpace(raw))
		if !known[id] {
			return nil, fmt.Errorf("%w: unknown check %q", sentinel.ErrInvalidInput, raw)
		}
		set[id] = true
	}
	return set, nil
}

// Ordered возвращает включённые проверки в порядке выполнения
func (s CheckSet) Ordered() []CheckID {
	out := make([]CheckID, 0, len(s))
	for _, id := range checkOrder {
		if s[id] {
			out = append(out, id)
		}
	}
	return out
}

// Outcome результат одной проверки
type Outcome struct {
	Check   CheckID
	Status  string
	Message string
}

type checkFunc func(ctx context.Context, ev *evaluation) Outcome

var checks = map[CheckID]checkFunc{
	CheckDirectoryJurisdiction: checkDirectoryJurisdiction,
	CheckNAICSAssigned:         checkNAICSAssigned,
	CheckCertificationExists:   checkCertificationExists,
	CheckNAICSMatch:            checkNAICSMatch,
	CheckJurisdictionRules:     checkJurisdictionRules,
	CheckMBEPercentage:         checkMBEPercentage,
	CheckJurisdictionGoals:     checkJurisdictionGoals,
}

func outcome(id CheckID, errs, warns []string, passMsg string) Outcome {
	switch {
	case len(errs) > 0:
		return Outcome{Check: id, Status: models.StatusFail, Message: strings.Join(errs, "; ")}
	case len(warns) > 0:
		return Outcome{Check: id, Status: models.StatusWarning, Message: strings.Join(warns, "; ")}
	default:
		return Outcome{Check: id, Status: models.StatusPass, Message: passMsg}
	}
}

func warning(id CheckID, msg string) Outcome {
	return Outcome{Check: id, Status: models.StatusWarning, Message: msg}
}

// lineProblem описывает, почему строку не удалось сопоставить со справочником
func lineProblem(l *line, notFoundFmt string) string {
	if l.subErr != nil {
		if errors.Is(l.subErr, sentinel.ErrNotFound) {
			return fmt.Sprintf("Subcontractor not found: %d", l.item.SubcontractorID)
		}
		return fmt.Sprintf("Subcontractor %d could not be loaded: %v", l.item.SubcontractorID, l.subErr)
	}
	if errors.Is(l.recErr, sentinel.ErrNotFound) {
		return fmt.Sprintf(notFoundFmt, l.sub.LegalName)
	}
	return fmt.Sprintf("%s: directory lookup failed: %v", l.sub.LegalName, l.recErr)
}

func checkDirectoryJurisdiction(_ context.Context, ev *evaluation) Outcome {
	var errs []string
	for i := range ev.lines {
		l := &ev.lines[i]
		if !l.resolved() {
			errs = append(errs, lineProblem(l, "%s not found in directory"))
			continue
		}
		if len(l.rec.JurisdictionCodes) == 0 {
			errs = append(errs, fmt.Sprintf("%s has no jurisdiction codes in directory", l.sub.LegalName))
		}
	}
	return outcome(CheckDirectoryJurisdiction, errs, nil,
		"All subcontractors exist in directory with jurisdiction codes")
}

func checkNAICSAssigned(_ context.Context, ev *evaluation) Outcome {
	var errs []string
	for i := range ev.lines {
		l := &ev.lines[i]
		if l.subErr != nil {
			errs = append(errs, lineProblem(l, ""))
			continue
		}
		code := strings.TrimSpace(l.item.NAICSCode)
		if code == "" {
			errs = append(errs, fmt.Sprintf("%s has no NAICS code assigned in bid", l.sub.LegalName))
			continue
		}
		if l.recErr != nil {
			errs = append(errs, lineProblem(l, "%s not found in directory"))
			continue
		}
		if len(l.rec.NAICSCodes) == 0 {
			errs = append(errs, fmt.Sprintf("%s has no NAICS codes in directory", l.sub.LegalName))
			continue
		}
		if !l.rec.HasNAICS(code) {
			errs = append(errs, fmt.Sprintf("NAICS code '%s' not listed in directory for %s", code, l.sub.LegalName))
		}
	}
	return outcome(CheckNAICSAssigned, errs, nil, "All NAICS codes are assigned and listed in directory")
}

func checkCertificationExists(_ context.Context, ev *evaluation) Outcome {
	var errs []string
	for i := range ev.lines {
		l := &ev.lines[i]
		if !l.resolved() {
			errs = append(errs, lineProblem(l, "%s not found in directory"))
			continue
		}
		if len(l.item.Breakdown) > 0 {
			for _, share := range l.item.Breakdown {
				cat, err := ParseCategory(share.Category)
				if err != nil || cat == CategoryNonMBE || !share.Percentage.IsPositive() {
					continue
				}
				if !l.rec.Certifications.Has(cat.CertificationKey()) {
					errs = append(errs, fmt.Sprintf("%s is allocated %s%% %s but has no %s certification in directory",
						l.sub.LegalName, share.Percentage.String(), cat, cat))
				}
			}
			continue
		}
		if l.item.CountsTowardMBE && !l.rec.Certifications.Has(CategoryMBE.CertificationKey()) {
			errs = append(errs, fmt.Sprintf("%s is marked as MBE but has no MBE certification in directory", l.sub.LegalName))
		}
	}
	return outcome(CheckCertificationExists, errs, nil, "All claimed categories are certified in directory")
}

func checkNAICSMatch(_ context.Context, ev *evaluation) Outcome {
	var errs []string
	for i := range ev.lines {
		l := &ev.lines[i]
		if !l.resolved() {
			errs = append(errs, lineProblem(l, "%s: not found in directory"))
			continue
		}
		if len(l.rec.NAICSCodes) == 0 {
			errs = append(errs, fmt.Sprintf("%s: no NAICS codes in directory", l.sub.LegalName))
			continue
		}
		if !l.rec.HasNAICS(l.item.NAICSCode) {
			errs = append(errs, fmt.Sprintf("%s: NAICS code '%s' not listed in directory. Valid codes: %s",
				l.sub.LegalName, l.item.NAICSCode, strings.Join(l.rec.NAICSCodes, ", ")))
		}
	}
	return outcome(CheckNAICSMatch, errs, nil, "All NAICS codes match directory")
}

func checkJurisdictionRules(ctx context.Context, ev *evaluation) Outcome {
	const id = CheckJurisdictionRules
	if len(ev.codes) == 0 {
		return warning(id, "Cannot verify jurisdiction-specific compliance: no jurisdiction codes found in directory")
	}
	jurisdictions, err := ev.jurisdictions(ctx)
	if err != nil {
		return warning(id, fmt.Sprintf("Cannot verify jurisdiction-specific compliance: %v", err))
	}
	if len(jurisdictions) == 0 {
		return warning(id, "No jurisdiction records found for codes: "+strings.Join(ev.codes, ", "))
	}
	rules, err := ev.catalog.RulesFor(ctx, jurisdictions)
	if err != nil {
		return warning(id, fmt.Sprintf("Cannot verify jurisdiction-specific compliance: %v", err))
	}
	if len(rules) == 0 {
		codes := make([]string, 0, len(jurisdictions))
		for _, j := range jurisdictions {
			codes = append(codes, j.Code)
		}
		return warning(id, "No compliance rules found for jurisdictions: "+strings.Join(codes, ", "))
	}

	var errs, warns []string
	for _, rule := range rules {
		violation := ev.ruleViolation(rule)
		if violation == "" {
			continue
		}
		if rule.Severity == models.SeverityError {
			errs = append(errs, violation)
		} else {
			warns = append(warns, violation)
		}
	}
	return outcome(id, errs, warns, "All jurisdiction-specific compliance rules satisfied")
}

// ruleViolation возвращает описание нарушения или пустую строку
func (ev *evaluation) ruleViolation(rule Rule) string {
	var cat Category
	switch rule.Kind {
	case RuleTypeMBE:
		cat = CategoryMBE
	case RuleTypeVSBE:
		cat = CategoryVSBE
	case RuleTypeDBE:
		cat = CategoryDBE
	case RuleTypeLocalPref:
		return ""
	default:
		return fmt.Sprintf("%s: unsupported rule type %s", rule.Name, rule.Kind)
	}
	if ev.bid.TotalAmount.IsZero() {
		return ""
	}
	pct := ev.totals.Percentage(cat, ev.bid.TotalAmount)
	threshold := rule.Definition.Threshold
	if pct.LessThan(threshold) {
		return fmt.Sprintf("%s: %s participation %s%% is below required %s%%",
			rule.Name, cat, pct.StringFixed(2), threshold.String())
	}
	return ""
}

func checkMBEPercentage(_ context.Context, ev *evaluation) Outcome {
	const id = CheckMBEPercentage
	if ev.bid.TotalAmount.IsZero() {
		return warning(id, "Cannot calculate MBE percentage: total amount is 0")
	}
	pct := ev.totals.Percentage(CategoryMBE, ev.bid.TotalAmount)
	goal := ev.bid.MBEGoal
	if pct.LessThan(goal) {
		return Outcome{Check: id, Status: models.StatusFail,
			Message: fmt.Sprintf("MBE percentage %s%% is below goal of %s%%", pct.StringFixed(2), goal.String())}
	}
	return Outcome{Check: id, Status: models.StatusPass,
		Message: fmt.Sprintf("MBE percentage %s%% meets goal of %s%%", pct.StringFixed(2), goal.String())}
}

func checkJurisdictionGoals(ctx context.Context, ev *evaluation) Outcome {
	const id = CheckJurisdictionGoals
	if ev.bid.TotalAmount.IsZero() {
		return warning(id, "Cannot verify jurisdiction-specific goals: total amount is 0")
	}
	if len(ev.codes) == 0 {
		return warning(id, "Cannot verify jurisdiction-specific goals: jurisdiction not identified")
	}
	jurisdictions, err := ev.jurisdictions(ctx)
	if err != nil {
		return warning(id, fmt.Sprintf("Cannot verify jurisdiction-specific goals: %v", err))
	}
	if len(jurisdictions) == 0 {
		return warning(id, "Cannot verify jurisdiction-specific goals: no jurisdiction records found for "+
			strings.Join(ev.codes, ", "))
	}

	var errs []string
	for _, j := range jurisdictions {
		errs = ev.appendGoalShortfall(errs, j.Name, CategoryMBE, j.MBEGoalTypical)
		errs = ev.appendGoalShortfall(errs, j.Name, CategoryVSBE, j.VSBEGoalTypical)
	}
	return outcome(id, errs, nil, "All jurisdiction-specific goals met")
}

// Пустая или нулевая типичная цель юрисдикции не проверяется
func (ev *evaluation) appendGoalShortfall(errs []string, name string, cat Category, typical decimal.NullDecimal) []string {
	if !typical.Valid || !typical.Decimal.IsPositive() {
		return errs
	}
	pct := ev.totals.Percentage(cat, ev.bid.TotalAmount)
	if pct.LessThan(typical.Decimal) {
		errs = append(errs, fmt.Sprintf("%s: %s %s%% is below required %s%%",
			name, cat, pct.StringFixed(2), typical.Decimal.String()))
	}
	return errs
}
