package compliance

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"complyform/internal/sentinel"
	"complyform/models"
)

// RuleType закрытый набор типов правил соответствия
type RuleType int

const (
	RuleTypeMBE RuleType = iota + 1
	RuleTypeVSBE
	RuleTypeDBE
	RuleTypeLocalPref
)

var ruleTypeNames = map[RuleType]string{
	RuleTypeMBE:       "MBE",
	RuleTypeVSBE:      "VSBE",
	RuleTypeDBE:       "DBE",
	RuleTypeLocalPref: "LOCAL_PREF",
}

func (t RuleType) String() string {
	if name, ok := ruleTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("RuleType(%d)", int(t))
}

// ParseRuleType разбирает тип правила из хранилища или запроса
func ParseRuleType(s string) (RuleType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range ruleTypeNames {
		if name == norm {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown rule type %q", sentinel.ErrInvalidInput, s)
}

// Rule правило из хранилища с разобранным типом
type Rule struct {
	models.ComplianceRule
	Kind RuleType
}

// Catalog отвечает на вопрос "какие правила и цели действуют для этих юрисдикций"
type Catalog struct {
	store Store
	log   zerolog.Logger
}

func NewCatalog(store Store, log zerolog.Logger) *Catalog {
	return &Catalog{store: store, log: log}
}

// Jurisdictions возвращает найденные юрисдикции, упорядоченные по коду
func (c *Catalog) Jurisdictions(ctx context.Context, codes []string) ([]models.Jurisdiction, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	js, err := c.store.GetJurisdictionsByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("load jurisdictions: %w", err)
	}
	sort.Slice(js, func(i, k int) bool { return js[i].Code < js[k].Code })
	return js, nil
}

// RulesFor загружает правила найденных юрисдикций. Правила неизвестного типа
// пропускаются с предупреждением в логе.
func (c *Catalog) RulesFor(ctx context.Context, jurisdictions []models.Jurisdiction) ([]Rule, error) {
	if len(jurisdictions) == 0 {
		return nil, nil
	}
	ids := make([]int, 0, len(jurisdictions))
	codeByID := make(map[int]string, len(jurisdictions))
	for _, j := range jurisdictions {
		ids = append(ids, j.ID)
		codeByID[j.ID] = j.Code
	}

	raw, err := c.store.GetRulesByJurisdictionIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load compliance rules: %w", err)
	}

	rules := make([]Rule, 0, len(raw))
	for _, r := range raw {
		kind, err := ParseRuleType(r.Type)
		if err != nil {
			c.log.Warn().Int("rule_id", r.ID).Str("rule_type", r.Type).Msg("skipping compliance rule of unknown type")
			continue
		}
		if r.JurisdictionCode == "" {
			r.JurisdictionCode = codeByID[r.JurisdictionID]
		}
		rules = append(rules, Rule{ComplianceRule: r, Kind: kind})
	}
	sort.SliceStable(rules, func(i, k int) bool {
		if rules[i].JurisdictionCode != rules[k].JurisdictionCode {
			return rules[i].JurisdictionCode < rules[k].JurisdictionCode
		}
		return rules[i].ID < rules[k].ID
	})
	return rules, nil
}

// unionCodes объединяет коды юрисдикций без повторов, в отсортированном виде
func unionCodes(sets ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, set := range sets {
		for _, code := range set {
			if code == "" {
				continue
			}
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}
