package assessment

import (
	"fmt"

	"github.com/shopspring/decimal"

	"complyform/models"
)

const (
	penaltyNoMBE       = 40
	penaltyThinMBE     = 25
	penaltyNoVSBE      = 20
	penaltyThinVSBE    = 10
	penaltyHighValue   = 15
	penaltyDueVerySoon = 30
	penaltyDueSoon     = 15
	thinMBEMatches     = 3
	thinVSBEMatches    = 2
	noBidThreshold     = 60
	cautionThreshold   = 30
	maxRiskScore       = 100
	dueVerySoonDays    = 7
	dueSoonDays        = 14
)

var (
	highValueThreshold  = decimal.NewFromInt(10_000_000)
	smallValueThreshold = decimal.NewFromInt(100_000)
	thinMBEGap          = decimal.NewFromInt(-10)
	thinVSBEGap         = decimal.NewFromInt(-5)
)

// Inputs данные, из которых считается риск участия
type Inputs struct {
	MBEGoal      decimal.Decimal
	VSBEGoal     decimal.Decimal
	MBEMatches   int
	VSBEMatches  int
	TotalValue   decimal.Decimal
	DaysUntilDue *int
}

// Scoring результат оценки: балл, разрывы по целям и пояснения
type Scoring struct {
	RiskScore      int
	MBEGap         decimal.Decimal
	VSBEGap        decimal.Decimal
	RiskFactors    []string
	Recommendation string
	Reason         string
}

// Score суммирует фиксированные штрафы и переводит балл в рекомендацию
func Score(in Inputs) Scoring {
	var (
		score   int
		factors []string
		out     = Scoring{MBEGap: decimal.Zero, VSBEGap: decimal.Zero}
	)

	if in.MBEGoal.IsPositive() {
		goal := in.MBEGoal.String()
		switch {
		case in.MBEMatches == 0:
			out.MBEGap = in.MBEGoal.Neg()
			score += penaltyNoMBE
			factors = append(factors, fmt.Sprintf("CRITICAL: No MBE subcontractors found. Need %s%% participation.", goal))
		case in.MBEMatches < thinMBEMatches:
			out.MBEGap = thinMBEGap
			score += penaltyThinMBE
			factors = append(factors, fmt.Sprintf("WARNING: Only %d MBE subcontractors available. Limited options to meet %s%% goal.", in.MBEMatches, goal))
		default:
			factors = append(factors, fmt.Sprintf("GOOD: %d MBE subcontractors available to meet %s%% goal.", in.MBEMatches, goal))
		}
	}

	if in.VSBEGoal.IsPositive() {
		switch {
		case in.VSBEMatches == 0:
			out.VSBEGap = in.VSBEGoal.Neg()
			score += penaltyNoVSBE
			factors = append(factors, fmt.Sprintf("WARNING: No VSBE subcontractors found. Need %s%% participation.", in.VSBEGoal.String()))
		case in.VSBEMatches < thinVSBEMatches:
			out.VSBEGap = thinVSBEGap
			score += penaltyThinVSBE
			factors = append(factors, fmt.Sprintf("CAUTION: Only %d VSBE subcontractors available.", in.VSBEMatches))
		}
	}

	if in.TotalValue.IsPositive() {
		switch {
		case in.TotalValue.GreaterThan(highValueThreshold):
			score += penaltyHighValue
			factors = append(factors, "CAUTION: High-value contract ($10M+) requires strong team and capacity.")
		case in.TotalValue.LessThan(smallValueThreshold):
			factors = append(factors, "INFO: Small contract value may have lower margins.")
		}
	}

	if in.DaysUntilDue != nil {
		days := *in.DaysUntilDue
		switch {
		case days < dueVerySoonDays:
			score += penaltyDueVerySoon
			factors = append(factors, fmt.Sprintf("CRITICAL: Only %d days until due date. Very tight timeline.", days))
		case days < dueSoonDays:
			score += penaltyDueSoon
			factors = append(factors, fmt.Sprintf("WARNING: Only %d days until due date. Limited prep time.", days))
		default:
			factors = append(factors, fmt.Sprintf("GOOD: %d days until due date. Adequate preparation time.", days))
		}
	}

	out.RiskScore = min(score, maxRiskScore)
	out.RiskFactors = factors
	out.Recommendation, out.Reason = recommend(out.RiskScore)
	return out
}

func recommend(score int) (string, string) {
	switch {
	case score >= noBidThreshold:
		return models.RecommendationNoBid, "HIGH RISK: Significant compliance gaps or timing constraints. " +
			"Recommend passing on this opportunity."
	case score >= cautionThreshold:
		return models.RecommendationCaution, "MODERATE RISK: Some concerns identified. " +
			"Proceed with careful planning and strong subcontractor commitments."
	default:
		return models.RecommendationBid, "LOW RISK: Good subcontractor availability and reasonable timeline. " +
			"Strong opportunity to pursue."
	}
}
