package compliance

import (
	"github.com/google/uuid"

	"complyform/models"
)

var statusRank = map[string]int{
	models.StatusPass:    0,
	models.StatusWarning: 1,
	models.StatusFail:    2,
}

// Aggregate сводит статусы проверок: FAIL > WARNING > PASS
func Aggregate(statuses ...string) string {
	overall := models.StatusPass
	for _, s := range statuses {
		if statusRank[s] > statusRank[overall] {
			overall = s
		}
	}
	return overall
}

// Report итог прогона валидации
type Report struct {
	BidID            int                       `json:"bidId"`
	RunID            uuid.UUID                 `json:"runId"`
	OverallStatus    string                    `json:"overallStatus"`
	TotalValidations int                       `json:"totalValidations"`
	Passed           int                       `json:"passed"`
	Failed           int                       `json:"failed"`
	Warnings         int                       `json:"warnings"`
	Validations      []models.ValidationResult `json:"validations"`
}

// NewReport считает итоги по сохранённому набору результатов
func NewReport(bidID int, results []models.ValidationResult) *Report {
	r := &Report{
		BidID:            bidID,
		TotalValidations: len(results),
		Validations:      results,
	}
	if r.Validations == nil {
		r.Validations = []models.ValidationResult{}
	}
	statuses := make([]string, 0, len(results))
	for _, res := range results {
		switch res.Status {
		case models.StatusPass:
			r.Passed++
		case models.StatusFail:
			r.Failed++
		case models.StatusWarning:
			r.Warnings++
		}
		statuses = append(statuses, res.Status)
		r.RunID = res.RunID
	}
	r.OverallStatus = Aggregate(statuses...)
	return r
}
