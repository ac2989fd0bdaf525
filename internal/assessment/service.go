package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"complyform/internal/compliance"
	"complyform/internal/metrics"
	"complyform/internal/sentinel"
	"complyform/models"
)

// ErrOpportunityNotFound закупка не найдена
var ErrOpportunityNotFound = fmt.Errorf("opportunity %w", sentinel.ErrNotFound)

const maxMatchingSubcontractors = 10

var minMatchRating = decimal.RequireFromString("2.0")

// Request запрос на оценку закупки от имени организации
type Request struct {
	OrganizationID int `json:"organizationId"`
	OpportunityID  int `json:"opportunityId"`
}

type Service struct {
	store   Store
	log     zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(store Store, log zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, log: log, metrics: m, now: time.Now}
}

// WithClock подменяет часы (для тестов сроков подачи)
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Assess оценивает риск участия и сохраняет оценку
func (s *Service) Assess(ctx context.Context, req Request) (*models.Assessment, error) {
	if req.OrganizationID <= 0 || req.OpportunityID <= 0 {
		return nil, fmt.Errorf("%w: organizationId and opportunityId must be positive", sentinel.ErrInvalidInput)
	}

	opp, err := s.store.GetOpportunity(ctx, req.OpportunityID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrOpportunityNotFound, req.OpportunityID)
	}
	if err != nil {
		return nil, fmt.Errorf("load opportunity %d: %w", req.OpportunityID, err)
	}

	mbeMatches, vsbeMatches, err := s.findMatches(ctx, opp)
	if err != nil {
		return nil, err
	}

	scoring := Score(Inputs{
		MBEGoal:      opp.MBEGoal,
		VSBEGoal:     opp.VSBEGoal,
		MBEMatches:   len(mbeMatches),
		VSBEMatches:  len(vsbeMatches),
		TotalValue:   opp.TotalValue,
		DaysUntilDue: s.daysUntil(opp.DueDate),
	})

	top := mbeMatches
	if len(top) > maxMatchingSubcontractors {
		top = top[:maxMatchingSubcontractors]
	}

	a := &models.Assessment{
		OrganizationID:          req.OrganizationID,
		OpportunityID:           opp.ID,
		RiskScore:               scoring.RiskScore,
		MBEGap:                  scoring.MBEGap,
		VSBEGap:                 scoring.VSBEGap,
		AvailableSubcontractors: distinctCount(mbeMatches, vsbeMatches),
		Recommendation:          scoring.Recommendation,
		Reason:                  scoring.Reason,
		AssessedAt:              s.now().UTC(),
		RiskFactors:             scoring.RiskFactors,
		MatchingSubcontractors:  top,
	}
	if err := s.store.CreateAssessment(ctx, a); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}

	s.metrics.IncAssessment(a.Recommendation)
	s.log.Info().
		Int("opportunity_id", opp.ID).
		Int("organization_id", req.OrganizationID).
		Int("risk_score", a.RiskScore).
		Str("recommendation", a.Recommendation).
		Msg("opportunity assessed")
	return a, nil
}

// findMatches ищет MBE и VSBE субподрядчиков параллельно; поиск выполняется,
// только если у закупки есть коды NAICS, юрисдикция и соответствующая цель.
func (s *Service) findMatches(ctx context.Context, opp *models.Opportunity) (mbe, vsbe []models.DirectoryRecord, err error) {
	if len(opp.NAICSCodes) == 0 || opp.JurisdictionCode == "" {
		return nil, nil, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	query := func(cat compliance.Category, goal decimal.Decimal, dst *[]models.DirectoryRecord) {
		if !goal.IsPositive() {
			return
		}
		g.Go(func() error {
			recs, err := s.store.FindMatchingDirectoryEntries(gctx, models.MatchFilter{
				NAICSCodes:       opp.NAICSCodes,
				JurisdictionCode: opp.JurisdictionCode,
				Category:         cat.CertificationKey(),
				MinRating:        minMatchRating,
			})
			if err != nil {
				return fmt.Errorf("find %s subcontractors: %w", cat, err)
			}
			*dst = recs
			return nil
		})
	}
	query(compliance.CategoryMBE, opp.MBEGoal, &mbe)
	query(compliance.CategoryVSBE, opp.VSBEGoal, &vsbe)

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return mbe, vsbe, nil
}

// daysUntil число полных календарных дней до срока подачи
func (s *Service) daysUntil(due *time.Time) *int {
	if due == nil {
		return nil
	}
	today := truncateDay(s.now())
	days := int(truncateDay(*due).Sub(today).Hours() / 24)
	return &days
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func distinctCount(sets ...[]models.DirectoryRecord) int {
	seen := map[int]struct{}{}
	for _, set := range sets {
		for _, rec := range set {
			seen[rec.ID] = struct{}{}
		}
	}
	return len(seen)
}

// List оценки организации, новые первыми
func (s *Service) List(ctx context.Context, orgID int) ([]models.Assessment, error) {
	list, err := s.store.ListAssessmentsByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return list, nil
}

// Summary агрегирует рекомендации и средний балл риска по организации
func (s *Service) Summary(ctx context.Context, orgID int) (*models.AssessmentSummary, error) {
	list, err := s.List(ctx, orgID)
	if err != nil {
		return nil, err
	}

	sum := &models.AssessmentSummary{OrganizationID: orgID, AverageRiskScore: decimal.Zero}
	total := 0
	for _, a := range list {
		switch a.Recommendation {
		case models.RecommendationBid:
			sum.BidCount++
		case models.RecommendationCaution:
			sum.CautionCount++
		case models.RecommendationNoBid:
			sum.NoBidCount++
		}
		total += a.RiskScore
	}
	sum.TotalAssessments = len(list)
	if len(list) > 0 {
		sum.AverageRiskScore = decimal.NewFromInt(int64(total)).
			Div(decimal.NewFromInt(int64(len(list)))).
			Round(2)
	}
	return sum, nil
}
