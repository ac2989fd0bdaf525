package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"complyform/models"
)

const opportunityColumns = `o.id, o.solicitation_number, o.title, o.jurisdiction_id,
        COALESCE(j.code, '') AS jurisdiction_code, o.agency, o.mbe_goal, o.vsbe_goal, o.total_value,
        o.naics_codes, o.due_date, o.posted_date, o.is_active, o.created_at`

func (s *Storage) CreateOpportunity(ctx context.Context, o *models.Opportunity) error {
	query := `
        INSERT INTO opportunities
            (solicitation_number, title, jurisdiction_id, agency, mbe_goal, vsbe_goal,
             total_value, naics_codes, due_date, posted_date, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, created_at`
	err := s.q.QueryRowxContext(ctx, query,
		o.SolicitationNumber, o.Title, o.JurisdictionID, o.Agency, o.MBEGoal, o.VSBEGoal,
		o.TotalValue, textArray(o.NAICSCodes), o.DueDate, o.PostedDate, o.IsActive,
	).Scan(&o.ID, &o.CreatedAt)
	return mapError(err, "create opportunity")
}

func (s *Storage) GetOpportunity(ctx context.Context, id int) (*models.Opportunity, error) {
	o := &models.Opportunity{}
	query := `
        SELECT ` + opportunityColumns + `
        FROM opportunities o
        LEFT JOIN jurisdictions j ON j.id = o.jurisdiction_id
        WHERE o.id = $1`
	if err := sqlx.GetContext(ctx, s.q, o, query, id); err != nil {
		return nil, mapError(err, fmt.Sprintf("opportunity %d", id))
	}
	return o, nil
}

// GetOpportunities активные закупки, ближайший срок первым
func (s *Storage) GetOpportunities(ctx context.Context, jurisdictionCode string, limit, offset int) ([]models.Opportunity, error) {
	var out []models.Opportunity
	query := `
        SELECT ` + opportunityColumns + `
        FROM opportunities o
        LEFT JOIN jurisdictions j ON j.id = o.jurisdiction_id
        WHERE o.is_active AND ($1 = '' OR j.code = $1)
        ORDER BY o.due_date NULLS LAST, o.id
        LIMIT $2 OFFSET $3`
	if err := sqlx.SelectContext(ctx, s.q, &out, query, jurisdictionCode, limit, offset); err != nil {
		return nil, mapError(err, "list opportunities")
	}
	return out, nil
}

func (s *Storage) CreateAssessment(ctx context.Context, a *models.Assessment) error {
	query := `
        INSERT INTO pre_bid_assessments
            (organization_id, opportunity_id, risk_score, mbe_gap, vsbe_gap,
             available_subcontractors, recommendation, recommendation_reason, assessed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id`
	err := s.q.QueryRowxContext(ctx, query,
		a.OrganizationID, a.OpportunityID, a.RiskScore, a.MBEGap, a.VSBEGap,
		a.AvailableSubcontractors, a.Recommendation, a.Reason, a.AssessedAt,
	).Scan(&a.ID)
	return mapError(err, "create assessment")
}

func (s *Storage) ListAssessmentsByOrganization(ctx context.Context, orgID int) ([]models.Assessment, error) {
	var out []models.Assessment
	query := `SELECT * FROM pre_bid_assessments WHERE organization_id=$1 ORDER BY assessed_at DESC, id DESC`
	if err := sqlx.SelectContext(ctx, s.q, &out, query, orgID); err != nil {
		return nil, mapError(err, "list assessments")
	}
	return out, nil
}
