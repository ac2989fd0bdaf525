package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"complyform/models"
)

func (s *Storage) CreateJurisdiction(ctx context.Context, j *models.Jurisdiction) error {
	query := `
        INSERT INTO jurisdictions (code, name, mbe_goal_typical, vsbe_goal_typical)
        VALUES ($1, $2, $3, $4)
        RETURNING id`
	err := s.q.QueryRowxContext(ctx, query, j.Code, j.Name, j.MBEGoalTypical, j.VSBEGoalTypical).Scan(&j.ID)
	return mapError(err, "create jurisdiction")
}

func (s *Storage) GetJurisdictionByCode(ctx context.Context, code string) (*models.Jurisdiction, error) {
	j := &models.Jurisdiction{}
	if err := sqlx.GetContext(ctx, s.q, j, `SELECT * FROM jurisdictions WHERE code=$1`, code); err != nil {
		return nil, mapError(err, fmt.Sprintf("jurisdiction %q", code))
	}
	return j, nil
}

func (s *Storage) GetJurisdictionsByCodes(ctx context.Context, codes []string) ([]models.Jurisdiction, error) {
	var out []models.Jurisdiction
	query := `SELECT * FROM jurisdictions WHERE code = ANY($1) ORDER BY code`
	if err := sqlx.SelectContext(ctx, s.q, &out, query, pq.Array(codes)); err != nil {
		return nil, mapError(err, "list jurisdictions")
	}
	return out, nil
}

const ruleColumns = `r.id, r.jurisdiction_id, j.code AS jurisdiction_code, r.rule_name, r.rule_type,
        r.severity, r.rule_definition, r.created_at`

func (s *Storage) GetRulesByJurisdictionIDs(ctx context.Context, ids []int) ([]models.ComplianceRule, error) {
	var out []models.ComplianceRule
	query := `
        SELECT ` + ruleColumns + `
        FROM compliance_rules r
        JOIN jurisdictions j ON j.id = r.jurisdiction_id
        WHERE r.jurisdiction_id = ANY($1)
        ORDER BY j.code, r.id`
	if err := sqlx.SelectContext(ctx, s.q, &out, query, pq.Array(ids)); err != nil {
		return nil, mapError(err, "list compliance rules")
	}
	return out, nil
}

func (s *Storage) GetRulesByJurisdictionCode(ctx context.Context, code string) ([]models.ComplianceRule, error) {
	var out []models.ComplianceRule
	query := `
        SELECT ` + ruleColumns + `
        FROM compliance_rules r
        JOIN jurisdictions j ON j.id = r.jurisdiction_id
        WHERE j.code = $1
        ORDER BY r.id`
	if err := sqlx.SelectContext(ctx, s.q, &out, query, code); err != nil {
		return nil, mapError(err, "list compliance rules")
	}
	return out, nil
}

func (s *Storage) GetComplianceRule(ctx context.Context, id int) (*models.ComplianceRule, error) {
	r := &models.ComplianceRule{}
	query := `
        SELECT ` + ruleColumns + `
        FROM compliance_rules r
        JOIN jurisdictions j ON j.id = r.jurisdiction_id
        WHERE r.id = $1`
	if err := sqlx.GetContext(ctx, s.q, r, query, id); err != nil {
		return nil, mapError(err, fmt.Sprintf("compliance rule %d", id))
	}
	return r, nil
}

func (s *Storage) CreateComplianceRule(ctx context.Context, r *models.ComplianceRule) error {
	query := `
        INSERT INTO compliance_rules (jurisdiction_id, rule_name, rule_type, severity, rule_definition)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	err := s.q.QueryRowxContext(ctx, query, r.JurisdictionID, r.Name, r.Type, r.Severity, r.Definition).
		Scan(&r.ID, &r.CreatedAt)
	return mapError(err, "create compliance rule")
}

func (s *Storage) UpdateComplianceRule(ctx context.Context, r *models.ComplianceRule) error {
	query := `
        UPDATE compliance_rules
        SET rule_name=$1, rule_type=$2, severity=$3, rule_definition=$4
        WHERE id=$5`
	res, err := s.q.ExecContext(ctx, query, r.Name, r.Type, r.Severity, r.Definition, r.ID)
	if err != nil {
		return mapError(err, "update compliance rule")
	}
	return expectRows(res, fmt.Sprintf("compliance rule %d", r.ID))
}

func (s *Storage) DeleteComplianceRule(ctx context.Context, id int) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM compliance_rules WHERE id=$1`, id)
	if err != nil {
		return mapError(err, "delete compliance rule")
	}
	return expectRows(res, fmt.Sprintf("compliance rule %d", id))
}
