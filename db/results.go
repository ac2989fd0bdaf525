package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"complyform/models"
)

func (s *Storage) DeleteValidationResults(ctx context.Context, bidID int) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM validation_results WHERE bid_id=$1`, bidID)
	return mapError(err, "delete validation results")
}

// InsertValidationResults сохраняет результаты прогона и проставляет им id
func (s *Storage) InsertValidationResults(ctx context.Context, results []models.ValidationResult) error {
	query := `
        INSERT INTO validation_results (bid_id, run_id, rule_name, status, message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`
	for i := range results {
		r := &results[i]
		err := s.q.QueryRowxContext(ctx, query, r.BidID, r.RunID, r.Check, r.Status, r.Message, r.CreatedAt).Scan(&r.ID)
		if err != nil {
			return mapError(err, "insert validation results")
		}
	}
	return nil
}

func (s *Storage) GetValidationResults(ctx context.Context, bidID int) ([]models.ValidationResult, error) {
	var out []models.ValidationResult
	query := `SELECT * FROM validation_results WHERE bid_id=$1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, s.q, &out, query, bidID); err != nil {
		return nil, mapError(err, "list validation results")
	}
	return out, nil
}
