package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"complyform/internal/sentinel"
	"complyform/models"
)

func (s *Storage) CreateOrganization(ctx context.Context, o *models.Organization) error {
	query := `
        INSERT INTO organizations (name)
        VALUES ($1)
        RETURNING id, created_at`
	err := s.q.QueryRowxContext(ctx, query, o.Name).Scan(&o.ID, &o.CreatedAt)
	return mapError(err, "create organization")
}

func (s *Storage) CreateBid(ctx context.Context, b *models.Bid) error {
	query := `
        INSERT INTO bids (organization_id, solicitation_number, total_amount, mbe_goal)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	err := s.q.QueryRowxContext(ctx, query, b.OrganizationID, b.SolicitationNumber, b.TotalAmount, b.MBEGoal).
		Scan(&b.ID, &b.CreatedAt)
	return mapError(err, "create bid")
}

func (s *Storage) GetBid(ctx context.Context, id int) (*models.Bid, error) {
	b := &models.Bid{}
	query := `SELECT * FROM bids WHERE id=$1`
	if err := sqlx.GetContext(ctx, s.q, b, query, id); err != nil {
		return nil, mapError(err, fmt.Sprintf("bid %d", id))
	}
	return b, nil
}

// GetBidWithLineItems заявка со строками в порядке добавления
func (s *Storage) GetBidWithLineItems(ctx context.Context, id int) (*models.Bid, error) {
	b, err := s.GetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.GetLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	b.LineItems = items
	return b, nil
}

// UpdateBid меняет номер, сумму и цель; проверку "заявка уже проверялась" делает обработчик
// UpdateBid не меняет суммы у уже проверенной заявки. Условие стоит в самом
// UPDATE, поэтому параллельный прогон проверки между чтением и записью не теряется.
func (s *Storage) UpdateBid(ctx context.Context, b *models.Bid) error {
	query := `
        UPDATE bids
        SET solicitation_number=$1, total_amount=$2, mbe_goal=$3
        WHERE id=$4
          AND (validated_at IS NULL OR (total_amount=$2 AND mbe_goal=$3))`
	res, err := s.q.ExecContext(ctx, query, b.SolicitationNumber, b.TotalAmount, b.MBEGoal, b.ID)
	if err != nil {
		return mapError(err, "update bid")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "update bid")
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := sqlx.GetContext(ctx, s.q, &exists, `SELECT EXISTS(SELECT 1 FROM bids WHERE id=$1)`, b.ID); err != nil {
		return mapError(err, "update bid")
	}
	if !exists {
		return fmt.Errorf("bid %d: %w", b.ID, sentinel.ErrNotFound)
	}
	return fmt.Errorf("bid %d already validated: %w", b.ID, sentinel.ErrInvalidState)
}

func (s *Storage) MarkBidValidated(ctx context.Context, id int) error {
	_, err := s.q.ExecContext(ctx, `UPDATE bids SET validated_at = NOW() WHERE id=$1`, id)
	return mapError(err, "mark bid validated")
}

func (s *Storage) GetLineItems(ctx context.Context, bidID int) ([]models.LineItem, error) {
	var items []models.LineItem
	query := `SELECT * FROM bid_subcontractors WHERE bid_id=$1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, s.q, &items, query, bidID); err != nil {
		return nil, mapError(err, "list line items")
	}
	return items, nil
}

func (s *Storage) AddLineItem(ctx context.Context, item *models.LineItem) error {
	query := `
        INSERT INTO bid_subcontractors
            (bid_id, subcontractor_id, work_description, naics_code, value, counts_toward_mbe, category_breakdown)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`
	err := s.q.QueryRowxContext(ctx, query,
		item.BidID, item.SubcontractorID, item.WorkDescription, item.NAICSCode,
		item.Value, item.CountsTowardMBE, item.Breakdown,
	).Scan(&item.ID)
	return mapError(err, "add line item")
}

func (s *Storage) DeleteLineItem(ctx context.Context, bidID, itemID int) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM bid_subcontractors WHERE id=$1 AND bid_id=$2`, itemID, bidID)
	if err != nil {
		return mapError(err, "delete line item")
	}
	return expectRows(res, fmt.Sprintf("line item %d", itemID))
}
