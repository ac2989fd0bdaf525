package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"complyform/models"
)

func (s *Storage) CreateSubcontractor(ctx context.Context, sub *models.Subcontractor) error {
	query := `
        INSERT INTO subcontractors (organization_id, legal_name, certification_number, directory_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	err := s.q.QueryRowxContext(ctx, query, sub.OrganizationID, sub.LegalName, sub.CertificationNumber, sub.DirectoryID).
		Scan(&sub.ID, &sub.CreatedAt)
	return mapError(err, "create subcontractor")
}

func (s *Storage) GetSubcontractor(ctx context.Context, id int) (*models.Subcontractor, error) {
	sub := &models.Subcontractor{}
	if err := sqlx.GetContext(ctx, s.q, sub, `SELECT * FROM subcontractors WHERE id=$1`, id); err != nil {
		return nil, mapError(err, fmt.Sprintf("subcontractor %d", id))
	}
	return sub, nil
}

// LinkSubcontractorDirectory проставляет внешний ключ на запись справочника
func (s *Storage) LinkSubcontractorDirectory(ctx context.Context, subID, directoryID int) error {
	res, err := s.q.ExecContext(ctx, `UPDATE subcontractors SET directory_id=$1 WHERE id=$2`, directoryID, subID)
	if err != nil {
		return mapError(err, "link subcontractor")
	}
	return expectRows(res, fmt.Sprintf("subcontractor %d", subID))
}

func (s *Storage) CreateDirectoryEntry(ctx context.Context, d *models.DirectoryRecord) error {
	query := `
        INSERT INTO subcontractor_directory
            (legal_name, federal_id, certifications, jurisdiction_codes, naics_codes,
             capabilities, contact_email, rating, projects_completed, is_verified)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at`
	err := s.q.QueryRowxContext(ctx, query,
		d.LegalName, d.FederalID, d.Certifications, textArray(d.JurisdictionCodes), textArray(d.NAICSCodes),
		d.Capabilities, d.ContactEmail, d.Rating, d.ProjectsCompleted, d.IsVerified,
	).Scan(&d.ID, &d.CreatedAt)
	return mapError(err, "create directory entry")
}

func (s *Storage) UpdateDirectoryEntry(ctx context.Context, d *models.DirectoryRecord) error {
	query := `
        UPDATE subcontractor_directory
        SET legal_name=$1, federal_id=$2, certifications=$3, jurisdiction_codes=$4, naics_codes=$5,
            capabilities=$6, contact_email=$7, rating=$8, projects_completed=$9, is_verified=$10
        WHERE id=$11`
	res, err := s.q.ExecContext(ctx, query,
		d.LegalName, d.FederalID, d.Certifications, textArray(d.JurisdictionCodes), textArray(d.NAICSCodes),
		d.Capabilities, d.ContactEmail, d.Rating, d.ProjectsCompleted, d.IsVerified, d.ID,
	)
	if err != nil {
		return mapError(err, "update directory entry")
	}
	return expectRows(res, fmt.Sprintf("directory entry %d", d.ID))
}

func (s *Storage) GetDirectoryEntry(ctx context.Context, id int) (*models.DirectoryRecord, error) {
	d := &models.DirectoryRecord{}
	if err := sqlx.GetContext(ctx, s.q, d, `SELECT * FROM subcontractor_directory WHERE id=$1`, id); err != nil {
		return nil, mapError(err, fmt.Sprintf("directory entry %d", id))
	}
	return d, nil
}

// GetDirectoryEntryByName точное совпадение юридического имени
func (s *Storage) GetDirectoryEntryByName(ctx context.Context, legalName string) (*models.DirectoryRecord, error) {
	d := &models.DirectoryRecord{}
	query := `SELECT * FROM subcontractor_directory WHERE legal_name=$1`
	if err := sqlx.GetContext(ctx, s.q, d, query, legalName); err != nil {
		return nil, mapError(err, fmt.Sprintf("directory entry %q", legalName))
	}
	return d, nil
}

// FindMatchingDirectoryEntries подбор субподрядчиков: пересечение NAICS, юрисдикция,
// сертификат категории и минимальный рейтинг; лучшие сначала.
func (s *Storage) FindMatchingDirectoryEntries(ctx context.Context, f models.MatchFilter) ([]models.DirectoryRecord, error) {
	var out []models.DirectoryRecord
	naics := f.NAICSCodes
	if naics == nil {
		naics = []string{}
	}
	query := `
        SELECT * FROM subcontractor_directory
        WHERE (cardinality($1::text[]) = 0 OR naics_codes && $1::text[])
          AND ($2 = '' OR $2 = ANY(jurisdiction_codes))
          AND ($3 = '' OR COALESCE((certifications ->> $3)::boolean, false))
          AND rating >= $4
        ORDER BY rating DESC, projects_completed DESC, id`
	err := sqlx.SelectContext(ctx, s.q, &out, query,
		pq.Array(naics), f.JurisdictionCode, f.Category, f.MinRating)
	if err != nil {
		return nil, mapError(err, "find matching directory entries")
	}
	return out, nil
}
