package assessment

import (
	"context"

	"complyform/models"
)

// Store данные, нужные для оценки закупки
type Store interface {
	GetOpportunity(ctx context.Context, id int) (*models.Opportunity, error)
	FindMatchingDirectoryEntries(ctx context.Context, f models.MatchFilter) ([]models.DirectoryRecord, error)
	CreateAssessment(ctx context.Context, a *models.Assessment) error
	ListAssessmentsByOrganization(ctx context.Context, orgID int) ([]models.Assessment, error)
}
