package compliance

import (
	"context"

	"complyform/models"
)

// Store даёт прогону валидации доступ к данным внутри его транзакции
type Store interface {
	// GetBidWithLineItems возвращает заявку со строками в порядке добавления
	GetBidWithLineItems(ctx context.Context, bidID int) (*models.Bid, error)
	GetSubcontractor(ctx context.Context, id int) (*models.Subcontractor, error)
	GetJurisdictionsByCodes(ctx context.Context, codes []string) ([]models.Jurisdiction, error)
	GetRulesByJurisdictionIDs(ctx context.Context, ids []int) ([]models.ComplianceRule, error)
	DeleteValidationResults(ctx context.Context, bidID int) error
	InsertValidationResults(ctx context.Context, results []models.ValidationResult) error
	MarkBidValidated(ctx context.Context, bidID int) error
	GetValidationResults(ctx context.Context, bidID int) ([]models.ValidationResult, error)
}

// Transactor выполняет fn атомарно, сериализуя прогоны по одной заявке
type Transactor interface {
	RunInTx(ctx context.Context, bidID int, fn func(Store) error) error
}

// Directory источник записей справочника (может быть закэширован)
type Directory interface {
	GetDirectoryEntry(ctx context.Context, id int) (*models.DirectoryRecord, error)
	GetDirectoryEntryByName(ctx context.Context, legalName string) (*models.DirectoryRecord, error)
}
