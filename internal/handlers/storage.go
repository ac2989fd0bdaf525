package handlers

import (
	"context"

	"complyform/models"
)

// StorageInterface методы хранилища, которые нужны обработчикам
type StorageInterface interface {
	Ping(ctx context.Context) error

	CreateOrganization(ctx context.Context, o *models.Organization) error

	CreateBid(ctx context.Context, b *models.Bid) error
	GetBid(ctx context.Context, id int) (*models.Bid, error)
	GetBidWithLineItems(ctx context.Context, id int) (*models.Bid, error)
	UpdateBid(ctx context.Context, b *models.Bid) error
	AddLineItem(ctx context.Context, item *models.LineItem) error
	DeleteLineItem(ctx context.Context, bidID, itemID int) error

	CreateSubcontractor(ctx context.Context, sub *models.Subcontractor) error
	GetSubcontractor(ctx context.Context, id int) (*models.Subcontractor, error)
	LinkSubcontractorDirectory(ctx context.Context, subID, directoryID int) error

	CreateDirectoryEntry(ctx context.Context, d *models.DirectoryRecord) error
	UpdateDirectoryEntry(ctx context.Context, d *models.DirectoryRecord) error
	GetDirectoryEntry(ctx context.Context, id int) (*models.DirectoryRecord, error)
	GetDirectoryEntryByName(ctx context.Context, legalName string) (*models.DirectoryRecord, error)
	FindMatchingDirectoryEntries(ctx context.Context, f models.MatchFilter) ([]models.DirectoryRecord, error)

	CreateJurisdiction(ctx context.Context, j *models.Jurisdiction) error
	GetJurisdictionByCode(ctx context.Context, code string) (*models.Jurisdiction, error)
	GetRulesByJurisdictionCode(ctx context.Context, code string) ([]models.ComplianceRule, error)
	GetComplianceRule(ctx context.Context, id int) (*models.ComplianceRule, error)
	CreateComplianceRule(ctx context.Context, r *models.ComplianceRule) error
	UpdateComplianceRule(ctx context.Context, r *models.ComplianceRule) error
	DeleteComplianceRule(ctx context.Context, id int) error

	CreateOpportunity(ctx context.Context, o *models.Opportunity) error
	GetOpportunity(ctx context.Context, id int) (*models.Opportunity, error)
	GetOpportunities(ctx context.Context, jurisdictionCode string, limit, offset int) ([]models.Opportunity, error)
}
