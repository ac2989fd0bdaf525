package compliance

import (
	"context"
	"fmt"

	"complyform/models"
)

// Resolver находит запись справочника для субподрядчика заявки
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve идёт по внешнему ключу directory_id, а для старых записей без него
// ищет по точному совпадению юридического имени.
func (r *Resolver) Resolve(ctx context.Context, sub *models.Subcontractor) (*models.DirectoryRecord, error) {
	if sub.DirectoryID != nil {
		rec, err := r.dir.GetDirectoryEntry(ctx, *sub.DirectoryID)
		if err != nil {
			return nil, fmt.Errorf("directory entry %d for %s: %w", *sub.DirectoryID, sub.LegalName, err)
		}
		return rec, nil
	}
	return r.ResolveName(ctx, sub.LegalName)
}

// ResolveName поиск по имени с учётом регистра
func (r *Resolver) ResolveName(ctx context.Context, legalName string) (*models.DirectoryRecord, error) {
	rec, err := r.dir.GetDirectoryEntryByName(ctx, legalName)
	if err != nil {
		return nil, fmt.Errorf("directory entry for %s: %w", legalName, err)
	}
	return rec, nil
}
