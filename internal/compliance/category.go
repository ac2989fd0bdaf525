package compliance

import (
	"fmt"
	"strings"

	"complyform/internal/sentinel"
)

// Category категория участия (MBE, WBE, ...)
type Category string

const (
	CategoryMBE    Category = "MBE"
	CategoryWBE    Category = "WBE"
	CategorySBE    Category = "SBE"
	CategoryVSBE   Category = "VSBE"
	CategoryDBE    Category = "DBE"
	CategoryCBE    Category = "CBE"
	CategoryNonMBE Category = "NON-MBE"
)

var knownCategories = map[Category]struct{}{
	CategoryMBE:    {},
	CategoryWBE:    {},
	CategorySBE:    {},
	CategoryVSBE:   {},
	CategoryDBE:    {},
	CategoryCBE:    {},
	CategoryNonMBE: {},
}

// ParseCategory приводит имя категории к каноническому виду
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := knownCategories[c]; !ok {
		return "", fmt.Errorf("%w: unknown category %q", sentinel.ErrInvalidInput, s)
	}
	return c, nil
}

// CertificationKey ключ в карте сертификатов справочника
func (c Category) CertificationKey() string {
	return strings.ToLower(string(c))
}
