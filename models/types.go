package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Доля стоимости строки заявки, отнесённая к категории участия
type CategoryShare struct {
	Category   string          `json:"category"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Breakdown хранится в JSONB; пустое значение пишется как NULL
type Breakdown []CategoryShare

func (b Breakdown) Value() (driver.Value, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return json.Marshal([]CategoryShare(b))
}

func (b *Breakdown) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil || raw == nil {
		*b = nil
		return err
	}
	var shares []CategoryShare
	if err := json.Unmarshal(raw, &shares); err != nil {
		return fmt.Errorf("scan category breakdown: %w", err)
	}
	*b = shares
	return nil
}

// Certifications: ключ категории в нижнем регистре ("mbe", "vsbe") -> наличие сертификата
type Certifications map[string]bool

// Has ищет сертификат по имени категории без учёта регистра
func (c Certifications) Has(category string) bool {
	return c[strings.ToLower(category)]
}

func (c Certifications) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]bool(c))
}

func (c *Certifications) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return err
	}
	m := map[string]bool{}
	if raw != nil {
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("scan certifications: %w", err)
		}
	}
	*c = m
	return nil
}

// Определение правила; сейчас используется только порог в процентах
type RuleDefinition struct {
	Threshold decimal.Decimal `json:"threshold"`
}

func (d RuleDefinition) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *RuleDefinition) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil || raw == nil {
		*d = RuleDefinition{}
		return err
	}
	if err := json.Unmarshal(raw, d); err != nil {
		return fmt.Errorf("scan rule definition: %w", err)
	}
	return nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", src)
	}
}
