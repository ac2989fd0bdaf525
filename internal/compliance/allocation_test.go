package compliance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"complyform/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAllocate_BreakdownGatedByCertification(t *testing.T) {
	item := models.LineItem{
		Value:     dec("300000"),
		Breakdown: models.Breakdown{share("MBE", "50"), share("WBE", "30"), share("NON-MBE", "20")},
	}
	rec := &models.DirectoryRecord{Certifications: models.Certifications{"mbe": true}}

	alloc := Allocate(item, rec)
	require.True(t, dec("150000").Equal(alloc.Amount(CategoryMBE)))
	require.True(t, alloc.Amount(CategoryWBE).IsZero(), "uncertified WBE share must be dropped")
	_, ok := alloc[CategoryNonMBE]
	require.False(t, ok)
}

func TestAllocate_LegacyFlagOnlyDrivesMBE(t *testing.T) {
	item := models.LineItem{Value: dec("1000"), CountsTowardMBE: true}
	rec := &models.DirectoryRecord{Certifications: models.Certifications{"mbe": true, "vsbe": true}}

	alloc := Allocate(item, rec)
	require.True(t, dec("1000").Equal(alloc.Amount(CategoryMBE)))
	require.True(t, alloc.Amount(CategoryVSBE).IsZero())

	rec.Certifications = models.Certifications{"vsbe": true}
	require.Empty(t, Allocate(item, rec))
}

func TestAllocate_BreakdownOverridesFlag(t *testing.T) {
	item := models.LineItem{
		Value:           dec("1000"),
		CountsTowardMBE: true,
		Breakdown:       models.Breakdown{share("VSBE", "100")},
	}
	rec := &models.DirectoryRecord{Certifications: models.Certifications{"mbe": true, "vsbe": true}}

	alloc := Allocate(item, rec)
	require.True(t, alloc.Amount(CategoryMBE).IsZero())
	require.True(t, dec("1000").Equal(alloc.Amount(CategoryVSBE)))
}

func TestAllocation_Percentage(t *testing.T) {
	alloc := Allocation{CategoryMBE: dec("150000")}
	require.Equal(t, "15.00", alloc.Percentage(CategoryMBE, dec("1000000")).StringFixed(2))
	require.True(t, alloc.Percentage(CategoryMBE, decimal.Zero).IsZero())

	// 1/3 не должно округляться вверх до порога
	third := Allocation{CategoryMBE: dec("1")}
	require.True(t, third.Percentage(CategoryMBE, dec("3")).LessThan(dec("33.34")))
	require.True(t, third.Percentage(CategoryMBE, dec("3")).GreaterThan(dec("33.33")))
}

func TestAllocate_NoDirectoryRecord(t *testing.T) {
	item := models.LineItem{Value: dec("10"), CountsTowardMBE: true}
	require.Empty(t, Allocate(item, nil))
}
