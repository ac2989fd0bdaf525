package compliance

import (
	"github.com/shopspring/decimal"

	"complyform/models"
)

// Allocation сумма строки заявки, засчитанная по категориям
type Allocation map[Category]decimal.Decimal

// Allocate распределяет стоимость строки по категориям. Засчитываются только
// категории, сертифицированные в справочнике. Старый флаг counts_toward_mbe
// используется, лишь когда разбивки нет, и влияет только на MBE.
func Allocate(item models.LineItem, rec *models.DirectoryRecord) Allocation {
	alloc := Allocation{}
	if rec == nil {
		return alloc
	}

	if len(item.Breakdown) > 0 {
		for _, share := range item.Breakdown {
			cat, err := ParseCategory(share.Category)
			if err != nil || cat == CategoryNonMBE {
				continue
			}
			if !rec.Certifications.Has(cat.CertificationKey()) {
				continue
			}
			amount := item.Value.Mul(share.Percentage).Div(hundred)
			alloc[cat] = alloc[cat].Add(amount)
		}
		return alloc
	}

	if item.CountsTowardMBE && rec.Certifications.Has(CategoryMBE.CertificationKey()) {
		alloc[CategoryMBE] = item.Value
	}
	return alloc
}

// Add прибавляет другую аллокацию к текущей
func (a Allocation) Add(other Allocation) {
	for cat, amount := range other {
		a[cat] = a[cat].Add(amount)
	}
}

// Amount сумма по категории (ноль, если не засчитано)
func (a Allocation) Amount(cat Category) decimal.Decimal {
	return a[cat]
}

// Percentage доля категории от общей суммы заявки, в процентах
func (a Allocation) Percentage(cat Category, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return a.Amount(cat).Mul(hundred).Div(total)
}
