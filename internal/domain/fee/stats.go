package fee

import (
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Percentage returns round(part / whole * 100), rounding half away from zero.
// A zero or negative whole yields 0.
func Percentage(part, whole decimal.Decimal) int {
	if !whole.IsPositive() {
		return 0
	}
	return int(part.Mul(hundred).Div(whole).Round(0).IntPart())
}

// CollectionRate is paid / (paid + pending) as a whole percentage
func CollectionRate(paid, pending valueobject.Money) int {
	return Percentage(paid.Amount(), paid.Add(pending).Amount())
}

// AttendanceRate is present / total as a whole percentage
func AttendanceRate(present, total int) int {
	return Percentage(decimal.NewFromInt(int64(present)), decimal.NewFromInt(int64(total)))
}
