package fee

import "github.com/alfalah/schooladmin/internal/domain/shared/valueobject"

// ValidateAmount rejects zero and negative amounts
func ValidateAmount(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// ValidatePeriod rejects months outside 1..12 and missing years
func ValidatePeriod(month, year int) (valueobject.Period, error) {
	p, err := valueobject.NewPeriod(month, year)
	if err != nil {
		return valueobject.Period{}, ErrInvalidPeriod
	}
	return p, nil
}

// ComputeAdmissionTotal sums every charge of the breakdown. A bundled monthly
// fee must name the month and year it pays for.
func ComputeAdmissionTotal(b AdmissionBreakdown) (valueobject.Money, error) {
	if b.MonthlyFee.IsPositive() {
		p, ok := b.MonthlyPeriod()
		if !ok {
			return valueobject.Money{}, ErrMissingMonthlyPeriod
		}
		if !p.IsValid() {
			return valueobject.Money{}, ErrInvalidPeriod
		}
	}
	return valueobject.Sum(
		b.AdmissionFee,
		b.AnnualCharges,
		b.SecurityCard,
		b.PaperFund,
		b.OtherDues,
		b.MonthlyFee,
	), nil
}

// ComputeRemaining returns amount - paidAmount, never below zero
func ComputeRemaining(v Voucher) valueobject.Money {
	return v.Amount.Subtract(v.PaidAmount).ClampZero()
}

// ValidateEditAmount rejects a new voucher amount below what has already been paid
func ValidateEditAmount(v Voucher, amount valueobject.Money) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if amount.LessThan(v.PaidAmount) {
		return ErrAmountBelowPaid
	}
	return nil
}
