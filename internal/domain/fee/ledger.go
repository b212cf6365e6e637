package fee

import "github.com/alfalah/schooladmin/internal/domain/shared/valueobject"

// LedgerCheck compares a voucher's partial-payment ledger with its paidAmount.
// paidAmount is authoritative; the ledger is an audit trail only.
type LedgerCheck struct {
	VoucherNumber string
	LedgerTotal   valueobject.Money
	PaidAmount    valueobject.Money
	// Difference is PaidAmount - LedgerTotal
	Difference valueobject.Money
	Entries    int
	Consistent bool
	// Explained is set when the difference comes from a mark-paid override
	Explained bool
}

// ReconcileLedger sums the ledger and reports any mismatch with paidAmount.
// Vouchers with no ledger entries that were paid in one go are consistent.
func ReconcileLedger(v Voucher) LedgerCheck {
	ledger := valueobject.Zero()
	for _, p := range v.PartialPayments {
		ledger = ledger.Add(p.Amount)
	}

	check := LedgerCheck{
		VoucherNumber: v.VoucherNumber,
		LedgerTotal:   ledger,
		PaidAmount:    v.PaidAmount,
		Difference:    v.PaidAmount.Subtract(ledger),
		Entries:       len(v.PartialPayments),
	}
	switch {
	case check.Difference.IsZero():
		check.Consistent = true
	case check.Entries == 0 && v.IsPaid:
		check.Consistent = true
	case v.PaidByOverride && check.Difference.Equals(v.OverrideShortfall):
		check.Consistent = true
		check.Explained = true
	}
	return check
}
