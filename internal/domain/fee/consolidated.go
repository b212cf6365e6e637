package fee

import (
	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

// ConsolidatedTotals are the aggregate amounts over a voucher set
type ConsolidatedTotals struct {
	TotalAmount    valueobject.Money `json:"totalAmount"`
	TotalPaid      valueobject.Money `json:"totalPaid"`
	TotalRemaining valueobject.Money `json:"totalRemaining"`
}

// AggregateConsolidated sums amount, paidAmount and remaining over vs
func AggregateConsolidated(vs []Voucher) ConsolidatedTotals {
	totals := ConsolidatedTotals{
		TotalAmount:    valueobject.Zero(),
		TotalPaid:      valueobject.Zero(),
		TotalRemaining: valueobject.Zero(),
	}
	for _, v := range vs {
		totals.TotalAmount = totals.TotalAmount.Add(v.Amount)
		totals.TotalPaid = totals.TotalPaid.Add(v.PaidAmount)
		totals.TotalRemaining = totals.TotalRemaining.Add(ComputeRemaining(v))
	}
	return totals
}

// ConsolidatedVoucher bundles a student's pending vouchers for one printout.
// It exists only at print time and is never sent to the API.
type ConsolidatedVoucher struct {
	IsConsolidated    bool               `json:"isConsolidated"`
	Student           school.Student     `json:"student"`
	Vouchers          []Voucher          `json:"vouchers"`
	Totals            ConsolidatedTotals `json:"totals"`
	ContainsMonthly   bool               `json:"containsMonthly"`
	ContainsAdmission bool               `json:"containsAdmission"`
}

// PendingVouchers selects the unpaid monthly vouchers of year and every
// unpaid admission voucher.
func PendingVouchers(vs []Voucher, year int) []Voucher {
	var pending []Voucher
	for _, v := range vs {
		if v.IsPaid {
			continue
		}
		switch {
		case v.IsAdmission():
			pending = append(pending, v)
		case v.IsMonthly() && v.Period != nil && v.Period.Year == year:
			pending = append(pending, v)
		}
	}
	return pending
}

// BuildConsolidated builds the consolidated voucher from a student's pending vouchers
func BuildConsolidated(student school.Student, vs []Voucher, year int) (ConsolidatedVoucher, error) {
	pending := PendingVouchers(vs, year)
	if len(pending) == 0 {
		return ConsolidatedVoucher{}, ErrNoPendingVouchers
	}

	cv := ConsolidatedVoucher{
		IsConsolidated: true,
		Student:        student,
		Vouchers:       pending,
		Totals:         AggregateConsolidated(pending),
	}
	for _, v := range pending {
		cv.ContainsMonthly = cv.ContainsMonthly || v.IsMonthly()
		cv.ContainsAdmission = cv.ContainsAdmission || v.IsAdmission()
	}
	return cv, nil
}
