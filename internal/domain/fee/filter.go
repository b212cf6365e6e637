package fee

import (
	"fmt"
	"strings"

	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

// StatusFilter selects vouchers by paid state
type StatusFilter string

const (
	FilterAll     StatusFilter = "all"
	FilterPaid    StatusFilter = "paid"
	FilterUnpaid  StatusFilter = "unpaid"
	FilterPartial StatusFilter = "partial"
)

// ParseStatusFilter maps a query value to a filter, defaulting to all
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPaid, FilterUnpaid, FilterPartial:
		return f, nil
	}
	return "", fmt.Errorf("unknown status filter %q", s)
}

// VoucherFilter narrows a class's vouchers for viewing or bulk printing.
// Monthly vouchers are kept only for Period; admission vouchers are kept
// regardless of period.
type VoucherFilter struct {
	Period valueobject.Period
	Status StatusFilter
	// Kind restricts to one fee type; empty keeps both
	Kind  FeeType
	Query string
}

// Matches reports whether v passes the filter
func (f VoucherFilter) Matches(v Voucher) bool {
	switch {
	case v.IsMonthly():
		if !v.InPeriod(f.Period.Month, f.Period.Year) {
			return false
		}
	case !v.IsAdmission():
		return false
	}
	if f.Kind != "" && v.FeeType != f.Kind {
		return false
	}

	switch f.Status {
	case FilterPaid:
		if !v.IsPaid {
			return false
		}
	case FilterUnpaid:
		if v.IsPaid {
			return false
		}
	case FilterPartial:
		if ClassifyStatus(v) != StatusPartiallyPaid {
			return false
		}
	}

	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		name := strings.ToLower(v.StudentName)
		if !strings.Contains(name, q) && !strings.Contains(strings.ToLower(v.StudentID), q) {
			return false
		}
	}
	return true
}

// FilterVouchers returns the vouchers matching f, preserving order
func FilterVouchers(vs []Voucher, f VoucherFilter) []Voucher {
	out := make([]Voucher, 0, len(vs))
	for _, v := range vs {
		if f.Matches(v) {
			out = append(out, v)
		}
	}
	return out
}

// Describe returns the banner printed above a bulk class print, e.g.
// "Printing Unpaid Monthly Vouchers for March 2025"
func (f VoucherFilter) Describe() string {
	status := "All"
	switch f.Status {
	case FilterPaid:
		status = "Paid"
	case FilterUnpaid:
		status = "Unpaid"
	case FilterPartial:
		status = "Partially Paid"
	}
	kind := ""
	switch f.Kind {
	case FeeTypeMonthly:
		kind = "Monthly "
	case FeeTypeAdmission:
		kind = "Admission "
	}
	return fmt.Sprintf("Printing %s %sVouchers for %s", status, kind, f.Period)
}
