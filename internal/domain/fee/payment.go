package fee

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

// PaymentStatus is the display classification of a voucher
type PaymentStatus string

const (
	StatusFullyPaid     PaymentStatus = "FULLY_PAID"
	StatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	StatusUnpaid        PaymentStatus = "UNPAID"
)

// Label returns the badge text shown next to a voucher
func (s PaymentStatus) Label() string {
	switch s {
	case StatusFullyPaid:
		return "Paid"
	case StatusPartiallyPaid:
		return "Partial"
	default:
		return "Unpaid"
	}
}

// ClassifyStatus derives the payment status from isPaid and paidAmount
func ClassifyStatus(v Voucher) PaymentStatus {
	switch {
	case v.IsPaid:
		return StatusFullyPaid
	case v.PaidAmount.IsPositive():
		return StatusPartiallyPaid
	default:
		return StatusUnpaid
	}
}

// PaymentMeta carries the optional receipt details of a partial payment
type PaymentMeta struct {
	ReceivedBy      string
	PaymentMethod   PaymentMethod
	ReferenceNumber string
	Remarks         string
	Date            time.Time
}

// PartialPaymentRequest is what gets submitted to the API
type PartialPaymentRequest struct {
	StudentID     string
	VoucherNumber string
	Payment       PartialPayment
}

// RecordPartialPayment validates a payment against the voucher's remaining
// balance and builds the request. The voucher itself is left untouched.
func RecordPartialPayment(v Voucher, amount valueobject.Money, meta PaymentMeta, now time.Time) (PartialPaymentRequest, error) {
	if !amount.IsPositive() {
		return PartialPaymentRequest{}, ErrAmountNotPositive
	}
	remaining := ComputeRemaining(v)
	if amount.GreaterThan(remaining) {
		return PartialPaymentRequest{}, shared.NewValidationError(CodeAmountExceedsRemaining,
			fmt.Sprintf("Payment amount %s exceeds the remaining balance %s", amount.Format(), remaining.Format()))
	}

	method := meta.PaymentMethod
	if method == "" {
		method = PaymentMethodCash
	}
	if !method.IsValid() {
		return PartialPaymentRequest{}, shared.NewValidationError(CodeInvalidPaymentMethod, fmt.Sprintf("unknown payment method %q", method))
	}
	receivedBy := strings.TrimSpace(meta.ReceivedBy)
	if receivedBy == "" {
		receivedBy = DefaultReceivedBy
	}
	date := meta.Date
	if date.IsZero() {
		date = now
	}

	return PartialPaymentRequest{
		StudentID:     v.StudentID,
		VoucherNumber: v.VoucherNumber,
		Payment: PartialPayment{
			Amount:          amount,
			Date:            date,
			ReceivedBy:      receivedBy,
			PaymentMethod:   method,
			ReferenceNumber: strings.TrimSpace(meta.ReferenceNumber),
			Remarks:         strings.TrimSpace(meta.Remarks),
		},
	}, nil
}

// ApplyPartialPayment returns a copy of v with the payment appended and
// paidAmount increased, mirroring what the API does on success.
func ApplyPartialPayment(v Voucher, req PartialPaymentRequest) (Voucher, error) {
	if req.VoucherNumber != v.VoucherNumber {
		return Voucher{}, shared.NewValidationError(CodeInvalidVoucher, "payment does not belong to this voucher")
	}
	if _, err := RecordPartialPayment(v, req.Payment.Amount, PaymentMeta{PaymentMethod: req.Payment.PaymentMethod}, req.Payment.Date); err != nil {
		return Voucher{}, err
	}

	next := v
	next.PartialPayments = append(slices.Clone(v.PartialPayments), req.Payment)
	next.PaidAmount = v.PaidAmount.Add(req.Payment.Amount)
	if ComputeRemaining(next).IsZero() {
		next.IsPaid = true
		paidAt := req.Payment.Date
		next.PaymentDate = &paidAt
	}
	return next, nil
}

// MarkPaidPolicy decides whether a voucher with an outstanding balance may be
// marked as fully paid
type MarkPaidPolicy string

const (
	// MarkPaidAudit allows the override and reports the shortfall for auditing
	MarkPaidAudit MarkPaidPolicy = "audit"
	// MarkPaidEnforce rejects the override while any balance remains
	MarkPaidEnforce MarkPaidPolicy = "enforce"
)

// ParseMarkPaidPolicy maps a config value to a policy, defaulting to audit
func ParseMarkPaidPolicy(s string) (MarkPaidPolicy, error) {
	switch MarkPaidPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MarkPaidAudit:
		return MarkPaidAudit, nil
	case MarkPaidEnforce:
		return MarkPaidEnforce, nil
	}
	return "", fmt.Errorf("unknown mark-paid policy %q", s)
}

// MarkPaidDecision is the outcome of MarkFullyPaid
type MarkPaidDecision struct {
	StudentID     string
	VoucherNumber string
	// Shortfall is the balance forgiven by the override; zero when fully paid
	Shortfall valueobject.Money
	Override  bool
}

// MarkFullyPaid decides whether the voucher may be marked paid under policy
func MarkFullyPaid(v Voucher, policy MarkPaidPolicy) (MarkPaidDecision, error) {
	if v.IsPaid {
		return MarkPaidDecision{}, ErrAlreadyPaid
	}
	remaining := ComputeRemaining(v)
	decision := MarkPaidDecision{
		StudentID:     v.StudentID,
		VoucherNumber: v.VoucherNumber,
		Shortfall:     remaining,
		Override:      remaining.IsPositive(),
	}
	if decision.Override && policy == MarkPaidEnforce {
		return MarkPaidDecision{}, shared.NewValidationError(CodeBalanceOutstanding,
			fmt.Sprintf("Voucher %s still has %s outstanding", v.VoucherNumber, remaining.Format()))
	}
	return decision, nil
}
