package fee

import (
	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

// GenerateVoucherInput is a single voucher to generate. Monthly vouchers use
// Amount, Month and Year; admission vouchers use Breakdown and the amount is
// its total.
type GenerateVoucherInput struct {
	StudentID string
	FeeType   fee.FeeType
	Amount    valueobject.Money
	Month     int
	Year      int
	Breakdown *fee.AdmissionBreakdown
}

// PartialPaymentInput is an installment against a voucher
type PartialPaymentInput struct {
	StudentID     string
	VoucherNumber string
	Amount        valueobject.Money
	Meta          fee.PaymentMeta
}

// BulkResult reports a bulk generation
type BulkResult struct {
	Count   int
	Message string
}

// MarkPaidResult carries the refreshed summary and the policy decision
type MarkPaidResult struct {
	Summary  fee.StudentFeeSummary
	Decision fee.MarkPaidDecision
}
