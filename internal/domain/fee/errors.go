package fee

import "github.com/alfalah/schooladmin/internal/domain/shared"

// Error codes raised by fee validation and payment rules
const (
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeMissingMonthlyPeriod   = "MISSING_MONTHLY_PERIOD"
	CodeInvalidPeriod          = "INVALID_PERIOD"
	CodeAmountNotPositive      = "AMOUNT_NOT_POSITIVE"
	CodeAmountExceedsRemaining = "AMOUNT_EXCEEDS_REMAINING"
	CodeBalanceOutstanding     = "BALANCE_OUTSTANDING"
	CodeAlreadyPaid            = "ALREADY_PAID"
	CodeNoPendingVouchers      = "NO_PENDING_VOUCHERS"
	CodeInvalidVoucher         = "INVALID_VOUCHER"
	CodeInvalidPaymentMethod   = "INVALID_PAYMENT_METHOD"
	CodeAdmissionFeeRequired   = "ADMISSION_FEE_REQUIRED"
	CodeInvalidFeeType         = "INVALID_FEE_TYPE"
	CodeAmountBelowPaid        = "AMOUNT_BELOW_PAID"
)

var (
	ErrInvalidAmount          = shared.NewValidationError(CodeInvalidAmount, "Amount must be greater than zero")
	ErrMissingMonthlyPeriod   = shared.NewValidationError(CodeMissingMonthlyPeriod, "Monthly fee month and year are required when a monthly fee is included")
	ErrInvalidPeriod          = shared.NewValidationError(CodeInvalidPeriod, "Month must be between 1 and 12 and year must be set")
	ErrAmountNotPositive      = shared.NewValidationError(CodeAmountNotPositive, "Payment amount must be greater than zero")
	ErrAmountExceedsRemaining = shared.NewValidationError(CodeAmountExceedsRemaining, "Payment amount exceeds the remaining balance")
	ErrBalanceOutstanding     = shared.NewValidationError(CodeBalanceOutstanding, "Voucher still has an outstanding balance")
	ErrAlreadyPaid            = shared.NewValidationError(CodeAlreadyPaid, "Voucher is already fully paid")
	ErrNoPendingVouchers      = shared.NewValidationError(CodeNoPendingVouchers, "No pending vouchers found")
	ErrAdmissionFeeRequired   = shared.NewValidationError(CodeAdmissionFeeRequired, "Admission fee is required")
	ErrInvalidFeeType         = shared.NewValidationError(CodeInvalidFeeType, "Fee type must be monthly or admission")
	ErrAmountBelowPaid        = shared.NewValidationError(CodeAmountBelowPaid, "Voucher amount cannot be less than the amount already paid")
)
