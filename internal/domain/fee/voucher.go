package fee

import (
	"fmt"
	"slices"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

// FeeType distinguishes the two voucher variants
type FeeType string

const (
	FeeTypeMonthly   FeeType = "monthly"
	FeeTypeAdmission FeeType = "admission"
)

// IsValid checks if the fee type is known
func (t FeeType) IsValid() bool {
	return t == FeeTypeMonthly || t == FeeTypeAdmission
}

// PaymentMethod is how a partial payment was received
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "Cash"
	PaymentMethodBankTransfer  PaymentMethod = "Bank Transfer"
	PaymentMethodCheque        PaymentMethod = "Cheque"
	PaymentMethodOnlinePayment PaymentMethod = "Online Payment"
	PaymentMethodOther         PaymentMethod = "Other"
)

// DefaultReceivedBy is recorded when the cashier name is left blank
const DefaultReceivedBy = "Cashier"

// PaymentMethods lists the accepted methods in display order
var PaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodBankTransfer,
	PaymentMethodCheque,
	PaymentMethodOnlinePayment,
	PaymentMethodOther,
}

// IsValid checks if the payment method is accepted
func (m PaymentMethod) IsValid() bool {
	return slices.Contains(PaymentMethods, m)
}

// AdmissionBreakdown is the itemised charge list of an admission voucher
type AdmissionBreakdown struct {
	AdmissionFee    valueobject.Money `json:"admissionFee"`
	AnnualCharges   valueobject.Money `json:"annualCharges"`
	SecurityCard    valueobject.Money `json:"securityCard"`
	PaperFund       valueobject.Money `json:"paperFund"`
	OtherDues       valueobject.Money `json:"otherDues"`
	MonthlyFee      valueobject.Money `json:"monthlyFee"`
	MonthlyFeeMonth *int              `json:"monthlyFeeMonth,omitempty"`
	MonthlyFeeYear  *int              `json:"monthlyFeeYear,omitempty"`
}

// MonthlyPeriod returns the period of the bundled monthly fee, if both parts are set
func (b AdmissionBreakdown) MonthlyPeriod() (valueobject.Period, bool) {
	if b.MonthlyFeeMonth == nil || b.MonthlyFeeYear == nil {
		return valueobject.Period{}, false
	}
	return valueobject.Period{Month: *b.MonthlyFeeMonth, Year: *b.MonthlyFeeYear}, true
}

// PartialPayment is an immutable ledger entry against a voucher
type PartialPayment struct {
	Amount          valueobject.Money `json:"amount"`
	Date            time.Time         `json:"date"`
	ReceivedBy      string            `json:"receivedBy"`
	PaymentMethod   PaymentMethod     `json:"paymentMethod"`
	ReferenceNumber string            `json:"referenceNumber,omitempty"`
	Remarks         string            `json:"remarks,omitempty"`
}

// Voucher is a single fee obligation of one student.
//
// It is a tagged variant on FeeType: monthly vouchers carry Period, admission
// vouchers carry Details. Voucher values are never mutated in place; the
// remote API owns every state change.
type Voucher struct {
	ID              string              `json:"id,omitempty"`
	VoucherNumber   string              `json:"voucherNumber"`
	StudentID       string              `json:"studentId"`
	StudentName     string              `json:"studentName,omitempty"`
	FeeType         FeeType             `json:"feeType"`
	Amount          valueobject.Money   `json:"amount"`
	PaidAmount      valueobject.Money   `json:"paidAmount"`
	IsPaid          bool                `json:"isPaid"`
	Period          *valueobject.Period `json:"period,omitempty"`
	Details         *AdmissionBreakdown `json:"details,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	PaymentDate     *time.Time          `json:"paymentDate,omitempty"`
	PartialPayments []PartialPayment    `json:"partialPayments"`
	// PaidByOverride is set when the API reports isPaid while paidAmount
	// was short of amount; OverrideShortfall keeps the missing amount.
	PaidByOverride    bool              `json:"paidByOverride,omitempty"`
	OverrideShortfall valueobject.Money `json:"overrideShortfall"`
}

// IsMonthly reports whether this is a monthly voucher
func (v Voucher) IsMonthly() bool { return v.FeeType == FeeTypeMonthly }

// IsAdmission reports whether this is an admission voucher
func (v Voucher) IsAdmission() bool { return v.FeeType == FeeTypeAdmission }

// InPeriod reports whether a monthly voucher bills the given month
func (v Voucher) InPeriod(month, year int) bool {
	return v.IsMonthly() && v.Period != nil && v.Period.Month == month && v.Period.Year == year
}

// Validate checks the variant payload and the amount invariants
func (v Voucher) Validate() error {
	if v.VoucherNumber == "" {
		return shared.NewValidationError(CodeInvalidVoucher, "voucher number is required")
	}
	switch v.FeeType {
	case FeeTypeMonthly:
		if v.Period == nil || !v.Period.IsValid() {
			return shared.NewValidationError(CodeInvalidVoucher, fmt.Sprintf("monthly voucher %s has no valid month/year", v.VoucherNumber))
		}
	case FeeTypeAdmission:
		if v.Details == nil {
			return shared.NewValidationError(CodeInvalidVoucher, fmt.Sprintf("admission voucher %s has no fee breakdown", v.VoucherNumber))
		}
	default:
		return shared.NewValidationError(CodeInvalidVoucher, fmt.Sprintf("voucher %s has unknown fee type %q", v.VoucherNumber, v.FeeType))
	}
	if v.Amount.IsNegative() || v.PaidAmount.IsNegative() {
		return shared.NewValidationError(CodeInvalidVoucher, fmt.Sprintf("voucher %s has a negative amount", v.VoucherNumber))
	}
	if v.PaidAmount.GreaterThan(v.Amount) {
		return shared.NewValidationError(CodeInvalidVoucher, fmt.Sprintf("voucher %s paid amount exceeds amount", v.VoucherNumber))
	}
	if v.IsPaid && !ComputeRemaining(v).IsZero() {
		return shared.NewValidationError(CodeInvalidVoucher, fmt.Sprintf("voucher %s is marked paid with a remaining balance", v.VoucherNumber))
	}
	return nil
}

// Normalize reconciles the flags reported by the API with the amount invariants:
//   - isPaid with paidAmount < amount becomes paidAmount = amount, recording the
//     shortfall and PaidByOverride;
//   - paidAmount > amount is clamped to amount;
//   - paidAmount == amount > 0 without isPaid is treated as paid.
func Normalize(v Voucher) Voucher {
	if v.PaidAmount.IsNegative() {
		v.PaidAmount = valueobject.Zero()
	}
	if v.PaidAmount.GreaterThan(v.Amount) {
		v.PaidAmount = v.Amount
	}
	switch {
	case v.IsPaid && v.PaidAmount.LessThan(v.Amount):
		v.PaidByOverride = true
		v.OverrideShortfall = v.Amount.Subtract(v.PaidAmount)
		v.PaidAmount = v.Amount
	case !v.IsPaid && v.Amount.IsPositive() && v.PaidAmount.Equals(v.Amount):
		v.IsPaid = true
	}
	v.PartialPayments = slices.Clone(v.PartialPayments)
	return v
}

// LineItem is one printed charge row
type LineItem struct {
	Label  string            `json:"label"`
	Amount valueobject.Money `json:"amount"`
}

// LineItems returns the printed charge rows of a voucher
func LineItems(v Voucher) []LineItem {
	if v.IsMonthly() {
		label := "Monthly Fee"
		if v.Period != nil {
			label = fmt.Sprintf("Monthly Fee (%s)", v.Period)
		}
		return []LineItem{{Label: label, Amount: v.Amount}}
	}
	if v.Details == nil {
		return []LineItem{{Label: "Admission Fee", Amount: v.Amount}}
	}

	d := v.Details
	items := []LineItem{
		{Label: "Admission Fee", Amount: d.AdmissionFee},
		{Label: "Annual Charges", Amount: d.AnnualCharges},
		{Label: "Security Card", Amount: d.SecurityCard},
		{Label: "Paper Fund", Amount: d.PaperFund},
	}
	if d.MonthlyFee.IsPositive() {
		label := "Monthly Fee"
		if p, ok := d.MonthlyPeriod(); ok {
			label = fmt.Sprintf("Monthly Fee (%s)", p)
		}
		items = append(items, LineItem{Label: label, Amount: d.MonthlyFee})
	}
	if d.OtherDues.IsPositive() {
		items = append(items, LineItem{Label: "Other Dues", Amount: d.OtherDues})
	}
	return items
}
