package school

import (
	"time"

	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

// Staff is a teacher or employee paid a monthly salary
type Staff struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Phone     string            `json:"phone,omitempty"`
	Address   string            `json:"address,omitempty"`
	Education string            `json:"education,omitempty"`
	Role      string            `json:"role,omitempty"`
	Salary    valueobject.Money `json:"salary"`

	SalaryHistory []SalaryPayment `json:"salaryHistory,omitempty"`
}

// PaidFor reports whether the salary of a period has been disbursed
func (s Staff) PaidFor(p valueobject.Period) bool {
	_, ok := s.PaymentFor(p)
	return ok
}

// PaymentFor returns the disbursement of a period
func (s Staff) PaymentFor(p valueobject.Period) (SalaryPayment, bool) {
	for _, h := range s.SalaryHistory {
		if h.Period == p {
			return h, true
		}
	}
	return SalaryPayment{}, false
}

// SalaryPayment is a salary disbursement for one month
type SalaryPayment struct {
	valueobject.Period
	Amount valueobject.Money `json:"amount"`
	PaidAt time.Time         `json:"paidAt"`
}

// NewSalaryPayment validates the period and amount of a salary payment
func NewSalaryPayment(month, year int, amount valueobject.Money, paidAt time.Time) (SalaryPayment, error) {
	period, err := valueobject.NewPeriod(month, year)
	if err != nil {
		return SalaryPayment{}, shared.NewValidationError(CodeInvalidSalary, "Salary month and year are required")
	}
	if !amount.IsPositive() {
		return SalaryPayment{}, shared.NewValidationError(CodeInvalidSalary, "Salary amount must be positive")
	}
	return SalaryPayment{Period: period, Amount: amount, PaidAt: paidAt}, nil
}
