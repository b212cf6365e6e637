package fee

import (
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

func rs(n int64) valueobject.Money { return valueobject.NewMoneyFromInt(n) }

func intPtr(n int) *int { return &n }

func createTestMonthly(number string, amount, paid int64, month, year int) Voucher {
	return Voucher{
		VoucherNumber: number,
		StudentID:     "10001",
		StudentName:   "Ayesha Khan",
		FeeType:       FeeTypeMonthly,
		Amount:        rs(amount),
		PaidAmount:    rs(paid),
		IsPaid:        paid == amount && amount > 0,
		Period:        &valueobject.Period{Month: month, Year: year},
	}
}

func createTestAdmission(number string, b AdmissionBreakdown, paid int64) Voucher {
	total, err := ComputeAdmissionTotal(b)
	if err != nil {
		panic(err)
	}
	return Voucher{
		VoucherNumber: number,
		StudentID:     "10001",
		StudentName:   "Ayesha Khan",
		FeeType:       FeeTypeAdmission,
		Amount:        total,
		PaidAmount:    rs(paid),
		IsPaid:        rs(paid).Equals(total),
		Details:       &b,
	}
}

func standardBreakdown() AdmissionBreakdown {
	return AdmissionBreakdown{
		AdmissionFee:  rs(5000),
		AnnualCharges: rs(1000),
		SecurityCard:  rs(500),
		PaperFund:     rs(200),
	}
}
