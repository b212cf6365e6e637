package fee

import (
	"time"

	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

// FeeBucket is the paid/pending split of one fee type
type FeeBucket struct {
	Paid    valueobject.Money `json:"paid"`
	Pending valueobject.Money `json:"pending"`
	Details []Voucher         `json:"details"`
}

// OverallTotals are a student's totals across both fee types
type OverallTotals struct {
	TotalFees   valueobject.Money `json:"totalFees"`
	PaidFees    valueobject.Money `json:"paidFees"`
	PendingFees valueobject.Money `json:"pendingFees"`
}

// StudentFeeSummary is the authoritative per-student fee view returned by the API
type StudentFeeSummary struct {
	Student    school.Student `json:"student"`
	Monthly    FeeBucket      `json:"monthlyFees"`
	Admission  FeeBucket      `json:"admissionFees"`
	Overall    OverallTotals  `json:"overall"`
	FeeHistory []Voucher      `json:"feeHistory"`
}

// Vouchers returns every distinct voucher in the summary, history first
func (s StudentFeeSummary) Vouchers() []Voucher {
	seen := make(map[string]bool)
	var all []Voucher
	for _, group := range [][]Voucher{s.FeeHistory, s.Monthly.Details, s.Admission.Details} {
		for _, v := range group {
			if seen[v.VoucherNumber] {
				continue
			}
			seen[v.VoucherNumber] = true
			all = append(all, v)
		}
	}
	return all
}

// FindVoucher looks a voucher up by number
func (s StudentFeeSummary) FindVoucher(voucherNumber string) (Voucher, bool) {
	for _, v := range s.Vouchers() {
		if v.VoucherNumber == voucherNumber {
			return v, true
		}
	}
	return Voucher{}, false
}

// CollectionRate is the student's overall collection percentage
func (s StudentFeeSummary) CollectionRate() int {
	return CollectionRate(s.Overall.PaidFees, s.Overall.PendingFees)
}

// ClassSummary is the per-class fee view for one billing month
type ClassSummary struct {
	ClassID         string             `json:"classId"`
	ClassName       string             `json:"className"`
	Period          valueobject.Period `json:"period"`
	TotalStudents   int                `json:"totalStudents"`
	PaidStudents    int                `json:"paidStudents"`
	PendingStudents int                `json:"pendingStudents"`
	TotalFees       valueobject.Money  `json:"totalFees"`
	PaidFees        valueobject.Money  `json:"paidFees"`
	PendingFees     valueobject.Money  `json:"pendingFees"`
	Vouchers        []Voucher          `json:"vouchers"`
}

// CollectionRate is the class's collection percentage for the month
func (s ClassSummary) CollectionRate() int {
	return CollectionRate(s.PaidFees, s.PendingFees)
}

// FeeCollection is the paid/pending split of one fee type over a date range
type FeeCollection struct {
	Paid            valueobject.Money `json:"paid"`
	Pending         valueobject.Money `json:"pending"`
	PaidStudents    int               `json:"paidStudents"`
	PendingStudents int               `json:"pendingStudents"`
}

// SalaryCollection is the paid/pending split of staff salaries
type SalaryCollection struct {
	Paid              valueobject.Money `json:"paid"`
	Pending           valueobject.Money `json:"pending"`
	PaidStaffCount    int               `json:"paidStaffCount"`
	PendingStaffCount int               `json:"pendingStaffCount"`
}

// MonthFeeSummary is one bar of the yearly fee chart
type MonthFeeSummary struct {
	MonthName   string            `json:"monthName"`
	PaidFees    valueobject.Money `json:"paidFees"`
	PendingFees valueobject.Money `json:"pendingFees"`
}

// DailyFeeSummary is one row of the daily fee table
type DailyFeeSummary struct {
	Date    time.Time         `json:"date"`
	Paid    valueobject.Money `json:"paid"`
	Pending valueobject.Money `json:"pending"`
}

// DashboardSummary is the API's aggregate over a date range
type DashboardSummary struct {
	TotalStudents         int               `json:"totalStudents"`
	PresentStudents       int               `json:"presentStudents"`
	TotalStaff            int               `json:"totalStaff"`
	MonthlyFee            FeeCollection     `json:"monthlyFee"`
	AdmissionFee          FeeCollection     `json:"admissionFee"`
	StaffSalary           SalaryCollection  `json:"staffSalary"`
	MonthlyFeeYearSummary []MonthFeeSummary `json:"monthlyFeeYearSummary"`
	DailyFeeSummary       []DailyFeeSummary `json:"dailyFeeSummary"`
}

// DailyTotals sums the daily fee table
func DailyTotals(days []DailyFeeSummary) (paid, pending valueobject.Money) {
	paid, pending = valueobject.Zero(), valueobject.Zero()
	for _, d := range days {
		paid = paid.Add(d.Paid)
		pending = pending.Add(d.Pending)
	}
	return paid, pending
}

// OverallCollectionRate combines monthly and admission fees
func OverallCollectionRate(d DashboardSummary) int {
	paid := d.MonthlyFee.Paid.Add(d.AdmissionFee.Paid)
	pending := d.MonthlyFee.Pending.Add(d.AdmissionFee.Pending)
	return CollectionRate(paid, pending)
}

// StaffSalaryRate is the share of salaries already disbursed
func StaffSalaryRate(d DashboardSummary) int {
	return CollectionRate(d.StaffSalary.Paid, d.StaffSalary.Pending)
}
