package printing

import (
	"html/template"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/printing"
	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

// SchoolHeader is printed at the top of every document
type SchoolHeader struct {
	Name    string
	Address string
}

// VoucherView is one printed voucher, standalone or as a slot of a class page
type VoucherView struct {
	School        SchoolHeader
	Title         string
	VoucherNumber string
	Student       school.Student
	Period        string
	IssueDate     time.Time
	PaymentDate   *time.Time
	Items         []fee.LineItem
	Amount        valueobject.Money
	Paid          valueobject.Money
	Remaining     valueobject.Money
	Status        fee.PaymentStatus
	Watermark     printing.Watermark
	// Reminder prints the pay-immediately notice
	Reminder bool
	// PartialNote is set when part of an unpaid voucher has been received
	PartialNote string
	Payments    []fee.PartialPayment
	ShowHistory bool
}

// ConsolidatedBlock is one underlying voucher of a consolidated print
type ConsolidatedBlock struct {
	VoucherNumber string
	Items         []fee.LineItem
	Remaining     valueobject.Money
}

// ConsolidatedView is the combined print of a student's pending vouchers
type ConsolidatedView struct {
	School    SchoolHeader
	Student   school.Student
	Year      int
	IssueDate time.Time
	Blocks    []ConsolidatedBlock
	Totals    fee.ConsolidatedTotals
	Reminder  bool
}

// ClassVouchersView is a bulk class run; each page holds up to two vouchers
type ClassVouchersView struct {
	School    SchoolHeader
	ClassName string
	Banner    string
	Pages     [][]VoucherView
	Count     int
}

// RosterRow is one student line of a class roster
type RosterRow struct {
	Student school.Student
	QRCode  template.URL
}

// RosterView is a class roster with attendance QR codes
type RosterView struct {
	School    SchoolHeader
	ClassName string
	RoomNo    string
	InCharge  string
	IssueDate time.Time
	Rows      []RosterRow
}

// SalarySlipView is a staff salary slip
type SalarySlipView struct {
	School  SchoolHeader
	Staff   school.Staff
	Payment school.SalaryPayment
	SlipNo  string
}

// NotFoundView replaces a voucher that could not be located
type NotFoundView struct {
	School        SchoolHeader
	StudentID     string
	VoucherNumber string
}

// Paginate splits vouchers into pages of printing.VouchersPerPage
func Paginate(vouchers []VoucherView) [][]VoucherView {
	pages := make([][]VoucherView, 0, printing.PageCount(len(vouchers)))
	for start := 0; start < len(vouchers); start += printing.VouchersPerPage {
		end := min(start+printing.VouchersPerPage, len(vouchers))
		pages = append(pages, vouchers[start:end])
	}
	return pages
}
