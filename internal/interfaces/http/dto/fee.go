package dto

import (
	"time"

	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

// VoucherResponse is a voucher with its derived state
type VoucherResponse struct {
	fee.Voucher
	Status    fee.PaymentStatus `json:"status"`
	Remaining valueobject.Money `json:"remaining"`
	Items     []fee.LineItem    `json:"items"`
}

// NewVoucherResponse derives status, remaining and line items
func NewVoucherResponse(v fee.Voucher) VoucherResponse {
	return VoucherResponse{
		Voucher:   v,
		Status:    fee.ClassifyStatus(v),
		Remaining: fee.ComputeRemaining(v),
		Items:     fee.LineItems(v),
	}
}

// StudentFeeResponse is a student's fee summary
type StudentFeeResponse struct {
	Student        school.Student    `json:"student"`
	Overall        fee.OverallTotals `json:"overall"`
	CollectionRate int               `json:"collection_rate"`
	Vouchers       []VoucherResponse `json:"vouchers"`
}

// NewStudentFeeResponse flattens the summary's vouchers
func NewStudentFeeResponse(s fee.StudentFeeSummary) StudentFeeResponse {
	vs := s.Vouchers()
	out := StudentFeeResponse{
		Student:        s.Student,
		Overall:        s.Overall,
		CollectionRate: s.CollectionRate(),
		Vouchers:       make([]VoucherResponse, 0, len(vs)),
	}
	for _, v := range vs {
		out.Vouchers = append(out.Vouchers, NewVoucherResponse(v))
	}
	return out
}

// ClassFeeResponse is a class's filtered fee view for one month
type ClassFeeResponse struct {
	ClassID         string             `json:"class_id"`
	ClassName       string             `json:"class_name"`
	Period          valueobject.Period `json:"period"`
	Filter          string             `json:"filter"`
	TotalStudents   int                `json:"total_students"`
	PaidStudents    int                `json:"paid_students"`
	PendingStudents int                `json:"pending_students"`
	TotalFees       valueobject.Money  `json:"total_fees"`
	PaidFees        valueobject.Money  `json:"paid_fees"`
	PendingFees     valueobject.Money  `json:"pending_fees"`
	CollectionRate  int                `json:"collection_rate"`
	Vouchers        []VoucherResponse  `json:"vouchers"`
}

// NewClassFeeResponse applies the filter to the class's vouchers
func NewClassFeeResponse(cs fee.ClassSummary, f fee.VoucherFilter) ClassFeeResponse {
	selected := fee.FilterVouchers(cs.Vouchers, f)
	out := ClassFeeResponse{
		ClassID:         cs.ClassID,
		ClassName:       cs.ClassName,
		Period:          cs.Period,
		Filter:          f.Describe(),
		TotalStudents:   cs.TotalStudents,
		PaidStudents:    cs.PaidStudents,
		PendingStudents: cs.PendingStudents,
		TotalFees:       cs.TotalFees,
		PaidFees:        cs.PaidFees,
		PendingFees:     cs.PendingFees,
		CollectionRate:  cs.CollectionRate(),
		Vouchers:        make([]VoucherResponse, 0, len(selected)),
	}
	for _, v := range selected {
		out.Vouchers = append(out.Vouchers, NewVoucherResponse(v))
	}
	return out
}

// ClassFeeQuery is the query string of the class fee and class print routes
type ClassFeeQuery struct {
	Month         int    `form:"month" binding:"omitempty,min=1,max=12"`
	Year          int    `form:"year" binding:"omitempty,min=2000,max=2100"`
	Status        string `form:"status" binding:"omitempty,oneof=all paid unpaid partial"`
	AdmissionOnly bool   `form:"admissionOnly"`
	MonthlyOnly   bool   `form:"monthlyOnly"`
	Query         string `form:"q" binding:"max=100"`
}

// Kind returns the fee type selected by the only-flags
func (q ClassFeeQuery) Kind() fee.FeeType {
	switch {
	case q.AdmissionOnly:
		return fee.FeeTypeAdmission
	case q.MonthlyOnly:
		return fee.FeeTypeMonthly
	}
	return ""
}

// PartialPaymentRequest is the body of the payment route
type PartialPaymentRequest struct {
	Amount          valueobject.Money `json:"amount" binding:"money_pos"`
	ReceivedBy      string            `json:"received_by" binding:"max=100"`
	PaymentMethod   string            `json:"payment_method" binding:"omitempty,oneof=Cash 'Bank Transfer' Cheque 'Online Payment' Other"`
	ReferenceNumber string            `json:"reference_number" binding:"max=100"`
	Remarks         string            `json:"remarks" binding:"max=500"`
	Date            *time.Time        `json:"date"`
}

// Meta returns the receipt details of the payment
func (r PartialPaymentRequest) Meta() fee.PaymentMeta {
	meta := fee.PaymentMeta{
		ReceivedBy:      r.ReceivedBy,
		PaymentMethod:   fee.PaymentMethod(r.PaymentMethod),
		ReferenceNumber: r.ReferenceNumber,
		Remarks:         r.Remarks,
	}
	if r.Date != nil {
		meta.Date = *r.Date
	}
	return meta
}

// MarkPaidResponse reports a mark-paid decision
type MarkPaidResponse struct {
	Student   StudentFeeResponse `json:"student"`
	Override  bool               `json:"override"`
	Shortfall valueobject.Money  `json:"shortfall"`
}

// ArchiveResponse is where a printed PDF was archived
type ArchiveResponse struct {
	Path      string `json:"path"`
	URL       string `json:"url"`
	Size      int64  `json:"size"`
	ObjectKey string `json:"object_key,omitempty"`
	Pages     int    `json:"pages"`
}
