package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

const feeBase = "/api/student-fee"

// GenerateVoucherRequest is the payload of POST /generate-voucher.
// Monthly vouchers set Amount, Month and Year; admission vouchers set Details.
type GenerateVoucherRequest struct {
	StudentID string            `json:"studentId" validate:"required"`
	FeeType   string            `json:"feeType" validate:"oneof=monthly admission"`
	Amount    valueobject.Money `json:"amount" validate:"money_pos"`
	Month     int               `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Year      int               `json:"year,omitempty" validate:"omitempty,min=2000"`
	Details   *wireBreakdown    `json:"feeDetails,omitempty" validate:"required_if=FeeType admission"`
}

// NewMonthlyVoucherRequest builds a monthly voucher request
func NewMonthlyVoucherRequest(studentID string, amount valueobject.Money, period valueobject.Period) GenerateVoucherRequest {
	return GenerateVoucherRequest{
		StudentID: studentID,
		FeeType:   string(fee.FeeTypeMonthly),
		Amount:    amount,
		Month:     period.Month,
		Year:      period.Year,
	}
}

// NewAdmissionVoucherRequest builds an admission voucher request; amount is the breakdown total
func NewAdmissionVoucherRequest(studentID string, b fee.AdmissionBreakdown, total valueobject.Money) GenerateVoucherRequest {
	details := breakdownToWire(b)
	return GenerateVoucherRequest{
		StudentID: studentID,
		FeeType:   string(fee.FeeTypeAdmission),
		Amount:    total,
		Details:   &details,
	}
}

type bulkMonthlyRequest struct {
	ClassID string            `json:"classId" validate:"required"`
	Month   int               `json:"month" validate:"min=1,max=12"`
	Year    int               `json:"year" validate:"min=2000"`
	Amount  valueobject.Money `json:"amount" validate:"money_pos"`
}

type bulkAdmissionRequest struct {
	ClassID string        `json:"classId" validate:"required"`
	Details wireBreakdown `json:"feeDetails"`
}

type editMonthlyRequest struct {
	Amount valueobject.Money `json:"amount" validate:"money_pos"`
	Month  int               `json:"month" validate:"min=1,max=12"`
	Year   int               `json:"year" validate:"min=2000"`
}

type editAdmissionRequest struct {
	Details wireBreakdown     `json:"feeDetails"`
	Amount  valueobject.Money `json:"amount" validate:"money_pos"`
}

type partialPaymentRequest struct {
	Amount          valueobject.Money `json:"amount" validate:"money_pos"`
	ReceivedBy      string            `json:"receivedBy" validate:"required"`
	PaymentMethod   string            `json:"paymentMethod" validate:"oneof='Cash' 'Bank Transfer' 'Cheque' 'Online Payment' 'Other'"`
	ReferenceNumber string            `json:"referenceNumber,omitempty"`
	Remarks         string            `json:"remarks,omitempty"`
	Date            string            `json:"date" validate:"required"`
}

// MutationResult is the {success, message} acknowledgement of a fee mutation
type MutationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// GetStudentFeeSummary fetches the authoritative fee summary of a student
func (c *Client) GetStudentFeeSummary(ctx context.Context, studentID string) (fee.StudentFeeSummary, error) {
	var w wireStudentSummary
	if err := c.getJSON(ctx, feeBase+"/summary/:studentId", feeBase+"/summary/"+escape(studentID), nil, &w); err != nil {
		return fee.StudentFeeSummary{}, err
	}
	summary, err := w.toDomain()
	if err != nil {
		return fee.StudentFeeSummary{}, fmt.Errorf("student %s fee summary: %w", studentID, err)
	}
	if summary.Student.StudentID == "" {
		summary.Student.StudentID = studentID
	}
	return summary, nil
}

// GetClassFeeSummary fetches the fee summary of a class for one month
func (c *Client) GetClassFeeSummary(ctx context.Context, classID string, period valueobject.Period) (fee.ClassSummary, error) {
	query := url.Values{}
	query.Set("classId", classID)
	query.Set("month", strconv.Itoa(period.Month))
	query.Set("year", strconv.Itoa(period.Year))

	var w wireClassSummary
	if err := c.getJSON(ctx, feeBase+"/class-summary", feeBase+"/class-summary", query, &w); err != nil {
		return fee.ClassSummary{}, err
	}
	if err := checkPayload("class summary", w); err != nil {
		return fee.ClassSummary{}, err
	}
	vouchers, err := vouchersToDomain(w.Vouchers, "")
	if err != nil {
		return fee.ClassSummary{}, fmt.Errorf("class %s fee summary: %w", classID, err)
	}
	return fee.ClassSummary{
		ClassID:         classID,
		ClassName:       w.ClassName,
		Period:          period,
		TotalStudents:   w.TotalStudents,
		PaidStudents:    w.PaidStudents,
		PendingStudents: w.PendingStudents,
		TotalFees:       w.TotalFees,
		PaidFees:        w.PaidFees,
		PendingFees:     w.PendingFees,
		Vouchers:        vouchers,
	}, nil
}

// GetVoucherDetails fetches a single voucher
func (c *Client) GetVoucherDetails(ctx context.Context, studentID, voucherNumber string) (fee.Voucher, error) {
	var w struct {
		Voucher *wireVoucher `json:"voucher"`
	}
	path := fmt.Sprintf("%s/voucher-details/%s/%s", feeBase, escape(studentID), escape(voucherNumber))
	if err := c.getJSON(ctx, feeBase+"/voucher-details/:studentId/:voucherNumber", path, nil, &w); err != nil {
		return fee.Voucher{}, err
	}
	if w.Voucher == nil {
		return fee.Voucher{}, &NotFoundError{RequestError{Method: http.MethodGet, Path: path, Status: http.StatusNotFound, Message: "Voucher not found"}}
	}
	return w.Voucher.toDomain(studentID)
}

// GenerateVoucher creates a single voucher and returns it
func (c *Client) GenerateVoucher(ctx context.Context, req GenerateVoucherRequest) (fee.Voucher, error) {
	if err := checkPayload("generate voucher", req); err != nil {
		return fee.Voucher{}, err
	}
	if req.FeeType == string(fee.FeeTypeMonthly) {
		if _, err := valueobject.NewPeriod(req.Month, req.Year); err != nil {
			return fee.Voucher{}, fee.ErrInvalidPeriod
		}
	}
	var w struct {
		Voucher *wireVoucher `json:"voucher"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, feeBase+"/generate-voucher", feeBase+"/generate-voucher", req, &w); err != nil {
		return fee.Voucher{}, err
	}
	if w.Voucher == nil {
		return fee.Voucher{}, errors.New("generate voucher: response has no voucher")
	}
	return w.Voucher.toDomain(req.StudentID)
}

// GenerateBulkMonthly creates a monthly voucher for every student of a class
func (c *Client) GenerateBulkMonthly(ctx context.Context, classID string, period valueobject.Period, amount valueobject.Money) (MutationResult, error) {
	req := bulkMonthlyRequest{ClassID: classID, Month: period.Month, Year: period.Year, Amount: amount}
	if err := checkPayload("bulk monthly", req); err != nil {
		return MutationResult{}, err
	}
	var res MutationResult
	err := c.sendJSON(ctx, http.MethodPost, feeBase+"/generate-bulk-monthly", feeBase+"/generate-bulk-monthly", req, &res)
	return res, err
}

// GenerateBulkAdmission creates an admission voucher for every student of a class
func (c *Client) GenerateBulkAdmission(ctx context.Context, classID string, b fee.AdmissionBreakdown) (MutationResult, error) {
	req := bulkAdmissionRequest{ClassID: classID, Details: breakdownToWire(b)}
	if err := checkPayload("bulk admission", req); err != nil {
		return MutationResult{}, err
	}
	var res MutationResult
	err := c.sendJSON(ctx, http.MethodPost, feeBase+"/generate-bulk-admission", feeBase+"/generate-bulk-admission", req, &res)
	return res, err
}

// EditMonthly changes the amount and period of a monthly voucher
func (c *Client) EditMonthly(ctx context.Context, studentID, voucherNumber string, amount valueobject.Money, period valueobject.Period) error {
	req := editMonthlyRequest{Amount: amount, Month: period.Month, Year: period.Year}
	if err := checkPayload("edit monthly", req); err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodPut, feeBase+"/edit-monthly/:studentId/:voucherNumber",
		voucherPath("/edit-monthly/", studentID, voucherNumber), req, nil)
}

// EditAdmission replaces the fee breakdown of an admission voucher
func (c *Client) EditAdmission(ctx context.Context, studentID, voucherNumber string, b fee.AdmissionBreakdown, total valueobject.Money) error {
	req := editAdmissionRequest{Details: breakdownToWire(b), Amount: total}
	if err := checkPayload("edit admission", req); err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodPut, feeBase+"/edit-admission/:studentId/:voucherNumber",
		voucherPath("/edit-admission/", studentID, voucherNumber), req, nil)
}

// SubmitPartialPayment posts a validated partial payment
func (c *Client) SubmitPartialPayment(ctx context.Context, req fee.PartialPaymentRequest) (MutationResult, error) {
	p := req.Payment
	body := partialPaymentRequest{
		Amount:          p.Amount,
		ReceivedBy:      p.ReceivedBy,
		PaymentMethod:   string(p.PaymentMethod),
		ReferenceNumber: p.ReferenceNumber,
		Remarks:         p.Remarks,
		Date:            p.Date.UTC().Format(time.RFC3339),
	}
	if err := checkPayload("partial payment", body); err != nil {
		return MutationResult{}, err
	}
	var res MutationResult
	err := c.sendJSON(ctx, http.MethodPost, feeBase+"/partial-payment/:studentId/:voucherNumber",
		voucherPath("/partial-payment/", req.StudentID, req.VoucherNumber), body, &res)
	return res, err
}

// MarkPaid sets isPaid on a voucher
func (c *Client) MarkPaid(ctx context.Context, studentID, voucherNumber string) error {
	return c.sendJSON(ctx, http.MethodPut, feeBase+"/update-status/:studentId/:voucherNumber",
		voucherPath("/update-status/", studentID, voucherNumber), map[string]bool{"isPaid": true}, nil)
}

// DeleteVoucher removes a voucher
func (c *Client) DeleteVoucher(ctx context.Context, studentID, voucherNumber string) error {
	return c.sendJSON(ctx, http.MethodDelete, feeBase+"/delete-voucher/:studentId/:voucherNumber",
		voucherPath("/delete-voucher/", studentID, voucherNumber), nil, nil)
}

func voucherPath(action, studentID, voucherNumber string) string {
	return feeBase + action + escape(studentID) + "/" + escape(voucherNumber)
}
