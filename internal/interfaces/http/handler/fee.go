package handler

import (
	"context"
	"time"

	feeapp "github.com/alfalah/schooladmin/internal/application/fee"
	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
	"github.com/alfalah/schooladmin/internal/interfaces/http/dto"
	"github.com/alfalah/schooladmin/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// FeeService is the part of the fee application service the handlers use
type FeeService interface {
	GetStudentSummary(ctx context.Context, studentID string) (fee.StudentFeeSummary, error)
	GetClassSummary(ctx context.Context, classID string, month, year int) (fee.ClassSummary, error)
	RecordPartialPayment(ctx context.Context, in feeapp.PartialPaymentInput) (fee.StudentFeeSummary, error)
	MarkFullyPaid(ctx context.Context, studentID, voucherNumber string) (feeapp.MarkPaidResult, error)
}

// FeeHandler serves display-ready fee views and records payments
type FeeHandler struct {
	BaseHandler
	fees FeeService
	now  func() time.Time
}

// NewFeeHandler creates a new FeeHandler
func NewFeeHandler(fees FeeService) *FeeHandler {
	return &FeeHandler{fees: fees, now: time.Now}
}

// GetStudentFees returns a student's summary with derived statuses
//
//	@Summary	Get a student's fee summary
//	@Tags		fees
//	@Param		studentId	path	string	true	"Five character student ID"
//	@Router		/fees/students/{studentId} [get]
func (h *FeeHandler) GetStudentFees(c *gin.Context) {
	studentID, err := school.ValidateStudentID(c.Param("studentId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	summary, err := h.fees.GetStudentSummary(c.Request.Context(), studentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewStudentFeeResponse(summary))
}

// GetClassFees returns the filtered vouchers of a class for one month
//
//	@Summary	Get a class's fee view
//	@Tags		fees
//	@Param		classId	path	string	true	"Class ID"
//	@Param		month	query	int		false	"Month, defaults to the current month"
//	@Param		year	query	int		false	"Year, defaults to the current year"
//	@Param		status	query	string	false	"all, paid, unpaid or partial"
//	@Router		/fees/classes/{classId} [get]
func (h *FeeHandler) GetClassFees(c *gin.Context) {
	summary, filter, ok := loadClass(c, &h.BaseHandler, h.fees, h.now())
	if !ok {
		return
	}
	h.Success(c, dto.NewClassFeeResponse(summary, filter))
}

// RecordPayment records an installment against a voucher
//
//	@Summary	Record a partial payment
//	@Tags		fees
//	@Accept		json
//	@Param		request	body	dto.PartialPaymentRequest	true	"Payment"
//	@Router		/fees/students/{studentId}/vouchers/{voucherNumber}/payments [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	var req dto.PartialPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	summary, err := h.fees.RecordPartialPayment(c.Request.Context(), feeapp.PartialPaymentInput{
		StudentID:     c.Param("studentId"),
		VoucherNumber: c.Param("voucherNumber"),
		Amount:        req.Amount,
		Meta:          req.Meta(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewStudentFeeResponse(summary))
}

// MarkPaid marks a voucher fully paid
//
//	@Summary	Mark a voucher paid
//	@Tags		fees
//	@Router		/fees/students/{studentId}/vouchers/{voucherNumber}/mark-paid [post]
func (h *FeeHandler) MarkPaid(c *gin.Context) {
	res, err := h.fees.MarkFullyPaid(c.Request.Context(), c.Param("studentId"), c.Param("voucherNumber"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.MarkPaidResponse{
		Student:   dto.NewStudentFeeResponse(res.Summary),
		Override:  res.Decision.Override,
		Shortfall: res.Decision.Shortfall,
	})
}

// loadClass binds the class query, fetches the class summary and builds the
// voucher filter. It writes the error response and returns false on failure.
func loadClass(c *gin.Context, h *BaseHandler, fees FeeService, now time.Time) (fee.ClassSummary, fee.VoucherFilter, bool) {
	var q dto.ClassFeeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return fee.ClassSummary{}, fee.VoucherFilter{}, false
	}
	if q.Month == 0 {
		q.Month = int(now.Month())
	}
	if q.Year == 0 {
		q.Year = now.Year()
	}
	status, err := fee.ParseStatusFilter(q.Status)
	if err != nil {
		h.BadRequest(c, err.Error())
		return fee.ClassSummary{}, fee.VoucherFilter{}, false
	}

	summary, err := fees.GetClassSummary(c.Request.Context(), c.Param("classId"), q.Month, q.Year)
	if err != nil {
		h.HandleError(c, err)
		return fee.ClassSummary{}, fee.VoucherFilter{}, false
	}
	return summary, fee.VoucherFilter{
		Period: valueobject.Period{Month: q.Month, Year: q.Year},
		Status: status,
		Kind:   q.Kind(),
		Query:  q.Query,
	}, true
}
