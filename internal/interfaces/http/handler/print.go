package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	printapp "github.com/alfalah/schooladmin/internal/application/printing"
	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/printing"
	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
	"github.com/alfalah/schooladmin/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Printer renders school documents
type Printer interface {
	RenderVoucher(summary fee.StudentFeeSummary, voucherNumber string) (printing.Document, error)
	RenderConsolidated(summary fee.StudentFeeSummary, year int) (printing.Document, error)
	RenderClassVouchers(cs fee.ClassSummary, filter fee.VoucherFilter) (printing.Document, error)
	RenderClassRoster(class school.Class) (printing.Document, error)
	RenderSalarySlip(staff school.Staff, payment school.SalaryPayment) (printing.Document, error)
	ToPDF(ctx context.Context, doc printing.Document) (*printapp.PDFOutput, error)
	Archive(ctx context.Context, doc printing.Document, pdf []byte) (*printapp.ArchiveResult, error)
}

// Records looks up the classes and staff that documents are printed for
type Records interface {
	Class(ctx context.Context, id string) (school.Class, error)
	StaffMember(ctx context.Context, id string) (school.Staff, error)
}

// Response headers describing a printed document
const (
	HeaderDocumentKey   = "X-Document-Key"
	HeaderDocumentPages = "X-Document-Pages"
	HeaderArchivePath   = "X-Archive-Path"
	HeaderArchiveURL    = "X-Archive-URL"
)

// PrintHandler serves printable documents as HTML or PDF
type PrintHandler struct {
	BaseHandler
	fees    FeeService
	records Records
	printer Printer
	now     func() time.Time
}

// NewPrintHandler creates a new PrintHandler
func NewPrintHandler(fees FeeService, records Records, printer Printer) *PrintHandler {
	return &PrintHandler{
		fees:    fees,
		records: records,
		printer: printer,
		now:     time.Now,
	}
}

// PrintVoucher prints one voucher of a student. An unknown voucher number
// prints the "Voucher not found" page.
//
//	@Summary	Print a fee voucher
//	@Tags		print
//	@Produce	html
//	@Param		format	query	string	false	"html (default) or pdf"
//	@Param		archive	query	bool	false	"Store the PDF in the archive"
//	@Router		/print/students/{studentId}/vouchers/{voucherNumber} [get]
func (h *PrintHandler) PrintVoucher(c *gin.Context) {
	summary, err := h.fees.GetStudentSummary(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	doc, err := h.printer.RenderVoucher(summary, c.Param("voucherNumber"))
	h.respond(c, doc, err)
}

// PrintPending prints every pending voucher of a student as one consolidated voucher
//
//	@Summary	Print a consolidated voucher
//	@Tags		print
//	@Param		year	query	int	false	"Monthly vouchers of this year; defaults to the current year"
//	@Router		/print/students/{studentId}/pending [get]
func (h *PrintHandler) PrintPending(c *gin.Context) {
	year := h.now().Year()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 2000 || y > 2100 {
			h.BadRequest(c, "year must be between 2000 and 2100")
			return
		}
		year = y
	}

	summary, err := h.fees.GetStudentSummary(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	doc, err := h.printer.RenderConsolidated(summary, year)
	h.respond(c, doc, err)
}

// PrintClassVouchers prints the filtered vouchers of a class, two per page
//
//	@Summary	Print class vouchers
//	@Tags		print
//	@Param		status	query	string	false	"all, paid, unpaid or partial"
//	@Router		/print/classes/{classId}/vouchers [get]
func (h *PrintHandler) PrintClassVouchers(c *gin.Context) {
	summary, filter, ok := loadClass(c, &h.BaseHandler, h.fees, h.now())
	if !ok {
		return
	}
	doc, err := h.printer.RenderClassVouchers(summary, filter)
	h.respond(c, doc, err)
}

// PrintClassRoster prints a class list with attendance QR codes
func (h *PrintHandler) PrintClassRoster(c *gin.Context) {
	class, err := h.records.Class(c.Request.Context(), c.Param("classId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	doc, err := h.printer.RenderClassRoster(class)
	h.respond(c, doc, err)
}

// PrintSalarySlip prints the slip of a disbursed monthly salary
//
//	@Summary	Print a salary slip
//	@Tags		print
//	@Param		month	query	int	true	"Month"
//	@Param		year	query	int	true	"Year"
//	@Router		/print/staff/{staffId}/salary-slip [get]
func (h *PrintHandler) PrintSalarySlip(c *gin.Context) {
	month, errM := strconv.Atoi(c.Query("month"))
	year, errY := strconv.Atoi(c.Query("year"))
	period, err := valueobject.NewPeriod(month, year)
	if errM != nil || errY != nil || err != nil {
		h.BadRequest(c, "month and year are required")
		return
	}

	staff, err := h.records.StaffMember(c.Request.Context(), c.Param("staffId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	payment, ok := staff.PaymentFor(period)
	if !ok {
		h.NotFound(c, fmt.Sprintf("No salary payment for %s", period))
		return
	}
	doc, err := h.printer.RenderSalarySlip(staff, payment)
	h.respond(c, doc, err)
}

// DocumentTypes lists the printable document types
func (h *PrintHandler) DocumentTypes(c *gin.Context) {
	h.Success(c, printapp.DocumentTypes())
}

// respond writes doc as HTML, or as a PDF when format=pdf
func (h *PrintHandler) respond(c *gin.Context, doc printing.Document, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header(HeaderDocumentKey, doc.Key)
	c.Header(HeaderDocumentPages, strconv.Itoa(doc.Pages))

	switch c.DefaultQuery("format", "html") {
	case "html":
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
	case "pdf":
		h.respondPDF(c, doc)
	default:
		h.BadRequest(c, "format must be html or pdf")
	}
}

func (h *PrintHandler) respondPDF(c *gin.Context, doc printing.Document) {
	ctx := c.Request.Context()
	out, err := h.printer.ToPDF(ctx, doc)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if archive, _ := strconv.ParseBool(c.Query("archive")); archive {
		res, err := h.printer.Archive(ctx, doc, out.Data)
		if err != nil {
			logger.GetGinLogger(c).Warn("failed to archive PDF",
				zap.String("key", doc.Key), zap.Error(err))
		} else {
			c.Header(HeaderArchivePath, res.Path)
			c.Header(HeaderArchiveURL, res.URL)
		}
	}

	c.Header(HeaderDocumentPages, strconv.Itoa(out.PageCount))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", out.Filename))
	c.Data(http.StatusOK, "application/pdf", out.Data)
}
