// Package printing projects vouchers, class runs, rosters and salary slips
// into immutable printable documents, and turns them into archived PDFs.
package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/printing"
	"github.com/alfalah/schooladmin/internal/domain/school"
	infra "github.com/alfalah/schooladmin/internal/infrastructure/printing"
	"github.com/alfalah/schooladmin/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrRendererUnavailable is returned by ToPDF when no PDF renderer is configured
var ErrRendererUnavailable = errors.New("PDF renderer is not configured")

// Archiver uploads a copy of a printed PDF to object storage
type Archiver interface {
	Upload(ctx context.Context, relative string, data []byte) (string, error)
}

// PrintService renders school documents
type PrintService struct {
	templateEngine *infra.TemplateEngine
	pdfRenderer    infra.PDFRenderer
	pdfStorage     infra.PDFStorage
	archiver       Archiver
	school         infra.SchoolHeader
	now            func() time.Time
	logger         *zap.Logger
}

// Option configures optional collaborators
type Option func(*PrintService)

// WithRenderer enables ToPDF
func WithRenderer(r infra.PDFRenderer) Option {
	return func(s *PrintService) { s.pdfRenderer = r }
}

// WithStorage enables Archive
func WithStorage(st infra.PDFStorage) Option {
	return func(s *PrintService) { s.pdfStorage = st }
}

// WithArchiver uploads archived PDFs to object storage as well
func WithArchiver(a Archiver) Option {
	return func(s *PrintService) { s.archiver = a }
}

// WithClock overrides the issue-date clock
func WithClock(now func() time.Time) Option {
	return func(s *PrintService) { s.now = now }
}

// NewPrintService creates a PrintService
func NewPrintService(engine *infra.TemplateEngine, header infra.SchoolHeader, logger *zap.Logger, opts ...Option) *PrintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PrintService{
		templateEngine: engine,
		school:         header,
		now:            time.Now,
		logger:         logger.Named("print"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RenderVoucher prints one voucher of a student. A voucher that is not in
// the summary yields the "Voucher not found" placeholder, not an error.
func (s *PrintService) RenderVoucher(summary fee.StudentFeeSummary, voucherNumber string) (printing.Document, error) {
	v, ok := summary.FindVoucher(voucherNumber)
	if !ok {
		s.logger.Warn("voucher not found for printing",
			zap.String("student_id", summary.Student.StudentID),
			zap.String("voucher", voucherNumber))
		return s.RenderNotFound(summary.Student.StudentID, voucherNumber)
	}

	view := s.voucherView(v, summary.Student, true)
	html, err := s.templateEngine.Render(printing.DocTypeFeeVoucher, view)
	if err != nil {
		return printing.Document{}, err
	}
	return printing.NewDocument(printing.DocTypeFeeVoucher,
		"Fee Voucher - "+summary.Student.Name,
		documentKey("voucher", summary.Student.StudentID, voucherNumber),
		html, 1, s.now()), nil
}

// RenderNotFound renders the missing-voucher placeholder
func (s *PrintService) RenderNotFound(studentID, voucherNumber string) (printing.Document, error) {
	html, err := s.templateEngine.RenderNamed(infra.NotFoundTemplate, infra.NotFoundView{
		School:        s.school,
		StudentID:     studentID,
		VoucherNumber: voucherNumber,
	})
	if err != nil {
		return printing.Document{}, err
	}
	return printing.NewDocument(printing.DocTypeFeeVoucher, "Voucher not found",
		documentKey("missing", studentID, voucherNumber), html, 1, s.now()), nil
}

// RenderConsolidated prints all pending vouchers of a student for year:
// each voucher's line items, then the aggregate totals
func (s *PrintService) RenderConsolidated(summary fee.StudentFeeSummary, year int) (printing.Document, error) {
	cv, err := fee.BuildConsolidated(summary.Student, summary.Vouchers(), year)
	if err != nil {
		return printing.Document{}, err
	}

	view := infra.ConsolidatedView{
		School:    s.school,
		Student:   cv.Student,
		Year:      year,
		IssueDate: s.now(),
		Totals:    cv.Totals,
		Reminder:  cv.Totals.TotalRemaining.IsPositive(),
	}
	for _, v := range cv.Vouchers {
		view.Blocks = append(view.Blocks, infra.ConsolidatedBlock{
			VoucherNumber: v.VoucherNumber,
			Items:         fee.LineItems(v),
			Remaining:     fee.ComputeRemaining(v),
		})
	}

	html, err := s.templateEngine.Render(printing.DocTypeConsolidatedVoucher, view)
	if err != nil {
		return printing.Document{}, err
	}
	return printing.NewDocument(printing.DocTypeConsolidatedVoucher,
		fmt.Sprintf("Consolidated Fee Voucher %d - %s", year, cv.Student.Name),
		documentKey("consolidated", cv.Student.StudentID, fmt.Sprint(year)),
		html, 1, s.now()), nil
}

// RenderClassVouchers prints the filtered vouchers of a class, two per page
func (s *PrintService) RenderClassVouchers(cs fee.ClassSummary, filter fee.VoucherFilter) (printing.Document, error) {
	if !filter.Period.IsValid() {
		filter.Period = cs.Period
	}
	selected := fee.FilterVouchers(cs.Vouchers, filter)
	classRef, _ := school.ParseClassName(cs.ClassName)
	classRef.ID = cs.ClassID

	views := make([]infra.VoucherView, 0, len(selected))
	for _, v := range selected {
		student := school.Student{StudentID: v.StudentID, Name: v.StudentName, Class: classRef}
		views = append(views, s.voucherView(v, student, false))
	}

	view := infra.ClassVouchersView{
		School:    s.school,
		ClassName: cs.ClassName,
		Banner:    filter.Describe(),
		Pages:     infra.Paginate(views),
		Count:     len(views),
	}
	html, err := s.templateEngine.Render(printing.DocTypeClassVouchers, view)
	if err != nil {
		return printing.Document{}, err
	}
	return printing.NewDocument(printing.DocTypeClassVouchers,
		fmt.Sprintf("Class %s Fee Vouchers", cs.ClassName),
		documentKey("class", cs.ClassName, filter.Period.String(), string(filter.Status)),
		html, printing.PageCount(len(views)), s.now()), nil
}

// RenderClassRoster prints a class list with a QR code per student for
// attendance scanning
func (s *PrintService) RenderClassRoster(class school.Class) (printing.Document, error) {
	view := infra.RosterView{
		School:    s.school,
		ClassName: class.Label(),
		RoomNo:    class.RoomNumber,
		InCharge:  class.InCharge,
		IssueDate: s.now(),
	}
	for _, st := range class.Students {
		qr, err := infra.QRDataURL(st.StudentID)
		if err != nil {
			return printing.Document{}, fmt.Errorf("qr code for student %s: %w", st.StudentID, err)
		}
		view.Rows = append(view.Rows, infra.RosterRow{Student: st, QRCode: qr})
	}

	html, err := s.templateEngine.Render(printing.DocTypeClassRoster, view)
	if err != nil {
		return printing.Document{}, err
	}
	return printing.NewDocument(printing.DocTypeClassRoster,
		fmt.Sprintf("Class %s Roster", class.Label()),
		documentKey("roster", class.Label()),
		html, 1, s.now()), nil
}

// RenderSalarySlip prints an A5 salary slip
func (s *PrintService) RenderSalarySlip(staff school.Staff, payment school.SalaryPayment) (printing.Document, error) {
	slipNo := fmt.Sprintf("SAL-%d-%02d-%s", payment.Year, payment.Month, staff.ID)
	html, err := s.templateEngine.Render(printing.DocTypeSalarySlip, infra.SalarySlipView{
		School:  s.school,
		Staff:   staff,
		Payment: payment,
		SlipNo:  slipNo,
	})
	if err != nil {
		return printing.Document{}, err
	}
	return printing.NewDocument(printing.DocTypeSalarySlip,
		fmt.Sprintf("Salary Slip %s - %s", payment.Period, staff.Name),
		documentKey("salary", staff.ID, payment.Period.String()),
		html, 1, s.now()), nil
}

// ToPDF renders a document through the PDF renderer
func (s *PrintService) ToPDF(ctx context.Context, doc printing.Document) (*PDFOutput, error) {
	if s.pdfRenderer == nil {
		return nil, ErrRendererUnavailable
	}
	ctx, span := telemetry.StartSpan(ctx, "print.to_pdf",
		telemetry.WithAttribute(telemetry.SpanAttrDocType, doc.DocType),
		telemetry.WithAttribute(telemetry.SpanAttrDocKey, doc.Key))
	defer span.End()

	result, err := s.pdfRenderer.Render(ctx, infra.RequestFor(doc))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("render %s: %w", doc.DocType, err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrPages, result.PageCount)
	return &PDFOutput{
		Data:      result.PDFData,
		PageCount: result.PageCount,
		Filename:  infra.SanitizeKey(doc.Key) + ".pdf",
	}, nil
}

// Archive stores a rendered PDF on disk and, when configured, in object storage.
// An object storage failure is logged; the local copy still counts.
func (s *PrintService) Archive(ctx context.Context, doc printing.Document, pdf []byte) (*ArchiveResult, error) {
	if s.pdfStorage == nil {
		return nil, infra.NewRenderError(infra.ErrCodeStorageFailed, "PDF storage is not configured", nil)
	}
	stored, err := s.pdfStorage.Store(ctx, &infra.StoreRequest{Key: doc.Key, PDFData: pdf, At: doc.RenderedAt})
	if err != nil {
		return nil, err
	}
	res := &ArchiveResult{Path: stored.Path, URL: stored.URL, Size: stored.Size}

	if s.archiver != nil {
		key, err := s.archiver.Upload(ctx, stored.Path, pdf)
		if err != nil {
			s.logger.Warn("failed to upload PDF to object storage",
				zap.String("path", stored.Path), zap.Error(err))
		} else {
			res.ObjectKey = key
		}
	}
	return res, nil
}

func (s *PrintService) voucherView(v fee.Voucher, student school.Student, single bool) infra.VoucherView {
	status := fee.ClassifyStatus(v)
	remaining := fee.ComputeRemaining(v)
	view := infra.VoucherView{
		School:        s.school,
		Title:         "Admission Fee Voucher",
		VoucherNumber: v.VoucherNumber,
		Student:       student,
		IssueDate:     v.CreatedAt,
		PaymentDate:   v.PaymentDate,
		Items:         fee.LineItems(v),
		Amount:        v.Amount,
		Paid:          v.PaidAmount,
		Remaining:     remaining,
		Status:        status,
		Reminder:      !v.IsPaid,
	}
	if view.IssueDate.IsZero() {
		view.IssueDate = s.now()
	}
	if v.IsMonthly() {
		view.Title = "Monthly Fee Voucher"
		if v.Period != nil {
			view.Period = v.Period.String()
		}
	}

	switch status {
	case fee.StatusFullyPaid:
		view.Watermark = printing.WatermarkPaid
	case fee.StatusPartiallyPaid:
		view.PartialNote = "Partial payment received - Remaining: " + remaining.Format()
		if single {
			view.Watermark = printing.WatermarkPartial
		}
	}
	if single {
		view.Payments = v.PartialPayments
		view.ShowHistory = len(v.PartialPayments) > 0
	}
	return view
}

func documentKey(parts ...string) string {
	return infra.SanitizeKey(strings.Join(parts, "-"))
}
