// Package fee orchestrates fee mutations against the school API: local
// validation first, one in-flight mutation per voucher, and a re-fetch of
// the authoritative summary after every change.
package fee

import (
	"context"
	"fmt"
	"time"

	"github.com/alfalah/schooladmin/internal/application/state"
	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
	"github.com/alfalah/schooladmin/internal/infrastructure/apiclient"
	"github.com/alfalah/schooladmin/internal/infrastructure/cache"
	"github.com/alfalah/schooladmin/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CodePaymentInFlight is returned while another payment on the same voucher is pending
const CodePaymentInFlight = "PAYMENT_IN_FLIGHT"

// ErrPaymentInFlight rejects a duplicate payment submission
var ErrPaymentInFlight = shared.NewDomainError(CodePaymentInFlight, "A payment for this voucher is already being processed")

const defaultInFlightTTL = 30 * time.Second

// FeeAPI is the part of the school API the service needs
type FeeAPI interface {
	GetStudentFeeSummary(ctx context.Context, studentID string) (fee.StudentFeeSummary, error)
	GetClassFeeSummary(ctx context.Context, classID string, period valueobject.Period) (fee.ClassSummary, error)
	GetVoucherDetails(ctx context.Context, studentID, voucherNumber string) (fee.Voucher, error)
	GenerateVoucher(ctx context.Context, req apiclient.GenerateVoucherRequest) (fee.Voucher, error)
	GenerateBulkMonthly(ctx context.Context, classID string, period valueobject.Period, amount valueobject.Money) (apiclient.MutationResult, error)
	GenerateBulkAdmission(ctx context.Context, classID string, b fee.AdmissionBreakdown) (apiclient.MutationResult, error)
	EditMonthly(ctx context.Context, studentID, voucherNumber string, amount valueobject.Money, period valueobject.Period) error
	EditAdmission(ctx context.Context, studentID, voucherNumber string, b fee.AdmissionBreakdown, total valueobject.Money) error
	SubmitPartialPayment(ctx context.Context, req fee.PartialPaymentRequest) (apiclient.MutationResult, error)
	MarkPaid(ctx context.Context, studentID, voucherNumber string) error
	DeleteVoucher(ctx context.Context, studentID, voucherNumber string) error
}

// Config holds the fee policies
type Config struct {
	MarkPaidPolicy fee.MarkPaidPolicy
	InFlightTTL    time.Duration
}

// Service is the fee application service
type Service struct {
	api    FeeAPI
	guard  cache.InFlightGuard
	store  *state.Store
	config Config
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a fee service
func NewService(api FeeAPI, guard cache.InFlightGuard, store *state.Store, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MarkPaidPolicy == "" {
		cfg.MarkPaidPolicy = fee.MarkPaidAudit
	}
	if cfg.InFlightTTL <= 0 {
		cfg.InFlightTTL = defaultInFlightTTL
	}
	if store == nil {
		store = state.NewStore(logger)
	}
	return &Service{
		api:    api,
		guard:  guard,
		store:  store,
		config: cfg,
		now:    time.Now,
		logger: logger.Named("fee"),
	}
}

// Store returns the state store the service dispatches into
func (s *Service) Store() *state.Store {
	return s.store
}

// GetStudentSummary fetches and caches a student's summary
func (s *Service) GetStudentSummary(ctx context.Context, studentID string) (fee.StudentFeeSummary, error) {
	summary, err := s.api.GetStudentFeeSummary(ctx, studentID)
	if err != nil {
		return fee.StudentFeeSummary{}, s.fail(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return fee.StudentFeeSummary{}, err
	}
	s.auditLedger(summary)
	s.store.Dispatch(state.StudentSummaryLoaded{Summary: summary})
	return summary, nil
}

// GetClassSummary fetches and caches the class view for one month
func (s *Service) GetClassSummary(ctx context.Context, classID string, month, year int) (fee.ClassSummary, error) {
	period, err := fee.ValidatePeriod(month, year)
	if err != nil {
		return fee.ClassSummary{}, err
	}
	summary, err := s.api.GetClassFeeSummary(ctx, classID, period)
	if err != nil {
		return fee.ClassSummary{}, s.fail(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return fee.ClassSummary{}, err
	}
	s.store.Dispatch(state.ClassSummaryLoaded{Summary: summary})
	return summary, nil
}

// GetVoucherDetails fetches one voucher
func (s *Service) GetVoucherDetails(ctx context.Context, studentID, voucherNumber string) (fee.Voucher, error) {
	v, err := s.api.GetVoucherDetails(ctx, studentID, voucherNumber)
	if err != nil {
		return fee.Voucher{}, s.fail(ctx, err)
	}
	return v, nil
}

// GenerateVoucher creates one monthly or admission voucher
func (s *Service) GenerateVoucher(ctx context.Context, in GenerateVoucherInput) (fee.StudentFeeSummary, error) {
	var req apiclient.GenerateVoucherRequest
	switch in.FeeType {
	case fee.FeeTypeMonthly:
		if err := fee.ValidateAmount(in.Amount); err != nil {
			return fee.StudentFeeSummary{}, err
		}
		period, err := fee.ValidatePeriod(in.Month, in.Year)
		if err != nil {
			return fee.StudentFeeSummary{}, err
		}
		req = apiclient.NewMonthlyVoucherRequest(in.StudentID, in.Amount, period)
	case fee.FeeTypeAdmission:
		total, err := admissionTotal(in.Breakdown)
		if err != nil {
			return fee.StudentFeeSummary{}, err
		}
		req = apiclient.NewAdmissionVoucherRequest(in.StudentID, *in.Breakdown, total)
	default:
		return fee.StudentFeeSummary{}, shared.NewValidationError(fee.CodeInvalidVoucher, fmt.Sprintf("unknown fee type %q", in.FeeType))
	}

	err := s.mutate(ctx, "", func(ctx context.Context) error {
		_, err := s.api.GenerateVoucher(ctx, req)
		return err
	})
	if err != nil {
		return fee.StudentFeeSummary{}, err
	}
	return s.refreshStudent(ctx, in.StudentID, "Voucher generated")
}

// GenerateBulkMonthly generates the monthly voucher of every student in a class
func (s *Service) GenerateBulkMonthly(ctx context.Context, classID string, month, year int, amount valueobject.Money) (BulkResult, error) {
	if err := fee.ValidateAmount(amount); err != nil {
		return BulkResult{}, err
	}
	period, err := fee.ValidatePeriod(month, year)
	if err != nil {
		return BulkResult{}, err
	}

	var res apiclient.MutationResult
	err = s.mutate(ctx, "", func(ctx context.Context) error {
		var err error
		res, err = s.api.GenerateBulkMonthly(ctx, classID, period, amount)
		return err
	})
	if err != nil {
		return BulkResult{}, err
	}
	return s.finishBulk(ctx, classID, period, res)
}

// GenerateBulkAdmission generates the admission voucher of every student in a class
func (s *Service) GenerateBulkAdmission(ctx context.Context, classID string, b fee.AdmissionBreakdown) (BulkResult, error) {
	if _, err := admissionTotal(&b); err != nil {
		return BulkResult{}, err
	}

	var res apiclient.MutationResult
	err := s.mutate(ctx, "", func(ctx context.Context) error {
		var err error
		res, err = s.api.GenerateBulkAdmission(ctx, classID, b)
		return err
	})
	if err != nil {
		return BulkResult{}, err
	}
	period, ok := b.MonthlyPeriod()
	if !ok {
		period = valueobject.PeriodOf(s.now())
	}
	return s.finishBulk(ctx, classID, period, res)
}

// EditMonthly changes the amount or period of a monthly voucher. The new
// amount is checked against the paid amount while the voucher is guarded.
func (s *Service) EditMonthly(ctx context.Context, studentID, voucherNumber string, amount valueobject.Money, month, year int) (fee.StudentFeeSummary, error) {
	if err := fee.ValidateAmount(amount); err != nil {
		return fee.StudentFeeSummary{}, err
	}
	period, err := fee.ValidatePeriod(month, year)
	if err != nil {
		return fee.StudentFeeSummary{}, err
	}

	err = s.mutate(ctx, cache.VoucherKey(studentID, voucherNumber), func(ctx context.Context) error {
		if err := s.checkEdit(ctx, studentID, voucherNumber, amount); err != nil {
			return err
		}
		return s.api.EditMonthly(ctx, studentID, voucherNumber, amount, period)
	})
	if err != nil {
		return fee.StudentFeeSummary{}, err
	}
	return s.refreshStudent(ctx, studentID, "Voucher updated")
}

// EditAdmission replaces the breakdown of an admission voucher
func (s *Service) EditAdmission(ctx context.Context, studentID, voucherNumber string, b fee.AdmissionBreakdown) (fee.StudentFeeSummary, error) {
	total, err := admissionTotal(&b)
	if err != nil {
		return fee.StudentFeeSummary{}, err
	}

	err = s.mutate(ctx, cache.VoucherKey(studentID, voucherNumber), func(ctx context.Context) error {
		if err := s.checkEdit(ctx, studentID, voucherNumber, total); err != nil {
			return err
		}
		return s.api.EditAdmission(ctx, studentID, voucherNumber, b, total)
	})
	if err != nil {
		return fee.StudentFeeSummary{}, err
	}
	return s.refreshStudent(ctx, studentID, "Voucher updated")
}

func (s *Service) checkEdit(ctx context.Context, studentID, voucherNumber string, amount valueobject.Money) error {
	v, err := s.api.GetVoucherDetails(ctx, studentID, voucherNumber)
	if err != nil {
		return err
	}
	return fee.ValidateEditAmount(v, amount)
}

// DeleteVoucher removes a voucher
func (s *Service) DeleteVoucher(ctx context.Context, studentID, voucherNumber string) (fee.StudentFeeSummary, error) {
	err := s.mutate(ctx, cache.VoucherKey(studentID, voucherNumber), func(ctx context.Context) error {
		return s.api.DeleteVoucher(ctx, studentID, voucherNumber)
	})
	if err != nil {
		return fee.StudentFeeSummary{}, err
	}
	return s.refreshStudent(ctx, studentID, "Voucher deleted")
}

// RecordPartialPayment validates an installment against the voucher's
// current balance and submits it
func (s *Service) RecordPartialPayment(ctx context.Context, in PartialPaymentInput) (_ fee.StudentFeeSummary, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee", "record_payment",
		telemetry.WithAttribute(telemetry.SpanAttrStudentID, in.StudentID),
		telemetry.WithAttribute(telemetry.SpanAttrVoucherNumber, in.VoucherNumber),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, in.Amount))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if !in.Amount.IsPositive() {
		return fee.StudentFeeSummary{}, fee.ErrAmountNotPositive
	}

	// balance check and submission share the voucher guard
	var req fee.PartialPaymentRequest
	err = s.mutate(ctx, cache.VoucherKey(in.StudentID, in.VoucherNumber), func(ctx context.Context) error {
		v, err := s.api.GetVoucherDetails(ctx, in.StudentID, in.VoucherNumber)
		if err != nil {
			return err
		}
		req, err = fee.RecordPartialPayment(v, in.Amount, in.Meta, s.now())
		if err != nil {
			return err
		}
		// vouchers looked up by number may omit the student
		req.StudentID = in.StudentID
		_, err = s.api.SubmitPartialPayment(ctx, req)
		return err
	})
	if err != nil {
		return fee.StudentFeeSummary{}, err
	}

	s.logger.Info("partial payment recorded",
		zap.String("student_id", in.StudentID),
		zap.String("voucher", in.VoucherNumber),
		zap.String("amount", req.Payment.Amount.String()),
		zap.String("method", string(req.Payment.PaymentMethod)))
	return s.refreshStudent(ctx, in.StudentID, "Payment recorded")
}

// MarkFullyPaid marks a voucher paid under the configured policy. Under the
// audit policy an outstanding balance is forgiven and logged.
func (s *Service) MarkFullyPaid(ctx context.Context, studentID, voucherNumber string) (_ MarkPaidResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee", "mark_paid",
		telemetry.WithAttribute(telemetry.SpanAttrStudentID, studentID),
		telemetry.WithAttribute(telemetry.SpanAttrVoucherNumber, voucherNumber))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	var decision fee.MarkPaidDecision
	err = s.mutate(ctx, cache.VoucherKey(studentID, voucherNumber), func(ctx context.Context) error {
		v, err := s.api.GetVoucherDetails(ctx, studentID, voucherNumber)
		if err != nil {
			return err
		}
		decision, err = fee.MarkFullyPaid(v, s.config.MarkPaidPolicy)
		if err != nil {
			return err
		}
		decision.StudentID = studentID
		return s.api.MarkPaid(ctx, studentID, voucherNumber)
	})
	if err != nil {
		return MarkPaidResult{}, err
	}

	if decision.Override {
		telemetry.SetAttributes(span, "override", true, "shortfall", decision.Shortfall)
		s.logger.Warn("voucher marked paid with outstanding balance",
			zap.String("student_id", studentID),
			zap.String("voucher", voucherNumber),
			zap.String("shortfall", decision.Shortfall.String()),
			zap.String("policy", string(s.config.MarkPaidPolicy)))
	}

	summary, err := s.refreshStudent(ctx, studentID, "Voucher marked as paid")
	if err != nil {
		return MarkPaidResult{}, err
	}
	return MarkPaidResult{Summary: summary, Decision: decision}, nil
}

// mutate runs fn holding the in-flight guard of key when key is set
func (s *Service) mutate(ctx context.Context, key string, fn func(context.Context) error) error {
	if key != "" && s.guard != nil {
		token, ok, err := s.guard.Acquire(ctx, key, s.config.InFlightTTL)
		if err != nil {
			return s.fail(ctx, fmt.Errorf("acquire in-flight guard: %w", err))
		}
		if !ok {
			return s.fail(ctx, ErrPaymentInFlight)
		}
		defer func() {
			// release even when ctx was cancelled mid-request
			if err := s.guard.Release(context.WithoutCancel(ctx), key, token); err != nil {
				s.logger.Warn("failed to release in-flight guard", zap.String("key", key), zap.Error(err))
			}
		}()
	}

	if key != "" {
		s.store.Dispatch(state.MutationStarted{Key: key})
		defer s.store.Dispatch(state.MutationFinished{Key: key})
	}
	if err := fn(ctx); err != nil {
		return s.fail(ctx, err)
	}
	return nil
}

// refreshStudent re-fetches the authoritative summary after a mutation
func (s *Service) refreshStudent(ctx context.Context, studentID, success string) (fee.StudentFeeSummary, error) {
	summary, err := s.GetStudentSummary(ctx, studentID)
	if err != nil {
		return fee.StudentFeeSummary{}, err
	}
	s.store.Notify(state.LevelSuccess, success)
	return summary, nil
}

func (s *Service) finishBulk(ctx context.Context, classID string, period valueobject.Period, res apiclient.MutationResult) (BulkResult, error) {
	if _, err := s.GetClassSummary(ctx, classID, period.Month, period.Year); err != nil {
		return BulkResult{}, err
	}
	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("Generated %d vouchers", res.Count)
	}
	s.store.Notify(state.LevelSuccess, msg)
	return BulkResult{Count: res.Count, Message: msg}, nil
}

// fail raises the notification of a request failure. Validation errors are
// returned as-is and a cancelled caller gets nothing dispatched.
func (s *Service) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if shared.IsValidation(err) {
		return err
	}
	s.logger.Error("fee request failed", zap.Error(err))
	s.store.NotifyError(err)
	return err
}

// auditLedger logs vouchers whose ledger does not add up to paidAmount
func (s *Service) auditLedger(summary fee.StudentFeeSummary) {
	for _, v := range summary.Vouchers() {
		check := fee.ReconcileLedger(v)
		if check.Consistent {
			continue
		}
		s.logger.Warn("voucher ledger does not match paid amount",
			zap.String("student_id", summary.Student.StudentID),
			zap.String("voucher", check.VoucherNumber),
			zap.String("ledger_total", check.LedgerTotal.String()),
			zap.String("paid_amount", check.PaidAmount.String()))
	}
}

func admissionTotal(b *fee.AdmissionBreakdown) (valueobject.Money, error) {
	if b == nil || !b.AdmissionFee.IsPositive() {
		return valueobject.Money{}, fee.ErrAdmissionFeeRequired
	}
	return fee.ComputeAdmissionTotal(*b)
}
