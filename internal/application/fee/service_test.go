package fee

import (
	"context"
	"testing"
	"time"

	"github.com/alfalah/schooladmin/internal/application/state"
	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
	"github.com/alfalah/schooladmin/internal/infrastructure/apiclient"
	"github.com/alfalah/schooladmin/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockFeeAPI is a mock implementation of FeeAPI
type MockFeeAPI struct {
	mock.Mock
}

func (m *MockFeeAPI) GetStudentFeeSummary(ctx context.Context, studentID string) (fee.StudentFeeSummary, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(fee.StudentFeeSummary), args.Error(1)
}

func (m *MockFeeAPI) GetClassFeeSummary(ctx context.Context, classID string, period valueobject.Period) (fee.ClassSummary, error) {
	args := m.Called(ctx, classID, period)
	return args.Get(0).(fee.ClassSummary), args.Error(1)
}

func (m *MockFeeAPI) GetVoucherDetails(ctx context.Context, studentID, voucherNumber string) (fee.Voucher, error) {
	args := m.Called(ctx, studentID, voucherNumber)
	return args.Get(0).(fee.Voucher), args.Error(1)
}

func (m *MockFeeAPI) GenerateVoucher(ctx context.Context, req apiclient.GenerateVoucherRequest) (fee.Voucher, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(fee.Voucher), args.Error(1)
}

func (m *MockFeeAPI) GenerateBulkMonthly(ctx context.Context, classID string, period valueobject.Period, amount valueobject.Money) (apiclient.MutationResult, error) {
	args := m.Called(ctx, classID, period, amount)
	return args.Get(0).(apiclient.MutationResult), args.Error(1)
}

func (m *MockFeeAPI) GenerateBulkAdmission(ctx context.Context, classID string, b fee.AdmissionBreakdown) (apiclient.MutationResult, error) {
	args := m.Called(ctx, classID, b)
	return args.Get(0).(apiclient.MutationResult), args.Error(1)
}

func (m *MockFeeAPI) EditMonthly(ctx context.Context, studentID, voucherNumber string, amount valueobject.Money, period valueobject.Period) error {
	return m.Called(ctx, studentID, voucherNumber, amount, period).Error(0)
}

func (m *MockFeeAPI) EditAdmission(ctx context.Context, studentID, voucherNumber string, b fee.AdmissionBreakdown, total valueobject.Money) error {
	return m.Called(ctx, studentID, voucherNumber, b, total).Error(0)
}

func (m *MockFeeAPI) SubmitPartialPayment(ctx context.Context, req fee.PartialPaymentRequest) (apiclient.MutationResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(apiclient.MutationResult), args.Error(1)
}

func (m *MockFeeAPI) MarkPaid(ctx context.Context, studentID, voucherNumber string) error {
	return m.Called(ctx, studentID, voucherNumber).Error(0)
}

func (m *MockFeeAPI) DeleteVoucher(ctx context.Context, studentID, voucherNumber string) error {
	return m.Called(ctx, studentID, voucherNumber).Error(0)
}

var testNow = time.Date(2025, time.March, 20, 10, 0, 0, 0, time.UTC)

func rs(n int64) valueobject.Money { return valueobject.NewMoneyFromInt(n) }

func monthly(number string, amount, paid int64) fee.Voucher {
	return fee.Voucher{
		VoucherNumber: number,
		StudentID:     "S0001",
		FeeType:       fee.FeeTypeMonthly,
		Amount:        rs(amount),
		PaidAmount:    rs(paid),
		IsPaid:        paid == amount,
		Period:        &valueobject.Period{Month: 3, Year: 2025},
	}
}

func summaryWith(vs ...fee.Voucher) fee.StudentFeeSummary {
	return fee.StudentFeeSummary{
		Student: school.Student{StudentID: "S0001", Name: "Ayesha Khan"},
		Monthly: fee.FeeBucket{Details: vs},
	}
}

type fixture struct {
	api   *MockFeeAPI
	guard *cache.MemoryGuard
	svc   *Service
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T, policy fee.MarkPaidPolicy) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	api := new(MockFeeAPI)
	guard := cache.NewMemoryGuard(time.Minute)
	t.Cleanup(func() { guard.Close() })

	svc := NewService(api, guard, state.NewStore(nil), Config{MarkPaidPolicy: policy, InFlightTTL: time.Minute}, zap.New(core))
	svc.now = func() time.Time { return testNow }
	return &fixture{api: api, guard: guard, svc: svc, logs: logs}
}

func TestRecordPartialPayment_Success(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	v := monthly("V1", 5000, 2000)
	after := monthly("V1", 5000, 5000)

	f.api.On("GetVoucherDetails", mock.Anything, "S0001", "V1").Return(v, nil)
	f.api.On("SubmitPartialPayment", mock.Anything, mock.MatchedBy(func(req fee.PartialPaymentRequest) bool {
		return req.Payment.Amount.Equals(rs(3000)) &&
			req.Payment.PaymentMethod == fee.PaymentMethodCash &&
			req.Payment.ReceivedBy == fee.DefaultReceivedBy &&
			req.Payment.Date.Equal(testNow)
	})).Run(func(mock.Arguments) {
		assert.True(t, f.svc.Store().Snapshot().Busy(cache.VoucherKey("S0001", "V1")))
	}).Return(apiclient.MutationResult{Success: true}, nil)
	f.api.On("GetStudentFeeSummary", mock.Anything, "S0001").Return(summaryWith(after), nil)

	summary, err := f.svc.RecordPartialPayment(ctx, PartialPaymentInput{StudentID: "S0001", VoucherNumber: "V1", Amount: rs(3000)})
	require.NoError(t, err)

	got, ok := summary.FindVoucher("V1")
	require.True(t, ok)
	assert.True(t, got.IsPaid)

	snap := f.svc.Store().Snapshot()
	_, cached := snap.StudentSummary("S0001")
	assert.True(t, cached)
	assert.Empty(t, snap.InFlight)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, state.LevelSuccess, snap.Notifications[0].Level)
	assert.Zero(t, f.guard.Size())
	f.api.AssertExpectations(t)
}

func TestRecordPartialPayment_ExceedsRemaining(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	f.api.On("GetVoucherDetails", mock.Anything, "S0001", "V1").Return(monthly("V1", 5000, 4000), nil)

	_, err := f.svc.RecordPartialPayment(ctx, PartialPaymentInput{StudentID: "S0001", VoucherNumber: "V1", Amount: rs(1500)})

	assert.ErrorIs(t, err, fee.ErrAmountExceedsRemaining)
	assert.True(t, shared.IsValidation(err))
	f.api.AssertNotCalled(t, "SubmitPartialPayment", mock.Anything, mock.Anything)
	assert.Empty(t, f.svc.Store().Snapshot().Notifications)
}

func TestRecordPartialPayment_InFlight(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	f.api.On("GetVoucherDetails", mock.Anything, "S0001", "V1").Return(monthly("V1", 5000, 0), nil)

	_, ok, err := f.guard.Acquire(ctx, cache.VoucherKey("S0001", "V1"), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.RecordPartialPayment(ctx, PartialPaymentInput{StudentID: "S0001", VoucherNumber: "V1", Amount: rs(100)})

	assert.ErrorIs(t, err, ErrPaymentInFlight)
	f.api.AssertNotCalled(t, "GetVoucherDetails", mock.Anything, mock.Anything, mock.Anything)
	f.api.AssertNotCalled(t, "SubmitPartialPayment", mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.guard.Size())
}

func TestRecordPartialPayment_ConcurrentCashiers(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	in := PartialPaymentInput{StudentID: "S0001", VoucherNumber: "V1", Amount: rs(3000)}

	// the second cashier starts while the first submission is still pending,
	// then retries once it has gone through
	var secondErr error
	f.api.On("GetVoucherDetails", mock.Anything, "S0001", "V1").Return(monthly("V1", 5000, 2000), nil).Once()
	f.api.On("SubmitPartialPayment", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		_, secondErr = f.svc.RecordPartialPayment(ctx, in)
	}).Return(apiclient.MutationResult{Success: true}, nil).Once()
	f.api.On("GetStudentFeeSummary", mock.Anything, "S0001").Return(summaryWith(monthly("V1", 5000, 5000)), nil)

	_, err := f.svc.RecordPartialPayment(ctx, in)
	require.NoError(t, err)
	assert.ErrorIs(t, secondErr, ErrPaymentInFlight)

	f.api.On("GetVoucherDetails", mock.Anything, "S0001", "V1").Return(monthly("V1", 5000, 5000), nil).Once()
	_, err = f.svc.RecordPartialPayment(ctx, in)

	assert.ErrorIs(t, err, fee.ErrAmountExceedsRemaining)
	f.api.AssertNumberOfCalls(t, "SubmitPartialPayment", 1)
	f.api.AssertNumberOfCalls(t, "GetVoucherDetails", 2)
	assert.Zero(t, f.guard.Size())
}

func TestMarkFullyPaid_ReadsBalanceUnderGuard(t *testing.T) {
	f := newFixture(t, fee.MarkPaidEnforce)
	ctx := context.Background()
	_, ok, err := f.guard.Acquire(ctx, cache.VoucherKey("S0001", "V1"), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.MarkFullyPaid(ctx, "S0001", "V1")

	assert.ErrorIs(t, err, ErrPaymentInFlight)
	f.api.AssertNotCalled(t, "GetVoucherDetails", mock.Anything, mock.Anything, mock.Anything)
	f.api.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordPartialPayment_RequestError(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	f.api.On("GetVoucherDetails", mock.Anything, "S0001", "V1").Return(monthly("V1", 5000, 0), nil)
	f.api.On("SubmitPartialPayment", mock.Anything, mock.Anything).
		Return(apiclient.MutationResult{}, &apiclient.RequestError{Status: 500, Message: "Database unavailable"})

	_, err := f.svc.RecordPartialPayment(ctx, PartialPaymentInput{StudentID: "S0001", VoucherNumber: "V1", Amount: rs(100)})

	require.Error(t, err)
	snap := f.svc.Store().Snapshot()
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, state.LevelError, snap.Notifications[0].Level)
	assert.Equal(t, "Database unavailable", snap.Notifications[0].Message)
	assert.Empty(t, snap.InFlight)
	assert.Zero(t, f.guard.Size())
	f.api.AssertNotCalled(t, "GetStudentFeeSummary", mock.Anything, mock.Anything)
}

func TestMarkFullyPaid_AuditLogsShortfall(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	f.api.On("GetVoucherDetails", mock.Anything, "S0001", "V1").Return(monthly("V1", 5000, 2000), nil)
	f.api.On("MarkPaid", mock.Anything, "S0001", "V1").Return(nil)
	f.api.On("GetStudentFeeSummary", mock.Anything, "S0001").Return(summaryWith(monthly("V1", 5000, 5000)), nil)

	res, err := f.svc.MarkFullyPaid(ctx, "S0001", "V1")
	require.NoError(t, err)

	assert.True(t, res.Decision.Override)
	assert.True(t, res.Decision.Shortfall.Equals(rs(3000)))
	warns := f.logs.FilterMessage("voucher marked paid with outstanding balance").All()
	require.Len(t, warns, 1)
	assert.Equal(t, zapcore.WarnLevel, warns[0].Level)
	assert.Equal(t, "3000", warns[0].ContextMap()["shortfall"])
}

func TestMarkFullyPaid_Enforce(t *testing.T) {
	f := newFixture(t, fee.MarkPaidEnforce)
	ctx := context.Background()
	f.api.On("GetVoucherDetails", mock.Anything, "S0001", "V1").Return(monthly("V1", 5000, 2000), nil)

	_, err := f.svc.MarkFullyPaid(ctx, "S0001", "V1")

	assert.Equal(t, fee.CodeBalanceOutstanding, shared.Code(err))
	f.api.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkFullyPaid_NoShortfallNoWarning(t *testing.T) {
	f := newFixture(t, fee.MarkPaidEnforce)
	ctx := context.Background()
	v := monthly("V1", 5000, 5000)
	v.IsPaid = false
	f.api.On("GetVoucherDetails", mock.Anything, "S0001", "V1").Return(v, nil)
	f.api.On("MarkPaid", mock.Anything, "S0001", "V1").Return(nil)
	f.api.On("GetStudentFeeSummary", mock.Anything, "S0001").Return(summaryWith(monthly("V1", 5000, 5000)), nil)

	res, err := f.svc.MarkFullyPaid(ctx, "S0001", "V1")
	require.NoError(t, err)
	assert.False(t, res.Decision.Override)
	assert.Zero(t, f.logs.FilterMessage("voucher marked paid with outstanding balance").Len())
}

func TestGetStudentSummary_CancelledDoesNotDispatch(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx, cancel := context.WithCancel(context.Background())
	f.api.On("GetStudentFeeSummary", ctx, "S0001").
		Run(func(mock.Arguments) { cancel() }).
		Return(summaryWith(monthly("V1", 100, 0)), nil)

	_, err := f.svc.GetStudentSummary(ctx, "S0001")

	assert.ErrorIs(t, err, context.Canceled)
	snap := f.svc.Store().Snapshot()
	assert.Empty(t, snap.StudentSummaries)
	assert.Empty(t, snap.Notifications)
}

func TestGetStudentSummary_LogsLedgerMismatch(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	v := monthly("V1", 5000, 3000)
	v.PartialPayments = []fee.PartialPayment{{Amount: rs(1000), Date: testNow}}
	f.api.On("GetStudentFeeSummary", mock.Anything, "S0001").Return(summaryWith(v), nil)

	_, err := f.svc.GetStudentSummary(ctx, "S0001")
	require.NoError(t, err)
	assert.Equal(t, 1, f.logs.FilterMessage("voucher ledger does not match paid amount").Len())
}

func TestGenerateVoucher_ValidatesLocally(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()

	tests := []struct {
		name string
		in   GenerateVoucherInput
		err  error
	}{
		{"zero amount", GenerateVoucherInput{StudentID: "S0001", FeeType: fee.FeeTypeMonthly, Month: 3, Year: 2025}, fee.ErrInvalidAmount},
		{"bad month", GenerateVoucherInput{StudentID: "S0001", FeeType: fee.FeeTypeMonthly, Amount: rs(100), Month: 13, Year: 2025}, fee.ErrInvalidPeriod},
		{"no breakdown", GenerateVoucherInput{StudentID: "S0001", FeeType: fee.FeeTypeAdmission}, fee.ErrAdmissionFeeRequired},
		{"monthly fee without period", GenerateVoucherInput{StudentID: "S0001", FeeType: fee.FeeTypeAdmission, Breakdown: &fee.AdmissionBreakdown{
			AdmissionFee: rs(5000), MonthlyFee: rs(2000),
		}}, fee.ErrMissingMonthlyPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.GenerateVoucher(ctx, tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}
	f.api.AssertNotCalled(t, "GenerateVoucher", mock.Anything, mock.Anything)
}

func TestGenerateVoucher_AdmissionTotal(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	b := fee.AdmissionBreakdown{AdmissionFee: rs(5000), AnnualCharges: rs(1000), SecurityCard: rs(500), PaperFund: rs(200)}

	f.api.On("GenerateVoucher", ctx, mock.MatchedBy(func(req apiclient.GenerateVoucherRequest) bool {
		return req.FeeType == "admission" && req.Amount.Equals(rs(6700))
	})).Return(fee.Voucher{}, nil)
	f.api.On("GetStudentFeeSummary", mock.Anything, "S0001").Return(summaryWith(), nil)

	_, err := f.svc.GenerateVoucher(ctx, GenerateVoucherInput{StudentID: "S0001", FeeType: fee.FeeTypeAdmission, Breakdown: &b})
	require.NoError(t, err)
	f.api.AssertExpectations(t)
}

func TestGenerateBulkMonthly_RefreshesClass(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	period := valueobject.Period{Month: 3, Year: 2025}

	f.api.On("GenerateBulkMonthly", ctx, "c1", period, rs(2500)).Return(apiclient.MutationResult{Success: true, Count: 30}, nil)
	f.api.On("GetClassFeeSummary", ctx, "c1", period).Return(fee.ClassSummary{ClassName: "5 - A", TotalStudents: 30}, nil)

	res, err := f.svc.GenerateBulkMonthly(ctx, "c1", 3, 2025, rs(2500))
	require.NoError(t, err)
	assert.Equal(t, 30, res.Count)
	assert.Equal(t, "Generated 30 vouchers", res.Message)

	snap := f.svc.Store().Snapshot()
	require.NotNil(t, snap.ClassSummary)
	assert.Equal(t, 30, snap.ClassSummary.TotalStudents)
}

func TestGenerateBulkAdmission_UsesCurrentPeriod(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	b := fee.AdmissionBreakdown{AdmissionFee: rs(5000)}

	f.api.On("GenerateBulkAdmission", ctx, "c1", b).Return(apiclient.MutationResult{Success: true, Message: "Created 12 vouchers", Count: 12}, nil)
	f.api.On("GetClassFeeSummary", ctx, "c1", valueobject.Period{Month: 3, Year: 2025}).Return(fee.ClassSummary{}, nil)

	res, err := f.svc.GenerateBulkAdmission(ctx, "c1", b)
	require.NoError(t, err)
	assert.Equal(t, "Created 12 vouchers", res.Message)

	_, err = f.svc.GenerateBulkAdmission(ctx, "c1", fee.AdmissionBreakdown{})
	assert.ErrorIs(t, err, fee.ErrAdmissionFeeRequired)
}

func TestEditAndDelete(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	period := valueobject.Period{Month: 4, Year: 2025}
	b := fee.AdmissionBreakdown{AdmissionFee: rs(4000), PaperFund: rs(100)}

	f.api.On("GetVoucherDetails", ctx, "S0001", "V1").Return(monthly("V1", 2500, 1000), nil)
	f.api.On("GetVoucherDetails", ctx, "S0001", "A1").Return(fee.Voucher{VoucherNumber: "A1", FeeType: fee.FeeTypeAdmission, Amount: rs(4500), PaidAmount: rs(4100)}, nil)
	f.api.On("EditMonthly", ctx, "S0001", "V1", rs(3000), period).Return(nil)
	f.api.On("EditAdmission", ctx, "S0001", "A1", b, rs(4100)).Return(nil)
	f.api.On("DeleteVoucher", ctx, "S0001", "V1").Return(nil)
	f.api.On("GetStudentFeeSummary", mock.Anything, "S0001").Return(summaryWith(), nil)

	_, err := f.svc.EditMonthly(ctx, "S0001", "V1", rs(3000), 4, 2025)
	require.NoError(t, err)
	_, err = f.svc.EditAdmission(ctx, "S0001", "A1", b)
	require.NoError(t, err)
	_, err = f.svc.DeleteVoucher(ctx, "S0001", "V1")
	require.NoError(t, err)

	f.api.AssertNumberOfCalls(t, "GetStudentFeeSummary", 3)
}

func TestEdit_AmountBelowPaid(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	admission := fee.Voucher{VoucherNumber: "A1", StudentID: "S0001", FeeType: fee.FeeTypeAdmission, Amount: rs(6000), PaidAmount: rs(5000)}
	f.api.On("GetVoucherDetails", ctx, "S0001", "V1").Return(monthly("V1", 5000, 4000), nil)
	f.api.On("GetVoucherDetails", ctx, "S0001", "A1").Return(admission, nil)

	_, err := f.svc.EditMonthly(ctx, "S0001", "V1", rs(1000), 3, 2025)
	assert.ErrorIs(t, err, fee.ErrAmountBelowPaid)
	assert.True(t, shared.IsValidation(err))

	_, err = f.svc.EditAdmission(ctx, "S0001", "A1", fee.AdmissionBreakdown{AdmissionFee: rs(3000), PaperFund: rs(500)})
	assert.ErrorIs(t, err, fee.ErrAmountBelowPaid)

	f.api.AssertNotCalled(t, "EditMonthly", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.api.AssertNotCalled(t, "EditAdmission", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.svc.Store().Snapshot().Notifications)
	assert.Zero(t, f.guard.Size())
}

func TestEdit_WaitsForPaymentInFlight(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	_, ok, err := f.guard.Acquire(ctx, cache.VoucherKey("S0001", "V1"), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.EditMonthly(ctx, "S0001", "V1", rs(1000), 3, 2025)

	assert.ErrorIs(t, err, ErrPaymentInFlight)
	f.api.AssertNotCalled(t, "GetVoucherDetails", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetClassSummary_NotFound(t *testing.T) {
	f := newFixture(t, fee.MarkPaidAudit)
	ctx := context.Background()
	period := valueobject.Period{Month: 3, Year: 2025}
	f.api.On("GetClassFeeSummary", ctx, "missing", period).Return(fee.ClassSummary{}, &apiclient.NotFoundError{RequestError: apiclient.RequestError{Status: 404}})

	_, err := f.svc.GetClassSummary(ctx, "missing", 3, 2025)

	assert.True(t, apiclient.IsNotFound(err))
	assert.Len(t, f.svc.Store().Snapshot().Notifications, 1)
}
