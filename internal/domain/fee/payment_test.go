package fee

import (
	"errors"
	"testing"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.March, 20, 10, 0, 0, 0, time.UTC)

// ==================== ClassifyStatus ====================

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name    string
		voucher Voucher
		want    PaymentStatus
	}{
		{"unpaid", createTestMonthly("V1", 5000, 0, 3, 2025), StatusUnpaid},
		{"partial", createTestMonthly("V1", 5000, 2000, 3, 2025), StatusPartiallyPaid},
		{"paid", createTestMonthly("V1", 5000, 5000, 3, 2025), StatusFullyPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.voucher))
			assert.Equal(t, ClassifyStatus(tt.voucher), ClassifyStatus(tt.voucher))
		})
	}

	t.Run("isPaid wins over paid amount", func(t *testing.T) {
		v := createTestMonthly("V1", 5000, 0, 3, 2025)
		v.IsPaid = true
		assert.Equal(t, StatusFullyPaid, ClassifyStatus(v))
	})
}

// ==================== RecordPartialPayment ====================

func TestRecordPartialPayment(t *testing.T) {
	v := createTestMonthly("V1", 5000, 2000, 3, 2025)

	t.Run("builds request with defaults", func(t *testing.T) {
		req, err := RecordPartialPayment(v, rs(1000), PaymentMeta{}, testNow)
		require.NoError(t, err)
		assert.Equal(t, "V1", req.VoucherNumber)
		assert.Equal(t, "10001", req.StudentID)
		assert.Equal(t, DefaultReceivedBy, req.Payment.ReceivedBy)
		assert.Equal(t, PaymentMethodCash, req.Payment.PaymentMethod)
		assert.Equal(t, testNow, req.Payment.Date)
	})

	t.Run("keeps metadata", func(t *testing.T) {
		date := testNow.AddDate(0, 0, -1)
		req, err := RecordPartialPayment(v, rs(3000), PaymentMeta{
			ReceivedBy:      " Bilal ",
			PaymentMethod:   PaymentMethodCheque,
			ReferenceNumber: "CHQ-778",
			Remarks:         "final installment",
			Date:            date,
		}, testNow)
		require.NoError(t, err)
		assert.Equal(t, "Bilal", req.Payment.ReceivedBy)
		assert.Equal(t, PaymentMethodCheque, req.Payment.PaymentMethod)
		assert.Equal(t, "CHQ-778", req.Payment.ReferenceNumber)
		assert.Equal(t, date, req.Payment.Date)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := RecordPartialPayment(v, rs(0), PaymentMeta{}, testNow)
		assert.True(t, errors.Is(err, ErrAmountNotPositive))
		_, err = RecordPartialPayment(v, rs(-5), PaymentMeta{}, testNow)
		assert.True(t, errors.Is(err, ErrAmountNotPositive))
	})

	t.Run("rejects amounts above remaining and leaves voucher untouched", func(t *testing.T) {
		_, err := RecordPartialPayment(v, rs(3001), PaymentMeta{}, testNow)
		assert.True(t, errors.Is(err, ErrAmountExceedsRemaining))
		assert.True(t, shared.IsValidation(err))
		assert.True(t, v.PaidAmount.Equals(rs(2000)))
		assert.Empty(t, v.PartialPayments)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := RecordPartialPayment(v, rs(100), PaymentMeta{PaymentMethod: "Barter"}, testNow)
		assert.Equal(t, CodeInvalidPaymentMethod, shared.Code(err))
	})
}

func TestPartialPaymentScenario(t *testing.T) {
	v := createTestMonthly("V-2025-03", 5000, 0, 3, 2025)
	require.Equal(t, StatusUnpaid, ClassifyStatus(v))

	req, err := RecordPartialPayment(v, rs(2000), PaymentMeta{}, testNow)
	require.NoError(t, err)
	v, err = ApplyPartialPayment(v, req)
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyPaid, ClassifyStatus(v))
	assert.True(t, ComputeRemaining(v).Equals(rs(3000)))

	req, err = RecordPartialPayment(v, rs(3000), PaymentMeta{}, testNow)
	require.NoError(t, err)
	v, err = ApplyPartialPayment(v, req)
	require.NoError(t, err)
	assert.True(t, ComputeRemaining(v).IsZero())
	assert.Equal(t, StatusFullyPaid, ClassifyStatus(v))
	assert.Len(t, v.PartialPayments, 2)
	require.NotNil(t, v.PaymentDate)

	for _, amount := range []int64{1, 100, 5000} {
		_, err = RecordPartialPayment(v, rs(amount), PaymentMeta{}, testNow)
		assert.True(t, errors.Is(err, ErrAmountExceedsRemaining))
	}

	assert.True(t, ReconcileLedger(v).Consistent)
}

func TestApplyPartialPayment_DoesNotAlias(t *testing.T) {
	v := createTestMonthly("V1", 5000, 0, 3, 2025)
	v.PartialPayments = make([]PartialPayment, 0, 4)

	req, err := RecordPartialPayment(v, rs(1000), PaymentMeta{}, testNow)
	require.NoError(t, err)
	next, err := ApplyPartialPayment(v, req)
	require.NoError(t, err)

	assert.Len(t, v.PartialPayments, 0)
	assert.Len(t, next.PartialPayments, 1)
	assert.True(t, v.PaidAmount.IsZero())

	_, err = ApplyPartialPayment(v, PartialPaymentRequest{VoucherNumber: "OTHER", Payment: req.Payment})
	assert.Error(t, err)
}

// ==================== MarkFullyPaid ====================

func TestMarkFullyPaid(t *testing.T) {
	partial := createTestMonthly("V1", 5000, 2000, 3, 2025)

	t.Run("audit allows override and reports shortfall", func(t *testing.T) {
		d, err := MarkFullyPaid(partial, MarkPaidAudit)
		require.NoError(t, err)
		assert.True(t, d.Override)
		assert.True(t, d.Shortfall.Equals(rs(3000)))
	})

	t.Run("enforce rejects outstanding balance", func(t *testing.T) {
		_, err := MarkFullyPaid(partial, MarkPaidEnforce)
		assert.True(t, errors.Is(err, ErrBalanceOutstanding))
	})

	t.Run("enforce accepts settled balance", func(t *testing.T) {
		settled := partial
		settled.PaidAmount = rs(5000)
		d, err := MarkFullyPaid(settled, MarkPaidEnforce)
		require.NoError(t, err)
		assert.False(t, d.Override)
	})

	t.Run("already paid", func(t *testing.T) {
		_, err := MarkFullyPaid(createTestMonthly("V1", 5000, 5000, 3, 2025), MarkPaidAudit)
		assert.True(t, errors.Is(err, ErrAlreadyPaid))
	})
}

func TestParseMarkPaidPolicy(t *testing.T) {
	p, err := ParseMarkPaidPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MarkPaidAudit, p)

	p, err = ParseMarkPaidPolicy("ENFORCE")
	require.NoError(t, err)
	assert.Equal(t, MarkPaidEnforce, p)

	_, err = ParseMarkPaidPolicy("lenient")
	assert.Error(t, err)
}
