package printing

import (
	"testing"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocType(t *testing.T) {
	assert.True(t, DocTypeFeeVoucher.IsValid())
	assert.False(t, DocType("INVOICE").IsValid())
	assert.Equal(t, PaperSizeA5, DocTypeSalarySlip.DefaultPaperSize())
	assert.Equal(t, PaperSizeA4, DocTypeConsolidatedVoucher.DefaultPaperSize())
}

func TestPaperSize_Dimensions(t *testing.T) {
	w, h := PaperSizeA4.Dimensions()
	assert.Equal(t, 210, w)
	assert.Equal(t, 297, h)

	w, h = PaperSizeA5.Dimensions()
	assert.Equal(t, 148, w)
	assert.Equal(t, 210, h)
}

func TestNewMargins(t *testing.T) {
	m, err := NewMargins(5, 10, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, m.Right)

	_, err = NewMargins(-1, 0, 0, 0)
	assert.True(t, shared.IsValidation(err))

	_, err = NewMargins(0, 101, 0, 0)
	assert.Error(t, err)
}

func TestDefaultLayout(t *testing.T) {
	assert.True(t, DefaultLayout(DocTypeClassVouchers).Margins.IsZero())
	assert.Equal(t, DefaultMargins(), DefaultLayout(DocTypeFeeVoucher).Margins)
	assert.Equal(t, OrientationPortrait, DefaultLayout(DocTypeClassRoster).Orientation)
}

func TestPageCount(t *testing.T) {
	tests := map[int]int{0: 0, 1: 1, 2: 1, 3: 2, 4: 2, 31: 16}
	for n, want := range tests {
		assert.Equal(t, want, PageCount(n), "vouchers=%d", n)
	}
}

func TestNewDocument(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	d := NewDocument(DocTypeSalarySlip, "Salary Slip", "salary-slip-st1-2025-03", "<p>slip</p>", 0, now)
	assert.Equal(t, PaperSizeA5, d.PaperSize)
	assert.Equal(t, 1, d.Pages)
	assert.Equal(t, DefaultMargins(), d.Margins)

	bulk := NewDocument(DocTypeClassVouchers, "Class 5 - A", "class-vouchers-c1", "<p/>", 3, now)
	assert.True(t, bulk.Layout().Margins.IsZero())
	assert.Equal(t, 3, bulk.Pages)
}
