package printing

import "github.com/alfalah/schooladmin/internal/domain/shared"

// VouchersPerPage is how many vouchers a bulk class print puts on one A4 sheet
const VouchersPerPage = 2

// VoucherSlotHeightMM is the height of one voucher slot on a bulk print page
const VoucherSlotHeightMM = 140

// Margins represents the page margins in millimeters
type Margins struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// NewMargins creates a new Margins value object
func NewMargins(top, right, bottom, left int) (Margins, error) {
	for _, m := range []int{top, right, bottom, left} {
		if m < 0 {
			return Margins{}, shared.NewValidationError("INVALID_MARGINS", "Margins cannot be negative")
		}
		if m > 100 {
			return Margins{}, shared.NewValidationError("INVALID_MARGINS", "Margins cannot exceed 100mm")
		}
	}
	return Margins{Top: top, Right: right, Bottom: bottom, Left: left}, nil
}

// DefaultMargins returns the margins used for single documents
func DefaultMargins() Margins {
	return Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}
}

// BulkMargins returns zero margins; bulk pages position vouchers themselves
func BulkMargins() Margins {
	return Margins{}
}

// IsZero returns true if all margins are zero
func (m Margins) IsZero() bool {
	return m == Margins{}
}

// Layout is the page setup of a document
type Layout struct {
	PaperSize   PaperSize   `json:"paperSize"`
	Orientation Orientation `json:"orientation"`
	Margins     Margins     `json:"margins"`
}

// DefaultLayout returns the portrait layout for a document type
func DefaultLayout(docType DocType) Layout {
	margins := DefaultMargins()
	if docType == DocTypeClassVouchers {
		margins = BulkMargins()
	}
	return Layout{
		PaperSize:   docType.DefaultPaperSize(),
		Orientation: OrientationPortrait,
		Margins:     margins,
	}
}

// PageCount returns the sheets needed to print n vouchers, two per page
func PageCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + VouchersPerPage - 1) / VouchersPerPage
}
