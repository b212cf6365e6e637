package printing

// DocType represents the kind of document that can be printed
type DocType string

const (
	DocTypeFeeVoucher          DocType = "FEE_VOUCHER"          // single monthly or admission voucher
	DocTypeConsolidatedVoucher DocType = "CONSOLIDATED_VOUCHER" // all pending vouchers of one student
	DocTypeClassVouchers       DocType = "CLASS_VOUCHERS"       // bulk class print, two per page
	DocTypeClassRoster         DocType = "CLASS_ROSTER"
	DocTypeSalarySlip          DocType = "SALARY_SLIP"
)

// IsValid checks if the DocType is a valid value
func (d DocType) IsValid() bool {
	switch d {
	case DocTypeFeeVoucher, DocTypeConsolidatedVoucher, DocTypeClassVouchers,
		DocTypeClassRoster, DocTypeSalarySlip:
		return true
	}
	return false
}

func (d DocType) String() string {
	return string(d)
}

// DefaultPaperSize returns the paper a document type is printed on
func (d DocType) DefaultPaperSize() PaperSize {
	if d == DocTypeSalarySlip {
		return PaperSizeA5
	}
	return PaperSizeA4
}

// PaperSize represents a supported paper size
type PaperSize string

const (
	PaperSizeA4 PaperSize = "A4" // 210mm x 297mm
	PaperSizeA5 PaperSize = "A5" // 148mm x 210mm
)

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	return p == PaperSizeA4 || p == PaperSizeA5
}

func (p PaperSize) String() string {
	return string(p)
}

// Dimensions returns the paper dimensions in millimeters (width, height)
func (p PaperSize) Dimensions() (width, height int) {
	if p == PaperSizeA5 {
		return 148, 210
	}
	return 210, 297
}

// Orientation represents the page orientation for printing
type Orientation string

const (
	OrientationPortrait  Orientation = "PORTRAIT"
	OrientationLandscape Orientation = "LANDSCAPE"
)

// IsValid checks if the Orientation is a valid value
func (o Orientation) IsValid() bool {
	return o == OrientationPortrait || o == OrientationLandscape
}

func (o Orientation) String() string {
	return string(o)
}

// Watermark is the stamp printed across a voucher
type Watermark string

const (
	WatermarkNone    Watermark = ""
	WatermarkPaid    Watermark = "PAID"
	WatermarkPartial Watermark = "PARTIAL"
)
