package printing

import "github.com/alfalah/schooladmin/internal/domain/printing"

// PDFOutput is a rendered PDF
type PDFOutput struct {
	Data      []byte
	PageCount int
	Filename  string
}

// ArchiveResult is where a printed PDF was stored
type ArchiveResult struct {
	Path string `json:"path"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	// ObjectKey is set when the PDF was also uploaded to object storage
	ObjectKey string `json:"object_key,omitempty"`
}

// DocumentTypeResponse describes a printable document type
type DocumentTypeResponse struct {
	Code      string `json:"code"`
	PaperSize string `json:"paper_size"`
}

// DocumentTypes lists every printable document type
func DocumentTypes() []DocumentTypeResponse {
	types := []printing.DocType{
		printing.DocTypeFeeVoucher,
		printing.DocTypeConsolidatedVoucher,
		printing.DocTypeClassVouchers,
		printing.DocTypeClassRoster,
		printing.DocTypeSalarySlip,
	}
	out := make([]DocumentTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, DocumentTypeResponse{Code: t.String(), PaperSize: t.DefaultPaperSize().String()})
	}
	return out
}
