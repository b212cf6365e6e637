package printing

import "time"

// Document is a rendered printable document. It is a value; nothing
// mutates it after rendering.
type Document struct {
	DocType     DocType     `json:"docType"`
	Title       string      `json:"title"`
	HTML        string      `json:"-"`
	PaperSize   PaperSize   `json:"paperSize"`
	Orientation Orientation `json:"orientation"`
	Margins     Margins     `json:"margins"`
	Pages       int         `json:"pages"`
	RenderedAt  time.Time   `json:"renderedAt"`
	// Key names the archived PDF, e.g. fee-voucher-10001-V-001
	Key string `json:"key"`
}

// NewDocument lays out html with the default layout of docType
func NewDocument(docType DocType, title, key, html string, pages int, now time.Time) Document {
	layout := DefaultLayout(docType)
	if pages < 1 {
		pages = 1
	}
	return Document{
		DocType:     docType,
		Title:       title,
		HTML:        html,
		PaperSize:   layout.PaperSize,
		Orientation: layout.Orientation,
		Margins:     layout.Margins,
		Pages:       pages,
		RenderedAt:  now,
		Key:         key,
	}
}

// Layout returns the page setup of the document
func (d Document) Layout() Layout {
	return Layout{PaperSize: d.PaperSize, Orientation: d.Orientation, Margins: d.Margins}
}
