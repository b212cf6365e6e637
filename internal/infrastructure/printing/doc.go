// Package printing renders school documents: html/template views over
// embedded templates, a chromedp HTML to PDF renderer, file system PDF
// storage and QR codes for attendance cards.
//
//	engine, err := NewTemplateEngine()
//	html, err := engine.Render(printing.DocTypeFeeVoucher, view)
//	pdf, err := renderer.Render(ctx, &RenderRequest{HTML: html, PaperSize: printing.PaperSizeA4})
package printing
