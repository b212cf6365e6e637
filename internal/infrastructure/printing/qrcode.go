package printing

import (
	"encoding/base64"
	"html/template"

	qrcode "github.com/skip2/go-qrcode"
)

// QRSize is the pixel size of generated codes
const QRSize = 256

// QRDataURL encodes text as a PNG QR code data URL usable in an img src
func QRDataURL(text string) (template.URL, error) {
	if text == "" {
		return "", NewRenderError(ErrCodeQRFailed, "QR content is empty", nil)
	}
	png, err := qrcode.Encode(text, qrcode.Medium, QRSize)
	if err != nil {
		return "", NewRenderError(ErrCodeQRFailed, "failed to encode QR code", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}
