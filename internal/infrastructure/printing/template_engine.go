package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"maps"
	"strings"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/printing"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

// NotFoundTemplate is the placeholder document for a missing voucher
const NotFoundTemplate = "not_found.html"

var templateNames = map[printing.DocType]string{
	printing.DocTypeFeeVoucher:          "fee_voucher.html",
	printing.DocTypeConsolidatedVoucher: "consolidated_voucher.html",
	printing.DocTypeClassVouchers:       "class_vouchers.html",
	printing.DocTypeClassRoster:         "class_roster.html",
	printing.DocTypeSalarySlip:          "salary_slip.html",
}

// TemplateEngine renders the embedded document templates
type TemplateEngine struct {
	funcMap   template.FuncMap
	templates *template.Template
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithFuncs adds or overrides template functions
func WithFuncs(funcs template.FuncMap) TemplateEngineOption {
	return func(e *TemplateEngine) {
		maps.Copy(e.funcMap, funcs)
	}
}

// NewTemplateEngine parses the embedded templates
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{}
	e.funcMap = template.FuncMap{
		"formatMoney":    formatMoney,
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"monthName":      monthName,
		"title":          titleCase,
		"upper":          strings.ToUpper,
		"inc":            func(i int) int { return i + 1 },
		"default":        defaultString,
	}
	for _, opt := range opts {
		opt(e)
	}

	tmpl, err := template.New("documents").Funcs(e.funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse templates", err)
	}
	e.templates = tmpl
	return e, nil
}

// Render executes the template of docType with data
func (e *TemplateEngine) Render(docType printing.DocType, data any) (string, error) {
	name, ok := templateNames[docType]
	if !ok {
		return "", NewRenderError(ErrCodeInvalidHTML, "no template for document type "+docType.String(), nil)
	}
	return e.RenderNamed(name, data)
}

// RenderNamed executes a template by file name
func (e *TemplateEngine) RenderNamed(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template "+name, err)
	}
	return buf.String(), nil
}

// GetFuncMap returns a copy of the template function map
func (e *TemplateEngine) GetFuncMap() template.FuncMap {
	funcMap := make(template.FuncMap, len(e.funcMap))
	maps.Copy(funcMap, e.funcMap)
	return funcMap
}

// formatMoney formats an amount as "Rs. 1,234"
func formatMoney(v any) string {
	return valueobject.NewMoney(toDecimal(v)).Format()
}

// formatDate formats as DD/MM/YYYY; zero times print as "-"
func formatDate(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

func formatDateTime(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006 15:04")
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func defaultString(def, s string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case valueobject.Money:
		return val.Amount()
	case *valueobject.Money:
		if val == nil {
			return decimal.Zero
		}
		return val.Amount()
	case decimal.Decimal:
		return val
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		d, err := decimal.NewFromString(fmt.Sprint(v))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
}

func toTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val == nil {
			return time.Time{}
		}
		return *val
	default:
		return time.Time{}
	}
}
