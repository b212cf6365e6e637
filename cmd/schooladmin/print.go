package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	printapp "github.com/alfalah/schooladmin/internal/application/printing"
	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/printing"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

var printCommands = map[string]subcommand{
	"voucher":     {usage: "[-o file] <studentId> <voucher>", run: runPrintVoucher},
	"pending":     {usage: "[-o file] [-year y] <studentId>", run: runPrintPending},
	"class":       {usage: "[-o file] [-month m] [-year y] [-status s] [-type t] [-q text] <classId>", run: runPrintClass},
	"roster":      {usage: "[-o file] <classId>", run: runPrintRoster},
	"salary-slip": {usage: "[-o file] [-month m] [-year y] <staffId>", run: runPrintSalarySlip},
	"types":       {usage: "", run: runPrintTypes},
}

// writeDocument writes doc to path, as a PDF when path ends in .pdf and
// as HTML otherwise. An empty path writes the HTML to stdout.
func writeDocument(ctx context.Context, a *app, doc printing.Document, path string) error {
	if path == "" {
		a.out.printf("%s", doc.HTML)
		return nil
	}
	pdf := strings.EqualFold(filepath.Ext(path), ".pdf")
	printer, err := a.printer(pdf)
	if err != nil {
		return err
	}

	data := []byte(doc.HTML)
	pages := doc.Pages
	if pdf {
		res, err := printer.ToPDF(ctx, doc)
		if err != nil {
			return err
		}
		data, pages = res.Data, res.PageCount
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	return a.out.result(map[string]any{"path": path, "key": doc.Key, "pages": pages}, func() {
		a.out.printf("Wrote %s (%s, %d page(s))\n", path, doc.Title, pages)
	})
}

func runPrintVoucher(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("print voucher")
	out := fs.String("o", "", "Output file (.pdf or .html)")
	pos, err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}
	summary, err := a.fees.GetStudentSummary(ctx, pos[0])
	if err != nil {
		return err
	}
	printer, err := a.printer(false)
	if err != nil {
		return err
	}
	doc, err := printer.RenderVoucher(summary, pos[1])
	if err != nil {
		return err
	}
	return writeDocument(ctx, a, doc, *out)
}

func runPrintPending(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("print pending")
	out := fs.String("o", "", "Output file (.pdf or .html)")
	year := fs.Int("year", time.Now().Year(), "Year of the pending monthly fees")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	summary, err := a.fees.GetStudentSummary(ctx, pos[0])
	if err != nil {
		return err
	}
	printer, err := a.printer(false)
	if err != nil {
		return err
	}
	doc, err := printer.RenderConsolidated(summary, *year)
	if err != nil {
		return err
	}
	return writeDocument(ctx, a, doc, *out)
}

func runPrintClass(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("print class")
	out := fs.String("o", "", "Output file (.pdf or .html)")
	month, year := periodFlags(fs, time.Now())
	status := fs.String("status", "all", "Payment status filter")
	kind := fs.String("type", "", "Fee type filter")
	query := fs.String("q", "", "Search by student name, id or voucher")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	filter, err := classFilter(*month, *year, *status, *kind, *query)
	if err != nil {
		return err
	}
	cs, err := a.fees.GetClassSummary(ctx, pos[0], *month, *year)
	if err != nil {
		return err
	}
	printer, err := a.printer(false)
	if err != nil {
		return err
	}
	doc, err := printer.RenderClassVouchers(cs, filter)
	if err != nil {
		return err
	}
	return writeDocument(ctx, a, doc, *out)
}

func runPrintRoster(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("print roster")
	out := fs.String("o", "", "Output file (.pdf or .html)")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	class, err := a.school.Class(ctx, pos[0])
	if err != nil {
		return err
	}
	printer, err := a.printer(false)
	if err != nil {
		return err
	}
	doc, err := printer.RenderClassRoster(class)
	if err != nil {
		return err
	}
	return writeDocument(ctx, a, doc, *out)
}

func runPrintSalarySlip(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("print salary-slip")
	out := fs.String("o", "", "Output file (.pdf or .html)")
	month, year := periodFlags(fs, time.Now())
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	period, err := valueobject.NewPeriod(*month, *year)
	if err != nil {
		return fee.ErrInvalidPeriod
	}
	staff, err := a.school.StaffMember(ctx, pos[0])
	if err != nil {
		return err
	}
	payment, ok := staff.PaymentFor(period)
	if !ok {
		return shared.NewDomainError("SALARY_NOT_PAID", fmt.Sprintf("No salary payment for %s", period))
	}
	printer, err := a.printer(false)
	if err != nil {
		return err
	}
	doc, err := printer.RenderSalarySlip(staff, payment)
	if err != nil {
		return err
	}
	return writeDocument(ctx, a, doc, *out)
}

func runPrintTypes(_ context.Context, a *app, _ []string) error {
	types := printapp.DocumentTypes()
	return a.out.result(types, func() {
		rows := make([][]string, 0, len(types))
		for _, t := range types {
			rows = append(rows, []string{t.Code, t.PaperSize})
		}
		a.out.table([]string{"TYPE", "PAPER"}, rows)
	})
}
