package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alfalah/schooladmin/internal/domain/fee"
)

// output writes command results as aligned tables or as JSON
type output struct {
	w    io.Writer
	json bool
}

func newOutput(w io.Writer, asJSON bool) *output {
	return &output{w: w, json: asJSON}
}

// result prints v as JSON in -json mode and calls text otherwise
func (o *output) result(v any, text func()) error {
	if o.json {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text()
	return nil
}

func (o *output) printf(format string, args ...any) {
	fmt.Fprintf(o.w, format, args...)
}

func (o *output) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

func (o *output) vouchers(vs []fee.Voucher) {
	if len(vs) == 0 {
		o.printf("No vouchers\n")
		return
	}
	rows := make([][]string, 0, len(vs))
	for _, v := range vs {
		period := "-"
		if v.Period != nil {
			period = v.Period.String()
		}
		status := string(fee.ClassifyStatus(v))
		if v.PaidByOverride {
			status += " (override)"
		}
		rows = append(rows, []string{
			v.VoucherNumber, v.StudentID, string(v.FeeType), period,
			v.Amount.Format(), v.PaidAmount.Format(), fee.ComputeRemaining(v).Format(), status,
		})
	}
	o.table([]string{"VOUCHER", "STUDENT", "TYPE", "PERIOD", "AMOUNT", "PAID", "REMAINING", "STATUS"}, rows)
}
