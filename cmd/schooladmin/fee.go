package main

import (
	"context"
	"time"

	feeapp "github.com/alfalah/schooladmin/internal/application/fee"
	"github.com/alfalah/schooladmin/internal/domain/fee"
)

var feeCommands = map[string]subcommand{
	"summary":   {usage: "<studentId>", run: runFeeSummary},
	"show":      {usage: "<studentId> <voucher>", run: runFeeShow},
	"class":     {usage: "[-month m] [-year y] [-status all|paid|unpaid|partial] [-type monthly|admission] [-q text] <classId>", run: runFeeClass},
	"generate":  {usage: "[-type monthly|admission] [-amount n -month m -year y | admission flags] <studentId>", run: runFeeGenerate},
	"bulk":      {usage: "-class <id> [-amount n -month m -year y | -admission admission flags]", run: runFeeBulk},
	"edit":      {usage: "[-amount n -month m -year y | admission flags] <studentId> <voucher>", run: runFeeEdit},
	"pay":       {usage: "[-method m] [-received-by name] [-ref no] [-remarks text] [-date YYYY-MM-DD] <studentId> <voucher> <amount>", run: runFeePay},
	"mark-paid": {usage: "<studentId> <voucher>", run: runFeeMarkPaid},
	"delete":    {usage: "<studentId> <voucher>", run: runFeeDelete},
}

func printSummary(a *app, s fee.StudentFeeSummary) error {
	return a.out.result(s, func() {
		a.out.printf("%s (%s)  roll %s  class %s\n", s.Student.Name, s.Student.StudentID, s.Student.RollNumber, s.Student.Class.Label())
		a.out.printf("Monthly:   paid %s  pending %s\n", s.Monthly.Paid.Format(), s.Monthly.Pending.Format())
		a.out.printf("Admission: paid %s  pending %s\n", s.Admission.Paid.Format(), s.Admission.Pending.Format())
		a.out.printf("Overall:   total %s  paid %s  pending %s\n\n", s.Overall.TotalFees.Format(), s.Overall.PaidFees.Format(), s.Overall.PendingFees.Format())
		a.out.vouchers(s.Vouchers())
	})
}

func runFeeSummary(ctx context.Context, a *app, args []string) error {
	pos, err := parseArgs(newFlagSet("fee summary"), args, 1)
	if err != nil {
		return err
	}
	s, err := a.fees.GetStudentSummary(ctx, pos[0])
	if err != nil {
		return err
	}
	return printSummary(a, s)
}

func runFeeShow(ctx context.Context, a *app, args []string) error {
	pos, err := parseArgs(newFlagSet("fee show"), args, 2)
	if err != nil {
		return err
	}
	v, err := a.fees.GetVoucherDetails(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	return a.out.result(v, func() {
		a.out.vouchers([]fee.Voucher{v})
		items := fee.LineItems(v)
		if len(items) > 0 {
			a.out.printf("\n")
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				rows = append(rows, []string{it.Label, it.Amount.Format()})
			}
			a.out.table([]string{"ITEM", "AMOUNT"}, rows)
		}
		if len(v.PartialPayments) > 0 {
			a.out.printf("\n")
			rows := make([][]string, 0, len(v.PartialPayments))
			for _, p := range v.PartialPayments {
				rows = append(rows, []string{p.Date.Format(time.DateOnly), p.Amount.Format(), string(p.PaymentMethod), p.ReceivedBy, p.ReferenceNumber})
			}
			a.out.table([]string{"DATE", "AMOUNT", "METHOD", "RECEIVED BY", "REFERENCE"}, rows)
		}
		check := fee.ReconcileLedger(v)
		if !check.Consistent {
			a.out.printf("\nLedger mismatch: payments sum to %s, voucher shows %s paid\n", check.LedgerTotal.Format(), v.PaidAmount.Format())
		}
	})
}

func runFeeClass(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("fee class")
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
	cs.Vouchers = fee.FilterVouchers(cs.Vouchers, filter)
	return a.out.result(cs, func() {
		a.out.printf("%s  %s  collection %d%%\n", cs.ClassName, filter.Period, cs.CollectionRate())
		a.out.printf("Students: %d total, %d paid, %d pending\n", cs.TotalStudents, cs.PaidStudents, cs.PendingStudents)
		a.out.printf("Fees:     %s total, %s paid, %s pending\n\n", cs.TotalFees.Format(), cs.PaidFees.Format(), cs.PendingFees.Format())
		a.out.vouchers(cs.Vouchers)
	})
}

func classFilter(month, year int, status, kind, query string) (fee.VoucherFilter, error) {
	period, err := fee.ValidatePeriod(month, year)
	if err != nil {
		return fee.VoucherFilter{}, err
	}
	sf, err := fee.ParseStatusFilter(status)
	if err != nil {
		return fee.VoucherFilter{}, err
	}
	ft, err := parseFeeType(kind, true)
	if err != nil {
		return fee.VoucherFilter{}, err
	}
	return fee.VoucherFilter{Period: period, Status: sf, Kind: ft, Query: query}, nil
}

func parseFeeType(s string, allowEmpty bool) (fee.FeeType, error) {
	switch ft := fee.FeeType(s); ft {
	case fee.FeeTypeMonthly, fee.FeeTypeAdmission:
		return ft, nil
	case "":
		if allowEmpty {
			return "", nil
		}
	}
	return "", fee.ErrInvalidFeeType
}

func runFeeGenerate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("fee generate")
	kind := fs.String("type", string(fee.FeeTypeMonthly), "monthly or admission")
	var amount moneyFlag
	fs.Var(&amount, "amount", "Monthly fee amount")
	month, year := periodFlags(fs, time.Now())
	adm := bindAdmission(fs)
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	ft, err := parseFeeType(*kind, false)
	if err != nil {
		return err
	}

	in := feeapp.GenerateVoucherInput{StudentID: pos[0], FeeType: ft}
	if ft == fee.FeeTypeAdmission {
		b := adm.breakdown()
		in.Breakdown = &b
	} else {
		in.Amount, in.Month, in.Year = amount.m, *month, *year
	}
	s, err := a.fees.GenerateVoucher(ctx, in)
	if err != nil {
		return err
	}
	return printSummary(a, s)
}

func runFeeBulk(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("fee bulk")
	classID := fs.String("class", "", "Class id")
	admission := fs.Bool("admission", false, "Generate admission vouchers")
	var amount moneyFlag
	fs.Var(&amount, "amount", "Monthly fee amount")
	month, year := periodFlags(fs, time.Now())
	adm := bindAdmission(fs)
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	if *classID == "" {
		return errUsage
	}

	var res feeapp.BulkResult
	var err error
	if *admission {
		res, err = a.fees.GenerateBulkAdmission(ctx, *classID, adm.breakdown())
	} else {
		res, err = a.fees.GenerateBulkMonthly(ctx, *classID, *month, *year, amount.m)
	}
	if err != nil {
		return err
	}
	return a.out.result(res, func() {
		a.out.printf("%s (%d vouchers)\n", res.Message, res.Count)
	})
}

func runFeeEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("fee edit")
	var amount moneyFlag
	fs.Var(&amount, "amount", "New monthly fee amount")
	month, year := periodFlags(fs, time.Now())
	adm := bindAdmission(fs)
	pos, err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}

	var s fee.StudentFeeSummary
	if adm.any() {
		s, err = a.fees.EditAdmission(ctx, pos[0], pos[1], adm.breakdown())
	} else {
		s, err = a.fees.EditMonthly(ctx, pos[0], pos[1], amount.m, *month, *year)
	}
	if err != nil {
		return err
	}
	return printSummary(a, s)
}

func runFeePay(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("fee pay")
	method := fs.String("method", string(fee.PaymentMethodCash), "Cash, Bank Transfer, Cheque, Online Payment or Other")
	receivedBy := fs.String("received-by", "", "Who received the payment")
	ref := fs.String("ref", "", "Reference number")
	remarks := fs.String("remarks", "", "Remarks")
	date := fs.String("date", "", "Payment date, default today")
	pos, err := parseArgs(fs, args, 3)
	if err != nil {
		return err
	}
	amount, err := parseMoney(pos[2])
	if err != nil {
		return err
	}

	meta := fee.PaymentMeta{
		ReceivedBy:      *receivedBy,
		PaymentMethod:   fee.PaymentMethod(*method),
		ReferenceNumber: *ref,
		Remarks:         *remarks,
	}
	if *receivedBy == "" {
		if sess := a.auth.Current(); sess.Active() {
			meta.ReceivedBy = sess.User.FullName()
		}
	}
	if *date != "" {
		if meta.Date, err = parseDate(*date); err != nil {
			return err
		}
	}

	s, err := a.fees.RecordPartialPayment(ctx, feeapp.PartialPaymentInput{
		StudentID:     pos[0],
		VoucherNumber: pos[1],
		Amount:        amount,
		Meta:          meta,
	})
	if err != nil {
		return err
	}
	return printSummary(a, s)
}

func runFeeMarkPaid(ctx context.Context, a *app, args []string) error {
	pos, err := parseArgs(newFlagSet("fee mark-paid"), args, 2)
	if err != nil {
		return err
	}
	res, err := a.fees.MarkFullyPaid(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	if res.Decision.Override && !a.out.json {
		a.out.printf("Marked paid with %s outstanding\n\n", res.Decision.Shortfall.Format())
	}
	return printSummary(a, res.Summary)
}

func runFeeDelete(ctx context.Context, a *app, args []string) error {
	pos, err := parseArgs(newFlagSet("fee delete"), args, 2)
	if err != nil {
		return err
	}
	s, err := a.fees.DeleteVoucher(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	return printSummary(a, s)
}
