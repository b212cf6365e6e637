package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

// errUsage makes run print the usage line of the command
var errUsage = errors.New("usage")

type command struct {
	summary string
	usage   string
	// auth commands need a signed-in operator
	auth bool
	run  func(ctx context.Context, a *app, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":      {summary: "Sign in and keep the session", usage: "-email <email> [-password <password>]", run: runLogin},
		"register":   {summary: "Create an account and sign in", usage: "-first <name> -last <name> -email <email> -password <password>", run: runRegister},
		"logout":     {summary: "Clear the saved session", run: runLogout},
		"whoami":     {summary: "Show the signed-in operator", run: runWhoami},
		"password":   {summary: "Change your password", usage: "-current <pw> -new <pw> -confirm <pw>", auth: true, run: runPassword},
		"users":      {summary: "List, create or delete accounts", usage: "list | create <flags> | delete <id>", auth: true, run: group("users", userCommands)},
		"fee":        {summary: "Fee vouchers and payments", usage: "<subcommand> [arguments]", auth: true, run: group("fee", feeCommands)},
		"attendance": {summary: "Mark and review attendance", usage: "scan <id> | today | history <id>", auth: true, run: group("attendance", attendanceCommands)},
		"dashboard":  {summary: "Collection and attendance overview", usage: "[-from YYYY-MM-DD] [-to YYYY-MM-DD]", auth: true, run: runDashboard},
		"students":   {summary: "Students", usage: "list [-q text] | show <id> | add <flags> | delete <id>", auth: true, run: group("students", studentCommands)},
		"classes":    {summary: "Classes", usage: "list | show <id> | add <flags> | delete <id>", auth: true, run: group("classes", classCommands)},
		"staff":      {summary: "Staff and salaries", usage: "list | show <id> | add <flags> | delete <id> | pay <id>", auth: true, run: group("staff", staffCommands)},
		"print":      {summary: "Print vouchers, rosters and salary slips", usage: "<document> [-o file.pdf|file.html] [arguments]", auth: true, run: group("print", printCommands)},
		"ask":        {summary: "Ask the school assistant a question", usage: "<message>", auth: true, run: runAsk},
	}
}

type subcommand struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

// group dispatches to the named subcommand
func group(name string, subs map[string]subcommand) func(context.Context, *app, []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		if len(args) == 0 || args[0] == "help" || args[0] == "-h" {
			names := make([]string, 0, len(subs))
			for n := range subs {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				a.out.printf("  schooladmin %s %s %s\n", name, n, subs[n].usage)
			}
			if len(args) == 0 {
				return errUsage
			}
			return nil
		}
		sub, ok := subs[args[0]]
		if !ok {
			return fmt.Errorf("unknown %s subcommand %q", name, args[0])
		}
		return sub.run(ctx, a, args[1:])
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseArgs parses flags and requires exactly n positional arguments
func parseArgs(fs *flag.FlagSet, args []string, n int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, errUsage
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != n {
		return nil, errUsage
	}
	return fs.Args(), nil
}

// moneyFlag is a flag.Value holding a rupee amount
type moneyFlag struct {
	m   valueobject.Money
	set bool
}

func (f *moneyFlag) String() string {
	if !f.set {
		return ""
	}
	return f.m.String()
}

func (f *moneyFlag) Set(s string) error {
	m, err := parseMoney(s)
	if err != nil {
		return err
	}
	f.m, f.set = m, true
	return nil
}

func parseMoney(s string) (valueobject.Money, error) {
	m, err := valueobject.NewMoneyFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return valueobject.Money{}, fmt.Errorf("invalid amount %q", s)
	}
	return m, nil
}

// admissionFlags binds the admission breakdown lines
type admissionFlags struct {
	admission, annual, security, paper, other, monthly moneyFlag
	month, year                                        int
}

func bindAdmission(fs *flag.FlagSet) *admissionFlags {
	af := &admissionFlags{}
	fs.Var(&af.admission, "admission-fee", "Admission fee")
	fs.Var(&af.annual, "annual", "Annual charges")
	fs.Var(&af.security, "security", "Security card")
	fs.Var(&af.paper, "paper", "Paper fund")
	fs.Var(&af.other, "other", "Other dues")
	fs.Var(&af.monthly, "monthly-fee", "Monthly fee billed with admission")
	fs.IntVar(&af.month, "monthly-month", 0, "Month of the included monthly fee")
	fs.IntVar(&af.year, "monthly-year", 0, "Year of the included monthly fee")
	return af
}

func (af *admissionFlags) any() bool {
	return af.admission.set || af.annual.set || af.security.set || af.paper.set || af.other.set || af.monthly.set
}

func (af *admissionFlags) breakdown() fee.AdmissionBreakdown {
	b := fee.AdmissionBreakdown{
		AdmissionFee:  af.admission.m,
		AnnualCharges: af.annual.m,
		SecurityCard:  af.security.m,
		PaperFund:     af.paper.m,
		OtherDues:     af.other.m,
		MonthlyFee:    af.monthly.m,
	}
	if af.month != 0 {
		month := af.month
		b.MonthlyFeeMonth = &month
	}
	if af.year != 0 {
		year := af.year
		b.MonthlyFeeYear = &year
	}
	return b
}

// periodFlags defaults month and year to the current month
func periodFlags(fs *flag.FlagSet, now time.Time) (month, year *int) {
	return fs.Int("month", int(now.Month()), "Month (1-12)"),
		fs.Int("year", now.Year(), "Year")
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
