package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/alfalah/schooladmin/internal/application/assistant"
	"github.com/alfalah/schooladmin/internal/application/state"
	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
	"github.com/alfalah/schooladmin/internal/infrastructure/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	m, err := parseMoney(" 2,500 ")
	require.NoError(t, err)
	assert.True(t, m.Equals(valueobject.NewMoneyFromInt(2500)))

	_, err = parseMoney("abc")
	assert.Error(t, err)
}

func TestMoneyFlag(t *testing.T) {
	fs := newFlagSet("test")
	var amount moneyFlag
	fs.Var(&amount, "amount", "")

	require.NoError(t, fs.Parse([]string{"-amount", "1500.50"}))
	assert.True(t, amount.set)
	assert.Equal(t, "1500.5", amount.String())

	bad := newFlagSet("test")
	bad.Var(&moneyFlag{}, "amount", "")
	assert.Error(t, bad.Parse([]string{"-amount", "x"}))
}

func TestParseArgs(t *testing.T) {
	fs := newFlagSet("fee pay")
	method := fs.String("method", "Cash", "")
	pos, err := parseArgs(fs, []string{"-method", "Cheque", "10001", "V-001", "500"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "Cheque", *method)
	assert.Equal(t, []string{"10001", "V-001", "500"}, pos)

	_, err = parseArgs(newFlagSet("fee pay"), []string{"10001"}, 3)
	assert.ErrorIs(t, err, errUsage)

	_, err = parseArgs(newFlagSet("fee pay"), []string{"-nope"}, 0)
	assert.ErrorIs(t, err, errUsage)
}

func TestAdmissionFlags(t *testing.T) {
	fs := newFlagSet("fee generate")
	af := bindAdmission(fs)
	assert.False(t, af.any())

	require.NoError(t, fs.Parse([]string{
		"-admission-fee", "5000", "-annual", "2000", "-monthly-fee", "2500",
		"-monthly-month", "4", "-monthly-year", "2025",
	}))
	assert.True(t, af.any())

	b := af.breakdown()
	assert.True(t, b.AdmissionFee.Equals(valueobject.NewMoneyFromInt(5000)))
	assert.True(t, b.AnnualCharges.Equals(valueobject.NewMoneyFromInt(2000)))
	assert.True(t, b.SecurityCard.IsZero())
	require.NotNil(t, b.MonthlyFeeMonth)
	require.NotNil(t, b.MonthlyFeeYear)
	assert.Equal(t, 4, *b.MonthlyFeeMonth)
	assert.Equal(t, 2025, *b.MonthlyFeeYear)

	total, err := fee.ComputeAdmissionTotal(b)
	require.NoError(t, err)
	assert.True(t, total.Equals(valueobject.NewMoneyFromInt(9500)))
}

func TestClassFilter(t *testing.T) {
	f, err := classFilter(3, 2025, "Partial", "monthly", "ali")
	require.NoError(t, err)
	assert.Equal(t, valueobject.Period{Month: 3, Year: 2025}, f.Period)
	assert.Equal(t, fee.FilterPartial, f.Status)
	assert.Equal(t, fee.FeeTypeMonthly, f.Kind)
	assert.Equal(t, "ali", f.Query)

	_, err = classFilter(13, 2025, "all", "", "")
	assert.True(t, shared.IsValidation(err))

	_, err = classFilter(3, 2025, "overdue", "", "")
	assert.Error(t, err)

	_, err = classFilter(3, 2025, "all", "transport", "")
	assert.ErrorIs(t, err, fee.ErrInvalidFeeType)
}

func TestParseFeeType(t *testing.T) {
	ft, err := parseFeeType("admission", false)
	require.NoError(t, err)
	assert.Equal(t, fee.FeeTypeAdmission, ft)

	ft, err = parseFeeType("", true)
	require.NoError(t, err)
	assert.Empty(t, ft)

	_, err = parseFeeType("", false)
	assert.ErrorIs(t, err, fee.ErrInvalidFeeType)
}

func TestDateRange(t *testing.T) {
	r, err := dateRange("2025-03-01", "2025-03-31")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Start.Day())
	assert.Equal(t, 31, r.End.Day())

	_, err = dateRange("2025-03-31", "2025-03-01")
	assert.Error(t, err)

	_, err = dateRange("31/03/2025", "")
	assert.Error(t, err)
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	notify := notifier(&buf)

	ok := state.Notify(state.LevelSuccess, "Payment recorded")
	failed := state.Notify(state.LevelError, "Request failed. Please try again.")
	notify(state.State{Notifications: []state.Notification{ok}})
	notify(state.State{Notifications: []state.Notification{ok, failed}})

	assert.Equal(t, "[success] Payment recorded\n", buf.String())
}

func TestOutput(t *testing.T) {
	period := valueobject.Period{Month: 3, Year: 2025}
	v := fee.Voucher{
		VoucherNumber: "V-001",
		StudentID:     "10001",
		FeeType:       fee.FeeTypeMonthly,
		Amount:        valueobject.NewMoneyFromInt(2500),
		PaidAmount:    valueobject.NewMoneyFromInt(1000),
		Period:        &period,
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		o := newOutput(&buf, false)
		o.vouchers([]fee.Voucher{v})
		assert.Contains(t, buf.String(), "VOUCHER")
		assert.Contains(t, buf.String(), "V-001")
		assert.Contains(t, buf.String(), string(fee.StatusPartiallyPaid))

		buf.Reset()
		o.vouchers(nil)
		assert.Equal(t, "No vouchers\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		o := newOutput(&buf, true)
		called := false
		require.NoError(t, o.result(v, func() { called = true }))
		assert.False(t, called)
		assert.Contains(t, buf.String(), `"voucherNumber": "V-001"`)
	})
}

func TestGroup(t *testing.T) {
	var buf bytes.Buffer
	a := &app{out: newOutput(&buf, false)}
	called := ""
	run := group("fee", map[string]subcommand{
		"summary": {usage: "<studentId>", run: func(_ context.Context, _ *app, args []string) error {
			called = args[0]
			return nil
		}},
	})

	require.NoError(t, run(context.Background(), a, []string{"summary", "10001"}))
	assert.Equal(t, "10001", called)

	err := run(context.Background(), a, nil)
	assert.True(t, errors.Is(err, errUsage))
	assert.Contains(t, buf.String(), "schooladmin fee summary <studentId>")

	assert.Error(t, run(context.Background(), a, []string{"refund"}))
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"launch"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), `unknown command "launch"`)
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"login", "logout", "fee", "attendance", "dashboard", "students", "classes", "staff", "users", "print", "ask"} {
		assert.Contains(t, commands, name)
	}
	for _, name := range []string{"summary", "class", "generate", "bulk", "edit", "pay", "mark-paid", "delete"} {
		assert.Contains(t, feeCommands, name)
	}
	assert.False(t, commands["login"].auth)
	assert.True(t, commands["fee"].auth)
	assert.True(t, commands["ask"].auth)
}

type chatFunc func(ctx context.Context, message string) (string, error)

func (f chatFunc) Chat(ctx context.Context, message string) (string, error) { return f(ctx, message) }

func TestRunAsk(t *testing.T) {
	newAskApp := func(buf *bytes.Buffer, asJSON bool, chat chatFunc) (*app, *state.Store) {
		store := state.NewStore(nil)
		return &app{out: newOutput(buf, asJSON), store: store, assistant: assistant.NewService(chat, store, nil)}, store
	}

	t.Run("words are joined into one message", func(t *testing.T) {
		var buf bytes.Buffer
		var sent string
		a, _ := newAskApp(&buf, false, func(_ context.Context, m string) (string, error) {
			sent = m
			return "Fees are due by the 10th.", nil
		})
		require.NoError(t, runAsk(context.Background(), a, []string{"when", "are", "fees", "due?"}))
		assert.Equal(t, "when are fees due?", sent)
		assert.Equal(t, "Fees are due by the 10th.\n", buf.String())
	})

	t.Run("failure prints the fallback reply and notifies", func(t *testing.T) {
		var buf bytes.Buffer
		a, store := newAskApp(&buf, false, func(context.Context, string) (string, error) {
			return "", &apiclient.RequestError{Status: 502}
		})
		err := runAsk(context.Background(), a, []string{"hello"})
		require.Error(t, err)
		assert.Equal(t, assistant.FallbackReply+"\n", buf.String())
		assert.Len(t, store.Snapshot().Notifications, 1)
	})

	t.Run("json mode encodes the exchange", func(t *testing.T) {
		var buf bytes.Buffer
		a, _ := newAskApp(&buf, true, func(context.Context, string) (string, error) { return "Hi", nil })
		require.NoError(t, runAsk(context.Background(), a, []string{"hello"}))
		assert.Contains(t, buf.String(), `"reply": "Hi"`)
	})

	t.Run("no message is a usage error", func(t *testing.T) {
		var buf bytes.Buffer
		a, _ := newAskApp(&buf, false, nil)
		assert.ErrorIs(t, runAsk(context.Background(), a, nil), errUsage)
	})
}

func withSecretInput(t *testing.T, in io.Reader, terminal bool, read func(int) ([]byte, error)) {
	t.Helper()
	origIn, origTerm, origRead := secretInput, isTerminalFunc, readPasswordFunc
	t.Cleanup(func() {
		secretInput, isTerminalFunc, readPasswordFunc = origIn, origTerm, origRead
		secretLines = nil
	})
	secretInput = in
	secretLines = nil
	isTerminalFunc = func(int) bool { return terminal }
	if read != nil {
		readPasswordFunc = read
	}
}

func TestReadSecret(t *testing.T) {
	t.Run("terminal input is read without echo", func(t *testing.T) {
		var lineReads int
		withSecretInput(t, os.Stdin, true, func(int) ([]byte, error) {
			lineReads++
			return []byte("s3cret"), nil
		})

		secret, err := readSecret("Password: ")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", secret)
		assert.Equal(t, 1, lineReads)
	})

	t.Run("terminal read failure is returned", func(t *testing.T) {
		withSecretInput(t, os.Stdin, true, func(int) ([]byte, error) {
			return nil, errors.New("inappropriate ioctl")
		})

		_, err := readSecret("Password: ")
		assert.ErrorContains(t, err, "inappropriate ioctl")
	})

	t.Run("piped lines are consumed in order", func(t *testing.T) {
		withSecretInput(t, strings.NewReader("old-pass\nnew-pass\r\nnew-pass"), false, func(int) ([]byte, error) {
			t.Fatal("password read on piped input")
			return nil, nil
		})

		var current, next, confirm string
		require.NoError(t, promptSecret(&current, "Current password: "))
		require.NoError(t, promptSecret(&next, "New password: "))
		require.NoError(t, promptSecret(&confirm, "Confirm new password: "))
		assert.Equal(t, "old-pass", current)
		assert.Equal(t, "new-pass", next)
		assert.Equal(t, "new-pass", confirm)
	})

	t.Run("exhausted input is an error", func(t *testing.T) {
		withSecretInput(t, strings.NewReader(""), false, nil)

		_, err := readSecret("Password: ")
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("flag value skips the prompt", func(t *testing.T) {
		withSecretInput(t, strings.NewReader(""), false, nil)

		password := "from-flag"
		require.NoError(t, promptSecret(&password, "Password: "))
		assert.Equal(t, "from-flag", password)
	})
}
