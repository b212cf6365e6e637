package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	identityapp "github.com/alfalah/schooladmin/internal/application/identity"
	"github.com/alfalah/schooladmin/internal/domain/identity"
	"golang.org/x/term"
)

var userCommands = map[string]subcommand{
	"list":   {usage: "", run: runUsersList},
	"create": {usage: "-first <name> -last <name> -email <email> -password <password>", run: runUsersCreate},
	"delete": {usage: "<userId>", run: runUsersDelete},
}

var (
	readPasswordFunc = term.ReadPassword // mockable
	isTerminalFunc   = term.IsTerminal

	secretInput io.Reader = os.Stdin
	secretLines *bufio.Reader
)

// readSecret prompts for a secret without echo when stdin is a terminal and
// reads one line otherwise
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if f, ok := secretInput.(*os.File); ok && isTerminalFunc(int(f.Fd())) {
		secret, err := readPasswordFunc(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(secret), nil
	}

	if secretLines == nil {
		secretLines = bufio.NewReader(secretInput)
	}
	line, err := secretLines.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret fills dst from the prompt when the flag was left empty
func promptSecret(dst *string, prompt string) error {
	if *dst != "" {
		return nil
	}
	secret, err := readSecret(prompt)
	if err != nil {
		return err
	}
	*dst = secret
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Password, prompted when empty")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	if err := promptSecret(password, "Password: "); err != nil {
		return err
	}
	user, err := a.auth.Login(ctx, identityapp.LoginInput{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	return printUser(a, user)
}

func registrationFlags(name string, args []string) (identityapp.RegisterInput, error) {
	fs := newFlagSet(name)
	first := fs.String("first", "", "First name")
	last := fs.String("last", "", "Last name")
	email := fs.String("email", "", "Email")
	password := fs.String("password", "", "Password, prompted when empty")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return identityapp.RegisterInput{}, err
	}
	if err := promptSecret(password, "Password: "); err != nil {
		return identityapp.RegisterInput{}, err
	}
	return identityapp.RegisterInput{FirstName: *first, LastName: *last, Email: *email, Password: *password}, nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	in, err := registrationFlags("register", args)
	if err != nil {
		return err
	}
	user, err := a.auth.Register(ctx, in)
	if err != nil {
		return err
	}
	return printUser(a, user)
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.out.printf("Logged out\n")
	return nil
}

func runWhoami(_ context.Context, a *app, _ []string) error {
	sess := a.auth.Current()
	if !sess.Active() {
		return errNotSignedIn
	}
	return a.out.result(sess, func() {
		a.out.printf("%s <%s>, signed in %s\n", sess.User.FullName(), sess.User.Email, sess.SavedAt.Format("2006-01-02 15:04"))
	})
}

func runPassword(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("password")
	current := fs.String("current", "", "Current password")
	next := fs.String("new", "", "New password")
	confirm := fs.String("confirm", "", "New password again")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	if err := promptSecret(current, "Current password: "); err != nil {
		return err
	}
	if *next == "" {
		if err := promptSecret(next, "New password: "); err != nil {
			return err
		}
		*confirm = ""
		if err := promptSecret(confirm, "Confirm new password: "); err != nil {
			return err
		}
	}
	return a.auth.UpdatePassword(ctx, identityapp.UpdatePasswordInput{
		CurrentPassword: *current,
		NewPassword:     *next,
		ConfirmPassword: *confirm,
	})
}

func printUser(a *app, u identity.User) error {
	return a.out.result(u, func() {
		a.out.printf("%s <%s>\n", u.FullName(), u.Email)
	})
}

func runUsersList(ctx context.Context, a *app, args []string) error {
	if _, err := parseArgs(newFlagSet("users list"), args, 0); err != nil {
		return err
	}
	users, err := a.users.List(ctx)
	if err != nil {
		return err
	}
	return a.out.result(users, func() {
		rows := make([][]string, 0, len(users))
		for _, u := range users {
			rows = append(rows, []string{u.ID, u.FullName(), u.Email, u.Role})
		}
		a.out.table([]string{"ID", "NAME", "EMAIL", "ROLE"}, rows)
	})
}

func runUsersCreate(ctx context.Context, a *app, args []string) error {
	in, err := registrationFlags("users create", args)
	if err != nil {
		return err
	}
	user, err := a.users.Create(ctx, in)
	if err != nil {
		return err
	}
	return printUser(a, user)
}

func runUsersDelete(ctx context.Context, a *app, args []string) error {
	pos, err := parseArgs(newFlagSet("users delete"), args, 1)
	if err != nil {
		return err
	}
	return a.users.Delete(ctx, pos[0])
}
