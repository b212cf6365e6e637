// Package main provides the command line client for the school office:
// fee vouchers and payments, attendance, the dashboard, school records,
// accounts and printing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/alfalah/schooladmin/internal/application/state"
)

// Version information (populated at build time)
var (
	version   = "dev"
	buildTime = "unknown"
)

// CLI flags
var (
	configPath  string
	jsonOutput  bool
	verbose     bool
	showVersion bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to the YAML configuration file")
	flag.StringVar(&configPath, "c", "", "Path to the YAML configuration file (shorthand)")
	flag.BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = printUsage
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("schooladmin %s (built %s)\n", version, buildTime)
		return
	}
	if flag.NArg() == 0 {
		printUsage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, flag.Args(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
		printUsage()
		return 2
	}

	a, err := newApp(ctx, appOptions{
		ConfigPath: configPath,
		Verbose:    verbose,
		JSON:       jsonOutput,
		Stdout:     stdout,
		Stderr:     stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.Close()

	if cmd.auth {
		if err := a.requireSession(); err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", state.Message(err))
			return 1
		}
	}

	err = cmd.run(ctx, a, args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "Usage: schooladmin %s %s\n", args[0], cmd.usage)
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %s\n", state.Message(err))
		return 1
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `schooladmin - School office client

USAGE:
    schooladmin [options] <command> [arguments]

OPTIONS:
    -config, -c <path>    Path to the YAML configuration file
    -json                 Print results as JSON
    -verbose, -v          Enable debug logging
    -version              Show version information
    -help, -h             Show this help message

COMMANDS:
`)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "    %-12s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Sign in once; the session is kept between runs
    schooladmin login -email office@school.pk

    # Show a student's fees and record a partial payment
    schooladmin fee summary 10001
    schooladmin fee pay -method Cash -received-by Office 10001 V-001 1500

    # Print the pending vouchers of a student as PDF
    schooladmin print pending -year 2025 -o pending.pdf 10001

    # Generate March 2025 vouchers for a whole class
    schooladmin fee bulk -class c1 -month 3 -year 2025 -amount 2500

ENVIRONMENT:
    SCHOOLADMIN_API_BASE_URL, SCHOOLADMIN_LOG_LEVEL and every other config key
    can be set as SCHOOLADMIN_<SECTION>_<KEY>.
`)
}
