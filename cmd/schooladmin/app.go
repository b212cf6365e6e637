package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alfalah/schooladmin/internal/application/assistant"
	"github.com/alfalah/schooladmin/internal/application/attendance"
	"github.com/alfalah/schooladmin/internal/application/dashboard"
	feeapp "github.com/alfalah/schooladmin/internal/application/fee"
	identityapp "github.com/alfalah/schooladmin/internal/application/identity"
	printapp "github.com/alfalah/schooladmin/internal/application/printing"
	schoolapp "github.com/alfalah/schooladmin/internal/application/school"
	"github.com/alfalah/schooladmin/internal/application/state"
	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/infrastructure/apiclient"
	"github.com/alfalah/schooladmin/internal/infrastructure/cache"
	"github.com/alfalah/schooladmin/internal/infrastructure/config"
	"github.com/alfalah/schooladmin/internal/infrastructure/logger"
	infra "github.com/alfalah/schooladmin/internal/infrastructure/printing"
	"github.com/alfalah/schooladmin/internal/infrastructure/session"
	"github.com/alfalah/schooladmin/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var errNotSignedIn = shared.NewDomainError("NOT_SIGNED_IN", "Please log in first")

type appOptions struct {
	ConfigPath string
	Verbose    bool
	JSON       bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// app holds the services of one CLI invocation
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *state.Store
	out   *output

	auth       *identityapp.AuthService
	users      *identityapp.UserService
	fees       *feeapp.Service
	school     *schoolapp.Service
	attendance *attendance.Service
	dashboard  *dashboard.Service
	assistant  *assistant.Service

	guard       cache.InFlightGuard
	unsubscribe func()
	closers     []func() error
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	if cfg.Log.Output != "" && cfg.Log.Output != "stdout" {
		logCfg.Output = cfg.Log.Output
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		store: state.NewStore(log),
		out:   newOutput(opts.Stdout, opts.JSON),
	}
	if err := a.wire(ctx, opts.Stderr); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, stderr io.Writer) error {
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           a.cfg.Telemetry.Enabled,
		CollectorEndpoint: a.cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     a.cfg.Telemetry.SamplingRatio,
		Insecure:          a.cfg.Telemetry.Insecure,
		ServiceName:       "schooladmin-cli",
		ServiceVersion:    version,
	}, a.log)
	if err != nil {
		return fmt.Errorf("tracer provider: %w", err)
	}
	a.closers = append(a.closers, func() error { return tp.Shutdown(context.Background()) })

	api, err := apiclient.NewClient(apiclient.Config{
		BaseURL:             a.cfg.API.BaseURL,
		Timeout:             a.cfg.API.Timeout,
		RetryOnNetworkError: a.cfg.API.RetryOnNetworkError,
		RetryDelay:          a.cfg.API.RetryDelay,
		RateLimitRPS:        a.cfg.API.RateLimitRPS,
		RateLimitBurst:      a.cfg.API.RateLimitBurst,
		UserAgent:           "schooladmin/" + version,
	}, apiclient.WithLogger(a.log.Named("api")))
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}

	sessions, err := session.NewStore(a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	a.guard, err = cache.NewInFlightGuard(ctx, a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("in-flight guard: %w", err)
	}
	a.closers = append(a.closers, a.guard.Close)

	policy, err := fee.ParseMarkPaidPolicy(a.cfg.Fees.MarkPaidPolicy)
	if err != nil {
		return err
	}

	a.auth = identityapp.NewAuthService(api, sessions, a.store, a.log)
	a.users = identityapp.NewUserService(api, a.store, a.log)
	a.fees = feeapp.NewService(api, a.guard, a.store, feeapp.Config{
		MarkPaidPolicy: policy,
		InFlightTTL:    a.cfg.Fees.InFlightTTL,
	}, a.log)
	a.school = schoolapp.NewService(api, a.store, a.log)
	a.attendance = attendance.NewService(api, a.store, a.log)
	a.dashboard = dashboard.NewService(api, a.store, a.log)
	a.assistant = assistant.NewService(api, a.store, a.log)

	a.unsubscribe = a.store.Subscribe(notifier(stderr))

	_, err = a.auth.Restore(ctx)
	return err
}

// printer builds the print service. Chrome is only started when a PDF is
// requested.
func (a *app) printer(pdf bool) (*printapp.PrintService, error) {
	templates, err := infra.NewTemplateEngine()
	if err != nil {
		return nil, err
	}
	header := infra.SchoolHeader{Name: a.cfg.Print.SchoolName, Address: a.cfg.Print.SchoolAddress}
	if !pdf {
		return printapp.NewPrintService(templates, header, a.log), nil
	}

	renderer := infra.NewChromedpRenderer(infra.ChromedpConfig{
		DefaultTimeout: a.cfg.Print.Timeout,
		RemoteURL:      a.cfg.Print.ChromeURL,
		ExecPath:       a.cfg.Print.ChromePath,
		NoSandbox:      a.cfg.Print.NoSandbox,
		Logger:         a.log,
	})
	a.closers = append(a.closers, renderer.Close)
	return printapp.NewPrintService(templates, header, a.log, printapp.WithRenderer(renderer)), nil
}

func (a *app) requireSession() error {
	if !a.auth.Current().Active() {
		return errNotSignedIn
	}
	return nil
}

// Close releases the guard and the renderer and flushes the logger
func (a *app) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("shutdown", zap.Error(err))
	}
	_ = logger.Sync(a.log)
}

// notifier prints each notification once, as the store raises it. Errors
// are left to the command's exit path.
func notifier(w io.Writer) func(state.State) {
	seen := make(map[string]bool)
	return func(s state.State) {
		for _, n := range s.Notifications {
			if seen[n.ID] || n.Level == state.LevelError {
				continue
			}
			seen[n.ID] = true
			fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Message)
		}
	}
}
