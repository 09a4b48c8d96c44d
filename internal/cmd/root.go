package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/sahilravan/Enhanced-VM-Health-Check/domain/check"
	"github.com/sahilravan/Enhanced-VM-Health-Check/domain/health"
	"github.com/sahilravan/Enhanced-VM-Health-Check/domain/notify"
	"github.com/sahilravan/Enhanced-VM-Health-Check/domain/report"
	"github.com/sahilravan/Enhanced-VM-Health-Check/domain/scheduler"
	"github.com/sahilravan/Enhanced-VM-Health-Check/domain/tracing"
	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/config"
	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/server"
	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/version"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/logger"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/syshealth"
)

// ErrUsage marks errors caused by bad command-line input. They are reported
// together with the usage text.
var ErrUsage = errors.New("invalid usage")

// flagKeys maps flags that override configuration keys.
var flagKeys = map[string]string{
	"cpu-threshold":    "CPU_THRESHOLD",
	"memory-threshold": "MEMORY_THRESHOLD",
	"disk-threshold":   "DISK_THRESHOLD",
	"log":              "LOG_FILE",
	"output":           "OUTPUT_FORMAT",
	"metrics-file":     "METRICS_FILE",
	"listen":           "LISTEN_ADDR",
}

// Installer registers the recurring invocation.
type Installer interface {
	Install(ctx context.Context, opts scheduler.InstallOptions) (*scheduler.Entry, error)
}

// Deps are the collaborators used by Execute. Zero values select the real
// implementations.
type Deps struct {
	Stdout io.Writer
	Stderr io.Writer
	// Environ replaces the process environment.
	Environ map[string]string
	// Collector replaces the host collector.
	Collector syshealth.Collector
	// Transports replaces the configured notification transports.
	Transports notify.Transports
	// NewInstaller replaces the crontab installer.
	NewInstaller func(log *slog.Logger) Installer
	// Executable returns the path registered by --setup-cron.
	Executable func() (string, error)
}

func (d Deps) withDefaults() Deps {
	if d.Stdout == nil {
		d.Stdout = os.Stdout
	}
	if d.Stderr == nil {
		d.Stderr = os.Stderr
	}
	if d.NewInstaller == nil {
		d.NewInstaller = func(log *slog.Logger) Installer {
			return scheduler.NewCrontabInstaller(log)
		}
	}
	if d.Executable == nil {
		d.Executable = os.Executable
	}
	return d
}

type runner struct {
	deps Deps

	configPath  string
	logPath     string
	cpu         int
	memory      int
	disk        int
	output      string
	metricsFile string
	listen      string
	notify      bool
	silent      bool
	setupCron   bool
	watch       bool
	debug       bool
	showVersion bool

	helpShown bool
}

// NewRootCommand creates the vmhealth command with default collaborators.
func NewRootCommand() *cobra.Command {
	return newRootCommand(context.Background(), &runner{deps: Deps{}.withDefaults()})
}

func newRootCommand(ctx context.Context, r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vmhealth [explain]",
		Short: "Check CPU, memory and disk utilization against thresholds",
		Long: `vmhealth samples CPU, memory and disk utilization, classifies each against
its warning threshold (critical is threshold + 20) and reports the overall
status as OK, WARNING or CRITICAL.

Pass "explain" for per-metric detail and recommendations. The exit code is 0
whenever the check completes, whatever the health status.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("%w: too many arguments", ErrUsage)
			}
			if len(args) == 1 && args[0] != "explain" {
				return fmt.Errorf("%w: unknown argument %q", ErrUsage, args[0])
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(ctx, cmd, len(args) == 1)
		},
	}

	cmd.SetOut(r.deps.Stdout)
	cmd.SetErr(r.deps.Stderr)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})
	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		r.helpShown = true
		defaultHelp(c, args)
	})

	f := cmd.Flags()
	f.SortFlags = false
	f.IntVar(&r.cpu, "cpu-threshold", syshealth.DefaultThreshold, "CPU warning threshold in percent")
	f.IntVar(&r.memory, "memory-threshold", syshealth.DefaultThreshold, "memory warning threshold in percent")
	f.IntVar(&r.disk, "disk-threshold", syshealth.DefaultThreshold, "disk warning threshold in percent")
	f.StringVar(&r.configPath, "config", "", "configuration file (default "+config.DefaultPath+")")
	f.StringVar(&r.logPath, "log", "", "log file (default /var/log/vm_health_check.log)")
	f.BoolVar(&r.notify, "notify", false, "send a notification when the status is not OK")
	f.BoolVar(&r.silent, "silent", false, "suppress stdout; the log file is still written")
	f.BoolVar(&r.setupCron, "setup-cron", false, "register a recurring run with --silent --notify in crontab and exit")
	f.StringVarP(&r.output, "output", "o", "text", "output format (text, json, yaml, table)")
	f.StringVar(&r.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	f.BoolVar(&r.watch, "watch", false, "keep running and check on CRON_SCHEDULE")
	f.StringVar(&r.listen, "listen", "", "serve /health and /metrics on this address in --watch mode")
	f.BoolVar(&r.debug, "debug", false, "enable debug logging on stderr")
	f.BoolVar(&r.showVersion, "version", false, "print version information and exit")

	return cmd
}

// Execute runs vmhealth with args and returns the process exit code.
func Execute(ctx context.Context, args []string, deps Deps) int {
	r := &runner{deps: deps.withDefaults()}
	cmd := newRootCommand(ctx, r)
	cmd.SetArgs(args)

	err := cmd.Execute()
	switch {
	case err == nil && r.helpShown:
		return 1
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(r.deps.Stderr, "Error: %v\n", err)
		fmt.Fprint(r.deps.Stderr, cmd.UsageString())
		return 1
	default:
		fmt.Fprintf(r.deps.Stderr, "Error: %v\n", err)
		return 1
	}
}

// flagOverrides returns the configuration keys set on the command line.
func flagOverrides(flags *pflag.FlagSet) (map[string]string, error) {
	v := viper.New()
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, err
		}
	}

	overrides := make(map[string]string)
	for _, key := range flagKeys {
		if v.IsSet(key) {
			overrides[key] = v.GetString(key)
		}
	}
	if flags.Changed("debug") {
		overrides["LOG_LEVEL"] = "debug"
	}
	return overrides, nil
}

func (r *runner) run(ctx context.Context, cmd *cobra.Command, explain bool) error {
	if r.showVersion {
		_, err := fmt.Fprintln(r.deps.Stdout, version.Get())
		return err
	}
	if r.setupCron && r.watch {
		return fmt.Errorf("%w: --setup-cron and --watch cannot be combined", ErrUsage)
	}

	overrides, err := flagOverrides(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.Load(config.LoadOptions{
		Path:      r.configPath,
		Overrides: overrides,
		Environ:   r.deps.Environ,
	})
	if err != nil {
		return err
	}

	logOpts := logger.Options{
		Level:       logger.ParseLevel(cfg.LogLevel, slog.LevelWarn),
		Format:      cfg.LogFormat,
		Stderr:      r.deps.Stderr,
		JournalPath: cfg.LogFile,
	}
	runOpts := check.RunOptions{
		Explain: explain,
		Silent:  r.silent,
		Notify:  r.notify,
		Stdout:  r.deps.Stdout,
	}

	switch {
	case r.setupCron:
		return r.installCron(ctx, cmd, cfg, logOpts)
	case r.watch:
		return r.runWatch(ctx, cfg, logOpts, runOpts)
	default:
		return r.runOnce(ctx, cfg, logOpts, runOpts)
	}
}

// appOptions composes the fx graph shared by one-shot and watch runs.
func (r *runner) appOptions(cfg *config.Config, logOpts logger.Options, extra ...fx.Option) fx.Option {
	opts := []fx.Option{
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: log}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
		fx.Supply(cfg, logOpts),

		// Infrastructure modules
		logger.Module,
		tracing.Module,

		// Domain modules
		report.Module,
		notify.Module,
		check.Module,
	}
	if r.deps.Collector != nil {
		opts = append(opts, fx.Replace(fx.Annotate(r.deps.Collector, fx.As(new(syshealth.Collector)))))
	}
	if r.deps.Transports != nil {
		opts = append(opts, fx.Replace(r.deps.Transports))
	}
	return fx.Options(append(opts, extra...)...)
}

func (r *runner) runOnce(ctx context.Context, cfg *config.Config, logOpts logger.Options, runOpts check.RunOptions) error {
	var svc *check.Service
	app := fx.New(r.appOptions(cfg, logOpts, fx.Populate(&svc)))
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	_, runErr := svc.Run(ctx, runOpts)

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (r *runner) runWatch(ctx context.Context, cfg *config.Config, logOpts logger.Options, runOpts check.RunOptions) error {
	extra := []fx.Option{
		fx.Supply(runOpts),
		scheduler.Module,
	}
	if cfg.Schedule.ListenAddr != "" {
		extra = append(extra, server.Module, health.Module)
	}

	var log *slog.Logger
	extra = append(extra, fx.Populate(&log))

	app := fx.New(r.appOptions(cfg, logOpts, extra...))
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	log.Info("Watch mode started",
		slog.String("schedule", cfg.Schedule.Cron),
		slog.String("listen", cfg.Schedule.ListenAddr))

	select {
	case <-ctx.Done():
	case sig := <-app.Done():
		log.Debug("received signal", slog.String("signal", sig.String()))
	}
	log.Info("Watch mode stopped")

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	return app.Stop(stopCtx)
}

func (r *runner) installCron(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logOpts logger.Options) error {
	log, closer := logger.New(logOpts)
	defer closer.Close()

	exe, err := r.deps.Executable()
	if err != nil {
		return fmt.Errorf("cannot determine executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	opts := scheduler.InstallOptions{
		Schedule:   cfg.Schedule.Cron,
		Executable: exe,
	}
	if cfg.ConfigFile != "" {
		opts.ConfigPath = absPath(cfg.ConfigFile)
	}
	if cmd.Flags().Changed("log") {
		opts.LogPath = absPath(cfg.LogFile)
	}

	entry, err := r.deps.NewInstaller(log).Install(ctx, opts)
	if err != nil {
		log.Error("Failed to set up cron job", logger.Error(err))
		return fmt.Errorf("failed to set up cron job: %w", err)
	}

	_, err = fmt.Fprintf(r.deps.Stdout, "Cron job installed: %s\nNext run: %s\n",
		entry.Line, entry.Next.Format(time.RFC1123))
	return err
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
