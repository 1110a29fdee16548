// Package cli is the mlens command line: a cobra command tree whose global
// flags are bound to a private viper instance.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mlens-core/contour"

	"mlens/internal/config"
	"mlens/internal/logging"
	"mlens/internal/metrics"
	"mlens/internal/pipeline"
	"mlens/internal/tables"
	"mlens/internal/version"
	"mlens/internal/writers"
)

// ErrUsage marks errors in the command line itself.
var ErrUsage = errors.New("usage error")

// CLI holds one command tree and the state its commands share. It has no
// package-level state, so tests can build as many as they like.
type CLI struct {
	root   *cobra.Command
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer

	cfgFile  string
	settings config.Settings
	log      logging.Logger
	rec      *metrics.Recorder
	tables   *tables.Context
	runID    string
}

// New builds the command tree writing results to out and diagnostics to
// errOut.
func New(out, errOut io.Writer) *CLI {
	c := &CLI{v: viper.New(), out: out, errOut: errOut, log: logging.Discard()}
	c.setupCommands()
	return c
}

// Execute runs args. Flag and argument errors wrap ErrUsage.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	c.root.SetArgs(args)
	start := time.Now()
	cmd, err := c.root.ExecuteContextC(ctx)
	if c.rec != nil {
		name := c.root.Name()
		if cmd != nil {
			name = cmd.Name()
		}
		c.rec.Time(name, start)
		if derr := c.rec.Dump(c.errOut); derr != nil && err == nil {
			err = derr
		}
	}
	return err
}

func (c *CLI) setupCommands() {
	c.root = &cobra.Command{
		Use:   "mlens",
		Short: "Gravitational microlensing magnification, light curves and caustics",
		Long: `mlens computes microlensing magnifications of point and extended sources
by single, binary and multiple lenses, light curves with parallax, orbital
motion and xallarap, astrometric centroids, caustics and image contours.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.initialize,
		Args:              usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	c.root.SetOut(c.out)
	c.root.SetErr(c.errOut)
	c.root.SetVersionTemplate("mlens version {{.Version}}\n")
	c.root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	c.setupFlags()

	c.root.AddCommand(c.newMagCmd())
	c.root.AddCommand(c.newLightCurveCmd())
	c.root.AddCommand(c.newCausticsCmd())
	c.root.AddCommand(c.newContoursCmd())
	c.root.AddCommand(c.newTableCmd())
}

func (c *CLI) setupFlags() {
	flags := c.root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "settings file (default: ./mlens.yaml or ./mlens.toml when present)")
	flags.String(flagName(config.KeyLogLevel), "info", "log level (debug, info, warn, error)")
	flags.StringP(flagName(config.KeyFormat), "o", "text", "output format ("+joinFormats()+")")
	flags.String(flagName(config.KeyMethod), "singlepoly", "image solver (singlepoly, multipoly, nopoly)")
	flags.Float64(flagName(config.KeyAbsTol), 1e-2, "absolute accuracy goal on magnifications")
	flags.Float64(flagName(config.KeyRelTol), 0, "relative accuracy goal on magnifications")
	flags.Int(flagName(config.KeyThreads), 0, "worker goroutines (0 = all CPUs)")
	flags.Bool(flagName(config.KeyMetrics), false, "print evaluation metrics to stderr at exit")
	flags.String(flagName(config.KeyESPLTable), "", "ESPL magnification grid file")
	flags.String(flagName(config.KeySunTable), "", "tabulated Sun ephemeris (Horizons vectors)")

	for _, k := range []string{
		config.KeyLogLevel, config.KeyFormat, config.KeyMethod, config.KeyAbsTol, config.KeyRelTol,
		config.KeyThreads, config.KeyMetrics, config.KeyESPLTable, config.KeySunTable,
	} {
		_ = c.v.BindPFlag(k, flags.Lookup(flagName(k)))
	}
}

// flagName spells a settings key as a flag: abs_tol becomes --abs-tol.
func flagName(key string) string { return strings.ReplaceAll(key, "_", "-") }

func joinFormats() string { return strings.Join(writers.Formats(), ", ") }

// initialize loads settings, the logger, metrics and tables before any
// subcommand runs.
func (c *CLI) initialize(cmd *cobra.Command, _ []string) error {
	s, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return err
	}
	if !writers.Known(s.Format) {
		return fmt.Errorf("%w: unknown output format %q (want %s)", ErrUsage, s.Format, joinFormats())
	}
	c.settings = s
	c.log = logging.New(c.errOut, s.LogLevel, logging.ColorsFor(c.errOut)).With(logging.F("cmd", cmd.Name()))
	if s.Metrics {
		c.rec = metrics.New()
	}
	c.runID = uuid.NewString()

	c.tables, err = tables.Load(tables.Paths{ESPL: s.ESPLTable, Sun: s.SunTable})
	if err != nil {
		return err
	}
	c.log.Debug("settings loaded",
		logging.F("method", s.Method),
		logging.F("abs_tol", s.AbsTol),
		logging.F("threads", s.Threads),
		logging.F("run", c.runID))
	return nil
}

func (c *CLI) contourOptions() contour.Options {
	return contour.Options{
		Method: c.settings.MethodValue(),
		AbsTol: c.settings.AbsTol,
		RelTol: c.settings.RelTol,
	}
}

func (c *CLI) pipelineConfig() pipeline.Config {
	return pipeline.Config{Threads: c.settings.Threads, Log: c.log}
}

func (c *CLI) write(payload any) error {
	return writers.Write(c.settings.Format, c.out, payload)
}

// usageArgs marks argument-count errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return nil
	}
}

// usagef builds an ErrUsage error.
func usagef(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, a...))
}
