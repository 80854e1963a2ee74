package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vic/gobeta/pkg/config"
	"github.com/vic/gobeta/pkg/service"
	"github.com/vic/gobeta/pkg/session"
)

// Options holds command line flags. Flags that are set override the
// configuration files and environment.
type Options struct {
	Debug      bool
	ConfigFile string
	Expr       string
	MaxSteps   int
	Timeout    time.Duration
	Steps      bool
	Stats      bool
	Color      string
	Workers    int
}

// reportedError has already been shown to the user by the session.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error { return e.error }

func main() {
	var opts Options
	rootCmd := newRootCmd(&opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			var reported reportedError
			if errors.As(err, &reported) {
				return
			}
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(opts *Options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gobeta [flags] [file]",
		Short: "Untyped lambda calculus reducer",
		Long: `gobeta parses untyped lambda calculus terms and beta-reduces them to normal form.

Variables are single letters, abstractions are written λx.body or \x.body,
and application is juxtaposition. Whitespace is ignored.`,
		Example: `  # Reduce an inline expression
  gobeta -e '(λx.x) y'

  # Reduce a file, or stdin when no file is given
  gobeta church.lam
  echo '(\x.\y.x) a b' | gobeta

  # Show every intermediate term
  gobeta --steps -e '(\f.f (f x)) (\y.y)'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			src, err := readInput(opts.Expr, args)
			if err != nil {
				return err
			}

			sess := session.New(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
			if _, err := sess.Eval(cmd.Context(), src); err != nil {
				return reportedError{err}
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.Debug, "debug", "d", false, "Enable debug logging")
	flags.StringVar(&opts.ConfigFile, "config", "", "Path to a config file (default: nearest "+config.FileName+")")
	flags.IntVar(&opts.MaxSteps, "max-steps", 0, "Maximum number of reduction steps, 0 for no limit")
	flags.DurationVar(&opts.Timeout, "timeout", 0, "Maximum reduction time, 0 for no limit")
	flags.BoolVar(&opts.Steps, "steps", false, "Print every intermediate term")
	flags.BoolVar(&opts.Stats, "stats", false, "Print reduction statistics to stderr")
	flags.StringVar(&opts.Color, "color", "", "Color output: auto, always or never")
	flags.IntVar(&opts.Workers, "workers", 0, "Files evaluated concurrently in batch mode")
	rootCmd.Flags().StringVarP(&opts.Expr, "expr", "e", "", "Expression to reduce instead of a file")

	rootCmd.AddCommand(replCmd(opts), batchCmd(opts), serveCmd(opts))
	return rootCmd
}

func batchCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "batch file...",
		Short: "Reduce several files concurrently",
		Long: `Reduce each file independently. Output is printed per file in the order given;
a file that fails to parse or reduce does not stop the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			sess := session.New(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
			if err := sess.EvalFiles(cmd.Context(), args); err != nil {
				return reportedError{err}
			}
			return nil
		},
	}
}

func serveCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve Parse, Step and Normalize as JSON-RPC over stdio",
		Long: `Serve newline-delimited JSON-RPC 2.0 requests on stdin and write responses to stdout.

Methods:
  Parse      {"expr": "..."}                  -> {"term", "free_vars"}
  Step       {"expr": "..."}                  -> {"term", "changed"}
  Normalize  {"expr": "...", "max_steps": N}  -> {"term", "steps"}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			return service.New(cfg.MaxSteps, logger).Serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}

// setup loads the configuration, applies flag overrides and installs the
// default logger.
func setup(cmd *cobra.Command, opts *Options) (config.Config, *slog.Logger, error) {
	logger := newLogger(cmd.ErrOrStderr(), opts.Debug)
	slog.SetDefault(logger)

	cwd, err := os.Getwd()
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load(cwd, opts.ConfigFile)
	if err != nil {
		return cfg, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-steps") {
		cfg.MaxSteps = opts.MaxSteps
	}
	if flags.Changed("timeout") {
		cfg.Timeout.Duration = opts.Timeout
	}
	if flags.Changed("steps") {
		cfg.ShowSteps = opts.Steps
	}
	if flags.Changed("stats") {
		cfg.Stats = opts.Stats
	}
	if flags.Changed("color") {
		cfg.Color = opts.Color
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, errors.Wrap(err, "invalid flags")
	}

	logger.Debug("configuration loaded", "max_steps", cfg.MaxSteps, "timeout", cfg.Timeout, "color", cfg.Color)
	return cfg, logger, nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}))
}

// readInput returns the inline expression, the named file, or stdin.
func readInput(expr string, args []string) (string, error) {
	if expr != "" {
		if len(args) > 0 {
			return "", errors.New("--expr and a file argument are mutually exclusive")
		}
		return expr, nil
	}

	var input []byte
	var err error
	if len(args) > 0 {
		input, err = os.ReadFile(args[0])
		if err != nil {
			return "", errors.Wrap(err, "reading file")
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "reading stdin")
		}
	}
	return string(input), nil
}
