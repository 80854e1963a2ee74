package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/vic/gobeta/pkg/config"
	"github.com/vic/gobeta/pkg/lambda"
)

var (
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	termStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	stepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	caretStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Result is the outcome of evaluating one expression.
type Result struct {
	Parsed lambda.Term
	// Normal is the normal form, or the last term reached when reduction
	// stopped early.
	Normal lambda.Term
	Stats  lambda.Stats
	Trace  []lambda.TraceEvent
}

// Session parses and reduces expressions, writing everything a user sees to
// Stdout and Stderr.
type Session struct {
	Config config.Config
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func New(cfg config.Config, stdout, stderr io.Writer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		Config: cfg,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
	}
}

// Eval parses src and reduces it. A syntax error is reported and returned
// without attempting any reduction.
func (s *Session) Eval(ctx context.Context, src string) (*Result, error) {
	return s.eval(ctx, src, s.Stdout, s.Stderr)
}

func (s *Session) eval(ctx context.Context, src string, stdout, stderr io.Writer) (*Result, error) {
	term, err := lambda.Parse(src)
	if err != nil {
		s.reportSyntaxError(stderr, err)
		return nil, errors.Wrap(err, "syntax error")
	}
	s.Logger.DebugContext(ctx, "parsed", "term", term, "size", lambda.Size(term))

	s.printf(stdout, "%s %s\n", labelStyle.Render("Parsed expression:"), termStyle.Render(term.String()))

	if s.Config.Timeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Config.Timeout.Duration)
		defer cancel()
	}

	opts := []lambda.Option{
		lambda.WithMaxSteps(s.Config.MaxSteps),
		lambda.WithLogger(s.Logger),
	}
	if s.Config.TraceSize > 0 {
		opts = append(opts, lambda.WithTrace(s.Config.TraceSize))
	}
	if s.Config.ShowSteps {
		opts = append(opts, lambda.WithStepHook(func(step int, t lambda.Term) {
			s.printf(stdout, "%s %s\n", stepStyle.Render(fmt.Sprintf("%4d ->", step)), t)
		}))
	}
	reducer := lambda.NewReducer(opts...)

	normal, err := reducer.Run(ctx, term)
	res := &Result{
		Parsed: term,
		Normal: normal,
		Stats:  reducer.Stats(),
		Trace:  reducer.TraceSnapshot(),
	}
	if s.Config.Stats {
		s.writeStats(stderr, res.Stats)
	}
	if err != nil {
		s.printf(stderr, "%s %s\n", errorStyle.Render("reduction stopped:"), err)
		s.printf(stderr, "%s %s\n", labelStyle.Render("Last expression:"), normal)
		return res, errors.Wrap(err, "reduction stopped")
	}

	s.printf(stdout, "%s %s\n", labelStyle.Render("Reduced expression:"), resultStyle.Render(normal.String()))
	return res, nil
}

func (s *Session) reportSyntaxError(w io.Writer, err error) {
	s.printf(w, "%s %s\n", errorStyle.Render("syntax error:"), err)

	var serr *lambda.SyntaxError
	if errors.As(err, &serr) {
		input, caret, _ := strings.Cut(serr.Caret(), "\n")
		s.printf(w, "  %s\n  %s\n", input, caretStyle.Render(caret))
	}
}

func (s *Session) writeStats(w io.Writer, stats lambda.Stats) {
	seconds := stats.Elapsed.Seconds()

	s.printf(w, "\n%s\n", labelStyle.Render("Stats:"))
	s.printf(w, "Time: %v\n", stats.Elapsed)
	s.printf(w, "Total Reductions: %d", stats.Steps)
	if seconds > 0 {
		s.printf(w, " (%.2f ops/sec)", float64(stats.Steps)/seconds)
	}
	s.printf(w, "\n")
	s.printf(w, "Max Term Size: %d\n", stats.MaxSize)
}

// printf writes to w, dropping styling unless w should be colored.
func (s *Session) printf(w io.Writer, format string, args ...any) {
	out := fmt.Sprintf(format, args...)
	if !s.colorEnabled(w) {
		out = ansi.Strip(out)
	}
	_, _ = io.WriteString(w, out)
}

func (s *Session) colorEnabled(w io.Writer) bool {
	switch s.Config.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}
