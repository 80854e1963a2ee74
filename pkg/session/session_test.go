package session

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vic/gobeta/pkg/config"
	"github.com/vic/gobeta/pkg/lambda"
)

func newTestSession(mutate func(*config.Config)) (*Session, *bytes.Buffer, *bytes.Buffer) {
	cfg := config.Default()
	cfg.Color = config.ColorNever
	if mutate != nil {
		mutate(&cfg)
	}
	var stdout, stderr bytes.Buffer
	return New(cfg, &stdout, &stderr, nil), &stdout, &stderr
}

func TestEvalPrintsParsedAndReduced(t *testing.T) {
	s, stdout, stderr := newTestSession(nil)

	res, err := s.Eval(context.Background(), "((λx.x)y)")
	require.NoError(t, err)
	assert.Equal(t, "y", res.Normal.String())
	assert.Equal(t, 1, res.Stats.Steps)
	assert.Equal(t, "Parsed expression: ((λx.x) y)\nReduced expression: y\n", stdout.String())
	assert.Empty(t, stderr.String())
}

// A syntax error is reported and no reduction is attempted.
func TestEvalSyntaxError(t *testing.T) {
	s, stdout, stderr := newTestSession(nil)

	res, err := s.Eval(context.Background(), "(x")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, lambda.IsSyntaxError(err))
	assert.EqualError(t, err, "syntax error: expected ')'")
	assert.Empty(t, stdout.String())
	assert.Equal(t, "syntax error: expected ')'\n  (x\n    ^\n", stderr.String())
}

func TestEvalShowSteps(t *testing.T) {
	s, stdout, _ := newTestSession(func(c *config.Config) { c.ShowSteps = true })

	_, err := s.Eval(context.Background(), "(λx.x)((λy.y)z)")
	require.NoError(t, err)
	assert.Equal(t, "Parsed expression: ((λx.x) ((λy.y) z))\n"+
		"   1 -> ((λy.y) z)\n"+
		"   2 -> z\n"+
		"Reduced expression: z\n", stdout.String())
}

func TestEvalStepLimit(t *testing.T) {
	s, stdout, stderr := newTestSession(func(c *config.Config) { c.MaxSteps = 3 })

	res, err := s.Eval(context.Background(), "(λx.(xx))(λx.(xx))")
	require.ErrorIs(t, err, lambda.ErrStepLimit)
	assert.Equal(t, 3, res.Stats.Steps)
	assert.NotContains(t, stdout.String(), "Reduced expression")
	assert.Contains(t, stderr.String(), "reduction stopped: after 3 steps: step limit reached")
	assert.Contains(t, stderr.String(), "Last expression: ((λx.(x x)) (λx.(x x)))")
}

func TestEvalTimeout(t *testing.T) {
	s, _, _ := newTestSession(func(c *config.Config) {
		c.MaxSteps = 0
		c.Timeout.Duration = 10 * time.Millisecond
	})

	_, err := s.Eval(context.Background(), "(λx.(xx))(λx.(xx))")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEvalStats(t *testing.T) {
	s, _, stderr := newTestSession(func(c *config.Config) { c.Stats = true })

	_, err := s.Eval(context.Background(), "(λx.x)((λy.y)z)")
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "Total Reductions: 2")
	assert.Contains(t, stderr.String(), "Max Term Size: 7")
}

func TestEvalColor(t *testing.T) {
	s, stdout, _ := newTestSession(func(c *config.Config) { c.Color = config.ColorAlways })

	_, err := s.Eval(context.Background(), "x")
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "\x1b[")
}

func TestEvalFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.lam")
	bad := filepath.Join(dir, "bad.lam")
	missing := filepath.Join(dir, "missing.lam")
	require.NoError(t, os.WriteFile(good, []byte("(λx.x) y\n"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("(x\n"), 0644))

	s, stdout, stderr := newTestSession(func(c *config.Config) { c.Workers = 2 })

	err := s.EvalFiles(context.Background(), []string{good, bad, missing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad+": syntax error: expected ')'")
	assert.Contains(t, err.Error(), missing+": reading file")
	assert.NotContains(t, err.Error(), good)

	assert.Equal(t, "==> "+good+"\n"+
		"Parsed expression: ((λx.x) y)\n"+
		"Reduced expression: y\n"+
		"==> "+bad+"\n"+
		"==> "+missing+"\n", stdout.String())
	assert.Contains(t, stderr.String(), "syntax error: expected ')'")
}

func TestEvalRecordsTrace(t *testing.T) {
	s, _, _ := newTestSession(nil)

	res, err := s.Eval(context.Background(), "(λx.x)((λy.y)z)")
	require.NoError(t, err)
	assert.Equal(t, []lambda.TraceEvent{
		{Step: 1, Before: "((λx.x) ((λy.y) z))", After: "((λy.y) z)"},
		{Step: 2, Before: "((λy.y) z)", After: "z"},
	}, res.Trace)
}

func TestEvalTraceDisabled(t *testing.T) {
	s, _, _ := newTestSession(func(c *config.Config) { c.TraceSize = 0 })

	res, err := s.Eval(context.Background(), "(λx.x)y")
	require.NoError(t, err)
	assert.Nil(t, res.Trace)
}

func TestEvalTraceKeepsFirstContractions(t *testing.T) {
	s, _, _ := newTestSession(func(c *config.Config) {
		c.TraceSize = 2
		c.MaxSteps = 10
	})

	res, _ := s.Eval(context.Background(), "(λx.(xx))(λx.(xx))")
	require.Len(t, res.Trace, 2)
	assert.Equal(t, 2, res.Trace[1].Step)
}
