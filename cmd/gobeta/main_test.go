package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vic/gobeta/pkg/config"
	"github.com/vic/gobeta/pkg/lambda"
	"github.com/vic/gobeta/pkg/session"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	var opts Options
	cmd := newRootCmd(&opts)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootExpr(t *testing.T) {
	stdout, _, err := execute(t, "--color", "never", "-e", `(\x.x) y`)
	require.NoError(t, err)
	assert.Equal(t, "Parsed expression: ((λx.x) y)\nReduced expression: y\n", stdout)
}

func TestRootSteps(t *testing.T) {
	stdout, _, err := execute(t, "--color", "never", "--steps", "-e", "(λx.x)((λy.y)z)")
	require.NoError(t, err)
	assert.Contains(t, stdout, "   1 -> ((λy.y) z)\n")
}

func TestRootSyntaxErrorIsReported(t *testing.T) {
	_, stderr, err := execute(t, "--color", "never", "-e", "λ.x")
	require.Error(t, err)

	var reported reportedError
	assert.ErrorAs(t, err, &reported)
	assert.True(t, lambda.IsSyntaxError(err))
	assert.Contains(t, stderr, "syntax error: expected a variable after lambda")
}

func TestRootStepLimitFlag(t *testing.T) {
	_, stderr, err := execute(t, "--color", "never", "--max-steps", "4", "-e", "(λx.(xx))(λx.(xx))")
	require.ErrorIs(t, err, lambda.ErrStepLimit)
	assert.Contains(t, stderr, "after 4 steps")
}

func TestRootInvalidColor(t *testing.T) {
	_, _, err := execute(t, "--color", "sometimes", "-e", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid flags")
}

func TestReadInput(t *testing.T) {
	src, err := readInput("x", nil)
	require.NoError(t, err)
	assert.Equal(t, "x", src)

	_, err = readInput("x", []string{"file.lam"})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "id.lam")
	require.NoError(t, os.WriteFile(path, []byte("λx.x\n"), 0644))
	src, err = readInput("", []string{path})
	require.NoError(t, err)
	assert.Equal(t, "λx.x\n", src)

	_, err = readInput("", []string{filepath.Join(t.TempDir(), "missing.lam")})
	assert.ErrorContains(t, err, "reading file")
}

func newCommandSession() (*session.Session, *bytes.Buffer, *bytes.Buffer) {
	cfg := config.Default()
	cfg.Color = config.ColorNever
	var stdout, stderr bytes.Buffer
	return session.New(cfg, &stdout, &stderr, nil), &stdout, &stderr
}

func TestRunCommand(t *testing.T) {
	tests := []struct {
		line   string
		quit   bool
		stdout string
		stderr string
	}{
		{line: ":quit", quit: true},
		{line: ":q", quit: true},
		{line: ":free λx.x y z y", stdout: "y z\n"},
		{line: ":free λx.x", stdout: "no free variables\n"},
		{line: ":free", stderr: "missing expression\n"},
		{line: ":free (x", stderr: "syntax error: expected ')'\n"},
		{line: ":nope", stderr: "unknown command :nope. Type :help for commands.\n"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			sess, stdout, stderr := newCommandSession()
			assert.Equal(t, tt.quit, runCommand(sess, tt.line))
			assert.Equal(t, tt.stdout, stdout.String())
			assert.Equal(t, tt.stderr, stderr.String())
		})
	}
}

func TestRunCommandToggleSteps(t *testing.T) {
	sess, stdout, _ := newCommandSession()

	runCommand(sess, ":steps")
	assert.True(t, sess.Config.ShowSteps)
	runCommand(sess, ":steps")
	assert.False(t, sess.Config.ShowSteps)
	assert.Equal(t, "show steps: true\nshow steps: false\n", stdout.String())
}

func TestRunCommandAST(t *testing.T) {
	sess, stdout, _ := newCommandSession()

	runCommand(sess, ":ast λx.x")
	assert.Equal(t, "lambda.Abs{\n"+
		"    Param: lambda.Var{Name:\"x\"},\n"+
		"    Body:  lambda.Var{Name:\"x\"},\n"+
		"}\n", stdout.String())
}
