package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/kr/pretty"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vic/gobeta/pkg/lambda"
	"github.com/vic/gobeta/pkg/session"
)

const (
	prompt = "λ> "
	banner = "gobeta REPL\nCtrl+C cancels input or a running reduction, Ctrl+D exits. Type :help for commands."
)

const helpText = `REPL commands:
  :help          Show this help
  :quit          Exit the REPL
  :steps         Toggle printing of intermediate terms
  :free <expr>   List the free variables of an expression
  :ast <expr>    Dump the parsed syntax tree
Anything else is parsed and reduced.`

func replCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			sess := session.New(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
			return runREPL(cmd.Context(), sess)
		},
	}
}

func runREPL(ctx context.Context, sess *session.Session) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := sess.Config.HistoryFile
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if err := os.MkdirAll(filepath.Dir(histPath), 0755); err != nil {
			sess.Logger.Warn("cannot save history", "error", err)
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintln(sess.Stdout, banner)

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(sess.Stdout)
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading input")
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(line, ":") {
			if quit := runCommand(sess, line); quit {
				return nil
			}
			continue
		}

		// Ctrl+C interrupts only this reduction, not the REPL.
		evalCtx, stop := signal.NotifyContext(context.WithoutCancel(ctx), os.Interrupt)
		_, err = sess.Eval(evalCtx, line)
		stop()
		if err != nil {
			sess.Logger.Debug("evaluation failed", "error", err)
		}
	}
}

// runCommand executes a REPL command and reports whether the REPL should exit.
func runCommand(sess *session.Session, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(sess.Stdout, helpText)
	case ":steps":
		sess.Config.ShowSteps = !sess.Config.ShowSteps
		fmt.Fprintf(sess.Stdout, "show steps: %t\n", sess.Config.ShowSteps)
	case ":free":
		term, ok := parseArg(sess, arg)
		if !ok {
			return false
		}
		free := lambda.FreeVars(term)
		if len(free) == 0 {
			fmt.Fprintln(sess.Stdout, "no free variables")
			return false
		}
		fmt.Fprintln(sess.Stdout, strings.Join(free, " "))
	case ":ast":
		term, ok := parseArg(sess, arg)
		if !ok {
			return false
		}
		_, _ = pretty.Fprintf(sess.Stdout, "%# v\n", term)
	default:
		fmt.Fprintf(sess.Stderr, "unknown command %s. Type :help for commands.\n", name)
	}
	return false
}

func parseArg(sess *session.Session, arg string) (lambda.Term, bool) {
	if arg == "" {
		fmt.Fprintln(sess.Stderr, "missing expression")
		return nil, false
	}
	term, err := lambda.Parse(arg)
	if err != nil {
		fmt.Fprintf(sess.Stderr, "syntax error: %s\n", err)
		return nil, false
	}
	return term, true
}
