// Package service exposes parsing and reduction over JSON-RPC 2.0.
package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"
	"github.com/pkg/errors"

	"github.com/vic/gobeta/pkg/lambda"
)

// CodeStepLimit is returned when Normalize runs out of steps.
const CodeStepLimit jrpc2.Code = -32001

type ExprParams struct {
	Expr string `json:"expr"`
}

type NormalizeParams struct {
	Expr     string `json:"expr"`
	MaxSteps int    `json:"max_steps,omitempty"`
}

type ParseResult struct {
	Term     string   `json:"term"`
	FreeVars []string `json:"free_vars"`
}

type StepResult struct {
	Term    string `json:"term"`
	Changed bool   `json:"changed"`
}

type NormalizeResult struct {
	Term  string `json:"term"`
	Steps int    `json:"steps"`
}

// SyntaxErrorData is attached to InvalidParams errors caused by bad input.
type SyntaxErrorData struct {
	Offset int    `json:"offset"`
	Input  string `json:"input"`
}

// Service answers Parse, Step and Normalize calls.
type Service struct {
	// MaxSteps applies when a Normalize call does not set its own limit.
	MaxSteps int
	Logger   *slog.Logger
}

func New(maxSteps int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{MaxSteps: maxSteps, Logger: logger}
}

// Methods returns the method table for a jrpc2 server.
func (s *Service) Methods() handler.Map {
	return handler.Map{
		"Parse":     handler.New(s.Parse),
		"Step":      handler.New(s.Step),
		"Normalize": handler.New(s.Normalize),
	}
}

// Serve handles newline-delimited requests from r until it is closed.
func (s *Service) Serve(ctx context.Context, r io.Reader, w io.WriteCloser) error {
	srv := jrpc2.NewServer(s.Methods(), &jrpc2.ServerOptions{
		Logger: func(text string) { s.Logger.Debug(text) },
	}).Start(channel.Line(r, w))

	s.Logger.InfoContext(ctx, "serving")

	stop := context.AfterFunc(ctx, srv.Stop)
	defer stop()
	return srv.Wait()
}

func (s *Service) Parse(ctx context.Context, params ExprParams) (ParseResult, error) {
	term, err := parse(params.Expr)
	if err != nil {
		return ParseResult{}, err
	}
	return ParseResult{Term: term.String(), FreeVars: lambda.FreeVars(term)}, nil
}

func (s *Service) Step(ctx context.Context, params ExprParams) (StepResult, error) {
	term, err := parse(params.Expr)
	if err != nil {
		return StepResult{}, err
	}
	next, changed := lambda.ReduceStep(term)
	return StepResult{Term: next.String(), Changed: changed}, nil
}

func (s *Service) Normalize(ctx context.Context, params NormalizeParams) (NormalizeResult, error) {
	term, err := parse(params.Expr)
	if err != nil {
		return NormalizeResult{}, err
	}

	limit := params.MaxSteps
	if limit <= 0 {
		limit = s.MaxSteps
	}
	reducer := lambda.NewReducer(lambda.WithMaxSteps(limit), lambda.WithLogger(s.Logger))
	normal, err := reducer.Run(ctx, term)
	steps := reducer.Stats().Steps
	switch {
	case errors.Is(err, lambda.ErrStepLimit):
		return NormalizeResult{}, withData(&jrpc2.Error{
			Code:    CodeStepLimit,
			Message: err.Error(),
		}, NormalizeResult{Term: normal.String(), Steps: steps})
	case err != nil:
		return NormalizeResult{}, err
	}
	return NormalizeResult{Term: normal.String(), Steps: steps}, nil
}

func parse(expr string) (lambda.Term, error) {
	term, err := lambda.Parse(expr)
	if err != nil {
		var serr *lambda.SyntaxError
		if errors.As(err, &serr) {
			return nil, withData(&jrpc2.Error{
				Code:    jrpc2.InvalidParams,
				Message: serr.Msg,
			}, SyntaxErrorData{Offset: serr.Offset, Input: serr.Input})
		}
		return nil, err
	}
	return term, nil
}

func withData(e *jrpc2.Error, data any) *jrpc2.Error {
	raw, err := json.Marshal(data)
	if err == nil {
		e.Data = raw
	}
	return e
}
