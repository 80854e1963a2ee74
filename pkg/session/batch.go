package session

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vic/gobeta/pkg/config"
)

type fileOutput struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
	err    error
}

// EvalFiles evaluates each file independently, at most Config.Workers at a
// time. Output is buffered per file and written in the order of paths. A
// failing file does not stop the others; all failures are returned joined.
func (s *Session) EvalFiles(ctx context.Context, paths []string) error {
	// Buffers are never terminals, so decide on color against the real
	// writers up front.
	child := *s
	child.Config.Color = config.ColorNever
	if s.colorEnabled(s.Stdout) {
		child.Config.Color = config.ColorAlways
	}

	outputs := make([]*fileOutput, len(paths))

	var g errgroup.Group
	g.SetLimit(max(1, s.Config.Workers))
	for i, path := range paths {
		out := &fileOutput{}
		outputs[i] = out
		g.Go(func() error {
			src, err := os.ReadFile(path)
			if err != nil {
				out.err = errors.Wrap(err, "reading file")
			} else {
				s.Logger.DebugContext(ctx, "evaluating", "file", path)
				_, out.err = child.eval(ctx, string(src), &out.stdout, &out.stderr)
			}
			if out.err != nil {
				out.err = errors.Wrap(out.err, path)
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for i, out := range outputs {
		s.printf(s.Stdout, "%s\n", labelStyle.Render("==> "+paths[i]))
		_, _ = s.Stdout.Write(out.stdout.Bytes())
		_, _ = s.Stderr.Write(out.stderr.Bytes())
		if out.err != nil {
			errs = append(errs, out.err)
		}
	}
	return errors.WithStack(stderrors.Join(errs...))
}
