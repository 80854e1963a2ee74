package lambda

import (
	"strings"

	"github.com/pkg/errors"
)

// Syntax error messages reported by the parser.
const (
	msgExpectedVariable = "expected a variable after lambda"
	msgExpectedDot      = "expected dot after lambda variable"
	msgExpectedRParen   = "expected ')'"
	msgUnexpectedEOF    = "unexpected end of input"
	msgUnexpectedChar   = "unexpected character: "
	msgExtraCharacters  = "extra characters after valid expression"
)

// SyntaxError is returned by Parse when the input is not a well-formed term.
type SyntaxError struct {
	Msg string
	// Offset is the rune index into Input where parsing stopped.
	Offset int
	// Input is the source with whitespace removed.
	Input string
}

func (e *SyntaxError) Error() string {
	return e.Msg
}

// Caret renders the stripped input with a marker under the failing offset.
func (e *SyntaxError) Caret() string {
	var b strings.Builder
	b.WriteString(e.Input)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", e.Offset))
	b.WriteByte('^')
	return b.String()
}

// IsSyntaxError reports whether err (or anything it wraps) is a *SyntaxError.
func IsSyntaxError(err error) bool {
	var serr *SyntaxError
	return errors.As(err, &serr)
}

func unsupported(t Term) error {
	return errors.Errorf("unsupported term shape %T", t)
}
