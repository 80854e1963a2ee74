package lambda

import (
	"strings"
	"unicode"
)

// Parser is a single-pass recursive descent parser over whitespace-free input.
//
// Every production reads and advances the same cursor; there is no
// backtracking.
type Parser struct {
	input []rune
	pos   int
}

// NewParser prepares input for parsing. All whitespace is discarded up front,
// even between characters that would otherwise form one token.
func NewParser(input string) *Parser {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
	return &Parser{input: []rune(stripped)}
}

func isLambda(ch rune) bool {
	return ch == 'λ' || ch == '\\'
}

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.input)
}

func (p *Parser) peek() rune {
	return p.input[p.pos]
}

func (p *Parser) fail(msg string) error {
	return &SyntaxError{Msg: msg, Offset: p.pos, Input: string(p.input)}
}

// Parse parses the whole input as a single expression.
func (p *Parser) Parse() (Term, error) {
	term, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.fail(msgExtraCharacters)
	}
	return term, nil
}

// Expr ::= Lambda | AppChain
func (p *Parser) parseExpr() (Term, error) {
	if !p.atEnd() && isLambda(p.peek()) {
		return p.parseLambda()
	}
	return p.parseApp()
}

// Lambda ::= ('λ' | '\') Letter '.' Expr
func (p *Parser) parseLambda() (Term, error) {
	p.pos++ // lambda symbol

	if p.atEnd() || !isLetter(p.peek()) {
		return nil, p.fail(msgExpectedVariable)
	}
	param := Var{Name: string(p.peek())}
	p.pos++

	if p.atEnd() || p.peek() != '.' {
		return nil, p.fail(msgExpectedDot)
	}
	p.pos++

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return Abs{Param: param, Body: body}, nil
}

// AppChain ::= Factor Factor*
//
// Juxtaposition is left-associative: the loop folds each new factor into the
// accumulated left term.
func (p *Parser) parseApp() (Term, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	for !p.atEnd() && p.peek() != ')' && p.peek() != '.' {
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = App{Fun: left, Arg: right}
	}

	return left, nil
}

// Factor ::= '(' Expr ')' | Lambda | Letter
func (p *Parser) parseFactor() (Term, error) {
	if p.atEnd() {
		return nil, p.fail(msgUnexpectedEOF)
	}

	ch := p.peek()
	switch {
	case ch == '(':
		p.pos++
		term, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.atEnd() || p.peek() != ')' {
			return nil, p.fail(msgExpectedRParen)
		}
		p.pos++
		return term, nil
	case isLambda(ch):
		return p.parseLambda()
	case isLetter(ch):
		p.pos++
		return Var{Name: string(ch)}, nil
	default:
		return nil, p.fail(msgUnexpectedChar + string(ch))
	}
}

// Parse parses a lambda term from a string.
func Parse(input string) (Term, error) {
	p := NewParser(input)
	return p.Parse()
}
