package lambda

import "fmt"

// Term represents a lambda calculus term.
//
// The set of terms is closed: Var, Abs and App are the only implementations.
type Term interface {
	String() string
	isTerm()
}

// Var represents a variable usage.
type Var struct {
	Name string
}

func (Var) isTerm() {}

func (v Var) String() string {
	return v.Name
}

// Abs represents an abstraction (lambda).
type Abs struct {
	Param Var
	Body  Term
}

func (Abs) isTerm() {}

func (a Abs) String() string {
	return fmt.Sprintf("(λ%s.%s)", a.Param, a.Body)
}

// App represents an application.
type App struct {
	Fun Term
	Arg Term
}

func (App) isTerm() {}

func (a App) String() string {
	return fmt.Sprintf("(%s %s)", a.Fun, a.Arg)
}

// Equal reports whether a and b have the same structure and variable names.
func Equal(a, b Term) bool {
	switch x := a.(type) {
	case Var:
		y, ok := b.(Var)
		return ok && x.Name == y.Name
	case Abs:
		y, ok := b.(Abs)
		return ok && x.Param.Name == y.Param.Name && Equal(x.Body, y.Body)
	case App:
		y, ok := b.(App)
		return ok && Equal(x.Fun, y.Fun) && Equal(x.Arg, y.Arg)
	default:
		panic(unsupported(a))
	}
}

// Size counts the nodes of t. Abstraction parameters are not counted.
func Size(t Term) int {
	switch x := t.(type) {
	case Var:
		return 1
	case Abs:
		return 1 + Size(x.Body)
	case App:
		return 1 + Size(x.Fun) + Size(x.Arg)
	default:
		panic(unsupported(t))
	}
}
