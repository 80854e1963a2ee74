package lambda

// Substitute replaces free occurrences of target in expr with replacement.
//
// An abstraction whose parameter is target is returned as is. No renaming is
// done, so a free variable of replacement can be captured by a binder inside
// expr.
func Substitute(expr Term, target Var, replacement Term) Term {
	switch t := expr.(type) {
	case Var:
		if t.Name == target.Name {
			return replacement
		}
		return t
	case Abs:
		if t.Param.Name == target.Name {
			return t
		}
		return Abs{Param: t.Param, Body: Substitute(t.Body, target, replacement)}
	case App:
		return App{
			Fun: Substitute(t.Fun, target, replacement),
			Arg: Substitute(t.Arg, target, replacement),
		}
	default:
		panic(unsupported(expr))
	}
}
