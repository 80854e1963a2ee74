package lambda

// ReduceStep performs at most one beta contraction.
//
// A redex at the root is contracted first. Otherwise the function side of an
// application is searched completely before its argument, and abstraction
// bodies are searched last. The boolean reports whether anything changed.
func ReduceStep(expr Term) (Term, bool) {
	switch t := expr.(type) {
	case App:
		if abs, ok := t.Fun.(Abs); ok {
			return Substitute(abs.Body, abs.Param, t.Arg), true
		}
		if fun, changed := ReduceStep(t.Fun); changed {
			return App{Fun: fun, Arg: t.Arg}, true
		}
		if arg, changed := ReduceStep(t.Arg); changed {
			return App{Fun: t.Fun, Arg: arg}, true
		}
		return t, false
	case Abs:
		if body, changed := ReduceStep(t.Body); changed {
			return Abs{Param: t.Param, Body: body}, true
		}
		return t, false
	case Var:
		return t, false
	default:
		panic(unsupported(expr))
	}
}

// Normalize reduces expr until no step applies.
//
// It does not return for terms that have no normal form under ReduceStep's
// order. Use a Reducer to bound the work.
func Normalize(expr Term) Term {
	current := expr
	for changed := true; changed; {
		current, changed = ReduceStep(current)
	}
	return current
}

// IsNormal reports whether expr contains no redex.
func IsNormal(expr Term) bool {
	_, changed := ReduceStep(expr)
	return !changed
}
