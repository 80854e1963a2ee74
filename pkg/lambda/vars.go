package lambda

import (
	"sort"

	"github.com/samber/lo"
)

// FreeVars returns the sorted names of the variables occurring free in t.
func FreeVars(t Term) []string {
	names := lo.Uniq(collectFree(t, nil, nil))
	sort.Strings(names)
	return names
}

func collectFree(t Term, bound []string, acc []string) []string {
	switch x := t.(type) {
	case Var:
		if lo.Contains(bound, x.Name) {
			return acc
		}
		return append(acc, x.Name)
	case Abs:
		return collectFree(x.Body, append(bound[:len(bound):len(bound)], x.Param.Name), acc)
	case App:
		acc = collectFree(x.Fun, bound, acc)
		return collectFree(x.Arg, bound, acc)
	default:
		panic(unsupported(t))
	}
}
