package evaluator

import (
	"strings"

	"github.com/sandrolain/imagemath/pkg/types"
)

// absName is the only built-in reachable without a namespace entry.
const absName = "abs"

// NameRef is a free identifier found in an expression.
type NameRef struct {
	Name     string
	Position int
}

// FreeNames returns the identifiers of root that are not bound by an
// enclosing lambda, in source order.
func FreeNames(root *types.ASTNode) []NameRef {
	var refs []NameRef
	collectFreeNames(root, nil, &refs)
	return refs
}

func collectFreeNames(n *types.ASTNode, bound map[string]bool, refs *[]NameRef) {
	if n == nil {
		return
	}
	switch n.Type {
	case types.NodeName:
		if !bound[n.StrValue] {
			*refs = append(*refs, NameRef{Name: n.StrValue, Position: n.Position})
		}
		return
	case types.NodeLambda:
		inner := make(map[string]bool, len(bound)+len(n.Params))
		for k := range bound {
			inner[k] = true
		}
		for _, p := range n.Params {
			inner[p] = true
		}
		collectFreeNames(n.LHS, inner, refs)
		return
	}
	collectFreeNames(n.LHS, bound, refs)
	collectFreeNames(n.RHS, bound, refs)
	collectFreeNames(n.Else, bound, refs)
	for _, arg := range n.Arguments {
		collectFreeNames(arg, bound, refs)
	}
}

// checkNames rejects any free identifier missing from ns, except abs, and
// any lambda parameter containing a double underscore.
func checkNames(root *types.ASTNode, ns map[string]any) error {
	var paramErr error
	types.Walk(root, func(n *types.ASTNode) bool {
		if paramErr != nil {
			return false
		}
		if n.Type == types.NodeLambda {
			for _, p := range n.Params {
				if strings.Contains(p, "__") {
					paramErr = forbiddenName(p, n.Position)
					return false
				}
			}
		}
		return true
	})
	if paramErr != nil {
		return paramErr
	}

	for _, ref := range FreeNames(root) {
		if ref.Name == absName {
			continue
		}
		if _, ok := ns[ref.Name]; !ok {
			return forbiddenName(ref.Name, ref.Position)
		}
	}
	return nil
}

func forbiddenName(name string, pos int) error {
	return types.NewError(types.ErrForbiddenName, "'"+name+"' not allowed", pos).WithToken(name)
}
