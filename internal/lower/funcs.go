package lower

import (
	"strings"

	"solir/internal/cst"
	"solir/internal/errs"
	"solir/internal/ir"
	"solir/internal/irbuilder"
)

func visibilityOf(s string) ir.Visibility {
	switch s {
	case "external":
		return ir.VisExternal
	case "internal":
		return ir.VisInternal
	case "private":
		return ir.VisPrivate
	default:
		return ir.VisPublic
	}
}

func mutabilityOf(s string) ir.Mutability {
	switch s {
	case "pure":
		return ir.MutPure
	case "payable":
		return ir.MutPayable
	case "view":
		return ir.MutView
	default:
		return ir.MutNonPayable
	}
}

// lowerFunction lowers one FunctionDecl node end to end. On
// unrecoverable internal errors it records a diagnostic and returns
// nil rather than panicking, so a single malformed function doesn't
// prevent the others from being lowered.
func (l *Lowerer) lowerFunction(n *cst.Node) *ir.Function {
	l.fnName = n.Text

	var paramNodes []*cst.Node
	var returnNodes []*cst.Node
	var body *cst.Node
	for _, c := range n.Children {
		switch {
		case c.Kind == cst.KindParam:
			paramNodes = append(paramNodes, c)
		case c.Kind == cst.KindTypeRef && c.Attr["is_return"] == "true":
			returnNodes = append(returnNodes, c)
		case c.Kind == cst.KindBlock:
			body = c
		}
	}

	var params []ir.Param
	for _, p := range paramNodes {
		params = append(params, ir.Param{Name: p.Text, Type: l.resolveType(p.Children[0])})
	}
	var returns []ir.Type
	for _, r := range returnNodes {
		returns = append(returns, l.resolveType(r))
	}

	sig := ir.Signature{
		Name:    n.Text,
		Params:  params,
		Returns: returns,
		Payable: n.Attr["mutability"] == "payable",
	}
	vis := visibilityOf(n.Attr["visibility"])
	mut := mutabilityOf(n.Attr["mutability"])
	var modifiers []string
	if m := n.Attr["modifiers"]; m != "" {
		modifiers = strings.Split(m, ",")
	}

	b := irbuilder.New(sig, vis, mut, modifiers)
	l.fn = irbuilder.NewCursor(b)

	fnScope := newScope(nil)
	entry := b.EntryBlock()
	for i, p := range params {
		fnScope.bind(p.Name, ir.BlockParamVal(entry, uint32(i), p.Type))
	}
	l.scope = fnScope

	if body != nil {
		l.lowerBlock(body)
	}

	// A function body that falls off the end without an explicit return
	// needs a terminator; synthesize a bare Return so every reachable
	// block is terminated exactly once.
	if !l.fn.CurrentSealed() {
		if err := l.fn.Return(nil, n.Span); err != nil {
			l.addDiag(errs.BuilderError, err.Error(), n.Span)
		}
	}

	fn, err := l.fn.Build()
	if err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
		return nil
	}
	return fn
}
