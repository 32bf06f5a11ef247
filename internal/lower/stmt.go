package lower

import (
	"solir/internal/cst"
	"solir/internal/errs"
	"solir/internal/ir"
	"solir/internal/srcreg"
)

func (l *Lowerer) lowerBlock(n *cst.Node) {
	l.scope = newScope(l.scope)
	defer func() { l.scope = l.scope.parent }()
	for _, stmt := range n.Children {
		if l.fn.CurrentSealed() {
			// Dead code after an unconditional terminator; nothing further
			// in this block can be reached.
			break
		}
		l.lowerStatement(stmt)
	}
}

// lowerStatement dispatches on the statement kind.
func (l *Lowerer) lowerStatement(n *cst.Node) {
	switch n.Kind {
	case cst.KindReturnStmt:
		l.lowerReturn(n)
	case cst.KindIfStmt:
		l.lowerIf(n)
	case cst.KindWhileStmt:
		l.lowerWhile(n)
	case cst.KindForStmt:
		l.lowerFor(n)
	case cst.KindBreakStmt:
		if err := l.fn.Break(n.Span); err != nil {
			l.addDiag(errs.BuilderError, err.Error(), n.Span)
		}
	case cst.KindContinueStmt:
		if err := l.fn.Continue(n.Span); err != nil {
			l.addDiag(errs.BuilderError, err.Error(), n.Span)
		}
	case cst.KindVarDeclStmt:
		l.lowerVarDecl(n)
	case cst.KindAssignStmt:
		l.lowerAssign(n)
	case cst.KindExprStmt:
		if len(n.Children) > 0 {
			l.lowerExpr(n.Children[0]) // result dropped
		}
	default:
		l.addDiag(errs.UnsupportedFeature, "unsupported statement kind "+n.Kind.String(), n.Span)
	}
}

func (l *Lowerer) lowerReturn(n *cst.Node) {
	if len(n.Children) == 0 {
		if err := l.fn.Return(nil, n.Span); err != nil {
			l.addDiag(errs.BuilderError, err.Error(), n.Span)
		}
		return
	}
	v := l.lowerExpr(n.Children[0])
	if err := l.fn.Return(&v, n.Span); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
	}
}

// lowerIf lowers if/else: branch to then/else, lower each arm, and
// jump any arm that didn't self-terminate to a fresh merge block.
func (l *Lowerer) lowerIf(n *cst.Node) {
	cond := l.lowerExpr(n.Children[0])
	thenB, elseB, mergeB, err := l.fn.IfElse(cond, n.Span)
	if err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
		return
	}

	if err := l.fn.SwitchToBlock(thenB); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
		return
	}
	l.lowerBlock(n.Children[1])
	if err := l.fn.JumpToMergeIfOpen(mergeB, n.Span); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
	}

	if err := l.fn.SwitchToBlock(elseB); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
		return
	}
	if len(n.Children) > 2 {
		l.lowerBlock(n.Children[2])
	}
	if err := l.fn.JumpToMergeIfOpen(mergeB, n.Span); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
	}

	if err := l.fn.SwitchToBlock(mergeB); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
	}
}

// lowerWhile lowers a while loop into header, body and exit blocks.
func (l *Lowerer) lowerWhile(n *cst.Node) {
	header, body, exit, err := l.fn.WhileLoop(n.Span)
	if err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
		return
	}

	if err := l.fn.SwitchToBlock(header); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
		return
	}
	cond := l.lowerExpr(n.Children[0])
	if err := l.fn.Branch(cond, body, nil, exit, nil, n.Span); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
	}

	if err := l.fn.SwitchToBlock(body); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
		return
	}
	l.lowerBlock(n.Children[1])
	if err := l.fn.JumpToMergeIfOpen(header, n.Span); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
	}

	l.fn.CloseLoop()
	if err := l.fn.SwitchToBlock(exit); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
	}
}

// lowerFor lowers a for loop as a while loop with an additional update
// block before the back-edge.
func (l *Lowerer) lowerFor(n *cst.Node) {
	l.scope = newScope(l.scope)
	defer func() { l.scope = l.scope.parent }()

	initNode, condNode, postNode, bodyNode := n.Children[0], n.Children[1], n.Children[2], n.Children[3]
	if initNode.Kind == cst.KindVarDeclStmt {
		l.lowerVarDecl(initNode)
	}

	header, body, update, exit, err := l.fn.ForLoop(n.Span)
	if err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
		return
	}

	if err := l.fn.SwitchToBlock(header); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
		return
	}
	cond := ir.ConstVal(ir.BoolConst(true))
	if condNode.Kind != cst.KindBlock {
		cond = l.lowerExpr(condNode)
	}
	if err := l.fn.Branch(cond, body, nil, exit, nil, n.Span); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
	}

	if err := l.fn.SwitchToBlock(body); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
		return
	}
	l.lowerBlock(bodyNode)
	if err := l.fn.JumpToMergeIfOpen(update, n.Span); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
	}

	if err := l.fn.SwitchToBlock(update); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
		return
	}
	if postNode.Kind != cst.KindBlock {
		l.lowerExpr(postNode)
	}
	if err := l.fn.JumpToMergeIfOpen(header, n.Span); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
	}

	l.fn.CloseLoop()
	if err := l.fn.SwitchToBlock(exit); err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
	}
}

func (l *Lowerer) lowerVarDecl(n *cst.Node) {
	t := l.resolveType(n.Children[0])
	var v ir.Value
	if len(n.Children) > 1 {
		v = l.lowerExpr(n.Children[1])
	} else {
		v = ir.ConstVal(ir.ZeroOf(t))
	}
	bound, err := l.fn.Assign(v, n.Span)
	if err != nil {
		l.addDiag(errs.BuilderError, err.Error(), n.Span)
		bound = v
	}
	l.scope.bind(n.Text, bound)
}

// lowerAssign lowers each assignment target kind: identifier
// (bind or StorageStore), indexed (MappingStore/ArrayStore), compound
// assignment combines load + op + store in the appropriate space.
func (l *Lowerer) lowerAssign(n *cst.Node) {
	target := n.Children[0]
	rhs := l.lowerExpr(n.Children[1])
	op := n.Attr["op"]

	switch target.Kind {
	case cst.KindIdentExpr:
		l.assignIdent(target.Text, rhs, op, n.Span)
	case cst.KindIndexExpr:
		l.assignIndex(target, rhs, op, n.Span)
	default:
		l.addDiag(errs.UnsupportedFeature, "unsupported assignment target kind "+target.Kind.String(), n.Span)
	}
}

// compoundOp combines a current value and the RHS per a compound
// assignment operator ("+=" etc). Plain "=" just returns rhs.
func (l *Lowerer) compoundOp(op string, current, rhs ir.Value, t ir.Type, sp srcreg.Span) ir.Value {
	var (
		v   ir.Value
		err error
	)
	switch op {
	case "+=":
		v, err = l.fn.Add(current, rhs, t, sp)
	case "-=":
		v, err = l.fn.Sub(current, rhs, t, sp)
	case "*=":
		v, err = l.fn.Mul(current, rhs, t, sp)
	case "/=":
		v, err = l.fn.Div(current, rhs, t, sp)
	case "%=":
		v, err = l.fn.Mod(current, rhs, t, sp)
	default:
		return rhs
	}
	if err != nil {
		l.addDiag(errs.BuilderError, err.Error(), sp)
		return rhs
	}
	return v
}

func (l *Lowerer) assignIdent(name string, rhs ir.Value, op string, sp srcreg.Span) {
	if sv, ok := l.storage[name]; ok {
		val := rhs
		if op != "=" {
			cur, err := l.fn.StorageLoad(ir.StorageKey{Kind: ir.KeySlot, Slot: sv.Slot}, sv.Type, sp)
			if err != nil {
				l.addDiag(errs.BuilderError, err.Error(), sp)
			}
			val = l.compoundOp(op, cur, rhs, sv.Type, sp)
		}
		if err := l.fn.StorageStore(ir.StorageKey{Kind: ir.KeySlot, Slot: sv.Slot}, val, sp); err != nil {
			l.addDiag(errs.BuilderError, err.Error(), sp)
		}
		return
	}

	cur, hasLocal := l.scope.lookup(name)
	val := rhs
	if op != "=" {
		if !hasLocal {
			val = l.zeroFallback(errs.SymbolNotFound, "assignment to undeclared identifier "+name, sp, rhs.Type)
		} else {
			val = l.compoundOp(op, cur, rhs, cur.Type, sp)
		}
	}
	bound, err := l.fn.Assign(val, sp)
	if err != nil {
		l.addDiag(errs.BuilderError, err.Error(), sp)
		bound = val
	}
	l.scope.bind(name, bound)
}

// assignIndex lowers an indexed assignment target to MappingStore or
// ArrayStore based on the declared type of the base.
func (l *Lowerer) assignIndex(target *cst.Node, rhs ir.Value, op string, sp srcreg.Span) {
	base := target.Children[0]
	key := l.lowerExpr(target.Children[1])

	if base.Kind != cst.KindIdentExpr {
		l.addDiag(errs.UnsupportedFeature, "indexed assignment requires a simple base identifier", sp)
		return
	}
	sv, ok := l.storage[base.Text]
	if !ok {
		l.addDiag(errs.SymbolNotFound, "unknown storage collection "+base.Text, sp)
		return
	}

	val := rhs
	switch mt := sv.Type.(type) {
	case ir.MappingType:
		baseVal := ir.StorageRefVal(ir.StorageRefId(sv.Slot), sv.Type)
		if op != "=" {
			cur, err := l.fn.MappingLoad(baseVal, key, mt.Value, sp)
			if err != nil {
				l.addDiag(errs.BuilderError, err.Error(), sp)
			}
			val = l.compoundOp(op, cur, rhs, mt.Value, sp)
		}
		if err := l.fn.MappingStore(baseVal, key, val, sp); err != nil {
			l.addDiag(errs.BuilderError, err.Error(), sp)
		}
	case ir.ArrayType:
		baseVal := ir.StorageRefVal(ir.StorageRefId(sv.Slot), sv.Type)
		if op != "=" {
			cur, err := l.fn.ArrayLoad(baseVal, key, mt.Elem, sp)
			if err != nil {
				l.addDiag(errs.BuilderError, err.Error(), sp)
			}
			val = l.compoundOp(op, cur, rhs, mt.Elem, sp)
		}
		if err := l.fn.ArrayStore(baseVal, key, val, sp); err != nil {
			l.addDiag(errs.BuilderError, err.Error(), sp)
		}
	default:
		l.addDiag(errs.TypeError, base.Text+" is not an indexable storage type", sp)
	}
}
