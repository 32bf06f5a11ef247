package lower

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"solir/internal/cst"
	"solir/internal/errs"
	"solir/internal/ir"
	"solir/internal/srcreg"
)

// contextVars maps "base.member" spellings to the ContextVariable enum
// (Expression lowering: "Member expression: special-cases the
// context objects (msg.sender → GetContext(MsgSender), etc.)").
var contextVars = map[string]struct {
	v ir.ContextVar
	t ir.Type
}{
	"msg.sender":        {ir.CtxMsgSender, ir.AddressType{}},
	"msg.value":         {ir.CtxMsgValue, ir.UintType{Bits: 256}},
	"msg.data":          {ir.CtxMsgData, ir.BytesType{N: 0}},
	"msg.sig":           {ir.CtxMsgSig, ir.BytesType{N: 4}},
	"block.number":      {ir.CtxBlockNumber, ir.UintType{Bits: 256}},
	"block.timestamp":   {ir.CtxBlockTimestamp, ir.UintType{Bits: 256}},
	"block.difficulty":  {ir.CtxBlockDifficulty, ir.UintType{Bits: 256}},
	"block.gaslimit":    {ir.CtxBlockGasLimit, ir.UintType{Bits: 256}},
	"block.coinbase":    {ir.CtxBlockCoinbase, ir.AddressType{}},
	"block.basefee":     {ir.CtxBlockBaseFee, ir.UintType{Bits: 256}},
	"tx.origin":         {ir.CtxTxOrigin, ir.AddressType{}},
	"tx.gasprice":       {ir.CtxTxGasPrice, ir.UintType{Bits: 256}},
}

// lowerExpr dispatches on the expression node's kind, always
// producing a well-typed Value even on failure (zero-fallback
// robustness).
func (l *Lowerer) lowerExpr(n *cst.Node) ir.Value {
	switch n.Kind {
	case cst.KindIdentExpr:
		return l.lowerIdent(n)
	case cst.KindNumberLit:
		return l.lowerNumber(n)
	case cst.KindBoolLit:
		return ir.ConstVal(ir.BoolConst(n.Text == "true"))
	case cst.KindStringLit:
		return ir.ConstVal(ir.StringConst(n.Text))
	case cst.KindBinaryExpr:
		return l.lowerBinary(n)
	case cst.KindUnaryExpr:
		return l.lowerUnary(n)
	case cst.KindCallExpr:
		return l.lowerCall(n)
	case cst.KindMemberExpr:
		return l.lowerMember(n)
	case cst.KindIndexExpr:
		return l.lowerIndex(n)
	default:
		return l.zeroFallback(errs.UnsupportedFeature, "unsupported expression kind "+n.Kind.String(), n.Span, ir.UintType{Bits: 256})
	}
}

func (l *Lowerer) lowerIdent(n *cst.Node) ir.Value {
	if v, ok := l.scope.lookup(n.Text); ok {
		return v
	}
	if sv, ok := l.storage[n.Text]; ok {
		v, err := l.fn.StorageLoad(ir.StorageKey{Kind: ir.KeySlot, Slot: sv.Slot}, sv.Type, n.Span)
		if err != nil {
			return l.zeroFallback(errs.BuilderError, err.Error(), n.Span, sv.Type)
		}
		return v
	}
	return l.zeroFallback(errs.SymbolNotFound, "undeclared identifier "+n.Text, n.Span, ir.UintType{Bits: 256})
}

func (l *Lowerer) lowerNumber(n *cst.Node) ir.Value {
	text := n.Text
	base := 10
	if strings.HasPrefix(text, "0x") {
		base = 16
		text = text[2:]
	}
	magnitude, ok := new(big.Int).SetString(text, base)
	if !ok {
		return l.zeroFallback(errs.ParseError, "malformed numeric literal "+n.Text, n.Span, ir.UintType{Bits: 256})
	}
	u, overflow := uint256.FromBig(magnitude)
	if overflow {
		return l.zeroFallback(errs.ResourceLimit, "numeric literal exceeds 256 bits", n.Span, ir.UintType{Bits: 256})
	}
	return ir.ConstVal(ir.UintConst(u, 256))
}

// lowerBinary maps operators to instructions; && and || are
// short-circuited using Select rather than control flow.
func (l *Lowerer) lowerBinary(n *cst.Node) ir.Value {
	left := l.lowerExpr(n.Children[0])
	right := l.lowerExpr(n.Children[1])
	sp := n.Span

	switch n.Text {
	case "&&":
		v, err := l.fn.Select(left, right, ir.ConstVal(ir.BoolConst(false)), sp)
		return l.orZero(v, err, sp, ir.BoolType{})
	case "||":
		v, err := l.fn.Select(left, ir.ConstVal(ir.BoolConst(true)), right, sp)
		return l.orZero(v, err, sp, ir.BoolType{})
	case "==":
		v, err := l.fn.Eq(left, right, sp)
		return l.orZero(v, err, sp, ir.BoolType{})
	case "<":
		v, err := l.fn.Lt(left, right, sp)
		return l.orZero(v, err, sp, ir.BoolType{})
	case ">":
		v, err := l.fn.Gt(left, right, sp)
		return l.orZero(v, err, sp, ir.BoolType{})
	case "<=":
		gt, err := l.fn.Gt(left, right, sp)
		if err != nil {
			return l.zeroFallback(errs.BuilderError, err.Error(), sp, ir.BoolType{})
		}
		v, err := l.fn.Not(gt, sp)
		return l.orZero(v, err, sp, ir.BoolType{})
	case ">=":
		lt, err := l.fn.Lt(left, right, sp)
		if err != nil {
			return l.zeroFallback(errs.BuilderError, err.Error(), sp, ir.BoolType{})
		}
		v, err := l.fn.Not(lt, sp)
		return l.orZero(v, err, sp, ir.BoolType{})
	case "!=":
		eq, err := l.fn.Eq(left, right, sp)
		if err != nil {
			return l.zeroFallback(errs.BuilderError, err.Error(), sp, ir.BoolType{})
		}
		v, err := l.fn.Not(eq, sp)
		return l.orZero(v, err, sp, ir.BoolType{})
	case "+":
		v, err := l.fn.Add(left, right, left.Type, sp)
		return l.orZero(v, err, sp, left.Type)
	case "-":
		v, err := l.fn.Sub(left, right, left.Type, sp)
		return l.orZero(v, err, sp, left.Type)
	case "*":
		v, err := l.fn.Mul(left, right, left.Type, sp)
		return l.orZero(v, err, sp, left.Type)
	case "/":
		v, err := l.fn.Div(left, right, left.Type, sp)
		return l.orZero(v, err, sp, left.Type)
	case "%":
		v, err := l.fn.Mod(left, right, left.Type, sp)
		return l.orZero(v, err, sp, left.Type)
	case "&":
		v, err := l.fn.And(left, right, sp)
		return l.orZero(v, err, sp, left.Type)
	case "|":
		v, err := l.fn.Or(left, right, sp)
		return l.orZero(v, err, sp, left.Type)
	case "^":
		v, err := l.fn.Xor(left, right, left.Type, sp)
		return l.orZero(v, err, sp, left.Type)
	default:
		return l.zeroFallback(errs.UnsupportedFeature, "unsupported operator "+n.Text, sp, left.Type)
	}
}

func (l *Lowerer) orZero(v ir.Value, err error, sp srcreg.Span, t ir.Type) ir.Value {
	if err != nil {
		return l.zeroFallback(errs.BuilderError, err.Error(), sp, t)
	}
	return v
}

// lowerUnary maps `-x` to 0 - x, `!` to Not, and `++`/`--` to a
// read-modify-write on the local binding or storage slot.
func (l *Lowerer) lowerUnary(n *cst.Node) ir.Value {
	sp := n.Span
	switch n.Text {
	case "!":
		val := l.lowerExpr(n.Children[0])
		v, err := l.fn.Not(val, sp)
		return l.orZero(v, err, sp, ir.BoolType{})
	case "-":
		val := l.lowerExpr(n.Children[0])
		zero := ir.ConstVal(ir.ZeroOf(val.Type))
		v, err := l.fn.Sub(zero, val, val.Type, sp)
		return l.orZero(v, err, sp, val.Type)
	case "++", "--":
		return l.lowerIncDec(n)
	default:
		val := l.lowerExpr(n.Children[0])
		return l.zeroFallback(errs.UnsupportedFeature, "unsupported unary operator "+n.Text, sp, val.Type)
	}
}

func (l *Lowerer) lowerIncDec(n *cst.Node) ir.Value {
	target := n.Children[0]
	sp := n.Span
	if target.Kind != cst.KindIdentExpr {
		return l.zeroFallback(errs.UnsupportedFeature, n.Text+" requires a simple identifier operand", sp, ir.UintType{Bits: 256})
	}
	one := ir.ConstVal(ir.UintConstFromUint64(1, 256))
	op := "+="
	if n.Text == "--" {
		op = "-="
	}
	cur := l.lowerIdent(target)
	l.assignIdent(target.Text, one, op, sp)
	return cur
}

// lowerCall dispatches a call by callee name: require/assert/revert and
// payable(x) are built in, other plain names become internal calls,
// and member calls go to lowerExternalCallLike.
func (l *Lowerer) lowerCall(n *cst.Node) ir.Value {
	callee := n.Children[0]
	args := n.Children[1:]
	sp := n.Span

	if callee.Kind == cst.KindIdentExpr {
		switch callee.Text {
		case "require":
			return l.lowerGuardCall(n, args, false)
		case "assert":
			return l.lowerGuardCall(n, args, true)
		case "revert":
			msg := ""
			if len(args) > 0 && args[0].Kind == cst.KindStringLit {
				msg = args[0].Text
			}
			if err := l.fn.Revert(msg, sp); err != nil {
				l.addDiag(errs.BuilderError, err.Error(), sp)
			}
			return ir.Undefined(ir.UintType{Bits: 256})
		case "payable":
			if len(args) == 1 {
				return l.lowerExpr(args[0])
			}
		}

		var vals []ir.Value
		for _, a := range args {
			vals = append(vals, l.lowerExpr(a))
		}
		v, err := l.fn.CallInternal(callee.Text, vals, ir.UintType{Bits: 256}, sp)
		return l.orZero(v, err, sp, ir.UintType{Bits: 256})
	}

	if callee.Kind == cst.KindMemberExpr {
		return l.lowerExternalCallLike(callee, args, n.Span)
	}

	return l.zeroFallback(errs.UnsupportedFeature, "unsupported call target", sp, ir.UintType{Bits: 256})
}

func (l *Lowerer) lowerGuardCall(n *cst.Node, args []*cst.Node, isAssert bool) ir.Value {
	sp := n.Span
	if len(args) == 0 {
		l.addDiag(errs.ParseError, "require/assert needs a condition", sp)
		return ir.Undefined(ir.BoolType{})
	}
	cond := l.lowerExpr(args[0])
	msg := ""
	if len(args) > 1 && args[1].Kind == cst.KindStringLit {
		msg = args[1].Text
	}
	var err error
	if isAssert {
		err = l.fn.Assert(cond, msg, sp)
	} else {
		err = l.fn.Require(cond, msg, sp)
	}
	if err != nil {
		l.addDiag(errs.BuilderError, err.Error(), sp)
	}
	return ir.Undefined(ir.BoolType{})
}

// lowerExternalCallLike lowers member calls to an external Call on x:
// x.transfer(amount) and x.send(amount) carry amount as the call value;
// x.call(args...) passes its arguments and no value (call options such
// as {value: ...} are not parsed); any other x.m(args...) likewise
// passes its arguments and no value. No function selector is recorded.
func (l *Lowerer) lowerExternalCallLike(member *cst.Node, args []*cst.Node, sp srcreg.Span) ir.Value {
	method := member.Text
	target := l.lowerExpr(member.Children[0])

	switch method {
	case "transfer", "send":
		if len(args) != 1 {
			return l.zeroFallback(errs.ParseError, method+" requires exactly one argument", sp, ir.BoolType{})
		}
		amount := l.lowerExpr(args[0])
		v, err := l.fn.CallExternal(target, nil, &amount, ir.BoolType{}, sp)
		return l.orZero(v, err, sp, ir.BoolType{})
	case "call":
		var amount *ir.Value
		var vals []ir.Value
		for _, a := range args {
			vals = append(vals, l.lowerExpr(a))
		}
		v, err := l.fn.CallExternal(target, vals, amount, ir.BytesType{N: 32}, sp)
		return l.orZero(v, err, sp, ir.BytesType{N: 32})
	case "balance":
		return l.zeroFallback(errs.UnsupportedFeature, ".balance is treated as a member read, not a call", sp, ir.UintType{Bits: 256})
	default:
		var vals []ir.Value
		for _, a := range args {
			vals = append(vals, l.lowerExpr(a))
		}
		v, err := l.fn.CallExternal(target, vals, nil, ir.UintType{Bits: 256}, sp)
		return l.orZero(v, err, sp, ir.UintType{Bits: 256})
	}
}

// lowerMember special-cases context objects; otherwise it is treated
// as a struct load, stubbed as a fresh temp
func (l *Lowerer) lowerMember(n *cst.Node) ir.Value {
	base := n.Children[0]
	if base.Kind == cst.KindIdentExpr {
		key := base.Text + "." + n.Text
		if cv, ok := contextVars[key]; ok {
			v, err := l.fn.GetContext(cv.v, cv.t, n.Span)
			return l.orZero(v, err, n.Span, cv.t)
		}
	}
	l.lowerExpr(base)
	return l.fn.NewTemp(ir.UintType{Bits: 256})
}

// lowerIndex produces MappingLoad or ArrayLoad depending on the
// declared type of the base.
func (l *Lowerer) lowerIndex(n *cst.Node) ir.Value {
	base := n.Children[0]
	sp := n.Span
	key := l.lowerExpr(n.Children[1])

	if base.Kind != cst.KindIdentExpr {
		return l.zeroFallback(errs.UnsupportedFeature, "indexing requires a simple base identifier", sp, ir.UintType{Bits: 256})
	}
	sv, ok := l.storage[base.Text]
	if !ok {
		return l.zeroFallback(errs.SymbolNotFound, "unknown storage collection "+base.Text, sp, ir.UintType{Bits: 256})
	}

	switch mt := sv.Type.(type) {
	case ir.MappingType:
		baseVal := ir.StorageRefVal(ir.StorageRefId(sv.Slot), sv.Type)
		v, err := l.fn.MappingLoad(baseVal, key, mt.Value, sp)
		return l.orZero(v, err, sp, mt.Value)
	case ir.ArrayType:
		baseVal := ir.StorageRefVal(ir.StorageRefId(sv.Slot), sv.Type)
		v, err := l.fn.ArrayLoad(baseVal, key, mt.Elem, sp)
		return l.orZero(v, err, sp, mt.Elem)
	default:
		return l.zeroFallback(errs.TypeError, base.Text+" is not indexable", sp, ir.UintType{Bits: 256})
	}
}
