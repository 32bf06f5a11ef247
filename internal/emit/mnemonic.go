// Package emit renders a Contract's IR as deterministic plain text
// (no terminal color in either variant), using a fixed mnemonic table
// shared by the baseline and annotated variants.
package emit

import (
	"fmt"
	"strings"

	"solir/internal/ir"
)

func op(o ir.Op) string { return strings.ToLower(string(o)) }

// mnemonic renders one instruction's mnemonic form, e.g. "v3 =
// iadd.uint256 v1, v2" or "v3 = call %f(v1, v2)".
func mnemonic(inst ir.Instruction) string {
	switch v := inst.(type) {
	case *ir.Binary:
		tag := "i" + op(v.Op)
		if v.IsChecked() {
			tag = "checked_" + tag
		}
		return fmt.Sprintf("%s = %s.%s %s, %s", v.Res, tag, v.Ty, v.LeftV, v.RightV)
	case *ir.Unary:
		return fmt.Sprintf("%s = %s %s", v.Res, op(v.Op), v.Val)
	case *ir.Shift:
		return fmt.Sprintf("%s = %s %s, %s", v.Res, op(v.Op), v.Val, v.Shift)
	case *ir.Select:
		return fmt.Sprintf("%s = select %s, %s, %s", v.Res, v.Cond, v.ThenVal, v.ElseVal)
	case *ir.Load:
		return fmt.Sprintf("%s = load %s", v.Res, locationText(v.Loc))
	case *ir.Store:
		return fmt.Sprintf("store %s, %s", locationText(v.Loc), v.Val)
	case *ir.Allocate:
		return fmt.Sprintf("%s = alloc.%s %s", v.Res, v.Ty, sizeText(v.Sz))
	case *ir.Copy:
		return fmt.Sprintf("copy %s, %s, %s", locationText(v.Dest), locationText(v.Src), v.Sz)
	case *ir.StorageLoad:
		return fmt.Sprintf("%s = storage_load %s", v.Res, storageKeyText(v.Key))
	case *ir.StorageStore:
		return fmt.Sprintf("storage_store %s, %s", storageKeyText(v.Key), v.Val)
	case *ir.StorageDelete:
		return fmt.Sprintf("storage_delete %s", storageKeyText(v.Key))
	case *ir.MappingLoad:
		return fmt.Sprintf("%s = mapping_load %s[%s]", v.Res, v.Mapping, v.Key)
	case *ir.MappingStore:
		return fmt.Sprintf("mapping_store %s[%s], %s", v.Mapping, v.Key, v.Val)
	case *ir.ArrayLoad:
		return fmt.Sprintf("%s = array_load %s[%s]", v.Res, v.Array, v.Index)
	case *ir.ArrayStore:
		return fmt.Sprintf("array_store %s[%s], %s", v.Array, v.Index, v.Val)
	case *ir.ArrayLength:
		return fmt.Sprintf("%s = array_len %s", v.Res, v.Array)
	case *ir.ArrayPush:
		return fmt.Sprintf("array_push %s, %s", v.Array, v.Val)
	case *ir.ArrayPop:
		return fmt.Sprintf("%s = array_pop %s", v.Res, v.Array)
	case *ir.Call:
		return fmt.Sprintf("%s = call %s", v.Res, callText(v))
	case *ir.DelegateCall:
		return fmt.Sprintf("%s = delegatecall %s, %s(%s)", v.Res, v.Target, v.Selector, argsText(v.Args))
	case *ir.StaticCall:
		return fmt.Sprintf("%s = staticcall %s, %s(%s)", v.Res, v.Target, v.Selector, argsText(v.Args))
	case *ir.Create:
		return fmt.Sprintf("%s = create %s, %s", v.Res, v.Code, v.Val)
	case *ir.Create2:
		return fmt.Sprintf("%s = create2 %s, %s, %s", v.Res, v.Code, v.Val, v.Salt)
	case *ir.Selfdestruct:
		return fmt.Sprintf("selfdestruct %s", v.Beneficiary)
	case *ir.GetContext:
		return fmt.Sprintf("%s = ctx.%s", v.Res, v.Var)
	case *ir.Keccak256:
		return fmt.Sprintf("%s = keccak256 %s, %s", v.Res, v.Data, v.Len)
	case *ir.Sha256:
		return fmt.Sprintf("%s = sha256 %s, %s", v.Res, v.Data, v.Len)
	case *ir.Ripemd160:
		return fmt.Sprintf("%s = ripemd160 %s, %s", v.Res, v.Data, v.Len)
	case *ir.EcRecover:
		return fmt.Sprintf("%s = ecrecover %s, %s, %s, %s", v.Res, v.Hash, v.V, v.R, v.S)
	case *ir.EmitEvent:
		return fmt.Sprintf("emit event#%d(%s; %s)", v.Event, argsText(v.Topics), argsText(v.Data))
	case *ir.Convert:
		return fmt.Sprintf("%s = %s.%s %s", v.Res, convName(v.Kind), v.To, v.Val)
	case *ir.Guard:
		return fmt.Sprintf("%s %s, %q", guardName(v.Kind), v.Cond, v.Message)
	case *ir.RevertInst:
		return fmt.Sprintf("revert %q", v.Message)
	case *ir.Assign:
		return fmt.Sprintf("%s = %s", v.Res, v.Val)
	case *ir.Phi:
		return fmt.Sprintf("%s = phi %s", v.Res, phiInputsText(v.Inputs))
	default:
		return fmt.Sprintf("<unknown %T>", inst)
	}
}

func sizeText(s ir.Size) string {
	if s.IsStatic {
		return fmt.Sprintf("%d", s.Static)
	}
	return s.Dynamic.String()
}

func locationText(l ir.Location) string {
	switch l.Kind {
	case ir.LocMemory:
		return fmt.Sprintf("mem[%s+%s]", l.Base, l.Offset)
	case ir.LocStorage:
		return fmt.Sprintf("storage[%s]", l.Slot)
	case ir.LocStack:
		return fmt.Sprintf("stack[%d]", l.Stack)
	case ir.LocCalldata:
		return fmt.Sprintf("calldata[%s]", l.Offset)
	case ir.LocReturnData:
		return fmt.Sprintf("returndata[%s]", l.Offset)
	default:
		return "loc?"
	}
}

func storageKeyText(k ir.StorageKey) string {
	switch k.Kind {
	case ir.KeySlot:
		return fmt.Sprintf("slot_%d", k.Slot)
	case ir.KeyDynamic, ir.KeyComputed:
		return fmt.Sprintf("slot(%s)", k.Value)
	case ir.KeyMapping:
		return fmt.Sprintf("slot_%d[%s]", k.BaseSlot, k.KeyValue)
	case ir.KeyArrayElement:
		return fmt.Sprintf("slot_%d[%s]", k.BaseSlot, k.Index)
	default:
		return "slot?"
	}
}

func callText(c *ir.Call) string {
	name := c.Target.Name
	switch c.Target.Kind {
	case ir.TargetExternal:
		name = c.Target.Address.String()
	case ir.TargetBuiltin:
		name = strings.ToLower(fmt.Sprintf("%v", c.Target.Builtin))
	}
	args := argsText(c.Args)
	if c.Val != nil {
		return fmt.Sprintf("%%%s(%s) value=%s", name, args, *c.Val)
	}
	return fmt.Sprintf("%%%s(%s)", name, args)
}

func argsText(args []ir.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func phiInputsText(inputs []ir.PhiInput) string {
	parts := make([]string, len(inputs))
	for i, in := range inputs {
		parts[i] = fmt.Sprintf("[block%d: %s]", in.Block, in.Val)
	}
	return strings.Join(parts, ", ")
}

func convName(k ir.ConvKind) string {
	switch k {
	case ir.ConvCast:
		return "cast"
	case ir.ConvZeroExtend:
		return "zext"
	case ir.ConvSignExtend:
		return "sext"
	case ir.ConvTruncate:
		return "trunc"
	default:
		return "conv"
	}
}

func guardName(k ir.GuardKind) string {
	if k == ir.GuardAssert {
		return "assert"
	}
	return "require"
}

func terminatorText(t ir.Terminator) string {
	switch t.Kind {
	case ir.TermJump:
		return fmt.Sprintf("jmp block%d(%s)", t.TargetBlock, argsText(t.Args))
	case ir.TermBranch:
		return fmt.Sprintf("br %s, block%d(%s), block%d(%s)",
			t.Cond, t.ThenBlock, argsText(t.ThenArgs), t.ElseBlock, argsText(t.ElseArgs))
	case ir.TermSwitch:
		return fmt.Sprintf("switch %s, default block%d %s", t.Switched, t.Default, switchCasesText(t.Cases))
	case ir.TermReturn:
		if t.ReturnValue != nil {
			return fmt.Sprintf("return %s", *t.ReturnValue)
		}
		return "return"
	case ir.TermRevert:
		return fmt.Sprintf("revert %q", t.Message)
	case ir.TermPanic:
		return fmt.Sprintf("panic %q", t.Message)
	default:
		return "invalid"
	}
}

func switchCasesText(cases []ir.SwitchCase) string {
	parts := make([]string, len(cases))
	for i, c := range cases {
		parts[i] = fmt.Sprintf("[%s -> block%d]", c.Value, c.Block)
	}
	return strings.Join(parts, " ")
}
