package ir

import "solir/internal/srcreg"

// Instruction is the sum type every concrete instruction kind below
// implements; Result()/Operands() give analyses a uniform view
// without a type switch at every call site, matching kanso's
// behavioral-predicates-on-the-sum approach (ir/types.go's Instruction
// interface) generalized to the full EVM-flavored shape list this
// package models.
type Instruction interface {
	Result() *Value
	Operands() []Value
	Span() srcreg.Span
}

// Op is the arithmetic/bitwise/comparison operator tag shared by the
// binary instruction shapes.
type Op string

const (
	OpAdd Op = "add"
	OpSub Op = "sub"
	OpMul Op = "mul"
	OpDiv Op = "div"
	OpMod Op = "mod"
	OpPow Op = "pow"

	OpCheckedAdd Op = "add.chk"
	OpCheckedSub Op = "sub.chk"
	OpCheckedMul Op = "mul.chk"
	OpCheckedDiv Op = "div.chk"

	OpAnd Op = "and"
	OpOr  Op = "or"
	OpXor Op = "xor"
	OpNot Op = "not"
	OpShl Op = "shl"
	OpShr Op = "shr"
	OpSar Op = "sar"

	OpEq Op = "eq"
	OpNe Op = "ne"
	OpLt Op = "lt"
	OpGt Op = "gt"
	OpLe Op = "le"
	OpGe Op = "ge"
)

// Binary covers every two-operand arithmetic/bitwise/comparison
// instruction. Checked arithmetic variants (OpCheckedAdd etc.) trap on
// overflow/divide-by-zero; the IR records that contract
// via the Op tag rather than a distinct Go type, since their operand
// and result shape is identical to the unchecked form.
type Binary struct {
	Res    Value
	Op     Op
	LeftV  Value
	RightV Value
	Ty     Type
	Loc    srcreg.Span
}

func (i *Binary) Result() *Value    { return &i.Res }
func (i *Binary) Operands() []Value { return []Value{i.LeftV, i.RightV} }
func (i *Binary) Span() srcreg.Span { return i.Loc }

func (i *Binary) IsChecked() bool {
	switch i.Op {
	case OpCheckedAdd, OpCheckedSub, OpCheckedMul, OpCheckedDiv:
		return true
	default:
		return false
	}
}

type Unary struct {
	Res Value
	Op  Op // OpNot only
	Val Value
	Loc srcreg.Span
}

func (i *Unary) Result() *Value    { return &i.Res }
func (i *Unary) Operands() []Value { return []Value{i.Val} }
func (i *Unary) Span() srcreg.Span { return i.Loc }

type Shift struct {
	Res   Value
	Op    Op // OpShl, OpShr, OpSar
	Val   Value
	Shift Value
	Loc   srcreg.Span
}

func (i *Shift) Result() *Value    { return &i.Res }
func (i *Shift) Operands() []Value { return []Value{i.Val, i.Shift} }
func (i *Shift) Span() srcreg.Span { return i.Loc }

type Select struct {
	Res     Value
	Cond    Value
	ThenVal Value
	ElseVal Value
	Loc     srcreg.Span
}

func (i *Select) Result() *Value    { return &i.Res }
func (i *Select) Operands() []Value { return []Value{i.Cond, i.ThenVal, i.ElseVal} }
func (i *Select) Span() srcreg.Span { return i.Loc }

// --- Memory instructions (Memory) ---

type Load struct {
	Res Value
	Loc Location
	Sp  srcreg.Span
}

func (i *Load) Result() *Value    { return &i.Res }
func (i *Load) Operands() []Value { return locationOperands(i.Loc) }
func (i *Load) Span() srcreg.Span { return i.Sp }

type Store struct {
	Loc Location
	Val Value
	Sp  srcreg.Span
}

func (i *Store) Result() *Value    { return nil }
func (i *Store) Operands() []Value { return append(locationOperands(i.Loc), i.Val) }
func (i *Store) Span() srcreg.Span { return i.Sp }

// Size is either a static byte count or a dynamic value.
type Size struct {
	IsStatic bool
	Static   int
	Dynamic  Value
}

type Allocate struct {
	Res  Value
	Ty   Type
	Sz   Size
	Sp   srcreg.Span
}

func (i *Allocate) Result() *Value { return &i.Res }
func (i *Allocate) Operands() []Value {
	if i.Sz.IsStatic {
		return nil
	}
	return []Value{i.Sz.Dynamic}
}
func (i *Allocate) Span() srcreg.Span { return i.Sp }

type Copy struct {
	Dest Location
	Src  Location
	Sz   Value
	Sp   srcreg.Span
}

func (i *Copy) Result() *Value { return nil }
func (i *Copy) Operands() []Value {
	ops := append(locationOperands(i.Dest), locationOperands(i.Src)...)
	return append(ops, i.Sz)
}
func (i *Copy) Span() srcreg.Span { return i.Sp }

func locationOperands(l Location) []Value {
	switch l.Kind {
	case LocMemory:
		return []Value{l.Base, l.Offset}
	case LocStorage:
		return []Value{l.Slot}
	case LocCalldata, LocReturnData:
		return []Value{l.Offset}
	default:
		return nil
	}
}

// --- Storage instructions (Storage) ---

type StorageLoad struct {
	Res Value
	Key StorageKey
	Sp  srcreg.Span
}

func (i *StorageLoad) Result() *Value    { return &i.Res }
func (i *StorageLoad) Operands() []Value { return storageKeyOperands(i.Key) }
func (i *StorageLoad) Span() srcreg.Span { return i.Sp }

type StorageStore struct {
	Key StorageKey
	Val Value
	Sp  srcreg.Span
}

func (i *StorageStore) Result() *Value    { return nil }
func (i *StorageStore) Operands() []Value { return append(storageKeyOperands(i.Key), i.Val) }
func (i *StorageStore) Span() srcreg.Span { return i.Sp }

type StorageDelete struct {
	Key StorageKey
	Sp  srcreg.Span
}

func (i *StorageDelete) Result() *Value    { return nil }
func (i *StorageDelete) Operands() []Value { return storageKeyOperands(i.Key) }
func (i *StorageDelete) Span() srcreg.Span { return i.Sp }

func storageKeyOperands(k StorageKey) []Value {
	switch k.Kind {
	case KeyDynamic, KeyComputed:
		return []Value{k.Value}
	case KeyMapping:
		return []Value{k.KeyValue}
	case KeyArrayElement:
		return []Value{k.Index}
	default:
		return nil
	}
}

// Mapping/array helpers compose onto StorageLoad/Store

type MappingLoad struct {
	Res     Value
	Mapping Value
	Key     Value
	Sp      srcreg.Span
}

func (i *MappingLoad) Result() *Value    { return &i.Res }
func (i *MappingLoad) Operands() []Value { return []Value{i.Mapping, i.Key} }
func (i *MappingLoad) Span() srcreg.Span { return i.Sp }

type MappingStore struct {
	Mapping Value
	Key     Value
	Val     Value
	Sp      srcreg.Span
}

func (i *MappingStore) Result() *Value    { return nil }
func (i *MappingStore) Operands() []Value { return []Value{i.Mapping, i.Key, i.Val} }
func (i *MappingStore) Span() srcreg.Span { return i.Sp }

type ArrayLoad struct {
	Res   Value
	Array Value
	Index Value
	Sp    srcreg.Span
}

func (i *ArrayLoad) Result() *Value    { return &i.Res }
func (i *ArrayLoad) Operands() []Value { return []Value{i.Array, i.Index} }
func (i *ArrayLoad) Span() srcreg.Span { return i.Sp }

type ArrayStore struct {
	Array Value
	Index Value
	Val   Value
	Sp    srcreg.Span
}

func (i *ArrayStore) Result() *Value    { return nil }
func (i *ArrayStore) Operands() []Value { return []Value{i.Array, i.Index, i.Val} }
func (i *ArrayStore) Span() srcreg.Span { return i.Sp }

type ArrayLength struct {
	Res   Value
	Array Value
	Sp    srcreg.Span
}

func (i *ArrayLength) Result() *Value    { return &i.Res }
func (i *ArrayLength) Operands() []Value { return []Value{i.Array} }
func (i *ArrayLength) Span() srcreg.Span { return i.Sp }

type ArrayPush struct {
	Array Value
	Val   Value
	Sp    srcreg.Span
}

func (i *ArrayPush) Result() *Value    { return nil }
func (i *ArrayPush) Operands() []Value { return []Value{i.Array, i.Val} }
func (i *ArrayPush) Span() srcreg.Span { return i.Sp }

type ArrayPop struct {
	Res   Value
	Array Value
	Sp    srcreg.Span
}

func (i *ArrayPop) Result() *Value    { return &i.Res }
func (i *ArrayPop) Operands() []Value { return []Value{i.Array} }
func (i *ArrayPop) Span() srcreg.Span { return i.Sp }

// --- Calls (Calls) ---

type CallTargetKind int

const (
	TargetInternal CallTargetKind = iota
	TargetExternal
	TargetLibrary
	TargetBuiltin
)

type CallTarget struct {
	Kind     CallTargetKind
	Name     string // Internal, Library
	Address  Value  // External
	Builtin  BuiltinFunction
}

type BuiltinFunction int

const (
	BuiltinAddMod BuiltinFunction = iota
	BuiltinMulMod
	BuiltinBlockHash
	BuiltinGasLeft
)

type Call struct {
	Res    Value
	Target CallTarget
	Args   []Value
	Val    *Value // optional value transferred with the call
	Sp     srcreg.Span
}

func (i *Call) Result() *Value { return &i.Res }
func (i *Call) Operands() []Value {
	ops := append([]Value{}, i.Args...)
	if i.Target.Kind == TargetExternal {
		ops = append(ops, i.Target.Address)
	}
	if i.Val != nil {
		ops = append(ops, *i.Val)
	}
	return ops
}
func (i *Call) Span() srcreg.Span { return i.Sp }

// DelegateCall and StaticCall carry an additional target address plus
// selector.
type DelegateCall struct {
	Res      Value
	Target   Value
	Selector Value
	Args     []Value
	Sp       srcreg.Span
}

func (i *DelegateCall) Result() *Value    { return &i.Res }
func (i *DelegateCall) Operands() []Value { return append([]Value{i.Target, i.Selector}, i.Args...) }
func (i *DelegateCall) Span() srcreg.Span { return i.Sp }

type StaticCall struct {
	Res      Value
	Target   Value
	Selector Value
	Args     []Value
	Sp       srcreg.Span
}

func (i *StaticCall) Result() *Value    { return &i.Res }
func (i *StaticCall) Operands() []Value { return append([]Value{i.Target, i.Selector}, i.Args...) }
func (i *StaticCall) Span() srcreg.Span { return i.Sp }

// --- Contract lifecycle ---

type Create struct {
	Res  Value
	Code Value
	Val  Value
	Sp   srcreg.Span
}

func (i *Create) Result() *Value    { return &i.Res }
func (i *Create) Operands() []Value { return []Value{i.Code, i.Val} }
func (i *Create) Span() srcreg.Span { return i.Sp }

type Create2 struct {
	Res  Value
	Code Value
	Salt Value
	Val  Value
	Sp   srcreg.Span
}

func (i *Create2) Result() *Value    { return &i.Res }
func (i *Create2) Operands() []Value { return []Value{i.Code, i.Salt, i.Val} }
func (i *Create2) Span() srcreg.Span { return i.Sp }

type Selfdestruct struct {
	Beneficiary Value
	Sp          srcreg.Span
}

func (i *Selfdestruct) Result() *Value    { return nil }
func (i *Selfdestruct) Operands() []Value { return []Value{i.Beneficiary} }
func (i *Selfdestruct) Span() srcreg.Span { return i.Sp }

// --- Context reads ---

type ContextVar int

const (
	CtxMsgSender ContextVar = iota
	CtxMsgValue
	CtxMsgData
	CtxMsgSig
	CtxBlockNumber
	CtxBlockTimestamp
	CtxBlockDifficulty
	CtxBlockGasLimit
	CtxBlockCoinbase
	CtxChainId
	CtxBlockBaseFee
	CtxTxOrigin
	CtxTxGasPrice
	CtxGasLeft
	CtxThisAddress
	CtxThisBalance
)

func (v ContextVar) String() string {
	names := [...]string{
		"msg.sender", "msg.value", "msg.data", "msg.sig",
		"block.number", "block.timestamp", "block.difficulty", "block.gaslimit",
		"block.coinbase", "chainid", "block.basefee",
		"tx.origin", "tx.gasprice", "gasleft",
		"this.address", "this.balance",
	}
	if int(v) < len(names) {
		return names[v]
	}
	return "unknown"
}

type GetContext struct {
	Res Value
	Var ContextVar
	Sp  srcreg.Span
}

func (i *GetContext) Result() *Value    { return &i.Res }
func (i *GetContext) Operands() []Value { return nil }
func (i *GetContext) Span() srcreg.Span { return i.Sp }

// --- Cryptography ---

type Keccak256 struct {
	Res  Value
	Data Value
	Len  Value
	Sp   srcreg.Span
}

func (i *Keccak256) Result() *Value    { return &i.Res }
func (i *Keccak256) Operands() []Value { return []Value{i.Data, i.Len} }
func (i *Keccak256) Span() srcreg.Span { return i.Sp }

type Sha256 struct {
	Res  Value
	Data Value
	Len  Value
	Sp   srcreg.Span
}

func (i *Sha256) Result() *Value    { return &i.Res }
func (i *Sha256) Operands() []Value { return []Value{i.Data, i.Len} }
func (i *Sha256) Span() srcreg.Span { return i.Sp }

type Ripemd160 struct {
	Res  Value
	Data Value
	Len  Value
	Sp   srcreg.Span
}

func (i *Ripemd160) Result() *Value    { return &i.Res }
func (i *Ripemd160) Operands() []Value { return []Value{i.Data, i.Len} }
func (i *Ripemd160) Span() srcreg.Span { return i.Sp }

type EcRecover struct {
	Res  Value
	Hash Value
	V, R, S Value
	Sp   srcreg.Span
}

func (i *EcRecover) Result() *Value    { return &i.Res }
func (i *EcRecover) Operands() []Value { return []Value{i.Hash, i.V, i.R, i.S} }
func (i *EcRecover) Span() srcreg.Span { return i.Sp }

// --- Events ---

type EventId uint32

type EmitEvent struct {
	Event  EventId
	Topics []Value
	Data   []Value
	Sp     srcreg.Span
}

func (i *EmitEvent) Result() *Value    { return nil }
func (i *EmitEvent) Operands() []Value { return append(append([]Value{}, i.Topics...), i.Data...) }
func (i *EmitEvent) Span() srcreg.Span { return i.Sp }

// --- Conversions ---

type ConvKind int

const (
	ConvCast ConvKind = iota
	ConvZeroExtend
	ConvSignExtend
	ConvTruncate
)

type Convert struct {
	Res  Value
	Kind ConvKind
	Val  Value
	To   Type
	Sp   srcreg.Span
}

func (i *Convert) Result() *Value    { return &i.Res }
func (i *Convert) Operands() []Value { return []Value{i.Val} }
func (i *Convert) Span() srcreg.Span { return i.Sp }

// --- Guards ---

type GuardKind int

const (
	GuardAssert GuardKind = iota
	GuardRequire
)

type Guard struct {
	Kind    GuardKind
	Cond    Value
	Message string
	Sp      srcreg.Span
}

func (i *Guard) Result() *Value    { return nil }
func (i *Guard) Operands() []Value { return []Value{i.Cond} }
func (i *Guard) Span() srcreg.Span { return i.Sp }

type RevertInst struct {
	Message string
	Sp      srcreg.Span
}

func (i *RevertInst) Result() *Value    { return nil }
func (i *RevertInst) Operands() []Value { return nil }
func (i *RevertInst) Span() srcreg.Span { return i.Sp }

// --- Control (as instructions; real control flow lives in terminators) ---

type Assign struct {
	Res Value
	Val Value
	Sp  srcreg.Span
}

func (i *Assign) Result() *Value    { return &i.Res }
func (i *Assign) Operands() []Value { return []Value{i.Val} }
func (i *Assign) Span() srcreg.Span { return i.Sp }

type PhiInput struct {
	Block BlockId
	Val   Value
}

type Phi struct {
	Res    Value
	Inputs []PhiInput
	Sp     srcreg.Span
}

func (i *Phi) Result() *Value { return &i.Res }
func (i *Phi) Operands() []Value {
	ops := make([]Value, len(i.Inputs))
	for idx, in := range i.Inputs {
		ops[idx] = in.Val
	}
	return ops
}
func (i *Phi) Span() srcreg.Span { return i.Sp }

// --- Effect classification: each instruction carries an effect
// projection available to analyses ---

// IsStateChanging reports whether an instruction writes contract
// storage, emits a log, calls out, or self-destructs.
func IsStateChanging(inst Instruction) bool {
	switch inst.(type) {
	case *Store, *StorageStore, *StorageDelete, *MappingStore, *ArrayStore,
		*ArrayPush, *ArrayPop, *Call, *DelegateCall, *Create, *Create2,
		*Selfdestruct, *EmitEvent:
		return true
	default:
		return false
	}
}

// IsExternalCall reports whether the instruction leaves the current
// contract's execution context.
func IsExternalCall(inst Instruction) bool {
	switch v := inst.(type) {
	case *Call:
		return v.Target.Kind == TargetExternal
	case *DelegateCall, *StaticCall:
		return true
	default:
		return false
	}
}

// IsExternalCallWithValue reports whether the instruction is an
// external call additionally transferring native value.
func IsExternalCallWithValue(inst Instruction) bool {
	c, ok := inst.(*Call)
	if !ok {
		return false
	}
	return c.Target.Kind == TargetExternal && c.Val != nil
}

// CanRevert reports whether the instruction may abort execution.
func CanRevert(inst Instruction) bool {
	switch v := inst.(type) {
	case *Binary:
		return v.Op == OpDiv || v.Op == OpMod || v.IsChecked()
	case *Guard, *Call, *DelegateCall, *StaticCall, *Create, *Create2, *RevertInst:
		return true
	default:
		return false
	}
}
