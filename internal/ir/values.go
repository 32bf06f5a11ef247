package ir

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// ValueKind tags the shape a Value is wearing.
type ValueKind int

const (
	ValConstant ValueKind = iota
	ValTemp
	ValParam
	ValVar
	ValBlockParam
	ValStorageRef
	ValMemoryRef
	ValGlobalRef
	ValUndefined
)

// Value is a use-site reference into the IR. Exactly one of the typed
// fields below is meaningful, selected by Kind — mirroring the closed
// sum in the original Rust `Value` enum, but represented as one struct
// so instruction operand slices don't need a second allocation per use.
type Value struct {
	Kind ValueKind

	Const    *Constant
	Temp     TempId
	Param    ParamId
	Var      VarId
	BlockArg BlockParamId
	Storage  StorageRefId
	Memory   MemoryRefId
	Global   GlobalId

	Type Type
}

type TempId uint32
type ParamId uint32
type VarId uint32
type StorageRefId uint32
type MemoryRefId uint32
type GlobalId uint32

// BlockParamId identifies a block-parameter slot, the SSA-clean
// replacement for phi nodes.
type BlockParamId struct {
	Block BlockId
	Index uint32
}

func TempVal(id TempId, t Type) Value   { return Value{Kind: ValTemp, Temp: id, Type: t} }
func ParamVal(id ParamId, t Type) Value { return Value{Kind: ValParam, Param: id, Type: t} }
func VarVal(id VarId, t Type) Value     { return Value{Kind: ValVar, Var: id, Type: t} }
func BlockParamVal(b BlockId, idx uint32, t Type) Value {
	return Value{Kind: ValBlockParam, BlockArg: BlockParamId{Block: b, Index: idx}, Type: t}
}
func StorageRefVal(id StorageRefId, t Type) Value {
	return Value{Kind: ValStorageRef, Storage: id, Type: t}
}
func MemoryRefVal(id MemoryRefId, t Type) Value {
	return Value{Kind: ValMemoryRef, Memory: id, Type: t}
}
func GlobalRefVal(id GlobalId, t Type) Value { return Value{Kind: ValGlobalRef, Global: id, Type: t} }
func Undefined(t Type) Value                 { return Value{Kind: ValUndefined, Type: t} }

func ConstVal(c Constant) Value { return Value{Kind: ValConstant, Const: &c, Type: c.Type()} }

func (v Value) IsConstant() bool { return v.Kind == ValConstant }

func (v Value) String() string {
	switch v.Kind {
	case ValConstant:
		return v.Const.String()
	case ValTemp:
		return fmt.Sprintf("v%d", v.Temp)
	case ValParam:
		return fmt.Sprintf("p%d", v.Param)
	case ValVar:
		return fmt.Sprintf("var%d", v.Var)
	case ValBlockParam:
		return fmt.Sprintf("b%d:p%d", v.BlockArg.Block, v.BlockArg.Index)
	case ValStorageRef:
		return fmt.Sprintf("sref%d", v.Storage)
	case ValMemoryRef:
		return fmt.Sprintf("mref%d", v.Memory)
	case ValGlobalRef:
		return fmt.Sprintf("g%d", v.Global)
	default:
		return "undef"
	}
}

// ConstantKind tags the shape of a literal value.
type ConstantKind int

const (
	ConstBool ConstantKind = iota
	ConstUint
	ConstInt
	ConstAddress
	ConstBytes
	ConstString
	ConstNull
)

// Constant is a compile-time literal. Unsigned magnitudes are carried in
// a fixed 256-bit uint256.Int (every modeled integer width fits within
// 256 bits), signed magnitudes in a math/big.Int since uint256 has no
// native two's-complement story worth duplicating for the signed case.
type Constant struct {
	Kind    ConstantKind
	Bool    bool
	UintVal *uint256.Int
	UintW   int
	IntVal  *big.Int
	IntW    int
	Addr    [20]byte
	Bytes   []byte
	Str     string
}

func BoolConst(b bool) Constant { return Constant{Kind: ConstBool, Bool: b} }

func UintConst(v *uint256.Int, bits int) Constant {
	return Constant{Kind: ConstUint, UintVal: v, UintW: bits}
}

func UintConstFromUint64(v uint64, bits int) Constant {
	return Constant{Kind: ConstUint, UintVal: uint256.NewInt(v), UintW: bits}
}

func IntConst(v *big.Int, bits int) Constant {
	return Constant{Kind: ConstInt, IntVal: v, IntW: bits}
}

func AddressConst(addr [20]byte) Constant { return Constant{Kind: ConstAddress, Addr: addr} }

func BytesConst(b []byte) Constant { return Constant{Kind: ConstBytes, Bytes: append([]byte(nil), b...)} }

func StringConst(s string) Constant { return Constant{Kind: ConstString, Str: s} }

func NullConst() Constant { return Constant{Kind: ConstNull} }

// ZeroOf returns the additive-identity constant for a type, used by the
// lowerer's error-recovery path (Robustness) to substitute a
// conservative placeholder when a subtree can't be lowered faithfully.
func ZeroOf(t Type) Constant {
	switch v := t.(type) {
	case BoolType:
		return BoolConst(false)
	case UintType:
		return UintConstFromUint64(0, v.Bits)
	case IntType:
		return IntConst(big.NewInt(0), v.Bits)
	case AddressType:
		return AddressConst([20]byte{})
	case BytesType:
		return BytesConst(make([]byte, v.N))
	default:
		return UintConstFromUint64(0, 256)
	}
}

func (c Constant) Type() Type {
	switch c.Kind {
	case ConstBool:
		return BoolType{}
	case ConstUint:
		return UintType{Bits: c.UintW}
	case ConstInt:
		return IntType{Bits: c.IntW}
	case ConstAddress:
		return AddressType{}
	case ConstBytes:
		return BytesType{N: len(c.Bytes)}
	case ConstString:
		return StringType{}
	default:
		return nil
	}
}

func (c Constant) String() string {
	switch c.Kind {
	case ConstBool:
		return fmt.Sprintf("%v", c.Bool)
	case ConstUint:
		return fmt.Sprintf("%su%d", c.UintVal.Dec(), c.UintW)
	case ConstInt:
		return fmt.Sprintf("%si%d", c.IntVal.String(), c.IntW)
	case ConstAddress:
		return fmt.Sprintf("0x%x", c.Addr)
	case ConstBytes:
		return fmt.Sprintf("0x%x", c.Bytes)
	case ConstString:
		return fmt.Sprintf("%q", c.Str)
	default:
		return "null"
	}
}

// Location is a memory/storage/stack/calldata/returndata address.
type LocationKind int

const (
	LocMemory LocationKind = iota
	LocStorage
	LocStack
	LocCalldata
	LocReturnData
)

type Location struct {
	Kind   LocationKind
	Base   Value // Memory
	Offset Value // Memory, Calldata, ReturnData
	Slot   Value // Storage
	Stack  int32 // Stack
}

// StorageKeyKind tags how a storage key is computed (Storage).
type StorageKeyKind int

const (
	KeySlot StorageKeyKind = iota
	KeyDynamic
	KeyComputed
	KeyMapping
	KeyArrayElement
)

type StorageKey struct {
	Kind     StorageKeyKind
	Slot     int64 // KeySlot
	Value    Value // KeyDynamic, KeyComputed
	BaseSlot int64 // KeyMapping, KeyArrayElement
	KeyValue Value // KeyMapping
	Index    Value // KeyArrayElement
}
