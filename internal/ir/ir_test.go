package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solir/internal/srcreg"
)

func TestTypeStrings(t *testing.T) {
	assert.Equal(t, "bool", BoolType{}.String())
	assert.Equal(t, "uint256", UintType{Bits: 256}.String())
	assert.Equal(t, "int8", IntType{Bits: 8}.String())
	assert.Equal(t, "address", AddressType{}.String())
	assert.Equal(t, "bytes32", BytesType{N: 32}.String())
	assert.Equal(t, "string", StringType{}.String())
	assert.Equal(t, "mapping(address => uint256)", MappingType{Key: AddressType{}, Value: UintType{Bits: 256}}.String())
}

func TestArrayTypeString(t *testing.T) {
	dyn := ArrayType{Elem: UintType{Bits: 256}}
	assert.Equal(t, "uint256[]", dyn.String())

	n := 4
	fixed := ArrayType{Elem: UintType{Bits: 256}, Len: &n}
	assert.Equal(t, "uint256[4]", fixed.String())
}

func TestPointerTypeString(t *testing.T) {
	p := PointerType{Elem: UintType{Bits: 256}, Space: SpaceStorage}
	assert.Equal(t, "storage ptr<uint256>", p.String())
}

func TestSizeBytes(t *testing.T) {
	assert.Equal(t, 1, SizeBytes(BoolType{}))
	assert.Equal(t, 32, SizeBytes(UintType{Bits: 256}))
	assert.Equal(t, 1, SizeBytes(UintType{Bits: 8}))
	assert.Equal(t, 20, SizeBytes(AddressType{}))
	assert.Equal(t, 16, SizeBytes(BytesType{N: 16}))
}

func TestIsReference(t *testing.T) {
	assert.True(t, IsReference(StringType{}))
	assert.True(t, IsReference(ArrayType{Elem: BoolType{}}))
	n := 3
	assert.False(t, IsReference(ArrayType{Elem: BoolType{}, Len: &n}))
	assert.True(t, IsReference(PointerType{Elem: BoolType{}, Space: SpaceMemory}))
	assert.False(t, IsReference(BoolType{}))
	assert.False(t, IsReference(UintType{Bits: 256}))
}

func TestRegistryAddLookup(t *testing.T) {
	r := NewRegistry()
	sid := r.AddStruct(&StructDef{Name: "Point", Fields: []StructField{{Name: "x", Type: UintType{Bits: 256}}}})
	eid := r.AddEnum(&EnumDef{Name: "Color"})
	cid := r.AddContract(&ContractInterface{Name: "Token"})

	assert.Equal(t, StructId(0), sid)
	assert.Equal(t, EnumId(0), eid)
	assert.Equal(t, ContractId(0), cid)

	assert.Equal(t, "Point", r.Structs[sid].Name)
	assert.Equal(t, "Color", r.Enums[eid].Name)
	assert.Equal(t, "Token", r.Contracts[cid].Name)

	sid2 := r.AddStruct(&StructDef{Name: "Line"})
	assert.Equal(t, StructId(1), sid2)
}

func TestVisibilityAndMutabilityStrings(t *testing.T) {
	assert.Equal(t, "public", VisPublic.String())
	assert.Equal(t, "external", VisExternal.String())
	assert.Equal(t, "internal", VisInternal.String())
	assert.Equal(t, "private", VisPrivate.String())

	assert.Equal(t, "pure", MutPure.String())
	assert.Equal(t, "view", MutView.String())
	assert.Equal(t, "payable", MutPayable.String())
	assert.Equal(t, "nonpayable", MutNonPayable.String())
}

func newTestFunction(entryParams []BlockParam, sigParams []Param) *Function {
	body := NewBody(0)
	body.Blocks[0] = NewBasicBlock(0, entryParams)
	body.Blocks[0].Seal(Return(nil, srcreg.Invalid))
	return &Function{
		Signature: Signature{Name: "f", Params: sigParams},
		Body:      *body,
	}
}

func TestCheckEntryArity(t *testing.T) {
	fn := newTestFunction(
		[]BlockParam{{Type: UintType{Bits: 256}}},
		[]Param{{Name: "x", Type: UintType{Bits: 256}}},
	)
	assert.True(t, fn.CheckEntryArity())

	mismatched := newTestFunction(nil, []Param{{Name: "x", Type: UintType{Bits: 256}}})
	assert.False(t, mismatched.CheckEntryArity())
}

func TestCheckEntryArityNoEntry(t *testing.T) {
	fn := &Function{Signature: Signature{Name: "f"}, Body: *NewBody(0)}
	assert.False(t, fn.CheckEntryArity())
}

func TestMangledName(t *testing.T) {
	fn := &Function{Signature: Signature{
		Name: "transfer",
		Params: []Param{
			{Name: "to", Type: AddressType{}},
			{Name: "amount", Type: UintType{Bits: 256}},
		},
	}}
	assert.Equal(t, "transfer_address_uint256", fn.MangledName())
}

func TestContractAddAndOrderedFunctions(t *testing.T) {
	c := NewContract("Token")
	f1 := &Function{Signature: Signature{Name: "transfer", Params: []Param{{Name: "to", Type: AddressType{}}}}}
	f2 := &Function{Signature: Signature{Name: "balanceOf"}}

	c.AddFunction(f1)
	c.AddFunction(f2)

	ordered := c.OrderedFunctions()
	require.Len(t, ordered, 2)
	assert.Equal(t, "transfer_address", ordered[0].MangledName())
	assert.Equal(t, "balanceOf", ordered[1].MangledName())

	got, ok := c.Function("balanceOf")
	require.True(t, ok)
	assert.Same(t, f2, got)
}

func TestContractAddFunctionOverwriteKeepsOrder(t *testing.T) {
	c := NewContract("Token")
	f1 := &Function{Signature: Signature{Name: "transfer"}}
	f1b := &Function{Signature: Signature{Name: "transfer"}, Mutability: MutPayable}

	c.AddFunction(f1)
	c.AddFunction(f1b)

	assert.Len(t, c.FunctionOrder, 1)
	got, _ := c.Function("transfer")
	assert.Equal(t, MutPayable, got.Mutability)
}

func TestValueStrings(t *testing.T) {
	assert.Equal(t, "v3", TempVal(3, UintType{Bits: 256}).String())
	assert.Equal(t, "p1", ParamVal(1, AddressType{}).String())
	assert.Equal(t, "var2", VarVal(2, BoolType{}).String())
	assert.Equal(t, "b1:p0", BlockParamVal(1, 0, BoolType{}).String())
	assert.Equal(t, "undef", Undefined(BoolType{}).String())
}

func TestConstantRoundtrip(t *testing.T) {
	c := UintConstFromUint64(42, 256)
	v := ConstVal(c)
	assert.True(t, v.IsConstant())
	assert.Equal(t, UintType{Bits: 256}, v.Type)
	assert.Contains(t, v.String(), "42u256")
}

func TestZeroOf(t *testing.T) {
	assert.Equal(t, BoolConst(false), ZeroOf(BoolType{}))
	assert.Equal(t, UintConstFromUint64(0, 256), ZeroOf(UintType{Bits: 256}))
}

func TestBinaryIsChecked(t *testing.T) {
	add := &Binary{Op: OpAdd}
	chk := &Binary{Op: OpCheckedAdd}
	assert.False(t, add.IsChecked())
	assert.True(t, chk.IsChecked())
}

func TestInstructionResultOperands(t *testing.T) {
	left := TempVal(0, UintType{Bits: 256})
	right := TempVal(1, UintType{Bits: 256})
	res := TempVal(2, UintType{Bits: 256})
	b := &Binary{Res: res, Op: OpAdd, LeftV: left, RightV: right}

	assert.Equal(t, &b.Res, b.Result())
	assert.Equal(t, []Value{left, right}, b.Operands())
}

func TestStoreHasNoResult(t *testing.T) {
	s := &Store{Loc: Location{Kind: LocStack, Stack: 0}, Val: TempVal(0, BoolType{})}
	assert.Nil(t, s.Result())
}

func TestIsStateChanging(t *testing.T) {
	assert.True(t, IsStateChanging(&StorageStore{}))
	assert.True(t, IsStateChanging(&EmitEvent{}))
	assert.False(t, IsStateChanging(&Load{}))
}

func TestIsExternalCall(t *testing.T) {
	assert.True(t, IsExternalCall(&Call{Target: CallTarget{Kind: TargetExternal}}))
	assert.False(t, IsExternalCall(&Call{Target: CallTarget{Kind: TargetInternal}}))
	assert.True(t, IsExternalCall(&DelegateCall{}))
	assert.True(t, IsExternalCall(&StaticCall{}))
	assert.False(t, IsExternalCall(&Load{}))
}

func TestIsExternalCallWithValue(t *testing.T) {
	val := TempVal(0, UintType{Bits: 256})
	withValue := &Call{Target: CallTarget{Kind: TargetExternal}, Val: &val}
	withoutValue := &Call{Target: CallTarget{Kind: TargetExternal}}

	assert.True(t, IsExternalCallWithValue(withValue))
	assert.False(t, IsExternalCallWithValue(withoutValue))
	assert.False(t, IsExternalCallWithValue(&Load{}))
}

func TestCanRevert(t *testing.T) {
	assert.True(t, CanRevert(&Binary{Op: OpDiv}))
	assert.True(t, CanRevert(&Binary{Op: OpCheckedAdd}))
	assert.False(t, CanRevert(&Binary{Op: OpAdd}))
	assert.True(t, CanRevert(&Guard{}))
	assert.True(t, CanRevert(&RevertInst{}))
	assert.False(t, CanRevert(&Load{}))
}

func TestTerminatorSuccessors(t *testing.T) {
	j := Jump(2, nil, srcreg.Invalid)
	assert.Equal(t, []BlockId{2}, j.Successors())

	br := Branch(TempVal(0, BoolType{}), 1, nil, 2, nil, srcreg.Invalid)
	assert.Equal(t, []BlockId{1, 2}, br.Successors())

	sw := Switch(TempVal(0, UintType{Bits: 256}), []SwitchCase{{Block: 3}, {Block: 4}}, 5, srcreg.Invalid)
	assert.Equal(t, []BlockId{3, 4, 5}, sw.Successors())

	ret := Return(nil, srcreg.Invalid)
	assert.Nil(t, ret.Successors())
	assert.True(t, ret.IsExit())
	assert.False(t, j.IsExit())
}

func TestBasicBlockSealAndAppend(t *testing.T) {
	blk := NewBasicBlock(0, nil)
	blk.Append(&Guard{Kind: GuardAssert, Cond: TempVal(0, BoolType{})}, srcreg.Invalid)
	assert.Len(t, blk.Instructions, 1)
	assert.False(t, blk.IsSealed())

	blk.Seal(Return(nil, srcreg.Invalid))
	assert.True(t, blk.IsSealed())
}
