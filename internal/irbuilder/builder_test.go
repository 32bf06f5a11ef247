package irbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solir/internal/ir"
	"solir/internal/srcreg"
)

func sig(name string, params ...ir.Param) ir.Signature {
	return ir.Signature{Name: name, Params: params}
}

func TestBuildSimpleReturn(t *testing.T) {
	b := New(sig("get"), ir.VisPublic, ir.MutView, nil)
	zero := ir.ConstVal(ir.UintConstFromUint64(0, 256))
	res, err := b.Assign(zero, srcreg.Invalid)
	require.NoError(t, err)
	require.NoError(t, b.Return(&res, srcreg.Invalid))

	fn, err := b.Build()
	require.NoError(t, err)
	assert.True(t, fn.CheckEntryArity())
	entry := fn.EntryBlock()
	require.NotNil(t, entry)
	assert.Equal(t, ir.TermReturn, entry.Term.Kind)
}

func TestBuildRejectsUnterminatedBlock(t *testing.T) {
	b := New(sig("f"), ir.VisPublic, ir.MutView, nil)
	_, err := b.Build()
	assert.Error(t, err)
}

func TestBuildRejectsUnreachableBlock(t *testing.T) {
	b := New(sig("f"), ir.VisPublic, ir.MutView, nil)
	require.NoError(t, b.Return(nil, srcreg.Invalid))

	dangling := b.CreateBlock(nil) // never jumped to
	require.NoError(t, b.SwitchToBlock(dangling))
	require.NoError(t, b.Return(nil, srcreg.Invalid))

	_, err := b.Build()
	assert.ErrorContains(t, err, "unreachable")
}

func TestAppendAfterSealFails(t *testing.T) {
	b := New(sig("f"), ir.VisPublic, ir.MutView, nil)
	require.NoError(t, b.Return(nil, srcreg.Invalid))

	_, err := b.Add(ir.TempVal(0, ir.UintType{Bits: 256}), ir.TempVal(1, ir.UintType{Bits: 256}), ir.UintType{Bits: 256}, srcreg.Invalid)
	assert.ErrorContains(t, err, "sealed")
}

func TestSealTwiceFails(t *testing.T) {
	b := New(sig("f"), ir.VisPublic, ir.MutView, nil)
	require.NoError(t, b.Return(nil, srcreg.Invalid))
	err := b.Seal(ir.Return(nil, srcreg.Invalid))
	assert.ErrorContains(t, err, "already sealed")
}

func TestSwitchToUnknownBlockFails(t *testing.T) {
	b := New(sig("f"), ir.VisPublic, ir.MutView, nil)
	err := b.SwitchToBlock(999)
	assert.ErrorContains(t, err, "not created")
}

func TestBinaryHelpers(t *testing.T) {
	b := New(sig("f"), ir.VisPublic, ir.MutView, nil)
	left := ir.TempVal(0, ir.UintType{Bits: 256})
	right := ir.TempVal(1, ir.UintType{Bits: 256})

	res, err := b.Add(left, right, ir.UintType{Bits: 256}, srcreg.Invalid)
	require.NoError(t, err)
	assert.Equal(t, ir.UintType{Bits: 256}, res.Type)

	checked, err := b.CheckedAdd(left, right, ir.UintType{Bits: 256}, srcreg.Invalid)
	require.NoError(t, err)
	assert.NotEqual(t, res.Temp, checked.Temp)

	entry := b.currentBlock()
	require.Len(t, entry.Instructions, 2)
	bin, ok := entry.Instructions[1].(*ir.Binary)
	require.True(t, ok)
	assert.True(t, bin.IsChecked())
}

func TestIfElseDiamond(t *testing.T) {
	b := New(sig("f"), ir.VisPublic, ir.MutView, nil)
	cursor := NewCursor(b)

	cond, err := cursor.Eq(ir.TempVal(0, ir.BoolType{}), ir.ConstVal(ir.BoolConst(true)), srcreg.Invalid)
	require.NoError(t, err)

	thenB, elseB, mergeB, err := cursor.IfElse(cond, srcreg.Invalid)
	require.NoError(t, err)

	require.NoError(t, cursor.SwitchToBlock(thenB))
	require.NoError(t, cursor.JumpToMergeIfOpen(mergeB, srcreg.Invalid))

	require.NoError(t, cursor.SwitchToBlock(elseB))
	require.NoError(t, cursor.JumpToMergeIfOpen(mergeB, srcreg.Invalid))

	require.NoError(t, cursor.SwitchToBlock(mergeB))
	require.NoError(t, cursor.Return(nil, srcreg.Invalid))

	fn, err := cursor.Build()
	require.NoError(t, err)
	assert.Equal(t, ir.TermBranch, fn.EntryBlock().Term.Kind)
}

func TestWhileLoopContinueBackEdge(t *testing.T) {
	b := New(sig("f"), ir.VisPublic, ir.MutView, nil)
	cursor := NewCursor(b)

	header, body, exit, err := cursor.WhileLoop(srcreg.Invalid)
	require.NoError(t, err)

	require.NoError(t, cursor.SwitchToBlock(header))
	cond := ir.ConstVal(ir.BoolConst(true))
	require.NoError(t, cursor.Branch(cond, body, nil, exit, nil, srcreg.Invalid))

	require.NoError(t, cursor.SwitchToBlock(body))
	require.NoError(t, cursor.Continue(srcreg.Invalid))

	cursor.CloseLoop()
	require.NoError(t, cursor.SwitchToBlock(exit))
	require.NoError(t, cursor.Return(nil, srcreg.Invalid))

	fn, err := cursor.Build()
	require.NoError(t, err)
	assert.NotNil(t, fn)
}

func TestBreakContinueNoopOutsideLoop(t *testing.T) {
	b := New(sig("f"), ir.VisPublic, ir.MutView, nil)
	cursor := NewCursor(b)

	require.NoError(t, cursor.Break(srcreg.Invalid))
	require.NoError(t, cursor.Continue(srcreg.Invalid))
	assert.False(t, cursor.CurrentSealed())
}

func TestBuilderString(t *testing.T) {
	b := New(sig("transfer"), ir.VisPublic, ir.MutView, nil)
	assert.Contains(t, b.String(), "transfer")
}
