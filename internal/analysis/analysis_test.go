package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solir/internal/ir"
	"solir/internal/irbuilder"
	"solir/internal/srcreg"
)

func sig(name string, params ...ir.Param) ir.Signature {
	return ir.Signature{Name: name, Params: params}
}

// buildDiamond builds entry -> (then|else) -> merge -> return.
func buildDiamond(t *testing.T) *ir.Function {
	t.Helper()
	b := irbuilder.New(sig("f"), ir.VisPublic, ir.MutView, nil)
	cursor := irbuilder.NewCursor(b)

	cond := ir.ConstVal(ir.BoolConst(true))
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
	return fn
}

// buildLoop builds entry -> header -> (body -> header | exit) -> return.
func buildLoop(t *testing.T) (*ir.Function, ir.BlockId, ir.BlockId, ir.BlockId) {
	t.Helper()
	b := irbuilder.New(sig("f"), ir.VisPublic, ir.MutView, nil)
	cursor := irbuilder.NewCursor(b)

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
	return fn, header, body, exit
}

func TestBuildCFGDiamondShape(t *testing.T) {
	fn := buildDiamond(t)
	cfg := BuildCFG(fn)

	entry := fn.Body.Entry
	assert.Equal(t, entry, cfg.Entry())
	succs := cfg.Successors(entry)
	assert.Len(t, succs, 2)

	for _, b := range cfg.Blocks() {
		assert.True(t, cfg.IsReachable(b))
	}
}

func TestCFGHasPath(t *testing.T) {
	fn := buildDiamond(t)
	cfg := BuildCFG(fn)
	entry := cfg.Entry()

	for _, b := range cfg.Blocks() {
		assert.True(t, cfg.HasPath(entry, b))
	}
	assert.True(t, cfg.HasPath(entry, entry))
}

func TestDominatorTreeDiamond(t *testing.T) {
	fn := buildDiamond(t)
	cfg := BuildCFG(fn)
	dt := BuildDominatorTree(cfg)

	entry := cfg.Entry()
	for _, b := range cfg.Blocks() {
		assert.True(t, dt.Dominates(entry, b))
	}

	// The merge block is dominated by entry but not by either arm alone.
	succs := cfg.Successors(entry)
	require.Len(t, succs, 2)
	thenB, elseB := succs[0], succs[1]
	mergeSuccs := cfg.Successors(thenB)
	require.Len(t, mergeSuccs, 1)
	merge := mergeSuccs[0]

	assert.False(t, dt.Dominates(thenB, merge))
	assert.False(t, dt.Dominates(elseB, merge))
	assert.True(t, dt.Dominates(entry, merge))
}

func TestImmediateDominator(t *testing.T) {
	fn := buildDiamond(t)
	cfg := BuildCFG(fn)
	dt := BuildDominatorTree(cfg)

	entry := cfg.Entry()
	_, ok := dt.ImmediateDominator(entry)
	assert.False(t, ok)

	succs := cfg.Successors(entry)
	idom, ok := dt.ImmediateDominator(succs[0])
	require.True(t, ok)
	assert.Equal(t, entry, idom)
}

func TestDominanceFrontierDiamond(t *testing.T) {
	fn := buildDiamond(t)
	cfg := BuildCFG(fn)
	dt := BuildDominatorTree(cfg)

	entry := cfg.Entry()
	succs := cfg.Successors(entry)
	require.Len(t, succs, 2)
	thenB, elseB := succs[0], succs[1]
	mergeSuccs := cfg.Successors(thenB)
	require.Len(t, mergeSuccs, 1)
	merge := mergeSuccs[0]

	// Neither arm dominates merge, so merge sits on both arms' frontier.
	assert.True(t, dt.DominanceFrontier(thenB)[merge])
	assert.True(t, dt.DominanceFrontier(elseB)[merge])

	// entry dominates merge outright, so merge is not on entry's frontier.
	assert.False(t, dt.DominanceFrontier(entry)[merge])
	assert.Empty(t, dt.DominanceFrontier(merge))
}

func TestFindLoopsDetectsBackEdge(t *testing.T) {
	fn, header, body, exit := buildLoop(t)
	cfg := BuildCFG(fn)
	dt := BuildDominatorTree(cfg)
	forest := FindLoops(cfg, dt)

	require.Len(t, forest.Loops, 1)
	loop := forest.Loops[0]
	assert.Equal(t, header, loop.Header)
	assert.Equal(t, body, loop.Tail)
	assert.True(t, loop.Blocks[header])
	assert.True(t, loop.Blocks[body])
	assert.False(t, loop.Blocks[exit])
	assert.Equal(t, 1, forest.Depth(header))
	assert.Equal(t, 0, forest.Depth(exit))
}

func TestLoopExits(t *testing.T) {
	fn, header, _, _ := buildLoop(t)
	cfg := BuildCFG(fn)
	dt := BuildDominatorTree(cfg)
	forest := FindLoops(cfg, dt)
	require.Len(t, forest.Loops, 1)

	exits := forest.Loops[0].Exits(cfg)
	assert.Contains(t, exits, header)
}

func TestBuildDefUseChainsSimpleAssignment(t *testing.T) {
	b := irbuilder.New(sig("f"), ir.VisPublic, ir.MutView, nil)
	left := ir.TempVal(0, ir.UintType{Bits: 256})
	right := ir.TempVal(1, ir.UintType{Bits: 256})
	sum, err := b.Add(left, right, ir.UintType{Bits: 256}, srcreg.Invalid)
	require.NoError(t, err)
	require.NoError(t, b.Return(&sum, srcreg.Invalid))

	fn, err := b.Build()
	require.NoError(t, err)

	duc := BuildDefUseChains(fn)
	def, ok := duc.Definition(sum)
	require.True(t, ok)
	assert.Equal(t, fn.Body.Entry, def.Block)

	uses := duc.Uses(sum)
	require.Len(t, uses, 1)
	assert.Equal(t, -1, uses[0].Instruction) // used by the return terminator

	assert.False(t, duc.IsDead(sum))
}

func TestDefUseChainsIsDeadForUnusedResult(t *testing.T) {
	b := irbuilder.New(sig("f"), ir.VisPublic, ir.MutView, nil)
	left := ir.TempVal(0, ir.UintType{Bits: 256})
	right := ir.TempVal(1, ir.UintType{Bits: 256})
	_, err := b.Add(left, right, ir.UintType{Bits: 256}, srcreg.Invalid)
	require.NoError(t, err)
	require.NoError(t, b.Return(nil, srcreg.Invalid))

	fn, err := b.Build()
	require.NoError(t, err)

	duc := BuildDefUseChains(fn)
	entry := fn.EntryBlock()
	bin := entry.Instructions[0].(*ir.Binary)
	assert.True(t, duc.IsDead(*bin.Result()))
}

func TestAliasAnalysisParametersDoNotAlias(t *testing.T) {
	params := []ir.Param{{Name: "a", Type: ir.UintType{Bits: 256}}, {Name: "b", Type: ir.UintType{Bits: 256}}}
	b := irbuilder.New(sig("f", params...), ir.VisPublic, ir.MutView, nil)
	require.NoError(t, b.Return(nil, srcreg.Invalid))
	fn, err := b.Build()
	require.NoError(t, err)

	aa := BuildAliasAnalysis(fn)
	p0 := ir.ParamVal(0, ir.UintType{Bits: 256})
	p1 := ir.ParamVal(1, ir.UintType{Bits: 256})

	assert.Equal(t, MustAlias, aa.Query(p0, p0))
	assert.Equal(t, NoAlias, aa.Query(p0, p1))
}

func TestAliasAnalysisEscapedOnReturn(t *testing.T) {
	params := []ir.Param{{Name: "a", Type: ir.UintType{Bits: 256}}}
	b := irbuilder.New(sig("f", params...), ir.VisPublic, ir.MutView, nil)
	p0 := ir.ParamVal(0, ir.UintType{Bits: 256})
	require.NoError(t, b.Return(&p0, srcreg.Invalid))
	fn, err := b.Build()
	require.NoError(t, err)

	aa := BuildAliasAnalysis(fn)
	assert.True(t, aa.Escaped(p0))
}

func TestComputeLivenessAcrossBranch(t *testing.T) {
	b := irbuilder.New(sig("f"), ir.VisPublic, ir.MutView, nil)
	cursor := irbuilder.NewCursor(b)

	cond := ir.ConstVal(ir.BoolConst(true))
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

	cfg := BuildCFG(fn)
	duc := BuildDefUseChains(fn)
	lv := ComputeLiveness(cfg, fn, duc)

	// Nothing crosses the merge boundary in this shape: sanity-check the
	// API doesn't panic and returns a consistent answer for block identity.
	assert.False(t, lv.IsLiveIn(mergeB, ir.TempVal(9999, ir.BoolType{})))
}

func TestComputeReachingDefinitions(t *testing.T) {
	b := irbuilder.New(sig("f"), ir.VisPublic, ir.MutView, nil)
	left := ir.TempVal(0, ir.UintType{Bits: 256})
	right := ir.TempVal(1, ir.UintType{Bits: 256})
	sum, err := b.Add(left, right, ir.UintType{Bits: 256}, srcreg.Invalid)
	require.NoError(t, err)
	require.NoError(t, b.Return(&sum, srcreg.Invalid))
	fn, err := b.Build()
	require.NoError(t, err)

	cfg := BuildCFG(fn)
	rd := ComputeReachingDefinitions(cfg, fn)

	k, ok := keyOf(sum)
	require.True(t, ok)
	out := rd.ReachingAt(fn.Body.Entry)
	loc, ok := out[k]
	require.True(t, ok)
	assert.Equal(t, fn.Body.Entry, loc.Block)
	assert.Equal(t, 0, loc.Instruction)
}
