package analysis

import "solir/internal/ir"

// AllocationSite identifies a memory allocation instruction.
type AllocationSite struct {
	Block       ir.BlockId
	Instruction int
	Size        int
	HasSize     bool
}

// AliasResult is the outcome of an alias query between two values.
type AliasResult int

const (
	NoAlias AliasResult = iota
	MayAlias
	MustAlias
)

// PointsToSet is what a value may point to: a set of allocation
// sites, parameter indices, or "unknown" (escaped / externally
// derived), per the original Rust PointsToSet.
type PointsToSet struct {
	Allocations map[AllocationSite]bool
	Parameters  map[int]bool
	Unknown     bool
}

// AliasAnalysis is a flow-insensitive, allocation-site-based
// points-to and alias analysis, grounded on the original Rust
// AliasAnalysis/AliasAnalyzer (thalir-core/src/analysis/alias.rs),
// simplified (no alias-set union-find) to direct pairwise points-to
// comparison since this module's value domain is far smaller than the
// original's general pointer-heavy IR.
type AliasAnalysis struct {
	pointsTo map[valueKey]*PointsToSet
	escaped  map[valueKey]bool
	aliases  map[valueKey]map[valueKey]bool
}

// BuildAliasAnalysis derives points-to sets from Allocate results,
// propagates aliasing through Load/ArrayLoad/MappingLoad, and marks
// values escaped when returned or stored.
func BuildAliasAnalysis(fn *ir.Function) *AliasAnalysis {
	a := &AliasAnalysis{
		pointsTo: make(map[valueKey]*PointsToSet),
		escaped:  make(map[valueKey]bool),
		aliases:  make(map[valueKey]map[valueKey]bool),
	}

	for i, p := range fn.Signature.Params {
		_ = p
		a.pointsTo[valueKey{ir.ValParam, uint32(i)}] = &PointsToSet{Parameters: map[int]bool{i: true}}
	}

	for id, blk := range fn.Body.Blocks {
		for idx, inst := range blk.Instructions {
			a.analyzeInstruction(inst, id, idx)
		}
	}
	a.propagate()
	a.findEscaped(fn)
	return a
}

func (a *AliasAnalysis) ptsFor(k valueKey) *PointsToSet {
	pts, ok := a.pointsTo[k]
	if !ok {
		pts = &PointsToSet{Allocations: map[AllocationSite]bool{}, Parameters: map[int]bool{}}
		a.pointsTo[k] = pts
	}
	return pts
}

func (a *AliasAnalysis) analyzeInstruction(inst ir.Instruction, block ir.BlockId, idx int) {
	switch v := inst.(type) {
	case *ir.Allocate:
		k, ok := keyOf(v.Res)
		if !ok {
			return
		}
		site := AllocationSite{Block: block, Instruction: idx}
		if v.Sz.IsStatic {
			site.Size, site.HasSize = v.Sz.Static, true
		}
		pts := a.ptsFor(k)
		if pts.Allocations == nil {
			pts.Allocations = map[AllocationSite]bool{}
		}
		pts.Allocations[site] = true

	case *ir.ArrayLoad:
		a.aliasTo(v.Res, v.Array)
	case *ir.MappingLoad:
		a.aliasTo(v.Res, v.Mapping)
	case *ir.Load:
		if k, ok := keyOf(v.Res); ok {
			a.aliases[k] = map[valueKey]bool{}
		}
	case *ir.Call:
		for _, arg := range v.Args {
			if k, ok := keyOf(arg); ok {
				a.escaped[k] = true
			}
		}
	case *ir.DelegateCall:
		for _, arg := range v.Args {
			if k, ok := keyOf(arg); ok {
				a.escaped[k] = true
			}
		}
	}
}

func (a *AliasAnalysis) aliasTo(res, base ir.Value) {
	rk, ok1 := keyOf(res)
	bk, ok2 := keyOf(base)
	if !ok1 || !ok2 {
		return
	}
	if a.aliases[rk] == nil {
		a.aliases[rk] = map[valueKey]bool{}
	}
	a.aliases[rk][bk] = true
}

// propagate computes the transitive closure of the alias relation
// via repeated passes until a fixed point is reached.
func (a *AliasAnalysis) propagate() {
	changed := true
	for changed {
		changed = false
		snapshot := make(map[valueKey]map[valueKey]bool, len(a.aliases))
		for k, v := range a.aliases {
			snapshot[k] = v
		}
		for value, direct := range snapshot {
			for alias := range direct {
				for transitive := range snapshot[alias] {
					if transitive == value {
						continue
					}
					if a.aliases[value] == nil {
						a.aliases[value] = map[valueKey]bool{}
					}
					if !a.aliases[value][transitive] {
						a.aliases[value][transitive] = true
						changed = true
					}
				}
			}
		}
	}
}

func (a *AliasAnalysis) findEscaped(fn *ir.Function) {
	for _, blk := range fn.Body.Blocks {
		for _, inst := range blk.Instructions {
			switch v := inst.(type) {
			case *ir.Store:
				if k, ok := keyOf(v.Val); ok {
					a.markEscaped(k)
				}
			case *ir.StorageStore:
				if k, ok := keyOf(v.Val); ok {
					a.markEscaped(k)
				}
			}
		}
		if blk.Term.Kind == ir.TermReturn && blk.Term.ReturnValue != nil {
			if k, ok := keyOf(*blk.Term.ReturnValue); ok {
				a.markEscaped(k)
			}
		}
	}
}

func (a *AliasAnalysis) markEscaped(v valueKey) {
	if a.escaped[v] {
		return
	}
	a.escaped[v] = true
	for alias := range a.aliases[v] {
		a.markEscaped(alias)
	}
}

// Query reports whether v1 and v2 may/must/never alias.
func (a *AliasAnalysis) Query(v1, v2 ir.Value) AliasResult {
	k1, ok1 := keyOf(v1)
	k2, ok2 := keyOf(v2)
	if ok1 && ok2 && k1 == k2 {
		return MustAlias
	}
	if !ok1 || !ok2 {
		return MayAlias
	}
	pts1, has1 := a.pointsTo[k1]
	pts2, has2 := a.pointsTo[k2]
	if !has1 || !has2 {
		return MayAlias
	}
	if pts1.Unknown || pts2.Unknown {
		return MayAlias
	}
	for site := range pts1.Allocations {
		if pts2.Allocations[site] {
			return MayAlias
		}
	}
	for p := range pts1.Parameters {
		if pts2.Parameters[p] {
			return MayAlias
		}
	}
	return NoAlias
}

// Escaped reports whether v is known to have escaped the function
// (returned or stored to a location visible after return).
func (a *AliasAnalysis) Escaped(v ir.Value) bool {
	k, ok := keyOf(v)
	if !ok {
		return false
	}
	return a.escaped[k]
}

// PointsTo returns the points-to set recorded for v, if any.
func (a *AliasAnalysis) PointsTo(v ir.Value) (*PointsToSet, bool) {
	k, ok := keyOf(v)
	if !ok {
		return nil, false
	}
	pts, ok := a.pointsTo[k]
	return pts, ok
}
