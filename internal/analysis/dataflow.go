package analysis

import "solir/internal/ir"

// LiveVariables is the classic backward liveness dataflow: live_in(b)
// = uses(b) ∪ (live_out(b) - defs(b)), live_out(b) = ∪ live_in(succ),
// grounded on the original Rust LiveVariables::compute
// (thalir-core/src/analysis/dataflow.rs).
type LiveVariables struct {
	liveIn  map[ir.BlockId]map[valueKey]bool
	liveOut map[ir.BlockId]map[valueKey]bool
}

// ComputeLiveness runs the backward fixed-point to convergence.
func ComputeLiveness(cfg *CFG, fn *ir.Function, duc *DefUseChains) *LiveVariables {
	lv := &LiveVariables{
		liveIn:  make(map[ir.BlockId]map[valueKey]bool),
		liveOut: make(map[ir.BlockId]map[valueKey]bool),
	}
	for _, b := range cfg.Blocks() {
		lv.liveIn[b] = map[valueKey]bool{}
		lv.liveOut[b] = map[valueKey]bool{}
	}

	changed := true
	for changed {
		changed = false
		blocks := cfg.Blocks()
		for i := len(blocks) - 1; i >= 0; i-- {
			b := blocks[i]
			blk := fn.Body.Blocks[b]

			newOut := map[valueKey]bool{}
			for _, s := range cfg.Successors(b) {
				for k := range lv.liveIn[s] {
					newOut[k] = true
				}
			}

			newIn := cloneValueSet(newOut)
			for _, op := range termOperands(blk.Term) {
				if k, ok := keyOf(op); ok {
					newIn[k] = true
				}
			}
			for idx := len(blk.Instructions) - 1; idx >= 0; idx-- {
				inst := blk.Instructions[idx]
				if res := inst.Result(); res != nil {
					if k, ok := keyOf(*res); ok {
						delete(newIn, k)
					}
				}
				for _, op := range inst.Operands() {
					if k, ok := keyOf(op); ok {
						newIn[k] = true
					}
				}
			}

			if !valueSetsEqual(newIn, lv.liveIn[b]) || !valueSetsEqual(newOut, lv.liveOut[b]) {
				lv.liveIn[b] = newIn
				lv.liveOut[b] = newOut
				changed = true
			}
		}
	}
	return lv
}

func (lv *LiveVariables) IsLiveIn(b ir.BlockId, v ir.Value) bool {
	k, ok := keyOf(v)
	return ok && lv.liveIn[b][k]
}

func (lv *LiveVariables) IsLiveOut(b ir.BlockId, v ir.Value) bool {
	k, ok := keyOf(v)
	return ok && lv.liveOut[b][k]
}

func cloneValueSet(s map[valueKey]bool) map[valueKey]bool {
	out := make(map[valueKey]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func valueSetsEqual(a, b map[valueKey]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// ReachingDef pairs a value with the location of the definition that
// produced it.
type ReachingDef struct {
	Value valueKey
	Loc   Location
}

// ReachingDefinitions is the forward dataflow tracking which
// definitions reach which blocks, grounded on the original Rust
// ReachingDefinitions::compute. Per-block def/kill only (this IR
// assigns each SSA name once, so within a block the latest definition
// simply replaces any prior one for that name, matching the original's
// retain-then-insert step).
type ReachingDefinitions struct {
	reachingOut map[ir.BlockId]map[valueKey]Location
}

// ComputeReachingDefinitions runs the forward fixed-point.
func ComputeReachingDefinitions(cfg *CFG, fn *ir.Function) *ReachingDefinitions {
	rd := &ReachingDefinitions{reachingOut: make(map[ir.BlockId]map[valueKey]Location)}
	for _, b := range cfg.Blocks() {
		rd.reachingOut[b] = map[valueKey]Location{}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range cfg.Blocks() {
			blk := fn.Body.Blocks[b]
			newOut := map[valueKey]Location{}
			for _, p := range cfg.Predecessors(b) {
				for k, loc := range rd.reachingOut[p] {
					newOut[k] = loc
				}
			}
			for idx, inst := range blk.Instructions {
				if res := inst.Result(); res != nil {
					if k, ok := keyOf(*res); ok {
						newOut[k] = Location{Block: b, Instruction: idx}
					}
				}
			}
			if !reachingEqual(newOut, rd.reachingOut[b]) {
				rd.reachingOut[b] = newOut
				changed = true
			}
		}
	}
	return rd
}

func reachingEqual(a, b map[valueKey]Location) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// ReachingAt returns the definitions reaching the end of block b: those
// flowing in from its predecessors plus b's own definitions.
func (rd *ReachingDefinitions) ReachingAt(b ir.BlockId) map[valueKey]Location {
	return rd.reachingOut[b]
}
