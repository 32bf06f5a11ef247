package analysis

import "solir/internal/ir"

// DominatorTree is the standard iterative fixed-point dominator
// computation over reverse postorder,
// grounded on the original Rust DominatorTree
// (thalir-core/src/analysis/dominator.rs and cfg.rs).
type DominatorTree struct {
	dominators map[ir.BlockId]map[ir.BlockId]bool
	idom       map[ir.BlockId]ir.BlockId
	hasIdom    map[ir.BlockId]bool
	frontier   map[ir.BlockId]map[ir.BlockId]bool
}

// BuildDominatorTree computes doms[entry] = {entry}; doms[other] =
// all-reachable initially, then refines doms[b] = {b} ∪ ⋂ doms[pred]
// until no entry changes.
func BuildDominatorTree(cfg *CFG) *DominatorTree {
	reachable := cfg.ReachableBlocks()
	dt := &DominatorTree{
		dominators: make(map[ir.BlockId]map[ir.BlockId]bool),
		idom:       make(map[ir.BlockId]ir.BlockId),
		hasIdom:    make(map[ir.BlockId]bool),
	}

	entry := cfg.Entry()
	dt.dominators[entry] = map[ir.BlockId]bool{entry: true}
	for b := range reachable {
		if b != entry {
			dt.dominators[b] = cloneSet(reachable)
		}
	}

	changed := true
	for changed {
		changed = false
		for b := range reachable {
			if b == entry {
				continue
			}
			preds := cfg.Predecessors(b)
			var intersection map[ir.BlockId]bool
			for _, p := range preds {
				if !reachable[p] {
					continue
				}
				if intersection == nil {
					intersection = cloneSet(dt.dominators[p])
					continue
				}
				intersection = intersectSets(intersection, dt.dominators[p])
			}
			newDoms := map[ir.BlockId]bool{b: true}
			for k := range intersection {
				newDoms[k] = true
			}
			if !setsEqual(newDoms, dt.dominators[b]) {
				dt.dominators[b] = newDoms
				changed = true
			}
		}
	}

	dt.computeImmediateDominators(reachable, entry)
	dt.computeDominanceFrontiers(cfg, reachable)
	return dt
}

// computeDominanceFrontiers is the Cytron et al. algorithm: a node b
// with two or more predecessors pulls every predecessor's idom chain,
// up to but excluding idom(b), into that chain member's frontier.
func (dt *DominatorTree) computeDominanceFrontiers(cfg *CFG, reachable map[ir.BlockId]bool) {
	dt.frontier = make(map[ir.BlockId]map[ir.BlockId]bool, len(reachable))
	for b := range reachable {
		dt.frontier[b] = make(map[ir.BlockId]bool)
	}
	for b := range reachable {
		preds := cfg.Predecessors(b)
		if len(preds) < 2 {
			continue
		}
		idomB, ok := dt.idom[b], dt.hasIdom[b]
		if !ok {
			continue
		}
		for _, p := range preds {
			if !reachable[p] {
				continue
			}
			for runner := p; runner != idomB; {
				dt.frontier[runner][b] = true
				next, ok := dt.idom[runner]
				if !ok {
					break
				}
				runner = next
			}
		}
	}
}

func (dt *DominatorTree) computeImmediateDominators(reachable map[ir.BlockId]bool, entry ir.BlockId) {
	for b := range reachable {
		if b == entry {
			continue
		}
		doms := dt.dominators[b]
		// Immediate dominator: the unique dominator of b other than b
		// that is dominated by every other dominator of b.
		for cand := range doms {
			if cand == b {
				continue
			}
			isImmediate := true
			for other := range doms {
				if other == b || other == cand {
					continue
				}
				if !dt.dominators[other][cand] {
					isImmediate = false
					break
				}
			}
			if isImmediate {
				dt.idom[b] = cand
				dt.hasIdom[b] = true
				break
			}
		}
	}
}

// Dominates reports whether a dominates b (a walks b's idom chain).
func (dt *DominatorTree) Dominates(a, b ir.BlockId) bool {
	if a == b {
		return true
	}
	for cur, ok := dt.idom[b], dt.hasIdom[b]; ok; cur, ok = dt.idom[cur], dt.hasIdom[cur] {
		if cur == a {
			return true
		}
	}
	return false
}

func (dt *DominatorTree) ImmediateDominator(b ir.BlockId) (ir.BlockId, bool) {
	id, ok := dt.hasIdom[b]
	return dt.idom[b], ok && id
}

func (dt *DominatorTree) Dominators(b ir.BlockId) map[ir.BlockId]bool {
	return dt.dominators[b]
}

// DominanceFrontier returns the set of blocks where b's dominance
// stops: reachable joins b dominates a predecessor of but does not
// strictly dominate (a loop header is in its own frontier).
func (dt *DominatorTree) DominanceFrontier(b ir.BlockId) map[ir.BlockId]bool {
	return dt.frontier[b]
}

func cloneSet(s map[ir.BlockId]bool) map[ir.BlockId]bool {
	out := make(map[ir.BlockId]bool, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func intersectSets(a, b map[ir.BlockId]bool) map[ir.BlockId]bool {
	out := make(map[ir.BlockId]bool)
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func setsEqual(a, b map[ir.BlockId]bool) bool {
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
