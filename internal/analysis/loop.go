package analysis

import "solir/internal/ir"

// Loop is one natural loop: the set of blocks that can reach Tail
// without going through Header, plus Header itself, grounded on the
// back-edge definition in the Rust DominatorTree/CFG pairing
// (thalir-core/src/analysis/cfg.rs, dominator.rs).
type Loop struct {
	Header ir.BlockId
	Tail   ir.BlockId
	Blocks map[ir.BlockId]bool
}

// Exits returns the blocks in the loop with a successor outside it.
func (l *Loop) Exits(cfg *CFG) []ir.BlockId {
	var out []ir.BlockId
	for b := range l.Blocks {
		for _, s := range cfg.Successors(b) {
			if !l.Blocks[s] {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

// LoopForest holds every natural loop in a function plus each block's
// loop depth (how many loops contain it).
type LoopForest struct {
	Loops []*Loop
	depth map[ir.BlockId]int
}

func (f *LoopForest) Depth(b ir.BlockId) int { return f.depth[b] }

// FindLoops computes the natural loop for every back edge.
func FindLoops(cfg *CFG, dt *DominatorTree) *LoopForest {
	forest := &LoopForest{depth: make(map[ir.BlockId]int)}
	for _, e := range cfg.BackEdges(dt) {
		loop := naturalLoop(cfg, e.From, e.To)
		forest.Loops = append(forest.Loops, loop)
		for b := range loop.Blocks {
			forest.depth[b]++
		}
	}
	return forest
}

// naturalLoop computes the set of blocks that reach tail without
// passing through header, plus header.
func naturalLoop(cfg *CFG, tail, header ir.BlockId) *Loop {
	blocks := map[ir.BlockId]bool{header: true, tail: true}
	stack := []ir.BlockId{tail}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range cfg.Predecessors(b) {
			if p == header || blocks[p] {
				continue
			}
			blocks[p] = true
			stack = append(stack, p)
		}
	}
	return &Loop{Header: header, Tail: tail, Blocks: blocks}
}
