package analysis

import "solir/internal/ir"

// Location identifies one instruction site within a function.
type Location struct {
	Block       ir.BlockId
	Instruction int // index within the block; -1 means the terminator
}

// valueKey is a hashable identity for an ir.Value: two Values with the
// same Kind and id field denote the same SSA name.
type valueKey struct {
	kind ir.ValueKind
	id   uint32
}

func keyOf(v ir.Value) (valueKey, bool) {
	switch v.Kind {
	case ir.ValTemp:
		return valueKey{ir.ValTemp, uint32(v.Temp)}, true
	case ir.ValParam:
		return valueKey{ir.ValParam, uint32(v.Param)}, true
	case ir.ValVar:
		return valueKey{ir.ValVar, uint32(v.Var)}, true
	case ir.ValBlockParam:
		return valueKey{ir.ValBlockParam, uint32(v.BlockArg.Block)<<16 | v.BlockArg.Index}, true
	case ir.ValStorageRef:
		return valueKey{ir.ValStorageRef, uint32(v.Storage)}, true
	case ir.ValMemoryRef:
		return valueKey{ir.ValMemoryRef, uint32(v.Memory)}, true
	case ir.ValGlobalRef:
		return valueKey{ir.ValGlobalRef, uint32(v.Global)}, true
	default:
		return valueKey{}, false
	}
}

// DefUseChains maps each SSA value to where it is defined and where it
// is used (Def-Use Chains), grounded on the original Rust
// DefUseChains (thalir-core/src/analysis/def_use.rs), simplified to
// this IR's flat Instruction.Result()/Operands() projection instead of
// a per-variant extractor.
type DefUseChains struct {
	definitions map[valueKey]Location
	uses        map[valueKey][]Location
}

// BuildDefUseChains walks every block's instruction list and
// terminator, recording Result() as a definition and Operands() (plus
// terminator operands) as uses.
func BuildDefUseChains(fn *ir.Function) *DefUseChains {
	duc := &DefUseChains{
		definitions: make(map[valueKey]Location),
		uses:        make(map[valueKey][]Location),
	}

	for id, blk := range fn.Body.Blocks {
		for idx, inst := range blk.Instructions {
			loc := Location{Block: id, Instruction: idx}
			if res := inst.Result(); res != nil {
				if k, ok := keyOf(*res); ok {
					duc.definitions[k] = loc
				}
			}
			for _, op := range inst.Operands() {
				if k, ok := keyOf(op); ok {
					duc.uses[k] = append(duc.uses[k], loc)
				}
			}
		}
		termLoc := Location{Block: id, Instruction: -1}
		for _, op := range termOperands(blk.Term) {
			if k, ok := keyOf(op); ok {
				duc.uses[k] = append(duc.uses[k], termLoc)
			}
		}
	}
	return duc
}

func termOperands(t ir.Terminator) []ir.Value {
	switch t.Kind {
	case ir.TermBranch:
		ops := append([]ir.Value{t.Cond}, t.ThenArgs...)
		return append(ops, t.ElseArgs...)
	case ir.TermJump:
		return t.Args
	case ir.TermSwitch:
		ops := []ir.Value{t.Switched}
		for _, c := range t.Cases {
			ops = append(ops, c.Value)
		}
		return ops
	case ir.TermReturn:
		if t.ReturnValue != nil {
			return []ir.Value{*t.ReturnValue}
		}
		return nil
	default:
		return nil
	}
}

// Definition returns where v is defined, if known.
func (d *DefUseChains) Definition(v ir.Value) (Location, bool) {
	k, ok := keyOf(v)
	if !ok {
		return Location{}, false
	}
	loc, ok := d.definitions[k]
	return loc, ok
}

// Uses returns every location that reads v.
func (d *DefUseChains) Uses(v ir.Value) []Location {
	k, ok := keyOf(v)
	if !ok {
		return nil
	}
	return d.uses[k]
}

// IsDead reports whether v is defined but never used.
func (d *DefUseChains) IsDead(v ir.Value) bool {
	k, ok := keyOf(v)
	if !ok {
		return false
	}
	_, defined := d.definitions[k]
	return defined && len(d.uses[k]) == 0
}
