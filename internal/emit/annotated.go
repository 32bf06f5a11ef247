package emit

import (
	"fmt"
	"strings"

	"solir/internal/config"
	"solir/internal/ir"
)

// cue is one security-interest tag attached to an instruction.
type cue int

const (
	cueNone cue = iota
	cueExternalCall
	cueStateWrite
	cueDelegatecall
	cueSelfdestruct
	cueChecked
	cueUncheckedArith
	cueTxOrigin
	cueBlockTimestamp
	cueBlockVariable
)

var cueEmoji = map[cue]string{
	cueExternalCall:   "📞",
	cueStateWrite:     "💾",
	cueDelegatecall:   "🪞",
	cueSelfdestruct:   "💣",
	cueChecked:        "✅",
	cueUncheckedArith: "⚠️",
	cueTxOrigin:       "🧾",
	cueBlockTimestamp: "⏱️",
	cueBlockVariable:  "🧱",
}

var cueASCII = map[cue]string{
	cueExternalCall:   "[CALL]",
	cueStateWrite:     "[WRITE]",
	cueDelegatecall:   "[DELEGATE]",
	cueSelfdestruct:   "[SELFDESTRUCT]",
	cueChecked:        "[CHECKED]",
	cueUncheckedArith: "[UNCHECKED]",
	cueTxOrigin:       "[TX-ORIGIN]",
	cueBlockTimestamp: "[TIMESTAMP]",
	cueBlockVariable:  "[BLOCK-VAR]",
}

func cueGlyph(c cue, ascii bool) string {
	if c == cueNone {
		return ""
	}
	if ascii {
		return cueASCII[c]
	}
	return cueEmoji[c]
}

// classify assigns at most one cue to an instruction, in priority
// order where an instruction could otherwise match more than one
// category.
func classify(inst ir.Instruction) cue {
	switch v := inst.(type) {
	case *ir.DelegateCall:
		return cueDelegatecall
	case *ir.Selfdestruct:
		return cueSelfdestruct
	case *ir.Call:
		if v.Target.Kind == ir.TargetExternal {
			return cueExternalCall
		}
	case *ir.StaticCall:
		return cueExternalCall
	case *ir.StorageStore, *ir.MappingStore, *ir.ArrayStore, *ir.ArrayPush, *ir.ArrayPop, *ir.StorageDelete:
		return cueStateWrite
	case *ir.Binary:
		if v.IsChecked() {
			return cueChecked
		}
		if v.Op == ir.OpAdd || v.Op == ir.OpSub || v.Op == ir.OpMul {
			return cueUncheckedArith
		}
	case *ir.GetContext:
		switch v.Var {
		case ir.CtxTxOrigin:
			return cueTxOrigin
		case ir.CtxBlockTimestamp:
			return cueBlockTimestamp
		case ir.CtxBlockNumber, ir.CtxBlockDifficulty, ir.CtxBlockGasLimit, ir.CtxBlockCoinbase, ir.CtxBlockBaseFee, ir.CtxChainId:
			return cueBlockVariable
		}
	}
	return cueNone
}

// header counts cue occurrences across a function.
type header struct {
	externalCalls   int
	stateMods       int
	txOriginReads   int
	delegatecalls   int
	selfdestructs   int
	uncheckedArith  int
	timestampReads  int
	blockVarReads   int
	firstExternal   int
	hasExternal     bool
	firstStateWrite int
	hasStateWrite   bool
}

func (h *header) observe(c cue, position int) {
	switch c {
	case cueExternalCall:
		h.externalCalls++
		if !h.hasExternal {
			h.hasExternal, h.firstExternal = true, position
		}
	case cueStateWrite:
		h.stateMods++
		if !h.hasStateWrite {
			h.hasStateWrite, h.firstStateWrite = true, position
		}
	case cueDelegatecall:
		h.delegatecalls++
	case cueSelfdestruct:
		h.selfdestructs++
	case cueUncheckedArith:
		h.uncheckedArith++
	case cueTxOrigin:
		h.txOriginReads++
	case cueBlockTimestamp:
		h.timestampReads++
	case cueBlockVariable:
		h.blockVarReads++
	}
}

// reentrancyRisk reports whether an external call strictly precedes a
// state write anywhere in the function.
func (h *header) reentrancyRisk() (bool, int, int) {
	if h.hasExternal && h.hasStateWrite && h.firstExternal < h.firstStateWrite {
		return true, h.firstExternal, h.firstStateWrite
	}
	return false, 0, 0
}

// AnnotatedContract renders the contract with per-function security
// analysis headers and position-indexed, cue-tagged instructions.
func AnnotatedContract(c *ir.Contract, cfg config.EmitterConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "contract %s {\n", c.Name)

	for _, slot := range c.Storage {
		fmt.Fprintf(&b, "  slot_%d %s: %s\n", slot.SlotIndex, slot.Name, slot.Type)
	}
	if len(c.Storage) > 0 {
		b.WriteString("\n")
	}

	for _, fn := range c.OrderedFunctions() {
		b.WriteString(AnnotatedFunction(fn, cfg))
		b.WriteString("\n")
	}

	b.WriteString("}\n")
	return b.String()
}

// AnnotatedFunction renders one function with its analysis header.
func AnnotatedFunction(fn *ir.Function, cfg config.EmitterConfig) string {
	var b strings.Builder

	h := &header{}
	position := 0
	for _, id := range orderedBlockIds(fn) {
		blk := fn.Body.Blocks[id]
		for _, inst := range blk.Instructions {
			h.observe(classify(inst), position)
			position++
		}
		position++ // the terminator occupies a position slot too
	}

	paramTypes := make([]string, len(fn.Signature.Params))
	for i, p := range fn.Signature.Params {
		paramTypes[i] = p.Type.String()
	}
	fmt.Fprintf(&b, "  fn %s(%s) %s %s {\n", fn.MangledName(), strings.Join(paramTypes, ", "), fn.Visibility, fn.Mutability)
	b.WriteString("    ; analysis:\n")
	fmt.Fprintf(&b, "    ;   external_calls=%d state_mods=%d tx_origin_reads=%d delegatecalls=%d\n",
		h.externalCalls, h.stateMods, h.txOriginReads, h.delegatecalls)
	fmt.Fprintf(&b, "    ;   selfdestructs=%d unchecked_arith=%d timestamp_reads=%d block_var_reads=%d\n",
		h.selfdestructs, h.uncheckedArith, h.timestampReads, h.blockVarReads)
	if risk, p1, p2 := h.reentrancyRisk(); risk {
		fmt.Fprintf(&b, "    ;   REENTRANCY RISK: external call at [P%d] precedes state write at [P%d]\n", p1, p2)
	}

	position = 0
	for _, id := range orderedBlockIds(fn) {
		blk := fn.Body.Blocks[id]
		params := make([]string, len(blk.Params))
		for i, p := range blk.Params {
			params[i] = p.Type.String()
		}
		fmt.Fprintf(&b, "    block%d(%s):\n", blk.ID, strings.Join(params, ", "))
		for _, inst := range blk.Instructions {
			glyph := cueGlyph(classify(inst), cfg.ASCII)
			if glyph != "" {
				fmt.Fprintf(&b, "      [P%d] %s %s\n", position, glyph, mnemonic(inst))
			} else {
				fmt.Fprintf(&b, "      [P%d] %s\n", position, mnemonic(inst))
			}
			position++
		}
		fmt.Fprintf(&b, "      [P%d] %s\n", position, terminatorText(blk.Term))
		position++
	}

	b.WriteString("  }\n")
	return b.String()
}
