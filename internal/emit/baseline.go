package emit

import (
	"fmt"
	"sort"
	"strings"

	"solir/internal/ir"
)

// Contract renders a contract's baseline textual IR, deterministically.
func Contract(c *ir.Contract) string {
	var b strings.Builder
	fmt.Fprintf(&b, "contract %s {\n", c.Name)

	for _, slot := range c.Storage {
		fmt.Fprintf(&b, "  slot_%d %s: %s\n", slot.SlotIndex, slot.Name, slot.Type)
	}
	if len(c.Storage) > 0 {
		b.WriteString("\n")
	}

	for _, fn := range c.OrderedFunctions() {
		b.WriteString(Function(fn))
		b.WriteString("\n")
	}

	b.WriteString("}\n")
	return b.String()
}

// Function renders one function's baseline textual IR: header, then
// entry block first followed by the remaining blocks in stable
// (numeric) order.
func Function(fn *ir.Function) string {
	var b strings.Builder

	paramTypes := make([]string, len(fn.Signature.Params))
	for i, p := range fn.Signature.Params {
		paramTypes[i] = p.Type.String()
	}
	returnTypes := make([]string, len(fn.Signature.Returns))
	for i, t := range fn.Signature.Returns {
		returnTypes[i] = t.String()
	}

	fmt.Fprintf(&b, "  fn %s(%s) -> (%s) %s %s {\n",
		fn.MangledName(), strings.Join(paramTypes, ", "), strings.Join(returnTypes, ", "),
		fn.Visibility, fn.Mutability)

	for _, id := range orderedBlockIds(fn) {
		writeBlock(&b, fn.Body.Blocks[id])
	}

	b.WriteString("  }\n")
	return b.String()
}

// orderedBlockIds returns the entry block first, then the rest in
// ascending numeric order.
func orderedBlockIds(fn *ir.Function) []ir.BlockId {
	ids := make([]ir.BlockId, 0, len(fn.Body.Blocks))
	for id := range fn.Body.Blocks {
		if id != fn.Body.Entry {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return append([]ir.BlockId{fn.Body.Entry}, ids...)
}

func writeBlock(b *strings.Builder, blk *ir.BasicBlock) {
	params := make([]string, len(blk.Params))
	for i, p := range blk.Params {
		params[i] = p.Type.String()
	}
	fmt.Fprintf(b, "    block%d(%s):\n", blk.ID, strings.Join(params, ", "))
	for _, inst := range blk.Instructions {
		fmt.Fprintf(b, "      %s\n", mnemonic(inst))
	}
	fmt.Fprintf(b, "      %s\n", terminatorText(blk.Term))
}
