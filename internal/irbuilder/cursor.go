package irbuilder

import (
	"solir/internal/ir"
	"solir/internal/srcreg"
)

// LoopContext is one entry of the break/continue stack maintained
// while lowering While/For statements, pairing an exit block with a
// continue target.
type LoopContext struct {
	ExitBlock     ir.BlockId
	ContinueBlock ir.BlockId
}

// Cursor lets the structural lowerer create blocks out of linear
// order — required for the conditional-diamond and loop shapes, where
// the merge/exit block must exist before either arm is lowered.
// Grounded on the original Rust FunctionBuilderCursor
// (thalir-core/src/builder/function_builder_cursor.rs), adapted to
// wrap this package's Builder instead of duplicating its state.
type Cursor struct {
	*Builder
	loops []LoopContext
}

func NewCursor(b *Builder) *Cursor {
	return &Cursor{Builder: b}
}

func (c *Cursor) PushLoop(ctx LoopContext) {
	c.loops = append(c.loops, ctx)
}

func (c *Cursor) PopLoop() {
	if len(c.loops) > 0 {
		c.loops = c.loops[:len(c.loops)-1]
	}
}

// CurrentLoop returns the innermost enclosing loop context, used to
// resolve break/continue.
func (c *Cursor) CurrentLoop() (LoopContext, bool) {
	if len(c.loops) == 0 {
		return LoopContext{}, false
	}
	return c.loops[len(c.loops)-1], true
}

// IfElse lowers the conditional-diamond pattern: it creates the then,
// else, and merge blocks, branches on cond, and returns their ids so
// the caller can switch into each arm and lower statements. An arm
// that does not itself terminate must jump to merge; the caller is
// responsible for that since only it knows whether the arm's last
// statement already terminated.
func (c *Cursor) IfElse(cond ir.Value, sp srcreg.Span) (thenB, elseB, mergeB ir.BlockId, err error) {
	thenB = c.CreateBlock(nil)
	elseB = c.CreateBlock(nil)
	mergeB = c.CreateBlock(nil)
	if err = c.Branch(cond, thenB, nil, elseB, nil, sp); err != nil {
		return
	}
	return thenB, elseB, mergeB, nil
}

// JumpToMergeIfOpen jumps the current block to merge unless it is
// already sealed (e.g. by a Return or Revert terminator lowered inside
// the arm).
func (c *Cursor) JumpToMergeIfOpen(merge ir.BlockId, sp srcreg.Span) error {
	if c.CurrentSealed() {
		return nil
	}
	return c.Jump(merge, nil, sp)
}

// WhileLoop creates the header/body/exit triple for a While statement
// and jumps into header; header evaluates the condition and branches
// to body or exit, and body jumps back to header.
// The caller lowers the condition and emits Branch(cond, body, exit)
// while positioned in header, then lowers the body, emits the back-edge
// with JumpToMergeIfOpen(header) (or Continue), and calls CloseLoop.
func (c *Cursor) WhileLoop(sp srcreg.Span) (header, body, exit ir.BlockId, err error) {
	header = c.CreateBlock(nil)
	body = c.CreateBlock(nil)
	exit = c.CreateBlock(nil)
	if err = c.Jump(header, nil, sp); err != nil {
		return
	}
	c.PushLoop(LoopContext{ExitBlock: exit, ContinueBlock: header})
	return header, body, exit, nil
}

// ForLoop is WhileLoop with an additional update block spliced before
// the back-edge.
func (c *Cursor) ForLoop(sp srcreg.Span) (header, body, update, exit ir.BlockId, err error) {
	header = c.CreateBlock(nil)
	body = c.CreateBlock(nil)
	update = c.CreateBlock(nil)
	exit = c.CreateBlock(nil)
	if err = c.Jump(header, nil, sp); err != nil {
		return
	}
	c.PushLoop(LoopContext{ExitBlock: exit, ContinueBlock: update})
	return header, body, update, exit, nil
}

// CloseLoop pops the loop context; call once the exit block has become
// current.
func (c *Cursor) CloseLoop() {
	c.PopLoop()
}

// Break jumps to the innermost loop's exit block.
func (c *Cursor) Break(sp srcreg.Span) error {
	loop, ok := c.CurrentLoop()
	if !ok {
		return nil
	}
	return c.Jump(loop.ExitBlock, nil, sp)
}

// Continue jumps to the innermost loop's continue target (the header
// for a while loop, the update block for a for loop).
func (c *Cursor) Continue(sp srcreg.Span) error {
	loop, ok := c.CurrentLoop()
	if !ok {
		return nil
	}
	return c.Jump(loop.ContinueBlock, nil, sp)
}
