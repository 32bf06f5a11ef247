// Package irbuilder is a stateful cursor over a partially-constructed
// function. It exposes one method per instruction shape, generalizing
// kanso's fluent Builder (internal/ir/builder.go, which walks an AST
// and calls one push-method per node) to drive this package's
// instruction sum directly instead of an AST.
package irbuilder

import (
	"fmt"

	"solir/internal/errs"
	"solir/internal/ir"
	"solir/internal/srcreg"
)

// Builder constructs one Function at a time. Temp ids are allocated
// from a monotonic per-function counter.
type Builder struct {
	fn        *ir.Function
	blocks    map[ir.BlockId]*ir.BasicBlock
	current   ir.BlockId
	nextBlock ir.BlockId
	nextTemp  ir.TempId
	createdBy map[ir.BlockId]bool
}

// New starts a builder for a function with the given signature,
// auto-creating exactly one entry block.
func New(sig ir.Signature, vis ir.Visibility, mut ir.Mutability, modifiers []string) *Builder {
	b := &Builder{
		blocks:    make(map[ir.BlockId]*ir.BasicBlock),
		createdBy: make(map[ir.BlockId]bool),
	}
	entry := b.newBlockID()
	params := make([]ir.BlockParam, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = ir.BlockParam{Type: p.Type}
	}
	b.blocks[entry] = ir.NewBasicBlock(entry, params)
	b.createdBy[entry] = true
	b.current = entry

	b.fn = &ir.Function{
		Signature:  sig,
		Visibility: vis,
		Mutability: mut,
		Modifiers:  modifiers,
		Body:       ir.Body{Entry: entry, Blocks: b.blocks},
	}
	return b
}

func (b *Builder) newBlockID() ir.BlockId {
	id := b.nextBlock
	b.nextBlock++
	return id
}

// NewTemp allocates a fresh SSA Temp of the given type.
func (b *Builder) NewTemp(t ir.Type) ir.Value {
	id := b.nextTemp
	b.nextTemp++
	return ir.TempVal(id, t)
}

// EntryBlock returns the auto-created entry block id.
func (b *Builder) EntryBlock() ir.BlockId { return b.fn.Body.Entry }

// CreateBlock creates a new, empty, unsealed block and returns its id.
func (b *Builder) CreateBlock(params []ir.BlockParam) ir.BlockId {
	id := b.newBlockID()
	b.blocks[id] = ir.NewBasicBlock(id, params)
	b.createdBy[id] = true
	return id
}

// SwitchToBlock moves the cursor to an existing block. It fails if the
// block was not created by this builder.
func (b *Builder) SwitchToBlock(id ir.BlockId) error {
	if !b.createdBy[id] {
		return errs.Newf(errs.BuilderError, "switch_to_block: block %d was not created by this builder", id)
	}
	b.current = id
	return nil
}

func (b *Builder) currentBlock() *ir.BasicBlock { return b.blocks[b.current] }

// CurrentBlockID returns the block the cursor is positioned on.
func (b *Builder) CurrentBlockID() ir.BlockId { return b.current }

// CurrentSealed reports whether the current block already has a
// terminator.
func (b *Builder) CurrentSealed() bool { return b.currentBlock().IsSealed() }

// append appends a non-terminator instruction to the current block,
// rejecting the append if the block is already sealed.
func (b *Builder) append(inst ir.Instruction, sp srcreg.Span) error {
	blk := b.currentBlock()
	if blk.IsSealed() {
		return errs.Newf(errs.BuilderError, "cannot append to sealed block %d", blk.ID)
	}
	blk.Append(inst, sp)
	return nil
}

// Seal terminates the current block exactly once.
func (b *Builder) Seal(term ir.Terminator) error {
	blk := b.currentBlock()
	if blk.IsSealed() {
		return errs.Newf(errs.BuilderError, "block %d already sealed", blk.ID)
	}
	blk.Seal(term)
	return nil
}

// Build validates the function and returns it. It fails if any created
// block is unterminated or unreachable from entry, and checks the
// entry-arity invariant.
func (b *Builder) Build() (*ir.Function, error) {
	for id, blk := range b.blocks {
		if !blk.IsSealed() {
			return nil, errs.Newf(errs.BuilderError, "block %d is unterminated", id)
		}
	}
	if err := b.checkReachability(); err != nil {
		return nil, err
	}
	if !b.fn.CheckEntryArity() {
		return nil, errs.New(errs.InvariantViolation, "entry block arity does not match function arity")
	}
	return b.fn, nil
}

func (b *Builder) checkReachability() error {
	seen := map[ir.BlockId]bool{b.fn.Body.Entry: true}
	stack := []ir.BlockId{b.fn.Body.Entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		blk, ok := b.blocks[id]
		if !ok {
			continue
		}
		for _, succ := range blk.Term.Successors() {
			if !seen[succ] {
				seen[succ] = true
				stack = append(stack, succ)
			}
		}
	}
	for id := range b.blocks {
		if !seen[id] {
			return errs.Newf(errs.BuilderError, "block %d is unreachable from entry", id)
		}
	}
	return nil
}

// --- Arithmetic ---

func (b *Builder) Add(left, right ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpAdd, left, right, t, sp)
}
func (b *Builder) Sub(left, right ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpSub, left, right, t, sp)
}
func (b *Builder) Mul(left, right ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpMul, left, right, t, sp)
}
func (b *Builder) Div(left, right ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpDiv, left, right, t, sp)
}
func (b *Builder) Mod(left, right ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpMod, left, right, t, sp)
}
func (b *Builder) CheckedAdd(left, right ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpCheckedAdd, left, right, t, sp)
}
func (b *Builder) CheckedSub(left, right ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpCheckedSub, left, right, t, sp)
}
func (b *Builder) CheckedMul(left, right ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpCheckedMul, left, right, t, sp)
}
func (b *Builder) And(left, right ir.Value, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpAnd, left, right, ir.BoolType{}, sp)
}
func (b *Builder) Or(left, right ir.Value, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpOr, left, right, ir.BoolType{}, sp)
}
func (b *Builder) Xor(left, right ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpXor, left, right, t, sp)
}
func (b *Builder) Eq(left, right ir.Value, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpEq, left, right, ir.BoolType{}, sp)
}
func (b *Builder) Lt(left, right ir.Value, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpLt, left, right, ir.BoolType{}, sp)
}
func (b *Builder) Gt(left, right ir.Value, sp srcreg.Span) (ir.Value, error) {
	return b.binary(ir.OpGt, left, right, ir.BoolType{}, sp)
}

func (b *Builder) binary(op ir.Op, left, right ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(t)
	if err := b.append(&ir.Binary{Res: res, Op: op, LeftV: left, RightV: right, Ty: t, Loc: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

func (b *Builder) Not(val ir.Value, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(ir.BoolType{})
	if err := b.append(&ir.Unary{Res: res, Op: ir.OpNot, Val: val, Loc: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

func (b *Builder) Shl(val, shift ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	return b.shift(ir.OpShl, val, shift, t, sp)
}
func (b *Builder) Shr(val, shift ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	return b.shift(ir.OpShr, val, shift, t, sp)
}
func (b *Builder) Sar(val, shift ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	return b.shift(ir.OpSar, val, shift, t, sp)
}

func (b *Builder) shift(op ir.Op, val, shift ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(t)
	if err := b.append(&ir.Shift{Res: res, Op: op, Val: val, Shift: shift, Loc: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

// Select implements short-circuit `&&`/`||` lowering using a Select
// instruction rather than branching control flow.
func (b *Builder) Select(cond, thenVal, elseVal ir.Value, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(thenVal.Type)
	if err := b.append(&ir.Select{Res: res, Cond: cond, ThenVal: thenVal, ElseVal: elseVal, Loc: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

// --- Memory ---

func (b *Builder) Load(loc ir.Location, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(t)
	if err := b.append(&ir.Load{Res: res, Loc: loc, Sp: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

func (b *Builder) Store(loc ir.Location, val ir.Value, sp srcreg.Span) error {
	return b.append(&ir.Store{Loc: loc, Val: val, Sp: sp}, sp)
}

func (b *Builder) Allocate(t ir.Type, sz ir.Size, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(ir.PointerType{Elem: t, Space: ir.SpaceMemory})
	if err := b.append(&ir.Allocate{Res: res, Ty: t, Sz: sz, Sp: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

func (b *Builder) Copy(dest, src ir.Location, size ir.Value, sp srcreg.Span) error {
	return b.append(&ir.Copy{Dest: dest, Src: src, Sz: size, Sp: sp}, sp)
}

// --- Storage ---

func (b *Builder) StorageLoad(key ir.StorageKey, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(t)
	if err := b.append(&ir.StorageLoad{Res: res, Key: key, Sp: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

func (b *Builder) StorageStore(key ir.StorageKey, val ir.Value, sp srcreg.Span) error {
	return b.append(&ir.StorageStore{Key: key, Val: val, Sp: sp}, sp)
}

func (b *Builder) StorageDelete(key ir.StorageKey, sp srcreg.Span) error {
	return b.append(&ir.StorageDelete{Key: key, Sp: sp}, sp)
}

func (b *Builder) MappingLoad(mapping, key ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(t)
	if err := b.append(&ir.MappingLoad{Res: res, Mapping: mapping, Key: key, Sp: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

func (b *Builder) MappingStore(mapping, key, val ir.Value, sp srcreg.Span) error {
	return b.append(&ir.MappingStore{Mapping: mapping, Key: key, Val: val, Sp: sp}, sp)
}

func (b *Builder) ArrayLoad(array, index ir.Value, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(t)
	if err := b.append(&ir.ArrayLoad{Res: res, Array: array, Index: index, Sp: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

func (b *Builder) ArrayStore(array, index, val ir.Value, sp srcreg.Span) error {
	return b.append(&ir.ArrayStore{Array: array, Index: index, Val: val, Sp: sp}, sp)
}

// --- Calls ---

func (b *Builder) CallInternal(name string, args []ir.Value, returnType ir.Type, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(returnType)
	target := ir.CallTarget{Kind: ir.TargetInternal, Name: name}
	if err := b.append(&ir.Call{Res: res, Target: target, Args: args, Sp: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

func (b *Builder) CallExternal(address ir.Value, args []ir.Value, value *ir.Value, returnType ir.Type, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(returnType)
	target := ir.CallTarget{Kind: ir.TargetExternal, Address: address}
	if err := b.append(&ir.Call{Res: res, Target: target, Args: args, Val: value, Sp: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

// --- Context, crypto, events ---

func (b *Builder) GetContext(v ir.ContextVar, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(t)
	if err := b.append(&ir.GetContext{Res: res, Var: v, Sp: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

func (b *Builder) Keccak256(data, length ir.Value, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(ir.BytesType{N: 32})
	if err := b.append(&ir.Keccak256{Res: res, Data: data, Len: length, Sp: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

func (b *Builder) EmitEvent(event ir.EventId, topics, data []ir.Value, sp srcreg.Span) error {
	return b.append(&ir.EmitEvent{Event: event, Topics: topics, Data: data, Sp: sp}, sp)
}

// --- Guards ---

func (b *Builder) Require(cond ir.Value, message string, sp srcreg.Span) error {
	return b.append(&ir.Guard{Kind: ir.GuardRequire, Cond: cond, Message: message, Sp: sp}, sp)
}

func (b *Builder) Assert(cond ir.Value, message string, sp srcreg.Span) error {
	return b.append(&ir.Guard{Kind: ir.GuardAssert, Cond: cond, Message: message, Sp: sp}, sp)
}

// --- Conversions ---

func (b *Builder) Cast(val ir.Value, to ir.Type, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(to)
	if err := b.append(&ir.Convert{Res: res, Kind: ir.ConvCast, Val: val, To: to, Sp: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

// --- Assign / Phi ---

func (b *Builder) Assign(val ir.Value, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(val.Type)
	if err := b.append(&ir.Assign{Res: res, Val: val, Sp: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

func (b *Builder) Phi(inputs []ir.PhiInput, t ir.Type, sp srcreg.Span) (ir.Value, error) {
	res := b.NewTemp(t)
	if err := b.append(&ir.Phi{Res: res, Inputs: inputs, Sp: sp}, sp); err != nil {
		return ir.Value{}, err
	}
	return res, nil
}

// --- Terminators ---

func (b *Builder) Jump(target ir.BlockId, args []ir.Value, sp srcreg.Span) error {
	return b.Seal(ir.Jump(target, args, sp))
}

func (b *Builder) Branch(cond ir.Value, thenB ir.BlockId, thenArgs []ir.Value, elseB ir.BlockId, elseArgs []ir.Value, sp srcreg.Span) error {
	return b.Seal(ir.Branch(cond, thenB, thenArgs, elseB, elseArgs, sp))
}

func (b *Builder) Switch(val ir.Value, cases []ir.SwitchCase, def ir.BlockId, sp srcreg.Span) error {
	return b.Seal(ir.Switch(val, cases, def, sp))
}

func (b *Builder) Return(val *ir.Value, sp srcreg.Span) error {
	return b.Seal(ir.Return(val, sp))
}

func (b *Builder) Revert(message string, sp srcreg.Span) error {
	return b.Seal(ir.RevertTerm(message, sp))
}

func (b *Builder) Panic(message string, sp srcreg.Span) error {
	return b.Seal(ir.PanicTerm(message, sp))
}

// String renders the builder's current function identity for error
// messages and logging.
func (b *Builder) String() string {
	return fmt.Sprintf("builder(%s, %d blocks)", b.fn.Signature.Name, len(b.blocks))
}
