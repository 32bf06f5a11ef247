package lower

import (
	"solir/internal/cst"
	"solir/internal/diagnostics"
	"solir/internal/errs"
	"solir/internal/ir"
	"solir/internal/irbuilder"
	"solir/internal/srcreg"
)

// Lowerer holds the mutable state threaded through one contract's
// lowering pass.
type Lowerer struct {
	diag     *diagnostics.Collector
	contract *ir.Contract
	storage  map[string]storageVar
	nextSlot int64

	fn       *irbuilder.Cursor
	scope    *scope
	fnName   string // for diagnostics
	eventIDs map[string]ir.EventId
}

// LowerContract walks a CST contract node and produces a populated
// ir.Contract plus the diagnostics collected along the way.
func LowerContract(root *cst.Node) (*ir.Contract, *diagnostics.Collector) {
	diag := diagnostics.NewCollector()
	var out *ir.Contract

	for _, c := range root.ChildrenOfKind(cst.KindContract) {
		l := &Lowerer{
			diag:     diag,
			storage:  make(map[string]storageVar),
			eventIDs: make(map[string]ir.EventId),
		}
		out = l.lowerOneContract(c)
	}
	if out == nil {
		out = ir.NewContract("")
	}
	return out, diag
}

func (l *Lowerer) lowerOneContract(c *cst.Node) *ir.Contract {
	contract := ir.NewContract(c.Text)
	l.contract = contract

	// First pass: storage layout, assigning each declared variable the
	// next sequential storage slot.
	for _, sv := range c.ChildrenOfKind(cst.KindStateVarDecl) {
		l.collectStateVar(sv)
	}

	// Second pass: event table.
	var nextEventID ir.EventId
	for _, ev := range c.ChildrenOfKind(cst.KindEventDecl) {
		l.collectEvent(ev, nextEventID)
		nextEventID++
	}

	// Third pass: functions.
	for _, fn := range c.ChildrenOfKind(cst.KindFunctionDecl) {
		f := l.lowerFunction(fn)
		if f != nil {
			contract.AddFunction(f)
		}
	}

	return contract
}

func (l *Lowerer) collectStateVar(n *cst.Node) {
	t := l.resolveType(n.Children[0])
	slot := l.nextSlot
	l.nextSlot++
	l.storage[n.Text] = storageVar{Slot: slot, Type: t}
	l.contract.Storage = append(l.contract.Storage, ir.StorageSlot{
		SlotIndex: slot,
		Type:      t,
		Name:      n.Text,
	})
}

func (l *Lowerer) collectEvent(n *cst.Node, id ir.EventId) {
	var fields []ir.Param
	var indexed []bool
	for _, f := range n.ChildrenOfKind(cst.KindParam) {
		fields = append(fields, ir.Param{Name: f.Text, Type: l.resolveType(f.Children[0])})
		indexed = append(indexed, f.Attr["indexed"] == "true")
	}
	l.eventIDs[n.Text] = id
	l.contract.Events[id] = &ir.Event{ID: id, Name: n.Text, Fields: fields, Indexed: indexed}
}

func (l *Lowerer) addDiag(kind errs.Kind, message string, sp srcreg.Span) {
	l.diag.Add(kind, l.fnName, message, sp)
}

// zeroFallback implements Robustness: substitute a
// conservative constant-zero value of the best-guess type and keep
// going rather than aborting the function.
func (l *Lowerer) zeroFallback(kind errs.Kind, message string, sp srcreg.Span, t ir.Type) ir.Value {
	l.addDiag(kind, message, sp)
	return ir.ConstVal(ir.ZeroOf(t))
}
