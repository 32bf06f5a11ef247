package ir

import "solir/internal/srcreg"

// StorageSlot is one entry of a contract's storage layout.
type StorageSlot struct {
	SlotIndex  int64
	ByteOffset int
	Type       Type
	Name       string
	PackedWith []string
}

// Event is one declared event's name and typed field list, referenced
// by EmitEvent.
type Event struct {
	ID     EventId
	Name   string
	Fields []Param
	// Indexed marks which fields are log topics rather than data.
	Indexed []bool
}

// Modifier is one declared function modifier's name. Modifier bodies
// are not parsed or lowered: each Function records only the names of
// the modifiers it uses, and the lowerer does not fill this
// contract-level table.
type Modifier struct {
	Name string
}

// Metadata carries a contract's provenance.
type Metadata struct {
	SourceFilePath string
	SourceText     string
	Version        string
}

// SourceFileEntry is one row of a contract's optional source-file map.
type SourceFileEntry struct {
	FileID     srcreg.FileID
	Path       string
	Text       string
	LineStarts []int
}

// Contract is the top-level compiled unit.
type Contract struct {
	Name string

	// Functions is keyed by Function.MangledName() so overloads coexist.
	Functions map[string]*Function
	// FunctionOrder preserves declaration order for deterministic output.
	FunctionOrder []string

	Storage  []StorageSlot
	Events   map[EventId]*Event
	Modifiers map[string]*Modifier
	Constants map[string]Constant

	Metadata Metadata
	Sources  []SourceFileEntry

	Types *Registry
}

func NewContract(name string) *Contract {
	return &Contract{
		Name:      name,
		Functions: make(map[string]*Function),
		Events:    make(map[EventId]*Event),
		Modifiers: make(map[string]*Modifier),
		Constants: make(map[string]Constant),
		Types:     NewRegistry(),
	}
}

// AddFunction inserts a function keyed by its mangled name, recording
// declaration order for stable iteration.
func (c *Contract) AddFunction(f *Function) {
	name := f.MangledName()
	if _, exists := c.Functions[name]; !exists {
		c.FunctionOrder = append(c.FunctionOrder, name)
	}
	c.Functions[name] = f
}

func (c *Contract) Function(mangledName string) (*Function, bool) {
	f, ok := c.Functions[mangledName]
	return f, ok
}

// OrderedFunctions returns functions in declaration order.
func (c *Contract) OrderedFunctions() []*Function {
	out := make([]*Function, 0, len(c.FunctionOrder))
	for _, name := range c.FunctionOrder {
		out = append(out, c.Functions[name])
	}
	return out
}
