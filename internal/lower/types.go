// Package lower implements the structural lowerer: a tree-walker that
// turns an internal/cst tree into a populated internal/ir.Contract,
// collecting non-fatal errors into an internal/diagnostics.Collector
// instead of panicking.
package lower

import (
	"strconv"
	"strings"

	"solir/internal/cst"
	"solir/internal/errs"
	"solir/internal/ir"
)

// resolveType maps a TypeRef node's declared type name to an ir.Type.
// Unknown names fall back to Uint256 with a diagnostic rather than
// aborting lowering.
func (l *Lowerer) resolveType(n *cst.Node) ir.Type {
	if n == nil {
		return ir.UintType{Bits: 256}
	}
	if n.Attr["array"] == "true" {
		elem := ir.UintType{Bits: 256}
		if len(n.Children) > 0 {
			elem = l.resolveType(n.Children[0])
		}
		return ir.ArrayType{Elem: elem}
	}
	if key, ok := n.Attr["mapping_key"]; ok {
		var valType ir.Type = ir.UintType{Bits: 256}
		if len(n.Children) > 0 {
			valType = l.resolveType(n.Children[0])
		}
		keyType := primitiveType(key)
		if keyType == (ir.UintType{Bits: 256}) && !strings.HasPrefix(key, "uint") {
			l.addDiag(errs.TypeError, "unknown type "+key+", using uint256", n.Span)
		}
		return ir.MappingType{Key: keyType, Value: valType}
	}
	t := primitiveType(n.Text)
	if t == (ir.UintType{Bits: 256}) && !strings.HasPrefix(n.Text, "uint") {
		l.addDiag(errs.TypeError, "unknown type "+n.Text+", using uint256", n.Span)
	}
	return t
}

func primitiveType(name string) ir.Type {
	switch {
	case name == "bool":
		return ir.BoolType{}
	case name == "address":
		return ir.AddressType{}
	case name == "string":
		return ir.StringType{}
	case strings.HasPrefix(name, "uint"):
		return ir.UintType{Bits: bitsOrDefault(name, "uint", 256)}
	case strings.HasPrefix(name, "int"):
		return ir.IntType{Bits: bitsOrDefault(name, "int", 256)}
	case strings.HasPrefix(name, "bytes"):
		n, err := strconv.Atoi(strings.TrimPrefix(name, "bytes"))
		if err != nil || n <= 0 {
			return ir.BytesType{N: 32}
		}
		return ir.BytesType{N: n}
	default:
		return ir.UintType{Bits: 256}
	}
}

func bitsOrDefault(name, prefix string, def int) int {
	suffix := strings.TrimPrefix(name, prefix)
	if suffix == "" {
		return def
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
