package solparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"solir/internal/cst"
	"solir/internal/errs"
	"solir/internal/srcreg"
)

var sourceParser = participle.MustBuild[SourceFile](
	participle.Lexer(SolLexer),
	participle.Elide("Whitespace", "Comment", "BlockComment"),
	participle.UseLookahead(4),
)

// Parse builds the participle tree for source text already registered
// under fileID, then flattens it into the generic cst.Node shape that
// internal/lower consumes.
func Parse(fileID srcreg.FileID, path, source string) (*cst.Node, error) {
	tree, err := sourceParser.ParseString(path, source)
	if err != nil {
		return nil, errs.Newf(errs.ParseError, "%s", FormatParseError(source, err))
	}
	return convertSourceFile(fileID, tree), nil
}

// FormatParseError renders a caret-style parse error message, the same
// shape kanso's CLI prints for Kanso syntax errors (grammar/parser.go
// reportParseError / cmd/kanso-cli/main.go reportParseError).
func FormatParseError(src string, err error) string {
	pe, ok := err.(participle.Error)
	if !ok {
		return err.Error()
	}
	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		return fmt.Sprintf("syntax error at unknown location: %s", err)
	}
	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"
	return fmt.Sprintf("syntax error at line %d, column %d:\n%s\n%s\n%s", pos.Line, pos.Column, line, caret, pe.Message())
}

func span(fileID srcreg.FileID, pos lexer.Position, length int) srcreg.Span {
	return srcreg.Span{FileID: uint32(fileID), StartByte: uint32(pos.Offset), Len: uint32(length)}
}

func convertSourceFile(fileID srcreg.FileID, sf *SourceFile) *cst.Node {
	root := cst.NewNode(cst.KindSourceFile, srcreg.Invalid)
	for _, c := range sf.Contracts {
		root.AddChild(convertContract(fileID, c))
	}
	return root
}

func convertContract(fileID srcreg.FileID, c *Contract) *cst.Node {
	n := cst.NewNode(cst.KindContract, span(fileID, c.Pos, 0))
	n.Text = c.Name
	for _, m := range c.Members {
		switch {
		case m.StateVar != nil:
			n.AddChild(convertStateVar(fileID, m.StateVar))
		case m.Event != nil:
			n.AddChild(convertEvent(fileID, m.Event))
		case m.Function != nil:
			n.AddChild(convertFunction(fileID, m.Function))
		}
	}
	return n
}

func convertTypeRef(t *TypeRef) *cst.Node {
	n := cst.NewNode(cst.KindTypeRef, srcreg.Invalid)
	n.Text = t.Name
	if t.IsArray {
		n.Attr["array"] = "true"
	}
	if t.Mapping != nil {
		n.Attr["mapping_key"] = t.Mapping.Key
		n.AddChild(convertTypeRef(t.Mapping.Value))
	}
	return n
}

func convertStateVar(fileID srcreg.FileID, s *StateVarDecl) *cst.Node {
	n := cst.NewNode(cst.KindStateVarDecl, span(fileID, s.Pos, 0))
	n.Text = s.Name
	n.AddChild(convertTypeRef(s.Type))
	if s.Default != nil {
		n.AddChild(convertExpr(fileID, s.Default))
	}
	return n
}

func convertEvent(fileID srcreg.FileID, e *EventDecl) *cst.Node {
	n := cst.NewNode(cst.KindEventDecl, span(fileID, e.Pos, 0))
	n.Text = e.Name
	for _, f := range e.Fields {
		field := cst.NewNode(cst.KindParam, srcreg.Invalid)
		field.Text = f.Name
		if f.Indexed {
			field.Attr["indexed"] = "true"
		}
		field.AddChild(convertTypeRef(f.Type))
		n.AddChild(field)
	}
	return n
}

func convertFunction(fileID srcreg.FileID, f *FunctionDecl) *cst.Node {
	n := cst.NewNode(cst.KindFunctionDecl, span(fileID, f.Pos, 0))
	n.Text = f.Name
	n.Attr["visibility"] = f.Visibility
	n.Attr["mutability"] = f.Mutability
	n.Attr["modifiers"] = strings.Join(f.Modifiers, ",")
	for _, p := range f.Params {
		param := cst.NewNode(cst.KindParam, srcreg.Invalid)
		param.Text = p.Name
		param.AddChild(convertTypeRef(p.Type))
		n.AddChild(param)
	}
	for _, r := range f.Returns {
		ret := cst.NewNode(cst.KindTypeRef, srcreg.Invalid)
		*ret = *convertTypeRef(r)
		ret.Attr["is_return"] = "true"
		n.AddChild(ret)
	}
	n.AddChild(convertBlock(fileID, f.Body))
	return n
}

func convertBlock(fileID srcreg.FileID, b *Block) *cst.Node {
	n := cst.NewNode(cst.KindBlock, srcreg.Invalid)
	for _, s := range b.Statements {
		n.AddChild(convertStatement(fileID, s))
	}
	return n
}

func convertStatement(fileID srcreg.FileID, s *Statement) *cst.Node {
	sp := span(fileID, s.Pos, 0)
	switch {
	case s.Return != nil:
		n := cst.NewNode(cst.KindReturnStmt, sp)
		if s.Return.Value != nil {
			n.AddChild(convertExpr(fileID, s.Return.Value))
		}
		return n
	case s.If != nil:
		n := cst.NewNode(cst.KindIfStmt, sp)
		n.AddChild(convertExpr(fileID, s.If.Cond))
		n.AddChild(convertBlock(fileID, s.If.Then))
		if s.If.Else != nil {
			n.AddChild(convertBlock(fileID, s.If.Else))
		}
		return n
	case s.While != nil:
		n := cst.NewNode(cst.KindWhileStmt, sp)
		n.AddChild(convertExpr(fileID, s.While.Cond))
		n.AddChild(convertBlock(fileID, s.While.Body))
		return n
	case s.For != nil:
		n := cst.NewNode(cst.KindForStmt, sp)
		if s.For.Init != nil {
			n.AddChild(convertVarDeclStmt(fileID, s.For.Init))
		} else {
			n.AddChild(cst.NewNode(cst.KindBlock, srcreg.Invalid))
		}
		if s.For.Cond != nil {
			n.AddChild(convertExpr(fileID, s.For.Cond))
		} else {
			n.AddChild(cst.NewNode(cst.KindBlock, srcreg.Invalid))
		}
		if s.For.Post != nil {
			n.AddChild(convertExpr(fileID, s.For.Post))
		} else {
			n.AddChild(cst.NewNode(cst.KindBlock, srcreg.Invalid))
		}
		n.AddChild(convertBlock(fileID, s.For.Body))
		return n
	case s.Break != nil:
		return cst.NewNode(cst.KindBreakStmt, sp)
	case s.Continue != nil:
		return cst.NewNode(cst.KindContinueStmt, sp)
	case s.VarDecl != nil:
		return convertVarDeclStmt(fileID, s.VarDecl)
	case s.Assign != nil:
		n := cst.NewNode(cst.KindAssignStmt, sp)
		n.Attr["op"] = s.Assign.Op
		n.AddChild(convertPostfix(fileID, s.Assign.Target))
		n.AddChild(convertExpr(fileID, s.Assign.Value))
		return n
	default:
		n := cst.NewNode(cst.KindExprStmt, sp)
		if s.Expr != nil {
			n.AddChild(convertExpr(fileID, s.Expr.Expr))
		}
		return n
	}
}

func convertVarDeclStmt(fileID srcreg.FileID, v *VarDeclStmt) *cst.Node {
	n := cst.NewNode(cst.KindVarDeclStmt, srcreg.Invalid)
	n.Text = v.Name
	n.AddChild(convertTypeRef(v.Type))
	if v.Init != nil {
		n.AddChild(convertExpr(fileID, v.Init))
	}
	return n
}

func convertExpr(fileID srcreg.FileID, e *Expr) *cst.Node {
	left := convertUnary(fileID, e.Left)
	for _, op := range e.Ops {
		bin := cst.NewNode(cst.KindBinaryExpr, left.Span)
		bin.Text = op.Operator
		bin.AddChild(left)
		bin.AddChild(convertUnary(fileID, op.Right))
		left = bin
	}
	return left
}

func convertUnary(fileID srcreg.FileID, u *UnaryExpr) *cst.Node {
	post := convertPostfix(fileID, u.Value)
	if u.Operator == nil {
		return post
	}
	n := cst.NewNode(cst.KindUnaryExpr, post.Span)
	n.Text = *u.Operator
	n.AddChild(post)
	return n
}

func convertPostfix(fileID srcreg.FileID, p *PostfixExpr) *cst.Node {
	n := convertPrimary(fileID, p.Primary)
	for _, suf := range p.Suffix {
		switch {
		case suf.Call != nil:
			call := cst.NewNode(cst.KindCallExpr, n.Span)
			call.AddChild(n)
			for _, a := range suf.Call.Args {
				call.AddChild(convertExpr(fileID, a))
			}
			n = call
		case suf.Index != nil:
			idx := cst.NewNode(cst.KindIndexExpr, n.Span)
			idx.AddChild(n)
			idx.AddChild(convertExpr(fileID, suf.Index))
			n = idx
		default:
			mem := cst.NewNode(cst.KindMemberExpr, n.Span)
			mem.Text = suf.Member
			mem.AddChild(n)
			n = mem
		}
	}
	return n
}

func convertPrimary(fileID srcreg.FileID, p *PrimaryExpr) *cst.Node {
	sp := span(fileID, p.Pos, 0)
	switch {
	case p.Number != nil:
		n := cst.NewNode(cst.KindNumberLit, sp)
		n.Text = normalizeNumber(*p.Number)
		return n
	case p.Bool != nil:
		n := cst.NewNode(cst.KindBoolLit, sp)
		n.Text = *p.Bool
		return n
	case p.Str != nil:
		n := cst.NewNode(cst.KindStringLit, sp)
		n.Text = unquote(*p.Str)
		return n
	case p.Ident != nil:
		n := cst.NewNode(cst.KindIdentExpr, sp)
		n.Text = *p.Ident
		return n
	default:
		return convertExpr(fileID, p.Paren)
	}
}

func normalizeNumber(s string) string {
	return strings.ReplaceAll(s, "_", "")
}

func unquote(s string) string {
	if v, err := strconv.Unquote(s); err == nil {
		return v
	}
	return s
}
