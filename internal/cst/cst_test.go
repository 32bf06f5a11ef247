package cst

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"solir/internal/srcreg"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "SourceFile", KindSourceFile.String())
	assert.Equal(t, "TypeRef", KindTypeRef.String())
	assert.Equal(t, "Unknown", Kind(999).String())
}

func TestNewNodeInitializesAttr(t *testing.T) {
	n := NewNode(KindContract, srcreg.Invalid)
	assert.NotNil(t, n.Attr)
	assert.Equal(t, KindContract, n.Kind)
	assert.Empty(t, n.Children)
}

func TestAddChild(t *testing.T) {
	root := NewNode(KindBlock, srcreg.Invalid)
	c1 := NewNode(KindReturnStmt, srcreg.Invalid)
	c2 := NewNode(KindIfStmt, srcreg.Invalid)

	root.AddChild(c1)
	root.AddChild(c2)

	assert.Equal(t, []*Node{c1, c2}, root.Children)
}

func TestChildrenOfKind(t *testing.T) {
	root := NewNode(KindContract, srcreg.Invalid)
	fn1 := NewNode(KindFunctionDecl, srcreg.Invalid)
	fn1.Text = "transfer"
	stateVar := NewNode(KindStateVarDecl, srcreg.Invalid)
	fn2 := NewNode(KindFunctionDecl, srcreg.Invalid)
	fn2.Text = "approve"

	root.AddChild(fn1)
	root.AddChild(stateVar)
	root.AddChild(fn2)

	fns := root.ChildrenOfKind(KindFunctionDecl)
	assert.Len(t, fns, 2)
	assert.Equal(t, "transfer", fns[0].Text)
	assert.Equal(t, "approve", fns[1].Text)

	assert.Empty(t, root.ChildrenOfKind(KindEventDecl))
}

func TestAttrRoundTrip(t *testing.T) {
	n := NewNode(KindFunctionDecl, srcreg.Invalid)
	n.Attr["visibility"] = "external"
	n.Attr["mutability"] = "view"

	assert.Equal(t, "external", n.Attr["visibility"])
	assert.Equal(t, "view", n.Attr["mutability"])
}
