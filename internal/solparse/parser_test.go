package solparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solir/internal/cst"
)

const simpleContract = `
pragma solidity ^0.8.0;

contract Token {
    uint256 balance;

    event Transfer(address indexed from, address to, uint256 amount);

    function transfer(address to, uint256 amount) external returns (bool) {
        if (amount > balance) {
            return false;
        }
        balance = balance - amount;
        return true;
    }
}
`

func TestParseSimpleContract(t *testing.T) {
	root, err := Parse(0, "token.sol", simpleContract)
	require.NoError(t, err)
	require.Equal(t, cst.KindSourceFile, root.Kind)

	contracts := root.ChildrenOfKind(cst.KindContract)
	require.Len(t, contracts, 1)
	contract := contracts[0]
	assert.Equal(t, "Token", contract.Text)

	stateVars := contract.ChildrenOfKind(cst.KindStateVarDecl)
	require.Len(t, stateVars, 1)
	assert.Equal(t, "balance", stateVars[0].Text)

	events := contract.ChildrenOfKind(cst.KindEventDecl)
	require.Len(t, events, 1)
	assert.Equal(t, "Transfer", events[0].Text)
	require.Len(t, events[0].Children, 3)
	assert.Equal(t, "true", events[0].Children[0].Attr["indexed"])

	fns := contract.ChildrenOfKind(cst.KindFunctionDecl)
	require.Len(t, fns, 1)
	fn := fns[0]
	assert.Equal(t, "transfer", fn.Text)
	assert.Equal(t, "external", fn.Attr["visibility"])
}

func TestParseIfAndAssignStatements(t *testing.T) {
	root, err := Parse(0, "t.sol", simpleContract)
	require.NoError(t, err)

	fn := root.ChildrenOfKind(cst.KindContract)[0].ChildrenOfKind(cst.KindFunctionDecl)[0]
	var body *cst.Node
	for _, c := range fn.Children {
		if c.Kind == cst.KindBlock {
			body = c
		}
	}
	require.NotNil(t, body)
	require.GreaterOrEqual(t, len(body.Children), 2)

	ifStmt := body.Children[0]
	assert.Equal(t, cst.KindIfStmt, ifStmt.Kind)

	assignStmt := body.Children[1]
	assert.Equal(t, cst.KindAssignStmt, assignStmt.Kind)
	assert.Equal(t, "=", assignStmt.Attr["op"])
}

func TestParseBinaryExpressionShape(t *testing.T) {
	const src = `
contract C {
    function f() public returns (uint256) {
        return 1 + 2 * 3;
    }
}
`
	root, err := Parse(0, "t.sol", src)
	require.NoError(t, err)

	fn := root.ChildrenOfKind(cst.KindContract)[0].ChildrenOfKind(cst.KindFunctionDecl)[0]
	body := fn.ChildrenOfKind(cst.KindBlock)[0]
	ret := body.Children[0]
	require.Equal(t, cst.KindReturnStmt, ret.Kind)

	// Flat left-associative chain: (1 + 2) * 3, since the grammar
	// resolves precedence during lowering rather than in the grammar.
	top := ret.Children[0]
	assert.Equal(t, cst.KindBinaryExpr, top.Kind)
	assert.Equal(t, "*", top.Text)
}

func TestParseNumericLiteralUnderscores(t *testing.T) {
	const src = `
contract C {
    uint256 x = 1_000_000;
}
`
	root, err := Parse(0, "t.sol", src)
	require.NoError(t, err)
	stateVar := root.ChildrenOfKind(cst.KindContract)[0].ChildrenOfKind(cst.KindStateVarDecl)[0]
	require.Len(t, stateVar.Children, 2)
	lit := stateVar.Children[1]
	assert.Equal(t, cst.KindNumberLit, lit.Kind)
	assert.Equal(t, "1000000", lit.Text)
}

func TestParseSyntaxErrorIsFormatted(t *testing.T) {
	const broken = `contract C { function f( { } }`
	_, err := Parse(0, "broken.sol", broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error")
}

func TestFormatParseErrorNonParticipleError(t *testing.T) {
	msg := FormatParseError("irrelevant", assertError{"boom"})
	assert.Equal(t, "boom", msg)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
