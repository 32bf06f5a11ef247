package solparse

import "github.com/alecthomas/participle/v2/lexer"

// SolLexer is a stateful lexer for the Solidity subset this package
// parses, the same rule-table style as kanso's KansoLexer
// (grammar/lexer.go), retargeted to Solidity's keyword and
// punctuation set instead of Kanso's.
var SolLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `//[^\n]*`, Action: nil},
		{Name: "BlockComment", Pattern: `/\*([^*]|\*[^/])*\*/`, Action: nil},
		{Name: "String", Pattern: `"(\\.|[^"\\])*"`, Action: nil},
		{Name: "HexNumber", Pattern: `0x[0-9a-fA-F]+`, Action: nil},
		{Name: "Number", Pattern: `[0-9][0-9_]*`, Action: nil},
		{Name: "Ident", Pattern: `[a-zA-Z_$][a-zA-Z0-9_$]*`, Action: nil},
		{Name: "Operator", Pattern: `(\+\+|--|\|\||&&|==|!=|<=|>=|=>|\+=|-=|\*=|/=|%=|=|[-+*/%&|^<>!])`, Action: nil},
		{Name: "Punctuation", Pattern: `[{}\[\]().,;:]`, Action: nil},
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
	},
})
