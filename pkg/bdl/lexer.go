package bdl

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// BDLLexer defines the lexical structure of board description files.
// Keywords (board, on, bind, to, when, ...) are plain identifiers matched by
// the grammar, so role and feature names may contain dashes.
var BDLLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments - shell or C++ style to end of line
	{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},

	// Whitespace
	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	// String literals with escape sequences
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},

	// Pin numbers and enum values
	{Name: "Int", Pattern: `[0-9]+`},

	// Identifiers: board, role, feature and alias names
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_\-]*`},

	// Punctuation
	{Name: "Punct", Pattern: `[{};,=]`},
})
