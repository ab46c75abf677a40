// Package token defines the lexical tokens of the veil statement
// language and the tokenizer that produces them.
package token

// Kind identifies the lexical class of a token.
type Kind string

// Token kinds.
const (
	// Structural operators.
	Root     Kind = "ROOT"     // "::" statement opener
	Hier     Kind = "HIER"     // ":^:" hierarchical statement opener
	Relation Kind = "RELATION" // "//" declaration/target separator
	Param    Kind = "PARAM"    // "%" target/effect separator
	Trigger  Kind = "TRIGGER"  // "->" effect/output separator

	// Bracketed blocks. The token value is the inner text with the
	// delimiters stripped.
	Action   Kind = "ACTION"   // "{...}"
	Variable Kind = "VARIABLE" // "[...]"
	Option   Kind = "OPTION"   // "(...)"

	// Literals and names.
	Ident  Kind = "IDENT"
	String Kind = "STRING"
	Number Kind = "NUMBER"

	EOF Kind = "EOF"
)

// Token is one recognized lexeme of a statement line. Tokens are
// immutable and produced in source order.
type Token struct {
	Kind   Kind   `json:"kind"`
	Value  string `json:"value"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// IsOpener returns true for statement-opener tokens.
func (t Token) IsOpener() bool {
	return t.Kind == Root || t.Kind == Hier
}

// IsZoneOperator returns true for the operators that open the
// target, effect, and output zones.
func (t Token) IsZoneOperator() bool {
	return t.Kind == Relation || t.Kind == Param || t.Kind == Trigger
}

func (t Token) String() string {
	return string(t.Kind) + "(" + t.Value + ")"
}
