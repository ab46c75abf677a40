package ir

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// selGrammar is the participle grammar for selector bracket text.
// Examples: "3", "2-5", "all", "first", "heading-*"
//
//nolint:govet // participle grammar tags are not standard struct tags
type selGrammar struct {
	Index *int      `( @Int`
	Range *rangeEnd `  @@? )`
	Name  *string   `| @Name`
}

//nolint:govet // participle grammar tags are not standard struct tags
type rangeEnd struct {
	End int `"-" @Int`
}

// selLexer defines the lexer for selector bracket text.
// Note: Name must not start with a digit so ranges stay numeric.
var selLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Name", Pattern: `[A-Za-z_*][A-Za-z0-9_*.]*(?:-[A-Za-z0-9_*.]+)*`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// selParser parses selector bracket text.
var selParser = participle.MustBuild[selGrammar](
	participle.Lexer(selLexer),
	participle.Elide("Whitespace"),
)

// scopeForKind maps a target function name to its natural scope.
// Unknown kinds default to content scope.
var scopeForKind = map[string]Scope{
	"block":    ScopeBlock,
	"document": ScopeBlock,
	"content":  ScopeContent,
	"section":  ScopeContent,
	"line":     ScopeContent,
	"word":     ScopeContent,
	"element":  ScopeElement,
	"inline":   ScopeElement,
	"match":    ScopeElement,
}

// NormalizeSelector reduces a target function name and its raw
// bracket text to a Selector. Numeric bracket text becomes an index
// or a start-end range; anything else becomes a named modifier.
// Unparseable bracket text degrades to a pattern, never to an error.
func NormalizeSelector(function, variable string) Selector {
	sel := Selector{Kind: function, Scope: ScopeContent}
	if sc, ok := scopeForKind[function]; ok {
		sel.Scope = sc
	}

	variable = strings.TrimSpace(variable)
	if variable == "" {
		return sel
	}

	parsed, err := selParser.ParseString("", variable)
	if err != nil {
		sel.Pattern = variable
		return sel
	}

	switch {
	case parsed.Index != nil && parsed.Range != nil:
		sel.RangeStart = *parsed.Index
		sel.RangeEnd = parsed.Range.End
	case parsed.Index != nil:
		sel.Index = *parsed.Index
	case parsed.Name != nil:
		sel.Pattern = *parsed.Name
	}
	return sel
}
