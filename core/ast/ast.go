// Package ast assembles tokenized veil statement lines into a
// hierarchical statement forest.
//
// Each statement line becomes one Statement node with its declaration,
// target, effect, and output zones populated from the token stream.
// A second pass links statements into parent/child relationships by
// depth: the forest exclusively owns child nodes, and Parent pointers
// are non-owning back-references used for lookup only.
package ast

import (
	"github.com/veildoc/veil/core/token"
)

// Operator is the statement opener form.
type Operator string

// Statement opener forms.
const (
	OperatorRoot Operator = "root"
	OperatorHier Operator = "hierarchical"
)

// Target is the target zone of a statement: the function name plus
// its raw bracketed variable text (normalized later by the IR layer).
type Target struct {
	Function string `json:"function"`
	Variable string `json:"variable,omitempty"`
}

// Effect is the effect zone: an ordered parameter map keyed by
// action name. Values are raw option text; typed coercion happens at
// the IR-extraction boundary.
type Effect struct {
	Parameters map[string]string `json:"parameters,omitempty"`
	// Order preserves source order of the parameter keys.
	Order []string `json:"order,omitempty"`
}

// Output is the output zone: a debug outcome label.
type Output struct {
	Outcome string `json:"outcome"`
}

// Statement is one parsed metadata line. It is built once per parse
// call and discarded after IR extraction.
type Statement struct {
	Operator  Operator `json:"operator"`
	Keyword   string   `json:"keyword"`
	Variable  string   `json:"variable,omitempty"`
	Variables []string `json:"variables,omitempty"`
	Target    *Target  `json:"target,omitempty"`
	Effect    *Effect  `json:"effect,omitempty"`
	Output    *Output  `json:"output,omitempty"`

	// Condition is the raw bracketed expression from the declaration
	// zone. Only meaningful on conditional (IF-form) statements.
	Condition string `json:"condition,omitempty"`

	Depth  int `json:"depth"`
	Line   int `json:"line"`
	Column int `json:"column"`

	// Parent is a weak back-reference; the tree owns Children.
	Parent   *Statement   `json:"-"`
	Children []*Statement `json:"children,omitempty"`
}

// Tree is a statement forest whose roots are the depth-0 statements
// (plus any orphans the builder refused to drop).
type Tree struct {
	Roots []*Statement `json:"roots"`
	// Statements lists every node in source order.
	Statements []*Statement `json:"-"`
}

// Build tokenizes and parses the given block lines and links the
// resulting statements into a forest. Lines that do not open with a
// statement operator produce no node; the grammar validator is the
// component that reports them. Build never fails: malformed
// hierarchy yields extra roots, never dropped input.
func Build(lines []string) *Tree {
	var stmts []*Statement
	for i, line := range lines {
		if !token.IsStatement(line) {
			continue
		}
		toks := token.TokenizeAt(line, i+1)
		if st := BuildLine(toks, token.Indent(line)); st != nil {
			stmts = append(stmts, st)
		}
	}
	return Link(stmts)
}

// BuildLine assembles one Statement from a single line's tokens.
// The indent argument is the depth contributed by leading whitespace.
// Returns nil when the tokens do not open a statement.
func BuildLine(toks []token.Token, indent int) *Statement {
	i := 0
	if i >= len(toks) || !toks[i].IsOpener() {
		return nil
	}

	st := &Statement{
		Operator: OperatorRoot,
		Depth:    indent,
		Line:     toks[i].Line,
		Column:   toks[i].Column,
	}

	// Consume the opener chain: each hierarchical opener adds one
	// depth level.
	for i < len(toks) && toks[i].IsOpener() {
		if toks[i].Kind == token.Hier {
			st.Operator = OperatorHier
			st.Depth++
		}
		i++
	}

	i = parseDeclaration(st, toks, i)
	for i < len(toks) {
		switch toks[i].Kind {
		case token.Relation:
			i = parseTarget(st, toks, i+1)
		case token.Param:
			i = parseEffect(st, toks, i+1)
		case token.Trigger:
			i = parseOutput(st, toks, i+1)
		default:
			// Stray token between zones; skip.
			i++
		}
	}
	return st
}

// parseDeclaration consumes the keyword, its bracketed variables
// (first one recorded as the primary variable), and an optional
// condition block, up to the first zone operator.
func parseDeclaration(st *Statement, toks []token.Token, i int) int {
	for i < len(toks) {
		t := toks[i]
		if t.IsZoneOperator() || t.Kind == token.EOF {
			return i
		}
		switch t.Kind {
		case token.Ident:
			if st.Keyword == "" {
				st.Keyword = t.Value
			}
		case token.Variable:
			st.Variables = append(st.Variables, t.Value)
			if st.Variable == "" {
				st.Variable = t.Value
			}
		case token.Action:
			// Bracketed expression in the declaration zone is the
			// condition of an IF-form statement.
			if st.Condition == "" {
				st.Condition = t.Value
			}
		}
		i++
	}
	return i
}

// parseTarget consumes the target span: a function name and an
// optional bracketed variable, up to the next zone operator.
func parseTarget(st *Statement, toks []token.Token, i int) int {
	for i < len(toks) {
		t := toks[i]
		if t.IsZoneOperator() || t.Kind == token.EOF {
			return i
		}
		switch t.Kind {
		case token.Ident:
			if st.Target == nil {
				st.Target = &Target{Function: t.Value}
			}
		case token.Variable:
			if st.Target != nil && st.Target.Variable == "" {
				st.Target.Variable = t.Value
			}
		}
		i++
	}
	return i
}

// parseEffect collects {action}(option) pairs into the parameter
// map. An action with no option is stored with an empty value.
func parseEffect(st *Statement, toks []token.Token, i int) int {
	for i < len(toks) {
		t := toks[i]
		if t.IsZoneOperator() || t.Kind == token.EOF {
			return i
		}
		if t.Kind == token.Action {
			if st.Effect == nil {
				st.Effect = &Effect{Parameters: map[string]string{}}
			}
			value := ""
			if i+1 < len(toks) && toks[i+1].Kind == token.Option {
				value = toks[i+1].Value
				i++
			}
			if _, dup := st.Effect.Parameters[t.Value]; !dup {
				st.Effect.Order = append(st.Effect.Order, t.Value)
			}
			st.Effect.Parameters[t.Value] = value
		}
		i++
	}
	return i
}

// parseOutput consumes a single bracketed outcome.
func parseOutput(st *Statement, toks []token.Token, i int) int {
	for i < len(toks) {
		t := toks[i]
		if t.IsZoneOperator() || t.Kind == token.EOF {
			return i
		}
		if t.Kind == token.Action && st.Output == nil {
			st.Output = &Output{Outcome: t.Value}
		}
		i++
	}
	return i
}

// Link attaches statements to parents using a depth stack: pop while
// the stack top is at least as deep, then attach to the new top. A
// statement with no discoverable parent is added as a root; the
// builder never drops input.
func Link(stmts []*Statement) *Tree {
	tree := &Tree{Statements: stmts}
	var stack []*Statement
	for _, st := range stmts {
		for len(stack) > 0 && stack[len(stack)-1].Depth >= st.Depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			st.Parent = parent
			parent.Children = append(parent.Children, st)
		} else {
			tree.Roots = append(tree.Roots, st)
		}
		stack = append(stack, st)
	}
	return tree
}

// Walk visits every statement depth-first in source order.
func (t *Tree) Walk(fn func(*Statement)) {
	var visit func(*Statement)
	visit = func(st *Statement) {
		fn(st)
		for _, c := range st.Children {
			visit(c)
		}
	}
	for _, r := range t.Roots {
		visit(r)
	}
}

// MaxDepth returns the deepest nesting level in the forest, or -1
// for an empty forest.
func (t *Tree) MaxDepth() int {
	max := -1
	for _, st := range t.Statements {
		if st.Depth > max {
			max = st.Depth
		}
	}
	return max
}
