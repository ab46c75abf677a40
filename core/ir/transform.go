package ir

import (
	"fmt"

	"github.com/veildoc/veil/core/ast"
	"github.com/veildoc/veil/core/grammar"
)

// Transform walks a statement forest depth-first in source order and
// normalizes each statement into a bucketed Instruction. Scope and
// conditions inherit from ancestors: a conditional ancestor
// contributes its condition to every descendant (negated through
// false/else branches), and scope only ever narrows. Statements
// missing a keyword or target produce an error and no instruction;
// the rest of the block still transforms.
func Transform(tree *ast.Tree, blockID string) *TransformResult {
	res := &TransformResult{
		BlockID: blockID,
		Stats: Stats{
			PerBucket: make(map[grammar.Bucket]int),
			MaxDepth:  tree.MaxDepth(),
		},
	}
	for _, root := range tree.Roots {
		transformStatement(root, blockID, nil, 0, res)
	}
	return res
}

// transformStatement normalizes one statement and recurses into its
// children with the inherited selector scope and condition list.
// Returns the instruction, or nil when the statement is invalid.
func transformStatement(st *ast.Statement, blockID string, inherited []Condition, parentScope Scope, res *TransformResult) *Instruction {
	addErr := func(format string, args ...any) {
		res.Errors = append(res.Errors, grammar.Issue{
			Line: st.Line, Column: st.Column,
			Message:  fmt.Sprintf(format, args...),
			Severity: grammar.SeverityError,
		})
	}

	if st.Keyword == "" {
		addErr("statement has no keyword")
		return nil
	}
	if st.Target == nil || st.Target.Function == "" {
		addErr("statement %q has no target function", st.Keyword)
		// Children may still be valid; give them a neutral parent
		// context so they are not dropped with the parent.
		for _, child := range st.Children {
			transformStatement(child, blockID, inheritFor(st, child, inherited), parentScope, res)
		}
		return nil
	}

	if _, known := grammar.Lookup(st.Keyword); !known {
		res.Warnings = append(res.Warnings, grammar.Issue{
			Line: st.Line, Column: st.Column,
			Message:  fmt.Sprintf("unknown keyword %q defaults to the visual bucket", st.Keyword),
			Severity: grammar.SeverityWarning,
		})
	}

	sel := NormalizeSelector(st.Target.Function, st.Target.Variable)
	if parentScope != 0 {
		// Scope narrows monotonically from parent to child.
		sel.Scope = parentScope.Narrow(sel.Scope)
	}

	in := &Instruction{
		ID:      InstructionID(blockID, st.Keyword, st.Line),
		Bucket:  grammar.BucketFor(st.Keyword),
		Keyword: st.Keyword,
		Target:  sel,
		Effect:  normalizeEffect(st),
		Line:    st.Line,
	}
	if st.Output != nil {
		in.Outcome = st.Output.Outcome
	}

	in.Conditions = append(in.Conditions, inherited...)
	if grammar.IsConditional(st.Keyword) && st.Condition != "" {
		in.Conditions = append(in.Conditions, Condition{Expr: st.Condition})
	}

	res.Instructions = append(res.Instructions, in)
	res.Stats.Total++
	res.Stats.PerBucket[in.Bucket]++
	if in.Conditional() {
		res.Stats.Conditionals++
	}

	for _, child := range st.Children {
		ci := transformStatement(child, blockID, inheritFor(st, child, inherited), sel.Scope, res)
		if ci != nil {
			in.Children = append(in.Children, ci)
		}
	}
	return in
}

// inheritFor builds the condition list a child inherits: the parent's
// inherited conditions plus, when the parent is a conditional, the
// parent's own condition — negated when the child is a false/else
// branch label.
func inheritFor(parent, child *ast.Statement, inherited []Condition) []Condition {
	out := make([]Condition, len(inherited))
	copy(out, inherited)
	if grammar.IsConditional(parent.Keyword) && parent.Condition != "" {
		out = append(out, Condition{
			Expr:      parent.Condition,
			Negate:    child.Keyword == "false" || child.Keyword == "else",
			Inherited: true,
		})
	}
	return out
}

// normalizeEffect coerces the statement's raw parameter map into
// typed values, preserving source order of the keys. Verbs that are
// complete without an effect zone (hide, reveal, collapse...) get an
// implicit flag parameter so the optimizer's dead-instruction pass
// does not discard them; conditional and branch statements stay
// effect-less because their work is carried by their children.
func normalizeEffect(st *ast.Statement) *EffectSpec {
	spec := &EffectSpec{Type: st.Keyword, Params: map[string]Value{}}
	if st.Effect != nil {
		for _, action := range st.Effect.Order {
			spec.Params[action] = CoerceValue(st.Effect.Parameters[action])
		}
	}
	if len(spec.Params) > 0 {
		return spec
	}
	if grammar.IsConditional(st.Keyword) || grammar.IsBranchLabel(st.Keyword) {
		return nil
	}
	if ks, known := grammar.Lookup(st.Keyword); known && !ks.RequiresZone(grammar.ZoneEffect) {
		spec.Params[st.Keyword] = BoolValue(true)
		return spec
	}
	return nil
}
