package ir

import (
	"fmt"
	"strconv"

	"github.com/veildoc/veil/core/grammar"
)

// Scope is how much of a target region an instruction may touch.
// Scopes narrow monotonically from parent to child: a child can
// never widen beyond its parent's scope.
type Scope int

// Scopes, widest first.
const (
	ScopeBlock Scope = iota + 1
	ScopeContent
	ScopeElement
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeBlock:
		return "block"
	case ScopeContent:
		return "content"
	case ScopeElement:
		return "element"
	}
	return "unknown"
}

// Narrow returns the narrower of two scopes. Used to enforce the
// parent-to-child monotonicity invariant.
func (s Scope) Narrow(child Scope) Scope {
	if child > s {
		return child
	}
	return s
}

// Selector is a normalized target reference, decoupled from the raw
// bracketed statement text.
type Selector struct {
	// Kind is the target function name (content, element, section...).
	Kind string `json:"kind"`

	// Pattern is a named modifier ("all", "first", a glob) when the
	// bracket text is non-numeric.
	Pattern string `json:"pattern,omitempty"`

	// Index is a 1-based position when the bracket text is a single
	// number. Zero means unset.
	Index int `json:"index,omitempty"`

	// RangeStart/RangeEnd hold a "start-end" range. Zero means unset.
	RangeStart int `json:"range_start,omitempty"`
	RangeEnd   int `json:"range_end,omitempty"`

	Scope Scope `json:"scope"`
}

// IsRange returns true when the selector addresses a span.
func (s Selector) IsRange() bool {
	return s.RangeEnd > 0 && s.RangeEnd >= s.RangeStart
}

// String renders the selector in source form, e.g. "content[all]".
func (s Selector) String() string {
	switch {
	case s.IsRange():
		return fmt.Sprintf("%s[%d-%d]", s.Kind, s.RangeStart, s.RangeEnd)
	case s.Index > 0:
		return fmt.Sprintf("%s[%d]", s.Kind, s.Index)
	case s.Pattern != "":
		return fmt.Sprintf("%s[%s]", s.Kind, s.Pattern)
	}
	return s.Kind
}

// ValueKind tags the scalar type of an effect parameter.
type ValueKind string

// Effect parameter value kinds.
const (
	ValueString ValueKind = "string"
	ValueNumber ValueKind = "number"
	ValueBool   ValueKind = "bool"
)

// Value is a typed scalar effect parameter. Statement source carries
// loosely typed option text; coercion to Value happens once, at the
// IR-extraction boundary.
type Value struct {
	Kind ValueKind `json:"kind"`
	Str  string    `json:"str,omitempty"`
	Num  float64   `json:"num,omitempty"`
	Bool bool      `json:"bool,omitempty"`
}

// StringValue builds a string Value.
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// NumberValue builds a numeric Value.
func NumberValue(f float64) Value { return Value{Kind: ValueNumber, Num: f} }

// BoolValue builds a boolean Value.
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// CoerceValue converts raw option text to a typed Value: booleans,
// then numbers, then strings. An empty option becomes boolean true,
// so a bare {action} acts as a flag.
func CoerceValue(raw string) Value {
	if raw == "" {
		return BoolValue(true)
	}
	switch raw {
	case "true", "yes", "on":
		return BoolValue(true)
	case "false", "no", "off":
		return BoolValue(false)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return NumberValue(f)
	}
	return StringValue(raw)
}

// String returns the value in its source form.
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	}
	return v.Str
}

// EffectSpec is the normalized effect of an instruction.
type EffectSpec struct {
	Type   string           `json:"type"`
	Params map[string]Value `json:"params,omitempty"`
}

// Empty returns true when the effect changes nothing.
func (e *EffectSpec) Empty() bool {
	return e == nil || len(e.Params) == 0
}

// Condition is one condition expression attached to an instruction.
// Inherited conditions come from conditional ancestors; Negate marks
// conditions inherited through a false/else branch.
type Condition struct {
	Expr      string `json:"expr"`
	Negate    bool   `json:"negate,omitempty"`
	Inherited bool   `json:"inherited,omitempty"`
}

// Instruction is the compiler's output unit: one bucketed, normalized
// directive derived from a statement.
type Instruction struct {
	// ID is stable across recompiles of unchanged source: it derives
	// from (block identity, keyword, line) alone.
	ID string `json:"id"`

	Bucket  grammar.Bucket `json:"bucket"`
	Keyword string         `json:"keyword"`
	Target  Selector       `json:"target"`
	Effect  *EffectSpec    `json:"effect,omitempty"`

	// Outcome is a debug label from the output zone.
	Outcome string `json:"outcome,omitempty"`

	Conditions []Condition `json:"conditions,omitempty"`

	// Children mirror the statement hierarchy for presentation and
	// debugging. They also appear in the flat instruction list and
	// are never evaluated through this field.
	Children []*Instruction `json:"children,omitempty"`

	Line int `json:"line"`
}

// Conditional returns true when the instruction carries at least one
// non-inherited gate condition.
func (in *Instruction) Conditional() bool {
	for _, c := range in.Conditions {
		if !c.Inherited {
			return true
		}
	}
	return false
}

// Stats summarizes one transform pass for diagnostics.
type Stats struct {
	Total        int                    `json:"total"`
	PerBucket    map[grammar.Bucket]int `json:"per_bucket"`
	Conditionals int                    `json:"conditionals"`
	MaxDepth     int                    `json:"max_depth"`
}

// TransformResult is the outcome of IR extraction for one block.
type TransformResult struct {
	BlockID      string          `json:"block_id"`
	Instructions []*Instruction  `json:"instructions"`
	Errors       []grammar.Issue `json:"errors,omitempty"`
	Warnings     []grammar.Issue `json:"warnings,omitempty"`
	Stats        Stats           `json:"stats"`
}
