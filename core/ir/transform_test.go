package ir

import (
	"strings"
	"testing"

	"github.com/veildoc/veil/core/ast"
	"github.com/veildoc/veil/core/grammar"
)

func transformLines(t *testing.T, blockID string, lines ...string) *TransformResult {
	t.Helper()
	return Transform(ast.Build(lines), blockID)
}

func TestTransformFullStatement(t *testing.T) {
	res := transformLines(t, "intro",
		":: set[background] // content[all] % {color}(#ff0000) -> {visual[solid]}")

	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Instructions) != 1 {
		t.Fatalf("instructions = %d, want 1", len(res.Instructions))
	}
	in := res.Instructions[0]

	if in.Bucket != grammar.BucketVisual {
		t.Errorf("bucket = %s, want visual", in.Bucket)
	}
	if in.Target.Kind != "content" || in.Target.Pattern != "all" {
		t.Errorf("target = %s, want content[all]", in.Target)
	}
	if in.Effect == nil || in.Effect.Type != "set" {
		t.Fatalf("effect = %+v, want type set", in.Effect)
	}
	got := in.Effect.Params["color"]
	if got.Kind != ValueString || got.Str != "#ff0000" {
		t.Errorf("color param = %+v, want string #ff0000", got)
	}
	if in.Outcome != "visual[solid]" {
		t.Errorf("outcome = %q, want visual[solid]", in.Outcome)
	}
}

func TestTransformStableIDs(t *testing.T) {
	lines := []string{
		":: hide // content[all]",
		":: fade // element[2] % {duration}(0.3)",
	}
	first := transformLines(t, "chapter-1", lines...)
	second := transformLines(t, "chapter-1", lines...)

	if len(first.Instructions) != len(second.Instructions) {
		t.Fatalf("instruction counts differ: %d vs %d", len(first.Instructions), len(second.Instructions))
	}
	for i := range first.Instructions {
		if first.Instructions[i].ID != second.Instructions[i].ID {
			t.Errorf("instruction %d ID changed across recompiles: %s vs %s",
				i, first.Instructions[i].ID, second.Instructions[i].ID)
		}
		if !strings.HasPrefix(first.Instructions[i].ID, "ins-") {
			t.Errorf("instruction ID %q missing prefix", first.Instructions[i].ID)
		}
	}

	// A different block identity yields different IDs for the same source.
	other := transformLines(t, "chapter-2", lines...)
	if other.Instructions[0].ID == first.Instructions[0].ID {
		t.Error("IDs collide across distinct blocks")
	}
}

func TestTransformInheritedCondition(t *testing.T) {
	res := transformLines(t, "b1",
		":: if {interaction.hover == true} // content",
		"  :^: true // content",
		"    :^: reveal // element[1]",
		"  :^: false // content",
		"    :^: hide // element[1]",
	)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}

	byKeyword := map[string]*Instruction{}
	for _, in := range res.Instructions {
		byKeyword[in.Keyword] = in
	}

	reveal := byKeyword["reveal"]
	if reveal == nil {
		t.Fatal("reveal instruction missing")
	}
	if len(reveal.Conditions) != 1 {
		t.Fatalf("reveal conditions = %+v, want exactly one inherited", reveal.Conditions)
	}
	c := reveal.Conditions[0]
	if c.Expr != "interaction.hover == true" || !c.Inherited || c.Negate {
		t.Errorf("reveal condition = %+v, want inherited positive hover gate", c)
	}

	hide := byKeyword["hide"]
	if hide == nil {
		t.Fatal("hide instruction missing")
	}
	if len(hide.Conditions) != 1 || !hide.Conditions[0].Negate {
		t.Errorf("hide conditions = %+v, want one negated inherited gate", hide.Conditions)
	}
}

func TestTransformScopeNarrows(t *testing.T) {
	res := transformLines(t, "b1",
		":: hide // element[1]",
		"  :^: show // block",
	)
	if len(res.Instructions) != 2 {
		t.Fatalf("instructions = %d, want 2", len(res.Instructions))
	}
	child := res.Instructions[1]
	if child.Keyword != "show" {
		t.Fatalf("second instruction = %s, want show", child.Keyword)
	}
	// The child asks for block scope but its parent already narrowed
	// to element; the child cannot widen back out.
	if child.Target.Scope != ScopeElement {
		t.Errorf("child scope = %s, want element", child.Target.Scope)
	}
}

func TestTransformMissingTarget(t *testing.T) {
	res := transformLines(t, "b1",
		":: set[background] % {color}(#fff)",
		":: hide // content[all]",
	)
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", res.Errors)
	}
	if !strings.Contains(res.Errors[0].Message, "no target") {
		t.Errorf("error = %q, want missing-target diagnostic", res.Errors[0].Message)
	}
	// The valid statement still produces its instruction.
	if len(res.Instructions) != 1 || res.Instructions[0].Keyword != "hide" {
		t.Errorf("instructions = %+v, want the hide instruction alone", res.Instructions)
	}
}

func TestTransformImplicitFlagEffect(t *testing.T) {
	res := transformLines(t, "b1", ":: hide // content[all]")
	if len(res.Instructions) != 1 {
		t.Fatalf("instructions = %d, want 1", len(res.Instructions))
	}
	eff := res.Instructions[0].Effect
	if eff.Empty() {
		t.Fatal("effect-optional verb produced an empty effect")
	}
	if v := eff.Params["hide"]; v.Kind != ValueBool || !v.Bool {
		t.Errorf("implicit flag = %+v, want bool true", v)
	}
}

func TestTransformStats(t *testing.T) {
	res := transformLines(t, "b1",
		":: hide // content[all]",
		":: collapse // section[2]",
		":: if {theme.mode == dark} // content",
		"  :^: true // content",
		"    :^: fade // element[1] % {duration}(0.2)",
	)
	if res.Stats.Total != 5 {
		t.Errorf("total = %d, want 5", res.Stats.Total)
	}
	if res.Stats.Conditionals != 1 {
		t.Errorf("conditionals = %d, want 1", res.Stats.Conditionals)
	}
	if res.Stats.PerBucket[grammar.BucketVisual] != 1 {
		t.Errorf("visual bucket = %d, want 1", res.Stats.PerBucket[grammar.BucketVisual])
	}
	if res.Stats.PerBucket[grammar.BucketLayout] != 1 {
		t.Errorf("layout bucket = %d, want 1", res.Stats.PerBucket[grammar.BucketLayout])
	}
	if res.Stats.MaxDepth != 3 {
		t.Errorf("max depth = %d, want 3", res.Stats.MaxDepth)
	}
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		raw  string
		want Value
	}{
		{"", BoolValue(true)},
		{"true", BoolValue(true)},
		{"off", BoolValue(false)},
		{"0.5", NumberValue(0.5)},
		{"-3", NumberValue(-3)},
		{"#ff0000", StringValue("#ff0000")},
		{"solid", StringValue("solid")},
	}
	for _, tt := range tests {
		if got := CoerceValue(tt.raw); got != tt.want {
			t.Errorf("CoerceValue(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}
