package grammar

import (
	"strings"
	"testing"
)

func TestValidateFullStatement(t *testing.T) {
	res := Validate(":: set[background] // content[all] % {color}(#ff0000) -> {visual[solid]}")
	if !res.Valid {
		t.Fatalf("statement reported invalid: %v", res.Errors)
	}
	if len(res.Errors) != 0 || len(res.Warnings) != 0 {
		t.Errorf("expected no diagnostics, got errors=%v warnings=%v", res.Errors, res.Warnings)
	}
}

func TestValidateMissingOpener(t *testing.T) {
	res := Validate("invalid syntax")
	if res.Valid {
		t.Fatal("line without opener reported valid")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0].Message, "open with") {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
}

func TestValidateOperatorOrder(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string // substring of the error message
	}{
		{"param before relation", ":: set[x] % {a}(b) // content", `"%" before relation`},
		{"trigger before param", ":: reveal // content -> {done} % {a}(b)", `"->" before parameter`},
		{"trigger before relation", ":: hide -> {done} // content", `"->" before relation`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.line)
			if res.Valid {
				t.Fatalf("misordered line reported valid")
			}
			found := false
			for _, e := range res.Errors {
				if strings.Contains(e.Message, tt.want) {
					found = true
					if e.Column <= 0 {
						t.Errorf("misplaced operator reported without column: %v", e)
					}
				}
			}
			if !found {
				t.Errorf("errors %v missing %q", res.Errors, tt.want)
			}
		})
	}
}

func TestValidateRequiredZones(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"set without target", ":: set[background] % {color}(#fff)", "requires a target zone"},
		{"set without effect", ":: set[background] // content[all]", "requires an effect zone"},
		{"empty effect zone", ":: set[x] // content %", "at least one {action}(option) pair"},
		{"mark without output", ":: mark // content[all]", "requires an output zone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.line)
			if res.Valid {
				t.Fatalf("line reported valid: %q", tt.line)
			}
			found := false
			for _, e := range res.Errors {
				if strings.Contains(e.Message, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v missing %q", res.Errors, tt.want)
			}
		})
	}
}

func TestValidateUnbalancedBrackets(t *testing.T) {
	for _, line := range []string{
		":: set[background // content[all] % {color}(#fff)",
		":: set[x] // content % {color(#fff)",
		":: set[x] // content % {color}(#fff",
	} {
		res := Validate(line)
		if res.Valid {
			t.Errorf("unbalanced line reported valid: %q", line)
			continue
		}
		found := false
		for _, e := range res.Errors {
			if strings.Contains(e.Message, "unbalanced") {
				found = true
			}
		}
		if !found {
			t.Errorf("errors for %q missing unbalanced diagnostic: %v", line, res.Errors)
		}
	}
}

func TestValidateUnknownKeywordWarns(t *testing.T) {
	res := Validate(":: sparkle // content[all]")
	if !res.Valid {
		t.Fatalf("unknown keyword must not invalidate the line: %v", res.Errors)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "sparkle") {
		t.Errorf("warnings = %v, want one unknown-keyword warning", res.Warnings)
	}
}

func TestValidateHierarchyRules(t *testing.T) {
	t.Run("hier without parent", func(t *testing.T) {
		res := Validate(":^: true // content")
		if res.Valid {
			t.Fatal("orphan hierarchical statement reported valid")
		}
	})

	t.Run("branch under conditional", func(t *testing.T) {
		v := NewValidator()
		br := v.ValidateBlock([]string{
			":: if {user.role == admin} // content",
			"  :^: true // content[all]",
			"  :^: false // content[all]",
		})
		if !br.Valid {
			t.Fatalf("conditional block reported invalid: %v", br.Errors)
		}
	})

	t.Run("branch without conditional ancestor", func(t *testing.T) {
		v := NewValidator()
		br := v.ValidateBlock([]string{
			":: hide // content[all]",
			"  :^: true // content",
		})
		if br.Valid {
			t.Fatal("branch label without conditional ancestor reported valid")
		}
	})

	t.Run("duplicate else", func(t *testing.T) {
		v := NewValidator()
		br := v.ValidateBlock([]string{
			":: if {theme.mode == dark} // content",
			"  :^: else // content",
			"  :^: else // content",
		})
		if br.Valid {
			t.Fatal("duplicate else reported valid")
		}
		found := false
		for _, e := range br.Errors {
			if strings.Contains(e.Message, "duplicate else") {
				found = true
			}
		}
		if !found {
			t.Errorf("errors %v missing duplicate-else diagnostic", br.Errors)
		}
	})
}

func TestValidateBlockAggregates(t *testing.T) {
	v := NewValidator()
	br := v.ValidateBlock([]string{
		":: hide // content[all]",
		"",
		"no opener here",
	})
	if br.Valid {
		t.Fatal("block with a bad line reported valid")
	}
	if len(br.Lines) != 3 {
		t.Fatalf("line results = %d, want 3", len(br.Lines))
	}
	if !br.Lines[0].Valid || !br.Lines[1].Valid || br.Lines[2].Valid {
		t.Errorf("per-line validity = [%v %v %v], want [true true false]",
			br.Lines[0].Valid, br.Lines[1].Valid, br.Lines[2].Valid)
	}
}

func TestBucketOrdering(t *testing.T) {
	order := []Bucket{BucketVisual, BucketLayout, BucketAnimation, BucketInteraction, BucketState}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Fatalf("bucket %s does not precede %s", order[i-1], order[i])
		}
	}
	if BucketFor("unknown-verb") != BucketVisual {
		t.Errorf("unknown keyword bucket = %s, want %s", BucketFor("unknown-verb"), BucketVisual)
	}
	if BucketFor("remember") != BucketState {
		t.Errorf("remember bucket = %s, want %s", BucketFor("remember"), BucketState)
	}
}
