package cond

import (
	"testing"

	"github.com/veildoc/veil/core/ir"
)

func TestEvaluatorCachesResults(t *testing.T) {
	e := NewEvaluator()
	ctx := baseContext()

	if !e.Evaluate("b1", "user.role == admin", ctx) {
		t.Fatal("first evaluation = false, want true")
	}
	// A context change within the TTL is not observed; the cached
	// result answers.
	ctx.User["role"] = "guest"
	if !e.Evaluate("b1", "user.role == admin", ctx) {
		t.Error("cached result not served within TTL")
	}

	stats := e.CacheStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("cache stats = %+v, want 1 hit / 1 miss", stats)
	}
}

func TestEvaluatorCacheKeyedByBlock(t *testing.T) {
	e := NewEvaluator()
	ctx := baseContext()

	e.Evaluate("b1", "theme == dark", ctx)
	ctx.Theme = "light"
	// A different block must not see b1's cached result.
	if e.Evaluate("b2", "theme == dark", ctx) {
		t.Error("cache leaked across block identities")
	}
}

func TestEvaluateAll(t *testing.T) {
	e := NewEvaluator()
	ctx := baseContext()

	tests := []struct {
		name  string
		conds []ir.Condition
		want  bool
	}{
		{"empty list is vacuously true", nil, true},
		{"single pass", []ir.Condition{{Expr: "hover"}}, true},
		{"and semantics", []ir.Condition{{Expr: "hover"}, {Expr: "theme == light"}}, false},
		{"negated branch", []ir.Condition{{Expr: "click", Negate: true, Inherited: true}}, true},
		{"negated existence of undefined path", []ir.Condition{{Expr: "user.missing", Negate: true}}, true},
		{"negated pass fails", []ir.Condition{{Expr: "hover", Negate: true}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.EvaluateAll("b-"+tt.name, tt.conds, ctx); got != tt.want {
				t.Errorf("EvaluateAll(%+v) = %v, want %v", tt.conds, got, tt.want)
			}
		})
	}
}

func TestUpdateInteractionState(t *testing.T) {
	e := NewEvaluator()
	ctx := &Context{}

	if e.Evaluate("b1", "hover", ctx) {
		t.Fatal("hover true before any interaction")
	}

	// A live hover-start must be observable immediately, not after
	// the interaction TTL lapses.
	e.UpdateInteractionState("b1", Interaction{Hover: true})
	if !e.Evaluate("b1", "hover", ctx) {
		t.Error("hover not observed after interaction update")
	}

	// Non-interaction cache entries survive the purge.
	e.Evaluate("b1", "user.missing", ctx)
	before := e.CacheStats().Size
	e.UpdateInteractionState("b1", Interaction{})
	after := e.CacheStats().Size
	if after != before-1 {
		t.Errorf("purge removed %d entries, want 1 (the interaction result)", before-after)
	}
	if e.Evaluate("b1", "hover", ctx) {
		t.Error("hover still true after hover-end update")
	}
}

func TestUpdateInteractionStateScopedToBlock(t *testing.T) {
	e := NewEvaluator()
	ctx := &Context{}

	e.UpdateInteractionState("b1", Interaction{Hover: true})
	if e.Evaluate("b2", "hover", ctx) {
		t.Error("interaction overlay leaked to another block")
	}
}

func TestInvalidateBlock(t *testing.T) {
	e := NewEvaluator()
	ctx := baseContext()

	e.UpdateInteractionState("b1", Interaction{Click: true})
	e.Evaluate("b1", "click", ctx)
	e.Evaluate("b1", "theme == dark", ctx)

	e.InvalidateBlock("b1")
	if e.CacheStats().Size != 0 {
		t.Errorf("cache size after invalidation = %d, want 0", e.CacheStats().Size)
	}
	// Overlay is gone too: click falls back to the supplied context.
	if e.Evaluate("b1", "click", &Context{}) {
		t.Error("interaction overlay survived invalidation")
	}
}

func TestEvaluatorDoesNotMutateContext(t *testing.T) {
	e := NewEvaluator()
	ctx := baseContext()
	ctx.Interaction = Interaction{}

	e.UpdateInteractionState("b1", Interaction{Hover: true})
	e.Evaluate("b1", "hover", ctx)

	if ctx.Interaction.Hover {
		t.Error("evaluator mutated the caller's context")
	}
}

func TestTTLForCategories(t *testing.T) {
	tests := []struct {
		cat  Category
		want string
	}{
		{CategoryInteraction, TTLInteraction.String()},
		{CategoryTime, TTLTime.String()},
		{CategoryTheme, TTLTheme.String()},
		{CategoryFile, TTLFile.String()},
		{CategoryDefault, TTLDefault.String()},
	}
	for _, tt := range tests {
		if got := ttlFor(tt.cat); got.String() != tt.want {
			t.Errorf("ttlFor(%s) = %s, want %s", tt.cat, got, tt.want)
		}
	}
	if TTLInteraction >= TTLTime || TTLTime >= TTLTheme {
		t.Error("interaction results must expire fastest")
	}
}
