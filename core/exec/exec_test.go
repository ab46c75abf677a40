package exec

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/veildoc/veil/core/cond"
	"github.com/veildoc/veil/core/grammar"
	"github.com/veildoc/veil/core/ir"
)

func instr(keyword string, bucket grammar.Bucket, conds ...ir.Condition) *ir.Instruction {
	return &ir.Instruction{
		ID:      ir.InstructionID("b1", keyword, 1),
		Bucket:  bucket,
		Keyword: keyword,
		Target:  ir.Selector{Kind: "content", Pattern: "all", Scope: ir.ScopeContent},
		Effect: &ir.EffectSpec{
			Type:   keyword,
			Params: map[string]ir.Value{keyword: ir.BoolValue(true)},
		},
		Conditions: conds,
	}
}

func TestExecuteApplies(t *testing.T) {
	x := NewExecutor(cond.NewEvaluator())
	res := x.Execute(context.Background(), "b1", []*ir.Instruction{
		instr("hide", grammar.BucketVisual),
		instr("collapse", grammar.BucketLayout),
	}, &cond.Context{})

	if res.RunID == "" {
		t.Error("run ID not assigned")
	}
	if res.Performance.Applied != 2 || res.Performance.Skipped != 0 || res.Performance.Failed != 0 {
		t.Errorf("performance = %+v, want 2 applied", res.Performance)
	}
	ds := res.Directives()
	if len(ds) != 2 {
		t.Fatalf("directives = %d, want 2", len(ds))
	}
	if ds[0].EffectType != "hide" || ds[0].TargetHandle != "content[all]" {
		t.Errorf("first directive = %+v, want hide on content[all]", ds[0])
	}
}

func TestExecuteSequentialOrder(t *testing.T) {
	x := NewExecutor(cond.NewEvaluator())
	var order []string
	record := HandlerFunc(func(_ context.Context, in *ir.Instruction, _ *cond.Context) ([]Directive, error) {
		order = append(order, in.Keyword)
		return nil, nil
	})
	for _, b := range []grammar.Bucket{grammar.BucketVisual, grammar.BucketLayout, grammar.BucketState} {
		x.Register(b, record)
	}

	x.Execute(context.Background(), "b1", []*ir.Instruction{
		instr("hide", grammar.BucketVisual),
		instr("collapse", grammar.BucketLayout),
		instr("remember", grammar.BucketState),
	}, &cond.Context{})

	want := []string{"hide", "collapse", "remember"}
	if len(order) != len(want) {
		t.Fatalf("applied %d instructions, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestExecuteSkipsOnCondition(t *testing.T) {
	x := NewExecutor(cond.NewEvaluator())
	res := x.Execute(context.Background(), "b1", []*ir.Instruction{
		instr("reveal", grammar.BucketInteraction, ir.Condition{Expr: "hover", Inherited: true}),
		instr("hide", grammar.BucketVisual),
	}, &cond.Context{})

	if res.Performance.Skipped != 1 || res.Performance.Applied != 1 {
		t.Fatalf("performance = %+v, want 1 skipped / 1 applied", res.Performance)
	}
	if res.Results[0].Status != StatusSkipped {
		t.Errorf("gated instruction status = %s, want skipped", res.Results[0].Status)
	}
	if res.Results[0].Error != "" {
		t.Errorf("condition skip carries an error: %q", res.Results[0].Error)
	}
}

func TestExecuteFailureIsolation(t *testing.T) {
	x := NewExecutor(cond.NewEvaluator())
	x.Register(grammar.BucketVisual, HandlerFunc(
		func(_ context.Context, _ *ir.Instruction, _ *cond.Context) ([]Directive, error) {
			return nil, errors.New("renderer unavailable")
		}))

	res := x.Execute(context.Background(), "b1", []*ir.Instruction{
		instr("hide", grammar.BucketVisual),
		instr("collapse", grammar.BucketLayout),
	}, &cond.Context{})

	if res.Performance.Failed != 1 || res.Performance.Applied != 1 {
		t.Fatalf("performance = %+v, want 1 failed / 1 applied", res.Performance)
	}
	if res.Results[0].Status != StatusFailed || res.Results[0].Error != "renderer unavailable" {
		t.Errorf("failed result = %+v", res.Results[0])
	}
	// The failure did not block the later instruction.
	if res.Results[1].Status != StatusApplied {
		t.Errorf("second instruction status = %s, want applied", res.Results[1].Status)
	}
}

func TestExecuteHandlerPanicIsFailure(t *testing.T) {
	x := NewExecutor(cond.NewEvaluator())
	x.Register(grammar.BucketVisual, HandlerFunc(
		func(_ context.Context, _ *ir.Instruction, _ *cond.Context) ([]Directive, error) {
			panic("boom")
		}))

	res := x.Execute(context.Background(), "b1", []*ir.Instruction{
		instr("hide", grammar.BucketVisual),
	}, &cond.Context{})

	if res.Results[0].Status != StatusFailed {
		t.Fatalf("status = %s, want failed", res.Results[0].Status)
	}
	if !strings.Contains(res.Results[0].Error, "panic") {
		t.Errorf("error = %q, want panic message", res.Results[0].Error)
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	x := NewExecutor(cond.NewEvaluator())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := x.Execute(ctx, "b1", []*ir.Instruction{
		instr("hide", grammar.BucketVisual),
		instr("collapse", grammar.BucketLayout),
	}, &cond.Context{})

	if res.Performance.Skipped != 2 {
		t.Errorf("performance = %+v, want everything skipped", res.Performance)
	}
	for _, r := range res.Results {
		if r.Status != StatusSkipped || r.Error == "" {
			t.Errorf("result = %+v, want skipped with context error", r)
		}
	}
}

func TestPassthroughIsDefault(t *testing.T) {
	x := NewExecutor(cond.NewEvaluator())
	// No handler registered for the animation bucket.
	res := x.Execute(context.Background(), "b1", []*ir.Instruction{
		instr("fade", grammar.BucketAnimation),
	}, &cond.Context{})

	if res.Results[0].Status != StatusApplied {
		t.Fatalf("status = %s, want applied via passthrough", res.Results[0].Status)
	}
	if len(res.Results[0].Directives) != 1 {
		t.Fatalf("directives = %d, want 1", len(res.Results[0].Directives))
	}
	if res.Results[0].Directives[0].EffectType != "fade" {
		t.Errorf("directive = %+v, want fade passthrough", res.Results[0].Directives[0])
	}
}
