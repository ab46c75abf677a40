// Package exec walks an optimized instruction list in bucket order,
// gates each instruction through the conditional evaluator, and
// dispatches it to the bucket's effect handler.
//
// Handlers are external collaborators: the executor owns ordering
// and failure isolation, not effect application. One instruction's
// failure never blocks another's execution.
package exec

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veildoc/veil/core/cond"
	"github.com/veildoc/veil/core/grammar"
	"github.com/veildoc/veil/core/ir"
	"github.com/veildoc/veil/internal/logging"
)

// Directive is one concrete effect for the rendering collaborator:
// apply this effect, with these parameters, to this target.
type Directive struct {
	TargetHandle string              `json:"target_handle"`
	EffectType   string              `json:"effect_type"`
	Parameters   map[string]ir.Value `json:"parameters,omitempty"`
}

// Handler applies one instruction and returns the directives it
// produced. Application may await I/O; the executor processes
// instructions sequentially, so a handler's effects are observable
// before any later-bucket instruction runs.
type Handler interface {
	Apply(ctx context.Context, in *ir.Instruction, ec *cond.Context) ([]Directive, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, in *ir.Instruction, ec *cond.Context) ([]Directive, error)

// Apply implements Handler.
func (f HandlerFunc) Apply(ctx context.Context, in *ir.Instruction, ec *cond.Context) ([]Directive, error) {
	return f(ctx, in, ec)
}

// PassthroughHandler resolves an instruction into a single directive
// verbatim. It is the default for buckets with no registered
// handler, and what the CLI uses to show what a renderer would be
// asked to do.
func PassthroughHandler() Handler {
	return HandlerFunc(func(_ context.Context, in *ir.Instruction, _ *cond.Context) ([]Directive, error) {
		d := Directive{
			TargetHandle: in.Target.String(),
			EffectType:   in.Effect.Type,
			Parameters:   in.Effect.Params,
		}
		return []Directive{d}, nil
	})
}

// Status is the per-instruction outcome.
type Status string

// Instruction outcomes.
const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// InstructionResult records what happened to one instruction.
type InstructionResult struct {
	ID         string      `json:"id"`
	Keyword    string      `json:"keyword"`
	Status     Status      `json:"status"`
	Directives []Directive `json:"directives,omitempty"`
	Error      string      `json:"error,omitempty"`
	Outcome    string      `json:"outcome,omitempty"`
}

// Performance aggregates wall-clock timing for one run.
type Performance struct {
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Applied  int           `json:"applied"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
}

// Result is the outcome of executing one compiled block.
type Result struct {
	// RunID correlates diagnostics across collaborators; it is
	// fresh per run and carries no instruction identity.
	RunID       string              `json:"run_id"`
	BlockID     string              `json:"block_id"`
	Results     []InstructionResult `json:"results"`
	Performance Performance         `json:"performance"`
}

// Directives flattens all applied directives in execution order.
func (r *Result) Directives() []Directive {
	var out []Directive
	for _, res := range r.Results {
		out = append(out, res.Directives...)
	}
	return out
}

// Executor dispatches instructions to per-bucket handlers.
type Executor struct {
	eval     *cond.Evaluator
	handlers map[grammar.Bucket]Handler
	fallback Handler
}

// NewExecutor returns an executor gating through the given
// evaluator. Buckets without a registered handler fall back to the
// passthrough handler.
func NewExecutor(eval *cond.Evaluator) *Executor {
	return &Executor{
		eval:     eval,
		handlers: make(map[grammar.Bucket]Handler),
		fallback: PassthroughHandler(),
	}
}

// Register installs the handler for a bucket, replacing any previous
// registration.
func (x *Executor) Register(b grammar.Bucket, h Handler) {
	x.handlers[b] = h
}

// Execute walks the (already bucket-sorted) instructions
// sequentially, awaiting each before starting the next so the
// bucket-priority ordering is observable. Condition failures skip;
// handler failures are recorded per instruction and never abort the
// walk.
func (x *Executor) Execute(ctx context.Context, blockID string, instrs []*ir.Instruction, ec *cond.Context) *Result {
	res := &Result{
		RunID:   uuid.NewString(),
		BlockID: blockID,
	}
	res.Performance.Started = time.Now()

	for _, in := range instrs {
		if err := ctx.Err(); err != nil {
			res.Results = append(res.Results, InstructionResult{
				ID: in.ID, Keyword: in.Keyword, Status: StatusSkipped,
				Error: err.Error(), Outcome: in.Outcome,
			})
			res.Performance.Skipped++
			continue
		}

		if !x.eval.EvaluateAll(blockID, in.Conditions, ec) {
			res.Results = append(res.Results, InstructionResult{
				ID: in.ID, Keyword: in.Keyword, Status: StatusSkipped,
				Outcome: in.Outcome,
			})
			res.Performance.Skipped++
			continue
		}

		directives, err := x.apply(ctx, in, ec)
		ires := InstructionResult{
			ID: in.ID, Keyword: in.Keyword, Outcome: in.Outcome,
		}
		if err != nil {
			ires.Status = StatusFailed
			ires.Error = err.Error()
			res.Performance.Failed++
			logging.ExecuteEvent(blockID, in.ID, string(StatusFailed), "error", err.Error())
		} else {
			ires.Status = StatusApplied
			ires.Directives = directives
			res.Performance.Applied++
		}
		res.Results = append(res.Results, ires)
	}

	res.Performance.Duration = time.Since(res.Performance.Started)
	return res
}

// apply dispatches one instruction, converting a handler panic into
// a per-instruction failure.
func (x *Executor) apply(ctx context.Context, in *ir.Instruction, ec *cond.Context) (directives []Directive, err error) {
	defer func() {
		if r := recover(); r != nil {
			directives = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	h, ok := x.handlers[in.Bucket]
	if !ok {
		h = x.fallback
	}
	return h.Apply(ctx, in, ec)
}
