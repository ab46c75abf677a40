// Package compile wires the statement compiler pipeline end to end:
// tokenize, validate, build, normalize, optimize, execute.
//
// Every stage returns diagnostics as data; a malformed block
// degrades to fewer instructions, clearly reported, never a panic.
package compile

import (
	"context"

	"github.com/veildoc/veil/core/ast"
	"github.com/veildoc/veil/core/cond"
	"github.com/veildoc/veil/core/exec"
	"github.com/veildoc/veil/core/grammar"
	"github.com/veildoc/veil/core/ir"
	"github.com/veildoc/veil/internal/logging"
)

// Result is one compile pass over a block's statement lines.
type Result struct {
	BlockID string `json:"block_id"`

	// Valid is false when any line failed grammar validation. The
	// caller should surface diagnostics and may still use the
	// instructions compiled from the valid lines.
	Valid bool `json:"valid"`

	// Instructions is the optimized, bucket-ordered instruction set.
	Instructions []*ir.Instruction `json:"instructions"`

	Errors   []grammar.Issue `json:"errors,omitempty"`
	Warnings []grammar.Issue `json:"warnings,omitempty"`

	// Stats describes the pre-optimization instruction set.
	Stats ir.Stats `json:"stats"`
}

// Compile runs the full pipeline over a block's statement lines.
// Validation is advisory: the AST builder and normalizer run
// regardless, so partially malformed blocks still yield the
// instructions of their well-formed lines.
func Compile(lines []string, blockID string) *Result {
	res := &Result{BlockID: blockID}

	vr := grammar.NewValidator().ValidateBlock(lines)
	res.Valid = vr.Valid
	res.Errors = append(res.Errors, vr.Errors...)
	res.Warnings = append(res.Warnings, vr.Warnings...)

	tree := ast.Build(lines)
	tr := ir.Transform(tree, blockID)
	res.Errors = append(res.Errors, tr.Errors...)
	res.Warnings = append(res.Warnings, tr.Warnings...)
	res.Stats = tr.Stats

	res.Instructions = ir.Optimize(tr.Instructions)

	logging.CompileEvent(blockID, len(res.Instructions), len(res.Errors), len(res.Warnings))
	return res
}

// Pipeline owns the stateful half of the compiler: the conditional
// evaluator with its TTL caches and the executor's handler registry.
// One Pipeline serves repeated compile-and-execute passes; its
// caches are keyed by block identity.
type Pipeline struct {
	eval *cond.Evaluator
	exec *exec.Executor
}

// NewPipeline returns a pipeline with a fresh evaluator and an
// executor that falls back to passthrough handlers.
func NewPipeline() *Pipeline {
	eval := cond.NewEvaluator()
	return &Pipeline{
		eval: eval,
		exec: exec.NewExecutor(eval),
	}
}

// Register installs the effect handler for a bucket.
func (p *Pipeline) Register(b grammar.Bucket, h exec.Handler) {
	p.exec.Register(b, h)
}

// Evaluator exposes the pipeline's conditional evaluator so hosts
// can push interaction updates.
func (p *Pipeline) Evaluator() *cond.Evaluator {
	return p.eval
}

// Execute runs a compiled block against an evaluation context.
func (p *Pipeline) Execute(ctx context.Context, res *Result, ec *cond.Context) *exec.Result {
	return p.exec.Execute(ctx, res.BlockID, res.Instructions, ec)
}

// UpdateInteractionState pushes a block's live interaction state
// into the evaluator, purging its cached interaction results.
func (p *Pipeline) UpdateInteractionState(blockID string, state cond.Interaction) {
	p.eval.UpdateInteractionState(blockID, state)
	logging.CacheEvent("interaction_update", blockID, 0)
}

// InvalidateBlock drops all evaluator state for a destroyed or
// reassigned block.
func (p *Pipeline) InvalidateBlock(blockID string) {
	p.eval.InvalidateBlock(blockID)
	logging.CacheEvent("invalidate_block", blockID, 0)
}
