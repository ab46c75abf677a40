package cond

import (
	"strings"
	"sync"
	"time"

	"github.com/veildoc/veil/core/cache"
	"github.com/veildoc/veil/core/ir"
)

// TTLs per condition category. Interaction state flips quickly, so
// its results barely outlive the evaluation; theme and file facts
// are stable for a minute.
const (
	TTLInteraction = 1 * time.Second
	TTLTime        = 30 * time.Second
	TTLTheme       = 60 * time.Second
	TTLFile        = 60 * time.Second
	TTLDefault     = 5 * time.Second
)

// keySep joins block identity and expression in cache keys.
const keySep = "\x1f"

// Evaluator evaluates condition expressions with per-(block,
// expression) result caching. It is an explicit object owned by the
// caller, not a package singleton, so compile sessions stay
// independent and testable. The evaluator never mutates a supplied
// Context; live interaction updates are kept as per-block overlays.
type Evaluator struct {
	results cache.Cache[string, bool]

	mu       sync.RWMutex
	overlays map[string]Interaction
}

// NewEvaluator returns an evaluator with an empty result cache.
func NewEvaluator() *Evaluator {
	cfg := cache.DefaultConfig()
	return &Evaluator{
		results:  cache.NewLRUCache[string, bool](cfg),
		overlays: make(map[string]Interaction),
	}
}

// Evaluate checks one expression for a block against a context,
// consulting and populating the TTL cache.
func (e *Evaluator) Evaluate(blockID, expr string, ctx *Context) bool {
	key := blockID + keySep + expr
	if v, ok := e.results.Get(key); ok {
		return v
	}

	result := Evaluate(expr, e.effective(blockID, ctx))
	e.results.PutTTL(key, result, ttlFor(Categorize(expr)))
	return result
}

// EvaluateAll gates an instruction: logical AND across its
// conditions, honoring per-condition negation from false/else
// branches. An empty list is vacuously true.
func (e *Evaluator) EvaluateAll(blockID string, conds []ir.Condition, ctx *Context) bool {
	for _, c := range conds {
		result := e.Evaluate(blockID, c.Expr, ctx)
		if c.Negate {
			result = !result
		}
		if !result {
			return false
		}
	}
	return true
}

// UpdateInteractionState records a block's live interaction state
// and purges the block's cached interaction results, so a
// hover-start is observable before the 1s TTL lapses.
func (e *Evaluator) UpdateInteractionState(blockID string, state Interaction) {
	e.mu.Lock()
	e.overlays[blockID] = state
	e.mu.Unlock()

	prefix := blockID + keySep
	e.results.RemoveFunc(func(key string) bool {
		expr, ok := strings.CutPrefix(key, prefix)
		return ok && Categorize(expr) == CategoryInteraction
	})
}

// InvalidateBlock drops all cached results and the interaction
// overlay for a block. Call when a block is destroyed or its
// identity is reassigned.
func (e *Evaluator) InvalidateBlock(blockID string) {
	e.mu.Lock()
	delete(e.overlays, blockID)
	e.mu.Unlock()

	prefix := blockID + keySep
	e.results.RemoveFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// CacheStats exposes result-cache statistics for diagnostics.
func (e *Evaluator) CacheStats() cache.Stats {
	return e.results.Stats()
}

// effective merges a block's live interaction overlay over the
// caller's context without mutating it.
func (e *Evaluator) effective(blockID string, ctx *Context) *Context {
	e.mu.RLock()
	overlay, ok := e.overlays[blockID]
	e.mu.RUnlock()
	if !ok || ctx == nil {
		return ctx
	}
	merged := *ctx
	merged.Interaction = overlay
	return &merged
}

// ttlFor maps a condition category to its cache TTL.
func ttlFor(cat Category) time.Duration {
	switch cat {
	case CategoryInteraction:
		return TTLInteraction
	case CategoryTime:
		return TTLTime
	case CategoryTheme:
		return TTLTheme
	case CategoryFile:
		return TTLFile
	}
	return TTLDefault
}
