package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Optimize runs the IR optimization passes: dead-instruction
// elimination, best-effort consolidation of same-target same-type
// instructions, and a stable sort by ascending bucket. The input
// slice is not mutated, and the function is idempotent:
// Optimize(Optimize(s)) is identical to Optimize(s).
func Optimize(instrs []*Instruction) []*Instruction {
	out := dropDead(instrs)
	out = consolidate(out)
	sortByBucket(out)
	return out
}

// dropDead removes instructions whose effect parameter map is empty:
// a statement that specifies no actual change. Conditional and branch
// statements land here by design; their conditions have already been
// inherited by their children.
func dropDead(instrs []*Instruction) []*Instruction {
	out := make([]*Instruction, 0, len(instrs))
	for _, in := range instrs {
		if in.Effect.Empty() {
			continue
		}
		out = append(out, in)
	}
	return out
}

// consolidate merges instructions that share a target, effect type,
// and condition list into one, with later parameters overriding
// earlier ones. Consolidation is best effort: instructions that
// don't line up are left alone, which is a missed optimization, not
// an error.
func consolidate(instrs []*Instruction) []*Instruction {
	out := make([]*Instruction, 0, len(instrs))
	seen := make(map[string]int)
	for _, in := range instrs {
		key := consolidationKey(in)
		idx, dup := seen[key]
		if !dup {
			seen[key] = len(out)
			out = append(out, in)
			continue
		}
		merged := cloneInstruction(out[idx])
		for k, v := range in.Effect.Params {
			merged.Effect.Params[k] = v
		}
		out[idx] = merged
	}
	return out
}

// sortByBucket orders instructions by ascending bucket, preserving
// relative order within equal buckets.
func sortByBucket(instrs []*Instruction) {
	sort.SliceStable(instrs, func(i, j int) bool {
		return instrs[i].Bucket < instrs[j].Bucket
	})
}

// consolidationKey identifies the merge group of an instruction:
// bucket, effect type, normalized target, and conditions. Differing
// conditions keep instructions apart so gating stays correct.
func consolidationKey(in *Instruction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|%s|%s|%s|%d|%d-%d|%d",
		in.Bucket, in.Effect.Type,
		in.Target.Kind, in.Target.Pattern, in.Target.Index,
		in.Target.RangeStart, in.Target.RangeEnd, in.Target.Scope)
	for _, c := range in.Conditions {
		fmt.Fprintf(&sb, "|%v:%s", c.Negate, c.Expr)
	}
	return sb.String()
}

// cloneInstruction copies an instruction deeply enough that merging
// parameters never mutates the optimizer's input.
func cloneInstruction(in *Instruction) *Instruction {
	cp := *in
	cp.Effect = &EffectSpec{
		Type:   in.Effect.Type,
		Params: make(map[string]Value, len(in.Effect.Params)),
	}
	for k, v := range in.Effect.Params {
		cp.Effect.Params[k] = v
	}
	return &cp
}
