// Package ir defines the normalized intermediate representation of
// compiled veil statements and the passes that produce it.
//
// The IR sits between the statement AST and execution. Transform
// walks a statement forest and emits one bucketed Instruction per
// statement, with a normalized target selector, monotonically
// narrowed scope, and conditions inherited from conditional
// ancestors. Optimize prunes dead instructions, consolidates
// duplicates, and orders the set by bucket priority; it is
// idempotent. Instruction IDs are content-derived so recompiling
// unchanged source yields identical IDs.
package ir
