// Package a2a holds the chain-scoped primitives shared by the whole
// orchestration core: the per-chain Context, the shared State map, the
// Fault error taxonomy and argument hashing.
//
// Invariants:
// - One Context core per chain; derived contexts share state and log.
// - Depth and chain wall-clock budgets are checked at invocation boundaries.
// - Every failure kind carries the same {name, code, message, context, timestamp} envelope.
package a2a
