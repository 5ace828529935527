// Package trace records per-invocation spans and chain events in memory and
// reconstructs per-chain timelines and critical paths.
//
// Invariants:
// - A closed span's end time is never before its start time.
// - Storage is bounded: spans are evicted by age and count whenever a new
//   span is created.
// - Parent/child linkage is explicit via ParentSpanID.
package trace
