// Package patterns provides async combinators (retry, fallback, race,
// pipeline, waterfall, scatter-gather, map-reduce, fan-out, branch) expressed
// in terms of Registry.Invoke and the chain context.
//
// A failed Result and a registry-raised error are treated identically for
// branching decisions: combinators branch on Success.
package patterns
