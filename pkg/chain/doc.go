// Package chain runs declarative multi-step plans (sequential, parallel or
// conditional) against the tool registry and a shared chain context.
//
// A valid plan always yields a ChainResult; per-step failures are recorded in
// it rather than raised. Only malformed plans (unknown strategy or onError
// policy) return an error.
package chain
