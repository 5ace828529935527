// Package orchestrator is the composition root: it loads configuration and
// assembles the registry, plan executor, combinator runner, trace arena and
// Prometheus metrics into one consistently wired Core.
//
// Chains started through Core.NewContext carry the configured depth and
// wall-clock budgets; Watch keeps those budgets following the config file.
package orchestrator
