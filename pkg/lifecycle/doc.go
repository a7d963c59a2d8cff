// Package lifecycle orchestrates the startup and shutdown of long-running
// hosts.
//
// A host registers an ordered sequence of initialization steps and a workload.
// Run executes every step in registration order, starts the workload, blocks
// until a shutdown signal arrives, and then runs the teardown operations of
// the teardown-capable steps in reverse registration order under an
// independent timeout. Teardown always gets a chance to run, even when
// initialization or the workload failed, and the host's own resources are
// released exactly once before Run returns.
//
// Steps for each phase are resolved from a fresh Scope, so the instances used
// during initialization and the instances used during teardown are
// independent unless they were registered with singleton lifetime.
package lifecycle
