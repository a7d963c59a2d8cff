package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/lifeline/internal/logger"
	"github.com/marmos91/lifeline/internal/telemetry"
)

const (
	// DefaultTeardownTimeout bounds the teardown phase of Run when no
	// explicit timeout is configured.
	DefaultTeardownTimeout = 10 * time.Second

	// NoTeardownTimeout disables the teardown timer entirely; teardown then
	// runs to completion or until it fails on its own.
	NoTeardownTimeout time.Duration = -1

	// hostCloseTimeout bounds the final release of the host's resources.
	hostCloseTimeout = 5 * time.Second
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTeardownTimeout sets the bound for the teardown phase of Run. Zero
// means DefaultTeardownTimeout; NoTeardownTimeout disables the timer.
func WithTeardownTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d == 0 {
			d = DefaultTeardownTimeout
		}
		o.teardownTimeout = d
	}
}

// WithMetrics attaches a metrics sink to the orchestrator and its runner.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) {
		o.runner = NewRunner(m)
	}
}

// Orchestrator sequences the whole host lifecycle: init steps in registration
// order, workload start, wait for shutdown, then teardown in reverse order
// under an independent timeout, with the host's resources released exactly
// once at the very end.
//
// An Orchestrator owns one host. Independent hosts get independent
// orchestrators; there is no shared mutable state between them.
type Orchestrator struct {
	source   StepSource
	workload Workload
	runner   *Runner

	teardownTimeout time.Duration

	state    atomic.Int32
	released atomic.Bool
}

// New creates an orchestrator for the given step source and workload.
// workload may be nil when only Initialize and Teardown will be used.
func New(source StepSource, workload Workload, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:          source,
		workload:        workload,
		runner:          NewRunner(nil),
		teardownTimeout: DefaultTeardownTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the orchestrator's current lifecycle state. It is safe to
// call from other goroutines, e.g. readiness probes.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) setState(s State) {
	prev := State(o.state.Swap(int32(s)))
	if prev != s {
		logger.Debug("Lifecycle state transition", "from", prev.String(), "to", s.String())
	}
}

// Initialize runs only the init phase in an isolated scope.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	if o.source == nil {
		return ErrNotConfigured
	}
	return withScope(ctx, o.source, func(scope Scope) error {
		return o.runner.RunInit(ctx, scope.Steps())
	})
}

// Teardown runs only the teardown phase in an isolated scope. It fails with
// ErrHostReleased once a prior Run has released the host's resources.
func (o *Orchestrator) Teardown(ctx context.Context) error {
	if o.source == nil {
		return ErrNotConfigured
	}
	if o.released.Load() {
		return ErrHostReleased
	}
	return withScope(ctx, o.source, func(scope Scope) error {
		return o.runner.RunTeardown(ctx, scope.Steps())
	})
}

// Run executes the full orchestrated lifecycle and blocks until it resolves.
//
// A ctx that is already cancelled short-circuits the entire flow: zero steps
// run and teardown is not attempted, since initialization never began and
// nothing needs cleanup. In every other case teardown runs, whatever happened
// during initialization or the workload.
//
// The returned error is the single terminal outcome: nil, the earlier-phase
// failure, the teardown failure (ErrTeardownTimedOut on timeout), or, when
// both occurred, errors.Join(earlierCause, teardownCause) in that order.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.source == nil {
		return ErrNotConfigured
	}
	if o.workload == nil {
		return ErrNoWorkload
	}
	if o.released.Load() {
		return ErrHostReleased
	}
	if err := ctx.Err(); err != nil {
		logger.Warn("Lifecycle run cancelled before start")
		o.setState(StateFaulted)
		return err
	}

	runID := uuid.NewString()
	ctx, span := telemetry.StartSpan(ctx, "lifecycle.run",
		trace.WithAttributes(attribute.String("lifecycle.run_id", runID)))
	defer span.End()

	logger.Info("Lifecycle run starting", "run_id", runID, "teardown_timeout", o.teardownTimeout)

	runErr := o.initAndRun(ctx)

	o.setState(StateTearingDown)
	teardownErr := o.teardownPhase(ctx)

	// Host disposal happens exactly once, after teardown resolves and before
	// Run returns, whatever the outcome.
	o.released.Store(true)
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hostCloseTimeout)
	defer cancel()
	closeErr := o.workload.Close(closeCtx)

	outcome := combineOutcome(runErr, teardownErr)
	if closeErr != nil {
		// A disposal failure takes precedence over the prior outcome, which
		// is logged so it is not lost.
		if outcome != nil {
			logger.Error("Host close failed; prior lifecycle outcome suppressed",
				"run_id", runID, "error", closeErr, "suppressed", outcome)
		}
		telemetry.RecordError(ctx, closeErr)
		o.setState(StateFaulted)
		return closeErr
	}

	if outcome != nil {
		telemetry.RecordError(ctx, outcome)
		o.setState(StateFaulted)
		logger.Error("Lifecycle run faulted", "run_id", runID, "error", outcome)
		return outcome
	}

	o.setState(StateCompleted)
	logger.Info("Lifecycle run completed", "run_id", runID)
	return nil
}

// initAndRun covers the Initializing, Running and Stopping states. Its error
// is the "earlier-phase cause" of the final outcome.
func (o *Orchestrator) initAndRun(ctx context.Context) error {
	o.setState(StateInitializing)
	err := withScope(ctx, o.source, func(scope Scope) error {
		return o.runner.RunInit(ctx, scope.Steps())
	})
	if err != nil {
		// Init failed or was cancelled: the workload is never started.
		o.setState(StateStopping)
		return err
	}

	o.setState(StateRunning)
	logger.Info("Workload starting")
	if err := o.workload.Start(ctx); err != nil {
		o.setState(StateStopping)
		return fmt.Errorf("workload start: %w", err)
	}

	err = o.workload.WaitForShutdown(ctx)
	o.setState(StateStopping)
	switch {
	case err == nil:
		logger.Info("Workload stopped")
	case errors.Is(err, context.Canceled):
		logger.Warn("Shutdown requested", "reason", err)
	default:
		logger.Error("Workload faulted", "error", err)
	}
	return err
}

// teardownPhase runs teardown in a fresh scope under its own cancellation
// scope. Teardown never inherits the run phase's cancellation: a cancelled or
// failed run still gets a full, fresh chance to clean up. Only the configured
// timeout bounds it.
func (o *Orchestrator) teardownPhase(ctx context.Context) error {
	tctx := context.WithoutCancel(ctx)
	if o.teardownTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(tctx, o.teardownTimeout)
		defer cancel()
	}

	err := withScope(tctx, o.source, func(scope Scope) error {
		return o.runner.RunTeardown(tctx, scope.Steps())
	})
	if err != nil && errors.Is(err, context.DeadlineExceeded) && tctx.Err() != nil {
		return fmt.Errorf("teardown did not complete within %s: %w", o.teardownTimeout, ErrTeardownTimedOut)
	}
	return err
}

// combineOutcome folds the two phase causes into the single terminal outcome,
// earlier-phase cause first.
func combineOutcome(runErr, teardownErr error) error {
	switch {
	case runErr != nil && teardownErr != nil:
		return errors.Join(runErr, teardownErr)
	case runErr != nil:
		return runErr
	default:
		return teardownErr
	}
}
