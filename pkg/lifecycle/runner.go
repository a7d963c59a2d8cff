package lifecycle

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/lifeline/internal/logger"
	"github.com/marmos91/lifeline/internal/telemetry"
)

// Runner executes an ordered sequence of steps one at a time, preserving
// order and stopping at the first failure or cancellation. Completed steps
// are not rolled back here; rollback, if any, is the caller's job via the
// teardown phase.
type Runner struct {
	metrics Metrics
}

// NewRunner creates a runner. metrics may be nil.
func NewRunner(metrics Metrics) *Runner {
	return &Runner{metrics: metrics}
}

// RunInit executes every step's Init in registration order.
//
// ctx is checked before each step: if cancellation was already requested, the
// run fails with ctx.Err() having executed zero further steps. A step error
// is returned verbatim, not wrapped; the step identity is carried by logs,
// metrics and the span instead.
func (r *Runner) RunInit(ctx context.Context, steps []Step) error {
	start := time.Now()
	err := r.runInit(ctx, steps)
	r.observePhase(PhaseInit, time.Since(start), err)
	return err
}

func (r *Runner) runInit(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			logger.Warn("Initialization cancelled before step", "step", step.Name(), "index", i)
			return err
		}
		if err := r.runStep(ctx, PhaseInit, i, step.Name(), step.Init); err != nil {
			return err
		}
	}
	return nil
}

// RunTeardown executes the teardown operations of the teardown-capable steps
// in reverse registration order. Steps without teardown support are skipped.
// Same fail-fast semantics as RunInit: the first error or cancellation stops
// the loop; remaining steps do not run their teardown.
func (r *Runner) RunTeardown(ctx context.Context, steps []Step) error {
	start := time.Now()
	err := r.runTeardown(ctx, steps)
	r.observePhase(PhaseTeardown, time.Since(start), err)
	return err
}

func (r *Runner) runTeardown(ctx context.Context, steps []Step) error {
	for i := len(steps) - 1; i >= 0; i-- {
		td, ok := AsTeardown(steps[i])
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			logger.Warn("Teardown cancelled before step", "step", td.Name(), "index", i)
			return err
		}
		if err := r.runStep(ctx, PhaseTeardown, i, td.Name(), td.Teardown); err != nil {
			return err
		}
	}
	return nil
}

// runStep runs one operation with its observability envelope. The log
// entries, metric observation and span never alter control flow.
func (r *Runner) runStep(ctx context.Context, phase string, index int, name string, op func(context.Context) error) error {
	logger.Info("Running lifecycle step", "phase", phase, "step", name, "index", index)

	spanCtx, span := telemetry.StartSpan(ctx, "lifecycle."+phase,
		trace.WithAttributes(
			attribute.String("lifecycle.step", name),
			attribute.Int("lifecycle.index", index),
		))
	defer span.End()

	start := time.Now()
	err := op(spanCtx)
	elapsed := time.Since(start)

	if r.metrics != nil {
		r.metrics.ObserveStep(phase, name, elapsed, err)
	}

	switch {
	case err == nil:
		logger.Debug("Lifecycle step completed", "phase", phase, "step", name, "duration", elapsed)
	case errors.Is(err, context.Canceled):
		telemetry.RecordError(spanCtx, err)
		logger.Warn("Lifecycle step cancelled", "phase", phase, "step", name, "duration", elapsed)
	default:
		telemetry.RecordError(spanCtx, err)
		logger.Error("Lifecycle step failed", "phase", phase, "step", name, "duration", elapsed, "error", err)
	}
	return err
}

func (r *Runner) observePhase(phase string, elapsed time.Duration, err error) {
	if r.metrics != nil {
		r.metrics.ObservePhase(phase, elapsed, err)
	}
}
