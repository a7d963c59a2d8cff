package lifecycle

import (
	"context"

	"github.com/marmos91/lifeline/internal/logger"
)

// Scope is an isolated resolution context for a single orchestration phase.
// Each phase (init, teardown) acquires a fresh scope, so the step instances
// used during initialization and the instances used during teardown are
// independent unless a step was registered with singleton lifetime.
type Scope interface {
	// Steps returns the resolved steps in registration order. The slice is
	// captured once when the scope is created and not re-queried mid-phase.
	Steps() []Step

	// Close releases every phase-local resource the scope resolved. It runs
	// on every exit path of a phase, including error and cancellation paths.
	// Singleton-lifetime steps are never released here; their lifetime
	// belongs to the scope's owner.
	Close(ctx context.Context) error
}

// StepSource creates per-phase scopes. Registry is the in-package
// implementation; anything that preserves registration order can serve.
type StepSource interface {
	NewScope(ctx context.Context) (Scope, error)
}

// withScope acquires a scope, runs body with it, and releases the scope on
// every exit path before returning. A close error never masks the body's
// error; it is reported only when the body itself succeeded.
func withScope(ctx context.Context, source StepSource, body func(Scope) error) error {
	scope, err := source.NewScope(ctx)
	if err != nil {
		return err
	}

	bodyErr := body(scope)
	if closeErr := scope.Close(ctx); closeErr != nil {
		if bodyErr == nil {
			return closeErr
		}
		logger.Warn("Scope close failed after phase error", "error", closeErr)
	}
	return bodyErr
}
