package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Lifetime controls how a registration is resolved across scopes.
type Lifetime int

const (
	// LifetimeScoped resolves a fresh instance for every scope. Scoped
	// instances that implement io.Closer are closed when their scope closes.
	LifetimeScoped Lifetime = iota

	// LifetimeSingleton resolves the instance once and reuses it in every
	// scope. Singletons are never closed by a scope; releasing them is the
	// registry owner's job.
	LifetimeSingleton
)

// Factory builds a step instance for one scope.
type Factory func(ctx context.Context) (Step, error)

// registration is one entry in the ordered step list.
type registration struct {
	lifetime Lifetime
	factory  Factory

	// Singleton resolution state. Guarded by once so concurrent scopes
	// resolve the instance exactly once.
	once     sync.Once
	instance Step
	err      error
}

// Registry is the default StepSource: an insertion-ordered store of step
// registrations. It is not a dependency container; steps run in pure
// registration order with no declared inter-step dependencies.
//
// Registration is not safe for concurrent use; NewScope is.
type Registry struct {
	regs []*registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a scoped factory. Each scope invokes it once, so the init
// phase and the teardown phase get independent instances.
func (r *Registry) Add(factory Factory) {
	r.regs = append(r.regs, &registration{lifetime: LifetimeScoped, factory: factory})
}

// AddStep registers an already-built step with singleton lifetime: every
// scope sees this exact instance and no scope ever closes it.
func (r *Registry) AddStep(step Step) {
	r.AddSingleton(func(context.Context) (Step, error) { return step, nil })
}

// AddSingleton registers a factory that is invoked at most once; the produced
// instance is shared by every scope.
func (r *Registry) AddSingleton(factory Factory) {
	r.regs = append(r.regs, &registration{lifetime: LifetimeSingleton, factory: factory})
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	return len(r.regs)
}

// NewScope resolves every registration in insertion order into a fresh scope.
// If any factory fails, the scoped instances resolved so far are closed (in
// reverse order) and the factory error is returned.
func (r *Registry) NewScope(ctx context.Context) (Scope, error) {
	scope := &registryScope{}

	for i, reg := range r.regs {
		step, err := reg.resolve(ctx)
		if err != nil {
			closeErr := scope.Close(ctx)
			return nil, errors.Join(fmt.Errorf("lifecycle: resolving step %d: %w", i, err), closeErr)
		}
		scope.steps = append(scope.steps, step)
		if reg.lifetime == LifetimeScoped {
			scope.owned = append(scope.owned, step)
		}
	}

	return scope, nil
}

func (reg *registration) resolve(ctx context.Context) (Step, error) {
	if reg.lifetime == LifetimeSingleton {
		reg.once.Do(func() {
			reg.instance, reg.err = reg.factory(ctx)
		})
		return reg.instance, reg.err
	}
	return reg.factory(ctx)
}

// registryScope holds one phase's resolved steps. Only scoped instances end
// up in owned; singletons are listed in steps but never closed here.
type registryScope struct {
	steps []Step
	owned []Step

	closeOnce sync.Once
	closeErr  error
}

func (s *registryScope) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Close releases the scope's owned instances in reverse resolution order.
// Steps that do not implement io.Closer have no phase-local resources to
// release. Close is idempotent.
func (s *registryScope) Close(context.Context) error {
	s.closeOnce.Do(func() {
		var errs []error
		for i := len(s.owned) - 1; i >= 0; i-- {
			if closer, ok := s.owned[i].(io.Closer); ok {
				if err := closer.Close(); err != nil {
					errs = append(errs, err)
				}
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
