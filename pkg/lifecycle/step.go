package lifecycle

import "context"

// Step is a unit of startup work. Steps are executed one at a time, in
// registration order, by the Runner.
type Step interface {
	// Name identifies the step in logs, metrics and traces.
	Name() string

	// Init performs the startup work. It must respect ctx cancellation.
	Init(ctx context.Context) error
}

// TeardownStep is a Step that also performs shutdown-time cleanup. A step is
// its own teardown handler; there is no separate registration for teardown.
type TeardownStep interface {
	Step

	// Teardown releases whatever Init acquired. It runs on a context that is
	// independent of the one Init ran under.
	Teardown(ctx context.Context) error
}

// AsTeardown returns the teardown-capable view of s. Steps that only
// implement Step do not participate in the teardown phase.
func AsTeardown(s Step) (TeardownStep, bool) {
	td, ok := s.(TeardownStep)
	return td, ok
}

// initStep adapts a plain function to the Step contract. It intentionally has
// no Teardown method so that AsTeardown reports it as init-only.
type initStep struct {
	name string
	init func(ctx context.Context) error
}

// NewStep wraps an init function as an init-only Step.
func NewStep(name string, init func(ctx context.Context) error) Step {
	return &initStep{name: name, init: init}
}

func (s *initStep) Name() string { return s.name }

func (s *initStep) Init(ctx context.Context) error {
	if s.init == nil {
		return nil
	}
	return s.init(ctx)
}

// funcStep adapts a pair of functions to the TeardownStep contract.
type funcStep struct {
	name     string
	init     func(ctx context.Context) error
	teardown func(ctx context.Context) error
}

// NewTeardownStep wraps an init and a teardown function as a TeardownStep.
// Either function may be nil, in which case the corresponding phase is a
// no-op for this step.
func NewTeardownStep(name string, init, teardown func(ctx context.Context) error) TeardownStep {
	return &funcStep{name: name, init: init, teardown: teardown}
}

func (s *funcStep) Name() string { return s.name }

func (s *funcStep) Init(ctx context.Context) error {
	if s.init == nil {
		return nil
	}
	return s.init(ctx)
}

func (s *funcStep) Teardown(ctx context.Context) error {
	if s.teardown == nil {
		return nil
	}
	return s.teardown(ctx)
}
