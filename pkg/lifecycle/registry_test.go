package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// closableStep counts how many times its phase-local resources are released.
type closableStep struct {
	name string
	log  *callLog

	mu     sync.Mutex
	closes int
}

func (s *closableStep) Name() string { return s.name }

func (s *closableStep) Init(context.Context) error { return nil }

func (s *closableStep) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	if s.log != nil {
		s.log.add("close:" + s.name)
	}
	return nil
}

func (s *closableStep) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func TestRegistry_NewScopePreservesRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	reg.AddStep(NewStep("a", nil))
	reg.AddStep(NewStep("b", nil))
	reg.AddStep(NewStep("c", nil))

	scope, err := reg.NewScope(context.Background())
	if err != nil {
		t.Fatalf("NewScope() = %v, want nil", err)
	}
	defer scope.Close(context.Background())

	steps := scope.Steps()
	if len(steps) != 3 {
		t.Fatalf("len(steps) = %d, want 3", len(steps))
	}
	for i, want := range []string{"a", "b", "c"} {
		if steps[i].Name() != want {
			t.Errorf("steps[%d].Name() = %q, want %q", i, steps[i].Name(), want)
		}
	}
}

func TestRegistry_ScopedFactoryResolvesPerScope(t *testing.T) {
	var built int
	reg := NewRegistry()
	reg.Add(func(context.Context) (Step, error) {
		built++
		return NewStep("scoped", nil), nil
	})

	for i := 0; i < 2; i++ {
		scope, err := reg.NewScope(context.Background())
		if err != nil {
			t.Fatalf("NewScope() = %v, want nil", err)
		}
		scope.Close(context.Background())
	}

	if built != 2 {
		t.Errorf("factory invocations = %d, want 2 (one per scope)", built)
	}
}

func TestRegistry_SingletonFactoryResolvesOnce(t *testing.T) {
	var built int
	reg := NewRegistry()
	reg.AddSingleton(func(context.Context) (Step, error) {
		built++
		return NewStep("singleton", nil), nil
	})

	var instances []Step
	for i := 0; i < 3; i++ {
		scope, err := reg.NewScope(context.Background())
		if err != nil {
			t.Fatalf("NewScope() = %v, want nil", err)
		}
		instances = append(instances, scope.Steps()[0])
		scope.Close(context.Background())
	}

	if built != 1 {
		t.Errorf("factory invocations = %d, want 1", built)
	}
	if instances[0] != instances[1] || instances[1] != instances[2] {
		t.Error("expected every scope to see the same singleton instance")
	}
}

func TestRegistry_ScopeClosesOwnedInstancesInReverse(t *testing.T) {
	log := &callLog{}
	reg := NewRegistry()
	for _, name := range []string{"a", "b", "c"} {
		name := name
		reg.Add(func(context.Context) (Step, error) {
			return &closableStep{name: name, log: log}, nil
		})
	}

	scope, err := reg.NewScope(context.Background())
	if err != nil {
		t.Fatalf("NewScope() = %v, want nil", err)
	}
	if err := scope.Close(context.Background()); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}

	want := []string{"close:c", "close:b", "close:a"}
	got := log.snapshot()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistry_ScopeNeverClosesSingletons(t *testing.T) {
	singleton := &closableStep{name: "shared"}
	reg := NewRegistry()
	reg.AddStep(singleton)

	scope, err := reg.NewScope(context.Background())
	if err != nil {
		t.Fatalf("NewScope() = %v, want nil", err)
	}
	if err := scope.Close(context.Background()); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}

	if n := singleton.closeCount(); n != 0 {
		t.Errorf("singleton close count = %d, want 0", n)
	}
}

func TestRegistry_ScopeCloseIsIdempotent(t *testing.T) {
	step := &closableStep{name: "once"}
	reg := NewRegistry()
	reg.Add(func(context.Context) (Step, error) { return step, nil })

	scope, err := reg.NewScope(context.Background())
	if err != nil {
		t.Fatalf("NewScope() = %v, want nil", err)
	}

	for i := 0; i < 3; i++ {
		if err := scope.Close(context.Background()); err != nil {
			t.Fatalf("Close() #%d = %v, want nil", i, err)
		}
	}

	if n := step.closeCount(); n != 1 {
		t.Errorf("close count = %d, want 1", n)
	}
}

func TestRegistry_FactoryFailureClosesResolvedInstances(t *testing.T) {
	boom := errors.New("factory boom")
	resolved := &closableStep{name: "early"}

	reg := NewRegistry()
	reg.Add(func(context.Context) (Step, error) { return resolved, nil })
	reg.Add(func(context.Context) (Step, error) { return nil, boom })

	_, err := reg.NewScope(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("NewScope() = %v, want %v", err, boom)
	}
	if n := resolved.closeCount(); n != 1 {
		t.Errorf("resolved step close count = %d, want 1", n)
	}
}

func TestRegistry_Len(t *testing.T) {
	reg := NewRegistry()
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reg.Len())
	}
	reg.AddStep(NewStep("a", nil))
	reg.Add(func(context.Context) (Step, error) { return NewStep("b", nil), nil })
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}
}
