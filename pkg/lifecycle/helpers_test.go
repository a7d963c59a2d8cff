package lifecycle

import (
	"context"
	"sync"
)

// callLog records lifecycle events across goroutines in arrival order.
type callLog struct {
	mu     sync.Mutex
	events []string
}

func (l *callLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

// recordedStep is a teardown-capable step that logs both phases.
func recordedStep(log *callLog, name string) TeardownStep {
	return NewTeardownStep(name,
		func(context.Context) error {
			log.add("init:" + name)
			return nil
		},
		func(context.Context) error {
			log.add("teardown:" + name)
			return nil
		})
}

// recordedInitStep logs its init and has no teardown operation.
func recordedInitStep(log *callLog, name string) Step {
	return NewStep(name, func(context.Context) error {
		log.add("init:" + name)
		return nil
	})
}

// failingInitStep logs its init attempt and fails with err.
func failingInitStep(log *callLog, name string, err error) TeardownStep {
	return NewTeardownStep(name,
		func(context.Context) error {
			log.add("init:" + name)
			return err
		},
		func(context.Context) error {
			log.add("teardown:" + name)
			return nil
		})
}

// failingTeardownStep succeeds at init and fails its teardown with err.
func failingTeardownStep(log *callLog, name string, err error) TeardownStep {
	return NewTeardownStep(name,
		func(context.Context) error {
			log.add("init:" + name)
			return nil
		},
		func(context.Context) error {
			log.add("teardown:" + name)
			return err
		})
}

// stepRegistry builds a singleton registry over prebuilt steps.
func stepRegistry(steps ...Step) *Registry {
	reg := NewRegistry()
	for _, s := range steps {
		reg.AddStep(s)
	}
	return reg
}
