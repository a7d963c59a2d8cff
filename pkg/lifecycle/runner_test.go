package lifecycle

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

// fakeMetrics records observations for assertions.
type fakeMetrics struct {
	mu     sync.Mutex
	steps  []string
	phases []string
}

func (m *fakeMetrics) ObserveStep(phase, step string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.steps = append(m.steps, phase+"/"+step+"/"+outcome)
}

func (m *fakeMetrics) ObservePhase(phase string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.phases = append(m.phases, phase+"/"+outcome)
}

func TestRunInit_ExecutesInRegistrationOrder(t *testing.T) {
	log := &callLog{}
	steps := []Step{
		recordedStep(log, "a"),
		recordedStep(log, "b"),
		recordedStep(log, "c"),
	}

	if err := NewRunner(nil).RunInit(context.Background(), steps); err != nil {
		t.Fatalf("RunInit() = %v, want nil", err)
	}

	want := []string{"init:a", "init:b", "init:c"}
	if got := log.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestRunInit_StopsAtFirstFailure(t *testing.T) {
	log := &callLog{}
	boom := errors.New("boom")
	steps := []Step{
		recordedStep(log, "a"),
		failingInitStep(log, "b", boom),
		recordedStep(log, "c"),
	}

	err := NewRunner(nil).RunInit(context.Background(), steps)
	if !errors.Is(err, boom) {
		t.Fatalf("RunInit() = %v, want %v", err, boom)
	}

	want := []string{"init:a", "init:b"}
	if got := log.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestRunInit_StepErrorIsReturnedVerbatim(t *testing.T) {
	boom := errors.New("exact failure")
	steps := []Step{NewStep("bad", func(context.Context) error { return boom })}

	err := NewRunner(nil).RunInit(context.Background(), steps)
	if err != boom {
		t.Errorf("RunInit() = %v, want the step's error unwrapped", err)
	}
}

func TestRunInit_CancelledContextRunsNothing(t *testing.T) {
	log := &callLog{}
	steps := []Step{recordedStep(log, "a")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRunner(nil).RunInit(ctx, steps)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunInit() = %v, want context.Canceled", err)
	}
	if got := log.snapshot(); len(got) != 0 {
		t.Errorf("events = %v, want none", got)
	}
}

func TestRunInit_CancellationBetweenSteps(t *testing.T) {
	log := &callLog{}
	ctx, cancel := context.WithCancel(context.Background())

	steps := []Step{
		NewStep("a", func(context.Context) error {
			log.add("init:a")
			cancel()
			return nil
		}),
		recordedStep(log, "b"),
	}

	err := NewRunner(nil).RunInit(ctx, steps)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunInit() = %v, want context.Canceled", err)
	}

	want := []string{"init:a"}
	if got := log.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestRunTeardown_ReversesOrderAndSkipsInitOnly(t *testing.T) {
	log := &callLog{}
	steps := []Step{
		recordedStep(log, "a"),
		recordedInitStep(log, "b"),
		recordedStep(log, "c"),
	}

	if err := NewRunner(nil).RunTeardown(context.Background(), steps); err != nil {
		t.Fatalf("RunTeardown() = %v, want nil", err)
	}

	want := []string{"teardown:c", "teardown:a"}
	if got := log.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestRunTeardown_StopsAtFirstFailure(t *testing.T) {
	log := &callLog{}
	boom := errors.New("boom")
	steps := []Step{
		recordedStep(log, "a"),
		failingTeardownStep(log, "b", boom),
		recordedStep(log, "c"),
	}

	err := NewRunner(nil).RunTeardown(context.Background(), steps)
	if !errors.Is(err, boom) {
		t.Fatalf("RunTeardown() = %v, want %v", err, boom)
	}

	want := []string{"teardown:c", "teardown:b"}
	if got := log.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestRunner_ObservesStepsAndPhases(t *testing.T) {
	metrics := &fakeMetrics{}
	log := &callLog{}
	boom := errors.New("boom")
	runner := NewRunner(metrics)

	steps := []Step{
		recordedStep(log, "a"),
		failingInitStep(log, "b", boom),
	}

	if err := runner.RunInit(context.Background(), steps); !errors.Is(err, boom) {
		t.Fatalf("RunInit() = %v, want %v", err, boom)
	}
	if err := runner.RunTeardown(context.Background(), steps); err != nil {
		t.Fatalf("RunTeardown() = %v, want nil", err)
	}

	wantSteps := []string{"init/a/ok", "init/b/error", "teardown/b/ok", "teardown/a/ok"}
	if !reflect.DeepEqual(metrics.steps, wantSteps) {
		t.Errorf("step observations = %v, want %v", metrics.steps, wantSteps)
	}
	wantPhases := []string{"init/error", "teardown/ok"}
	if !reflect.DeepEqual(metrics.phases, wantPhases) {
		t.Errorf("phase observations = %v, want %v", metrics.phases, wantPhases)
	}
}

func TestRunInit_EmptyStepList(t *testing.T) {
	if err := NewRunner(nil).RunInit(context.Background(), nil); err != nil {
		t.Errorf("RunInit() = %v, want nil for zero steps", err)
	}
	if err := NewRunner(nil).RunTeardown(context.Background(), nil); err != nil {
		t.Errorf("RunTeardown() = %v, want nil for zero steps", err)
	}
}
