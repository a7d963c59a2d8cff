package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/marmos91/lifeline/internal/logger"
)

// Workload is the host's main process as seen by the orchestrator.
type Workload interface {
	// Start launches the workload. It must return promptly once the workload
	// is running (or has failed to start).
	Start(ctx context.Context) error

	// WaitForShutdown blocks until the workload stops on its own, fails, or
	// ctx is cancelled. A nil return means a normal stop.
	WaitForShutdown(ctx context.Context) error

	// Close releases the workload's resources. The orchestrator calls it
	// exactly once, after teardown has resolved, regardless of outcome.
	Close(ctx context.Context) error
}

// BlockingServer is the shape of the servers this package hosts: Start blocks
// until ctx is cancelled or the server fails, Stop initiates graceful
// shutdown. pkg/api and pkg/metrics both serve through this contract.
type BlockingServer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// serverWorkload adapts a BlockingServer to the Workload contract by
// supervising the blocking Start in a goroutine.
type serverWorkload struct {
	server BlockingServer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error

	closeOnce sync.Once
}

// NewServerWorkload wraps a blocking server as a Workload.
func NewServerWorkload(server BlockingServer) Workload {
	return &serverWorkload{server: server}
}

func (w *serverWorkload) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done != nil {
		return fmt.Errorf("lifecycle: workload already started")
	}

	// The server's own context is detached from the orchestration token so
	// that shutdown goes through Stop with its own deadline instead of an
	// abrupt cancellation.
	srvCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	w.done = make(chan error, 1)

	go func() {
		w.done <- w.server.Start(srvCtx)
	}()
	return nil
}

func (w *serverWorkload) WaitForShutdown(ctx context.Context) error {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()

	if done == nil {
		return fmt.Errorf("lifecycle: workload was never started")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("workload failed: %w", err)
		}
		return nil
	}
}

func (w *serverWorkload) Close(ctx context.Context) error {
	var err error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		cancel := w.cancel
		w.mu.Unlock()

		if cancel == nil {
			// Never started; nothing to release.
			return
		}

		if stopErr := w.server.Stop(ctx); stopErr != nil {
			err = stopErr
		}
		cancel()
		logger.Debug("Workload resources released")
	})
	return err
}
