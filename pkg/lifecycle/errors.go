package lifecycle

import "errors"

var (
	// ErrNotConfigured is returned by every entry point when the orchestrator
	// was built without a step source. Registering zero steps is fine;
	// registering no source at all is a configuration mistake that should not
	// silently no-op.
	ErrNotConfigured = errors.New("lifecycle: no step source configured; register a Registry or StepSource before orchestrating")

	// ErrHostReleased is returned when Teardown or Run is invoked after the
	// host's resources were already released by a prior full run.
	ErrHostReleased = errors.New("lifecycle: host resources already released")

	// ErrNoWorkload is returned by Run when no workload was configured.
	// Initialize and Teardown do not need one.
	ErrNoWorkload = errors.New("lifecycle: no workload configured")

	// ErrTeardownTimedOut reports that the teardown phase did not finish
	// within the configured bound. It is a distinct failure kind: teardown
	// timeouts are implemented by cancelling an internal context, but they
	// are never reported as context.Canceled or context.DeadlineExceeded.
	ErrTeardownTimedOut = errors.New("lifecycle: teardown timed out")
)
