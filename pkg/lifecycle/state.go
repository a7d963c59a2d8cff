package lifecycle

// State represents where an orchestration currently is in its lifecycle.
// Terminal states are StateCompleted and StateFaulted.
type State int32

const (
	StateNotStarted State = iota
	StateInitializing
	StateRunning
	StateStopping
	StateTearingDown
	StateCompleted
	StateFaulted
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateInitializing:
		return "Initializing"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateTearingDown:
		return "TearingDown"
	case StateCompleted:
		return "Completed"
	case StateFaulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the state is one of the two terminal states.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFaulted
}
