package cwship

// State is the lifecycle state of a Shipper.
type State int

const (
	// StateStopped means the flush loop is not running. Records logged in
	// this state are buffered until the next Start.
	StateStopped State = iota

	// StateStarting means Start is initializing plugins.
	StateStarting

	// StateRunning means the flush loop is active.
	StateRunning

	// StateStopping means Stop is running the final flush.
	StateStopping

	// StateCrashed means startup failed or shutdown timed out.
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// CanStart returns true if Start may be called in this state.
func (s State) CanStart() bool {
	return s == StateStopped || s == StateCrashed
}

// CanStop returns true if Stop may be called in this state.
func (s State) CanStop() bool {
	return s == StateRunning || s == StateStarting
}

// IsRunning returns true if the flush loop is active.
func (s State) IsRunning() bool {
	return s == StateRunning
}
