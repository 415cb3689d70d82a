package domain

// State is the lifecycle state of a sample.
// Transitions are strictly forward: created -> started -> stopped -> reportable -> reported.
type State int

const (
	StateCreated State = iota
	StateStarted
	StateStopped
	StateReportable
	StateReported
)

var stateNames = [...]string{
	StateCreated:    "created",
	StateStarted:    "started",
	StateStopped:    "stopped",
	StateReportable: "reportable",
	StateReported:   "reported",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Finished reports whether the sample has a stop time.
func (s State) Finished() bool {
	return s >= StateStopped
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DependencyState tracks one named dependency of a waterfall sample.
type DependencyState int

const (
	// NotDeclared is the zero value: the name was never passed to Waterfall.
	NotDeclared DependencyState = iota
	// Pending means the sample still waits for the dependency to stop.
	Pending
	// Satisfied means the dependency has stopped.
	Satisfied
)

func (d DependencyState) String() string {
	switch d {
	case Pending:
		return "pending"
	case Satisfied:
		return "satisfied"
	default:
		return "not_declared"
	}
}
