package session

import "time"

// State is the lifecycle phase of the streaming session.
type State string

// Session states. Stopped is transient: the supervisor passes through it
// on the way back to Idle so observers see an explicit stop, but a settled
// session always reports Idle.
const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
	StateError    State = "error"
)

// Active reports whether a process may be alive or about to be.
func (s State) Active() bool {
	switch s {
	case StateStarting, StateRunning, StateStopping:
		return true
	}
	return false
}

// Status is a point-in-time snapshot of the session. Reading it never
// blocks on process operations.
type Status struct {
	State        State      `json:"state"`
	Profile      string     `json:"profile,omitempty"`
	DeviceID     string     `json:"device_id,omitempty"`
	PID          int        `json:"pid,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	Restarts     int        `json:"restarts"`
	LastExitCode int        `json:"last_exit_code"`
	LastError    string     `json:"last_error,omitempty"`
}
