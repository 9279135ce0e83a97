// Package events carries in-process notifications between the session
// supervisor and its observers (API, metrics, autostart) over a
// kelindar/event dispatcher.
package events

// Event type constants for kelindar/event.
const (
	TypeSessionStateChanged uint32 = iota + 1
	TypeSessionCrashed
	TypeSessionProgress
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SessionStateChangedEvent fires on every supervisor state transition.
type SessionStateChangedEvent struct {
	State     string `json:"state" example:"running" doc:"New session state"`
	Previous  string `json:"previous" example:"starting" doc:"Previous session state"`
	Profile   string `json:"profile,omitempty" example:"YUYV 1920x1080@30 -> h264_rkmpp 6000kbps" doc:"Active stream profile summary"`
	PID       int    `json:"pid,omitempty" example:"4242" doc:"Encoder process ID"`
	Error     string `json:"error,omitempty" doc:"Error detail for failure transitions"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionStateChangedEvent.
func (e SessionStateChangedEvent) Type() uint32 { return TypeSessionStateChanged }

// SessionCrashedEvent fires when the encoder process exits unexpectedly.
type SessionCrashedEvent struct {
	ExitCode  int    `json:"exit_code" example:"1" doc:"Process exit code"`
	Restarts  int    `json:"restarts" example:"2" doc:"Restart attempts consumed"`
	WillRetry bool   `json:"will_retry" doc:"Whether the supervisor schedules another attempt"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionCrashedEvent.
func (e SessionCrashedEvent) Type() uint32 { return TypeSessionCrashed }

// SessionProgressEvent carries a parsed FFmpeg stats sample.
type SessionProgressEvent struct {
	FPS         float64 `json:"fps" example:"30" doc:"Encoded frames per second"`
	BitrateKbps float64 `json:"bitrate_kbps" example:"5980.2" doc:"Momentary output bitrate"`
	Speed       float64 `json:"speed" example:"1.0" doc:"Encoding speed relative to realtime"`
	Timestamp   string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionProgressEvent.
func (e SessionProgressEvent) Type() uint32 { return TypeSessionProgress }
