package control

import (
	"errors"
	"fmt"

	"github.com/streamnode/streamnode/internal/pipeline"
	"github.com/streamnode/streamnode/internal/probe"
	"github.com/streamnode/streamnode/internal/session"
)

// Error codes exposed on the control surface. They are stable API: clients
// branch on the code, the message is for humans.
const (
	CodeDeviceNotFound         = "DEVICE_NOT_FOUND"
	CodeProbeUnavailable       = "PROBE_UNAVAILABLE"
	CodeNoCompatibleCapability = "NO_COMPATIBLE_CAPABILITY"
	CodeAlreadyRunning         = "ALREADY_RUNNING"
	CodeSpawnFailed            = "SPAWN_FAILED"
	CodeCrashLoopExceeded      = "CRASH_LOOP_EXCEEDED"
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeInternal               = "INTERNAL"
)

// StreamError is the typed error returned by every façade operation.
type StreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

func newStreamError(code, message string, cause error) *StreamError {
	return &StreamError{Code: code, Message: message, Cause: cause}
}

// classify wraps a component error into a StreamError with the matching
// code. Errors already typed pass through unchanged.
func classify(err error, message string) *StreamError {
	var se *StreamError
	if errors.As(err, &se) {
		return se
	}

	code := CodeInternal
	switch {
	case errors.Is(err, probe.ErrDeviceNotFound):
		code = CodeDeviceNotFound
	case errors.Is(err, probe.ErrProbeUnavailable):
		code = CodeProbeUnavailable
	case errors.Is(err, pipeline.ErrNoCompatibleCapability):
		code = CodeNoCompatibleCapability
	case errors.Is(err, session.ErrAlreadyRunning):
		code = CodeAlreadyRunning
	case errors.Is(err, session.ErrSpawnFailed):
		code = CodeSpawnFailed
	case errors.Is(err, session.ErrCrashLoopExceeded):
		code = CodeCrashLoopExceeded
	}
	return newStreamError(code, message, err)
}
