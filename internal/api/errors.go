package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/streamnode/streamnode/internal/control"
)

// mapStreamError converts a façade error into the Huma error with the
// right HTTP status. The stable error code rides along as detail.
func mapStreamError(err error) error {
	var se *control.StreamError
	if !errors.As(err, &se) {
		return huma.Error500InternalServerError("internal error", err)
	}

	detail := &huma.ErrorDetail{Message: se.Code, Location: "code"}
	switch se.Code {
	case control.CodeDeviceNotFound:
		return huma.Error404NotFound(se.Message, detail)
	case control.CodeProbeUnavailable:
		return huma.Error503ServiceUnavailable(se.Message, detail)
	case control.CodeNoCompatibleCapability:
		return huma.Error422UnprocessableEntity(se.Message, detail)
	case control.CodeAlreadyRunning:
		return huma.Error409Conflict(se.Message, detail)
	case control.CodeInvalidRequest:
		return huma.Error400BadRequest(se.Message, detail)
	default:
		// SPAWN_FAILED, CRASH_LOOP_EXCEEDED, INTERNAL
		return huma.Error500InternalServerError(se.Message, detail)
	}
}
