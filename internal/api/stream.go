package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/streamnode/streamnode/internal/pipeline"
	"github.com/streamnode/streamnode/internal/probe"
	"github.com/streamnode/streamnode/internal/session"
)

// StartStreamBody is the caller's stream request. Everything but the
// device is optional; omitted fields negotiate to the best available.
type StartStreamBody struct {
	Device      string  `json:"device" example:"usb-046d_Logitech_BRIO-video-index0" doc:"Stable device identifier or /dev node path"`
	Width       uint32  `json:"width,omitempty" example:"1920" doc:"Requested frame width"`
	Height      uint32  `json:"height,omitempty" example:"1080" doc:"Requested frame height"`
	FPS         float64 `json:"fps,omitempty" example:"30" doc:"Requested framerate"`
	Format      string  `json:"format,omitempty" example:"MJPG" doc:"Hard pixel format constraint"`
	BitrateKbps int     `json:"bitrate_kbps,omitempty" example:"4500" doc:"Requested encoder bitrate"`

	SinkHost   string `json:"sink_host,omitempty" example:"127.0.0.1" doc:"SRT ingest host"`
	SinkPort   int    `json:"sink_port,omitempty" example:"8890" doc:"SRT ingest port"`
	StreamName string `json:"stream_name,omitempty" example:"live" doc:"Publish stream name"`
}

// StartStreamInput wraps the request body.
type StartStreamInput struct {
	Body StartStreamBody
}

// StreamProfileResponse returns the negotiated profile.
type StreamProfileResponse struct {
	Body pipeline.StreamProfile
}

// StreamStatusResponse returns the session snapshot.
type StreamStatusResponse struct {
	Body session.Status
}

// StopStreamResponse acknowledges a stop.
type StopStreamResponse struct {
	Body struct {
		State string `json:"state" example:"idle"`
	}
}

func (s *Server) registerStreamRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "start-stream",
		Method:      http.MethodPost,
		Path:        "/api/stream/start",
		Summary:     "Start Stream",
		Description: "Negotiate a stream profile for the device and launch the session",
		Tags:        []string{"stream"},
		Errors:      []int{400, 404, 409, 422, 500, 503},
	}, func(ctx context.Context, input *StartStreamInput) (*StreamProfileResponse, error) {
		req := pipeline.Request{
			DeviceRef:   input.Body.Device,
			Width:       input.Body.Width,
			Height:      input.Body.Height,
			FPS:         input.Body.FPS,
			Format:      probe.PixelFormat(input.Body.Format),
			BitrateKbps: input.Body.BitrateKbps,
			Sink: pipeline.Sink{
				Host:       input.Body.SinkHost,
				Port:       input.Body.SinkPort,
				StreamName: input.Body.StreamName,
			},
		}

		profile, err := s.opts.Facade.Start(ctx, req)
		if err != nil {
			return nil, mapStreamError(err)
		}
		return &StreamProfileResponse{Body: *profile}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-stream",
		Method:      http.MethodPost,
		Path:        "/api/stream/stop",
		Summary:     "Stop Stream",
		Description: "Terminate the active session. Stopping an idle node succeeds.",
		Tags:        []string{"stream"},
		Errors:      []int{500},
	}, func(ctx context.Context, input *struct{}) (*StopStreamResponse, error) {
		if err := s.opts.Facade.Stop(ctx); err != nil {
			return nil, mapStreamError(err)
		}

		resp := &StopStreamResponse{}
		resp.Body.State = string(s.opts.Facade.Status().State)
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stream-status",
		Method:      http.MethodGet,
		Path:        "/api/stream/status",
		Summary:     "Stream Status",
		Description: "Current session state, negotiated profile, and crash history",
		Tags:        []string{"stream"},
	}, func(ctx context.Context, input *struct{}) (*StreamStatusResponse, error) {
		return &StreamStatusResponse{Body: s.opts.Facade.Status()}, nil
	})
}
