package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/streamnode/streamnode/internal/config"
)

// SettingsResponse wraps the persisted node settings.
type SettingsResponse struct {
	Body config.Settings
}

// UpdateSettingsInput replaces the mutable settings fields.
type UpdateSettingsInput struct {
	Body struct {
		Autostart bool                  `json:"autostart" doc:"Start the configured stream on boot"`
		Stream    config.StreamSettings `json:"stream"`
		Sink      config.SinkSettings   `json:"sink"`
	}
}

func (s *Server) registerSettingsRoutes() {
	if s.opts.Settings == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/settings",
		Summary:     "Get Settings",
		Tags:        []string{"settings"},
	}, func(ctx context.Context, input *struct{}) (*SettingsResponse, error) {
		return &SettingsResponse{Body: s.opts.Settings.Get()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-settings",
		Method:      http.MethodPut,
		Path:        "/api/settings",
		Summary:     "Update Settings",
		Description: "Replace the persisted stream defaults and autostart flag",
		Tags:        []string{"settings"},
		Errors:      []int{500},
	}, func(ctx context.Context, input *UpdateSettingsInput) (*SettingsResponse, error) {
		err := s.opts.Settings.Update(func(settings *config.Settings) {
			settings.Autostart = input.Body.Autostart
			settings.Stream = input.Body.Stream
			settings.Sink = input.Body.Sink
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to persist settings", err)
		}
		return &SettingsResponse{Body: s.opts.Settings.Get()}, nil
	})
}
