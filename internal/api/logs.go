package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/streamnode/streamnode/internal/logging"
)

// LogsInput selects how much of the log buffer to return.
type LogsInput struct {
	Limit int `query:"limit" default:"200" minimum:"1" maximum:"1000" doc:"Number of most recent entries"`
}

// LogsResponse returns recent log entries, oldest first.
type LogsResponse struct {
	Body struct {
		Entries []logging.LogEntry `json:"entries"`
		Count   int                `json:"count"`
	}
}

func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Logs",
		Description: "Recent log entries from the in-memory ring buffer",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *LogsInput) (*LogsResponse, error) {
		entries := logging.GetBuffer().Tail(input.Limit)

		resp := &LogsResponse{}
		resp.Body.Entries = entries
		resp.Body.Count = len(entries)
		return resp, nil
	})
}
