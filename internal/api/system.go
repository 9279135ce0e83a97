package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/streamnode/streamnode/internal/platform"
	"github.com/streamnode/streamnode/internal/sysinfo"
	"github.com/streamnode/streamnode/internal/version"
)

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

// VersionResponse carries build metadata.
type VersionResponse struct {
	Body version.Info
}

// PlatformResponse describes the detected platform profile.
type PlatformResponse struct {
	Body struct {
		Name                string   `json:"name" example:"rockchip"`
		Encoder             string   `json:"encoder" example:"h264_rkmpp"`
		HardwareAccelerated bool     `json:"hardware_accelerated"`
		HardwareScaler      bool     `json:"hardware_scaler"`
		EncoderFormats      []string `json:"encoder_formats,omitempty"`
		MaxBitrateKbps      int      `json:"max_bitrate_kbps"`
	}
}

// SystemResponse carries the host health snapshot.
type SystemResponse struct {
	Body sysinfo.Snapshot
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*HealthResponse, error) {
		resp := &HealthResponse{}
		resp.Body.Status = "ok"
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*VersionResponse, error) {
		return &VersionResponse{Body: version.Get()}, nil
	})
}

func (s *Server) registerSystemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-platform",
		Method:      http.MethodGet,
		Path:        "/api/platform",
		Summary:     "Platform",
		Description: "The detected platform profile driving encoder selection",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*PlatformResponse, error) {
		plat := s.opts.Facade.Platform()

		resp := &PlatformResponse{}
		resp.Body.Name = plat.Name
		resp.Body.Encoder = plat.Encoder()
		resp.Body.HardwareAccelerated = plat.HardwareAccelerated()
		resp.Body.HardwareScaler = plat.HardwareScaler
		resp.Body.EncoderFormats = formatNames(plat)
		resp.Body.MaxBitrateKbps = plat.MaxBitrateKbps
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-system",
		Method:      http.MethodGet,
		Path:        "/api/system",
		Summary:     "System",
		Description: "Host health: CPU, memory, disk, load, and SoC temperatures",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*SystemResponse, error) {
		collectCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return &SystemResponse{Body: s.opts.System.Collect(collectCtx)}, nil
	})
}

func formatNames(plat platform.Profile) []string {
	names := make([]string, len(plat.EncoderFormats))
	for i, f := range plat.EncoderFormats {
		names[i] = string(f)
	}
	return names
}
