package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/streamnode/streamnode/internal/probe"
)

// DeviceListResponse wraps the device enumeration.
type DeviceListResponse struct {
	Body struct {
		Devices []probe.Device `json:"devices"`
		Count   int            `json:"count"`
	}
}

// DeviceRefInput identifies one device by stable ID or /dev path.
type DeviceRefInput struct {
	DeviceID string `path:"device_id" example:"usb-046d_Logitech_BRIO-video-index0" doc:"Stable device identifier or /dev node path"`
}

// CapabilitiesResponse wraps one device's capability snapshot.
type CapabilitiesResponse struct {
	Body probe.CapabilitySet
}

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Devices",
		Description: "List all attached capture devices",
		Tags:        []string{"devices"},
		Errors:      []int{500, 503},
	}, func(ctx context.Context, input *struct{}) (*DeviceListResponse, error) {
		devices, err := s.opts.Facade.ListDevices(ctx)
		if err != nil {
			return nil, mapStreamError(err)
		}

		resp := &DeviceListResponse{}
		resp.Body.Devices = devices
		resp.Body.Count = len(devices)
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "device-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/devices/{device_id}/capabilities",
		Summary:     "Capabilities",
		Description: "Probe the device and return its normalized capability snapshot",
		Tags:        []string{"devices"},
		Errors:      []int{400, 404, 500, 503},
	}, func(ctx context.Context, input *DeviceRefInput) (*CapabilitiesResponse, error) {
		caps, err := s.opts.Facade.Capabilities(ctx, input.DeviceID)
		if err != nil {
			return nil, mapStreamError(err)
		}
		return &CapabilitiesResponse{Body: *caps}, nil
	})
}
