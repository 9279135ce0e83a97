//go:build linux

package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"syscall"
	"time"

	"github.com/streamnode/streamnode/pkg/linuxav/v4l2"
)

// v4l2Prober probes devices through the kernel V4L2 enumeration ioctls.
type v4l2Prober struct {
	logger *slog.Logger
}

func newProber(logger *slog.Logger) Prober {
	return &v4l2Prober{logger: logger}
}

func (p *v4l2Prober) ListDevices(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := v4l2.FindDevices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, Device{
			ID:        info.DeviceID,
			Path:      info.DevicePath,
			Name:      info.DeviceName,
			Transport: transportFromBusInfo(info.BusInfo),
		})
	}
	return devices, nil
}

func (p *v4l2Prober) Probe(ctx context.Context, deviceRef string) (*CapabilitySet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := ResolveDevicePath(deviceRef)
	if err != nil {
		return nil, err
	}

	info, err := v4l2.QueryDevice(path)
	if err != nil {
		if isMissingDevice(err) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
		}
		return nil, fmt.Errorf("%w: querycap %s: %v", ErrProbeUnavailable, path, err)
	}

	device := Device{
		ID:        deviceRef,
		Path:      path,
		Name:      info.DeviceName,
		Transport: transportFromBusInfo(info.BusInfo),
	}
	if strings.HasPrefix(deviceRef, "/dev/") {
		device.ID = stableIDForPath(path, deviceRef)
	}

	formats, err := v4l2.GetFormats(path)
	if err != nil {
		return nil, fmt.Errorf("%w: enum formats %s: %v", ErrProbeUnavailable, path, err)
	}

	set := &CapabilitySet{
		Device:   device,
		ProbedAt: time.Now(),
	}

	var raw []Capability
	for _, f := range formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fourcc := v4l2.FormatFourCC(f.PixelFormat)
		set.RawFormats = append(set.RawFormats, RawFormat{
			FourCC:   fourcc,
			Name:     f.FormatName,
			Emulated: f.Emulated,
		})

		format := pixelFormatFromFourCC(f.PixelFormat)
		if !format.Known() {
			continue
		}

		resolutions, err := v4l2.GetResolutions(path, f.PixelFormat)
		if err != nil {
			// One broken format should not sink the whole snapshot.
			p.logger.Warn("skipping format, frame size enumeration failed",
				"device", path, "format", fourcc, "error", err)
			continue
		}

		for _, res := range resolutions {
			framerates, err := v4l2.GetFramerates(path, f.PixelFormat, res.Width, res.Height)
			if err != nil {
				p.logger.Warn("skipping resolution, frame interval enumeration failed",
					"device", path, "format", fourcc,
					"width", res.Width, "height", res.Height, "error", err)
				continue
			}

			rates := make([]Rate, 0, len(framerates))
			for _, fr := range framerates {
				// V4L2 reports frame intervals; invert to frames per second.
				rates = append(rates, Rate{Num: fr.Denominator, Den: fr.Numerator})
			}

			raw = append(raw, Capability{
				Format: format,
				Width:  res.Width,
				Height: res.Height,
				Rates:  rates,
			})
		}
	}

	set.Capabilities = Normalize(raw)
	return set, nil
}

// transportFromBusInfo classifies the attachment from the V4L2 bus string,
// e.g. "usb-0000:01:00.0-1.2" or "platform:rkisp1".
func transportFromBusInfo(busInfo string) Transport {
	lower := strings.ToLower(busInfo)
	switch {
	case strings.HasPrefix(lower, "usb"):
		return TransportUSB
	case strings.Contains(lower, "csi") || strings.Contains(lower, "unicam") || strings.Contains(lower, "isp"):
		return TransportCSI
	case strings.HasPrefix(lower, "platform"):
		return TransportPlatform
	default:
		return TransportUnknown
	}
}

// stableIDForPath upgrades a raw /dev path to the stable ID when the device
// is enumerable, keeping the raw path as a last resort.
func stableIDForPath(path, fallback string) string {
	devices, err := v4l2.FindDevices()
	if err != nil {
		return fallback
	}
	for _, d := range devices {
		if d.DevicePath == path {
			return d.DeviceID
		}
	}
	return fallback
}

// isMissingDevice reports whether the error means the node is gone rather
// than the probe layer being broken.
func isMissingDevice(err error) bool {
	return errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ENODEV) ||
		errors.Is(err, syscall.ENXIO)
}

// pixelFormatFromFourCC maps V4L2 pixel format codes to pipeline formats.
func pixelFormatFromFourCC(code uint32) PixelFormat {
	switch code {
	case v4l2.PixFmtYUYV:
		return FormatYUYV
	case v4l2.PixFmtMJPEG:
		return FormatMJPEG
	case v4l2.PixFmtH264:
		return FormatH264
	case v4l2.PixFmtRGB24:
		return FormatRGB24
	case v4l2.PixFmtBGR24:
		return FormatBGR24
	case v4l2.PixFmtYUV420:
		return FormatYUV420
	case v4l2.PixFmtNV12:
		return FormatNV12
	default:
		return PixelFormat(v4l2.FormatFourCC(code))
	}
}
