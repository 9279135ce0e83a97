package pipeline

import (
	"fmt"
	"strconv"

	"github.com/streamnode/streamnode/internal/platform"
	"github.com/streamnode/streamnode/internal/probe"
)

// Spec is the rendered execution plan for one session: the ordered FFmpeg
// stages and the exact argv they produce. Rendering is pure; running it is
// the supervisor's job.
type Spec struct {
	Global  []string `json:"global"`
	Source  []string `json:"source"`
	Decode  bool     `json:"decode"`
	Filters []string `json:"filters,omitempty"`
	Encode  []string `json:"encode"`
	Payload []string `json:"payload"`
	SinkURL string   `json:"sink_url"`
}

// ffmpegInputNames maps capture formats to FFmpeg -input_format names.
var ffmpegInputNames = map[probe.PixelFormat]string{
	probe.FormatYUYV:   "yuyv422",
	probe.FormatMJPEG:  "mjpeg",
	probe.FormatH264:   "h264",
	probe.FormatRGB24:  "rgb24",
	probe.FormatBGR24:  "bgr24",
	probe.FormatYUV420: "yuv420p",
	probe.FormatNV12:   "nv12",
}

// ffmpegFilterNames maps formats to the libavfilter pixel format names the
// convert stage emits.
var ffmpegFilterNames = map[probe.PixelFormat]string{
	probe.FormatYUYV:   "yuyv422",
	probe.FormatRGB24:  "rgb24",
	probe.FormatBGR24:  "bgr24",
	probe.FormatYUV420: "yuv420p",
	probe.FormatNV12:   "nv12",
}

// Render turns a negotiated profile into the execution plan. Stages are
// emitted in fixed order, so equal profiles always yield equal argv:
// source, decode (compressed input only), scale (when the platform can and
// the sizes differ), convert (when the encoder needs another layout),
// encode, payload, sink.
func Render(p *StreamProfile, plat platform.Profile) *Spec {
	// A profile negotiated down to the software encoder converts and
	// tunes like the software profile, whatever board it runs on.
	if !p.Hardware && plat.HardwareAccelerated() {
		plat = plat.Software()
	}

	spec := &Spec{
		Global:  []string{"-hide_banner", "-loglevel", "level+info", "-nostdin", "-stats"},
		Payload: []string{"-f", "mpegts"},
		SinkURL: p.Sink.URL(),
	}

	// Source stage. MJPEG streams negotiate without pinning
	// -input_format; the demuxer recognizes the payload on its own.
	spec.Source = []string{"-f", "v4l2"}
	if p.Format != probe.FormatMJPEG {
		spec.Source = append(spec.Source, "-input_format", inputName(p.Format))
	}
	spec.Source = append(spec.Source,
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", rateArg(p.Rate),
		"-i", p.Device.Path,
	)

	spec.Decode = p.Format.Compressed()

	// Scale stage: only planned when the selector negotiated an output
	// size below the capture size.
	if p.OutputWidth > 0 && p.OutputHeight > 0 &&
		(p.OutputWidth != p.Width || p.OutputHeight != p.Height) {
		spec.Filters = append(spec.Filters, fmt.Sprintf("scale=%dx%d", p.OutputWidth, p.OutputHeight))
	}

	// Convert stage: raw input the encoder cannot ingest, or any decoded
	// compressed input, gets repacked to the encoder's preferred layout.
	if needsConvert(p.Format, plat) {
		spec.Filters = append(spec.Filters, "format="+filterName(plat.EncoderFormats[0]))
	}

	gop := strconv.Itoa(gopFrames(p.Rate))
	spec.Encode = []string{
		"-c:v", p.Encoder,
		"-b:v", fmt.Sprintf("%dk", p.BitrateKbps),
		"-maxrate", fmt.Sprintf("%dk", p.BitrateKbps*12/10),
		"-bufsize", fmt.Sprintf("%dk", p.BitrateKbps*2),
		"-g", gop,
		"-keyint_min", gop,
		"-sc_threshold", "0",
		"-force_key_frames", "expr:gte(t,n_forced*1)",
	}
	spec.Encode = append(spec.Encode, plat.ExtraEncoderArgs...)

	return spec
}

// CommandArgs flattens the plan into the FFmpeg argument vector.
func (s *Spec) CommandArgs() []string {
	args := make([]string, 0, len(s.Global)+len(s.Source)+len(s.Encode)+len(s.Payload)+4)
	args = append(args, s.Global...)
	args = append(args, s.Source...)
	if len(s.Filters) > 0 {
		args = append(args, "-vf", joinFilters(s.Filters))
	}
	args = append(args, s.Encode...)
	args = append(args, s.Payload...)
	args = append(args, s.SinkURL)
	return args
}

// Stages lists the logical stages present in the plan, in execution order.
func (s *Spec) Stages() []string {
	stages := []string{"source"}
	if s.Decode {
		stages = append(stages, "decode")
	}
	for _, f := range s.Filters {
		if len(f) >= 6 && f[:6] == "scale=" {
			stages = append(stages, "scale")
		} else {
			stages = append(stages, "convert")
		}
	}
	return append(stages, "encode", "payload", "sink")
}

// needsConvert reports whether the encoder requires a pixel format the
// source stage does not already deliver.
func needsConvert(f probe.PixelFormat, plat platform.Profile) bool {
	if f.Compressed() {
		// Decoder output layout is not negotiated; always repack.
		return true
	}
	for _, native := range plat.EncoderFormats {
		if f == native {
			return false
		}
	}
	return true
}

func inputName(f probe.PixelFormat) string {
	if name, ok := ffmpegInputNames[f]; ok {
		return name
	}
	return string(f)
}

func filterName(f probe.PixelFormat) string {
	if name, ok := ffmpegFilterNames[f]; ok {
		return name
	}
	return string(f)
}

func joinFilters(filters []string) string {
	out := filters[0]
	for _, f := range filters[1:] {
		out += "," + f
	}
	return out
}

// rateArg renders a framerate for -framerate: integral rates as plain
// numbers, everything else as an exact rational.
func rateArg(r probe.Rate) string {
	if r.Den == 1 {
		return strconv.FormatUint(uint64(r.Num), 10)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// gopFrames sizes the GOP to one second of video.
func gopFrames(r probe.Rate) int {
	fps := int(r.FPS())
	if fps < 1 {
		return 1
	}
	return fps
}
