package pipeline

import (
	"reflect"
	"strings"
	"testing"

	"github.com/streamnode/streamnode/internal/platform"
	"github.com/streamnode/streamnode/internal/probe"
)

func testProfile(format probe.PixelFormat) *StreamProfile {
	return &StreamProfile{
		Device:      probe.Device{ID: "usb-cam-video-index0", Path: "/dev/video0"},
		Format:      format,
		Width:       1920,
		Height:      1080,
		Rate:        probe.Rate{Num: 30, Den: 1},
		Encoder:     "h264_rkmpp",
		Hardware:    true,
		BitrateKbps: 6000,
		Sink:        Sink{Host: "127.0.0.1", Port: 8890, StreamName: "cam"},
	}
}

func TestRenderArgvYUYV(t *testing.T) {
	spec := Render(testProfile(probe.FormatYUYV), platform.Resolve("rockchip"))

	want := []string{
		"-hide_banner", "-loglevel", "level+info", "-nostdin", "-stats",
		"-f", "v4l2",
		"-input_format", "yuyv422",
		"-video_size", "1920x1080",
		"-framerate", "30",
		"-i", "/dev/video0",
		"-vf", "format=nv12",
		"-c:v", "h264_rkmpp",
		"-b:v", "6000k",
		"-maxrate", "7200k",
		"-bufsize", "12000k",
		"-g", "30",
		"-keyint_min", "30",
		"-sc_threshold", "0",
		"-force_key_frames", "expr:gte(t,n_forced*1)",
		"-f", "mpegts",
		"srt://127.0.0.1:8890?streamid=publish:cam",
	}

	if got := spec.CommandArgs(); !reflect.DeepEqual(got, want) {
		t.Errorf("argv mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestRenderIsPure(t *testing.T) {
	p := testProfile(probe.FormatYUYV)
	plat := platform.Resolve("rockchip")

	first := Render(p, plat).CommandArgs()
	for i := 0; i < 10; i++ {
		if again := Render(p, plat).CommandArgs(); !reflect.DeepEqual(first, again) {
			t.Fatalf("render unstable:\n%v\n%v", first, again)
		}
	}
}

func TestRenderMJPEGOmitsInputFormat(t *testing.T) {
	spec := Render(testProfile(probe.FormatMJPEG), platform.Resolve("rockchip"))

	argv := strings.Join(spec.CommandArgs(), " ")
	if strings.Contains(argv, "-input_format") {
		t.Errorf("MJPEG source should not pin -input_format: %s", argv)
	}
	if !spec.Decode {
		t.Error("compressed input should plan a decode stage")
	}
}

func TestRenderStagePresence(t *testing.T) {
	plat := platform.Resolve("rockchip") // encoder-native: NV12, YUYV

	tests := []struct {
		name   string
		format probe.PixelFormat
		want   []string
	}{
		{
			name:   "native raw input",
			format: probe.FormatNV12,
			want:   []string{"source", "encode", "payload", "sink"},
		},
		{
			name:   "compressed input decodes and converts",
			format: probe.FormatMJPEG,
			want:   []string{"source", "decode", "convert", "encode", "payload", "sink"},
		},
		{
			name:   "foreign raw input converts",
			format: probe.FormatRGB24,
			want:   []string{"source", "convert", "encode", "payload", "sink"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Render(testProfile(tt.format), plat)
			if got := spec.Stages(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Stages() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderScaleStage(t *testing.T) {
	p := testProfile(probe.FormatYUYV)
	p.OutputWidth, p.OutputHeight = 1280, 720

	spec := Render(p, platform.Resolve("rockchip"))

	argv := strings.Join(spec.CommandArgs(), " ")
	if !strings.Contains(argv, "-vf scale=1280x720,format=nv12") {
		t.Errorf("expected combined scale+convert filter, got: %s", argv)
	}

	stages := spec.Stages()
	wantStages := []string{"source", "scale", "convert", "encode", "payload", "sink"}
	if !reflect.DeepEqual(stages, wantStages) {
		t.Errorf("Stages() = %v, want %v", stages, wantStages)
	}
}

func TestRenderSoftwareEncoderArgs(t *testing.T) {
	p := testProfile(probe.FormatYUYV)
	p.Encoder = platform.SoftwareEncoder
	p.Hardware = false

	spec := Render(p, platform.Resolve("generic"))

	argv := strings.Join(spec.CommandArgs(), " ")
	if !strings.Contains(argv, "-preset ultrafast") || !strings.Contains(argv, "-tune zerolatency") {
		t.Errorf("software encode should carry latency tuning: %s", argv)
	}
	if !strings.Contains(argv, "-vf format=yuv420p") {
		t.Errorf("software encode should convert to yuv420p: %s", argv)
	}
}

func TestRenderDemotedProfileUsesSoftwarePipeline(t *testing.T) {
	// A profile negotiated down to libx264 on a hardware board converts
	// and tunes like the generic profile.
	p := testProfile(probe.FormatYUYV)
	p.Encoder = platform.SoftwareEncoder
	p.Hardware = false

	spec := Render(p, platform.Resolve("raspberrypi"))

	argv := strings.Join(spec.CommandArgs(), " ")
	if !strings.Contains(argv, "-c:v libx264") {
		t.Errorf("demoted profile should encode with libx264: %s", argv)
	}
	if !strings.Contains(argv, "-vf format=yuv420p") {
		t.Errorf("demoted profile should convert for the software encoder: %s", argv)
	}
	if !strings.Contains(argv, "-preset ultrafast") {
		t.Errorf("demoted profile should carry the software latency tuning: %s", argv)
	}
}

func TestRenderFractionalFramerate(t *testing.T) {
	p := testProfile(probe.FormatYUYV)
	p.Rate = probe.Rate{Num: 30000, Den: 1001}

	spec := Render(p, platform.Resolve("rockchip"))

	argv := strings.Join(spec.CommandArgs(), " ")
	if !strings.Contains(argv, "-framerate 30000/1001") {
		t.Errorf("fractional rate should render exactly: %s", argv)
	}
	// GOP still sizes to whole frames.
	if !strings.Contains(argv, "-g 29") {
		t.Errorf("GOP should floor to 29 for NTSC rate: %s", argv)
	}
}
