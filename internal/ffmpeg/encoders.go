package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"

	"github.com/streamnode/streamnode/internal/platform"
)

// DefaultBinary is the FFmpeg executable resolved through PATH.
const DefaultBinary = "ffmpeg"

var encoderLineRe = regexp.MustCompile(`^\s*V[A-Z.]{5}\s+(\S+)\s+`)

// ListEncoders parses `ffmpeg -encoders` and returns the video encoder
// names the build ships.
func ListEncoders(ctx context.Context, binary string) (map[string]bool, error) {
	if binary == "" {
		binary = DefaultBinary
	}

	output, err := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("listing encoders: %w", err)
	}

	encoders := make(map[string]bool)
	for _, line := range strings.Split(string(output), "\n") {
		if m := encoderLineRe.FindStringSubmatch(line); m != nil {
			encoders[m[1]] = true
		}
	}
	return encoders, nil
}

// VerifyProfile demotes a hardware profile to software when the FFmpeg
// build lacks the hardware encoder. Verification failures keep the
// profile as resolved; the stream attempt will surface the real error.
func VerifyProfile(ctx context.Context, binary string, profile platform.Profile, logger *slog.Logger) platform.Profile {
	if !profile.HardwareAccelerated() {
		return profile
	}

	encoders, err := ListEncoders(ctx, binary)
	if err != nil {
		logger.Warn("encoder verification skipped", "error", err)
		return profile
	}

	if !encoders[profile.HardwareEncoder] {
		logger.Warn("hardware encoder missing from ffmpeg build, using software encoder",
			"encoder", profile.HardwareEncoder)
		return profile.Software()
	}

	return profile
}
