// Package ffmpeg contains helpers for working with an external FFmpeg
// binary: parsing its log and progress output and inspecting which
// encoders the build ships.
package ffmpeg

import (
	"strconv"
	"strings"
)

// ParseLogLevel extracts the log level from ffmpeg output.
// FFmpeg with -loglevel level+info outputs lines like "[info] message"
// or "[component @ 0x...] [level] message" for component-specific logs.
// Returns the level and the message with level stripped but component preserved.
func ParseLogLevel(line string) (level, msg string) {
	if len(line) < 3 || line[0] != '[' {
		return "info", line
	}

	end := strings.Index(line, "] ")
	if end == -1 {
		return "info", line
	}

	bracket := line[1:end]

	if isLogLevel(bracket) {
		return bracket, line[end+2:]
	}

	// Check for component prefix: [component @ 0x...] [level] message
	// Keep the component, strip only the [level]
	component := line[:end+2]
	rest := line[end+2:]
	if len(rest) > 2 && rest[0] == '[' {
		if nextEnd := strings.Index(rest, "] "); nextEnd != -1 {
			nextBracket := rest[1:nextEnd]
			if isLogLevel(nextBracket) {
				return nextBracket, component + rest[nextEnd+2:]
			}
		}
	}

	return "info", line
}

func isLogLevel(s string) bool {
	switch s {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return true
	}
	return false
}

// Progress holds the fields of one FFmpeg stats line.
type Progress struct {
	Frame       int64
	FPS         float64
	BitrateKbps float64
	Speed       float64
	Dropped     int64
}

// ParseProgress parses an FFmpeg stats line such as
//
//	frame= 301 fps= 30 q=28.0 size= 512KiB time=00:00:10.03 bitrate= 418.2kbits/s speed=1.01x
//
// Returns false for lines that are not stats output.
func ParseProgress(line string) (Progress, bool) {
	if !strings.Contains(line, "bitrate=") || !strings.Contains(line, "speed=") {
		return Progress{}, false
	}

	fields := splitStatsFields(line)

	var p Progress
	if v, err := strconv.ParseInt(fields["frame"], 10, 64); err == nil {
		p.Frame = v
	}
	if v, err := strconv.ParseFloat(fields["fps"], 64); err == nil {
		p.FPS = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSuffix(fields["bitrate"], "kbits/s"), 64); err == nil {
		p.BitrateKbps = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSuffix(fields["speed"], "x"), 64); err == nil {
		p.Speed = v
	}
	if v, err := strconv.ParseInt(fields["drop"], 10, 64); err == nil {
		p.Dropped = v
	}

	return p, true
}

// splitStatsFields tokenizes "key= value key=value" pairs, tolerating the
// space FFmpeg pads between key and value.
func splitStatsFields(line string) map[string]string {
	fields := make(map[string]string)
	tokens := strings.Fields(line)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		eq := strings.Index(tok, "=")
		if eq == -1 {
			continue
		}
		key := tok[:eq]
		value := tok[eq+1:]
		if value == "" && i+1 < len(tokens) {
			i++
			value = tokens[i]
		}
		fields[key] = value
	}
	return fields
}
