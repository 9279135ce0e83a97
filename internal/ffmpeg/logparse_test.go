package ffmpeg

import "testing"

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantLevel string
		wantMsg   string
	}{
		{
			name:      "simple level",
			line:      "[error] Cannot open device /dev/video0",
			wantLevel: "error",
			wantMsg:   "Cannot open device /dev/video0",
		},
		{
			name:      "component with level",
			line:      "[mpegts @ 0x55d] [warning] frame rate very high",
			wantLevel: "warning",
			wantMsg:   "[mpegts @ 0x55d] frame rate very high",
		},
		{
			name:      "component without level",
			line:      "[srt @ 0x55d] connection established",
			wantLevel: "info",
			wantMsg:   "[srt @ 0x55d] connection established",
		},
		{
			name:      "no brackets",
			line:      "Press [q] to stop",
			wantLevel: "info",
			wantMsg:   "Press [q] to stop",
		},
		{
			name:      "empty",
			line:      "",
			wantLevel: "info",
			wantMsg:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, msg := ParseLogLevel(tt.line)
			if level != tt.wantLevel {
				t.Errorf("level = %q, want %q", level, tt.wantLevel)
			}
			if msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestParseProgress(t *testing.T) {
	line := "frame=  301 fps= 30 q=28.0 size=     512KiB time=00:00:10.03 bitrate= 418.2kbits/s drop=2 speed=1.01x"

	p, ok := ParseProgress(line)
	if !ok {
		t.Fatal("expected stats line to parse")
	}
	if p.Frame != 301 {
		t.Errorf("Frame = %d, want 301", p.Frame)
	}
	if p.FPS != 30 {
		t.Errorf("FPS = %v, want 30", p.FPS)
	}
	if p.BitrateKbps != 418.2 {
		t.Errorf("BitrateKbps = %v, want 418.2", p.BitrateKbps)
	}
	if p.Speed != 1.01 {
		t.Errorf("Speed = %v, want 1.01", p.Speed)
	}
	if p.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", p.Dropped)
	}
}

func TestParseProgressRejectsNonStatsLines(t *testing.T) {
	for _, line := range []string{
		"[info] Stream mapping:",
		"Output #0, mpegts, to 'srt://127.0.0.1:8890'",
		"",
	} {
		if _, ok := ParseProgress(line); ok {
			t.Errorf("line %q should not parse as progress", line)
		}
	}
}
