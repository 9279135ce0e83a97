package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/streamnode/streamnode/internal/events"
	"github.com/streamnode/streamnode/internal/ffmpeg"
)

func TestStateGaugeIsExclusive(t *testing.T) {
	r := NewRecorder()

	r.SetState("running")

	if got := testutil.ToFloat64(r.sessionState.WithLabelValues("running")); got != 1 {
		t.Errorf("running gauge = %v, want 1", got)
	}
	for _, s := range []string{"idle", "starting", "stopping", "stopped", "error"} {
		if got := testutil.ToFloat64(r.sessionState.WithLabelValues(s)); got != 0 {
			t.Errorf("%s gauge = %v, want 0", s, got)
		}
	}
}

func TestObserveProgress(t *testing.T) {
	r := NewRecorder()

	r.ObserveProgress(ffmpeg.Progress{
		Frame:       1200,
		FPS:         29.97,
		BitrateKbps: 2517.3,
		Speed:       1.01,
		Dropped:     3,
	})

	if got := testutil.ToFloat64(r.encoderFPS); got != 29.97 {
		t.Errorf("fps gauge = %v, want 29.97", got)
	}
	if got := testutil.ToFloat64(r.encoderBitrate); got != 2517.3 {
		t.Errorf("bitrate gauge = %v, want 2517.3", got)
	}
	if got := testutil.ToFloat64(r.encoderDropped); got != 3 {
		t.Errorf("dropped gauge = %v, want 3", got)
	}
}

func TestStartingResetsProgress(t *testing.T) {
	r := NewRecorder()

	r.ObserveProgress(ffmpeg.Progress{FPS: 30, BitrateKbps: 2500, Speed: 1})
	r.SetState("starting")

	if got := testutil.ToFloat64(r.encoderFPS); got != 0 {
		t.Errorf("fps gauge after reset = %v, want 0", got)
	}
}

func TestAttachCountsCrashesAndRestarts(t *testing.T) {
	r := NewRecorder()
	bus := events.New()
	r.Attach(bus)

	bus.Publish(events.SessionCrashedEvent{ExitCode: 1, Restarts: 1, WillRetry: true})
	bus.Publish(events.SessionCrashedEvent{ExitCode: 1, Restarts: 3, WillRetry: false})

	deadline := time.After(2 * time.Second)
	for testutil.ToFloat64(r.crashesTotal) < 2 {
		select {
		case <-deadline:
			t.Fatalf("crashes_total = %v, want 2", testutil.ToFloat64(r.crashesTotal))
		case <-time.After(10 * time.Millisecond):
		}
	}

	if got := testutil.ToFloat64(r.restartsTotal); got != 1 {
		t.Errorf("restarts_total = %v, want 1", got)
	}
}
