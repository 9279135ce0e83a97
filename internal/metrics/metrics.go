// Package metrics exposes session and encoder health as Prometheus
// collectors. The recorder observes the event bus and the encoder's
// progress samples; scraping is served through the standard promhttp
// handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streamnode/streamnode/internal/events"
	"github.com/streamnode/streamnode/internal/ffmpeg"
)

var sessionStates = []string{"idle", "starting", "running", "stopping", "stopped", "error"}

// Recorder holds the fixed collector set for one node.
type Recorder struct {
	registry *prometheus.Registry

	sessionState  *prometheus.GaugeVec
	restartsTotal prometheus.Counter
	crashesTotal  prometheus.Counter

	encoderFPS     prometheus.Gauge
	encoderBitrate prometheus.Gauge
	encoderSpeed   prometheus.Gauge
	encoderDropped prometheus.Gauge
	encoderFrames  prometheus.Gauge
}

// NewRecorder builds a recorder with its own registry, including the
// standard Go runtime and process collectors.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: registry,
		sessionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "streamnode_session_state",
			Help: "Current session state, 1 for the active state and 0 otherwise.",
		}, []string{"state"}),
		restartsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamnode_session_restarts_total",
			Help: "Encoder restarts performed by the session supervisor.",
		}),
		crashesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamnode_session_crashes_total",
			Help: "Unexpected encoder exits observed.",
		}),
		encoderFPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamnode_encoder_fps",
			Help: "Frames per second reported by the encoder.",
		}),
		encoderBitrate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamnode_encoder_bitrate_kbps",
			Help: "Output bitrate in kilobits per second reported by the encoder.",
		}),
		encoderSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamnode_encoder_speed",
			Help: "Encoding speed relative to realtime; below 1.0 the encoder falls behind.",
		}),
		encoderDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamnode_encoder_dropped_frames",
			Help: "Dropped frames reported by the encoder.",
		}),
		encoderFrames: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamnode_encoder_frames",
			Help: "Total frames processed in the current session.",
		}),
	}

	registry.MustRegister(
		r.sessionState,
		r.restartsTotal,
		r.crashesTotal,
		r.encoderFPS,
		r.encoderBitrate,
		r.encoderSpeed,
		r.encoderDropped,
		r.encoderFrames,
	)
	r.SetState("idle")
	return r
}

// Attach subscribes the recorder to session events on the bus.
func (r *Recorder) Attach(bus *events.Bus) {
	bus.Subscribe(func(e events.SessionStateChangedEvent) {
		r.SetState(e.State)
	})
	bus.Subscribe(func(e events.SessionCrashedEvent) {
		r.crashesTotal.Inc()
		if e.WillRetry {
			r.restartsTotal.Inc()
		}
	})
}

// SetState marks the given state active and clears the others.
func (r *Recorder) SetState(state string) {
	for _, s := range sessionStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		r.sessionState.WithLabelValues(s).Set(v)
	}
	if state == "starting" {
		// Fresh session, stale encoder samples would mislead.
		r.ResetProgress()
	}
}

// ObserveProgress records one encoder stats sample. Wire it to the session
// supervisor's progress hook.
func (r *Recorder) ObserveProgress(p ffmpeg.Progress) {
	r.encoderFPS.Set(p.FPS)
	r.encoderBitrate.Set(p.BitrateKbps)
	r.encoderSpeed.Set(p.Speed)
	r.encoderDropped.Set(float64(p.Dropped))
	r.encoderFrames.Set(float64(p.Frame))
}

// ResetProgress zeroes the encoder gauges.
func (r *Recorder) ResetProgress() {
	r.encoderFPS.Set(0)
	r.encoderBitrate.Set(0)
	r.encoderSpeed.Set(0)
	r.encoderDropped.Set(0)
	r.encoderFrames.Set(0)
}

// Registry exposes the underlying registry for additional collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the scrape endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
