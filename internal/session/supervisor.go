// Package session supervises the encoder process for one streaming
// session: a single state machine from Idle through Starting and Running
// back to Idle, with bounded crash-restart and a graceful-then-forced stop
// path. Exactly one session exists at a time.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/streamnode/streamnode/internal/events"
	"github.com/streamnode/streamnode/internal/ffmpeg"
	"github.com/streamnode/streamnode/internal/logging"
	"github.com/streamnode/streamnode/internal/pipeline"
)

// Config tunes the supervisor. Zero values pick the defaults.
type Config struct {
	// Binary is the encoder executable, "ffmpeg" by default.
	Binary string

	// GracePeriod bounds how long Starting may last without process
	// output before the session is considered Running anyway.
	GracePeriod time.Duration

	// StopTimeout bounds the graceful SIGINT wait before SIGKILL.
	StopTimeout time.Duration

	// KillTimeout bounds the post-SIGKILL wait.
	KillTimeout time.Duration

	// MaxRestarts is the crash budget before the session parks in Error.
	MaxRestarts int

	// RestartBackoff holds the delays before each restart attempt; the
	// last entry repeats when the budget outruns the list.
	RestartBackoff []time.Duration

	// StableRunThreshold is how long a process must live for the crash
	// counter to reset.
	StableRunThreshold time.Duration

	// OnProgress, when set, receives each parsed FFmpeg stats sample.
	OnProgress func(ffmpeg.Progress)
}

func (c Config) withDefaults() Config {
	if c.Binary == "" {
		c.Binary = ffmpeg.DefaultBinary
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = 2 * time.Second
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = 5 * time.Second
	}
	if c.KillTimeout <= 0 {
		c.KillTimeout = 5 * time.Second
	}
	if c.MaxRestarts <= 0 {
		c.MaxRestarts = 3
	}
	if len(c.RestartBackoff) == 0 {
		c.RestartBackoff = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	}
	if c.StableRunThreshold <= 0 {
		c.StableRunThreshold = 30 * time.Second
	}
	return c
}

// Supervisor runs one streaming session at a time.
type Supervisor struct {
	cfg        Config
	logger     logging.Logger
	encoderLog logging.Logger
	bus        *events.Bus

	mu            sync.Mutex
	state         State
	profile       *pipeline.StreamProfile
	args          []string
	run           *runner
	startedAt     time.Time
	restarts      int
	lastExitCode  int
	lastErr       error
	stopRequested bool

	// generation invalidates monitor goroutines and pending backoff
	// respawns from earlier sessions.
	generation uint64
}

// New creates an idle supervisor. encoderLog receives the re-leveled
// process output; bus may be nil.
func New(cfg Config, logger, encoderLog logging.Logger, bus *events.Bus) *Supervisor {
	return &Supervisor{
		cfg:        cfg.withDefaults(),
		logger:     logger,
		encoderLog: encoderLog,
		bus:        bus,
		state:      StateIdle,
	}
}

// Start launches a session for the negotiated profile. Only one session
// may be active: concurrent callers race for the state transition and the
// losers get ErrAlreadyRunning. Error and Stopped states reset on start.
func (s *Supervisor) Start(profile *pipeline.StreamProfile, args []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Active() {
		return fmt.Errorf("%w: state %s", ErrAlreadyRunning, s.state)
	}

	s.generation++
	s.profile = profile
	s.args = args
	s.restarts = 0
	s.lastErr = nil
	s.stopRequested = false

	if err := s.spawnLocked(s.generation); err != nil {
		s.transitionLocked(StateIdle)
		s.lastErr = err
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}
	return nil
}

// Stop terminates the session: SIGINT, bounded wait, SIGKILL, bounded
// wait. It always leaves the session Idle. Stopping an idle session is a
// successful no-op; a stop-timeout is logged, never returned.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if !s.state.Active() {
		// Idle already; clear a parked Error so the next status is clean.
		if s.state == StateError || s.state == StateStopped {
			s.lastErr = nil
			s.transitionLocked(StateIdle)
		}
		s.mu.Unlock()
		return nil
	}

	s.stopRequested = true
	s.generation++ // monitors and pending respawns stand down
	s.transitionLocked(StateStopping)
	r := s.run
	s.mu.Unlock()

	if r != nil && !r.exited() {
		r.signalStop()
		select {
		case <-r.done:
		case <-time.After(s.cfg.StopTimeout):
			// Internal-only condition: escalate and keep going.
			s.logger.Warn("Graceful stop timed out, escalating to SIGKILL",
				"timeout", s.cfg.StopTimeout)
			r.kill()
			select {
			case <-r.done:
			case <-time.After(s.cfg.KillTimeout):
				s.logger.Error("Process survived SIGKILL wait; abandoning it")
			}
		}
	}
	if r != nil && r.exited() {
		r.waitOutput()
	}

	s.mu.Lock()
	if r != nil && r.exited() {
		s.lastExitCode = r.exitCode()
	}
	s.transitionLocked(StateStopped)
	s.transitionLocked(StateIdle)
	s.run = nil
	s.profile = nil
	s.stopRequested = false
	s.mu.Unlock()
	return nil
}

// Status returns a snapshot without touching the process.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:        s.state,
		Restarts:     s.restarts,
		LastExitCode: s.lastExitCode,
	}
	if s.profile != nil {
		st.Profile = s.profile.Summary()
		st.DeviceID = s.profile.Device.ID
	}
	if s.run != nil && !s.run.exited() {
		st.PID = s.run.pid()
	}
	if s.state.Active() && !s.startedAt.IsZero() {
		t := s.startedAt
		st.StartedAt = &t
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// spawnLocked launches the encoder and its monitor. Callers hold mu.
func (s *Supervisor) spawnLocked(gen uint64) error {
	r := newRunner(s.cfg.Binary, s.args, s.logger)
	r.processLogger = s.encoderLog
	r.logParser = ffmpeg.ParseLogLevel
	r.outputHandler = s.handleOutput

	if err := r.start(); err != nil {
		return err
	}

	s.run = r
	s.startedAt = time.Now()
	s.transitionLocked(StateStarting)

	go s.monitor(r, gen)
	return nil
}

// monitor promotes Starting to Running and dispatches the exit.
func (s *Supervisor) monitor(r *runner, gen uint64) {
	select {
	case <-r.done:
		s.onExit(r, gen)
		return
	case <-r.firstOutput:
	case <-time.After(s.cfg.GracePeriod):
	}

	s.mu.Lock()
	if s.generation == gen && s.state == StateStarting {
		s.transitionLocked(StateRunning)
	}
	s.mu.Unlock()

	<-r.done
	s.onExit(r, gen)
}

// onExit handles an observed process exit: expected stops hand control to
// Stop(), crashes consume the restart budget.
func (s *Supervisor) onExit(r *runner, gen uint64) {
	r.waitOutput()
	exitCode := r.exitCode()

	s.mu.Lock()
	if s.generation != gen || s.stopRequested || s.state == StateStopping {
		// Stop() owns the teardown, or a newer session took over.
		s.mu.Unlock()
		return
	}

	s.lastExitCode = exitCode

	// A clean exit is the pipeline finishing, not a crash: settle to Idle
	// without touching the restart budget.
	if exitCode == 0 {
		s.logger.Info("Process exited cleanly")
		s.transitionLocked(StateStopped)
		s.transitionLocked(StateIdle)
		s.run = nil
		s.profile = nil
		s.mu.Unlock()
		return
	}

	if time.Since(s.startedAt) >= s.cfg.StableRunThreshold {
		// A long healthy run earns the budget back.
		s.restarts = 0
	}

	if s.restarts >= s.cfg.MaxRestarts {
		s.lastErr = fmt.Errorf("%w: %d attempts, last exit code %d",
			ErrCrashLoopExceeded, s.restarts, exitCode)
		s.logger.Error("Crash loop exceeded, giving up",
			"restarts", s.restarts, "exit_code", exitCode)
		s.transitionLocked(StateError)
		s.publishCrash(exitCode, false)
		s.run = nil
		s.mu.Unlock()
		return
	}

	s.restarts++
	attempt := s.restarts
	backoff := s.backoffFor(attempt)
	s.logger.Warn("Process crashed, scheduling restart",
		"exit_code", exitCode, "attempt", attempt, "backoff", backoff)
	s.transitionLocked(StateStarting)
	s.publishCrash(exitCode, true)
	s.mu.Unlock()

	time.Sleep(backoff)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.stopRequested {
		return
	}
	if err := s.spawnLocked(gen); err != nil {
		s.lastErr = fmt.Errorf("%w: restart attempt %d: %v", ErrSpawnFailed, attempt, err)
		s.logger.Error("Restart spawn failed", "attempt", attempt, "error", err)
		s.transitionLocked(StateError)
		s.run = nil
	}
}

// backoffFor returns the delay before the given restart attempt (1-based),
// repeating the last step when attempts outrun the table.
func (s *Supervisor) backoffFor(attempt int) time.Duration {
	steps := s.cfg.RestartBackoff
	if attempt <= len(steps) {
		return steps[attempt-1]
	}
	return steps[len(steps)-1]
}

// transitionLocked switches state and notifies observers. Callers hold mu.
func (s *Supervisor) transitionLocked(next State) {
	if s.state == next {
		return
	}
	prev := s.state
	s.state = next
	s.logger.Info("Session state changed", "from", prev, "to", next)

	if s.bus == nil {
		return
	}
	ev := events.SessionStateChangedEvent{
		State:     string(next),
		Previous:  string(prev),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.profile != nil {
		ev.Profile = s.profile.Summary()
	}
	if s.run != nil && !s.run.exited() {
		ev.PID = s.run.pid()
	}
	if s.lastErr != nil {
		ev.Error = s.lastErr.Error()
	}
	s.bus.Publish(ev)
}

func (s *Supervisor) publishCrash(exitCode int, willRetry bool) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.SessionCrashedEvent{
		ExitCode:  exitCode,
		Restarts:  s.restarts,
		WillRetry: willRetry,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleOutput feeds stats lines to the progress hook and the bus.
func (s *Supervisor) handleOutput(_, line string) {
	if s.cfg.OnProgress == nil && s.bus == nil {
		return
	}
	p, ok := ffmpeg.ParseProgress(line)
	if !ok {
		return
	}
	if s.cfg.OnProgress != nil {
		s.cfg.OnProgress(p)
	}
	if s.bus != nil {
		s.bus.Publish(events.SessionProgressEvent{
			FPS:         p.FPS,
			BitrateKbps: p.BitrateKbps,
			Speed:       p.Speed,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
