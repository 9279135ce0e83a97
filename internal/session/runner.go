package session

import (
	"bufio"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/streamnode/streamnode/internal/logging"
)

// LogParser parses a process output line into a log level and message,
// used to re-emit encoder output at the right severity.
type LogParser func(line string) (level, msg string)

// OutputHandler receives every output line from the subprocess, for
// progress parsing and metrics.
type OutputHandler func(source, line string)

// runner owns exactly one subprocess execution: spawn, output streaming,
// and exit observation. It never restarts anything; policy lives in the
// Supervisor.
type runner struct {
	cmd           *exec.Cmd
	logger        logging.Logger
	processLogger logging.Logger
	logParser     LogParser
	outputHandler OutputHandler

	// firstOutput closes when the process produces its first line,
	// signaling the pipeline actually came up.
	firstOutput chan struct{}
	outputOnce  sync.Once

	// done closes after the process exits and exitErr is set.
	done    chan struct{}
	exitErr error

	// drained closes once both output pumps finish; safe for any number
	// of waiters.
	outputWG sync.WaitGroup
	drained  chan struct{}
}

func newRunner(binary string, args []string, logger logging.Logger) *runner {
	r := &runner{
		cmd:         exec.Command(binary, args...),
		logger:      logger,
		firstOutput: make(chan struct{}),
		done:        make(chan struct{}),
		drained:     make(chan struct{}),
	}
	// Own process group so stop signals reach shell children too.
	r.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return r
}

// start launches the process and its output/exit observers.
func (r *runner) start() error {
	stdout, err := r.cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := r.cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := r.cmd.Start(); err != nil {
		return err
	}

	r.logger.Info("Process started", "pid", r.cmd.Process.Pid)

	r.outputWG.Add(2)
	go func() {
		defer r.outputWG.Done()
		r.streamOutput(stdout, "stdout")
	}()
	go func() {
		defer r.outputWG.Done()
		r.streamOutput(stderr, "stderr")
	}()
	go func() {
		r.outputWG.Wait()
		close(r.drained)
	}()

	go func() {
		r.exitErr = r.cmd.Wait()
		close(r.done)
	}()

	return nil
}

func (r *runner) pid() int {
	if r.cmd.Process == nil {
		return 0
	}
	return r.cmd.Process.Pid
}

func (r *runner) exited() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// signalStop sends SIGINT to the process group, falling back to the
// process itself when the group signal fails.
func (r *runner) signalStop() {
	pid := r.pid()
	if pid == 0 || r.exited() {
		return
	}
	r.logger.Info("Sending SIGINT to process group", "pid", pid)
	if err := syscall.Kill(-pid, syscall.SIGINT); err != nil {
		if err := r.cmd.Process.Signal(syscall.SIGINT); err != nil && !errors.Is(err, os.ErrProcessDone) {
			r.logger.Warn("Failed to send SIGINT", "error", err)
		}
	}
}

// kill force-terminates the process group.
func (r *runner) kill() {
	pid := r.pid()
	if pid == 0 || r.exited() {
		return
	}
	r.logger.Warn("Force killing process group", "pid", pid)
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		if err := r.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			r.logger.Error("Failed to kill process", "error", err)
		}
	}
}

// waitOutput blocks until both output streams drained. Any number of
// callers may wait; the monitor and Stop both do.
func (r *runner) waitOutput() {
	<-r.drained
}

// exitCode reports the process exit code once done is closed.
func (r *runner) exitCode() int {
	return exitCodeFromError(r.exitErr)
}

// exitCodeFromError extracts the exit code from a Wait error: 0 for nil,
// the real code for ExitError, 1 otherwise.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// streamOutput re-emits subprocess output through the process logger at
// the parsed severity and feeds the output handler.
func (r *runner) streamOutput(reader io.Reader, source string) {
	scanner := bufio.NewScanner(reader)

	logger := r.processLogger
	if logger == nil {
		logger = r.logger
	}

	for scanner.Scan() {
		line := scanner.Text()

		r.outputOnce.Do(func() { close(r.firstOutput) })

		if r.outputHandler != nil {
			r.outputHandler(source, line)
		}

		level, msg := "info", line
		if r.logParser != nil {
			level, msg = r.logParser(line)
		}

		switch level {
		case "fatal", "error", "panic":
			logger.Error(msg)
		case "warning":
			logger.Warn(msg)
		case "debug", "trace", "verbose":
			logger.Debug(msg)
		default:
			logger.Info(msg)
		}
	}

	if err := scanner.Err(); err != nil {
		r.logger.Warn("Error reading process output", "source", source, "error", err)
	}
}
