package session

import "errors"

// Sentinel errors surfaced by the supervisor.
var (
	// ErrAlreadyRunning is returned by Start while a session is active.
	ErrAlreadyRunning = errors.New("a streaming session is already active")

	// ErrSpawnFailed means the encoder process never launched.
	ErrSpawnFailed = errors.New("encoder process failed to launch")

	// ErrCrashLoopExceeded means the session burned through its restart
	// budget and gave up.
	ErrCrashLoopExceeded = errors.New("encoder crash loop exceeded restart budget")
)
