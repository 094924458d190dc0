package daemon

import "errors"

var (
	// ErrStateNotFound indicates no state file exists (server not running)
	ErrStateNotFound = errors.New("no running logtap server found")

	// ErrPIDFileLocked indicates another process holds the PID file lock
	ErrPIDFileLocked = errors.New("another logtap server is already running")
)
