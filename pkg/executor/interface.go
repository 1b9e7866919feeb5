package executor

import "context"

// Executor defines the interface for executing external commands
type Executor interface {
	// Run blocks until the command exits. A non-zero exit is reported in
	// Result.ExitCode; the error is reserved for start failures and timeouts.
	Run(ctx context.Context, cmd Command) (Result, error)
	// RunAsync starts the command and streams its output line by line.
	RunAsync(ctx context.Context, cmd Command, onLine LineFunc) (*Handle, error)
	// Available reports whether name resolves to an executable on PATH.
	Available(name string) bool
}

// LineFunc receives one line of process output. Calls are serialized.
type LineFunc func(stream Stream, line string)
