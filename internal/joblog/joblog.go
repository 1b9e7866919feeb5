// Package joblog is the append-only text log kept for every job. Stage code
// writes tool output and degradation notices here; it is what the logs
// endpoint serves.
package joblog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nguyentantai21042004/noteflix/pkg/executor"
)

// Log appends lines to a job log. A nil *Log discards everything.
type Log struct {
	mu   sync.Mutex
	w    io.Writer
	file *os.File
}

// Open opens (or creates) path for appending.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open job log %s: %w", path, err)
	}
	return &Log{w: file, file: file}, nil
}

// New wraps an arbitrary writer.
func New(w io.Writer) *Log {
	return &Log{w: w}
}

// Write implements io.Writer.
func (l *Log) Write(p []byte) (int, error) {
	if l == nil {
		return len(p), nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Line appends s followed by a newline. Empty input is dropped.
func (l *Log) Line(s string) {
	if l == nil || s == "" {
		return
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, _ = l.Write([]byte(s))
}

// Printf appends a formatted line.
func (l *Log) Printf(format string, args ...interface{}) {
	l.Line(fmt.Sprintf(format, args...))
}

// Command records an invocation and its captured output verbatim.
func (l *Log) Command(cmd executor.Command, res executor.Result) {
	if l == nil {
		return
	}
	l.Printf("$ %s", cmd)
	l.Line(res.Stdout)
	l.Line(res.Stderr)
	if !res.Success() {
		l.Printf("exit status %d", res.ExitCode)
	}
}

// Stream returns a LineFunc that appends every line it receives.
func (l *Log) Stream() executor.LineFunc {
	return func(_ executor.Stream, line string) {
		l.Line(line)
	}
}

// Close closes the underlying file, if any.
func (l *Log) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
