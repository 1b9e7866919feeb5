// Package executortest provides an in-memory Executor for stage tests.
package executortest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nguyentantai21042004/noteflix/pkg/executor"
)

// HandlerFunc decides the outcome of one command.
type HandlerFunc func(cmd executor.Command) (executor.Result, error)

// Fake records every command and answers through Handler. Binaries listed
// in Missing are reported unavailable.
type Fake struct {
	Handler HandlerFunc
	Missing map[string]bool

	mu    sync.Mutex
	calls []executor.Command
}

func (f *Fake) Run(_ context.Context, cmd executor.Command) (executor.Result, error) {
	f.record(cmd)
	if f.Handler == nil {
		return executor.Result{}, nil
	}
	return f.Handler(cmd)
}

func (f *Fake) RunAsync(ctx context.Context, cmd executor.Command, onLine executor.LineFunc) (*executor.Handle, error) {
	res, err := f.Run(ctx, cmd)
	if onLine != nil {
		for _, line := range splitLines(res.Stdout) {
			onLine(executor.Stdout, line)
		}
		for _, line := range splitLines(res.Stderr) {
			onLine(executor.Stderr, line)
		}
	}
	return executor.Completed(res, err), nil
}

func (f *Fake) Available(name string) bool {
	return !f.Missing[name]
}

// Calls returns a copy of the recorded commands.
func (f *Fake) Calls() []executor.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]executor.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// Called returns the recorded commands for one binary.
func (f *Fake) Called(name string) []executor.Command {
	var out []executor.Command
	for _, c := range f.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) record(cmd executor.Command) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
}

// Touch writes placeholder content to path, creating parent directories.
func Touch(path string) {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	_ = os.WriteFile(path, []byte("data"), 0o644)
}

// ArgAfter returns the argument following flag, or "".
func ArgAfter(cmd executor.Command, flag string) string {
	for i := 0; i < len(cmd.Args)-1; i++ {
		if cmd.Args[i] == flag {
			return cmd.Args[i+1]
		}
	}
	return ""
}

// LastArg returns the final argument, or "".
func LastArg(cmd executor.Command) string {
	if len(cmd.Args) == 0 {
		return ""
	}
	return cmd.Args[len(cmd.Args)-1]
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
