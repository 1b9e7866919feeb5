package executor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

const maxLineBytes = 1024 * 1024

// Handle tracks a command started with RunAsync.
type Handle struct {
	done   chan struct{}
	result Result
	err    error
}

// Done is closed once the process has exited and all output was delivered.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the process exits and returns its result.
func (h *Handle) Wait() (Result, error) {
	<-h.done
	return h.result, h.err
}

// Completed returns a Handle that has already finished with res and err.
func Completed(res Result, err error) *Handle {
	h := &Handle{done: make(chan struct{}), result: res, err: err}
	close(h.done)
	return h
}

// RunAsync starts the command and forwards every output line to onLine
func (e *implExecutor) RunAsync(ctx context.Context, c Command, onLine LineFunc) (*Handle, error) {
	var cancel context.CancelFunc = func() {}
	if c.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("command '%s' failed to start: %w", c.Name, err)
	}

	h := &Handle{done: make(chan struct{})}

	var (
		mu             sync.Mutex
		wg             sync.WaitGroup
		outBuf, errBuf bytes.Buffer
	)
	scan := func(r io.Reader, stream Stream, buf *bytes.Buffer) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
		scanner.Split(scanLines)
		for scanner.Scan() {
			line := scanner.Text()
			mu.Lock()
			buf.WriteString(line)
			buf.WriteByte('\n')
			if onLine != nil {
				onLine(stream, line)
			}
			mu.Unlock()
		}
		if scanner.Err() != nil {
			// Keep the pipe empty so the child never blocks on a full buffer.
			_, _ = io.Copy(io.Discard, r)
		}
	}

	wg.Add(2)
	go scan(stdout, Stdout, &outBuf)
	go scan(stderr, Stderr, &errBuf)

	go func() {
		defer close(h.done)
		defer cancel()

		wg.Wait()
		waitErr := cmd.Wait()
		res := Result{
			Stdout:   outBuf.String(),
			Stderr:   errBuf.String(),
			Duration: time.Since(start),
		}
		h.result, h.err = finish(ctx, c, res, waitErr)
	}()

	return h, nil
}

// scanLines splits on \n, \r and \r\n so progress lines written with a bare
// carriage return are delivered as they arrive.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 == len(data) && !atEOF {
				return 0, nil, nil
			}
			if i+1 < len(data) && data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
