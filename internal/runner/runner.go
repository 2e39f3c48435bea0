package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ErrNotInstalled marks a command whose binary could not be found on PATH.
var ErrNotInstalled = errors.New("command not installed")

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// Exec runs real processes.
type Exec struct {
	Logger *slog.Logger
}

// NewExec returns an Exec runner logging to logger (slog.Default when nil).
func NewExec(logger *slog.Logger) Exec {
	if logger == nil {
		logger = slog.Default()
	}
	return Exec{Logger: logger}
}

func (e Exec) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	cmdLine := strings.Join(append([]string{name}, args...), " ")
	logger.Debug("running command", "cmd_line", cmdLine)

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errors.Join(ErrNotInstalled, err)
		}
		logger.Error("exec failed",
			"cmd", name,
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10), // cap at 8KB
		)
	} else {
		logger.Debug("exec ok",
			"cmd", name,
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
			"stderr_bytes", errb.Len(),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

// Bounded caps every call of the wrapped runner at Timeout.
type Bounded struct {
	Runner  Runner
	Timeout time.Duration
}

// WithTimeout wraps r so each call is bounded by d; d <= 0 returns r unchanged.
func WithTimeout(r Runner, d time.Duration) Runner {
	if d <= 0 {
		return r
	}
	return Bounded{Runner: r, Timeout: d}
}

func (b Bounded) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()
	out, errb, err := b.Runner.Run(ctx, name, args...)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = errors.Join(context.DeadlineExceeded, err)
	}
	return out, errb, err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
