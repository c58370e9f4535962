package process

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// ErrNotInstalled is returned when the executable cannot be found.
var ErrNotInstalled = errors.New("executable not found")

const (
	DefaultOutputLimit = 1 << 20
	waitDelay          = 2 * time.Second
)

// Result describes how a child process ended.
type Result struct {
	PID      int
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// Runner starts external tools as child processes in their own process group
// and enforces a wall-clock timeout on them.
type Runner struct {
	tracker     *Manager
	outputLimit int
}

// NewRunner returns a Runner. tracker may be nil; outputLimit caps how many
// bytes of each stream are kept (the tail is retained).
func NewRunner(tracker *Manager, outputLimit int) *Runner {
	if outputLimit <= 0 {
		outputLimit = DefaultOutputLimit
	}
	return &Runner{tracker: tracker, outputLimit: outputLimit}
}

// Run executes bin with args and waits for it for at most timeout. A timeout is
// reported through Result.TimedOut, not as an error; the whole process group is
// killed before Run returns. A nonzero exit is reported through ExitCode.
func (r *Runner) Run(ctx context.Context, bin string, args []string, timeout time.Duration) (Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := &tailBuffer{limit: r.outputLimit}
	stderr := &tailBuffer{limit: r.outputLimit}

	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	var res Result
	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return res, fmt.Errorf("%w: %s", ErrNotInstalled, bin)
		}
		return res, fmt.Errorf("start process: %w", err)
	}
	res.PID = cmd.Process.Pid

	if r.tracker != nil {
		untrack := r.tracker.track(filepath.Base(bin), cmd)
		defer untrack()
	}

	err := cmd.Wait()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	res.ExitCode = cmd.ProcessState.ExitCode()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		res.TimedOut = true
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		return res, fmt.Errorf("wait process: %w", err)
	}
	return res, nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
