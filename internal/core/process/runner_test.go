package process

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestRunCapturesOutput(t *testing.T) {
	script := writeScript(t, `echo "out $1"; echo "err $2" >&2; exit 0`)
	r := NewRunner(nil, 0)

	res, err := r.Run(context.Background(), script, []string{"a", "b"}, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut)
	assert.Equal(t, "out a\n", res.Stdout)
	assert.Equal(t, "err b\n", res.Stderr)
	assert.NotZero(t, res.PID)
}

func TestRunNonzeroExit(t *testing.T) {
	script := writeScript(t, `echo "ERROR: nope" >&2; exit 3`)
	res, err := NewRunner(nil, 0).Run(context.Background(), script, nil, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Stderr, "ERROR: nope")
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	script := writeScript(t, `sleep 30`)
	tracker := NewManager()
	r := NewRunner(tracker, 0)

	start := time.Now()
	res, err := r.Run(context.Background(), script, nil, 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Less(t, time.Since(start), 10*time.Second)

	// reaped: the pid no longer exists
	assert.ErrorIs(t, syscall.Kill(res.PID, 0), syscall.ESRCH)
	assert.Equal(t, 0, tracker.Running())
}

func TestRunNotInstalled(t *testing.T) {
	r := NewRunner(nil, 0)

	_, err := r.Run(context.Background(), "definitely-not-a-real-downloader-binary", nil, time.Second)
	assert.ErrorIs(t, err, ErrNotInstalled)

	_, err = r.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), nil, time.Second)
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestRunParentCancelled(t *testing.T) {
	script := writeScript(t, `sleep 30`)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	res, err := NewRunner(nil, 0).Run(ctx, script, nil, 30*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.TimedOut)
}

func TestTailBufferKeepsEnd(t *testing.T) {
	b := &tailBuffer{limit: 8}
	n, err := b.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	_, _ = b.Write([]byte("ab"))
	assert.Equal(t, "456789ab", b.String())
}

func TestStopAllTerminatesTracked(t *testing.T) {
	script := writeScript(t, `sleep 30`)
	tracker := NewManager()
	r := NewRunner(tracker, 0)

	done := make(chan Result, 1)
	go func() {
		res, _ := r.Run(context.Background(), script, nil, 30*time.Second)
		done <- res
	}()

	require.Eventually(t, func() bool { return tracker.Running() == 1 }, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, tracker.StopAll(context.Background()))

	select {
	case res := <-done:
		assert.False(t, res.TimedOut)
		assert.NotEqual(t, 0, res.ExitCode)
	case <-time.After(10 * time.Second):
		t.Fatal("process still running after StopAll")
	}
	assert.Equal(t, 0, tracker.Running())
}
