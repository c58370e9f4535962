package process

import (
	"context"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Manager keeps track of child processes that are currently running so they
// can be stopped together on shutdown.
type Manager struct {
	mu    sync.Mutex
	procs map[int]managedProcess
}

type managedProcess struct {
	name    string
	cmd     *exec.Cmd
	started time.Time
}

func NewManager() *Manager {
	return &Manager{procs: make(map[int]managedProcess)}
}

func (m *Manager) track(name string, cmd *exec.Cmd) (untrack func()) {
	pid := cmd.Process.Pid
	m.mu.Lock()
	m.procs[pid] = managedProcess{name: name, cmd: cmd, started: time.Now()}
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.procs, pid)
		m.mu.Unlock()
	}
}

// Running returns the number of tracked child processes.
func (m *Manager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.procs)
}

const (
	stopGracePeriod = 5 * time.Second
	stopPoll        = 50 * time.Millisecond
)

// StopAll sends SIGTERM to every tracked process group, waits for them to
// exit, and kills whatever is left once the grace period or ctx runs out.
func (m *Manager) StopAll(ctx context.Context) error {
	m.signalAll(syscall.SIGTERM)

	deadline := time.NewTimer(stopGracePeriod)
	defer deadline.Stop()
	ticker := time.NewTicker(stopPoll)
	defer ticker.Stop()

	for m.Running() > 0 {
		select {
		case <-ctx.Done():
			m.signalAll(syscall.SIGKILL)
			return ctx.Err()
		case <-deadline.C:
			m.signalAll(syscall.SIGKILL)
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func (m *Manager) signalAll(sig syscall.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pid, p := range m.procs {
		log.Info().Str("process", p.name).Int("pid", pid).Str("signal", sig.String()).
			Dur("running", time.Since(p.started)).Msg("stopping child process")
		_ = syscall.Kill(-pid, sig)
	}
}
