package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/jthickma/webapp/internal/core/engine"
	"github.com/jthickma/webapp/internal/core/errs"
	"github.com/jthickma/webapp/internal/core/process"
	"github.com/jthickma/webapp/internal/core/storage"
)

const (
	DefaultTimeout     = 300 * time.Second
	DefaultMaxFileSize = 500 * 1024 * 1024
	DefaultStderrLimit = 512
)

type Config struct {
	MaxFileSize int64
	Timeout     time.Duration
	// StderrLimit caps the failure detail returned to clients; 0 hides it.
	StderrLimit int
	// KeepFailed leaves the directories of unsuccessful jobs in place.
	KeepFailed bool
}

// Executor runs a job's tool inside a fresh directory under the download root.
type Executor struct {
	store  *storage.LocalProvider
	runner *process.Runner
	cfg    Config
}

func NewExecutor(store *storage.LocalProvider, runner *process.Runner, cfg Config) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.StderrLimit < 0 {
		cfg.StderrLimit = 0
	}
	return &Executor{store: store, runner: runner, cfg: cfg}
}

// Execute creates the job directory, runs the tool and classifies the outcome.
// Timed-out, failed and empty runs come back as a Result; the returned error is
// reserved for directory creation, a missing tool, and unexpected failures.
func (e *Executor) Execute(ctx context.Context, j *Job) (*Result, error) {
	dir, err := e.store.CreateJobDir(j.Token)
	if err != nil {
		return nil, err
	}
	j.Dir = dir
	j.Args = j.Invocation.Argv(dir, e.cfg.MaxFileSize)
	j.StartedAt = time.Now()
	j.Deadline = j.StartedAt.Add(e.cfg.Timeout)

	tool := j.Invocation.Tool
	logger := log.With().
		Str("request_id", j.RequestID).
		Str("job_id", j.Token).
		Str("family", j.Invocation.Family).
		Str("tool", tool.Name()).
		Logger()
	logger.Info().Str("dir", dir).Strs("args", j.Args).Msg("starting download")

	run, err := e.runner.Run(ctx, tool.Binary(), j.Args, e.cfg.Timeout)
	if err != nil {
		e.discard(j)
		if errors.Is(err, process.ErrNotInstalled) {
			return nil, errs.Wrap(errs.KindToolNotInstalled,
				"Download tool "+tool.Name()+" is not installed", err)
		}
		return nil, errs.Wrap(errs.KindUnexpected, "run download tool", err)
	}

	res := &Result{
		Token:    j.Token,
		Stderr:   run.Stderr,
		ExitCode: run.ExitCode,
		PID:      run.PID,
		Duration: run.Duration,
	}

	switch {
	case run.TimedOut:
		res.Status = StatusTimedOut
		logger.Error().Dur("timeout", e.cfg.Timeout).Msg("download timed out")
	case run.ExitCode != 0:
		res.Status = StatusFailed
		res.Detail = sanitizeDetail(tool.Summarize(run.Stderr), e.cfg.StderrLimit)
		logger.Error().Int("exit_code", run.ExitCode).Str("stderr", run.Stderr).Msg("download failed")
	default:
		res.Files = e.collect(dir)
		if len(res.Files) == 0 {
			res.Status = StatusEmpty
			logger.Warn().Msg("download finished but no files were created")
		} else {
			res.Status = StatusSuccess
			logger.Info().Strs("files", res.Files).Dur("duration", run.Duration).Msg("download successful")
		}
	}

	j.Status = res.Status
	j.Files = res.Files
	if res.Status != StatusSuccess {
		e.discard(j)
	}
	return res, nil
}

// collect lists the produced files and normalizes their permissions.
func (e *Executor) collect(dir string) []string {
	files := engine.ScanFiles(dir)
	names := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.Chmod(path, storage.FileMode); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to set file permissions")
		}
		names = append(names, f.Name)
	}
	return names
}

func (e *Executor) discard(j *Job) {
	if e.cfg.KeepFailed || j.Dir == "" {
		return
	}
	if err := e.store.RemoveJobDir(j.Token); err != nil {
		log.Warn().Err(err).Str("job_id", j.Token).Msg("failed to remove job directory")
	}
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

// sanitizeDetail turns untrusted tool output into a single printable line of
// at most limit bytes.
func sanitizeDetail(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	s = ansiEscape.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
