package job

import (
	"time"

	"github.com/jthickma/webapp/internal/core/engine"
	"github.com/jthickma/webapp/internal/core/util"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
	StatusEmpty    Status = "empty"
)

// Job is one accepted download request. It belongs to the request that created
// it and is only mutated by the Executor running it.
type Job struct {
	Token      string
	RequestID  string
	Invocation engine.Invocation
	Dir        string
	Args       []string
	StartedAt  time.Time
	Deadline   time.Time
	Status     Status
	Files      []string
}

// New creates a pending job with a fresh token.
func New(inv engine.Invocation, requestID string) *Job {
	return &Job{
		Token:      util.NewToken(),
		RequestID:  requestID,
		Invocation: inv,
		Status:     StatusPending,
	}
}

// Result is the normalized outcome of running a job's tool.
type Result struct {
	Status   Status
	Token    string
	Files    []string
	Detail   string // sanitized failure summary, safe to return to clients
	Stderr   string // raw tool stderr, untrusted
	PID      int
	ExitCode int
	Duration time.Duration
}
