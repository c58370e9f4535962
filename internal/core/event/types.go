package event

import "time"

type EventType string

const (
	// Job lifecycle
	EventJobCreated   EventType = "job.created"
	EventJobCompleted EventType = "job.completed"
	EventJobFailed    EventType = "job.failed"

	// Retrieval
	EventFileServed   EventType = "file.served"
	EventFileRejected EventType = "file.rejected"

	// Retention
	EventSweepRemoved EventType = "sweep.removed"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   any
}

// JobEvent describes a job at the point it was published. Status is one of
// the job statuses, or the error kind when the job never produced a result.
type JobEvent struct {
	JobID     string
	RequestID string
	Family    string
	Tool      string
	Status    string
	Files     int
	Duration  time.Duration
	Error     string
}

type FileEvent struct {
	JobID     string
	RequestID string
	Name      string
	Size      int64
	Reason    string
}

type SweepEvent struct {
	JobID string
	Age   time.Duration
}
