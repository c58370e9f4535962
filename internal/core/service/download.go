package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jthickma/webapp/internal/core/admission"
	"github.com/jthickma/webapp/internal/core/engine"
	"github.com/jthickma/webapp/internal/core/errs"
	"github.com/jthickma/webapp/internal/core/event"
	"github.com/jthickma/webapp/internal/core/job"
)

type DownloadService struct {
	dispatcher *engine.Dispatcher
	admission  *admission.Controller
	executor   *job.Executor
	bus        event.Bus
}

func NewDownloadService(
	dispatcher *engine.Dispatcher,
	admission *admission.Controller,
	executor *job.Executor,
	bus event.Bus,
) *DownloadService {
	return &DownloadService{
		dispatcher: dispatcher,
		admission:  admission,
		executor:   executor,
		bus:        bus,
	}
}

type DownloadRequest struct {
	URL       string
	RequestID string
}

type DownloadResponse struct {
	Token string
	Files []string
}

// Download validates and dispatches the URL, admits the job and runs it to
// completion. Every outcome other than success is returned as an *errs.Error.
func (s *DownloadService) Download(ctx context.Context, req DownloadRequest) (*DownloadResponse, error) {
	logger := log.With().Str("request_id", req.RequestID).Logger()

	inv, err := s.dispatcher.Resolve(req.URL)
	if err != nil {
		logger.Warn().Str("url", req.URL).Str("kind", string(errs.KindOf(err))).Msg("download request rejected")
		return nil, err
	}

	if !s.admission.TryAdmit() {
		logger.Warn().Int("ceiling", s.admission.Ceiling()).Msg("too many concurrent downloads")
		return nil, errs.New(errs.KindCapacityExceeded, "System is busy. Please try again later.")
	}

	j := job.New(inv, req.RequestID)
	s.publish(ctx, event.EventJobCreated, j, nil, nil)

	res, err := s.executor.Execute(ctx, j)
	if err != nil {
		s.publish(ctx, event.EventJobFailed, j, nil, err)
		return nil, err
	}

	if err := outcomeError(res); err != nil {
		s.publish(ctx, event.EventJobFailed, j, res, err)
		return nil, err
	}

	s.publish(ctx, event.EventJobCompleted, j, res, nil)
	return &DownloadResponse{Token: res.Token, Files: res.Files}, nil
}

func outcomeError(res *job.Result) error {
	switch res.Status {
	case job.StatusSuccess:
		return nil
	case job.StatusTimedOut:
		return errs.New(errs.KindTimedOut, "Download timed out. Please try again.")
	case job.StatusEmpty:
		return errs.New(errs.KindEmptyResult, "Download successful, but no files were created")
	case job.StatusFailed:
		msg := "Download failed"
		if res.Detail != "" {
			msg += ": " + res.Detail
		}
		return errs.New(errs.KindToolFailed, msg)
	default:
		return errs.Newf(errs.KindUnexpected, "unknown job status %q", res.Status)
	}
}

func (s *DownloadService) publish(ctx context.Context, typ event.EventType, j *job.Job, res *job.Result, err error) {
	if s.bus == nil {
		return
	}
	p := event.JobEvent{
		JobID:     j.Token,
		RequestID: j.RequestID,
		Family:    j.Invocation.Family,
		Tool:      j.Invocation.Tool.Name(),
		Status:    string(j.Status),
	}
	if res != nil {
		p.Status = string(res.Status)
		p.Files = len(res.Files)
		p.Duration = res.Duration
	}
	if err != nil {
		p.Error = errs.Message(err)
		if res == nil {
			p.Status = string(errs.KindOf(err))
		}
	}
	_ = s.bus.Publish(ctx, event.Event{Type: typ, Payload: p})
}
