package service

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jthickma/webapp/internal/core/errs"
	"github.com/jthickma/webapp/internal/core/event"
	"github.com/jthickma/webapp/internal/core/fileserver"
)

type FileService struct {
	gateway *fileserver.Gateway
	bus     event.Bus
}

func NewFileService(gateway *fileserver.Gateway, bus event.Bus) *FileService {
	return &FileService{gateway: gateway, bus: bus}
}

// Serve resolves token/name and streams the file to w. Nothing is written to w
// when an error is returned.
func (s *FileService) Serve(w http.ResponseWriter, r *http.Request, token, name, requestID string) error {
	ctx := r.Context()
	logger := log.With().Str("request_id", requestID).Str("job_id", token).Str("file", name).Logger()

	f, err := s.gateway.Resolve(token, name)
	if err != nil {
		logger.Warn().Err(err).Str("kind", string(errs.KindOf(err))).Msg("file request rejected")
		s.publish(ctx, event.EventFileRejected, event.FileEvent{
			JobID: token, RequestID: requestID, Name: name, Reason: string(errs.KindOf(err)),
		})
		return err
	}

	logger.Info().Int64("size", f.Size).Msg("serving file")
	if err := s.gateway.Serve(w, r, f); err != nil {
		s.publish(ctx, event.EventFileRejected, event.FileEvent{
			JobID: token, RequestID: requestID, Name: name, Reason: string(errs.KindOf(err)),
		})
		return err
	}
	s.publish(ctx, event.EventFileServed, event.FileEvent{
		JobID: token, RequestID: requestID, Name: name, Size: f.Size,
	})
	return nil
}

func (s *FileService) publish(ctx context.Context, typ event.EventType, p event.FileEvent) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, event.Event{Type: typ, Payload: p})
}
