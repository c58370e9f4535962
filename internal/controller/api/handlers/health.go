package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jthickma/webapp/internal/core/admission"
	"github.com/jthickma/webapp/internal/core/engine"
	"github.com/jthickma/webapp/internal/core/storage"
)

type HealthHandler struct {
	dispatcher *engine.Dispatcher
	admission  *admission.Controller
	store      *storage.LocalProvider
}

func NewHealthHandler(dispatcher *engine.Dispatcher, admission *admission.Controller, store *storage.LocalProvider) *HealthHandler {
	return &HealthHandler{dispatcher: dispatcher, admission: admission, store: store}
}

type HealthDTO struct {
	Status        string                         `json:"status" enum:"ok,degraded"`
	Tools         map[string]engine.HealthStatus `json:"tools"`
	ActiveJobs    int                            `json:"active_jobs"`
	MaxConcurrent int                            `json:"max_concurrent"`
	Disk          *storage.DiskStats             `json:"disk,omitempty"`
}

// Get reports tool availability, the number of job directories against the
// ceiling, and disk usage of the download root.
func (h *HealthHandler) Get(ctx context.Context, _ *EmptyInput) (*DataOutput[HealthDTO], error) {
	dto := HealthDTO{
		Status:        "ok",
		Tools:         make(map[string]engine.HealthStatus),
		ActiveJobs:    h.admission.Active(),
		MaxConcurrent: h.admission.Ceiling(),
	}

	for _, tool := range h.dispatcher.Tools() {
		status := tool.Health(ctx)
		if !status.OK {
			dto.Status = "degraded"
		}
		dto.Tools[tool.Name()] = status
	}
	if dto.ActiveJobs < 0 {
		dto.Status = "degraded"
	}

	if disk, err := h.store.DiskUsage(); err != nil {
		log.Warn().Err(err).Msg("health: disk usage")
		dto.Status = "degraded"
	} else {
		dto.Disk = &disk
	}
	return OK(dto), nil
}
