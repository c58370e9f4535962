package engine

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

const probeTimeout = 10 * time.Second

// ProbeVersion runs "binary args..." and reports the first line of output.
func ProbeVersion(ctx context.Context, binary string, args ...string) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	out, err := exec.CommandContext(ctx, binary, args...).Output()
	latency := time.Since(start)
	if err != nil {
		return HealthStatus{OK: false, Message: err.Error(), Latency: latency}
	}
	version, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return HealthStatus{
		OK:      true,
		Message: binary + " " + version,
		Latency: latency,
	}
}
