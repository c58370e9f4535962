package gallerydl

import (
	"context"
	"strings"

	"github.com/jthickma/webapp/internal/core/engine"
)

const DefaultBinary = "gallery-dl"

// Tool drives gallery-dl for the social-media families.
type Tool struct {
	binary string
}

func New(binary string) *Tool {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Tool{binary: binary}
}

func (t *Tool) Name() string   { return "gallery-dl" }
func (t *Tool) Binary() string { return t.binary }

func (t *Tool) Template() []string {
	return []string{
		"-D", engine.PlaceholderDir,
		"-f", "{category}_{id}_{num}.{extension}",
		"--filesize-max", engine.PlaceholderMaxFilesize,
		"--",
		engine.PlaceholderURL,
	}
}

// Summarize picks the last "[error]" line gallery-dl logged.
func (t *Tool) Summarize(stderr string) string {
	var lastError, lastLine string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lastLine = line
		if _, msg, ok := strings.Cut(line, "[error] "); ok {
			lastError = strings.TrimSpace(msg)
		}
	}
	if lastError != "" {
		return lastError
	}
	return lastLine
}

func (t *Tool) Health(ctx context.Context) engine.HealthStatus {
	return engine.ProbeVersion(ctx, t.binary, "--version")
}
