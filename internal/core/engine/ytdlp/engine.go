package ytdlp

import (
	"context"
	"strings"

	"github.com/jthickma/webapp/internal/core/engine"
)

const DefaultBinary = "yt-dlp"

// Tool drives yt-dlp. Files land in the job directory through -P, names are
// restricted to a safe character set so they can be served back verbatim.
type Tool struct {
	binary string
}

func New(binary string) *Tool {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Tool{binary: binary}
}

func (t *Tool) Name() string   { return "yt-dlp" }
func (t *Tool) Binary() string { return t.binary }

func (t *Tool) Template() []string {
	return []string{
		"--no-warnings",
		"--no-playlist",
		"--restrict-filenames",
		"-P", engine.PlaceholderDir,
		"-o", "%(title)s.%(ext)s",
		"--max-filesize", engine.PlaceholderMaxFilesize,
		"--",
		engine.PlaceholderURL,
	}
}

// Summarize returns the last "ERROR:" line yt-dlp printed, falling back to the
// last non-empty line.
func (t *Tool) Summarize(stderr string) string {
	var lastError, lastLine string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lastLine = line
		if strings.HasPrefix(line, "ERROR:") {
			lastError = strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
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
