package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jthickma/webapp/internal/config"
	"github.com/jthickma/webapp/internal/controller/api"
	"github.com/jthickma/webapp/internal/controller/api/handlers"
)

// Stands in for yt-dlp: honours -P and acts on the URL after "--".
const fakeYtDlp = `#!/bin/sh
dir=""
url=""
while [ $# -gt 0 ]; do
  case "$1" in
    -P) dir="$2"; shift 2 ;;
    --) url="$2"; shift 2 ;;
    *) shift ;;
  esac
done
case "$url" in
  */ok) printf 'hello world' > "$dir/clip.txt" ;;
  */fail) echo "ERROR: Unsupported video" >&2; exit 1 ;;
esac
`

func newTestServer(t *testing.T, limits config.RateLimitConfig) *Server {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(bin, []byte(fakeYtDlp), 0o755))

	cfg := &config.Config{
		Download: config.DownloadConfig{
			Root:          filepath.Join(t.TempDir(), "downloads"),
			MaxFileSize:   1024,
			MaxConcurrent: 5,
			Timeout:       5 * time.Second,
			StderrLimit:   512,
		},
		Tools: config.ToolsConfig{
			YtDlp:     bin,
			GalleryDl: filepath.Join(t.TempDir(), "gallery-dl"),
		},
		RateLimit: limits,
		Metrics:   config.MetricsConfig{Enabled: true},
	}
	srv, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return srv
}

func postDownload(srv *Server, rawURL string) *httptest.ResponseRecorder {
	form := url.Values{"url": {rawURL}}
	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)
	return rec
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorBody {
	t.Helper()
	var body api.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.RequestID)
	return body
}

func TestDownloadAndRetrieve(t *testing.T) {
	srv := newTestServer(t, config.RateLimitConfig{})

	rec := postDownload(srv, "https://www.youtube.com/ok")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body handlers.DownloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Download successful", body.Message)
	assert.Equal(t, []string{"clip.txt"}, body.Files)
	require.NotEmpty(t, body.DirID)

	rec = get(srv, "/downloads/"+body.DirID+"/clip.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello world", rec.Body.String())
	assert.Equal(t, "attachment; filename=clip.txt", rec.Header().Get("Content-Disposition"))

	rec = get(srv, "/downloads/"+body.DirID+"/..%2F..%2Fetc%2Fpasswd")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied", decodeError(t, rec).Error)

	rec = get(srv, "/downloads/"+body.DirID+"/missing.txt")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File not found", decodeError(t, rec).Error)

	rec = get(srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `webapp_jobs_total{family="youtube",status="success"} 1`)
	assert.Contains(t, rec.Body.String(), `webapp_files_served_total{result="served"} 1`)
}

func TestRetrieveEscapedNames(t *testing.T) {
	srv := newTestServer(t, config.RateLimitConfig{})

	rec := postDownload(srv, "https://www.youtube.com/ok")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body handlers.DownloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	dir := filepath.Join(srv.Store.Root(), body.DirID)
	files := map[string]string{
		"50%41.jpg":     "percent",
		"50A.jpg":       "letterA",
		"100% real.jpg": "spaced",
		"50%off.jpg":    "sale",
		"my clip.txt":   "clip",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	tests := []struct {
		path string
		want string
	}{
		{"50%2541.jpg", "percent"},
		{"50A.jpg", "letterA"},
		{"100%25%20real.jpg", "spaced"},
		{"50%25off.jpg", "sale"},
		{"my%20clip.txt", "clip"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(srv, "/downloads/"+body.DirID+"/"+tt.path)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestDownloadErrors(t *testing.T) {
	srv := newTestServer(t, config.RateLimitConfig{})

	tests := []struct {
		url    string
		status int
		msg    string
	}{
		{"", http.StatusBadRequest, "Invalid URL"},
		{"javascript:alert(1)", http.StatusBadRequest, "Invalid URL"},
		{"https://example.com/video", http.StatusBadRequest, "No suitable downloader found for this URL"},
		{"https://youtube.com/fail", http.StatusInternalServerError, "Download failed: Unsupported video"},
		{"https://youtube.com/nothing", http.StatusInternalServerError, "Download successful, but no files were created"},
		{"https://instagram.com/p/x", http.StatusInternalServerError, "Download tool gallery-dl is not installed"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			rec := postDownload(srv, tt.url)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, decodeError(t, rec).Error)
		})
	}
}

func TestDownloadRateLimited(t *testing.T) {
	srv := newTestServer(t, config.RateLimitConfig{DownloadPerMinute: 1})

	assert.Equal(t, http.StatusOK, postDownload(srv, "https://youtube.com/ok").Code)

	rec := postDownload(srv, "https://youtube.com/ok")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", decodeError(t, rec).Error)
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, config.RateLimitConfig{})

	rec := get(srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/download"`)
	assert.Contains(t, rec.Body.String(), "youtube.com")

	rec = get(srv, "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var health handlers.HealthDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, 5, health.MaxConcurrent)
	assert.Equal(t, 0, health.ActiveJobs)
	assert.True(t, health.Tools["yt-dlp"].OK)
	assert.False(t, health.Tools["gallery-dl"].OK)
	assert.Equal(t, "degraded", health.Status)
}
