package engine

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Tool is an external command-line downloader the broker can hand a URL to.
type Tool interface {
	Name() string
	Binary() string

	// Template is the ordered argument template. Placeholders are expanded
	// element by element; the result is never passed through a shell.
	Template() []string

	// Summarize reduces the tool's stderr to a short failure description.
	Summarize(stderr string) string

	Health(ctx context.Context) HealthStatus
}

// Argument template placeholders.
const (
	PlaceholderDir         = "${dir}"
	PlaceholderMaxFilesize = "${max_filesize}"
	PlaceholderURL         = "${url}"
)

// Family is a group of hosts served by the same tool and template.
type Family struct {
	Name    string
	Domains []string
	Tool    Tool
}

// Matches reports whether host contains one of the family's domains.
func (f Family) Matches(host string) bool {
	host = strings.ToLower(host)
	for _, d := range f.Domains {
		if strings.Contains(host, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

// Invocation is the outcome of dispatching a URL: which family matched and the
// tool that will run. Argv is produced once the job directory is known.
type Invocation struct {
	Family string
	Tool   Tool
	URL    string
	Host   string
}

// Argv expands the tool template for the given output directory and size cap.
func (inv Invocation) Argv(dir string, maxFilesize int64) []string {
	r := strings.NewReplacer(
		PlaceholderDir, dir,
		PlaceholderMaxFilesize, strconv.FormatInt(maxFilesize, 10),
		PlaceholderURL, inv.URL,
	)
	tmpl := inv.Tool.Template()
	args := make([]string, len(tmpl))
	for i, a := range tmpl {
		args[i] = r.Replace(a)
	}
	return args
}

type HealthStatus struct {
	OK      bool          `json:"ok"`
	Message string        `json:"message"`
	Latency time.Duration `json:"latency"`
}

type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// ScanFiles lists the regular files directly inside dir. Subdirectories and
// symlinks are skipped; a missing dir yields no files.
func ScanFiles(dir string) []FileInfo {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []FileInfo
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    filepath.Base(e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files
}
