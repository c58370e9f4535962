package storage

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/jthickma/webapp/internal/core/errs"
	"github.com/jthickma/webapp/internal/core/util"
)

const (
	DirMode  os.FileMode = 0o755
	FileMode os.FileMode = 0o644
)

// LocalProvider owns the download root. Every job directory it hands out is a
// direct child of the root named after a job token.
type LocalProvider struct {
	basePath string
}

// NewLocalProvider returns a provider for basePath, made absolute and clean.
func NewLocalProvider(basePath string) (*LocalProvider, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve download root: %w", err)
	}
	return &LocalProvider{basePath: filepath.Clean(abs)}, nil
}

func (p *LocalProvider) Root() string { return p.basePath }

// EnsureRoot creates the root if needed and resets its permissions.
func (p *LocalProvider) EnsureRoot() error {
	if err := os.MkdirAll(p.basePath, DirMode); err != nil {
		return fmt.Errorf("create download root: %w", err)
	}
	if err := os.Chmod(p.basePath, DirMode); err != nil {
		return fmt.Errorf("chmod download root: %w", err)
	}
	return nil
}

// JobPath returns root/token after checking that token is a job token and the
// result is a direct child of the root.
func (p *LocalProvider) JobPath(token string) (string, error) {
	if !util.IsToken(token) {
		return "", errs.New(errs.KindForbidden, "Access denied")
	}
	path := filepath.Join(p.basePath, token)
	if filepath.Dir(path) != p.basePath {
		return "", errs.New(errs.KindForbidden, "Access denied")
	}
	return path, nil
}

// CreateJobDir creates a fresh directory for token. It fails if the directory
// already exists.
func (p *LocalProvider) CreateJobDir(token string) (string, error) {
	path, err := p.JobPath(token)
	if err != nil {
		return "", errs.Wrap(errs.KindDirectoryCreate, "Failed to create download directory", err)
	}
	if err := os.Mkdir(path, DirMode); err != nil {
		return "", errs.Wrap(errs.KindDirectoryCreate, "Failed to create download directory", err)
	}
	// Mkdir is subject to umask
	if err := os.Chmod(path, DirMode); err != nil {
		_ = os.Remove(path)
		return "", errs.Wrap(errs.KindDirectoryCreate, "Failed to create download directory", err)
	}
	return path, nil
}

// ListJobDirs returns the token-named directories under the root. Entries that
// are not job directories are ignored.
func (p *LocalProvider) ListJobDirs() ([]JobDir, error) {
	entries, err := os.ReadDir(p.basePath)
	if err != nil {
		return nil, fmt.Errorf("list download root: %w", err)
	}
	dirs := make([]JobDir, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !util.IsToken(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, JobDir{
			Token:   entry.Name(),
			Path:    filepath.Join(p.basePath, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return dirs, nil
}

// CountJobDirs returns how many job directories exist under the root.
func (p *LocalProvider) CountJobDirs() (int, error) {
	dirs, err := p.ListJobDirs()
	if err != nil {
		return 0, err
	}
	return len(dirs), nil
}

// RemoveJobDir deletes the directory of token and everything in it.
func (p *LocalProvider) RemoveJobDir(token string) error {
	path, err := p.JobPath(token)
	if err != nil {
		return err
	}
	log.Debug().Str("path", path).Msg("removing job directory")
	return os.RemoveAll(path)
}

// Open opens a file for reading and reports its metadata.
func (p *LocalProvider) Open(path string) (*os.File, FileMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, FileMetadata{}, fmt.Errorf("open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, FileMetadata{}, fmt.Errorf("stat file: %w", err)
	}

	return f, FileMetadata{
		Size:        stat.Size(),
		ContentType: ContentType(path),
		ModTime:     stat.ModTime(),
	}, nil
}

func (p *LocalProvider) DiskUsage() (DiskStats, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(p.basePath, &stat); err != nil {
		return DiskStats{}, err
	}

	total := int64(stat.Blocks) * int64(stat.Bsize)
	available := int64(stat.Bavail) * int64(stat.Bsize)

	return DiskStats{
		Total:     total,
		Used:      total - available,
		Available: available,
	}, nil
}

// ContentType guesses the MIME type from the file extension.
func ContentType(path string) string {
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return contentType
}
