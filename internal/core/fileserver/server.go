package fileserver

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/jthickma/webapp/internal/core/errs"
	"github.com/jthickma/webapp/internal/core/storage"
)

const DefaultMaxFileSize = 500 * 1024 * 1024

// ServedFile is a file that passed every check and may be streamed.
type ServedFile struct {
	Token       string
	Name        string
	Path        string
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Gateway serves files produced by jobs.
// URL pattern: /downloads/{token}/{filename}
type Gateway struct {
	store   *storage.LocalProvider
	maxSize int64
}

func NewGateway(store *storage.LocalProvider, maxSize int64) *Gateway {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Gateway{store: store, maxSize: maxSize}
}

// Resolve checks that name is a readable regular file inside the directory of
// token. It does not modify anything except for a one-time permission repair
// on an unreadable file.
func (g *Gateway) Resolve(token, name string) (*ServedFile, error) {
	if token == "" || name == "" {
		return nil, errs.New(errs.KindInvalidRequest, "Invalid request")
	}
	if !validName(name) {
		return nil, errs.New(errs.KindForbidden, "Access denied")
	}
	dir, err := g.store.JobPath(token)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, name)
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Wrap(errs.KindNotFound, "File not found", err)
		}
		return nil, errs.Wrap(errs.KindAccess, "File access error", err)
	}

	if err := g.contained(path); err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, errs.New(errs.KindInvalidFileType, "Invalid file type")
	}
	if info.Size() > g.maxSize {
		return nil, errs.New(errs.KindTooLarge, "File too large")
	}
	if err := ensureReadable(path); err != nil {
		return nil, err
	}

	return &ServedFile{
		Token:       token,
		Name:        name,
		Path:        path,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: storage.ContentType(path),
	}, nil
}

// Serve streams f as an attachment. Range requests are handled by
// http.ServeContent.
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, f *ServedFile) error {
	file, meta, err := g.store.Open(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errs.Wrap(errs.KindNotFound, "File not found", err)
		}
		return errs.Wrap(errs.KindAccess, "File access error", err)
	}
	defer func() { _ = file.Close() }()

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	http.ServeContent(w, r, f.Name, meta.ModTime, file)
	return nil
}

// validName accepts a single path segment only.
func validName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return filepath.Base(name) == name
}

// contained resolves symlinks in the parent directory and requires the file to
// sit exactly two levels below the resolved root.
func (g *Gateway) contained(path string) error {
	root, err := filepath.EvalSymlinks(g.store.Root())
	if err != nil {
		return errs.Wrap(errs.KindAccess, "File access error", err)
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		return errs.Wrap(errs.KindForbidden, "Access denied", err)
	}
	real := filepath.Join(parent, filepath.Base(path))
	if filepath.Dir(filepath.Dir(real)) != root {
		log.Warn().Str("path", path).Str("resolved", real).Msg("path escapes download root")
		return errs.New(errs.KindForbidden, "Access denied")
	}
	return nil
}

func ensureReadable(path string) error {
	if unix.Access(path, unix.R_OK) == nil {
		return nil
	}
	log.Warn().Str("path", path).Msg("file not readable, repairing permissions")
	if err := os.Chmod(path, storage.FileMode); err != nil {
		return errs.Wrap(errs.KindAccess, "File access error", err)
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return errs.Wrap(errs.KindAccess, "File access error", err)
	}
	return nil
}
