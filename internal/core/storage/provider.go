package storage

import "time"

type FileMetadata struct {
	Size        int64
	ContentType string
	ModTime     time.Time
}

type DiskStats struct {
	Total     int64 `json:"total"`
	Used      int64 `json:"used"`
	Available int64 `json:"available"`
}

// JobDir is a job directory found under the download root.
type JobDir struct {
	Token   string
	Path    string
	ModTime time.Time
}
