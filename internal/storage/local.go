package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound means no stored file exists under the requested name.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidName means the requested name is not a plain filename.
	ErrInvalidName = errors.New("invalid file name")
)

// mimeTypes maps clip extensions to content types for serving.
var mimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".flv":  "video/x-flv",
}

// Store manages the downloads directory. The worker is the only writer;
// the HTTP file surface only ever reads.
type Store struct {
	dir string
}

// NewStore creates the downloads directory if needed and returns a store
// rooted at it.
func NewStore(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create downloads directory: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute downloads directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path a stored filename would live at. It does
// not check existence.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// Resolve maps a requested filename to an absolute path inside the
// downloads directory. Names containing path separators or traversal
// segments are rejected before touching the filesystem.
func (s *Store) Resolve(filename string) (string, error) {
	if filename == "" ||
		strings.ContainsAny(filename, `/\`) ||
		filename != filepath.Base(filename) ||
		strings.HasPrefix(filename, ".") {
		return "", ErrInvalidName
	}

	path := filepath.Join(s.dir, filename)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	if info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// MIMEType returns the content type to serve a stored filename with.
func (s *Store) MIMEType(filename string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// RemoveArtifacts deletes every file produced for the given id, including
// yt-dlp partials like <id>.mp4.part, so a failed job leaves nothing
// retrievable.
func (s *Store) RemoveArtifacts(id string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, id+".*"))
	if err != nil {
		return err
	}

	var firstErr error
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// FileCount returns the number of stored files, for the health payload.
func (s *Store) FileCount() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			count++
		}
	}
	return count
}
