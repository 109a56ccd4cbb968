// Package upload owns the temporary artifacts behind document uploads: it
// saves incoming streams under unique names and guarantees their removal
// after processing, with a janitor sweeping anything left behind.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxUploadBytes bounds how much of an upload stream is persisted.
const maxUploadBytes = 64 << 20

// Store saves upload streams into a scratch directory.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore returns a store rooted at dir, creating it if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the scratch directory.
func (s *Store) Dir() string { return s.dir }

// Save writes r to a uniquely named file preserving origName's extension and
// returns the file path. The caller must Remove the file when done.
func (s *Store) Save(r io.Reader, origName string) (string, error) {
	ext := sanitizeExt(filepath.Ext(origName))
	path := filepath.Join(s.dir, uuid.New().String()+ext)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	_, err = io.Copy(f, io.LimitReader(r, maxUploadBytes))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return path, nil
}

// Remove deletes the stored artifact. Missing files are not an error; the
// janitor may already have collected them.
func (s *Store) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) && s.logger != nil {
		s.logger.Warn("upload cleanup failed", zap.String("path", path), zap.Error(err))
	}
}

// sanitizeExt keeps only a plain alphanumeric extension so client-supplied
// names cannot influence the stored path.
func sanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext == "" || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
