// Package storage provides filesystem storage for audio assets.
// Files are grouped under per-category subdirectories of a single root
// (recordings, speakers, segments).
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
)

// Well-known storage categories.
const (
	CategoryRecordings = "recordings"
	CategorySpeakers   = "speakers"
	CategorySegments   = "segments"
)

// FileStore saves and deletes audio files under a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at the given directory. The directory
// is created on first save, not here, so construction never touches disk.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Root returns the storage root directory.
func (s *FileStore) Root() string {
	return s.root
}

// Save writes data under the category subdirectory and returns the absolute
// file path.
func (s *FileStore) Save(data []byte, filename, category string) (string, error) {
	if category == "" {
		category = CategoryRecordings
	}
	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %v: %w", dir, err, mserrors.ErrStorage)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %v: %w", path, err, mserrors.ErrStorage)
	}
	return path, nil
}

// Delete removes the file at path. A missing file is not an error: cleanup
// is best-effort and may race with earlier deletions.
func (s *FileStore) Delete(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete %s: %v: %w", path, err, mserrors.ErrStorage)
	}
	return nil
}

// Exists reports whether a file is present at path.
func (s *FileStore) Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
