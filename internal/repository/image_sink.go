package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/basel-ax/avatargen/internal/domain"
)

const (
	filePrefix = "avatar_"
	// timestampLayout mirrors ISO-8601 with microseconds; colons are replaced afterwards
	timestampLayout = "2006-01-02T15:04:05.000000"
	maxNameAttempts = 100
)

// FileImageSink writes generated images into a local output directory
type FileImageSink struct {
	dir string
	now func() time.Time
}

// NewFileImageSink creates a sink writing into dir
func NewFileImageSink(dir string) *FileImageSink {
	return &FileImageSink{dir: dir, now: time.Now}
}

// Dir returns the output directory
func (s *FileImageSink) Dir() string {
	return s.dir
}

// EnsureDir creates the output directory if it does not exist yet
func (s *FileImageSink) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// FileName builds the file name for an image saved at t
func FileName(t time.Time, format string) string {
	stamp := strings.ReplaceAll(t.Format(timestampLayout), ":", "_")
	return filePrefix + stamp + "." + domain.ExtensionFor(format)
}

// Save writes data to a new timestamped file and returns its path.
// The file only appears under its final name once fully written.
func (s *FileImageSink) Save(data []byte, format string) (string, error) {
	if err := s.EnsureDir(); err != nil {
		return "", err
	}

	name := FileName(s.now(), format)

	tmp, err := os.CreateTemp(s.dir, ".avatar-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to sync image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close image: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to set image permissions: %w", err)
	}
	defer os.Remove(tmpName)

	return s.place(tmpName, name)
}

// place hard-links the temp file under name. Link never replaces an existing
// file, so saves sharing a timestamp get a _N suffix instead of overwriting.
func (s *FileImageSink) place(tmpName, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 0; n < maxNameAttempts; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		path := filepath.Join(s.dir, candidate)
		err := os.Link(tmpName, path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("failed to move image into place: %w", err)
		}
	}
	return "", fmt.Errorf("failed to move image into place: %d names taken for %s", maxNameAttempts, name)
}

// PruneOlderThan removes saved avatars last modified before cutoff and
// returns how many were removed. Other files in the directory are left alone.
func (s *FileImageSink) PruneOlderThan(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read output directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), filePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}
