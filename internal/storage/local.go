package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LocalStorage owns the upload staging root and the output root.
type LocalStorage struct {
	uploadDir string
	outputDir string
}

func NewLocalStorage(uploadDir, outputDir string) *LocalStorage {
	return &LocalStorage{
		uploadDir: uploadDir,
		outputDir: outputDir,
	}
}

func (s *LocalStorage) UploadDir() string { return s.uploadDir }
func (s *LocalStorage) OutputDir() string { return s.outputDir }

func (s *LocalStorage) EnsureDirectories() error {
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	return nil
}

// NewWorkspace creates a uniquely named directory under the upload root.
// Callers release it with Close.
func (s *LocalStorage) NewWorkspace() (*Workspace, error) {
	id := uuid.New().String()
	dir := filepath.Join(s.uploadDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

// OutputPath returns <output>/<id>/<name>, creating the generation directory.
func (s *LocalStorage) OutputPath(id, name string) (string, error) {
	dir := filepath.Join(s.outputDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return filepath.Join(dir, filepath.Base(name)), nil
}

// Cleanup removes the upload root and, unless keepOutputs is set, everything
// under the output root. It keeps going after failures and returns them
// joined.
func (s *LocalStorage) Cleanup(keepOutputs bool) error {
	var errs []error
	if err := os.RemoveAll(s.uploadDir); err != nil {
		errs = append(errs, fmt.Errorf("remove upload directory: %w", err))
	}
	if !keepOutputs {
		if err := emptyDir(s.outputDir); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sweep deletes generation directories under the output root whose
// modification time is older than maxAge. It returns how many were removed.
func (s *LocalStorage) Sweep(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.outputDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read output directory: %w", err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		path := filepath.Join(s.outputDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
			continue
		}
		slog.Debug("Removed expired output", "path", path)
		removed++
	}
	return removed, errors.Join(errs...)
}

func emptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	var errs []error
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Workspace is a per-request scratch directory.
type Workspace struct {
	ID  string
	Dir string
}

// Save writes r to the workspace under a name derived from index and the
// client-supplied filename, so uploads with equal names do not collide.
func (w *Workspace) Save(index int, filename string, r io.Reader) (string, error) {
	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." {
		base = "upload"
	}
	path := filepath.Join(w.Dir, fmt.Sprintf("%d_%s", index, base))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

func (w *Workspace) Close() error {
	if err := os.RemoveAll(w.Dir); err != nil {
		slog.Warn("Failed to remove workspace", "dir", w.Dir, "error", err)
		return err
	}
	return nil
}
