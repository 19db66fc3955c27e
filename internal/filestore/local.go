// Package filestore persists uploaded images on local disk.
package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbms/facilities-server/internal/apperr"
)

// AllowedExtensions are the image types accepted for upload.
var AllowedExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Local writes files into a single directory.
type Local struct {
	dir string
	now func() time.Time
}

// NewLocal creates dir if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, now: time.Now}, nil
}

// Dir is the directory files are written to.
func (l *Local) Dir() string { return l.dir }

// Store copies r into a new file named after the upload time and returns
// its path. Failures are reported as *apperr.StorageError.
func (l *Local) Store(ctx context.Context, r io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := fmt.Sprintf("%s_%s%s", l.now().Format("20060102_150405"), uuid.NewString()[:8], ext)
	path := filepath.Join(l.dir, name)

	if !AllowedExtensions[ext] {
		return "", &apperr.StorageError{Path: path, Err: fmt.Errorf("unsupported file type %q", ext)}
	}
	if err := ctx.Err(); err != nil {
		return "", &apperr.StorageError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", &apperr.StorageError{Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", &apperr.StorageError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &apperr.StorageError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", &apperr.StorageError{Path: path, Err: err}
	}
	return path, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (l *Local) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &apperr.StorageError{Path: path, Err: err}
	}
	return nil
}
