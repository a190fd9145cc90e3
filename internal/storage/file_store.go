package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore saves uploaded resumes and chat attachments to disk under a
// base directory. Stored names are unique so client filenames never collide.
type FileStore struct {
	basePath string
}

// NewFileStore creates the base directory if missing.
func NewFileStore(basePath string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("upload base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// Save writes an uploaded file and returns its path on disk. The original
// filename contributes only its extension.
func (f *FileStore) Save(field, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	stored := fmt.Sprintf("%s-%s%s", field, uuid.NewString(), ext)
	target := filepath.Join(f.basePath, stored)

	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}
	return target, nil
}

// Remove deletes a stored file. Paths outside the base directory are
// rejected so a crafted reference cannot delete arbitrary files.
func (f *FileStore) Remove(path string) error {
	if !f.Contains(path) {
		return fmt.Errorf("path %q is outside the upload dir", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Contains reports whether path points inside the upload directory.
func (f *FileStore) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	base, err := filepath.Abs(f.basePath)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
