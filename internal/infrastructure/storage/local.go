package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists uploaded documents under a root directory on the
// local filesystem. Paths handed back to callers are relative to the root,
// which is what gets stored on the merchant record.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates a document store rooted at dir
func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

// Store writes the reader's content at relPath under the root and returns
// the relative path. Parent directories are created as needed.
func (s *LocalStorage) Store(ctx context.Context, relPath string, r io.Reader) (string, error) {
	full, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create document directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create document file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write document file: %w", err)
	}
	return filepath.ToSlash(filepath.Clean(relPath)), nil
}

// Remove deletes a previously stored document. Removing a path that does not
// exist is not an error.
func (s *LocalStorage) Remove(ctx context.Context, relPath string) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove document file: %w", err)
	}
	return nil
}

func (s *LocalStorage) resolve(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if clean == "." || clean == "" || filepath.IsAbs(clean) ||
		clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid document path %q", relPath)
	}
	return filepath.Join(s.root, clean), nil
}
