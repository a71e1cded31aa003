package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LocalStorage writes assets under a base directory that the server also
// exposes at /uploads.
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	for _, folder := range []Folder{FolderRecipes, FolderProfile} {
		if err := os.MkdirAll(filepath.Join(basePath, string(folder)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Dir is the directory served as /uploads.
func (s *LocalStorage) Dir() string {
	return s.basePath
}

func (s *LocalStorage) Save(ctx context.Context, folder Folder, filename, _ string, data io.Reader) (string, error) {
	assetPath := assetPath(folder, filename, s.now())
	rel, err := relativeKey(assetPath)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(rel))

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return assetPath, nil
}

func (s *LocalStorage) Delete(ctx context.Context, assetPath string) error {
	rel, err := relativeKey(assetPath)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.basePath, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
