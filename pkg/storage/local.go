package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements BlobStore using the local filesystem
type LocalStore struct {
	basePath      string
	publicBaseURL string
}

// NewLocalStore creates a new local filesystem blob store
func NewLocalStore(basePath, publicBaseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStore{
		basePath:      basePath,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

// Download returns the raw bytes stored at path
func (s *LocalStore) Download(ctx context.Context, path string) ([]byte, error) {
	clean, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(clean)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}
	return data, nil
}

// Upload stores data at path, creating parent directories as needed
func (s *LocalStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	clean, err := s.resolve(path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(clean), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	if err := os.WriteFile(clean, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", path, err)
	}
	return path, nil
}

// List returns the paths of all blobs under prefix
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	root, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs under %s: %w", prefix, err)
	}
	return paths, nil
}

// PublicURL returns a fetchable URL for the blob at path
func (s *LocalStore) PublicURL(path string) string {
	return s.publicBaseURL + "/" + strings.TrimPrefix(path, "/")
}

// resolve maps a blob path onto the base directory, rejecting path escapes.
// A plain prefix check is not enough: it would accept sibling directories
// whose name merely starts with the base path.
func (s *LocalStore) resolve(path string) (string, error) {
	base := filepath.Clean(s.basePath)
	clean := filepath.Join(base, filepath.FromSlash(path))

	rel, err := filepath.Rel(base, clean)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return clean, nil
}
