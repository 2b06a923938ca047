// Package storage provides the blob store used for invoice PDF attachments.
// Blobs are addressed by path ("invoices/INV-001.pdf"); the local filesystem
// implementation is the default backend.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a blob does not exist at the given path.
var ErrNotFound = errors.New("blob not found")

// BlobStore defines the operations the pipeline needs from blob storage.
type BlobStore interface {
	// Download returns the raw bytes stored at path.
	Download(ctx context.Context, path string) ([]byte, error)

	// Upload stores data at path and returns the stored path.
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)

	// List returns the paths of all blobs under prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// PublicURL returns a fetchable URL for the blob at path.
	PublicURL(path string) string
}
