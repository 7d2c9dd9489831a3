// Package storage keeps uploaded file contents, either in a local directory
// or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned when a blob is not present in the backend.
var ErrNotExist = errors.New("blob does not exist")

// Backend stores blobs by key. Keys are generated by the caller and never
// contain path separators.
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a blob. Deleting a missing blob returns ErrNotExist.
	Delete(ctx context.Context, key string) error
}

func validKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	for _, r := range key {
		if r == '/' || r == '\\' || r == 0 {
			return false
		}
	}
	return true
}
