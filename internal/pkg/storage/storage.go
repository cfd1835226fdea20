// Package storage provides a write-only object store used to archive purged
// authentication records before they are deleted from the database.
package storage

import (
	"context"
	"io"
)

// Storage is a put-only object store. Archival never reads back; retrieval
// is an offline concern handled by whatever consumes the bucket.
type Storage interface {
	io.Closer

	// PutObject stores data under bucket/key and returns object metadata.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
}

// PutOptions configures upload behavior.
type PutOptions struct {
	// Size is the expected content length; zero means unknown.
	Size int64
	// ContentType is the MIME type for the object.
	ContentType string
	// Metadata includes custom key/value metadata.
	Metadata map[string]string
}

// ObjectInfo describes stored object metadata.
type ObjectInfo struct {
	// Bucket is the bucket name.
	Bucket string
	// Key is the object key.
	Key string
	// Size is the object size in bytes.
	Size int64
	// ETag is the object ETag when provided.
	ETag string
}
