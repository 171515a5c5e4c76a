package domain

import (
	"context"
)

// Access controls who may read a stored object
type Access string

const (
	AccessPublic  Access = "public"
	AccessPrivate Access = "private"
)

// PutOptions describes how an object should be stored
type PutOptions struct {
	Access      Access
	ContentType string
	Metadata    map[string]string
}

// PutResult is what the blob store hands back after a successful write
type PutResult struct {
	URL string `json:"url"`
}

// BlobStore defines the storage capability uploads are forwarded to
type BlobStore interface {
	// Put writes content under key and returns its access URL
	Put(ctx context.Context, key string, content []byte, opts PutOptions) (*PutResult, error)
}
