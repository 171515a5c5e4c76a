package domain

import (
	"context"
	"io"
	"time"
)

// UploadRequest is the framework-neutral view of an incoming upload
type UploadRequest struct {
	Method      string
	ContentType string
	Body        io.Reader
}

// UploadResult is returned to the client on success
type UploadResult struct {
	URL string `json:"url"`
}

// UploadRecord is a ledger entry for a stored upload
type UploadRecord struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Key         string    `json:"key" bson:"key"` // Unique Index
	URL         string    `json:"url" bson:"url"`
	Filename    string    `json:"filename" bson:"filename"`
	ContentType string    `json:"content_type" bson:"content_type"`
	Size        int64     `json:"size" bson:"size"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// UploadService accepts a raw request and forwards its file to storage
type UploadService interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
	ListRecent(ctx context.Context, limit int) ([]*UploadRecord, error)
}

// KeyGenerator produces a fresh storage key for a file name
type KeyGenerator interface {
	NewKey(filename string) string
}

// UploadLedger records successful uploads
type UploadLedger interface {
	Record(ctx context.Context, rec *UploadRecord) error
	ListRecent(ctx context.Context, limit int) ([]*UploadRecord, error)
}
