package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mansoorceksport/cookbook-upload/internal/domain"
	"github.com/mansoorceksport/cookbook-upload/internal/formdata"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "cookbook-upload/service"
	ledgerWriteTimeout  = 5 * time.Second
)

// UploadServiceImpl implements domain.UploadService
type UploadServiceImpl struct {
	store    domain.BlobStore
	keys     domain.KeyGenerator
	ledger   domain.UploadLedger // optional
	defaults formdata.Defaults
	access   domain.Access

	tracer   trace.Tracer
	uploads  metric.Int64Counter
	bytesOut metric.Int64Histogram
}

// UploadServiceOption customises the upload service
type UploadServiceOption func(*UploadServiceImpl)

// WithLedger records every successful upload
func WithLedger(ledger domain.UploadLedger) UploadServiceOption {
	return func(s *UploadServiceImpl) { s.ledger = ledger }
}

// WithDefaults overrides the filename and media type used for undeclared values
func WithDefaults(d formdata.Defaults) UploadServiceOption {
	return func(s *UploadServiceImpl) { s.defaults = d }
}

// WithAccess selects the access level for stored objects
func WithAccess(a domain.Access) UploadServiceOption {
	return func(s *UploadServiceImpl) { s.access = a }
}

// NewUploadService creates a new upload service
func NewUploadService(store domain.BlobStore, keys domain.KeyGenerator, opts ...UploadServiceOption) *UploadServiceImpl {
	s := &UploadServiceImpl{
		store:    store,
		keys:     keys,
		defaults: formdata.StandardDefaults(),
		access:   domain.AccessPublic,
		tracer:   otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter(instrumentationName)
	s.uploads, _ = meter.Int64Counter("uploads",
		metric.WithDescription("Upload requests by outcome"))
	s.bytesOut, _ = meter.Int64Histogram("upload.size",
		metric.WithDescription("Size of stored files"),
		metric.WithUnit("By"))

	return s
}

// Upload validates the request, decodes the file part and stores it.
// Validation and decoding finish in memory before the single storage call.
func (s *UploadServiceImpl) Upload(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error) {
	ctx, span := s.tracer.Start(ctx, "upload.Upload")
	defer span.End()

	result, err := s.upload(ctx, span, req)
	s.count(ctx, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func (s *UploadServiceImpl) upload(ctx context.Context, span trace.Span, req domain.UploadRequest) (*domain.UploadResult, error) {
	// Step 1: request shape
	if req.Method != http.MethodPost {
		return nil, domain.ErrMethodNotAllowed
	}
	if !formdata.IsMultipartForm(req.ContentType) {
		return nil, domain.ErrUnsupportedMediaType
	}
	if _, err := formdata.Boundary(req.ContentType); err != nil {
		return nil, err
	}

	// Step 2: buffer and decode
	body, err := formdata.ReadBody(ctx, req.Body)
	if err != nil {
		return nil, err
	}

	file, err := formdata.Parse(req.ContentType, body, s.defaults)
	if err != nil {
		return nil, err
	}

	// Step 3: store
	key := s.keys.NewKey(file.Filename)
	span.SetAttributes(
		attribute.String("upload.key", key),
		attribute.String("upload.content_type", file.ContentType),
		attribute.Int("upload.size", len(file.Content)),
	)

	put, err := s.store.Put(ctx, key, file.Content, domain.PutOptions{
		Access:      s.access,
		ContentType: file.ContentType,
		Metadata:    map[string]string{"original-filename": file.Filename},
	})
	if err != nil {
		if !errors.Is(err, domain.ErrStorageFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
		}
		return nil, err
	}
	s.bytesOut.Record(ctx, int64(len(file.Content)))

	s.record(ctx, &domain.UploadRecord{
		Key:         key,
		URL:         put.URL,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Size:        int64(len(file.Content)),
	})

	return &domain.UploadResult{URL: put.URL}, nil
}

// record writes the ledger entry; a ledger outage never fails an upload that is already stored
func (s *UploadServiceImpl) record(ctx context.Context, rec *domain.UploadRecord) {
	if s.ledger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()

	if err := s.ledger.Record(ctx, rec); err != nil {
		log.Printf("Warning: failed to record upload %s: %v", rec.Key, err)
	}
}

func (s *UploadServiceImpl) count(ctx context.Context, err error) {
	outcome := "stored"
	switch {
	case err == nil:
	case domain.IsClientError(err):
		outcome = "rejected"
	default:
		outcome = "failed"
	}
	s.uploads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// ListRecent returns the newest ledger entries, or an empty list without a ledger
func (s *UploadServiceImpl) ListRecent(ctx context.Context, limit int) ([]*domain.UploadRecord, error) {
	if s.ledger == nil {
		return []*domain.UploadRecord{}, nil
	}
	return s.ledger.ListRecent(ctx, limit)
}
