package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"

	"github.com/mansoorceksport/cookbook-upload/internal/domain"
	"github.com/mansoorceksport/cookbook-upload/internal/formdata"
	"github.com/mansoorceksport/cookbook-upload/internal/keygen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putCall struct {
	key     string
	content []byte
	opts    domain.PutOptions
}

type mockStore struct {
	mu    sync.Mutex
	calls []putCall
	err   error
}

func (m *mockStore) Put(ctx context.Context, key string, content []byte, opts domain.PutOptions) (*domain.PutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, putCall{key: key, content: append([]byte(nil), content...), opts: opts})
	if m.err != nil {
		return nil, m.err
	}
	return &domain.PutResult{URL: "https://blob.example.com/" + key}, nil
}

type fixedKeys struct{}

func (fixedKeys) NewKey(filename string) string {
	return "cookbook/1700000000000-deadbeef." + keygen.Extension(filename, "jpg")
}

type mockLedger struct {
	records []*domain.UploadRecord
	err     error
}

func (m *mockLedger) Record(ctx context.Context, rec *domain.UploadRecord) error {
	m.records = append(m.records, rec)
	return m.err
}

func (m *mockLedger) ListRecent(ctx context.Context, limit int) ([]*domain.UploadRecord, error) {
	if limit < len(m.records) {
		return m.records[:limit], nil
	}
	return m.records, nil
}

func multipartBody(t *testing.T, field, filename, contentType string, content []byte) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	pw, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = pw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return w.FormDataContentType(), buf.Bytes()
}

func TestUpload_Success(t *testing.T) {
	store := &mockStore{}
	ledger := &mockLedger{}
	svc := NewUploadService(store, fixedKeys{}, WithLedger(ledger))

	content := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x00}
	ct, body := multipartBody(t, "file", "cat.png", "image/png", content)

	res, err := svc.Upload(context.Background(), domain.UploadRequest{
		Method:      "POST",
		ContentType: ct,
		Body:        bytes.NewReader(body),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://blob.example.com/cookbook/1700000000000-deadbeef.png", res.URL)

	require.Len(t, store.calls, 1)
	call := store.calls[0]
	assert.Equal(t, "cookbook/1700000000000-deadbeef.png", call.key)
	assert.Equal(t, content, call.content)
	assert.Equal(t, domain.AccessPublic, call.opts.Access)
	assert.Equal(t, "image/png", call.opts.ContentType)
	assert.Equal(t, "cat.png", call.opts.Metadata["original-filename"])

	require.Len(t, ledger.records, 1)
	assert.Equal(t, call.key, ledger.records[0].Key)
	assert.Equal(t, int64(len(content)), ledger.records[0].Size)
}

func TestUpload_DefaultsAndExtension(t *testing.T) {
	store := &mockStore{}
	svc := NewUploadService(store, fixedKeys{},
		WithDefaults(formdata.Defaults{Filename: "upload.jpg", ContentType: "application/octet-stream"}),
		WithAccess(domain.AccessPrivate),
	)

	ct, body := multipartBody(t, "file", "noext", "image/heic", []byte("data"))
	res, err := svc.Upload(context.Background(), domain.UploadRequest{Method: "POST", ContentType: ct, Body: bytes.NewReader(body)})
	require.NoError(t, err)
	assert.Contains(t, res.URL, ".jpg")
	require.Len(t, store.calls, 1)
	assert.Equal(t, domain.AccessPrivate, store.calls[0].opts.Access)
}

func TestUpload_Rejections(t *testing.T) {
	ct, body := multipartBody(t, "file", "cat.png", "image/png", []byte("x"))
	otherCT, otherBody := multipartBody(t, "other", "cat.png", "image/png", []byte("x"))

	tests := []struct {
		name    string
		req     domain.UploadRequest
		wantErr error
	}{
		{"get", domain.UploadRequest{Method: "GET", ContentType: ct, Body: bytes.NewReader(body)}, domain.ErrMethodNotAllowed},
		{"json", domain.UploadRequest{Method: "POST", ContentType: "application/json", Body: bytes.NewReader(body)}, domain.ErrUnsupportedMediaType},
		{"no boundary", domain.UploadRequest{Method: "POST", ContentType: "multipart/form-data", Body: bytes.NewReader(body)}, domain.ErrMissingBoundary},
		{"wrong field", domain.UploadRequest{Method: "POST", ContentType: otherCT, Body: bytes.NewReader(otherBody)}, domain.ErrNoFileField},
		{"malformed", domain.UploadRequest{
			Method:      "POST",
			ContentType: "multipart/form-data; boundary=B",
			Body:        bytes.NewReader([]byte("--B\r\nContent-Disposition: form-data; name=\"file\"\r\nContent-Type: image/png\r\n--B--")),
		}, domain.ErrMalformedPart},
		{"body read", domain.UploadRequest{
			Method:      "POST",
			ContentType: ct,
			Body:        io.MultiReader(bytes.NewReader(body[:10]), errReader{}),
		}, domain.ErrBodyRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			svc := NewUploadService(store, fixedKeys{})

			res, err := svc.Upload(context.Background(), tt.req)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.calls, "storage must not be called")
		})
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset by peer") }

func TestUpload_StorageFailure(t *testing.T) {
	store := &mockStore{err: errors.New("503 slow down")}
	ledger := &mockLedger{}
	svc := NewUploadService(store, fixedKeys{}, WithLedger(ledger))

	ct, body := multipartBody(t, "file", "cat.png", "image/png", []byte("x"))
	res, err := svc.Upload(context.Background(), domain.UploadRequest{Method: "POST", ContentType: ct, Body: bytes.NewReader(body)})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.False(t, domain.IsClientError(err))
	assert.Len(t, store.calls, 1)
	assert.Empty(t, ledger.records)
}

func TestUpload_LedgerFailureIsNotFatal(t *testing.T) {
	store := &mockStore{}
	ledger := &mockLedger{err: errors.New("mongo down")}
	svc := NewUploadService(store, fixedKeys{}, WithLedger(ledger))

	ct, body := multipartBody(t, "file", "cat.png", "image/png", []byte("x"))
	res, err := svc.Upload(context.Background(), domain.UploadRequest{Method: "POST", ContentType: ct, Body: bytes.NewReader(body)})
	require.NoError(t, err)
	assert.NotEmpty(t, res.URL)
}

func TestUpload_ConcurrentKeysDiffer(t *testing.T) {
	store := &mockStore{}
	svc := NewUploadService(store, keygen.New("cookbook", "jpg"))

	ct, body := multipartBody(t, "file", "cat.png", "image/png", []byte("x"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Upload(context.Background(), domain.UploadRequest{Method: "POST", ContentType: ct, Body: bytes.NewReader(body)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, c := range store.calls {
		assert.False(t, seen[c.key], "duplicate key %s", c.key)
		seen[c.key] = true
	}
	assert.Len(t, seen, 50)
}

func TestListRecent_WithoutLedger(t *testing.T) {
	svc := NewUploadService(&mockStore{}, fixedKeys{})
	recs, err := svc.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
