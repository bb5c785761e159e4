package v1

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/card-service/internal/core/blob"
	"github.com/duynhne/card-service/internal/core/domain"
	"github.com/duynhne/card-service/middleware"
)

// UploadService is the Upload Gateway: it turns file bytes into a public URL
type UploadService struct {
	store         domain.BlobStore
	publicBaseURL string
	maxBytes      int64
	now           func() time.Time
}

// NewUploadService creates the gateway. A nil store means storage is not configured
// and every StoreFile call fails with domain.ErrStorageNotConfigured.
func NewUploadService(store domain.BlobStore, publicBaseURL string, maxBytes int64) *UploadService {
	return &UploadService{
		store:         store,
		publicBaseURL: publicBaseURL,
		maxBytes:      maxBytes,
		now:           time.Now,
	}
}

// Configured reports whether a blob backend is available
func (s *UploadService) Configured() bool {
	return s.store != nil
}

// MaxBytes returns the upload size limit; 0 means unlimited
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// StoreFile writes the file under a fresh unique key and returns where it can be fetched.
// The URL is relative ("/files/<key>") when no public base URL is configured.
func (s *UploadService) StoreFile(ctx context.Context, file io.Reader, size int64, originalName, contentType string) (*domain.StoredObject, error) {
	ctx, span := middleware.StartSpan(ctx, "upload.store", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("upload.size", size),
	))
	defer span.End()

	obj, err := s.storeFile(ctx, file, size, originalName, contentType)
	middleware.RecordCardOperation("upload", err)
	if err != nil {
		middleware.RecordError(span, err)
		return nil, err
	}

	middleware.ObserveUpload(obj.Size)
	span.SetAttributes(attribute.String("upload.key", obj.Key))
	return obj, nil
}

func (s *UploadService) storeFile(ctx context.Context, file io.Reader, size int64, originalName, contentType string) (*domain.StoredObject, error) {
	if s.store == nil {
		return nil, domain.ErrStorageNotConfigured
	}
	if file == nil {
		return nil, domain.ErrNoFile
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, size, s.maxBytes)
	}

	key := blob.NewKey(s.now(), originalName)
	reader := file
	if s.maxBytes > 0 {
		// one extra byte reveals a stream longer than its declared size
		reader = io.LimitReader(file, s.maxBytes+1)
	}

	n, err := s.store.Put(ctx, key, reader, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: store %q: %w", domain.ErrUpload, key, err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return nil, fmt.Errorf("%w: stream exceeds limit of %d bytes", domain.ErrFileTooLarge, s.maxBytes)
	}

	return &domain.StoredObject{
		Key:         key,
		URL:         blob.PublicURL(s.publicBaseURL, key),
		Size:        n,
		ContentType: contentType,
	}, nil
}

// Open streams a stored file back for GET /files/:key
func (s *UploadService) Open(ctx context.Context, key string) (io.ReadCloser, *domain.StoredObject, error) {
	ctx, span := middleware.StartSpan(ctx, "upload.open", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("upload.key", key),
	))
	defer span.End()

	if s.store == nil {
		return nil, nil, domain.ErrStorageNotConfigured
	}
	if !blob.ValidKey(key) {
		return nil, nil, fmt.Errorf("open %q: %w", key, domain.ErrBlobNotFound)
	}
	return s.store.Open(ctx, key)
}
