package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/duynhne/card-service/internal/core/domain"
	logicv1 "github.com/duynhne/card-service/internal/logic/v1"
	"github.com/duynhne/card-service/middleware"
)

// multipartOverhead is the room left for boundaries and headers above the file limit
const multipartOverhead = 1 << 20

// UploadHandler handles the Upload Gateway and serves stored files
type UploadHandler struct {
	service *logicv1.UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(service *logicv1.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// Upload handles POST /upload with a multipart "file" field
func (h *UploadHandler) Upload(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.LoggerFrom(c)
	start := time.Now()

	// configuration is checked before the body is read
	if !h.service.Configured() {
		logger.Error("Upload rejected", zap.Error(domain.ErrStorageNotConfigured))
		writeError(c, domain.ErrStorageNotConfigured)
		return
	}

	if limit := h.service.MaxBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, domain.ErrFileTooLarge)
			return
		}
		logger.Warn("Upload without file", zap.Error(err))
		writeError(c, domain.ErrNoFile)
		return
	}
	span.SetAttributes(attribute.String("upload.filename", header.Filename))

	file, err := header.Open()
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	defer file.Close()

	obj, err := h.service.StoreFile(ctx, file, header.Size, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		span.RecordError(err)
		logger.Error("Upload error", zap.String("filename", header.Filename), zap.Error(err))
		writeError(c, err)
		return
	}

	url := obj.URL
	if strings.HasPrefix(url, "/") {
		url = requestBaseURL(c) + url
	}

	logger.Info("Uploaded file",
		zap.String("key", obj.Key),
		zap.Int64("size", obj.Size),
		zap.Duration("elapsed", time.Since(start)),
	)
	c.JSON(http.StatusOK, domain.UploadResponse{URL: url})
}

// ServeFile handles GET /files/:key so stored blobs are publicly retrievable
func (h *UploadHandler) ServeFile(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()

	key := c.Param("key")
	rc, obj, err := h.service.Open(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrBlobNotFound) {
			span.RecordError(err)
			middleware.LoggerFrom(c).Error("Failed to open file", zap.String("key", key), zap.Error(err))
		}
		writeError(c, err)
		return
	}
	defer rc.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	// keys are unique, so content under a key never changes
	c.DataFromReader(http.StatusOK, obj.Size, contentType, rc, map[string]string{
		"Cache-Control": "public, max-age=31536000, immutable",
		"ETag":          strconv.Quote(key),
	})
}

// requestBaseURL rebuilds scheme://host for relative file URLs, honouring proxies
func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host
}
