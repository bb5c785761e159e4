package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/card-service/internal/core/domain"
	logicv1 "github.com/duynhne/card-service/internal/logic/v1"
	"github.com/duynhne/card-service/middleware"
)

// listCacheControl lets shared caches serve the card list briefly
const listCacheControl = "public, s-maxage=10, stale-while-revalidate=59"

// CardHandler handles HTTP requests for the Card API
type CardHandler struct {
	service *logicv1.CardService
}

// NewCardHandler creates a new card handler
func NewCardHandler(service *logicv1.CardService) *CardHandler {
	return &CardHandler{service: service}
}

// ListCards handles GET /cards
func (h *CardHandler) ListCards(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.LoggerFrom(c)
	start := time.Now()

	cards, err := h.service.List(ctx)
	if err != nil {
		span.RecordError(err)
		logger.Error("Failed to list cards", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		writeError(c, err)
		return
	}

	logger.Info("Cards listed", zap.Int("count", len(cards)), zap.Duration("elapsed", time.Since(start)))
	c.Header("Cache-Control", listCacheControl)
	c.JSON(http.StatusOK, cards)
}

// CreateCard handles POST /cards
func (h *CardHandler) CreateCard(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.LoggerFrom(c)
	start := time.Now()

	var req domain.CardFields
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		logger.Warn("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": sanitizeValidationError(err)})
		return
	}

	card, err := h.service.Create(ctx, req)
	if err != nil {
		span.RecordError(err)
		logger.Error("Failed to create card", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		writeError(c, err)
		return
	}

	logger.Info("Card created", zap.String("card_id", card.ID), zap.Duration("elapsed", time.Since(start)))
	c.JSON(http.StatusOK, card)
}

// UpdateCard handles PUT /cards/:id
func (h *CardHandler) UpdateCard(c *gin.Context) {
	ctx, span := startRequestSpan(c)
	defer span.End()
	logger := middleware.LoggerFrom(c)
	start := time.Now()

	id := c.Param("id")
	span.SetAttributes(attribute.String("card.id", id))

	var req domain.CardFields
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		logger.Warn("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": sanitizeValidationError(err)})
		return
	}

	card, err := h.service.Update(ctx, id, req)
	if err != nil {
		span.RecordError(err)
		logger.Error("Failed to update card", zap.String("card_id", id), zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		writeError(c, err)
		return
	}

	logger.Info("Card updated", zap.String("card_id", id), zap.Duration("elapsed", time.Since(start)))
	c.JSON(http.StatusOK, card)
}

func startRequestSpan(c *gin.Context) (ctx context.Context, span trace.Span) {
	return middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("route", c.FullPath()),
	))
}

// writeError maps domain errors to status codes with an {error} body
func writeError(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		if len(vErr.Fields) == 1 && vErr.Fields[0] == "id" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Card ID is required"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "fields": vErr.Fields})
	case errors.Is(err, domain.ErrCardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
	case errors.Is(err, domain.ErrBlobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
	case errors.Is(err, domain.ErrNoFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
	case errors.Is(err, domain.ErrFileTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
	case errors.Is(err, domain.ErrStorageNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Blob storage not configured"})
	default:
		// store and upload failures pass their message through
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
