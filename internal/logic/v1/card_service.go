package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/card-service/internal/core/domain"
	"github.com/duynhne/card-service/middleware"
)

// CardService implements the Card API: List, Create and Update
type CardService struct {
	repo   domain.CardRepository
	events domain.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewCardService creates a new card service. events may be nil.
func NewCardService(repo domain.CardRepository, events domain.EventPublisher, logger *zap.Logger) *CardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardService{
		repo:   repo,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// List returns every card, newest first
func (s *CardService) List(ctx context.Context) ([]*domain.BusinessCard, error) {
	ctx, span := middleware.StartSpan(ctx, "card.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	cards, err := s.repo.List(ctx)
	middleware.RecordCardOperation("list", err)
	if err != nil {
		middleware.RecordError(span, err)
		return nil, storeError("list cards", err)
	}

	span.SetAttributes(attribute.Int("card.count", len(cards)))
	return cards, nil
}

// Create validates the required fields and inserts a new card
func (s *CardService) Create(ctx context.Context, fields domain.CardFields) (*domain.BusinessCard, error) {
	ctx, span := middleware.StartSpan(ctx, "card.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if err := fields.Validate(); err != nil {
		middleware.RecordCardOperation("create", err)
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, fmt.Errorf("create card: %w", err)
	}

	card, err := s.repo.Create(ctx, fields)
	middleware.RecordCardOperation("create", err)
	if err != nil {
		middleware.RecordError(span, err)
		return nil, storeError("create card", err)
	}

	span.SetAttributes(attribute.String("card.id", card.ID))
	s.publish(ctx, domain.EventCardCreated, card)
	return card, nil
}

// Update overwrites every mutable field of the card identified by id
func (s *CardService) Update(ctx context.Context, id string, fields domain.CardFields) (*domain.BusinessCard, error) {
	ctx, span := middleware.StartSpan(ctx, "card.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("card.id", id),
	))
	defer span.End()

	if strings.TrimSpace(id) == "" {
		err := &domain.ValidationError{Fields: []string{"id"}}
		middleware.RecordCardOperation("update", err)
		return nil, fmt.Errorf("update card: %w", err)
	}
	if err := fields.Validate(); err != nil {
		middleware.RecordCardOperation("update", err)
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, fmt.Errorf("update card %q: %w", id, err)
	}

	card, err := s.repo.Update(ctx, id, fields)
	middleware.RecordCardOperation("update", err)
	if err != nil {
		if errors.Is(err, domain.ErrCardNotFound) {
			span.SetAttributes(attribute.Bool("card.found", false))
			return nil, err
		}
		middleware.RecordError(span, err)
		return nil, storeError("update card", err)
	}

	s.publish(ctx, domain.EventCardUpdated, card)
	return card, nil
}

// publish is best-effort: a failed notification never fails the request
func (s *CardService) publish(ctx context.Context, eventType string, card *domain.BusinessCard) {
	if s.events == nil {
		return
	}
	event := domain.CardEvent{Type: eventType, Card: card, OccurredAt: s.now().UTC()}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish card event",
			zap.String("event", eventType),
			zap.String("card_id", card.ID),
			zap.Error(err),
		)
	}
}

// storeError guarantees errors.Is(err, domain.ErrStore) for repository failures
func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrStore) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}
