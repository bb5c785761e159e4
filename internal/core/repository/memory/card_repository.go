// Package memory provides a process-local Card Store for development (STORE_DRIVER=memory) and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duynhne/card-service/internal/core/domain"
)

// CardRepository implements domain.CardRepository in memory
type CardRepository struct {
	mu    sync.RWMutex
	cards map[string]*domain.BusinessCard
	seq   map[string]uint64 // insertion order, breaks created_at ties
	next  uint64
	now   func() time.Time
}

// NewCardRepository creates an empty in-memory card repository
func NewCardRepository() *CardRepository {
	return &CardRepository{
		cards: make(map[string]*domain.BusinessCard),
		seq:   make(map[string]uint64),
		now:   time.Now,
	}
}

// WithClock replaces the time source; used by tests to force timestamps.
func (r *CardRepository) WithClock(now func() time.Time) *CardRepository {
	r.now = now
	return r
}

// List returns copies of all cards ordered by created_at descending
func (r *CardRepository) List(ctx context.Context) ([]*domain.BusinessCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cards := make([]*domain.BusinessCard, 0, len(r.cards))
	for _, card := range r.cards {
		cards = append(cards, clone(card))
	}
	sort.Slice(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return r.seq[a.ID] > r.seq[b.ID]
	})
	return cards, nil
}

// Create stores a new card with a fresh UUID
func (r *CardRepository) Create(ctx context.Context, f domain.CardFields) (*domain.BusinessCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	card := &domain.BusinessCard{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(card, f)
	r.cards[card.ID] = card
	r.next++
	r.seq[card.ID] = r.next
	return clone(card), nil
}

// Update overwrites the card with the given id
func (r *CardRepository) Update(ctx context.Context, id string, f domain.CardFields) (*domain.BusinessCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	card, ok := r.cards[id]
	if !ok {
		return nil, fmt.Errorf("update card %q: %w", id, domain.ErrCardNotFound)
	}
	apply(card, f)
	now := r.now().UTC()
	if now.Before(card.CreatedAt) {
		now = card.CreatedAt
	}
	card.UpdatedAt = now
	return clone(card), nil
}

func apply(card *domain.BusinessCard, f domain.CardFields) {
	card.FirstName = f.FirstName
	card.LastName = f.LastName
	card.PhoneNumber = f.PhoneNumber
	card.Email = domain.NullIfEmpty(f.Email)
	card.Note = domain.NullIfEmpty(f.Note)
	card.FrontImageURL = domain.NullIfEmpty(f.FrontImageURL)
	card.BackImageURL = domain.NullIfEmpty(f.BackImageURL)
}

func clone(card *domain.BusinessCard) *domain.BusinessCard {
	c := *card
	return &c
}
