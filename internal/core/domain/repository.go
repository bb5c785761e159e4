package domain

import (
	"context"
	"io"
)

// CardRepository is the Card Store. Each method is a single atomic statement.
type CardRepository interface {
	// List returns all cards, newest created_at first.
	List(ctx context.Context) ([]*BusinessCard, error)
	// Create inserts a card with a store-generated id and created_at = updated_at = now.
	Create(ctx context.Context, fields CardFields) (*BusinessCard, error)
	// Update overwrites every mutable field and refreshes updated_at.
	// Returns ErrCardNotFound when no row matches id.
	Update(ctx context.Context, id string, fields CardFields) (*BusinessCard, error)
}

// BlobStore persists uploaded files under a key.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error)
	// Open returns ErrBlobNotFound for unknown keys.
	Open(ctx context.Context, key string) (io.ReadCloser, *StoredObject, error)
}

// EventPublisher announces card changes. Publishing is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, event CardEvent) error
}
