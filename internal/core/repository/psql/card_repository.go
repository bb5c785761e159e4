package psql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/card-service/internal/core/domain"
)

const cardColumns = `id, first_name, last_name, phone_number, email, note, front_image_url, back_image_url, created_at, updated_at`

// CardRepository implements domain.CardRepository using PostgreSQL
type CardRepository struct {
	db *pgxpool.Pool
}

// NewCardRepository creates a new PostgreSQL card repository
func NewCardRepository(db *pgxpool.Pool) *CardRepository {
	return &CardRepository{db: db}
}

// List returns every card, newest first
func (r *CardRepository) List(ctx context.Context) ([]*domain.BusinessCard, error) {
	query := `SELECT ` + cardColumns + ` FROM business_cards ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w: %w", domain.ErrStore, err)
	}
	cards, err := pgx.CollectRows(rows, scanCard)
	if err != nil {
		return nil, fmt.Errorf("scan cards: %w: %w", domain.ErrStore, err)
	}
	return cards, nil
}

// Create inserts a card; the id and both timestamps are assigned by the database
func (r *CardRepository) Create(ctx context.Context, f domain.CardFields) (*domain.BusinessCard, error) {
	query := `
		INSERT INTO business_cards (id, first_name, last_name, phone_number, email, note, front_image_url, back_image_url, created_at, updated_at)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + cardColumns

	rows, err := r.db.Query(ctx, query,
		f.FirstName, f.LastName, f.PhoneNumber,
		domain.NullIfEmpty(f.Email), domain.NullIfEmpty(f.Note),
		domain.NullIfEmpty(f.FrontImageURL), domain.NullIfEmpty(f.BackImageURL),
	)
	if err != nil {
		return nil, fmt.Errorf("insert card: %w: %w", domain.ErrStore, err)
	}
	card, err := pgx.CollectExactlyOneRow(rows, scanCard)
	if err != nil {
		return nil, fmt.Errorf("insert card: %w: %w", domain.ErrStore, err)
	}
	return card, nil
}

// Update overwrites all mutable fields of the card with the given id
func (r *CardRepository) Update(ctx context.Context, id string, f domain.CardFields) (*domain.BusinessCard, error) {
	query := `
		UPDATE business_cards
		SET first_name = $1,
		    last_name = $2,
		    phone_number = $3,
		    email = $4,
		    note = $5,
		    front_image_url = $6,
		    back_image_url = $7,
		    updated_at = GREATEST(NOW(), created_at)
		WHERE id = $8
		RETURNING ` + cardColumns

	rows, err := r.db.Query(ctx, query,
		f.FirstName, f.LastName, f.PhoneNumber,
		domain.NullIfEmpty(f.Email), domain.NullIfEmpty(f.Note),
		domain.NullIfEmpty(f.FrontImageURL), domain.NullIfEmpty(f.BackImageURL),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update card %q: %w: %w", id, domain.ErrStore, err)
	}
	card, err := pgx.CollectExactlyOneRow(rows, scanCard)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("update card %q: %w", id, domain.ErrCardNotFound)
		}
		return nil, fmt.Errorf("update card %q: %w: %w", id, domain.ErrStore, err)
	}
	return card, nil
}

func scanCard(row pgx.CollectableRow) (*domain.BusinessCard, error) {
	var card domain.BusinessCard
	err := row.Scan(
		&card.ID,
		&card.FirstName,
		&card.LastName,
		&card.PhoneNumber,
		&card.Email,
		&card.Note,
		&card.FrontImageURL,
		&card.BackImageURL,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &card, nil
}
