package domain

import (
	"strings"
	"time"
)

// BusinessCard is a persisted contact record.
// LastName doubles as the company/firm name in the client.
type BusinessCard struct {
	ID            string    `json:"id" yaml:"id"`
	FirstName     string    `json:"first_name" yaml:"first_name"`
	LastName      string    `json:"last_name" yaml:"last_name"`
	PhoneNumber   string    `json:"phone_number" yaml:"phone_number"`
	Email         *string   `json:"email" yaml:"email"`
	Note          *string   `json:"note" yaml:"note"`
	FrontImageURL *string   `json:"front_image_url" yaml:"front_image_url"`
	BackImageURL  *string   `json:"back_image_url" yaml:"back_image_url"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// CardFields carries the mutable fields of a card on create and update.
// Update overwrites every field, so an omitted optional field clears the column.
type CardFields struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	PhoneNumber   string `json:"phone_number"`
	Email         string `json:"email"`
	Note          string `json:"note"`
	FrontImageURL string `json:"front_image_url"`
	BackImageURL  string `json:"back_image_url"`
}

// Validate reports every required field that is empty or whitespace.
func (f CardFields) Validate() error {
	var missing []string
	if strings.TrimSpace(f.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(f.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(f.PhoneNumber) == "" {
		missing = append(missing, "phone_number")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// FieldsOf copies the mutable fields of a card, mapping NULLs to empty strings.
func FieldsOf(card *BusinessCard) CardFields {
	return CardFields{
		FirstName:     card.FirstName,
		LastName:      card.LastName,
		PhoneNumber:   card.PhoneNumber,
		Email:         Deref(card.Email),
		Note:          Deref(card.Note),
		FrontImageURL: Deref(card.FrontImageURL),
		BackImageURL:  Deref(card.BackImageURL),
	}
}

// NullIfEmpty maps "" to nil so optional columns store NULL.
func NullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StoredObject describes a blob written by the Upload Gateway.
type StoredObject struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
}

// UploadResponse is the body returned by POST /upload.
type UploadResponse struct {
	URL string `json:"url"`
}

// CardEvent is published after a card is created or updated.
type CardEvent struct {
	Type       string        `json:"type"`
	Card       *BusinessCard `json:"card"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Card event types.
const (
	EventCardCreated = "created"
	EventCardUpdated = "updated"
)
