package client

import (
	"fmt"
	"strings"

	"github.com/duynhne/card-service/internal/core/domain"
)

const (
	noFrontImage = "No front image"
	noBackImage  = "No back image"
)

// FlipCard renders a card as two text faces, front and back.
type FlipCard struct {
	Card    *domain.BusinessCard
	flipped bool
}

// NewFlipCard shows the front face first
func NewFlipCard(card *domain.BusinessCard) *FlipCard {
	return &FlipCard{Card: card}
}

// Flip toggles the visible face
func (f *FlipCard) Flip() {
	f.flipped = !f.flipped
}

// ShowingBack reports whether the back face is visible
func (f *FlipCard) ShowingBack() bool {
	return f.flipped
}

// Face renders the visible face
func (f *FlipCard) Face() string {
	if f.flipped {
		return BackFace(f.Card)
	}
	return FrontFace(f.Card)
}

// FrontFace renders name, phone and the front image URL or a placeholder
func FrontFace(card *domain.BusinessCard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", card.FirstName, card.LastName)
	fmt.Fprintf(&b, "Phone: %s\n", card.PhoneNumber)
	if email := domain.Deref(card.Email); email != "" {
		fmt.Fprintf(&b, "Email: %s\n", email)
	}
	b.WriteString(imageLine(card.FrontImageURL, noFrontImage))
	return b.String()
}

// BackFace renders the note and the back image URL or a placeholder
func BackFace(card *domain.BusinessCard) string {
	var b strings.Builder
	if note := domain.Deref(card.Note); note != "" {
		fmt.Fprintf(&b, "Note: %s\n", note)
	}
	b.WriteString(imageLine(card.BackImageURL, noBackImage))
	return b.String()
}

func imageLine(url *string, placeholder string) string {
	if u := domain.Deref(url); u != "" {
		return "Image: " + u + "\n"
	}
	return "[" + placeholder + "]\n"
}
