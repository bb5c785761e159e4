package client

import (
	"strings"

	"github.com/duynhne/card-service/internal/core/domain"
)

// Filter returns the cards whose first name, last name, phone, email or note
// contains term, case-insensitively. An empty term returns cards unchanged.
// Filter never modifies its input.
func Filter(cards []*domain.BusinessCard, term string) []*domain.BusinessCard {
	if term == "" {
		return cards
	}
	needle := strings.ToLower(term)

	matched := make([]*domain.BusinessCard, 0, len(cards))
	for _, card := range cards {
		if matches(card, needle) {
			matched = append(matched, card)
		}
	}
	return matched
}

func matches(card *domain.BusinessCard, needle string) bool {
	for _, field := range []string{
		card.FirstName,
		card.LastName,
		card.PhoneNumber,
		domain.Deref(card.Email),
		domain.Deref(card.Note),
	} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
