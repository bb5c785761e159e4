package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardFieldsValidate(t *testing.T) {
	tests := []struct {
		name    string
		fields  CardFields
		missing []string
	}{
		{"complete", CardFields{FirstName: "Ada", LastName: "Co", PhoneNumber: "555-0100"}, nil},
		{"missing first name", CardFields{LastName: "Co", PhoneNumber: "555"}, []string{"first_name"}},
		{"whitespace last name", CardFields{FirstName: "Ada", LastName: "  ", PhoneNumber: "555"}, []string{"last_name"}},
		{"all missing", CardFields{Email: "ada@example.com"}, []string{"first_name", "last_name", "phone_number"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fields.Validate()
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.missing, vErr.Fields)
		})
	}
}

func TestFieldsOfRoundTripsNullableColumns(t *testing.T) {
	card := &BusinessCard{
		FirstName:   "Ada",
		LastName:    "Co",
		PhoneNumber: "555",
		Note:        NullIfEmpty("met at conf"),
	}

	fields := FieldsOf(card)

	assert.Equal(t, "met at conf", fields.Note)
	assert.Empty(t, fields.Email)
	assert.Nil(t, NullIfEmpty(fields.Email))
}
