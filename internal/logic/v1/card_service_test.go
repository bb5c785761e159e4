package v1

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/duynhne/card-service/internal/core/domain"
	"github.com/duynhne/card-service/internal/core/repository/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.CardEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.CardEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type failingRepository struct{ err error }

func (r failingRepository) List(context.Context) ([]*domain.BusinessCard, error) { return nil, r.err }
func (r failingRepository) Create(context.Context, domain.CardFields) (*domain.BusinessCard, error) {
	return nil, r.err
}
func (r failingRepository) Update(context.Context, string, domain.CardFields) (*domain.BusinessCard, error) {
	return nil, r.err
}

func steppingClock() func() time.Time {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
}

func newService(t *testing.T) (*CardService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	repo := memory.NewCardRepository().WithClock(steppingClock())
	return NewCardService(repo, pub, zap.NewNop()), pub
}

func TestCreateAssignsIdentityAndTimestamps(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	input := domain.CardFields{
		FirstName:     "Ada",
		LastName:      "Co",
		PhoneNumber:   "555-0100",
		Email:         "ada@example.com",
		Note:          "met at conf",
		FrontImageURL: "https://blob.example/front.png",
	}
	card, err := svc.Create(ctx, input)
	require.NoError(t, err)

	assert.NotEmpty(t, card.ID)
	assert.Equal(t, input, domain.FieldsOf(card))
	assert.Nil(t, card.BackImageURL)
	assert.Equal(t, card.CreatedAt, card.UpdatedAt)

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventCardCreated, pub.events[0].Type)
	assert.Equal(t, card.ID, pub.events[0].Card.ID)
}

func TestCreateRejectsMissingRequiredFieldsWithoutPersisting(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CardFields{FirstName: "Ada", LastName: "Co", PhoneNumber: "1"})
	require.NoError(t, err)
	before, err := svc.List(ctx)
	require.NoError(t, err)

	for _, fields := range []domain.CardFields{
		{LastName: "Co", PhoneNumber: "555"},
		{FirstName: "Ada", PhoneNumber: "555"},
		{FirstName: "Ada", LastName: "Co"},
		{FirstName: " ", LastName: "Co", PhoneNumber: "555"},
	} {
		_, err := svc.Create(ctx, fields)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}

	after, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, pub.events, 1)
}

func TestUpdateOverwritesAllFields(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CardFields{
		FirstName: "Ada", LastName: "Co", PhoneNumber: "555-0100", Email: "ada@example.com",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, domain.CardFields{
		FirstName: "Ada", LastName: "Co", PhoneNumber: "555-0101", Note: "met at conf",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "555-0101", updated.PhoneNumber)
	assert.Equal(t, "met at conf", domain.Deref(updated.Note))
	assert.Nil(t, updated.Email, "update is an overwrite, not a merge")
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	require.Len(t, pub.events, 2)
	assert.Equal(t, domain.EventCardUpdated, pub.events[1].Type)
}

func TestUpdateUnknownIDLeavesStoreUntouched(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CardFields{FirstName: "Ada", LastName: "Co", PhoneNumber: "1"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "missing", domain.CardFields{FirstName: "X", LastName: "Y", PhoneNumber: "2"})
	assert.ErrorIs(t, err, domain.ErrCardNotFound)

	cards, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, created, cards[0])
}

func TestUpdateValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "", domain.CardFields{FirstName: "A", LastName: "B", PhoneNumber: "1"})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"id"}, vErr.Fields)

	_, err = svc.Update(ctx, "some-id", domain.CardFields{FirstName: "A"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListNewestFirst(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CardFields{FirstName: "A", LastName: "Co", PhoneNumber: "1"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, domain.CardFields{FirstName: "B", LastName: "Co", PhoneNumber: "2"})
	require.NoError(t, err)

	cards, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, second.ID, cards[0].ID)
	assert.Equal(t, first.ID, cards[1].ID)
}

func TestStoreFailuresAreStoreErrors(t *testing.T) {
	svc := NewCardService(failingRepository{err: errors.New("connection refused")}, nil, nil)
	ctx := context.Background()
	valid := domain.CardFields{FirstName: "A", LastName: "B", PhoneNumber: "1"}

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, domain.ErrStore)
	_, err = svc.Create(ctx, valid)
	assert.ErrorIs(t, err, domain.ErrStore)
	_, err = svc.Update(ctx, "id", valid)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPublishFailureDoesNotFailCreate(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	pub := &recordingPublisher{err: errors.New("nats: connection closed")}
	svc := NewCardService(memory.NewCardRepository(), pub, zap.New(core))

	card, err := svc.Create(context.Background(), domain.CardFields{FirstName: "A", LastName: "B", PhoneNumber: "1"})
	require.NoError(t, err)
	assert.NotNil(t, card)
	assert.Equal(t, 1, logs.FilterMessage("Failed to publish card event").Len())
}
