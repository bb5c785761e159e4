package client

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/card-service/internal/core/domain"
)

func TestSessionCreateEditFlow(t *testing.T) {
	srv := newServer(t, false)
	s := NewSession(New(srv.URL))
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	assert.Empty(t, s.Cards())

	s.SetForm(domain.CardFields{FirstName: "Ada", LastName: "Co", PhoneNumber: "555-0100"})
	first, err := s.Submit(ctx)
	require.NoError(t, err)
	status, _ := s.Status()
	assert.Equal(t, StatusSaved, status)
	assert.Equal(t, domain.CardFields{}, s.Form(), "form resets after save")

	s.SetForm(domain.CardFields{FirstName: "Grace", LastName: "Hopper", PhoneNumber: "555-0200"})
	second, err := s.Submit(ctx)
	require.NoError(t, err)

	cards := s.Cards()
	require.Len(t, cards, 2)
	assert.Equal(t, second.ID, cards[0].ID, "created cards are prepended")

	require.NoError(t, s.StartEdit(first.ID))
	assert.Equal(t, "555-0100", s.Form().PhoneNumber)
	s.UpdateForm(func(f *domain.CardFields) {
		f.PhoneNumber = "555-0101"
		f.Note = "met at conf"
	})
	updated, err := s.Submit(ctx)
	require.NoError(t, err)
	assert.Nil(t, s.Editing())

	cards = s.Cards()
	require.Len(t, cards, 2)
	assert.Equal(t, updated.ID, cards[1].ID, "updated card keeps its position")
	assert.Equal(t, "555-0101", cards[1].PhoneNumber)

	// the server agrees with the local list
	require.NoError(t, s.Refresh(ctx))
	found, ok := s.Find(first.ID)
	require.True(t, ok)
	assert.Equal(t, "met at conf", domain.Deref(found.Note))
}

func TestSessionSubmitFailureKeepsForm(t *testing.T) {
	srv := newServer(t, false)
	s := NewSession(New(srv.URL))
	ctx := context.Background()

	s.SetForm(domain.CardFields{LastName: "Co", PhoneNumber: "555"})
	_, err := s.Submit(ctx)
	require.ErrorIs(t, err, domain.ErrValidation)
	status, statusErr := s.Status()
	assert.Equal(t, StatusFailed, status)
	assert.ErrorIs(t, statusErr, domain.ErrValidation)
	assert.Equal(t, "Co", s.Form().LastName)
	assert.Empty(t, s.Cards())
}

func TestSessionStartEditUnknownCard(t *testing.T) {
	s := NewSession(New("http://127.0.0.1:0"))
	assert.ErrorIs(t, s.StartEdit("nope"), domain.ErrCardNotFound)
}

func TestSessionCancelEdit(t *testing.T) {
	srv := newServer(t, false)
	s := NewSession(New(srv.URL))
	ctx := context.Background()

	s.SetForm(domain.CardFields{FirstName: "Ada", LastName: "Co", PhoneNumber: "1"})
	card, err := s.Submit(ctx)
	require.NoError(t, err)

	require.NoError(t, s.StartEdit(card.ID))
	require.NotNil(t, s.Editing())
	s.CancelEdit()
	assert.Nil(t, s.Editing())
	assert.Equal(t, domain.CardFields{}, s.Form())
}

func TestSessionUploadsAreIndependentAndGateSubmit(t *testing.T) {
	srv := newServer(t, false)
	api := newBlockingAPI(New(srv.URL))
	s := NewSession(api)
	ctx := context.Background()

	s.SetForm(domain.CardFields{FirstName: "Ada", LastName: "Co", PhoneNumber: "1"})

	frontDone, err := s.StartUpload(ctx, FrontImage, "front.png", strings.NewReader("f"))
	require.NoError(t, err)
	backDone, err := s.StartUpload(ctx, BackImage, "back.png", strings.NewReader("b"))
	require.NoError(t, err)

	assert.True(t, s.Uploading(FrontImage))
	assert.True(t, s.Uploading(BackImage))

	_, err = s.StartUpload(ctx, FrontImage, "again.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUploadInProgress)

	_, err = s.Submit(ctx)
	assert.ErrorIs(t, err, ErrUploadPending)

	// back finishes first; front stays busy
	api.gate("back.png") <- nil
	require.NoError(t, <-backDone)
	assert.False(t, s.Uploading(BackImage))
	assert.True(t, s.Uploading(FrontImage))
	assert.Equal(t, "https://blobs.example/back.png", s.Form().BackImageURL)

	_, err = s.Submit(ctx)
	assert.ErrorIs(t, err, ErrUploadPending)

	api.gate("front.png") <- errors.New("network down")
	require.Error(t, <-frontDone)
	assert.False(t, s.Uploading(FrontImage))
	assert.Error(t, s.UploadErr(FrontImage))
	assert.Empty(t, s.Form().FrontImageURL, "failed upload leaves the field unchanged")

	card, err := s.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://blobs.example/back.png", domain.Deref(card.BackImageURL))
	assert.Nil(t, card.FrontImageURL)
}

func TestSessionUploadAfterCancelEditIsDropped(t *testing.T) {
	srv := newServer(t, false)
	api := newBlockingAPI(New(srv.URL))
	s := NewSession(api)
	ctx := context.Background()

	s.SetForm(domain.CardFields{FirstName: "Ada", LastName: "Co", PhoneNumber: "1"})
	card, err := s.Submit(ctx)
	require.NoError(t, err)

	require.NoError(t, s.StartEdit(card.ID))
	done, err := s.StartUpload(ctx, FrontImage, "a.png", strings.NewReader("a"))
	require.NoError(t, err)

	s.CancelEdit()
	api.gate("a.png") <- nil
	assert.ErrorIs(t, <-done, ErrFormReset)

	assert.False(t, s.Uploading(FrontImage))
	assert.Nil(t, s.Editing())
	assert.Equal(t, domain.CardFields{}, s.Form(), "abandoned upload does not leak into the new form")

	// the next card created from the fresh form carries no image
	s.SetForm(domain.CardFields{FirstName: "Grace", LastName: "Hopper", PhoneNumber: "2"})
	created, err := s.Submit(ctx)
	require.NoError(t, err)
	assert.Nil(t, created.FrontImageURL)
}

func TestSessionUnknownSide(t *testing.T) {
	s := NewSession(New("http://127.0.0.1:0"))
	_, err := s.StartUpload(context.Background(), ImageSide("side"), "x.png", strings.NewReader(""))
	assert.Error(t, err)
}

func TestSaveStatusString(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "saving", StatusSaving.String())
	assert.Equal(t, "saved", StatusSaved.String())
	assert.Equal(t, "failed", StatusFailed.String())
}
