package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/duynhne/card-service/internal/core/domain"
)

var (
	// ErrUploadPending is returned by Submit while an image upload is in flight
	ErrUploadPending = errors.New("image upload still in progress")
	// ErrUploadInProgress is returned when a second upload starts on a busy side
	ErrUploadInProgress = errors.New("upload already in progress for this image")
	// ErrSaveInProgress is returned when Submit is called while a save is running
	ErrSaveInProgress = errors.New("save already in progress")
	// ErrFormReset is delivered by an upload that finished after its form was discarded
	ErrFormReset = errors.New("form was reset before the upload finished")
)

// CardAPI is the remote surface a Session needs. *Client implements it.
type CardAPI interface {
	ListCards(ctx context.Context) ([]*domain.BusinessCard, error)
	CreateCard(ctx context.Context, fields domain.CardFields) (*domain.BusinessCard, error)
	UpdateCard(ctx context.Context, id string, fields domain.CardFields) (*domain.BusinessCard, error)
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// ImageSide selects which image URL field an upload fills
type ImageSide string

const (
	FrontImage ImageSide = "front"
	BackImage  ImageSide = "back"
)

// SaveStatus is the outcome of the last Submit
type SaveStatus int

const (
	StatusIdle SaveStatus = iota
	StatusSaving
	StatusSaved
	StatusFailed
)

func (s SaveStatus) String() string {
	switch s {
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Session holds the client-side state of the card form: the loaded list,
// the form fields, the card being edited, per-image upload progress and the
// last save outcome. It is safe for concurrent use; network calls run
// without holding the lock.
type Session struct {
	api CardAPI

	mu        sync.Mutex
	cards     []*domain.BusinessCard
	form      domain.CardFields
	editing   *domain.BusinessCard
	uploading map[ImageSide]bool
	uploadErr map[ImageSide]error
	formGen   uint64 // bumped on every form reset; stale uploads are dropped
	status    SaveStatus
	lastErr   error
	search    string
}

// NewSession creates an empty session bound to api
func NewSession(api CardAPI) *Session {
	return &Session{
		api:       api,
		uploading: make(map[ImageSide]bool),
		uploadErr: make(map[ImageSide]error),
	}
}

// Refresh reloads the card list from the service
func (s *Session) Refresh(ctx context.Context) error {
	cards, err := s.api.ListCards(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cards = cards
	s.mu.Unlock()
	return nil
}

// Cards returns the loaded list, newest first
func (s *Session) Cards() []*domain.BusinessCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.BusinessCard(nil), s.cards...)
}

// SetSearch sets the term used by Visible
func (s *Session) SetSearch(term string) {
	s.mu.Lock()
	s.search = term
	s.mu.Unlock()
}

// Visible returns the loaded cards matching the current search term
func (s *Session) Visible() []*domain.BusinessCard {
	s.mu.Lock()
	cards := append([]*domain.BusinessCard(nil), s.cards...)
	term := s.search
	s.mu.Unlock()
	return Filter(cards, term)
}

// Find looks up a loaded card by id
func (s *Session) Find(id string) (*domain.BusinessCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, card := range s.cards {
		if card.ID == id {
			return card, true
		}
	}
	return nil, false
}

// Form returns a copy of the current form fields
func (s *Session) Form() domain.CardFields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// SetForm replaces the form fields
func (s *Session) SetForm(fields domain.CardFields) {
	s.mu.Lock()
	s.form = fields
	s.mu.Unlock()
}

// UpdateForm applies fn to the form fields under the session lock
func (s *Session) UpdateForm(fn func(*domain.CardFields)) {
	s.mu.Lock()
	fn(&s.form)
	s.mu.Unlock()
}

// Editing returns the card being edited, or nil in create mode
func (s *Session) Editing() *domain.BusinessCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

// StartEdit switches to edit mode for a loaded card and copies its fields
// into the form.
func (s *Session) StartEdit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, card := range s.cards {
		if card.ID == id {
			s.editing = card
			s.form = domain.FieldsOf(card)
			s.formGen++
			s.status, s.lastErr = StatusIdle, nil
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrCardNotFound, id)
}

// CancelEdit clears the form and returns to create mode
func (s *Session) CancelEdit() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
}

func (s *Session) resetLocked() {
	s.editing = nil
	s.form = domain.CardFields{}
	s.formGen++
}

// Uploading reports whether side has an upload in flight
func (s *Session) Uploading(side ImageSide) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading[side]
}

// UploadErr returns the error of the last finished upload for side
func (s *Session) UploadErr(side ImageSide) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadErr[side]
}

// StartUpload uploads r for side in the background. On success the matching
// image URL form field is set; on failure the field is left unchanged and
// the error is recorded. An upload finishing after the form was reset or
// switched to another card does not touch the new form. The returned channel
// receives the result once. Front and back uploads run independently.
func (s *Session) StartUpload(ctx context.Context, side ImageSide, filename string, r io.Reader) (<-chan error, error) {
	if side != FrontImage && side != BackImage {
		return nil, fmt.Errorf("unknown image side %q", side)
	}

	s.mu.Lock()
	if s.uploading[side] {
		s.mu.Unlock()
		return nil, ErrUploadInProgress
	}
	s.uploading[side] = true
	delete(s.uploadErr, side)
	gen := s.formGen
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		url, err := s.api.Upload(ctx, filename, r)

		s.mu.Lock()
		s.uploading[side] = false
		switch {
		case err != nil:
			s.uploadErr[side] = err
		case gen != s.formGen:
			err = ErrFormReset
		default:
			switch side {
			case FrontImage:
				s.form.FrontImageURL = url
			case BackImage:
				s.form.BackImageURL = url
			}
		}
		s.mu.Unlock()

		done <- err
	}()
	return done, nil
}

// Status returns the last save outcome and its error, if any
func (s *Session) Status() (SaveStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.lastErr
}

// Submit saves the form: update when editing, create otherwise. It is
// rejected while any upload is pending. On success the list is updated in
// place (replace on update, prepend on create) and the form is reset; on
// failure the form is kept for correction.
func (s *Session) Submit(ctx context.Context) (*domain.BusinessCard, error) {
	s.mu.Lock()
	if s.status == StatusSaving {
		s.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	if s.uploading[FrontImage] || s.uploading[BackImage] {
		s.mu.Unlock()
		return nil, ErrUploadPending
	}
	fields := s.form
	editing := s.editing
	if err := fields.Validate(); err != nil {
		s.status, s.lastErr = StatusFailed, err
		s.mu.Unlock()
		return nil, err
	}
	s.status, s.lastErr = StatusSaving, nil
	s.mu.Unlock()

	var (
		saved *domain.BusinessCard
		err   error
	)
	if editing != nil {
		saved, err = s.api.UpdateCard(ctx, editing.ID, fields)
	} else {
		saved, err = s.api.CreateCard(ctx, fields)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status, s.lastErr = StatusFailed, err
		return nil, err
	}

	if editing != nil {
		replaced := false
		for i, card := range s.cards {
			if card.ID == saved.ID {
				s.cards[i] = saved
				replaced = true
				break
			}
		}
		if !replaced {
			s.cards = append([]*domain.BusinessCard{saved}, s.cards...)
		}
	} else {
		s.cards = append([]*domain.BusinessCard{saved}, s.cards...)
	}
	s.resetLocked()
	s.status = StatusSaved
	return saved, nil
}
