// Package share implements the consumption gate for ephemeral text
// records: a share must pass existence, expiry, quota and password
// checks, in that order, before its content is revealed, and a
// successful consumption burns exactly one view.
package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"burnote.share/internal/credential"
	"burnote.share/internal/models"
	"burnote.share/internal/store"

	"github.com/rs/zerolog/log"
)

// Deny reasons. Every input-driven failure is one of these; anything
// else coming out of the service is an infrastructure error from the
// record store, passed through unchanged.
var (
	ErrNotFound          = errors.New("share not found")
	ErrExpired           = errors.New("share has expired")
	ErrQuotaExhausted    = errors.New("share has reached maximum views")
	ErrPasswordRequired  = errors.New("password required")
	ErrPasswordIncorrect = errors.New("password incorrect")

	ErrContentRequired = errors.New("content is required")
	ErrInvalidMaxViews = errors.New("max_views must be at least 1")
)

type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(s store.Store) *Service {
	return &Service{
		store: s,
		now:   time.Now,
	}
}

// CreateParams carries the creator-supplied fields. Zero values mean
// "not set": no password, unlimited views, no expiry.
type CreateParams struct {
	Content   string
	Password  string
	MaxViews  int
	ExpiresAt time.Time
}

// Metadata is what creation returns: everything about the share except
// its content and credential record.
type Metadata struct {
	ID        string    `json:"id"`
	MaxViews  int       `json:"max_views,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	CreatedAt time.Time `json:"created_at"`
}

// View is the payload of a successful consumption. ViewCount is the
// post-increment value.
type View struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	ViewCount int       `json:"view_count"`
	MaxViews  int       `json:"max_views,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is one entry of the admin listing. The credential record is
// omitted; whether a password exists at all is exposed as a flag.
type Summary struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	HasPassword bool      `json:"has_password"`
	ViewCount   int       `json:"view_count"`
	MaxViews    int       `json:"max_views,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
	CreatedAt   time.Time `json:"created_at"`
}

// Create validates the parameters, hashes the password when one is
// given and stores the new share. MaxViews, when set, must be at least
// one; a share that could never be viewed is rejected rather than
// stored pre-exhausted.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Metadata, error) {
	if p.Content == "" {
		return nil, ErrContentRequired
	}
	if p.MaxViews < 0 {
		return nil, ErrInvalidMaxViews
	}

	var record string
	if p.Password != "" {
		var err error
		record, err = credential.Hash(p.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
	}

	share := &models.Share{
		ID:               GenerateID(),
		Content:          p.Content,
		CredentialRecord: record,
		MaxViews:         p.MaxViews,
		ExpiresAt:        p.ExpiresAt,
		CreatedAt:        s.now(),
	}

	if err := s.store.Save(ctx, share); err != nil {
		return nil, err
	}

	log.Debug().Str("id", share.ID).Bool("password", record != "").
		Int("max_views", share.MaxViews).Msg("share created")

	return &Metadata{
		ID:        share.ID,
		MaxViews:  share.MaxViews,
		ExpiresAt: share.ExpiresAt,
		CreatedAt: share.CreatedAt,
	}, nil
}

// Consume runs the gate sequence for id and, when every gate passes,
// burns one view and returns the content.
//
// The gates are ordered: existence, expiry, quota, then password. An
// expired or exhausted share denies before the password is even looked
// at, so a dead share can never be used to probe whether a guess was
// right.
func (s *Service) Consume(ctx context.Context, id, candidateSecret string) (*View, error) {
	share, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if share.Expired(s.now()) {
		return nil, ErrExpired
	}

	if share.Exhausted() {
		return nil, ErrQuotaExhausted
	}

	if share.HasPassword() {
		if candidateSecret == "" {
			return nil, ErrPasswordRequired
		}
		if !credential.Verify(share.CredentialRecord, candidateSecret) {
			return nil, ErrPasswordIncorrect
		}
	}

	// The increment re-checks the quota atomically; the read above may
	// be stale by the time we get here.
	newCount, err := s.store.ConditionalIncrementView(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrQuotaExceeded):
			// Lost the race to a concurrent consumer.
			return nil, ErrQuotaExhausted
		case errors.Is(err, store.ErrNotFound):
			// Deleted between the read and the increment.
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &View{
		ID:        share.ID,
		Content:   share.Content,
		ViewCount: newCount,
		MaxViews:  share.MaxViews,
		ExpiresAt: share.ExpiresAt,
		CreatedAt: share.CreatedAt,
	}, nil
}

// List returns all shares newest first, without credential records.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	shares, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(shares))
	for _, share := range shares {
		summaries = append(summaries, Summary{
			ID:          share.ID,
			Content:     share.Content,
			HasPassword: share.HasPassword(),
			ViewCount:   share.ViewCount,
			MaxViews:    share.MaxViews,
			ExpiresAt:   share.ExpiresAt,
			CreatedAt:   share.CreatedAt,
		})
	}
	return summaries, nil
}

// Remove deletes a share unconditionally. A second delete of the same
// id reports ErrNotFound.
func (s *Service) Remove(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// SweepExpired deletes every share whose expiry is at or before now and
// returns the count removed. Quota exhaustion is not a sweep criterion;
// exhausted shares stay until they expire or an admin removes them.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	deleted, err := s.store.DeleteExpiredBefore(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("swept expired shares")
	}
	return deleted, nil
}
