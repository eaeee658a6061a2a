package store

import (
	"context"
	"errors"
	"time"

	"burnote.share/internal/models"
)

var (
	ErrNotFound      = errors.New("share not found")
	ErrQuotaExceeded = errors.New("share has reached maximum views")
)

// Store is the record store the gating layer runs against. Get is a
// plain fetch with no expiry or quota interpretation; all gating
// decisions belong to the caller. ConditionalIncrementView is the one
// operation that must be atomic per id: it increments the view counter
// only while the quota (if any) still has room, and returns
// ErrQuotaExceeded otherwise.
type Store interface {
	Save(ctx context.Context, share *models.Share) error
	Get(ctx context.Context, id string) (*models.Share, error)
	ConditionalIncrementView(ctx context.Context, id string) (newCount int, err error)
	Delete(ctx context.Context, id string) error
	DeleteExpiredBefore(ctx context.Context, now time.Time) (int, error)
	ListAll(ctx context.Context) ([]*models.Share, error)
	Close() error
}
