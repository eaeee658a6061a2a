package share

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"burnote.share/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })
	return NewService(st)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Create(ctx, CreateParams{})
	assert.ErrorIs(t, err, ErrContentRequired)

	_, err = svc.Create(ctx, CreateParams{Content: "x", MaxViews: -1})
	assert.ErrorIs(t, err, ErrInvalidMaxViews)

	meta, err := svc.Create(ctx, CreateParams{Content: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, meta.ID)
	assert.Zero(t, meta.MaxViews)
	assert.True(t, meta.ExpiresAt.IsZero())
	assert.False(t, meta.CreatedAt.IsZero())
}

func TestCreateNeverReturnsContentOrCredential(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	meta, err := svc.Create(ctx, CreateParams{Content: "top secret", Password: "pw"})
	require.NoError(t, err)

	// Metadata carries id and constraints only.
	assert.Equal(t, Metadata{
		ID:        meta.ID,
		CreatedAt: meta.CreatedAt,
	}, *meta)
}

func TestConsumeNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Consume(ctx, "no-such-id", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeQuotaScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	meta, err := svc.Create(ctx, CreateParams{Content: "hello", MaxViews: 2})
	require.NoError(t, err)

	view, err := svc.Consume(ctx, meta.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", view.Content)
	assert.Equal(t, 1, view.ViewCount)
	assert.Equal(t, 2, view.MaxViews)

	view, err = svc.Consume(ctx, meta.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, view.ViewCount)

	_, err = svc.Consume(ctx, meta.ID, "")
	assert.ErrorIs(t, err, ErrQuotaExhausted)
}

func TestConsumePasswordScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	meta, err := svc.Create(ctx, CreateParams{Content: "hello", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Consume(ctx, meta.ID, "")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = svc.Consume(ctx, meta.ID, "wrong")
	assert.ErrorIs(t, err, ErrPasswordIncorrect)

	view, err := svc.Consume(ctx, meta.ID, "secret123")
	require.NoError(t, err)
	assert.Equal(t, "hello", view.Content)
	assert.Equal(t, 1, view.ViewCount)

	// Failed attempts must not have consumed views.
	view, err = svc.Consume(ctx, meta.ID, "secret123")
	require.NoError(t, err)
	assert.Equal(t, 2, view.ViewCount)
}

// An expired share denies with Expired no matter what else is wrong
// with the request, and before the password is ever checked: a dead
// share must not serve as a password oracle.
func TestConsumeExpiryWinsOverEverything(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	meta, err := svc.Create(ctx, CreateParams{
		Content:   "hello",
		Password:  "pw",
		MaxViews:  1,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	// Jump past the expiry without sweeping.
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	for _, secret := range []string{"", "wrong", "pw"} {
		_, err := svc.Consume(ctx, meta.ID, secret)
		assert.ErrorIs(t, err, ErrExpired)
	}
}

// Quota exhaustion is checked before the password, same reasoning as
// expiry.
func TestConsumeQuotaWinsOverPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	meta, err := svc.Create(ctx, CreateParams{Content: "hello", Password: "pw", MaxViews: 1})
	require.NoError(t, err)

	_, err = svc.Consume(ctx, meta.ID, "pw")
	require.NoError(t, err)

	_, err = svc.Consume(ctx, meta.ID, "")
	assert.ErrorIs(t, err, ErrQuotaExhausted,
		"exhausted share must not report PasswordRequired")
	_, err = svc.Consume(ctx, meta.ID, "wrong")
	assert.ErrorIs(t, err, ErrQuotaExhausted)
}

func TestConsumeConcurrentSingleView(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	meta, err := svc.Create(ctx, CreateParams{Content: "once", MaxViews: 1})
	require.NoError(t, err)

	const workers = 25
	var wg sync.WaitGroup
	views := make(chan *View, workers)
	denials := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view, err := svc.Consume(ctx, meta.ID, "")
			if err != nil {
				denials <- err
				return
			}
			views <- view
		}()
	}
	wg.Wait()
	close(views)
	close(denials)

	var got []*View
	for v := range views {
		got = append(got, v)
	}
	require.Len(t, got, 1, "exactly one concurrent consumer may win a maxViews=1 share")
	assert.Equal(t, "once", got[0].Content)
	assert.Equal(t, 1, got[0].ViewCount)

	for err := range denials {
		assert.ErrorIs(t, err, ErrQuotaExhausted)
	}
}

func TestListNewestFirstWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	base := time.Now()
	clock := base
	svc.now = func() time.Time { return clock }

	first, err := svc.Create(ctx, CreateParams{Content: "first", Password: "pw"})
	require.NoError(t, err)
	clock = base.Add(time.Second)
	second, err := svc.Create(ctx, CreateParams{Content: "second"})
	require.NoError(t, err)

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, second.ID, summaries[0].ID)
	assert.Equal(t, first.ID, summaries[1].ID)
	assert.True(t, summaries[1].HasPassword)
	assert.False(t, summaries[0].HasPassword)
}

func TestRemoveIdempotenceSignalsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	meta, err := svc.Create(ctx, CreateParams{Content: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, meta.ID))
	assert.ErrorIs(t, svc.Remove(ctx, meta.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, "never-existed"), ErrNotFound)
}

func TestRemoveSkipsGates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	meta, err := svc.Create(ctx, CreateParams{
		Content:   "x",
		Password:  "pw",
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	// Expired and password-protected, removed without any gate check.
	assert.NoError(t, svc.Remove(ctx, meta.ID))
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	now := time.Now()
	_, err := svc.Create(ctx, CreateParams{Content: "dead", ExpiresAt: now.Add(-time.Minute)})
	require.NoError(t, err)
	alive, err := svc.Create(ctx, CreateParams{Content: "alive", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	exhausted, err := svc.Create(ctx, CreateParams{Content: "spent", MaxViews: 1})
	require.NoError(t, err)
	_, err = svc.Consume(ctx, exhausted.ID, "")
	require.NoError(t, err)

	deleted, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted, "only expired shares are swept, never exhausted ones")

	deleted, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	_, err = svc.Consume(ctx, alive.ID, "")
	assert.NoError(t, err)
}

// An expired share that the sweep has not reached yet still denies.
func TestExpiredUnsweptStillDenied(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	meta, err := svc.Create(ctx, CreateParams{Content: "x", ExpiresAt: time.Now().Add(-time.Second)})
	require.NoError(t, err)

	_, err = svc.Consume(ctx, meta.ID, "")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
