package blacklist

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/clipvault/internal/logging"
)

type fakeRepo struct {
	mu      sync.Mutex
	recs    map[string]*RevokedAccessToken
	failAll bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{recs: make(map[string]*RevokedAccessToken)}
}

func (f *fakeRepo) Add(_ context.Context, rec *RevokedAccessToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("storage unreachable")
	}
	if _, ok := f.recs[rec.TokenIdentifier]; ok {
		return nil
	}
	cp := *rec
	f.recs[rec.TokenIdentifier] = &cp
	return nil
}

func (f *fakeRepo) Exists(_ context.Context, identifier string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return false, errors.New("storage unreachable")
	}
	_, ok := f.recs[identifier]
	return ok, nil
}

func (f *fakeRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return 0, errors.New("storage unreachable")
	}
	var removed int64
	for id, rec := range f.recs {
		if rec.ExpiresAt.Before(now) {
			delete(f.recs, id)
			removed++
		}
	}
	return removed, nil
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

func TestRegistry_RevokeAndIsRevoked(t *testing.T) {
	repo := newFakeRepo()
	reg := NewRegistry(repo, discardLogger())
	ctx := context.Background()

	token := "header.payload.signature"
	require.NoError(t, reg.Revoke(ctx, token, 7, time.Now().Add(time.Hour)))

	revoked, err := reg.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = reg.IsRevoked(ctx, "some.other.token")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRegistry_RevokeTwiceIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	reg := NewRegistry(repo, discardLogger())
	ctx := context.Background()

	token := "header.payload.signature"
	require.NoError(t, reg.Revoke(ctx, token, 7, time.Now().Add(time.Hour)))
	require.NoError(t, reg.Revoke(ctx, token, 7, time.Now().Add(time.Hour)))

	assert.Len(t, repo.recs, 1)
}

func TestRegistry_SweepRemovesOnlyStaleRecords(t *testing.T) {
	repo := newFakeRepo()
	reg := NewRegistry(repo, discardLogger())
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, reg.Revoke(ctx, "stale", 1, now.Add(-time.Second)))
	require.NoError(t, reg.Revoke(ctx, "fresh", 1, now.Add(time.Hour)))

	reg.Sweep(ctx, now)

	stale, err := reg.IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, stale)

	fresh, err := reg.IsRevoked(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestRegistry_SweepFailureDoesNotPanic(t *testing.T) {
	repo := newFakeRepo()
	repo.failAll = true
	reg := NewRegistry(repo, discardLogger())

	// failure is logged and left for the next run
	reg.Sweep(context.Background(), time.Now())
}
