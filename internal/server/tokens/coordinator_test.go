package tokens

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/clipvault/internal/common"
	"github.com/avolkov/clipvault/internal/logging"
	"github.com/avolkov/clipvault/internal/server/auth"
	"github.com/avolkov/clipvault/internal/server/blacklist"
	"github.com/avolkov/clipvault/internal/server/refreshtokens"
)

var testSecret = []byte("test-secret")

// memRefreshRepo is an in-memory refreshtokens.Repository matching the
// single-statement atomicity of the Postgres implementation.
type memRefreshRepo struct {
	mu   sync.Mutex
	recs map[string]*refreshtokens.RefreshToken
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{recs: make(map[string]*refreshtokens.RefreshToken)}
}

func (m *memRefreshRepo) Create(_ context.Context, rec *refreshtokens.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[rec.Token]; ok {
		return common.ErrorAlreadyExists
	}
	cp := *rec
	m.recs[rec.Token] = &cp
	return nil
}

func (m *memRefreshRepo) Find(_ context.Context, token string) (*refreshtokens.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memRefreshRepo) MarkRevoked(_ context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[token]
	if !ok || rec.Revoked {
		return 0, nil
	}
	rec.Revoked = true
	return 1, nil
}

func (m *memRefreshRepo) RevokeAllForUser(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var affected int64
	for _, rec := range m.recs {
		if rec.UserID == userID && !rec.Revoked {
			rec.Revoked = true
			affected++
		}
	}
	return affected, nil
}

func (m *memRefreshRepo) SetReplacedBy(_ context.Context, token string, replacedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.recs[token]; ok && rec.Revoked {
		rec.ReplacedBy = replacedBy
	}
	return nil
}

// memBlacklistRepo is an in-memory blacklist.Repository.
type memBlacklistRepo struct {
	mu   sync.Mutex
	recs map[string]*blacklist.RevokedAccessToken
}

func newMemBlacklistRepo() *memBlacklistRepo {
	return &memBlacklistRepo{recs: make(map[string]*blacklist.RevokedAccessToken)}
}

func (m *memBlacklistRepo) Add(_ context.Context, rec *blacklist.RevokedAccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[rec.TokenIdentifier]; ok {
		return nil
	}
	cp := *rec
	m.recs[rec.TokenIdentifier] = &cp
	return nil
}

func (m *memBlacklistRepo) Exists(_ context.Context, identifier string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.recs[identifier]
	return ok, nil
}

func (m *memBlacklistRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, rec := range m.recs {
		if rec.ExpiresAt.Before(now) {
			delete(m.recs, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memBlacklistRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

type stubIdentities struct {
	mu   sync.Mutex
	byID map[int64]auth.Identity
}

func (s *stubIdentities) IdentityByID(_ context.Context, userID int64) (auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byID[userID]
	if !ok {
		return auth.Identity{}, common.ErrorNotFound
	}
	return id, nil
}

type fixture struct {
	coordinator *Coordinator
	validator   *Validator
	refreshRepo *memRefreshRepo
	blacklist   *memBlacklistRepo
	identities  *stubIdentities
}

func newFixture(t *testing.T, accessTTL time.Duration) *fixture {
	t.Helper()

	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))

	refreshRepo := newMemRefreshRepo()
	store := refreshtokens.NewStore(refreshRepo, testSecret, "clipvault", 7*24*time.Hour)

	blRepo := newMemBlacklistRepo()
	registry := blacklist.NewRegistry(blRepo, logger)

	identities := &stubIdentities{byID: map[int64]auth.Identity{
		42: {UserID: 42, Email: "user@example.com", Role: auth.RoleUser},
	}}

	return &fixture{
		coordinator: NewCoordinator(store, registry, identities, testSecret, "clipvault", accessTTL, logger),
		validator:   NewValidator(testSecret, registry),
		refreshRepo: refreshRepo,
		blacklist:   blRepo,
		identities:  identities,
	}
}

func identity42() auth.Identity {
	return auth.Identity{UserID: 42, Email: "user@example.com", Role: auth.RoleUser}
}

func TestIssuePair_RoundTrip(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	pair, err := f.coordinator.IssuePair(ctx, identity42())
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	claims, err := auth.ParseAccessToken(pair.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Subject)
	assert.Equal(t, "USER", claims.Role)

	assert.True(t, f.validator.IsValid(ctx, pair.AccessToken))
}

func TestRenew_RotatesAndReissues(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	pair, err := f.coordinator.IssuePair(ctx, identity42())
	require.NoError(t, err)

	renewed, err := f.coordinator.Renew(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, renewed.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, renewed.RefreshToken)

	// audit trail points at the replacement
	rec, err := f.refreshRepo.Find(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, rec.Revoked)
	assert.Equal(t, renewed.RefreshToken, rec.ReplacedBy)
}

func TestRenew_SecondUseOfSameRefreshTokenFails(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	pair, err := f.coordinator.IssuePair(ctx, identity42())
	require.NoError(t, err)

	_, err = f.coordinator.Renew(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)

	_, err = f.coordinator.Renew(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
}

func TestRenew_PreemptivelyRevokesAccessToken(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	pair, err := f.coordinator.IssuePair(ctx, identity42())
	require.NoError(t, err)

	_, err = f.coordinator.Renew(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)

	// the old access token is structurally valid and unexpired, yet refused
	_, parseErr := auth.ParseAccessToken(pair.AccessToken, testSecret)
	require.NoError(t, parseErr)
	assert.False(t, f.validator.IsValid(ctx, pair.AccessToken))
}

func TestRenew_UnknownRefreshToken(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	pair, err := f.coordinator.IssuePair(ctx, identity42())
	require.NoError(t, err)

	// signed for the right user but never persisted
	stray, err := auth.GenerateRefreshToken(42, "clipvault", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = f.coordinator.Renew(ctx, pair.AccessToken, stray)
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
}

func TestRenew_GarbageRefreshToken(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	pair, err := f.coordinator.IssuePair(ctx, identity42())
	require.NoError(t, err)

	_, err = f.coordinator.Renew(ctx, pair.AccessToken, "not-a-token")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
}

func TestRenew_IdentityLookupFailureIsCollapsed(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	pair, err := f.coordinator.IssuePair(ctx, identity42())
	require.NoError(t, err)

	// user deleted between issuance and renewal
	f.identities.mu.Lock()
	delete(f.identities.byID, 42)
	f.identities.mu.Unlock()

	_, err = f.coordinator.Renew(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
	assert.False(t, errors.Is(err, common.ErrorNotFound), "internal detail must not leak")
}

func TestRenew_ConcurrentAttemptsExactlyOneWins(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	pair, err := f.coordinator.IssuePair(ctx, identity42())
	require.NoError(t, err)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coordinator.Renew(ctx, pair.AccessToken, pair.RefreshToken)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, common.ErrInvalidCredential)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent renewal may succeed")
}

func TestLogout_RevokesBothTokens(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	pair, err := f.coordinator.IssuePair(ctx, identity42())
	require.NoError(t, err)

	require.NoError(t, f.coordinator.Logout(ctx, pair.AccessToken, pair.RefreshToken))

	assert.False(t, f.validator.IsValid(ctx, pair.AccessToken))

	rec, err := f.refreshRepo.Find(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, rec.Revoked)
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	pair, err := f.coordinator.IssuePair(ctx, identity42())
	require.NoError(t, err)

	require.NoError(t, f.coordinator.Logout(ctx, pair.AccessToken, pair.RefreshToken))
	require.NoError(t, f.coordinator.Logout(ctx, pair.AccessToken, pair.RefreshToken))

	assert.Equal(t, 1, f.blacklist.count())
}

func TestLogout_ConcurrentCallsConverge(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	pair, err := f.coordinator.IssuePair(ctx, identity42())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.coordinator.Logout(ctx, pair.AccessToken, pair.RefreshToken)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, 1, f.blacklist.count())
	rec, err := f.refreshRepo.Find(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, rec.Revoked)
}

func TestLogout_ExpiredAccessTokenStillSucceeds(t *testing.T) {
	f := newFixture(t, -time.Second)
	ctx := context.Background()

	pair, err := f.coordinator.IssuePair(ctx, identity42())
	require.NoError(t, err)

	assert.NoError(t, f.coordinator.Logout(ctx, pair.AccessToken, pair.RefreshToken))
}

func TestValidator_ExpiredTokenInvalidRegardlessOfRevocation(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	// token whose embedded expiry has already passed, never revoked
	expired, err := auth.GenerateAccessToken(42, "user@example.com", auth.RoleUser, "clipvault", testSecret, -time.Second)
	require.NoError(t, err)

	assert.False(t, f.validator.IsValid(ctx, expired))
	assert.Zero(t, f.blacklist.count())
}

func TestValidator_GarbageToken(t *testing.T) {
	f := newFixture(t, time.Hour)
	assert.False(t, f.validator.IsValid(context.Background(), "garbage"))
}
