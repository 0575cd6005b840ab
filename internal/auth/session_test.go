package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterbloom/booking-api/internal/model"
	"github.com/shutterbloom/booking-api/internal/repository"
	"github.com/shutterbloom/booking-api/internal/utils"
)

type fakeUserStore struct {
	users map[string]model.User // by email
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := s.users[email]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

type fakeToken struct {
	userID    uint64
	expiresAt time.Time
}

// fakeRefreshStore mirrors the repository contract: tokens carry an expiry,
// Issue sweeps the user's expired rows inline, Consume deletes the row and at
// most one caller wins per token value. An expired token is never consumable.
type fakeRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]fakeToken
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{tokens: map[string]fakeToken{}}
}

func (s *fakeRefreshStore) Issue(_ context.Context, userID uint64) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for tok, rec := range s.tokens {
		if rec.userID == userID && !rec.expiresAt.After(now) {
			delete(s.tokens, tok)
		}
	}
	tok, err := utils.NewOpaqueToken(24)
	if err != nil {
		return "", time.Time{}, err
	}
	exp := now.Add(7 * 24 * time.Hour)
	s.tokens[tok] = fakeToken{userID: userID, expiresAt: exp}
	return tok, exp, nil
}

func (s *fakeRefreshStore) Consume(_ context.Context, token string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[token]
	if !ok || !rec.expiresAt.After(time.Now()) {
		return 0, repository.ErrNotFound
	}
	delete(s.tokens, token)
	return rec.userID, nil
}

func (s *fakeRefreshStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, rec := range s.tokens {
		if rec.userID == userID {
			delete(s.tokens, tok)
		}
	}
	return nil
}

func (s *fakeRefreshStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// seed inserts a token with an explicit expiry, bypassing Issue's sweep.
func (s *fakeRefreshStore) seed(token string, userID uint64, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = fakeToken{userID: userID, expiresAt: expiresAt}
}

func (s *fakeRefreshStore) expiredCountFor(userID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rec := range s.tokens {
		if rec.userID == userID && !rec.expiresAt.After(time.Now()) {
			n++
		}
	}
	return n
}

const testPassword = "correct-horse-9"

func newTestManager(t *testing.T) (*SessionManager, *fakeUserStore, *fakeRefreshStore) {
	t.Helper()
	hash, err := utils.HashPassword(testPassword, 4) // min cost, tests only
	require.NoError(t, err)

	users := &fakeUserStore{users: map[string]model.User{
		"ana@example.com": {ID: 1, Name: "Ana", Email: "ana@example.com", HashedPassword: hash, IsActive: true},
		"off@example.com": {ID: 2, Name: "Off", Email: "off@example.com", HashedPassword: hash, IsActive: false},
	}}
	tokens := newFakeRefreshStore()
	return NewSessionManager(testSecret, 60, users, tokens), users, tokens
}

func TestLogin_Success(t *testing.T) {
	m, _, tokens := newTestManager(t)

	s, err := m.Login(context.Background(), "ana@example.com", testPassword)
	require.NoError(t, err)

	claims, err := VerifyAccessToken(testSecret, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)

	assert.NotEmpty(t, s.RefreshRaw)
	assert.Equal(t, UserSummary{ID: 1, Name: "Ana", Email: "ana@example.com"}, s.User)
	assert.Equal(t, 1, tokens.count())
}

// Unknown email, wrong password and a deactivated account must all collapse
// into the same error so the response cannot be used to probe for accounts.
func TestLogin_UniformFailure(t *testing.T) {
	m, _, _ := newTestManager(t)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", testPassword},
		{"wrong password", "ana@example.com", "wrong-password-1"},
		{"inactive account", "off@example.com", testPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Login(context.Background(), tc.email, tc.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestRefresh_Rotation(t *testing.T) {
	m, _, _ := newTestManager(t)

	s1, err := m.Login(context.Background(), "ana@example.com", testPassword)
	require.NoError(t, err)

	s2, err := m.Refresh(context.Background(), s1.RefreshRaw)
	require.NoError(t, err)
	assert.NotEqual(t, s1.RefreshRaw, s2.RefreshRaw, "refresh must rotate the token")
	assert.Equal(t, uint64(1), s2.User.ID)

	// The consumed token is dead; presenting it again fails.
	_, err = m.Refresh(context.Background(), s1.RefreshRaw)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// The rotated one still works.
	_, err = m.Refresh(context.Background(), s2.RefreshRaw)
	assert.NoError(t, err)
}

func TestRefresh_UnknownToken(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	m, _, tokens := newTestManager(t)
	tokens.seed("stale-token", 1, time.Now().Add(-time.Hour))

	_, err := m.Refresh(context.Background(), "stale-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

// Issuing a token sweeps the user's expired rows as a side effect; other
// users' rows are left alone.
func TestIssue_SweepsExpiredTokens(t *testing.T) {
	m, _, tokens := newTestManager(t)
	tokens.seed("stale-a", 1, time.Now().Add(-time.Hour))
	tokens.seed("stale-b", 1, time.Now().Add(-time.Minute))
	tokens.seed("stale-other", 2, time.Now().Add(-time.Hour))
	require.Equal(t, 2, tokens.expiredCountFor(1))

	_, err := m.Login(context.Background(), "ana@example.com", testPassword)
	require.NoError(t, err)

	assert.Equal(t, 0, tokens.expiredCountFor(1))
	assert.Equal(t, 1, tokens.expiredCountFor(2))
}

func TestRefresh_UserGoneOrInactive(t *testing.T) {
	m, users, _ := newTestManager(t)

	s, err := m.Login(context.Background(), "ana@example.com", testPassword)
	require.NoError(t, err)

	u := users.users["ana@example.com"]
	u.IsActive = false
	users.users["ana@example.com"] = u

	_, err = m.Refresh(context.Background(), s.RefreshRaw)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// Many goroutines race to consume the same refresh token; exactly one may
// win, everyone else gets ErrInvalidRefreshToken.
func TestRefresh_ConcurrentSingleUse(t *testing.T) {
	m, _, _ := newTestManager(t)

	s, err := m.Login(context.Background(), "ana@example.com", testPassword)
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Refresh(context.Background(), s.RefreshRaw)
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		}
	}
	assert.Equal(t, 1, wins, "exactly one consumer may win")
}

func TestLogout_RevokesAllTokens(t *testing.T) {
	m, _, tokens := newTestManager(t)

	s1, err := m.Login(context.Background(), "ana@example.com", testPassword)
	require.NoError(t, err)
	s2, err := m.Login(context.Background(), "ana@example.com", testPassword)
	require.NoError(t, err)
	require.Equal(t, 2, tokens.count())

	require.NoError(t, m.Logout(context.Background(), 1))
	assert.Equal(t, 0, tokens.count())

	_, err = m.Refresh(context.Background(), s1.RefreshRaw)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, err = m.Refresh(context.Background(), s2.RefreshRaw)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}
