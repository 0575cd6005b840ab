package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shutterbloom/booking-api/internal/model"
	"github.com/shutterbloom/booking-api/internal/repository"
	"github.com/shutterbloom/booking-api/internal/utils"
)

var (
	// ErrInvalidCredentials is returned for unknown email, wrong password
	// and inactive accounts alike. The uniform error avoids telling an
	// attacker which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRefreshToken is returned when a presented refresh token is
	// unknown, expired or already consumed. Kept separate from the access
	// codec's ErrInvalidToken so each credential type owns its sentinel;
	// handlers map both to the same 401.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

	// ErrUserNotFound is returned when a refresh token resolves to a user
	// that no longer exists or was deactivated.
	ErrUserNotFound = errors.New("user not found")
)

// UserStore is the subset of the user repository the session manager needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RefreshStore persists refresh credentials. Issue creates a fresh token,
// Consume atomically uses one up (at most one success per token value) and
// RevokeAllForUser drops every token a user holds.
type RefreshStore interface {
	Issue(ctx context.Context, userID uint64) (token string, expiresAt time.Time, err error)
	Consume(ctx context.Context, token string) (userID uint64, err error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// UserSummary is the public projection of a user returned alongside tokens.
// It never carries the password hash.
type UserSummary struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session bundles a freshly issued access token, the refresh token that can
// renew it, and the owning user's summary.
type Session struct {
	AccessToken string
	AccessExp   time.Time
	RefreshRaw  string
	RefreshExp  time.Time
	User        UserSummary
}

// SessionManager orchestrates login, refresh rotation and logout on top of
// the credential codec and the two stores.
type SessionManager struct {
	secret    string
	accessTTL time.Duration
	users     UserStore
	tokens    RefreshStore
}

func NewSessionManager(secret string, accessTTLMin int, users UserStore, tokens RefreshStore) *SessionManager {
	return &SessionManager{
		secret:    secret,
		accessTTL: time.Duration(accessTTLMin) * time.Minute,
		users:     users,
		tokens:    tokens,
	}
}

// Login verifies the email/password pair and, on success, issues an access
// token and a refresh token. Unknown email, wrong password and inactive
// accounts all return ErrInvalidCredentials.
func (m *SessionManager) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.HashedPassword, password) {
		return Session{}, ErrInvalidCredentials
	}
	s, err := m.issueSession(ctx, u)
	if err != nil {
		return Session{}, err
	}
	log.Info().Uint64("user_id", u.ID).Msg("user logged in")
	return s, nil
}

// Refresh consumes a presented refresh token (single use) and rotates it:
// the old record is gone before the replacement is issued. The owning user
// must still exist and be active.
func (m *SessionManager) Refresh(ctx context.Context, raw string) (Session, error) {
	userID, err := m.tokens.Consume(ctx, raw)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrTokenConsumed) {
			return Session{}, ErrInvalidRefreshToken
		}
		return Session{}, fmt.Errorf("consume refresh token: %w", err)
	}
	u, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrUserNotFound
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return Session{}, ErrUserNotFound
	}
	s, err := m.issueSession(ctx, u)
	if err != nil {
		return Session{}, err
	}
	log.Info().Uint64("user_id", u.ID).Msg("session refreshed")
	return s, nil
}

// Logout revokes every refresh token the user holds. The handler clears the
// client cookie on top of this.
func (m *SessionManager) Logout(ctx context.Context, userID uint64) error {
	if err := m.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	log.Info().Uint64("user_id", userID).Msg("user logged out")
	return nil
}

func (m *SessionManager) issueSession(ctx context.Context, u model.User) (Session, error) {
	access, err := IssueAccessToken(m.secret, u.ID, u.Email, u.Name, m.accessTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, exp, err := m.tokens.Issue(ctx, u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return Session{
		AccessToken: access.Token,
		AccessExp:   access.Exp,
		RefreshRaw:  refresh,
		RefreshExp:  exp,
		User:        UserSummary{ID: u.ID, Name: u.Name, Email: u.Email},
	}, nil
}
