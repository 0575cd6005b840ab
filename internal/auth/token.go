// Package auth implements the access-credential codec and the session
// manager that orchestrates login, refresh-token rotation and logout.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// expiryWarnWindow triggers a log warning when a verified token has this
// much validity (or less) remaining.
const expiryWarnWindow = 5 * time.Minute

// ErrInvalidToken is returned for every verification failure: malformed
// structure, wrong algorithm, bad signature or expiry in the past. Callers
// must not learn which one it was.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the verified payload of an access token.
type Claims struct {
	UserID    uint64
	Email     string
	Name      string
	ExpiresAt time.Time
}

// AccessToken is a signed HS256 JWT together with its expiry instant.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// IssueAccessToken builds and signs an HS256 JWT carrying the subject user
// id, email and display name, expiring ttl from now.
func IssueAccessToken(secret string, userID uint64, email, name string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"name":  name,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken parses and checks a token string. It fails closed: any
// problem yields ErrInvalidToken. On success it returns the claims and logs
// a warning when less than five minutes of validity remain. Only a short
// token prefix is ever logged.
func VerifyAccessToken(secret, raw string) (Claims, error) {
	log.Debug().Str("token_prefix", tokenPrefix(raw)).Msg("verifying access token")

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		log.Debug().Str("token_prefix", tokenPrefix(raw)).Msg("access token rejected")
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	var c Claims
	switch sub := mc["sub"].(type) {
	case float64:
		c.UserID = uint64(sub)
	default:
		return Claims{}, ErrInvalidToken
	}
	if c.UserID == 0 {
		return Claims{}, ErrInvalidToken
	}
	if v, ok := mc["email"].(string); ok {
		c.Email = v
	}
	if v, ok := mc["name"].(string); ok {
		c.Name = v
	}
	if exp, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(exp), 0).UTC()
		if remaining := time.Until(c.ExpiresAt); remaining <= expiryWarnWindow {
			log.Warn().
				Str("token_prefix", tokenPrefix(raw)).
				Dur("remaining", remaining).
				Msg("access token close to expiry")
		}
	}
	return c, nil
}

// tokenPrefix returns at most the first eight characters of a token for
// diagnostic logging. The full token never appears in logs.
func tokenPrefix(raw string) string {
	if len(raw) > 8 {
		return raw[:8]
	}
	return raw
}
