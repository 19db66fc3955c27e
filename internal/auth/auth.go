// Package auth issues and verifies session tokens and checks credentials.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "sbms"

// Claims is the JWT payload carried by every authenticated request.
type Claims struct {
	UserID   int64       `json:"uid"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Actor returns the identity the claims describe.
func (c *Claims) Actor() models.Actor {
	return models.Actor{ID: c.UserID, Username: c.Username, Role: c.Role}
}

// Issue signs an HS256 token for u that expires ttl after now.
func Issue(secret []byte, u *models.User, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expires := now.Add(ttl)
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expires, nil
}

// Parse verifies a token and returns its claims. Any failure is reported
// as apperr.ErrUnauthenticated.
func Parse(secret []byte, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid or expired token: %w", apperr.ErrUnauthenticated)
	}
	if !claims.Role.Valid() || claims.UserID <= 0 {
		return nil, fmt.Errorf("malformed token claims: %w", apperr.ErrUnauthenticated)
	}
	return claims, nil
}

// CheckPassword compares a stored credential with a login attempt. Stored
// bcrypt hashes are verified as such; anything else is compared verbatim.
func CheckPassword(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// HashPassword returns a bcrypt hash suitable for the users.password column.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
