package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/auth"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned for an unknown username or a wrong password.
var ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", apperr.ErrUnauthenticated)

// AuthService checks credentials and issues session tokens
type AuthService struct {
	users  storage.UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewAuthService creates a new auth service
func NewAuthService(users storage.UserStore, secret string, ttl time.Duration, logger *zap.SugaredLogger) *AuthService {
	return &AuthService{users: users, secret: []byte(secret), ttl: ttl, now: time.Now, logger: logger}
}

// Authenticate returns the user whose username and password match.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !auth.CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Login authenticates req and issues a token for the user.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	u, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.Infow("Login rejected", "username", req.Username)
		}
		return nil, err
	}

	token, expires, err := auth.Issue(s.secret, u, s.ttl, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Infow("User logged in", "user_id", u.ID, "role", u.Role)
	return &models.LoginResponse{Token: token, ExpiresAt: expires, User: *u}, nil
}

// CurrentUser returns the account behind actor with its current points.
func (s *AuthService) CurrentUser(ctx context.Context, actor models.Actor) (*models.User, error) {
	u, err := s.users.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}
	return u, nil
}
