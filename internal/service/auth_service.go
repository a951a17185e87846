package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AuthService exchanges credentials for an access token.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewAuthService creates the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: loggerOrNop(logger)}
}

// LoginResult is the issued token plus where the role lands after login.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *domain.User `json:"-"`
	Redirect    string       `json:"redirect"`
}

// Login verifies credentials. Unknown emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	result := &LoginResult{AccessToken: token, ExpiresAt: exp, User: user, Redirect: "/"}
	if spec, ok := domain.LookupRole(user.Role); ok {
		result.Redirect = spec.LandingPath
	}
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return result, nil
}
