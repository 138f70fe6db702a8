package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/helpdesk/internal"
	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
	"github.com/frahmantamala/helpdesk/internal/transport/metrics"
)

// Service is the authenticator: credentials to token, token to identity.
type Service struct {
	store    CredentialStore
	hasher   PasswordHasher
	codec    TokenCodec
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewService(store CredentialStore, hasher PasswordHasher, codec TokenCodec, tokenTTL time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		hasher:   hasher,
		codec:    codec,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Login checks the credentials and issues a token bound to the email.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		metrics.AuthOutcomes.WithLabelValues("login", "invalid_request").Inc()
		return AuthTokens{}, err
	}

	identity, err := s.store.FindByEmail(ctx, dto.Email)
	if err != nil {
		s.logger.ErrorContext(ctx, "login: credential lookup failed", "error", err)
		return AuthTokens{}, internal.NewInternalError("failed to authenticate", err)
	}

	if identity == nil || !s.hasher.Verify(dto.Password, identity.PasswordHash) {
		metrics.AuthOutcomes.WithLabelValues("login", "invalid_credentials").Inc()
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !identity.IsActive {
		metrics.AuthOutcomes.WithLabelValues("login", "inactive_user").Inc()
		return AuthTokens{}, internal.ErrUserInactive
	}

	token, err := s.codec.Issue(identity.Email, s.tokenTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "login: token signing failed", "error", err, "user_id", identity.ID)
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}

	metrics.AuthOutcomes.WithLabelValues("login", "success").Inc()
	return AuthTokens{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		UserRole:    identity.Role,
	}, nil
}

// Resolve turns a presented token into the current identity. It reads the
// store on every call so role and active-flag changes apply immediately.
func (s *Service) Resolve(ctx context.Context, token string) (*coreuser.Identity, error) {
	email, err := s.codec.Verify(token)
	if err != nil {
		metrics.AuthOutcomes.WithLabelValues("resolve", "invalid_token").Inc()
		return nil, internal.ErrInvalidToken.WithCause(err)
	}

	identity, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		s.logger.ErrorContext(ctx, "resolve: credential lookup failed", "error", err)
		return nil, internal.NewInternalError("failed to resolve identity", err)
	}
	if identity == nil {
		metrics.AuthOutcomes.WithLabelValues("resolve", "user_not_found").Inc()
		return nil, internal.ErrUserNotFound
	}
	if !identity.IsActive {
		metrics.AuthOutcomes.WithLabelValues("resolve", "inactive_user").Inc()
		return nil, internal.ErrUserInactive
	}

	metrics.AuthOutcomes.WithLabelValues("resolve", "success").Inc()
	return identity, nil
}
