package auth

import (
	"context"

	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
)

// CredentialStore is the part of the user store authentication needs.
// FindByEmail returns (nil, nil) when no identity has that email.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*coreuser.Identity, error)
}

// ServiceAPI is what the HTTP layer needs from the authenticator.
type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	Resolve(ctx context.Context, token string) (*coreuser.Identity, error)
}

const TokenTypeBearer = "bearer"

type AuthTokens struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	UserRole    coreuser.Role `json:"user_role,omitempty"`
}
