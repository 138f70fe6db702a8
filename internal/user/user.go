package user

import (
	"context"

	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
)

// Changes is a partial update. Nil fields are left untouched.
type Changes struct {
	Email        *string
	PasswordHash *string
	IsActive     *bool
	Role         *coreuser.Role
}

func (c Changes) IsEmpty() bool {
	return c.Email == nil && c.PasswordHash == nil && c.IsActive == nil && c.Role == nil
}

// Repository is the credential store. Lookups return (nil, nil) when nothing matches.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*coreuser.Identity, error)
	FindByID(ctx context.Context, id int64) (*coreuser.Identity, error)
	Insert(ctx context.Context, identity *coreuser.Identity) error
	Update(ctx context.Context, id int64, changes Changes) (*coreuser.Identity, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListPage(ctx context.Context, offset, limit int) ([]*coreuser.Identity, int64, error)
}

// Hasher is the slice of auth.PasswordHasher the user service needs.
type Hasher interface {
	Hash(password string) (string, error)
}
