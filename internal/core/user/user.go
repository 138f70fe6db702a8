package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/helpdesk/internal/core/datamodel/user"
)

// Role is the single access level attached to an identity.
type Role string

const (
	RoleUser     Role = "user"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleOperator, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Identity is a registered account as seen by authentication and authorization.
type Identity struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ToDataModel(i *Identity) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           i.ID,
		Email:        i.Email,
		PasswordHash: i.PasswordHash,
		IsActive:     i.IsActive,
		Role:         string(i.Role),
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *Identity {
	return &Identity{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		Role:         Role(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
