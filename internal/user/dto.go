package user

import (
	"strings"

	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
	"github.com/frahmantamala/helpdesk/internal/transport"
)

type RegisterDTO struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72,maxbytes=72"`
}

func (d *RegisterDTO) Normalize() {
	d.Email = normalizeEmail(d.Email)
}

func (d RegisterDTO) Validate() error {
	return transport.ValidateStruct(d)
}

// CreateUserDTO is the admin variant of registration.
type CreateUserDTO struct {
	Email    string         `json:"email" validate:"required,email,max=255"`
	Password string         `json:"password" validate:"required,min=8,max=72,maxbytes=72"`
	Role     *coreuser.Role `json:"role,omitempty" validate:"omitempty,oneof=user operator admin"`
	IsActive *bool          `json:"is_active,omitempty"`
}

func (d *CreateUserDTO) Normalize() {
	d.Email = normalizeEmail(d.Email)
}

func (d CreateUserDTO) Validate() error {
	return transport.ValidateStruct(d)
}

// UpdateUserDTO carries only the fields present in the request body.
type UpdateUserDTO struct {
	Email    *string        `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Password *string        `json:"password,omitempty" validate:"omitempty,min=8,max=72,maxbytes=72"`
	IsActive *bool          `json:"is_active,omitempty"`
	Role     *coreuser.Role `json:"role,omitempty" validate:"omitempty,oneof=user operator admin"`
}

func (d *UpdateUserDTO) Normalize() {
	if d.Email != nil {
		email := normalizeEmail(*d.Email)
		d.Email = &email
	}
}

func (d UpdateUserDTO) Validate() error {
	return transport.ValidateStruct(d)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
