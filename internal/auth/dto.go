package auth

import (
	"strings"

	"github.com/frahmantamala/helpdesk/internal/transport"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (d *LoginDTO) Normalize() {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

// Validate checks required fields and returns an AppError on failure.
func (d LoginDTO) Validate() error {
	return transport.ValidateStruct(d)
}
