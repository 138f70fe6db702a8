package ticket

import (
	"strings"

	"github.com/frahmantamala/helpdesk/internal/transport"
)

type CreateTicketDTO struct {
	Topic       string    `json:"topic" validate:"required,min=3,max=255"`
	Description string    `json:"description" validate:"required,min=10"`
	Priority    *Priority `json:"priority,omitempty" validate:"omitempty,oneof=low middle high"`
}

func (d *CreateTicketDTO) Normalize() {
	d.Topic = strings.TrimSpace(d.Topic)
	d.Description = strings.TrimSpace(d.Description)
}

func (d CreateTicketDTO) Validate() error {
	return transport.ValidateStruct(d)
}

// RespondDTO records a staff answer. A nil AwaitsResponse keeps the current flag.
type RespondDTO struct {
	Response       string `json:"response" validate:"required,min=1"`
	AwaitsResponse *bool  `json:"awaits_response,omitempty"`
}

func (d *RespondDTO) Normalize() {
	d.Response = strings.TrimSpace(d.Response)
}

func (d RespondDTO) Validate() error {
	return transport.ValidateStruct(d)
}
