package ticket

import (
	"context"
	"time"

	ticketDatamodel "github.com/frahmantamala/helpdesk/internal/core/datamodel/ticket"
	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMiddle Priority = "middle"
	PriorityHigh   Priority = "high"
)

// Ticket is a support request owned by exactly one user.
type Ticket struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Topic          string    `json:"topic"`
	Description    string    `json:"description"`
	Priority       Priority  `json:"priority"`
	AwaitsResponse bool      `json:"awaits_response"`
	Response       *string   `json:"response,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OwnerID makes Ticket an auth.OwnedResource.
func (t *Ticket) OwnerID() int64 {
	if t == nil {
		return 0
	}
	return t.UserID
}

// StaffTicket is the staff view of a ticket, carrying its owner's email and role.
type StaffTicket struct {
	Ticket
	UserEmail string        `json:"user_email"`
	UserRole  coreuser.Role `json:"user_role"`
}

const (
	UnknownOwnerEmail = "unknown"
	UnknownOwnerRole  = coreuser.RoleUser
)

type Repository interface {
	Insert(ctx context.Context, t *Ticket) error
	FindByID(ctx context.Context, id int64) (*Ticket, error)
	UpdateResponse(ctx context.Context, id int64, response string, awaitsResponse *bool) (*Ticket, error)
	ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*Ticket, int64, error)
	ListAll(ctx context.Context, offset, limit int) ([]*StaffTicket, int64, error)
}

func ToDataModel(t *Ticket) *ticketDatamodel.Ticket {
	return &ticketDatamodel.Ticket{
		ID:             t.ID,
		UserID:         t.UserID,
		Topic:          t.Topic,
		Description:    t.Description,
		Priority:       string(t.Priority),
		AwaitsResponse: t.AwaitsResponse,
		Response:       t.Response,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func FromDataModel(t *ticketDatamodel.Ticket) *Ticket {
	return &Ticket{
		ID:             t.ID,
		UserID:         t.UserID,
		Topic:          t.Topic,
		Description:    t.Description,
		Priority:       Priority(t.Priority),
		AwaitsResponse: t.AwaitsResponse,
		Response:       t.Response,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}
