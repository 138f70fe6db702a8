package ticket

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/helpdesk/internal"
	"github.com/frahmantamala/helpdesk/internal/auth"
	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
	"github.com/frahmantamala/helpdesk/internal/transport"
	"github.com/frahmantamala/helpdesk/internal/transport/metrics"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor *coreuser.Identity, dto CreateTicketDTO) (*Ticket, error)
	ListMine(ctx context.Context, actor *coreuser.Identity, page transport.Page) (transport.PageResult[*Ticket], error)
	ListAll(ctx context.Context, page transport.Page) (transport.PageResult[*StaffTicket], error)
	Get(ctx context.Context, actor *coreuser.Identity, id int64) (*Ticket, error)
	Respond(ctx context.Context, actor *coreuser.Identity, id int64, dto RespondDTO) (*Ticket, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Create opens a ticket owned by actor. New tickets await a response.
func (s *Service) Create(ctx context.Context, actor *coreuser.Identity, dto CreateTicketDTO) (*Ticket, error) {
	if actor == nil {
		return nil, internal.ErrMissingToken
	}
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	priority := PriorityLow
	if dto.Priority != nil {
		priority = *dto.Priority
	}

	t := &Ticket{
		UserID:         actor.ID,
		Topic:          dto.Topic,
		Description:    dto.Description,
		Priority:       priority,
		AwaitsResponse: true,
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, internal.NewInternalError("failed to create ticket", err)
	}

	s.logger.InfoContext(ctx, "ticket created", "ticket_id", t.ID, "user_id", actor.ID, "priority", t.Priority)
	return t, nil
}

func (s *Service) ListMine(ctx context.Context, actor *coreuser.Identity, page transport.Page) (transport.PageResult[*Ticket], error) {
	if actor == nil {
		return transport.PageResult[*Ticket]{}, internal.ErrMissingToken
	}
	items, total, err := s.repo.ListByOwner(ctx, actor.ID, page.Offset, page.Limit)
	if err != nil {
		return transport.PageResult[*Ticket]{}, internal.NewInternalError("failed to list tickets", err)
	}
	return transport.NewPageResult(items, total, page), nil
}

// ListAll is the staff listing. The role gate sits in front of it.
func (s *Service) ListAll(ctx context.Context, page transport.Page) (transport.PageResult[*StaffTicket], error) {
	items, total, err := s.repo.ListAll(ctx, page.Offset, page.Limit)
	if err != nil {
		return transport.PageResult[*StaffTicket]{}, internal.NewInternalError("failed to list tickets", err)
	}
	return transport.NewPageResult(items, total, page), nil
}

// Get returns the ticket when actor may view it. A ticket the actor may not
// see is reported as missing so its existence does not leak.
func (s *Service) Get(ctx context.Context, actor *coreuser.Identity, id int64) (*Ticket, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get ticket", err)
	}
	if t == nil {
		return nil, internal.ErrTicketNotFound
	}
	if !auth.CanView(actor, t) {
		metrics.AccessDenied.WithLabelValues("can_view").Inc()
		return nil, internal.ErrTicketNotFound
	}
	return t, nil
}

func (s *Service) Respond(ctx context.Context, actor *coreuser.Identity, id int64, dto RespondDTO) (*Ticket, error) {
	if !auth.CanRespond(actor) {
		metrics.AccessDenied.WithLabelValues("can_respond").Inc()
		return nil, internal.ErrForbidden
	}
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repo.UpdateResponse(ctx, id, dto.Response, dto.AwaitsResponse)
	if err != nil {
		return nil, internal.NewInternalError("failed to update ticket", err)
	}
	if t == nil {
		return nil, internal.ErrTicketNotFound
	}

	s.logger.InfoContext(ctx, "ticket answered", "ticket_id", id, "responder_id", actor.ID, "awaits_response", t.AwaitsResponse)
	return t, nil
}
