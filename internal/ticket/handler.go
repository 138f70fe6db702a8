package ticket

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/helpdesk/internal"
	"github.com/frahmantamala/helpdesk/internal/transport"
	"github.com/frahmantamala/helpdesk/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// CreateTicket handles POST /tickets
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	actor, _ := internal.IdentityFromContext(r.Context())

	var dto CreateTicketDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	t, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, t)
}

// ListMyTickets handles GET /tickets
func (h *Handler) ListMyTickets(w http.ResponseWriter, r *http.Request) {
	actor, _ := internal.IdentityFromContext(r.Context())

	page, err := transport.ParsePage(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	result, err := h.Service.ListMine(r.Context(), actor, page)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// ListAllTickets handles GET /tickets/all
func (h *Handler) ListAllTickets(w http.ResponseWriter, r *http.Request) {
	page, err := transport.ParsePage(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	result, err := h.Service.ListAll(r.Context(), page)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// GetTicket handles GET /tickets/{id}
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	actor, _ := internal.IdentityFromContext(r.Context())

	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	t, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

// RespondToTicket handles PATCH /tickets/{id}/response
func (h *Handler) RespondToTicket(w http.ResponseWriter, r *http.Request) {
	actor, _ := internal.IdentityFromContext(r.Context())

	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var dto RespondDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	t, err := h.Service.Respond(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}
