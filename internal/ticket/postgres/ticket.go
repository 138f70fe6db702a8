package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	ticketDatamodel "github.com/frahmantamala/helpdesk/internal/core/datamodel/ticket"
	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
	"github.com/frahmantamala/helpdesk/internal/ticket"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// TicketRepository implements ticket.Repository. Single-table access goes
// through GORM; the staff listing joins users with a plain sqlx query.
type TicketRepository struct {
	db *gorm.DB
	sq *sqlx.DB
}

func NewTicketRepository(db *gorm.DB, sq *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db, sq: sq}
}

var _ ticket.Repository = (*TicketRepository)(nil)

// Insert saves t and fills in its id and timestamps.
func (r *TicketRepository) Insert(ctx context.Context, t *ticket.Ticket) error {
	row := ticket.ToDataModel(t)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	*t = *ticket.FromDataModel(row)
	return nil
}

func (r *TicketRepository) FindByID(ctx context.Context, id int64) (*ticket.Ticket, error) {
	var row ticketDatamodel.Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ticket.FromDataModel(&row), nil
}

// UpdateResponse stores the staff answer. A nil awaitsResponse leaves the flag
// as it is. It returns (nil, nil) for an unknown id.
func (r *TicketRepository) UpdateResponse(ctx context.Context, id int64, response string, awaitsResponse *bool) (*ticket.Ticket, error) {
	fields := map[string]interface{}{
		"response":   response,
		"updated_at": time.Now(),
	}
	if awaitsResponse != nil {
		fields["awaits_response"] = *awaitsResponse
	}

	res := r.db.WithContext(ctx).Model(&ticketDatamodel.Ticket{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

// ListByOwner returns ownerID's tickets, newest first, with the total count.
func (r *TicketRepository) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*ticket.Ticket, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&ticketDatamodel.Ticket{}).
		Where("user_id = ?", ownerID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []ticketDatamodel.Ticket
	err = r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	items := make([]*ticket.Ticket, 0, len(rows))
	for i := range rows {
		items = append(items, ticket.FromDataModel(&rows[i]))
	}
	return items, total, nil
}

type staffTicketRow struct {
	ID             int64          `db:"id"`
	UserID         int64          `db:"user_id"`
	Topic          string         `db:"topic"`
	Description    string         `db:"description"`
	Priority       string         `db:"priority"`
	AwaitsResponse bool           `db:"awaits_response"`
	Response       *string        `db:"response"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	UserEmail      sql.NullString `db:"user_email"`
	UserRole       sql.NullString `db:"user_role"`
}

const listAllQuery = `
SELECT t.id, t.user_id, t.topic, t.description, t.priority, t.awaits_response,
       t.response, t.created_at, t.updated_at,
       u.email AS user_email, u.role AS user_role
FROM tickets t
LEFT JOIN users u ON u.id = t.user_id
ORDER BY t.created_at DESC, t.id DESC
LIMIT ? OFFSET ?`

// ListAll returns every ticket with its owner's email and role. Tickets whose
// owner no longer exists report "unknown" and "user".
func (r *TicketRepository) ListAll(ctx context.Context, offset, limit int) ([]*ticket.StaffTicket, int64, error) {
	var total int64
	if err := r.sq.GetContext(ctx, &total, "SELECT COUNT(*) FROM tickets"); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	var rows []staffTicketRow
	if err := r.sq.SelectContext(ctx, &rows, r.sq.Rebind(listAllQuery), limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}

	items := make([]*ticket.StaffTicket, 0, len(rows))
	for _, row := range rows {
		st := &ticket.StaffTicket{
			Ticket: ticket.Ticket{
				ID:             row.ID,
				UserID:         row.UserID,
				Topic:          row.Topic,
				Description:    row.Description,
				Priority:       ticket.Priority(row.Priority),
				AwaitsResponse: row.AwaitsResponse,
				Response:       row.Response,
				CreatedAt:      row.CreatedAt,
				UpdatedAt:      row.UpdatedAt,
			},
			UserEmail: ticket.UnknownOwnerEmail,
			UserRole:  ticket.UnknownOwnerRole,
		}
		if row.UserEmail.Valid {
			st.UserEmail = row.UserEmail.String
		}
		if row.UserRole.Valid {
			st.UserRole = coreuser.Role(row.UserRole.String)
		}
		items = append(items, st)
	}
	return items, total, nil
}
