package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/helpdesk/internal"
	userDatamodel "github.com/frahmantamala/helpdesk/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
	"github.com/frahmantamala/helpdesk/internal/user"
	"gorm.io/gorm"
)

// UserRepository implements user.Repository and auth.CredentialStore using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*coreuser.Identity, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*coreuser.Identity, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*coreuser.Identity, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return coreuser.FromDataModel(&row), nil
}

// Insert saves identity and fills in its id and timestamps.
func (r *UserRepository) Insert(ctx context.Context, identity *coreuser.Identity) error {
	row := coreuser.ToDataModel(identity)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrDuplicateEmail.WithCause(err)
		}
		return err
	}
	*identity = *coreuser.FromDataModel(row)
	return nil
}

// Update writes the non-nil fields of changes and returns the fresh row.
func (r *UserRepository) Update(ctx context.Context, id int64, changes user.Changes) (*coreuser.Identity, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if changes.Email != nil {
		updates["email"] = *changes.Email
	}
	if changes.PasswordHash != nil {
		updates["password_hash"] = *changes.PasswordHash
	}
	if changes.IsActive != nil {
		updates["is_active"] = *changes.IsActive
	}
	if changes.Role != nil {
		updates["role"] = string(*changes.Role)
	}

	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, internal.ErrDuplicateEmail.WithCause(res.Error)
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&userDatamodel.User{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListPage returns users ordered by id together with the total count.
func (r *UserRepository) ListPage(ctx context.Context, offset, limit int) ([]*coreuser.Identity, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []userDatamodel.User
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	items := make([]*coreuser.Identity, 0, len(rows))
	for i := range rows {
		items = append(items, coreuser.FromDataModel(&rows[i]))
	}
	return items, total, nil
}
