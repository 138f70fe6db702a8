package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/helpdesk/internal"
	"github.com/frahmantamala/helpdesk/internal/auth"
	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
	"github.com/frahmantamala/helpdesk/internal/transport"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*coreuser.Identity, error)
	Create(ctx context.Context, dto CreateUserDTO) (*coreuser.Identity, error)
	Get(ctx context.Context, id int64) (*coreuser.Identity, error)
	List(ctx context.Context, page transport.Page) (transport.PageResult[*coreuser.Identity], error)
	Update(ctx context.Context, actor *coreuser.Identity, id int64, dto UpdateUserDTO) (*coreuser.Identity, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   Repository
	hasher Hasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher Hasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

// Register creates a self-service account. The role is always user.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*coreuser.Identity, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.insert(ctx, dto.Email, dto.Password, coreuser.RoleUser, true)
}

// Create is the admin path and may pick the role and the active flag.
func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*coreuser.Identity, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role := coreuser.RoleUser
	if dto.Role != nil {
		role = *dto.Role
	}
	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}
	return s.insert(ctx, dto.Email, dto.Password, role, active)
}

func (s *Service) insert(ctx context.Context, email, password string, role coreuser.Role, active bool) (*coreuser.Identity, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, internal.NewInternalError("failed to check email", err)
	}
	if existing != nil {
		return nil, internal.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	identity := &coreuser.Identity{
		Email:        email,
		PasswordHash: hash,
		IsActive:     active,
		Role:         role,
	}
	if err := s.repo.Insert(ctx, identity); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", identity.ID, "role", identity.Role)
	return identity, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*coreuser.Identity, error) {
	identity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if identity == nil {
		return nil, internal.ErrUserRecordNotFound
	}
	return identity, nil
}

func (s *Service) List(ctx context.Context, page transport.Page) (transport.PageResult[*coreuser.Identity], error) {
	items, total, err := s.repo.ListPage(ctx, page.Offset, page.Limit)
	if err != nil {
		return transport.PageResult[*coreuser.Identity]{}, internal.NewInternalError("failed to list users", err)
	}
	return transport.NewPageResult(items, total, page), nil
}

// Update applies a partial update on behalf of actor. Only admins may touch
// other accounts or any role field.
func (s *Service) Update(ctx context.Context, actor *coreuser.Identity, id int64, dto UpdateUserDTO) (*coreuser.Identity, error) {
	if !auth.CanEditProfile(actor, id, dto.Role) {
		return nil, internal.ErrForbidden
	}

	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := Changes{IsActive: dto.IsActive, Role: dto.Role}
	if dto.Email != nil && *dto.Email != current.Email {
		other, err := s.repo.FindByEmail(ctx, *dto.Email)
		if err != nil {
			return nil, internal.NewInternalError("failed to check email", err)
		}
		if other != nil && other.ID != id {
			return nil, internal.ErrDuplicateEmail
		}
		changes.Email = dto.Email
	}
	if dto.Password != nil {
		hash, err := s.hasher.Hash(*dto.Password)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		changes.PasswordHash = &hash
	}

	if changes.IsEmpty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to update user", err)
	}
	if updated == nil {
		return nil, internal.ErrUserRecordNotFound
	}

	s.logger.InfoContext(ctx, "user updated", "user_id", id, "actor_id", actor.ID)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to delete user", err)
	}
	if !deleted {
		return internal.ErrUserRecordNotFound
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}
