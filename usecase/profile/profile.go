package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

type UseCase struct {
	users    repository.UserRepository
	identity usecase.IdentitySource
	logger   *zap.Logger
}

func New(users repository.UserRepository, identity usecase.IdentitySource, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		identity: identity,
		logger:   logger,
	}
}

// GetProfile returns the signed-in user's profile record.
func (uc *UseCase) GetProfile(ctx context.Context) (*domain.User, error) {
	identity, ok := uc.identity.ActiveIdentity(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	user, err := uc.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, domain.Unavailable("could not load profile", err)
	}
	return user, nil
}

// UpdateProfile changes the display name and role of the signed-in user.
func (uc *UseCase) UpdateProfile(ctx context.Context, name, role string) (*domain.User, error) {
	user, err := uc.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "name is required")
	}
	user.Name = name
	user.Role = strings.TrimSpace(role)
	if err := uc.users.Upsert(ctx, user); err != nil {
		uc.logger.Error("profile update failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil, domain.Unavailable("could not update profile", err)
	}
	return user, nil
}
