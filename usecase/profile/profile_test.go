package profile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository/memory"
	"github.com/fastygo/taskboard/usecase"
	profileUC "github.com/fastygo/taskboard/usecase/profile"
)

func TestProfile(t *testing.T) {
	users := memory.NewUserRepository()
	require.NoError(t, users.Create(context.Background(), &domain.User{
		ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordHash: []byte("hash"),
	}))
	uc := profileUC.New(users, usecase.ContextIdentity{}, nil)
	ctx := usecase.WithIdentity(context.Background(), domain.Identity{UserID: "u1"})

	_, err := uc.GetProfile(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	user, err := uc.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	updated, err := uc.UpdateProfile(ctx, " Alice B. ", "admin")
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", updated.Name)
	assert.Equal(t, "admin", updated.Role)

	stored, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), stored.PasswordHash)

	_, err = uc.UpdateProfile(ctx, "  ", "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
