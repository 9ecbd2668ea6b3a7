package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository/memory"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1", Email: " Alice@Example.com ", PasswordHash: []byte("hash")}))
	assert.ErrorIs(t, repo.Create(ctx, &domain.User{ID: "u2", Email: "alice@example.com"}), domain.ErrEmailInUse)

	byEmail, err := repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	// Upsert without a hash keeps the stored one.
	require.NoError(t, repo.Upsert(ctx, &domain.User{ID: "u1", Email: "alice@example.com", Name: "Alice"}))
	updated, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, []byte("hash"), updated.PasswordHash)

	_, err = repo.GetByID(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
