package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository/memory"
	authUC "github.com/fastygo/taskboard/usecase/auth"
)

func newUseCase(t *testing.T) (*authUC.UseCase, *memory.UserRepository, *memory.SessionRepository) {
	t.Helper()
	users := memory.NewUserRepository()
	sessions := memory.NewSessionRepository(time.Hour)
	uc := authUC.New(users, sessions, authUC.Config{
		Secret:     "test-secret",
		Issuer:     "taskboard-test",
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, nil)
	return uc, users, sessions
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	uc, users, _ := newUseCase(t)

	cred, err := uc.Register(ctx, " Alice ", "Alice@Example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, cred.Token)
	assert.NotEmpty(t, cred.SessionID)
	assert.Equal(t, "alice@example.com", cred.Identity.Email)
	assert.Equal(t, "Alice", cred.Identity.DisplayName)
	assert.True(t, cred.ExpiresAt.After(time.Now()))

	stored, err := users.GetByID(ctx, cred.Identity.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("secret1"), stored.PasswordHash)

	_, err = uc.Register(ctx, "Other", "alice@example.com", "another1")
	assert.ErrorIs(t, err, domain.ErrEmailInUse)

	t.Run("validation", func(t *testing.T) {
		_, err := uc.Register(ctx, "", "not-an-email", "secret1")
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

		_, err = uc.Register(ctx, "", "bob@example.com", "123")
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	})
}

func TestLoginAndVerify(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := newUseCase(t)
	registered, err := uc.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	cred, err := uc.Login(ctx, "ALICE@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.Identity, cred.Identity)
	assert.NotEqual(t, registered.SessionID, cred.SessionID)

	verified, err := uc.Verify(ctx, cred.Token)
	require.NoError(t, err)
	assert.Equal(t, cred.SessionID, verified.SessionID)
	assert.Equal(t, registered.Identity.UserID, verified.Identity.UserID)

	_, err = uc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = uc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = uc.Verify(ctx, "not-a-token")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeAuthFailed))
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	ctx := context.Background()
	uc, users, sessions := newUseCase(t)
	other := authUC.New(users, sessions, authUC.Config{Secret: "other-secret", Issuer: "taskboard-test", BcryptCost: bcrypt.MinCost}, nil)

	cred, err := other.Register(ctx, "Mallory", "mallory@example.com", "secret1")
	require.NoError(t, err)

	_, err = uc.Verify(ctx, cred.Token)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeAuthFailed))
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := newUseCase(t)
	cred, err := uc.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, uc.Logout(ctx, cred.SessionID))
	require.NoError(t, uc.Logout(ctx, cred.SessionID))
	require.NoError(t, uc.Logout(ctx, ""))

	_, err = uc.Verify(ctx, cred.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := newUseCase(t)
	cred, err := uc.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	refreshed, err := uc.Refresh(ctx, cred.Token)
	require.NoError(t, err)
	assert.Equal(t, cred.SessionID, refreshed.SessionID)
	assert.False(t, refreshed.ExpiresAt.Before(cred.ExpiresAt))

	_, err = uc.Verify(ctx, refreshed.Token)
	require.NoError(t, err)
}

type failingSessions struct{ memory.SessionRepository }

func (*failingSessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	return nil, errors.New("redis: connection refused")
}

func TestVerifyBackendOutage(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	healthy := memory.NewSessionRepository(time.Hour)
	cfg := authUC.Config{Secret: "s", Issuer: "i", BcryptCost: bcrypt.MinCost}

	cred, err := authUC.New(users, healthy, cfg, nil).Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	broken := authUC.New(users, &failingSessions{}, cfg, nil)
	_, err = broken.Verify(ctx, cred.Token)
	assert.Equal(t, domain.ErrCodeUnavailable, domain.CodeOf(err))
}

type stuckSessions struct {
	*memory.SessionRepository
}

func (stuckSessions) Delete(ctx context.Context, id string) error {
	return errors.New("redis: read-only replica")
}

func TestVerifyLogsFailedSessionDrop(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	sessions := memory.NewSessionRepository(time.Hour)
	core, logs := observer.New(zap.WarnLevel)
	cfg := authUC.Config{Secret: "s", Issuer: "i", SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost}
	uc := authUC.New(users, stuckSessions{sessions}, cfg, zap.New(core))

	cred, err := uc.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	// Rebind the session to another account so Verify rejects and drops it.
	stored, err := sessions.Get(ctx, cred.SessionID)
	require.NoError(t, err)
	stored.UserID = "mallory"
	require.NoError(t, sessions.Save(ctx, stored))

	_, err = uc.Verify(ctx, cred.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	entries := logs.FilterMessage("could not drop rejected session").All()
	require.Len(t, entries, 1)
	assert.Equal(t, cred.SessionID, entries[0].ContextMap()["session_id"])
}
