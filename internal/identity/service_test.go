package identity_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/identity"
	"github.com/fastygo/taskboard/internal/infrastructure/localstore"
	"github.com/fastygo/taskboard/repository/memory"
	authUC "github.com/fastygo/taskboard/usecase/auth"
)

type harness struct {
	auth     *authUC.UseCase
	sessions *memory.SessionRepository
	path     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sessions := memory.NewSessionRepository(time.Hour)
	return &harness{
		auth: authUC.New(memory.NewUserRepository(), sessions, authUC.Config{
			Secret:     "test",
			SessionTTL: time.Hour,
			BcryptCost: bcrypt.MinCost,
		}, nil),
		sessions: sessions,
		path:     filepath.Join(t.TempDir(), "credentials.db"),
	}
}

// open simulates a fresh process reading the credential file. bbolt locks the
// file, so any earlier handle must be closed first.
func (h *harness) open(t *testing.T) *identity.Service {
	t.Helper()
	cache, err := localstore.Open(h.path, "credentials")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return identity.New(h.auth, cache, nil)
}

func TestCreateIdentityNotifies(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	first := h.open(t)
	var events []*domain.Identity
	first.OnIdentityChange(func(id *domain.Identity) { events = append(events, id) })

	created, err := first.CreateIdentity(ctx, "alice@example.com", "secret1", "Alice")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, created.UserID, events[0].UserID)
	assert.Equal(t, "Alice", events[0].DisplayName)
}

func TestRestoreAndSignOut(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	cache, err := localstore.Open(h.path, "credentials")
	require.NoError(t, err)
	svc := identity.New(h.auth, cache, nil)
	created, err := svc.Authenticate(ctx, "missing@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.True(t, created.IsZero())

	_, err = svc.CreateIdentity(ctx, "alice@example.com", "secret1", "Alice")
	require.NoError(t, err)
	require.NoError(t, cache.Close())

	restarted := h.open(t)
	restored, err := restarted.CurrentIdentity(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "alice@example.com", restored.Email)

	var last *domain.Identity
	notified := false
	restarted.OnIdentityChange(func(id *domain.Identity) {
		notified = true
		last = id
	})
	require.NoError(t, restarted.SignOut(ctx))
	assert.True(t, notified)
	assert.Nil(t, last)

	restored, err = restarted.CurrentIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestRevokedCredentialIsDiscarded(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.open(t)

	_, err := svc.Authenticate(ctx, "alice@example.com", "secret1")
	require.Error(t, err)

	_, err = svc.CreateIdentity(ctx, "alice@example.com", "secret1", "Alice")
	require.NoError(t, err)

	// Expire every server-side session as if an administrator revoked them.
	removed, err := h.sessions.Cleanup(time.Now().Add(2 * time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	restored, err := svc.CurrentIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestSecondLoginRevokesPreviousSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.open(t)

	_, err := svc.CreateIdentity(ctx, "alice@example.com", "secret1", "Alice")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	removed, err := h.sessions.Cleanup(time.Now().Add(2 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "only the latest session should remain")

	restored, err := svc.CurrentIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := h.open(t)

	calls := 0
	unsubscribe := svc.OnIdentityChange(func(*domain.Identity) { calls++ })
	unsubscribe()

	_, err := svc.CreateIdentity(ctx, "alice@example.com", "secret1", "Alice")
	require.NoError(t, err)
	assert.Zero(t, calls)
}
