package localstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

type payload struct {
	Token string `json:"token"`
}

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "local.db"), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutGet(t *testing.T) {
	store := openTemp(t)

	require.NoError(t, store.Put("credential", payload{Token: "abc"}, time.Time{}))

	var got payload
	found, err := store.Get("credential", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", got.Token)

	found, err = store.Get("missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestExpiry(t *testing.T) {
	store := openTemp(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put("short", payload{Token: "a"}, now.Add(time.Minute)))
	require.NoError(t, store.Put("long", payload{Token: "b"}, now.Add(time.Hour)))

	now = now.Add(2 * time.Minute)
	var got payload
	found, err := store.Get("short", &got)
	require.NoError(t, err)
	assert.False(t, found)

	removed, err := store.Cleanup(now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	found, err = store.Get("long", &got)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCorruptEntry(t *testing.T) {
	store := openTemp(t)
	require.NoError(t, store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(store.bucket).Put([]byte("credential"), []byte("{not json"))
	}))

	var got payload
	_, err := store.Get("credential", &got)
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "credential", decodeErr.Key)

	removed, err := store.Cleanup(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestClearAndDelete(t *testing.T) {
	store := openTemp(t)
	require.NoError(t, store.Put("a", payload{}, time.Time{}))
	require.NoError(t, store.Put("b", payload{}, time.Time{}))

	require.NoError(t, store.Delete("a"))
	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	require.NoError(t, store.Clear())
	size, err = store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestClosedStore(t *testing.T) {
	var store *Store
	_, err := store.Get("x", &payload{})
	assert.ErrorIs(t, err, bolt.ErrDatabaseNotOpen)
	assert.NoError(t, store.Close())
}
