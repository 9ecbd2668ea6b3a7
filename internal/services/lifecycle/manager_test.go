package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	m.Register("store", func(ctx context.Context) error {
		order = append(order, "store")
		return nil
	})
	m.Register("http", func(ctx context.Context) error {
		order = append(order, "http")
		return errors.New("listener busy")
	})
	m.Register("ignored", nil)

	err := m.Shutdown(context.Background())
	assert.EqualError(t, err, "listener busy")
	assert.Equal(t, []string{"http", "store"}, order)
}

func TestShutdownAppliesTimeout(t *testing.T) {
	m := New(50*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, m.Shutdown(context.Background()), context.DeadlineExceeded)
}

func TestShutdownRunsOnce(t *testing.T) {
	m := New(time.Second, nil)
	calls := 0
	m.Register("cache", func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.Equal(t, 1, m.Pending())

	assert.NoError(t, m.Shutdown(context.Background()))
	assert.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, m.Pending())
}

func TestRegisterAfterShutdownStopsImmediately(t *testing.T) {
	m := New(time.Second, nil)
	assert.NoError(t, m.Shutdown(context.Background()))

	stopped := false
	m.Register("late", func(ctx context.Context) error {
		stopped = true
		return nil
	})
	assert.True(t, stopped)
	assert.Equal(t, 0, m.Pending())
}
