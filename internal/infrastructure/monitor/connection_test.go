package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type sizer int

func (s sizer) Size() (int, error) { return int(s), nil }

func TestRefresh(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("refused") })

	t.Run("all healthy", func(t *testing.T) {
		m := New(up, up, sizer(2), time.Minute, nil)
		m.Refresh()
		status := m.GetStatus()
		assert.True(t, m.IsOnline())
		assert.True(t, status.LocalCache)
		assert.Equal(t, 2, status.LocalCacheSize)
		assert.False(t, status.LastCheck.IsZero())
	})

	t.Run("in-process sessions count as up", func(t *testing.T) {
		m := New(up, nil, nil, time.Minute, nil)
		m.Refresh()
		assert.True(t, m.IsOnline())
		assert.False(t, m.GetStatus().LocalCache)
	})

	t.Run("store down", func(t *testing.T) {
		m := New(down, up, nil, time.Minute, nil)
		m.Refresh()
		assert.False(t, m.IsOnline())
		assert.False(t, m.GetStatus().Store)
	})
}

func TestStartStop(t *testing.T) {
	m := New(pingFunc(func(context.Context) error { return nil }), nil, nil, 10*time.Millisecond, nil)
	m.Start()
	assert.Eventually(t, m.IsOnline, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()
}
