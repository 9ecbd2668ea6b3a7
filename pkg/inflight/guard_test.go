package inflight_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastygo/taskboard/pkg/inflight"
)

func TestGuard(t *testing.T) {
	var g inflight.Guard

	release, ok := g.Acquire("alice:create")
	assert.True(t, ok)
	assert.True(t, g.Busy("alice:create"))

	_, ok = g.Acquire("alice:create")
	assert.False(t, ok, "second acquire of a held key must fail")

	other, ok := g.Acquire("bob:create")
	assert.True(t, ok, "keys are independent")
	other()

	release()
	release()
	assert.False(t, g.Busy("alice:create"))
	assert.Zero(t, g.Len())

	again, ok := g.Acquire("alice:create")
	assert.True(t, ok)
	again()
}

func TestGuardConcurrent(t *testing.T) {
	var (
		g         inflight.Guard
		attempted sync.WaitGroup
		done      sync.WaitGroup
		winners   atomic.Int32
		hold      = make(chan struct{})
	)
	for i := 0; i < 16; i++ {
		attempted.Add(1)
		done.Add(1)
		go func() {
			defer done.Done()
			release, ok := g.Acquire("same")
			attempted.Done()
			if !ok {
				return
			}
			winners.Add(1)
			<-hold
			release()
		}()
	}
	attempted.Wait()
	close(hold)
	done.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.Zero(t, g.Len())
}
