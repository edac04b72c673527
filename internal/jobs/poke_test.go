package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockPoker struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockPoker) PokeRandomMember(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

func (m *mockPoker) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestPokeJob(t *testing.T) {
	t.Run("pokes on each tick", func(t *testing.T) {
		p := &mockPoker{}
		job := NewPokeJob(p, 20*time.Millisecond)

		job.Start()
		time.Sleep(70 * time.Millisecond)
		job.Stop()

		assert.GreaterOrEqual(t, p.callCount(), 2)
	})

	t.Run("errors do not stop the loop", func(t *testing.T) {
		p := &mockPoker{err: errors.New("redis down")}
		job := NewPokeJob(p, 20*time.Millisecond)

		job.Start()
		time.Sleep(70 * time.Millisecond)
		job.Stop()

		assert.GreaterOrEqual(t, p.callCount(), 2)
	})
}
