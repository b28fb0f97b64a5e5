package session_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vitrin/vitrin/internal/session"

	"github.com/stretchr/testify/assert"
)

type countingRepo struct {
	session.Repository
	deleteStale atomic.Int64
}

func (r *countingRepo) DeleteStale(ttl time.Duration) (int64, error) {
	r.deleteStale.Add(1)
	return r.Repository.DeleteStale(ttl)
}

func TestReapLoopDeletesStaleRows(t *testing.T) {
	mock := session.NewMockRepository()
	assert.NoError(t, mock.Create(&session.Session{CartID: "old"}))
	repo := &countingRepo{Repository: mock}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		session.ReapLoop(ctx, repo, time.Nanosecond, 10*time.Millisecond, nil)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return repo.deleteStale.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reap loop did not stop on cancel")
	}
}
