package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsJobsUntilCancelled(t *testing.T) {
	var ok, failing atomic.Int32

	s := NewScheduler(
		Job{Name: "ok", Interval: 5 * time.Millisecond, Run: func(ctx context.Context) error {
			ok.Add(1)
			return nil
		}},
		Job{Name: "failing", Interval: 5 * time.Millisecond, Run: func(ctx context.Context) error {
			failing.Add(1)
			return errors.New("boom")
		}},
		Job{Name: "disabled", Run: func(ctx context.Context) error {
			t.Error("job without interval must not run")
			return nil
		}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool {
		return ok.Load() >= 2 && failing.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRunOnce_RecoversPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		runOnce(context.Background(), Job{Name: "panics", Run: func(ctx context.Context) error {
			panic("bad")
		}})
	})
}
