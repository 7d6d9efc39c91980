package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadiness_AllHealthy(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, func(context.Context) error { return nil })
	h.AddReadinessCheck("cache", time.Second, func(context.Context) error { return nil })

	rep := h.Readiness(context.Background())
	assert.True(t, rep.Healthy)
	require.Len(t, rep.Checks, 2)
	assert.Equal(t, "cache", rep.Checks[0].Name)
}

func TestReadiness_OneFailing(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, func(context.Context) error { return errors.New("down") })
	h.AddReadinessCheck("cache", time.Second, func(context.Context) error { return nil })

	rep := h.Readiness(context.Background())
	assert.False(t, rep.Healthy)
	for _, c := range rep.Checks {
		if c.Name == "db" {
			assert.Equal(t, "down", c.Error)
		} else {
			assert.True(t, c.Healthy)
		}
	}
}

func TestCheckTimeout(t *testing.T) {
	h := New()
	h.AddLivenessCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	rep := h.Liveness(context.Background())
	assert.False(t, rep.Healthy)
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
