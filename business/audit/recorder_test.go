package audit

import (
	"context"
	"pharmaSupply/domain"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	mu     sync.Mutex
	logs   []domain.AuditLog
	events []domain.SecurityEvent
	block  chan struct{}
}

func (w *memWriter) CreateLog(ctx context.Context, log *domain.AuditLog) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logs = append(w.logs, *log)
	return nil
}

func (w *memWriter) CreateSecurityEvent(ctx context.Context, e *domain.SecurityEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, *e)
	return nil
}

func (w *memWriter) counts() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.logs), len(w.events)
}

func TestRecorder_DrainsOnClose(t *testing.T) {
	w := &memWriter{}
	r := NewRecorder(w, 16, 2)
	r.Start()

	for i := 0; i < 10; i++ {
		assert.True(t, r.Log(&domain.AuditLog{Action: domain.AuditRead, Resource: "Order"}))
	}
	assert.True(t, r.SecurityEvent(&domain.SecurityEvent{EventType: domain.SecurityFailedLogin}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))

	logs, events := w.counts()
	assert.Equal(t, 10, logs)
	assert.Equal(t, 1, events)
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	w := &memWriter{block: make(chan struct{})}
	r := NewRecorder(w, 1, 1)
	r.Start()

	// The worker takes the first record and blocks, the second fills the queue.
	require.True(t, r.Log(&domain.AuditLog{}))
	require.Eventually(t, func() bool { return len(r.queue) == 0 }, time.Second, time.Millisecond)
	require.True(t, r.Log(&domain.AuditLog{}))

	assert.False(t, r.Log(&domain.AuditLog{}))

	close(w.block)
	require.NoError(t, r.Close(context.Background()))
	logs, _ := w.counts()
	assert.Equal(t, 2, logs)
}

func TestRecorder_RejectsAfterClose(t *testing.T) {
	r := NewRecorder(&memWriter{}, 4, 1)
	r.Start()
	require.NoError(t, r.Close(context.Background()))

	assert.False(t, r.Log(&domain.AuditLog{}))
	assert.NoError(t, r.Close(context.Background()))
}
