package audit

import (
	"context"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"pharmaSupply/pkg/metrics"
	"sync"
	"time"
)

// Writer persists audit records.
type Writer interface {
	CreateLog(ctx context.Context, log *domain.AuditLog) error
	CreateSecurityEvent(ctx context.Context, e *domain.SecurityEvent) error
}

type job struct {
	log   *domain.AuditLog
	event *domain.SecurityEvent
}

// Recorder writes audit logs and security events from a bounded queue
// drained by a fixed set of workers. Enqueue never blocks; records are
// dropped when the queue is full.
type Recorder struct {
	writer  Writer
	queue   chan job
	workers int
	timeout time.Duration

	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewRecorder(writer Writer, queueSize, workers int) *Recorder {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Recorder{
		writer:  writer,
		queue:   make(chan job, queueSize),
		workers: workers,
		timeout: 5 * time.Second,
	}
}

func (r *Recorder) Start() {
	r.startOnce.Do(func() {
		for i := 0; i < r.workers; i++ {
			r.wg.Add(1)
			go r.run()
		}
	})
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for j := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		var err error
		if j.log != nil {
			err = r.writer.CreateLog(ctx, j.log)
		} else if j.event != nil {
			err = r.writer.CreateSecurityEvent(ctx, j.event)
		}
		cancel()
		if err != nil {
			logger.Error("Failed to write audit record", "error", err)
		}
	}
}

func (r *Recorder) enqueue(j job) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.queue <- j:
		return true
	default:
		metrics.AuditDropped.Inc()
		logger.Warn("Audit queue full, dropping record")
		return false
	}
}

func (r *Recorder) Log(log *domain.AuditLog) bool {
	return r.enqueue(job{log: log})
}

func (r *Recorder) SecurityEvent(e *domain.SecurityEvent) bool {
	return r.enqueue(job{event: e})
}

// Close stops accepting records and waits for the queue to drain or ctx to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
