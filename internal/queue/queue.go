package queue

import (
	"context"
	"log/slog"
	"sync"
)

// Job is one unit of request work. Errc, when set, receives the result of Fn.
type Job struct {
	Fn   func() error
	Errc chan error
}

// RequestQueueManager runs HTTP handler bodies on a fixed pool of workers so a
// burst of slow model calls cannot spawn unbounded goroutines.
type RequestQueueManager struct {
	JobQueue   chan Job
	MaxWorkers int
	wg         sync.WaitGroup
	once       sync.Once
}

func NewRequestQueueManager(queueSize int, maxWorkers int) *RequestQueueManager {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	manager := &RequestQueueManager{
		JobQueue:   make(chan Job, queueSize),
		MaxWorkers: maxWorkers,
	}
	manager.startWorkers()
	return manager
}

func (rqm *RequestQueueManager) startWorkers() {
	for i := 0; i < rqm.MaxWorkers; i++ {
		rqm.wg.Add(1)
		go func(workerID int) {
			defer rqm.wg.Done()
			slog.Debug("queue worker started", "worker", workerID)
			for job := range rqm.JobQueue {
				err := job.Fn()
				if job.Errc != nil {
					job.Errc <- err
				}
			}
			slog.Debug("queue worker stopped", "worker", workerID)
		}(i)
	}
}

func (rqm *RequestQueueManager) EnqueueJob(job Job) {
	rqm.JobQueue <- job
}

// Submit enqueues fn and waits for its result, or for ctx to end first.
func (rqm *RequestQueueManager) Submit(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case rqm.JobQueue <- Job{Fn: fn, Errc: errc}:
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-errc
}

// Depth is the number of jobs waiting for a worker.
func (rqm *RequestQueueManager) Depth() int {
	return len(rqm.JobQueue)
}

func (rqm *RequestQueueManager) Shutdown() {
	rqm.once.Do(func() {
		close(rqm.JobQueue)
	})
	rqm.wg.Wait()
}
