package jobs

import (
	"context"
	"sync"
)

// Job is a long-running background worker. Start blocks until the
// context is cancelled.
type Job interface {
	Start(ctx context.Context)
}

// Manager owns the background workers (the payment status poller and
// any future sweeps) and shuts them down together when the server
// context ends.
type Manager struct {
	jobs []Job
}

func New() *Manager {
	return &Manager{}
}

// Register adds a job. Not safe to call after Start.
func (m *Manager) Register(job Job) {
	m.jobs = append(m.jobs, job)
}

// Start launches every registered job and blocks until the context is
// cancelled and all of them have returned.
func (m *Manager) Start(ctx context.Context) {

	var wg sync.WaitGroup

	for _, job := range m.jobs {
		wg.Add(1)

		go func(j Job) {
			defer wg.Done()
			j.Start(ctx)
		}(job)
	}

	<-ctx.Done()
	wg.Wait()
}
