package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingJob struct {
	started *atomic.Int32
	stopped *atomic.Int32
}

func (j *countingJob) Start(ctx context.Context) {
	j.started.Add(1)
	<-ctx.Done()
	j.stopped.Add(1)
}

func TestManagerRunsJobsUntilCancel(t *testing.T) {
	var started, stopped atomic.Int32

	m := New()
	m.Register(&countingJob{started: &started, stopped: &stopped})
	m.Register(&countingJob{started: &started, stopped: &stopped})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for started.Load() != 2 {
		select {
		case <-deadline:
			t.Fatalf("started = %d, want 2", started.Load())
		default:
			time.Sleep(time.Millisecond)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}

	if stopped.Load() != 2 {
		t.Fatalf("stopped = %d, want 2", stopped.Load())
	}
}
