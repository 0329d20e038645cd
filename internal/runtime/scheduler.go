package runtime

import (
	"log/slog"
	"runtime"
)

// Scheduler bounds CPU-bound evaluation to a fixed number of worker slots.
// A task holds a slot while it is interpreting and gives it back whenever it
// parks on a native call, a generator handshake or a module load, so pending
// I/O never occupies a worker.
type Scheduler struct {
	workers int
	slots   chan struct{}
}

func NewScheduler(workers int) *Scheduler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	slog.Debug("scheduler created", slog.Int("workers", workers))
	return &Scheduler{
		workers: workers,
		slots:   make(chan struct{}, workers),
	}
}

func (s *Scheduler) Workers() int { return s.workers }

func (s *Scheduler) Acquire() { s.slots <- struct{}{} }
func (s *Scheduler) Release() { <-s.slots }

// Suspend releases the caller's worker slot for the duration of wait and
// reacquires it before returning. wait must block until the awaited result
// is ready.
func (s *Scheduler) Suspend(wait func()) {
	s.Release()
	defer s.Acquire()
	wait()
}
