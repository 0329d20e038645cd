package future

import (
	"sync"
	"time"
)

type result[T any] struct {
	v   T
	err error
}

// Future is a single-shot result that completes exactly once.
type Future[T any] struct {
	doneChannel chan struct{}
	res         result[T]
	once        sync.Once
}

// New runs fn in a goroutine and completes the Future when fn returns.
func New[T any](fn func() (T, error)) *Future[T] {
	f := NewPending[T]()
	go func() {
		v, err := fn()
		f.complete(v, err)
	}()
	return f
}

// NewPending creates an incomplete Future that the producer resolves later
// with Complete or Fail.
func NewPending[T any]() *Future[T] {
	return &Future[T]{doneChannel: make(chan struct{})}
}

// FromValue creates an already-completed Future with a value.
func FromValue[T any](v T) *Future[T] {
	f := NewPending[T]()
	f.complete(v, nil)
	return f
}

// FromError creates an already-completed Future with an error.
func FromError[T any](err error) *Future[T] {
	f := NewPending[T]()
	var zero T
	f.complete(zero, err)
	return f
}

// Complete resolves the Future with a value. Later calls to Complete or
// Fail are no-ops.
func (f *Future[T]) Complete(v T) { f.complete(v, nil) }

// Fail resolves the Future with an error.
func (f *Future[T]) Fail(err error) {
	var zero T
	f.complete(zero, err)
}

// Await blocks until completion and returns the result.
func (f *Future[T]) Await() (T, error) {
	<-f.doneChannel
	return f.res.v, f.res.err
}

// AwaitTimeout waits up to d for completion.
// Returns (value, err, ok). ok=false if timed out.
func (f *Future[T]) AwaitTimeout(d time.Duration) (T, error, bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-f.doneChannel:
		return f.res.v, f.res.err, true
	case <-timer.C:
		var zero T
		return zero, nil, false
	}
}

// Done returns a channel closed when the Future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.doneChannel }

// All waits for all futures and returns their values in order.
// If any future fails, it returns the first error encountered.
func All[T any](futures ...*Future[T]) *Future[[]T] {
	return New(func() ([]T, error) {
		out := make([]T, len(futures))
		for i, fut := range futures {
			v, err := fut.Await()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	})
}

// complete sets the result exactly once and closes doneChannel.
func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.res = result[T]{v: v, err: err}
		close(f.doneChannel)
	})
}
