package runtime

import (
	"time"

	"github.com/alexchoi0/blueprint-engine/internal/future"
	"github.com/alexchoi0/blueprint-engine/internal/native"
	"github.com/alexchoi0/blueprint-engine/internal/token"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

// spawn runs fn() as a child task on its own goroutine and returns a
// future for its outcome. The child acquires worker slots independently,
// so its suspensions are scheduled apart from the parent's.
func (e *Task) spawn(tok token.Token, fn value.Value) *future.Future[value.Value] {
	fut := future.NewPending[value.Value]()
	child := e.Runtime.newTask(e.file)
	child.loadChain = append([]string{}, e.loadChain...)

	go func() {
		e.Runtime.Sched.Acquire()
		out := child.applyCallable(tok, fn, nil, nil)
		e.Runtime.Sched.Release()
		fut.Complete(out)
	}()
	return fut
}

// builtinParallel fans out a sequence of zero-argument callables and joins
// them. Results come back in input order regardless of completion order.
// If children fail, the failure with the lowest input index wins; the
// others are discarded. That tie-break is a deliberate policy, not an
// accident of timing.
func builtinParallel(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("parallel() takes 1 argument, got %d", len(args)))
	}
	fns, errv := e.materialize(tok, args[0])
	if errv != nil {
		return errv
	}
	for i, fn := range fns {
		switch fn.(type) {
		case *value.Function, *Builtin, *native.Fn:
		default:
			return e.errorAt(tok, value.NewTypeError(
				"parallel() element %d is not callable: %s", i, value.TypeName(fn)))
		}
	}

	futs := make([]*future.Future[value.Value], len(fns))
	for i, fn := range fns {
		futs[i] = e.spawn(tok, fn)
	}

	// Fan-in: park until every child settles, without holding a worker.
	results := make([]value.Value, len(futs))
	e.Runtime.Sched.Suspend(func() {
		for i, fut := range futs {
			results[i], _ = fut.Await()
		}
	})

	for _, r := range results {
		if errv, ok := r.(*value.Error); ok {
			return e.errorAt(tok, errv)
		}
	}
	return &value.List{Elements: results}
}

// builtinTask runs a callable with a deadline. The timer races the
// callable's completion; the loser's result is discarded without touching
// the caller, who has already resumed. Returns a dict with value,
// completed, reason and elapsed keys.
func builtinTask(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("task() takes 1 argument, got %d", len(args)))
	}
	switch args[0].(type) {
	case *value.Function, *Builtin, *native.Fn:
	default:
		return e.errorAt(tok, value.NewTypeError(
			"task() argument must be callable, got %s", value.TypeName(args[0])))
	}

	deadline, errv := taskDeadline(e, tok, kwargs)
	if errv != nil {
		return errv
	}

	start := time.Now()
	fut := e.spawn(tok, args[0])

	var out value.Value
	completed := true
	if deadline <= 0 && deadline != noDeadline {
		// Deadline already in the past; report a timeout without waiting.
		completed = false
	} else {
		e.Runtime.Sched.Suspend(func() {
			if deadline == noDeadline {
				out, _ = fut.Await()
				return
			}
			v, _, ok := fut.AwaitTimeout(deadline)
			out, completed = v, ok
		})
	}

	elapsed := time.Since(start).Seconds()

	if completed {
		if errv, ok := out.(*value.Error); ok {
			return e.errorAt(tok, errv)
		}
	} else {
		out = value.None
	}

	reason := "completed"
	if !completed {
		reason = "timeout"
	}

	result := value.NewDict()
	result.Set(&value.String{Value: "value"}, out)
	result.Set(&value.String{Value: "completed"}, nativeBool(completed))
	result.Set(&value.String{Value: "reason"}, &value.String{Value: reason})
	result.Set(&value.String{Value: "elapsed"}, &value.Float{Value: elapsed})
	return result
}

const noDeadline = time.Duration(-1)

// taskDeadline reads max_wait (relative seconds) or wait_until (absolute
// unix timestamp); passing both is an error.
func taskDeadline(e *Task, tok token.Token, kwargs map[string]value.Value) (time.Duration, *value.Error) {
	maxWait, hasMax := kwargs["max_wait"]
	waitUntil, hasUntil := kwargs["wait_until"]
	if hasMax && hasUntil {
		return 0, e.errorAt(tok, value.NewArgumentError(
			"task() accepts max_wait or wait_until, not both"))
	}

	secsOf := func(v value.Value, name string) (float64, *value.Error) {
		switch v := v.(type) {
		case *value.Int:
			return float64(v.Value), nil
		case *value.Float:
			return v.Value, nil
		}
		return 0, e.errorAt(tok, value.NewTypeError(
			"task() %s must be a number, got %s", name, value.TypeName(v)))
	}

	switch {
	case hasMax:
		secs, errv := secsOf(maxWait, "max_wait")
		if errv != nil {
			return 0, errv
		}
		if secs < 0 {
			return 0, e.errorAt(tok, value.NewValueError("task() max_wait must not be negative"))
		}
		return time.Duration(secs * float64(time.Second)), nil
	case hasUntil:
		ts, errv := secsOf(waitUntil, "wait_until")
		if errv != nil {
			return 0, errv
		}
		deadline := time.Unix(0, int64(ts*1e9))
		return time.Until(deadline), nil
	}
	return noDeadline, nil
}
