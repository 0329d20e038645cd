package runtime

import (
	"fmt"
	goruntime "runtime"
	"sync"

	"github.com/alexchoi0/blueprint-engine/internal/ast"
	"github.com/alexchoi0/blueprint-engine/internal/token"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

type genMsg struct {
	value value.Value
	err   *value.Error
	done  bool
}

// generatorState is the handshake between a generator body and its
// consumer. The body parks on resume after sending each value, so it never
// runs ahead of the puller and never holds a worker slot while parked.
// quit closes when the consumer abandons the handle; a parked body wakes
// on it and unwinds instead of leaking.
type generatorState struct {
	out     chan genMsg
	resume  chan struct{}
	quit    chan struct{}
	quitter sync.Once
}

func (s *generatorState) abandon() {
	s.quitter.Do(func() { close(s.quit) })
}

// errGeneratorAbandoned unwinds a generator body whose consumer is gone.
// It never reaches script code; run discards it.
var errGeneratorAbandoned = &value.Error{ErrKind: value.NativeError, Message: "generator abandoned"}

// Generator owns a suspended function execution. Calling a generator
// function does not run its body; the body starts on the first pull and
// advances one yield per pull.
type Generator struct {
	Name    string
	fn      *value.Function
	scope   *value.Scope
	runtime *Runtime

	mu       sync.Mutex
	state    *generatorState
	started  bool
	finished bool
}

func newGenerator(r *Runtime, fn *value.Function, callScope *value.Scope) *Generator {
	name := fn.Name
	if name == "" {
		name = "lambda"
	}
	state := &generatorState{
		out:    make(chan genMsg),
		resume: make(chan struct{}),
		quit:   make(chan struct{}),
	}
	g := &Generator{
		Name:    name,
		fn:      fn,
		scope:   callScope,
		runtime: r,
		state:   state,
	}
	// A partially consumed generator that is dropped leaves its body
	// parked in the handshake; release it when the handle is collected.
	goruntime.SetFinalizer(g, func(*Generator) { state.abandon() })
	return g
}

func (g *Generator) Kind() value.Kind { return value.GENERATOR_VALUE }
func (g *Generator) Inspect() string  { return fmt.Sprintf("<generator %s>", g.Name) }

// Next resumes the generator until its next yield or completion. The
// calling task gives up its worker slot while the body runs.
func (g *Generator) Next(t *Task) (value.Value, bool, *value.Error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finished {
		return nil, false, nil
	}
	if !g.started {
		g.started = true
		go g.run()
	} else {
		g.state.resume <- struct{}{}
	}

	var msg genMsg
	t.Runtime.Sched.Suspend(func() { msg = <-g.state.out })

	if msg.done {
		g.finished = true
		return nil, false, msg.err
	}
	return msg.value, true, nil
}

// run executes the body on its own task. It holds a worker slot only
// between yields; evalYield releases it around each handshake.
func (g *Generator) run() {
	t := g.runtime.newTask(g.fn.Module)
	t.gen = g.state
	t.pushScope(g.scope)

	g.runtime.Sched.Acquire()
	result := t.Eval(g.fn.Body)
	g.runtime.Sched.Release()

	if result == errGeneratorAbandoned {
		return
	}
	msg := genMsg{done: true}
	if errv, ok := result.(*value.Error); ok {
		errv.PushFrame(g.Name, g.fn.Module, 0)
		msg.err = errv
	}
	select {
	case g.state.out <- msg:
	case <-g.state.quit:
	}
}

func (e *Task) evalYield(node *ast.YieldStatement) value.Value {
	if e.gen == nil {
		return e.errorAt(node.Token, value.NewTypeError("yield outside of a generator"))
	}
	v := e.Eval(node.Value)
	if e.isError(v) {
		return v
	}
	abandoned := false
	e.Runtime.Sched.Suspend(func() {
		select {
		case e.gen.out <- genMsg{value: v}:
		case <-e.gen.quit:
			abandoned = true
			return
		}
		select {
		case <-e.gen.resume:
		case <-e.gen.quit:
			abandoned = true
		}
	})
	if abandoned {
		return errGeneratorAbandoned
	}
	return value.None
}

// Lazy wraps an upstream iterator with a per-element transform or
// predicate. The callable runs on the pulling task, once per element
// actually pulled.
type Lazy struct {
	Op string // "map" or "filter"
	fn value.Value
	src iterator
}

func (l *Lazy) Kind() value.Kind { return value.GENERATOR_VALUE }
func (l *Lazy) Inspect() string  { return fmt.Sprintf("<lazy %s>", l.Op) }

func (l *Lazy) Next(t *Task) (value.Value, bool, *value.Error) {
	for {
		el, ok, errv := l.src.Next(t)
		if errv != nil || !ok {
			return nil, false, errv
		}
		out := t.applyCallable(token.Token{}, l.fn, []value.Value{el}, nil)
		if errv, isErr := out.(*value.Error); isErr {
			return nil, false, errv
		}
		switch l.Op {
		case "map":
			return out, true, nil
		case "filter":
			if value.Truth(out) {
				return el, true, nil
			}
		}
	}
}
