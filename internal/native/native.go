// Package native implements the host-side bindings the interpreter exposes
// as implicitly-suspending functions. Each call runs on its own goroutine
// and resolves a future; the calling task parks on the future without
// holding a scheduler worker slot.
package native

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/alexchoi0/blueprint-engine/internal/config"
	"github.com/alexchoi0/blueprint-engine/internal/future"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

type Context struct {
	Config config.Config

	nextID atomic.Int64

	mu    sync.Mutex
	dbs   map[int64]*dbHandle
	spans map[int64]*storeHandle
}

func (c *Context) NextHandleID() int64 {
	return c.nextID.Add(1)<<16 | int64(rand.Intn(0xFFFF))
}

// Fn is a native function value. Calls are dispatched off the interpreter
// goroutine; errors come back in-band as *value.Error.
type Fn struct {
	Name string
	Call func(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value

	ctx *Context
}

func (f *Fn) Kind() value.Kind { return value.NATIVE_VALUE }
func (f *Fn) Inspect() string  { return fmt.Sprintf("<native function %s>", f.Name) }

// Dispatch starts the call and returns a future the task can park on.
func (f *Fn) Dispatch(args []value.Value, kwargs map[string]value.Value) *future.Future[value.Value] {
	fut := future.NewPending[value.Value]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("native call panicked",
					slog.String("name", f.Name),
					slog.Any("panic", r))
				fut.Complete(value.NewNativeError("%s: internal failure", f.Name))
			}
		}()
		fut.Complete(f.Call(f.ctx, args, kwargs))
	}()
	return fut
}

// Registry holds every registered native, grouped into dotted modules
// (file.read, http.get, db.query).
type Registry struct {
	ctx     *Context
	modules map[string]map[string]*Fn
}

func NewRegistry(cfg config.Config) *Registry {
	r := &Registry{
		ctx: &Context{
			Config: cfg,
			dbs:    map[int64]*dbHandle{},
			spans:  map[int64]*storeHandle{},
		},
		modules: map[string]map[string]*Fn{},
	}

	r.register("file", fileFns())
	r.register("http", httpFns())
	r.register("json", jsonFns())
	r.register("crypto", cryptoFns())
	r.register("process", processFns())
	r.register("time", timeFns())
	r.register("console", consoleFns())
	r.register("db", dbFns())
	r.register("store", storeFns())

	return r
}

func (r *Registry) register(module string, fns []*Fn) {
	group := make(map[string]*Fn, len(fns))
	for _, fn := range fns {
		fn.ctx = r.ctx
		fn.Name = module + "." + fn.Name
		group[shortName(fn.Name)] = fn
	}
	r.modules[module] = group
}

func shortName(qualified string) string {
	for i := len(qualified) - 1; i >= 0; i-- {
		if qualified[i] == '.' {
			return qualified[i+1:]
		}
	}
	return qualified
}

// Modules returns each native group as a frozen module value for binding
// into the universe scope.
func (r *Registry) Modules() map[string]*value.Module {
	out := make(map[string]*value.Module, len(r.modules))
	for name, fns := range r.modules {
		scope := value.NewScope()
		for short, fn := range fns {
			scope.Define(short, fn)
		}
		scope.Freeze()
		out[name] = &value.Module{Name: name, Path: "native:" + name, Exports: scope}
	}
	return out
}

// Close releases open handles. Used on interpreter shutdown.
func (r *Registry) Close() {
	r.ctx.mu.Lock()
	defer r.ctx.mu.Unlock()
	for id, h := range r.ctx.dbs {
		h.close()
		delete(r.ctx.dbs, id)
	}
	for id, h := range r.ctx.spans {
		h.close()
		delete(r.ctx.spans, id)
	}
}

// ----------------------------------------------------------- arg helpers

func argCount(name string, args []value.Value, want int) *value.Error {
	if len(args) != want {
		return value.NewArgumentError("%s() takes %d arguments, got %d", name, want, len(args))
	}
	return nil
}

func argString(name string, args []value.Value, i int) (string, *value.Error) {
	if i >= len(args) {
		return "", value.NewArgumentError("%s() missing argument %d", name, i+1)
	}
	s, ok := args[i].(*value.String)
	if !ok {
		return "", value.NewTypeError("%s() argument %d must be a string, got %s",
			name, i+1, value.TypeName(args[i]))
	}
	return s.Value, nil
}

func argInt(name string, args []value.Value, i int) (int64, *value.Error) {
	if i >= len(args) {
		return 0, value.NewArgumentError("%s() missing argument %d", name, i+1)
	}
	n, ok := args[i].(*value.Int)
	if !ok {
		return 0, value.NewTypeError("%s() argument %d must be an int, got %s",
			name, i+1, value.TypeName(args[i]))
	}
	return n.Value, nil
}

func kwargString(name string, kwargs map[string]value.Value, key, fallback string) (string, *value.Error) {
	v, ok := kwargs[key]
	if !ok {
		return fallback, nil
	}
	s, ok := v.(*value.String)
	if !ok {
		return "", value.NewTypeError("%s() keyword %q must be a string, got %s",
			name, key, value.TypeName(v))
	}
	return s.Value, nil
}
