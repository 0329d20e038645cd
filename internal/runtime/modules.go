package runtime

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alexchoi0/blueprint-engine/internal/value"
)

type moduleState int

const (
	moduleLoading moduleState = iota
	moduleLoaded
	moduleFailed
)

// moduleEntry is the per-path state machine. The first loader executes the
// module body; everything arriving while it runs parks on done and observes
// the same terminal outcome. A failed load stays failed, it is replayed to
// every later loader rather than retried.
type moduleEntry struct {
	state  moduleState
	module *value.Module
	err    *value.Error
	done   chan struct{}
}

type moduleCache struct {
	mu      sync.Mutex
	entries map[string]*moduleEntry
}

func newModuleCache() *moduleCache {
	return &moduleCache{entries: map[string]*moduleEntry{}}
}

// LoadModule resolves, executes and caches the module at path. Concurrent
// loads of the same path execute the body exactly once. A load() of a path
// the calling task is itself in the middle of loading is a cycle.
func (r *Runtime) LoadModule(t *Task, path string) (*value.Module, *value.Error) {
	fullPath, err := r.resolveModulePath(path)
	if err != nil {
		return nil, value.NewValueError("load(%q): %v", path, err)
	}
	key, err := filepath.Abs(fullPath)
	if err != nil {
		key = fullPath
	}

	for _, loading := range t.loadChain {
		if loading == key {
			return nil, value.NewValueError("load(%q): cycle through %s",
				path, strings.Join(append(t.loadChain, key), " -> "))
		}
	}

	r.modules.mu.Lock()
	entry, ok := r.modules.entries[key]
	if ok {
		r.modules.mu.Unlock()
		if entry.state == moduleLoading {
			// Park without holding a worker slot until the first loader
			// finishes.
			r.Sched.Suspend(func() { <-entry.done })
		}
		if entry.err != nil {
			return nil, entry.err
		}
		return entry.module, nil
	}

	entry = &moduleEntry{state: moduleLoading, done: make(chan struct{})}
	r.modules.entries[key] = entry
	r.modules.mu.Unlock()

	module, errv := r.executeModule(t, path, key)

	r.modules.mu.Lock()
	if errv != nil {
		entry.state = moduleFailed
		entry.err = errv
	} else {
		entry.state = moduleLoaded
		entry.module = module
	}
	close(entry.done)
	r.modules.mu.Unlock()

	return module, errv
}

// executeModule runs a module's top-level statements in a fresh scope and
// freezes the result.
func (r *Runtime) executeModule(t *Task, path, key string) (*value.Module, *value.Error) {
	source, err := os.ReadFile(key)
	if err != nil {
		return nil, value.NewValueError("load(%q): %v", path, err)
	}

	program, perr := Parse(string(source), key)
	if perr != nil {
		return nil, value.NewValueError("load(%q): %v", path, perr)
	}

	slog.Debug("loading module",
		slog.String("path", path),
		slog.String("file", key))

	scope := value.NewEnclosedScope(r.universe)

	loader := r.newTask(key)
	loader.loadChain = append(append([]string{}, t.loadChain...), key)
	loader.pushScope(scope)

	out := loader.Eval(program)
	if errv, ok := out.(*value.Error); ok {
		errv.PushFrame(fmt.Sprintf("<module %s>", path), key, 0)
		return nil, errv
	}

	scope.Freeze()
	return &value.Module{Name: moduleName(path), Path: path, Exports: scope}, nil
}

func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
