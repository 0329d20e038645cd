package runtime

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/alexchoi0/blueprint-engine/internal/ast"
	"github.com/alexchoi0/blueprint-engine/internal/config"
	"github.com/alexchoi0/blueprint-engine/internal/lexer"
	"github.com/alexchoi0/blueprint-engine/internal/native"
	"github.com/alexchoi0/blueprint-engine/internal/parser"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Runtime owns the process-scoped pieces: the scheduler, the module cache,
// the native registry and the universe scope. Independent Runtime instances
// can coexist; nothing here is a package-level static.
type Runtime struct {
	Config   config.Config
	Sched    *Scheduler
	Natives  *native.Registry
	universe *value.Scope
	modules  *moduleCache
	nextTask atomic.Int64
}

func NewRuntime(cfg config.Config) *Runtime {
	r := &Runtime{
		Config:  cfg,
		Sched:   NewScheduler(cfg.Workers),
		Natives: native.NewRegistry(cfg),
		modules: newModuleCache(),
	}
	r.universe = r.buildUniverse()
	return r
}

// Close releases native handles held by the registry.
func (r *Runtime) Close() { r.Natives.Close() }

// Universe returns the frozen outermost scope shared by all modules.
func (r *Runtime) Universe() *value.Scope { return r.universe }

// buildUniverse assembles the outermost scope: builtins plus one module
// value per native group. It is frozen; assigning to a builtin name fails
// with a ValueError because assignment rebinds the nearest binding and the
// nearest one lives here. Only parameters and loop variables, which define
// rather than assign, can shadow a builtin.
func (r *Runtime) buildUniverse() *value.Scope {
	universe := value.NewScope()
	for name, fn := range builtinFns() {
		universe.Define(name, fn)
	}
	for name, mod := range r.Natives.Modules() {
		universe.Define(name, mod)
	}
	universe.Freeze()
	return universe
}

func (r *Runtime) newTask(file string) *Task {
	t := &Task{
		ID:      r.nextTask.Add(1),
		Runtime: r,
		file:    file,
	}
	return t
}

// RunFile parses and executes the script at path as the entry module.
// Execution errors come back as *value.Error inside err.
func (r *Runtime) RunFile(path string) (value.Value, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return r.RunSource(string(source), path)
}

// RunSource executes source as the entry module. The module scope is left
// unfrozen so the REPL can keep defining names between inputs.
func (r *Runtime) RunSource(source, path string) (value.Value, error) {
	program, perr := Parse(source, path)
	if perr != nil {
		return nil, perr
	}

	scope := value.NewEnclosedScope(r.universe)
	return r.runProgram(program, scope, path)
}

// Run executes an already-parsed program against an initial scope.
func (r *Runtime) Run(program *ast.Program, scope *value.Scope, path string) (value.Value, error) {
	return r.runProgram(program, scope, path)
}

func (r *Runtime) runProgram(program *ast.Program, scope *value.Scope, path string) (value.Value, error) {
	t := r.newTask(path)
	t.pushScope(scope)

	r.Sched.Acquire()
	result := t.Eval(program)
	r.Sched.Release()

	if errv, ok := result.(*value.Error); ok {
		slog.Error("script failed",
			slog.String("path", path),
			slog.String("kind", string(errv.ErrKind)),
			slog.String("message", errv.Message))
		return nil, errv
	}
	return result, nil
}

// Parse tokenizes and parses one unit of source, aggregating parser
// diagnostics into a single error.
func Parse(source, path string) (*ast.Program, error) {
	l := lexer.New(source)
	p := parser.New(l, path)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("parse errors:\n%s", strings.Join(errs, "\n"))
	}
	return program, nil
}

// resolveModulePath maps a load() path to a file on disk. Paths with the
// std: prefix resolve under <home>/std, everything else against the entry
// script's directory.
func (r *Runtime) resolveModulePath(path string) (string, error) {
	if strings.HasPrefix(path, "std:") {
		if r.Config.Home == "" {
			return "", fmt.Errorf("cannot resolve %q: BLUEPRINT_HOME is not set", path)
		}
		rel := strings.TrimPrefix(path, "std:")
		return filepath.Join(r.Config.Home, "std", rel+".bp"), nil
	}
	if !strings.HasSuffix(path, ".bp") {
		path += ".bp"
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(r.Config.Root, path), nil
}
