package runtime

import (
	"fmt"

	"github.com/alexchoi0/blueprint-engine/internal/ast"
	"github.com/alexchoi0/blueprint-engine/internal/native"
	"github.com/alexchoi0/blueprint-engine/internal/token"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

// Builtin is an interpreter-provided function that runs synchronously on
// the calling task, unlike natives it never suspends by itself.
type Builtin struct {
	Name string
	Fn   func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value
}

func (b *Builtin) Kind() value.Kind { return value.BUILTIN_VALUE }
func (b *Builtin) Inspect() string  { return fmt.Sprintf("<builtin %s>", b.Name) }

func (e *Task) evalCall(node *ast.CallExpression) value.Value {
	fn := e.Eval(node.Function)
	if e.isError(fn) {
		return fn
	}

	args, errv := e.evalExpressions(node.Args)
	if errv != nil {
		return errv
	}

	var kwargs map[string]value.Value
	if len(node.Kwargs) > 0 {
		kwargs = make(map[string]value.Value, len(node.Kwargs))
		for _, kw := range node.Kwargs {
			if _, dup := kwargs[kw.Name]; dup {
				return e.errorAt(node.Token, value.NewArgumentError(
					"duplicate keyword argument %q", kw.Name))
			}
			v := e.Eval(kw.Value)
			if e.isError(v) {
				return v
			}
			kwargs[kw.Name] = v
		}
	}

	return e.applyCallable(node.Token, fn, args, kwargs)
}

// applyCallable dispatches over the closed set of callable kinds. Native
// calls are the suspension point: the task parks on the dispatch future
// without holding its worker slot.
func (e *Task) applyCallable(tok token.Token, fn value.Value, args []value.Value, kwargs map[string]value.Value) value.Value {
	switch fn := fn.(type) {
	case *value.Function:
		return e.applyFunction(tok, fn, args, kwargs)

	case *Builtin:
		return fn.Fn(e, tok, args, kwargs)

	case *native.Fn:
		fut := fn.Dispatch(args, kwargs)
		result := e.await(fut)
		if errv, ok := result.(*value.Error); ok {
			return e.errorAt(tok, errv)
		}
		return result
	}
	return e.errorAt(tok, value.NewTypeError("%s is not callable", value.TypeName(fn)))
}

func (e *Task) applyFunction(tok token.Token, fn *value.Function, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(e.callStack) >= maxCallDepth {
		return e.errorAt(tok, value.NewValueError("maximum call depth exceeded"))
	}

	callScope, errv := e.bindArguments(fn, args, kwargs)
	if errv != nil {
		return e.errorAt(tok, errv)
	}

	// Calling a generator function only captures the bound scope; the body
	// starts on the first pull.
	if fn.IsGen {
		return newGenerator(e.Runtime, fn, callScope)
	}

	name := fn.Name
	if name == "" {
		name = "<lambda>"
	}
	e.callStack = append(e.callStack, callFrame{name: name, file: e.file, line: tok.Line})
	e.pushScope(callScope)

	result := e.Eval(fn.Body)

	e.popScope()
	e.callStack = e.callStack[:len(e.callStack)-1]

	switch result := result.(type) {
	case *value.ReturnSignal:
		return result.Value
	case *value.Error:
		result.PushFrame(name, e.file, tok.Line)
		return result
	case *value.BreakSignal, *value.ContinueSignal:
		return e.errorAt(tok, value.NewTypeError("break or continue outside of a loop"))
	}
	return value.None
}

// bindArguments maps positional and keyword arguments onto parameters,
// applying definition-time defaults and collecting any *args overflow.
func (e *Task) bindArguments(fn *value.Function, args []value.Value, kwargs map[string]value.Value) (*value.Scope, *value.Error) {
	name := fn.Name
	if name == "" {
		name = "<lambda>"
	}
	scope := value.NewEnclosedScope(fn.Scope)

	var variadic *ast.Parameter
	fixed := fn.Params
	if n := len(fn.Params); n > 0 && fn.Params[n-1].IsVariadic {
		variadic = fn.Params[n-1]
		fixed = fn.Params[:n-1]
	}

	if variadic == nil && len(args) > len(fixed) {
		return nil, value.NewArgumentError(
			"%s() takes at most %d positional arguments, got %d", name, len(fixed), len(args))
	}

	used := make(map[string]bool, len(kwargs))
	for i, param := range fixed {
		switch {
		case i < len(args):
			if _, byKeyword := kwargs[param.Name.Value]; byKeyword {
				return nil, value.NewArgumentError(
					"%s() got multiple values for argument %q", name, param.Name.Value)
			}
			scope.Define(param.Name.Value, args[i])
		default:
			if v, ok := kwargs[param.Name.Value]; ok {
				used[param.Name.Value] = true
				scope.Define(param.Name.Value, v)
			} else if fn.Defaults[i] != nil {
				scope.Define(param.Name.Value, fn.Defaults[i])
			} else {
				return nil, value.NewArgumentError(
					"%s() missing required argument %q", name, param.Name.Value)
			}
		}
	}

	for kw := range kwargs {
		if used[kw] {
			continue
		}
		known := false
		for _, param := range fixed {
			if param.Name.Value == kw {
				known = true
				break
			}
		}
		if !known {
			return nil, value.NewArgumentError(
				"%s() got an unexpected keyword argument %q", name, kw)
		}
		// Known parameter already bound positionally; caught above.
	}

	if variadic != nil {
		rest := args[min(len(args), len(fixed)):]
		extra := &value.Tuple{Elements: append([]value.Value{}, rest...)}
		scope.Define(variadic.Name.Value, extra)
	}

	return scope, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
