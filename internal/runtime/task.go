package runtime

import (
	"log/slog"

	"github.com/alexchoi0/blueprint-engine/internal/ast"
	"github.com/alexchoi0/blueprint-engine/internal/future"
	"github.com/alexchoi0/blueprint-engine/internal/token"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

const maxCallDepth = 1000

type callFrame struct {
	name string
	file string
	line int
}

// Task is one schedulable unit of evaluation: a goroutine walking an AST
// with its own scope stack. It holds a scheduler worker slot while
// CPU-bound and releases it whenever it parks on a native call, a
// generator handshake, a module load or a parallel join.
type Task struct {
	ID      int64
	Runtime *Runtime

	scopeStack []*value.Scope
	callStack  []callFrame
	file       string

	// loadChain lists module keys whose top-level code this task is
	// currently executing, for load() cycle detection.
	loadChain []string

	// gen is set when this task runs a generator body; yield statements
	// hand values through it.
	gen *generatorState
}

func (e *Task) pushScope(s *value.Scope) {
	e.scopeStack = append(e.scopeStack, s)
}

func (e *Task) popScope() {
	if len(e.scopeStack) == 0 {
		panic("scope stack underflow")
	}
	e.scopeStack = e.scopeStack[:len(e.scopeStack)-1]
}

func (e *Task) currentScope() *value.Scope {
	if len(e.scopeStack) == 0 {
		panic("scope stack is empty")
	}
	return e.scopeStack[len(e.scopeStack)-1]
}

// await parks the task on fut without occupying a worker slot.
func (e *Task) await(fut *future.Future[value.Value]) value.Value {
	var out value.Value
	e.Runtime.Sched.Suspend(func() { out, _ = fut.Await() })
	return out
}

func (e *Task) isError(v value.Value) bool { return value.IsError(v) }

// errorAt stamps a source position onto a fresh error.
func (e *Task) errorAt(tok token.Token, errv *value.Error) *value.Error {
	if len(errv.Frames) == 0 {
		errv.Frames = append(errv.Frames, value.Frame{File: e.file, Line: tok.Line})
	}
	return errv
}

func (e *Task) Eval(node ast.Node) value.Value {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return e.evalProgram(node)

	case *ast.BlockStatement:
		return e.evalBlock(node)

	case *ast.ExpressionStatement:
		return e.Eval(node.Expression)

	case *ast.AssignStatement:
		return e.evalAssign(node)

	case *ast.ReturnStatement:
		if node.Value == nil {
			return &value.ReturnSignal{Value: value.None}
		}
		val := e.Eval(node.Value)
		if e.isError(val) {
			return val
		}
		return &value.ReturnSignal{Value: val}

	case *ast.YieldStatement:
		return e.evalYield(node)

	case *ast.BreakStatement:
		return &value.BreakSignal{}

	case *ast.ContinueStatement:
		return &value.ContinueSignal{}

	case *ast.PassStatement:
		return value.None

	case *ast.IfStatement:
		return e.evalIf(node)

	case *ast.ForStatement:
		return e.evalFor(node)

	case *ast.WhileStatement:
		return e.evalWhile(node)

	case *ast.DefStatement:
		return e.evalDef(node)

	case *ast.LoadStatement:
		return e.evalLoad(node)

	// Expressions
	case *ast.Identifier:
		return e.evalIdentifier(node)

	case *ast.IntLiteral:
		return &value.Int{Value: node.Value}

	case *ast.FloatLiteral:
		return &value.Float{Value: node.Value}

	case *ast.StringLiteral:
		return &value.String{Value: node.Value}

	case *ast.BytesLiteral:
		return &value.Bytes{Value: node.Value}

	case *ast.FStringLiteral:
		return e.evalFString(node)

	case *ast.BoolLiteral:
		return nativeBool(node.Value)

	case *ast.NoneLiteral:
		return value.None

	case *ast.ListLiteral:
		elements, errv := e.evalExpressions(node.Elements)
		if errv != nil {
			return errv
		}
		return &value.List{Elements: elements}

	case *ast.TupleLiteral:
		elements, errv := e.evalExpressions(node.Elements)
		if errv != nil {
			return errv
		}
		return &value.Tuple{Elements: elements}

	case *ast.DictLiteral:
		return e.evalDictLiteral(node)

	case *ast.SetLiteral:
		return e.evalSetLiteral(node)

	case *ast.PrefixExpression:
		right := e.Eval(node.Right)
		if e.isError(right) {
			return right
		}
		return e.evalPrefix(node, right)

	case *ast.InfixExpression:
		return e.evalInfix(node)

	case *ast.CondExpression:
		cond := e.Eval(node.Condition)
		if e.isError(cond) {
			return cond
		}
		if value.Truth(cond) {
			return e.Eval(node.Then)
		}
		return e.Eval(node.Else)

	case *ast.LambdaExpression:
		return e.evalLambda(node)

	case *ast.CallExpression:
		return e.evalCall(node)

	case *ast.IndexExpression:
		return e.evalIndex(node)

	case *ast.SliceExpression:
		return e.evalSlice(node)

	case *ast.AttrExpression:
		return e.evalAttr(node)

	case *ast.ListComprehension:
		return e.evalListComprehension(node)

	case *ast.DictComprehension:
		return e.evalDictComprehension(node)

	case *ast.SetComprehension:
		return e.evalSetComprehension(node)
	}

	return value.NewTypeError("cannot evaluate node %T", node)
}

func (e *Task) evalProgram(program *ast.Program) value.Value {
	var result value.Value = value.None
	for _, stmt := range program.Statements {
		result = e.Eval(stmt)
		switch result := result.(type) {
		case *value.Error:
			return result
		case *value.ReturnSignal:
			return result.Value
		case *value.BreakSignal, *value.ContinueSignal:
			return value.NewTypeError("break or continue outside of a loop")
		}
	}
	return result
}

func (e *Task) evalBlock(block *ast.BlockStatement) value.Value {
	var result value.Value = value.None
	for _, stmt := range block.Statements {
		result = e.Eval(stmt)
		switch result.(type) {
		case *value.Error, *value.ReturnSignal, *value.BreakSignal, *value.ContinueSignal:
			return result
		}
	}
	return result
}

func (e *Task) evalIdentifier(node *ast.Identifier) value.Value {
	if val, ok := e.currentScope().Get(node.Value); ok {
		return val
	}
	return e.errorAt(node.Token, value.NewNameError("name %q is not defined", node.Value))
}

func (e *Task) evalAssign(node *ast.AssignStatement) value.Value {
	if node.Op == "=" {
		val := e.Eval(node.Value)
		if e.isError(val) {
			return val
		}
		return e.assignTo(node, node.Target, val)
	}

	// Augmented assignment reads the existing binding first; an undefined
	// name is a NameError rather than an implicit definition. An index
	// target evaluates its container and index once, so xs[f()] += 1
	// calls f a single time.
	op := node.Op[:len(node.Op)-1]
	if target, ok := node.Target.(*ast.IndexExpression); ok {
		left := e.Eval(target.Left)
		if e.isError(left) {
			return left
		}
		index := e.Eval(target.Index)
		if e.isError(index) {
			return index
		}
		current := e.readIndex(target.Token, left, index)
		if e.isError(current) {
			return current
		}
		operand := e.Eval(node.Value)
		if e.isError(operand) {
			return operand
		}
		result := e.binaryOp(node.Token, op, current, operand)
		if e.isError(result) {
			return result
		}
		return e.storeIndex(target.Token, left, index, result)
	}

	current := e.Eval(node.Target)
	if e.isError(current) {
		return current
	}
	operand := e.Eval(node.Value)
	if e.isError(operand) {
		return operand
	}
	result := e.binaryOp(node.Token, op, current, operand)
	if e.isError(result) {
		return result
	}
	return e.assignTo(node, node.Target, result)
}

func (e *Task) assignTo(node *ast.AssignStatement, target ast.Expression, val value.Value) value.Value {
	switch target := target.(type) {
	case *ast.Identifier:
		// Rebind the nearest existing binding; first assignment to an
		// unbound name defines it in the current scope.
		found, err := e.currentScope().Assign(target.Value, val)
		if err != nil {
			return e.errorAt(node.Token, value.NewValueError("%v", err))
		}
		if !found {
			if node.Op != "=" {
				return e.errorAt(node.Token, value.NewNameError("name %q is not defined", target.Value))
			}
			if err := e.currentScope().Define(target.Value, val); err != nil {
				return e.errorAt(node.Token, value.NewValueError("%v", err))
			}
		}
		return value.None

	case *ast.IndexExpression:
		return e.evalIndexAssign(target, val)

	case *ast.TupleLiteral:
		names := make([]string, len(target.Elements))
		for i, el := range target.Elements {
			names[i] = el.(*ast.Identifier).Value
		}
		return e.unpackInto(node.Token, names, val)

	case *ast.AttrExpression:
		return e.errorAt(node.Token, value.NewTypeError("cannot assign to attribute %q", target.Name))
	}
	return e.errorAt(node.Token, value.NewTypeError("cannot assign to %s", target.String()))
}

// unpackInto binds names from an exactly-sized iterable.
func (e *Task) unpackInto(tok token.Token, names []string, val value.Value) value.Value {
	elements, errv := e.materialize(tok, val)
	if errv != nil {
		return errv
	}
	if len(elements) != len(names) {
		return e.errorAt(tok, value.NewValueError(
			"cannot unpack %d values into %d names", len(elements), len(names)))
	}
	for i, name := range names {
		if out := e.bindName(tok, name, elements[i]); out != nil {
			return out
		}
	}
	return value.None
}

func (e *Task) bindName(tok token.Token, name string, val value.Value) value.Value {
	found, err := e.currentScope().Assign(name, val)
	if err != nil {
		return e.errorAt(tok, value.NewValueError("%v", err))
	}
	if !found {
		if err := e.currentScope().Define(name, val); err != nil {
			return e.errorAt(tok, value.NewValueError("%v", err))
		}
	}
	return nil
}

func (e *Task) evalIf(node *ast.IfStatement) value.Value {
	for _, branch := range node.Branches {
		cond := e.Eval(branch.Condition)
		if e.isError(cond) {
			return cond
		}
		if value.Truth(cond) {
			return e.Eval(branch.Body)
		}
	}
	if node.Else != nil {
		return e.Eval(node.Else)
	}
	return value.None
}

func (e *Task) evalWhile(node *ast.WhileStatement) value.Value {
	for {
		cond := e.Eval(node.Condition)
		if e.isError(cond) {
			return cond
		}
		if !value.Truth(cond) {
			return value.None
		}
		result := e.Eval(node.Body)
		switch result.(type) {
		case *value.BreakSignal:
			return value.None
		case *value.ContinueSignal:
			continue
		case *value.Error, *value.ReturnSignal:
			return result
		}
	}
}

func (e *Task) evalFor(node *ast.ForStatement) value.Value {
	iterable := e.Eval(node.Iter)
	if e.isError(iterable) {
		return iterable
	}
	it, errv := e.iterator(node.Token, iterable)
	if errv != nil {
		return errv
	}

	names := make([]string, len(node.Targets))
	for i, t := range node.Targets {
		names[i] = t.Value
	}

	for {
		element, ok, errv := it.Next(e)
		if errv != nil {
			return errv
		}
		if !ok {
			return value.None
		}

		var bound value.Value
		if len(names) == 1 {
			bound = e.bindName(node.Token, names[0], element)
		} else {
			bound = e.unpackInto(node.Token, names, element)
			if !e.isError(bound) {
				bound = nil
			}
		}
		if bound != nil {
			return bound
		}

		result := e.Eval(node.Body)
		switch result.(type) {
		case *value.BreakSignal:
			return value.None
		case *value.ContinueSignal:
			continue
		case *value.Error, *value.ReturnSignal:
			return result
		}
	}
}

func (e *Task) evalDef(node *ast.DefStatement) value.Value {
	fn, errv := e.makeFunction(node.Name.Value, node.Params, node.Body, node.IsGenerator)
	if errv != nil {
		return errv
	}
	if err := e.currentScope().Define(node.Name.Value, fn); err != nil {
		return e.errorAt(node.Token, value.NewValueError("%v", err))
	}
	return value.None
}

func (e *Task) evalLambda(node *ast.LambdaExpression) value.Value {
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.ReturnStatement{Token: node.Token, Value: node.Body},
	}}
	fn, errv := e.makeFunction("", node.Params, body, false)
	if errv != nil {
		return errv
	}
	return fn
}

// makeFunction captures the defining scope and evaluates default parameter
// values once, now.
func (e *Task) makeFunction(name string, params []*ast.Parameter, body *ast.BlockStatement, isGen bool) (value.Value, *value.Error) {
	defaults := make([]value.Value, len(params))
	for i, p := range params {
		if p.Default == nil {
			continue
		}
		d := e.Eval(p.Default)
		if errv, ok := d.(*value.Error); ok {
			return nil, errv
		}
		defaults[i] = d
	}
	return &value.Function{
		Name:     name,
		Params:   params,
		Defaults: defaults,
		Body:     body,
		Scope:    e.currentScope(),
		IsGen:    isGen,
		Module:   e.file,
	}, nil
}

func (e *Task) evalLoad(node *ast.LoadStatement) value.Value {
	module, errv := e.Runtime.LoadModule(e, node.Path)
	if errv != nil {
		return e.errorAt(node.Token, errv)
	}

	exports := module.Exports.Exports()

	if node.Wildcard {
		for name, val := range exports {
			if out := e.bindName(node.Token, name, val); out != nil {
				return out
			}
		}
		slog.Debug("module bound",
			slog.String("path", node.Path),
			slog.Int("symbols", len(exports)))
		return value.None
	}

	for _, sym := range node.Symbols {
		val, ok := exports[sym.Name]
		if !ok {
			return e.errorAt(node.Token, value.NewNameError(
				"module %q does not export %q", node.Path, sym.Name))
		}
		if out := e.bindName(node.Token, sym.Alias, val); out != nil {
			return out
		}
	}
	return value.None
}

func (e *Task) evalFString(node *ast.FStringLiteral) value.Value {
	var out []byte
	for _, part := range node.Parts {
		if part.Expr == nil {
			out = append(out, part.Text...)
			continue
		}
		v := e.Eval(part.Expr)
		if e.isError(v) {
			return v
		}
		out = append(out, value.Str(v)...)
	}
	return &value.String{Value: string(out)}
}

func (e *Task) evalExpressions(exprs []ast.Expression) ([]value.Value, *value.Error) {
	out := make([]value.Value, 0, len(exprs))
	for _, expr := range exprs {
		v := e.Eval(expr)
		if errv, ok := v.(*value.Error); ok {
			return nil, errv
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *Task) evalDictLiteral(node *ast.DictLiteral) value.Value {
	dict := value.NewDict()
	for i, keyExpr := range node.Keys {
		k := e.Eval(keyExpr)
		if e.isError(k) {
			return k
		}
		key, ok := value.AsHashable(k)
		if !ok {
			return e.errorAt(node.Token, value.NewTypeError(
				"unhashable key type: %s", value.TypeName(k)))
		}
		v := e.Eval(node.Values[i])
		if e.isError(v) {
			return v
		}
		dict.Set(key, v)
	}
	return dict
}

func (e *Task) evalSetLiteral(node *ast.SetLiteral) value.Value {
	set := value.NewSet()
	for _, el := range node.Elements {
		v := e.Eval(el)
		if e.isError(v) {
			return v
		}
		member, ok := value.AsHashable(v)
		if !ok {
			return e.errorAt(node.Token, value.NewTypeError(
				"unhashable set member type: %s", value.TypeName(v)))
		}
		set.Add(member)
	}
	return set
}

func nativeBool(b bool) *value.Bool {
	if b {
		return value.True
	}
	return value.False
}
