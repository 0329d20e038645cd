package runtime

import (
	"fmt"
	"math"
	"strings"

	"github.com/alexchoi0/blueprint-engine/internal/ast"
	"github.com/alexchoi0/blueprint-engine/internal/token"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

func (e *Task) evalPrefix(node *ast.PrefixExpression, right value.Value) value.Value {
	switch node.Operator {
	case "not":
		return nativeBool(!value.Truth(right))
	case "-":
		switch right := right.(type) {
		case *value.Int:
			return &value.Int{Value: -right.Value}
		case *value.Float:
			return &value.Float{Value: -right.Value}
		}
		return e.errorAt(node.Token, value.NewTypeError(
			"bad operand type for unary -: %s", value.TypeName(right)))
	case "+":
		switch right.(type) {
		case *value.Int, *value.Float:
			return right
		}
		return e.errorAt(node.Token, value.NewTypeError(
			"bad operand type for unary +: %s", value.TypeName(right)))
	}
	return e.errorAt(node.Token, value.NewTypeError("unknown operator %s", node.Operator))
}

func (e *Task) evalInfix(node *ast.InfixExpression) value.Value {
	// and/or short-circuit and yield the deciding operand.
	if node.Operator == "and" || node.Operator == "or" {
		left := e.Eval(node.Left)
		if e.isError(left) {
			return left
		}
		if node.Operator == "and" && !value.Truth(left) {
			return left
		}
		if node.Operator == "or" && value.Truth(left) {
			return left
		}
		return e.Eval(node.Right)
	}

	left := e.Eval(node.Left)
	if e.isError(left) {
		return left
	}
	right := e.Eval(node.Right)
	if e.isError(right) {
		return right
	}
	return e.binaryOp(node.Token, node.Operator, left, right)
}

func (e *Task) binaryOp(tok token.Token, op string, left, right value.Value) value.Value {
	switch op {
	case "==":
		return nativeBool(value.Equal(left, right))
	case "!=":
		return nativeBool(!value.Equal(left, right))
	case "<", "<=", ">", ">=":
		c, ok := value.Compare(left, right)
		if !ok {
			return e.errorAt(tok, value.NewTypeError(
				"%q not supported between %s and %s", op, value.TypeName(left), value.TypeName(right)))
		}
		switch op {
		case "<":
			return nativeBool(c < 0)
		case "<=":
			return nativeBool(c <= 0)
		case ">":
			return nativeBool(c > 0)
		default:
			return nativeBool(c >= 0)
		}
	case "in":
		return e.evalMembership(tok, left, right, false)
	case "not in":
		return e.evalMembership(tok, left, right, true)
	}

	switch l := left.(type) {
	case *value.Int:
		switch r := right.(type) {
		case *value.Int:
			return e.intOp(tok, op, l.Value, r.Value)
		case *value.Float:
			return e.floatOp(tok, op, float64(l.Value), r.Value)
		case *value.String:
			if op == "*" {
				return repeatString(tok, e, r.Value, l.Value)
			}
		case *value.List:
			if op == "*" {
				return repeatList(tok, e, r.Elements, l.Value)
			}
		}
	case *value.Float:
		switch r := right.(type) {
		case *value.Int:
			return e.floatOp(tok, op, l.Value, float64(r.Value))
		case *value.Float:
			return e.floatOp(tok, op, l.Value, r.Value)
		}
	case *value.String:
		if op == "%" {
			return e.formatString(tok, l.Value, right)
		}
		switch r := right.(type) {
		case *value.String:
			if op == "+" {
				return &value.String{Value: l.Value + r.Value}
			}
		case *value.Int:
			if op == "*" {
				return repeatString(tok, e, l.Value, r.Value)
			}
		}
	case *value.Bytes:
		if r, ok := right.(*value.Bytes); ok && op == "+" {
			out := make([]byte, 0, len(l.Value)+len(r.Value))
			out = append(out, l.Value...)
			out = append(out, r.Value...)
			return &value.Bytes{Value: out}
		}
	case *value.List:
		switch r := right.(type) {
		case *value.List:
			if op == "+" {
				out := make([]value.Value, 0, len(l.Elements)+len(r.Elements))
				out = append(out, l.Elements...)
				out = append(out, r.Elements...)
				return &value.List{Elements: out}
			}
		case *value.Int:
			if op == "*" {
				return repeatList(tok, e, l.Elements, r.Value)
			}
		}
	case *value.Tuple:
		if r, ok := right.(*value.Tuple); ok && op == "+" {
			out := make([]value.Value, 0, len(l.Elements)+len(r.Elements))
			out = append(out, l.Elements...)
			out = append(out, r.Elements...)
			return &value.Tuple{Elements: out}
		}
	}

	return e.errorAt(tok, value.NewTypeError(
		"unsupported operand types for %s: %s and %s",
		op, value.TypeName(left), value.TypeName(right)))
}

func (e *Task) intOp(tok token.Token, op string, a, b int64) value.Value {
	switch op {
	case "+":
		return &value.Int{Value: a + b}
	case "-":
		return &value.Int{Value: a - b}
	case "*":
		return &value.Int{Value: a * b}
	case "/":
		if b == 0 {
			return e.errorAt(tok, value.NewValueError("division by zero"))
		}
		return &value.Float{Value: float64(a) / float64(b)}
	case "//":
		if b == 0 {
			return e.errorAt(tok, value.NewValueError("integer division by zero"))
		}
		return &value.Int{Value: floorDivInt(a, b)}
	case "%":
		if b == 0 {
			return e.errorAt(tok, value.NewValueError("modulo by zero"))
		}
		return &value.Int{Value: a - floorDivInt(a, b)*b}
	}
	return e.errorAt(tok, value.NewTypeError("unsupported operator %s for int", op))
}

// floorDivInt rounds toward negative infinity, matching // semantics.
func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (e *Task) floatOp(tok token.Token, op string, a, b float64) value.Value {
	switch op {
	case "+":
		return &value.Float{Value: a + b}
	case "-":
		return &value.Float{Value: a - b}
	case "*":
		return &value.Float{Value: a * b}
	case "/":
		if b == 0 {
			return e.errorAt(tok, value.NewValueError("division by zero"))
		}
		return &value.Float{Value: a / b}
	case "//":
		if b == 0 {
			return e.errorAt(tok, value.NewValueError("integer division by zero"))
		}
		return &value.Float{Value: math.Floor(a / b)}
	case "%":
		if b == 0 {
			return e.errorAt(tok, value.NewValueError("modulo by zero"))
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return &value.Float{Value: m}
	}
	return e.errorAt(tok, value.NewTypeError("unsupported operator %s for float", op))
}

func repeatString(tok token.Token, e *Task, s string, n int64) value.Value {
	if n < 0 {
		n = 0
	}
	if int64(len(s))*n > 1<<26 {
		return e.errorAt(tok, value.NewValueError("repeated string is too large"))
	}
	return &value.String{Value: strings.Repeat(s, int(n))}
}

func repeatList(tok token.Token, e *Task, elements []value.Value, n int64) value.Value {
	if n < 0 {
		n = 0
	}
	if int64(len(elements))*n > 1<<22 {
		return e.errorAt(tok, value.NewValueError("repeated list is too large"))
	}
	out := make([]value.Value, 0, int64(len(elements))*n)
	for i := int64(0); i < n; i++ {
		out = append(out, elements...)
	}
	return &value.List{Elements: out}
}

// formatString implements the % template operator with a tuple or single
// value on the right.
func (e *Task) formatString(tok token.Token, template string, right value.Value) value.Value {
	var args []value.Value
	if t, ok := right.(*value.Tuple); ok {
		args = t.Elements
	} else {
		args = []value.Value{right}
	}

	var out strings.Builder
	next := 0
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '%' {
			out.WriteByte(c)
			continue
		}
		if i+1 >= len(template) {
			return e.errorAt(tok, value.NewValueError("incomplete format specifier"))
		}
		i++
		verb := template[i]
		if verb == '%' {
			out.WriteByte('%')
			continue
		}
		if next >= len(args) {
			return e.errorAt(tok, value.NewValueError("not enough arguments for format string"))
		}
		arg := args[next]
		next++
		switch verb {
		case 's':
			out.WriteString(value.Str(arg))
		case 'r':
			out.WriteString(arg.Inspect())
		case 'd':
			switch arg := arg.(type) {
			case *value.Int:
				fmt.Fprintf(&out, "%d", arg.Value)
			case *value.Float:
				fmt.Fprintf(&out, "%d", int64(arg.Value))
			default:
				return e.errorAt(tok, value.NewTypeError(
					"%%d format requires a number, got %s", value.TypeName(arg)))
			}
		case 'f':
			switch arg := arg.(type) {
			case *value.Int:
				fmt.Fprintf(&out, "%f", float64(arg.Value))
			case *value.Float:
				fmt.Fprintf(&out, "%f", arg.Value)
			default:
				return e.errorAt(tok, value.NewTypeError(
					"%%f format requires a number, got %s", value.TypeName(arg)))
			}
		default:
			return e.errorAt(tok, value.NewValueError("unsupported format verb %%%c", verb))
		}
	}
	if next < len(args) {
		return e.errorAt(tok, value.NewValueError("not all arguments converted during formatting"))
	}
	return &value.String{Value: out.String()}
}

func (e *Task) evalMembership(tok token.Token, needle, haystack value.Value, negate bool) value.Value {
	var found bool
	switch h := haystack.(type) {
	case *value.String:
		n, ok := needle.(*value.String)
		if !ok {
			return e.errorAt(tok, value.NewTypeError(
				"'in <string>' requires a string, got %s", value.TypeName(needle)))
		}
		found = strings.Contains(h.Value, n.Value)
	case *value.List:
		found = containsValue(h.Elements, needle)
	case *value.Tuple:
		found = containsValue(h.Elements, needle)
	case *value.Dict:
		key, ok := value.AsHashable(needle)
		if !ok {
			return e.errorAt(tok, value.NewTypeError(
				"unhashable type: %s", value.TypeName(needle)))
		}
		_, found = h.Get(key)
	case *value.Set:
		key, ok := value.AsHashable(needle)
		if !ok {
			return e.errorAt(tok, value.NewTypeError(
				"unhashable type: %s", value.TypeName(needle)))
		}
		found = h.Has(key)
	default:
		return e.errorAt(tok, value.NewTypeError(
			"argument of type %s is not iterable", value.TypeName(haystack)))
	}
	if negate {
		found = !found
	}
	return nativeBool(found)
}

func containsValue(elements []value.Value, needle value.Value) bool {
	for _, el := range elements {
		if value.Equal(el, needle) {
			return true
		}
	}
	return false
}

func (e *Task) evalIndex(node *ast.IndexExpression) value.Value {
	left := e.Eval(node.Left)
	if e.isError(left) {
		return left
	}
	index := e.Eval(node.Index)
	if e.isError(index) {
		return index
	}
	return e.readIndex(node.Token, left, index)
}

func (e *Task) readIndex(tok token.Token, left, index value.Value) value.Value {
	switch left := left.(type) {
	case *value.List:
		return e.sequenceIndex(tok, left.Elements, index)
	case *value.Tuple:
		return e.sequenceIndex(tok, left.Elements, index)
	case *value.String:
		runes := []rune(left.Value)
		i, errv := e.normalizeIndex(tok, index, len(runes))
		if errv != nil {
			return errv
		}
		return &value.String{Value: string(runes[i])}
	case *value.Bytes:
		i, errv := e.normalizeIndex(tok, index, len(left.Value))
		if errv != nil {
			return errv
		}
		return &value.Int{Value: int64(left.Value[i])}
	case *value.Dict:
		key, ok := value.AsHashable(index)
		if !ok {
			return e.errorAt(tok, value.NewTypeError(
				"unhashable type: %s", value.TypeName(index)))
		}
		v, found := left.Get(key)
		if !found {
			return e.errorAt(tok, value.NewValueError("key not found: %s", index.Inspect()))
		}
		return v
	case *Generator:
		return e.errorAt(tok, value.NewTypeError(
			"generator is not indexable; iterate it instead"))
	}
	return e.errorAt(tok, value.NewTypeError(
		"%s is not indexable", value.TypeName(left)))
}

func (e *Task) sequenceIndex(tok token.Token, elements []value.Value, index value.Value) value.Value {
	i, errv := e.normalizeIndex(tok, index, len(elements))
	if errv != nil {
		return errv
	}
	return elements[i]
}

func (e *Task) normalizeIndex(tok token.Token, index value.Value, length int) (int, *value.Error) {
	n, ok := index.(*value.Int)
	if !ok {
		return 0, e.errorAt(tok, value.NewTypeError(
			"indices must be integers, got %s", value.TypeName(index)))
	}
	i := n.Value
	if i < 0 {
		i += int64(length)
	}
	if i < 0 || i >= int64(length) {
		return 0, e.errorAt(tok, value.NewValueError("index out of range: %d", n.Value))
	}
	return int(i), nil
}

func (e *Task) evalIndexAssign(node *ast.IndexExpression, val value.Value) value.Value {
	left := e.Eval(node.Left)
	if e.isError(left) {
		return left
	}
	index := e.Eval(node.Index)
	if e.isError(index) {
		return index
	}
	return e.storeIndex(node.Token, left, index, val)
}

func (e *Task) storeIndex(tok token.Token, left, index, val value.Value) value.Value {
	switch left := left.(type) {
	case *value.List:
		if left.Frozen() {
			return e.errorAt(tok, value.NewValueError("cannot mutate a frozen list"))
		}
		i, errv := e.normalizeIndex(tok, index, len(left.Elements))
		if errv != nil {
			return errv
		}
		left.Elements[i] = val
		return value.None
	case *value.Dict:
		if left.Frozen() {
			return e.errorAt(tok, value.NewValueError("cannot mutate a frozen dict"))
		}
		key, ok := value.AsHashable(index)
		if !ok {
			return e.errorAt(tok, value.NewTypeError(
				"unhashable type: %s", value.TypeName(index)))
		}
		left.Set(key, val)
		return value.None
	}
	return e.errorAt(tok, value.NewTypeError(
		"%s does not support item assignment", value.TypeName(left)))
}

func (e *Task) evalSlice(node *ast.SliceExpression) value.Value {
	left := e.Eval(node.Left)
	if e.isError(left) {
		return left
	}

	bound := func(expr ast.Expression, fallback int64) (int64, *value.Error) {
		if expr == nil {
			return fallback, nil
		}
		v := e.Eval(expr)
		if errv, ok := v.(*value.Error); ok {
			return 0, errv
		}
		n, ok := v.(*value.Int)
		if !ok {
			return 0, e.errorAt(node.Token, value.NewTypeError(
				"slice indices must be integers, got %s", value.TypeName(v)))
		}
		return n.Value, nil
	}

	slice := func(length int) ([]int, *value.Error) {
		step, errv := bound(node.Step, 1)
		if errv != nil {
			return nil, errv
		}
		if step == 0 {
			return nil, e.errorAt(node.Token, value.NewValueError("slice step cannot be zero"))
		}
		defStart, defStop := int64(0), int64(length)
		if step < 0 {
			defStart, defStop = int64(length)-1, -1
		}
		start, errv := bound(node.Start, defStart)
		if errv != nil {
			return nil, errv
		}
		stop, errv := bound(node.Stop, defStop)
		if errv != nil {
			return nil, errv
		}
		clamp := func(i int64, low, high int64) int64 {
			if i < 0 {
				i += int64(length)
			}
			if i < low {
				return low
			}
			if i > high {
				return high
			}
			return i
		}
		var indices []int
		if step > 0 {
			start = clamp(start, 0, int64(length))
			if node.Stop != nil {
				stop = clamp(stop, 0, int64(length))
			}
			for i := start; i < stop; i += step {
				indices = append(indices, int(i))
			}
		} else {
			start = clamp(start, -1, int64(length)-1)
			if node.Stop != nil {
				stop = clamp(stop, -1, int64(length)-1)
			}
			for i := start; i > stop; i += step {
				indices = append(indices, int(i))
			}
		}
		return indices, nil
	}

	switch left := left.(type) {
	case *value.List:
		indices, errv := slice(len(left.Elements))
		if errv != nil {
			return errv
		}
		out := make([]value.Value, len(indices))
		for i, idx := range indices {
			out[i] = left.Elements[idx]
		}
		return &value.List{Elements: out}
	case *value.Tuple:
		indices, errv := slice(len(left.Elements))
		if errv != nil {
			return errv
		}
		out := make([]value.Value, len(indices))
		for i, idx := range indices {
			out[i] = left.Elements[idx]
		}
		return &value.Tuple{Elements: out}
	case *value.String:
		runes := []rune(left.Value)
		indices, errv := slice(len(runes))
		if errv != nil {
			return errv
		}
		out := make([]rune, len(indices))
		for i, idx := range indices {
			out[i] = runes[idx]
		}
		return &value.String{Value: string(out)}
	case *value.Bytes:
		indices, errv := slice(len(left.Value))
		if errv != nil {
			return errv
		}
		out := make([]byte, len(indices))
		for i, idx := range indices {
			out[i] = left.Value[idx]
		}
		return &value.Bytes{Value: out}
	}
	return e.errorAt(node.Token, value.NewTypeError(
		"%s is not sliceable", value.TypeName(left)))
}

// evalAttr resolves module member access and method-style helpers on
// built-in containers.
func (e *Task) evalAttr(node *ast.AttrExpression) value.Value {
	left := e.Eval(node.Left)
	if e.isError(left) {
		return left
	}

	if mod, ok := left.(*value.Module); ok {
		if v, ok := mod.Exports.GetLocal(node.Name); ok {
			return v
		}
		return e.errorAt(node.Token, value.NewNameError(
			"module %q has no member %q", mod.Name, node.Name))
	}

	if method := e.lookupMethod(left, node.Name); method != nil {
		return method
	}
	return e.errorAt(node.Token, value.NewTypeError(
		"%s has no attribute %q", value.TypeName(left), node.Name))
}

// ---------------------------------------------------------- comprehensions

// runCompClauses drives nested for/if clauses, calling emit in a fresh
// child scope per innermost iteration.
func (e *Task) runCompClauses(tok token.Token, clauses []ast.CompClause, emit func() *value.Error) *value.Error {
	if len(clauses) == 0 {
		return emit()
	}
	clause := clauses[0]

	iterable := e.Eval(clause.Iter)
	if errv, ok := iterable.(*value.Error); ok {
		return errv
	}
	it, errv := e.iterator(tok, iterable)
	if errv != nil {
		return errv
	}

	names := make([]string, len(clause.Targets))
	for i, t := range clause.Targets {
		names[i] = t.Value
	}

	for {
		element, ok, errv := it.Next(e)
		if errv != nil {
			return errv
		}
		if !ok {
			return nil
		}

		e.pushScope(value.NewEnclosedScope(e.currentScope()))
		bindErr := func() *value.Error {
			if len(names) == 1 {
				if out := e.bindName(tok, names[0], element); out != nil {
					return out.(*value.Error)
				}
				return nil
			}
			if out := e.unpackInto(tok, names, element); e.isError(out) {
				return out.(*value.Error)
			}
			return nil
		}()
		if bindErr != nil {
			e.popScope()
			return bindErr
		}

		keep := true
		for _, cond := range clause.Ifs {
			v := e.Eval(cond)
			if errv, ok := v.(*value.Error); ok {
				e.popScope()
				return errv
			}
			if !value.Truth(v) {
				keep = false
				break
			}
		}

		if keep {
			if errv := e.runCompClauses(tok, clauses[1:], emit); errv != nil {
				e.popScope()
				return errv
			}
		}
		e.popScope()
	}
}

func (e *Task) evalListComprehension(node *ast.ListComprehension) value.Value {
	out := &value.List{}
	errv := e.runCompClauses(node.Token, node.Clauses, func() *value.Error {
		v := e.Eval(node.Elt)
		if errv, ok := v.(*value.Error); ok {
			return errv
		}
		out.Elements = append(out.Elements, v)
		return nil
	})
	if errv != nil {
		return errv
	}
	return out
}

func (e *Task) evalDictComprehension(node *ast.DictComprehension) value.Value {
	out := value.NewDict()
	errv := e.runCompClauses(node.Token, node.Clauses, func() *value.Error {
		k := e.Eval(node.Key)
		if errv, ok := k.(*value.Error); ok {
			return errv
		}
		key, ok := value.AsHashable(k)
		if !ok {
			return e.errorAt(node.Token, value.NewTypeError(
				"unhashable key type: %s", value.TypeName(k)))
		}
		v := e.Eval(node.Value)
		if errv, ok := v.(*value.Error); ok {
			return errv
		}
		out.Set(key, v)
		return nil
	})
	if errv != nil {
		return errv
	}
	return out
}

func (e *Task) evalSetComprehension(node *ast.SetComprehension) value.Value {
	out := value.NewSet()
	errv := e.runCompClauses(node.Token, node.Clauses, func() *value.Error {
		v := e.Eval(node.Elt)
		if errv, ok := v.(*value.Error); ok {
			return errv
		}
		member, ok := value.AsHashable(v)
		if !ok {
			return e.errorAt(node.Token, value.NewTypeError(
				"unhashable set member type: %s", value.TypeName(v)))
		}
		out.Add(member)
		return nil
	})
	if errv != nil {
		return errv
	}
	return out
}
