package runtime

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/alexchoi0/blueprint-engine/internal/token"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

func builtinFns() map[string]*Builtin {
	builtins := map[string]*Builtin{
		"len":       {Name: "len", Fn: builtinLen},
		"type":      {Name: "type", Fn: builtinType},
		"str":       {Name: "str", Fn: builtinStr},
		"int":       {Name: "int", Fn: builtinInt},
		"float":     {Name: "float", Fn: builtinFloat},
		"bool":      {Name: "bool", Fn: builtinBool},
		"list":      {Name: "list", Fn: builtinList},
		"tuple":     {Name: "tuple", Fn: builtinTuple},
		"dict":      {Name: "dict", Fn: builtinDict},
		"set":       {Name: "set", Fn: builtinSet},
		"range":     {Name: "range", Fn: builtinRange},
		"enumerate": {Name: "enumerate", Fn: builtinEnumerate},
		"sorted":    {Name: "sorted", Fn: builtinSorted},
		"reversed":  {Name: "reversed", Fn: builtinReversed},
		"zip":       {Name: "zip", Fn: builtinZip},
		"min":       {Name: "min", Fn: extremum("min")},
		"max":       {Name: "max", Fn: extremum("max")},
		"sum":       {Name: "sum", Fn: builtinSum},
		"any":       {Name: "any", Fn: builtinAny},
		"all":       {Name: "all", Fn: builtinAll},
		"keys":      {Name: "keys", Fn: builtinKeys},
		"values":    {Name: "values", Fn: builtinValues},
		"print":     {Name: "print", Fn: builtinPrint},
		"fail":      {Name: "fail", Fn: builtinFail},
		"assert":    {Name: "assert", Fn: builtinAssert},
		"map":       {Name: "map", Fn: lazyWrap("map")},
		"filter":    {Name: "filter", Fn: lazyWrap("filter")},
		"parallel":  {Name: "parallel", Fn: builtinParallel},
		"task":      {Name: "task", Fn: builtinTask},
	}
	return builtins
}

func builtinLen(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("len() takes 1 argument, got %d", len(args)))
	}
	switch v := args[0].(type) {
	case *value.String:
		return &value.Int{Value: int64(len([]rune(v.Value)))}
	case *value.Bytes:
		return &value.Int{Value: int64(len(v.Value))}
	case *value.List:
		return &value.Int{Value: int64(len(v.Elements))}
	case *value.Tuple:
		return &value.Int{Value: int64(len(v.Elements))}
	case *value.Dict:
		return &value.Int{Value: int64(v.Len())}
	case *value.Set:
		return &value.Int{Value: int64(v.Len())}
	}
	return e.errorAt(tok, value.NewTypeError("%s has no length", value.TypeName(args[0])))
}

func builtinType(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("type() takes 1 argument, got %d", len(args)))
	}
	return &value.String{Value: value.TypeName(args[0])}
}

func builtinStr(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("str() takes 1 argument, got %d", len(args)))
	}
	return &value.String{Value: value.Str(args[0])}
}

func builtinInt(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("int() takes 1 argument, got %d", len(args)))
	}
	switch v := args[0].(type) {
	case *value.Int:
		return v
	case *value.Float:
		return &value.Int{Value: int64(v.Value)}
	case *value.Bool:
		if v.Value {
			return &value.Int{Value: 1}
		}
		return &value.Int{Value: 0}
	case *value.String:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Value), 0, 64)
		if err != nil {
			return e.errorAt(tok, value.NewValueError("int(): invalid literal %q", v.Value))
		}
		return &value.Int{Value: n}
	}
	return e.errorAt(tok, value.NewTypeError("int() cannot convert %s", value.TypeName(args[0])))
}

func builtinFloat(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("float() takes 1 argument, got %d", len(args)))
	}
	switch v := args[0].(type) {
	case *value.Float:
		return v
	case *value.Int:
		return &value.Float{Value: float64(v.Value)}
	case *value.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
		if err != nil {
			return e.errorAt(tok, value.NewValueError("float(): invalid literal %q", v.Value))
		}
		return &value.Float{Value: f}
	}
	return e.errorAt(tok, value.NewTypeError("float() cannot convert %s", value.TypeName(args[0])))
}

func builtinBool(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("bool() takes 1 argument, got %d", len(args)))
	}
	return nativeBool(value.Truth(args[0]))
}

// builtinList materializes any iterable, driving generators to exhaustion.
func builtinList(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) == 0 {
		return &value.List{}
	}
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("list() takes at most 1 argument, got %d", len(args)))
	}
	elements, errv := e.materialize(tok, args[0])
	if errv != nil {
		return errv
	}
	return &value.List{Elements: append([]value.Value{}, elements...)}
}

func builtinTuple(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) == 0 {
		return &value.Tuple{}
	}
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("tuple() takes at most 1 argument, got %d", len(args)))
	}
	elements, errv := e.materialize(tok, args[0])
	if errv != nil {
		return errv
	}
	return &value.Tuple{Elements: append([]value.Value{}, elements...)}
}

// builtinDict copies a dict or builds one from an iterable of 2-element
// pairs.
func builtinDict(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	out := value.NewDict()
	if len(args) == 0 {
		return out
	}
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("dict() takes at most 1 argument, got %d", len(args)))
	}

	if src, ok := args[0].(*value.Dict); ok {
		for _, pair := range src.Pairs() {
			out.Set(pair.Key.(value.Hashable), pair.Value)
		}
		return out
	}

	elements, errv := e.materialize(tok, args[0])
	if errv != nil {
		return errv
	}
	for _, el := range elements {
		pair, errv := e.materialize(tok, el)
		if errv != nil {
			return errv
		}
		if len(pair) != 2 {
			return e.errorAt(tok, value.NewValueError(
				"dict() entries must be pairs, got %d elements", len(pair)))
		}
		key, ok := value.AsHashable(pair[0])
		if !ok {
			return e.errorAt(tok, value.NewTypeError(
				"unhashable key type: %s", value.TypeName(pair[0])))
		}
		out.Set(key, pair[1])
	}
	return out
}

func builtinSet(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	out := value.NewSet()
	if len(args) == 0 {
		return out
	}
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("set() takes at most 1 argument, got %d", len(args)))
	}
	elements, errv := e.materialize(tok, args[0])
	if errv != nil {
		return errv
	}
	for _, el := range elements {
		member, ok := value.AsHashable(el)
		if !ok {
			return e.errorAt(tok, value.NewTypeError(
				"unhashable set member type: %s", value.TypeName(el)))
		}
		out.Add(member)
	}
	return out
}

func builtinRange(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	bounds := make([]int64, len(args))
	for i, a := range args {
		n, ok := a.(*value.Int)
		if !ok {
			return e.errorAt(tok, value.NewTypeError(
				"range() arguments must be integers, got %s", value.TypeName(a)))
		}
		bounds[i] = n.Value
	}

	var start, stop, step int64 = 0, 0, 1
	switch len(bounds) {
	case 1:
		stop = bounds[0]
	case 2:
		start, stop = bounds[0], bounds[1]
	case 3:
		start, stop, step = bounds[0], bounds[1], bounds[2]
		if step == 0 {
			return e.errorAt(tok, value.NewValueError("range() step must not be zero"))
		}
	default:
		return e.errorAt(tok, value.NewArgumentError(
			"range() takes 1 to 3 arguments, got %d", len(bounds)))
	}

	out := &value.List{}
	if step > 0 {
		for i := start; i < stop; i += step {
			out.Elements = append(out.Elements, &value.Int{Value: i})
		}
	} else {
		for i := start; i > stop; i += step {
			out.Elements = append(out.Elements, &value.Int{Value: i})
		}
	}
	return out
}

func builtinEnumerate(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("enumerate() takes 1 argument, got %d", len(args)))
	}
	elements, errv := e.materialize(tok, args[0])
	if errv != nil {
		return errv
	}
	out := &value.List{Elements: make([]value.Value, len(elements))}
	for i, el := range elements {
		out.Elements[i] = &value.Tuple{Elements: []value.Value{&value.Int{Value: int64(i)}, el}}
	}
	return out
}

func builtinSorted(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("sorted() takes 1 argument, got %d", len(args)))
	}
	elements, errv := e.materialize(tok, args[0])
	if errv != nil {
		return errv
	}
	out := append([]value.Value{}, elements...)

	keyFn := kwargs["key"]
	reverse := false
	if r, ok := kwargs["reverse"]; ok {
		reverse = value.Truth(r)
	}

	keys := out
	if keyFn != nil {
		keys = make([]value.Value, len(out))
		for i, el := range out {
			k := e.applyCallable(tok, keyFn, []value.Value{el}, nil)
			if e.isError(k) {
				return k
			}
			keys[i] = k
		}
	}

	var sortErr *value.Error
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		c, ok := value.Compare(keys[order[a]], keys[order[b]])
		if !ok {
			sortErr = value.NewTypeError("sorted(): cannot compare %s and %s",
				value.TypeName(keys[order[a]]), value.TypeName(keys[order[b]]))
			return false
		}
		if reverse {
			return c > 0
		}
		return c < 0
	})
	if sortErr != nil {
		return e.errorAt(tok, sortErr)
	}

	result := make([]value.Value, len(out))
	for i, idx := range order {
		result[i] = out[idx]
	}
	return &value.List{Elements: result}
}

func builtinReversed(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("reversed() takes 1 argument, got %d", len(args)))
	}
	elements, errv := e.materialize(tok, args[0])
	if errv != nil {
		return errv
	}
	out := make([]value.Value, len(elements))
	for i, el := range elements {
		out[len(elements)-1-i] = el
	}
	return &value.List{Elements: out}
}

func builtinZip(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	columns := make([][]value.Value, len(args))
	shortest := -1
	for i, a := range args {
		elements, errv := e.materialize(tok, a)
		if errv != nil {
			return errv
		}
		columns[i] = elements
		if shortest < 0 || len(elements) < shortest {
			shortest = len(elements)
		}
	}
	if shortest < 0 {
		shortest = 0
	}
	out := &value.List{Elements: make([]value.Value, shortest)}
	for row := 0; row < shortest; row++ {
		t := &value.Tuple{Elements: make([]value.Value, len(columns))}
		for col := range columns {
			t.Elements[col] = columns[col][row]
		}
		out.Elements[row] = t
	}
	return out
}

func extremum(name string) func(*Task, token.Token, []value.Value, map[string]value.Value) value.Value {
	return func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
		candidates := args
		if len(args) == 1 {
			elements, errv := e.materialize(tok, args[0])
			if errv != nil {
				return errv
			}
			candidates = elements
		}
		if len(candidates) == 0 {
			return e.errorAt(tok, value.NewValueError("%s() of an empty sequence", name))
		}

		best := candidates[0]
		for _, c := range candidates[1:] {
			cmp, ok := value.Compare(c, best)
			if !ok {
				return e.errorAt(tok, value.NewTypeError(
					"%s(): cannot compare %s and %s", name, value.TypeName(c), value.TypeName(best)))
			}
			if (name == "min" && cmp < 0) || (name == "max" && cmp > 0) {
				best = c
			}
		}
		return best
	}
}

func builtinSum(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("sum() takes 1 argument, got %d", len(args)))
	}
	elements, errv := e.materialize(tok, args[0])
	if errv != nil {
		return errv
	}
	var acc value.Value = &value.Int{Value: 0}
	for _, el := range elements {
		acc = e.binaryOp(tok, "+", acc, el)
		if e.isError(acc) {
			return acc
		}
	}
	return acc
}

func builtinAny(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("any() takes 1 argument, got %d", len(args)))
	}
	elements, errv := e.materialize(tok, args[0])
	if errv != nil {
		return errv
	}
	for _, el := range elements {
		if value.Truth(el) {
			return value.True
		}
	}
	return value.False
}

func builtinAll(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("all() takes 1 argument, got %d", len(args)))
	}
	elements, errv := e.materialize(tok, args[0])
	if errv != nil {
		return errv
	}
	for _, el := range elements {
		if !value.Truth(el) {
			return value.False
		}
	}
	return value.True
}

func builtinKeys(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("keys() takes 1 argument, got %d", len(args)))
	}
	d, ok := args[0].(*value.Dict)
	if !ok {
		return e.errorAt(tok, value.NewTypeError("keys() requires a dict, got %s", value.TypeName(args[0])))
	}
	out := &value.List{}
	for _, pair := range d.Pairs() {
		out.Elements = append(out.Elements, pair.Key)
	}
	return out
}

func builtinValues(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return e.errorAt(tok, value.NewArgumentError("values() takes 1 argument, got %d", len(args)))
	}
	d, ok := args[0].(*value.Dict)
	if !ok {
		return e.errorAt(tok, value.NewTypeError("values() requires a dict, got %s", value.TypeName(args[0])))
	}
	out := &value.List{}
	for _, pair := range d.Pairs() {
		out.Elements = append(out.Elements, pair.Value)
	}
	return out
}

func builtinPrint(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	sep := " "
	if s, ok := kwargs["sep"]; ok {
		str, ok := s.(*value.String)
		if !ok {
			return e.errorAt(tok, value.NewTypeError("print() sep must be a string"))
		}
		sep = str.Value
	}
	end := "\n"
	if s, ok := kwargs["end"]; ok {
		str, ok := s.(*value.String)
		if !ok {
			return e.errorAt(tok, value.NewTypeError("print() end must be a string"))
		}
		end = str.Value
	}

	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.Str(a)
	}
	fmt.Fprint(os.Stdout, strings.Join(parts, sep)+end)
	return value.None
}

func builtinFail(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.Str(a)
	}
	msg := strings.Join(parts, " ")
	if msg == "" {
		msg = "fail() called"
	}
	return e.errorAt(tok, value.NewError(value.UserFail, "%s", msg))
}

func builtinAssert(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) < 1 || len(args) > 2 {
		return e.errorAt(tok, value.NewArgumentError("assert() takes 1 or 2 arguments, got %d", len(args)))
	}
	if value.Truth(args[0]) {
		return value.None
	}
	msg := "assertion failed"
	if len(args) == 2 {
		msg = value.Str(args[1])
	}
	return e.errorAt(tok, value.NewError(value.UserFail, "%s", msg))
}

// lazyWrap builds the lazy map/filter builtins. The callable runs once per
// element actually pulled, never eagerly.
func lazyWrap(op string) func(*Task, token.Token, []value.Value, map[string]value.Value) value.Value {
	return func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
		if len(args) != 2 {
			return e.errorAt(tok, value.NewArgumentError("%s() takes 2 arguments, got %d", op, len(args)))
		}
		src, errv := e.iterator(tok, args[1])
		if errv != nil {
			return errv
		}
		return &Lazy{Op: op, fn: args[0], src: src}
	}
}
