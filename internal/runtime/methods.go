package runtime

import (
	"strings"

	"github.com/alexchoi0/blueprint-engine/internal/token"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

// lookupMethod returns a bound method for built-in receiver types, or nil.
func (e *Task) lookupMethod(recv value.Value, name string) value.Value {
	switch recv := recv.(type) {
	case *value.String:
		return stringMethod(recv, name)
	case *value.List:
		return listMethod(recv, name)
	case *value.Dict:
		return dictMethod(recv, name)
	case *value.Set:
		return setMethod(recv, name)
	}
	return nil
}

func boundMethod(name string, fn func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value) *Builtin {
	return &Builtin{Name: name, Fn: fn}
}

func stringMethod(recv *value.String, name string) value.Value {
	s := recv.Value
	switch name {
	case "upper":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			return &value.String{Value: strings.ToUpper(s)}
		})
	case "lower":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			return &value.String{Value: strings.ToLower(s)}
		})
	case "strip":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			cutset := " \t\r\n"
			if len(args) > 0 {
				c, ok := args[0].(*value.String)
				if !ok {
					return e.errorAt(tok, value.NewTypeError("strip() argument must be a string"))
				}
				cutset = c.Value
			}
			return &value.String{Value: strings.Trim(s, cutset)}
		})
	case "split":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			var parts []string
			if len(args) == 0 {
				parts = strings.Fields(s)
			} else {
				sep, ok := args[0].(*value.String)
				if !ok {
					return e.errorAt(tok, value.NewTypeError("split() separator must be a string"))
				}
				parts = strings.Split(s, sep.Value)
			}
			out := &value.List{Elements: make([]value.Value, len(parts))}
			for i, p := range parts {
				out.Elements[i] = &value.String{Value: p}
			}
			return out
		})
	case "join":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if len(args) != 1 {
				return e.errorAt(tok, value.NewArgumentError("join() takes 1 argument, got %d", len(args)))
			}
			elements, errv := e.materialize(tok, args[0])
			if errv != nil {
				return errv
			}
			parts := make([]string, len(elements))
			for i, el := range elements {
				str, ok := el.(*value.String)
				if !ok {
					return e.errorAt(tok, value.NewTypeError(
						"join() requires strings, got %s", value.TypeName(el)))
				}
				parts[i] = str.Value
			}
			return &value.String{Value: strings.Join(parts, s)}
		})
	case "startswith":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			prefix, ok := argStringMethod(args)
			if !ok {
				return e.errorAt(tok, value.NewTypeError("startswith() argument must be a string"))
			}
			return nativeBool(strings.HasPrefix(s, prefix))
		})
	case "endswith":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			suffix, ok := argStringMethod(args)
			if !ok {
				return e.errorAt(tok, value.NewTypeError("endswith() argument must be a string"))
			}
			return nativeBool(strings.HasSuffix(s, suffix))
		})
	case "replace":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if len(args) != 2 {
				return e.errorAt(tok, value.NewArgumentError("replace() takes 2 arguments, got %d", len(args)))
			}
			old, ok1 := args[0].(*value.String)
			new_, ok2 := args[1].(*value.String)
			if !ok1 || !ok2 {
				return e.errorAt(tok, value.NewTypeError("replace() arguments must be strings"))
			}
			return &value.String{Value: strings.ReplaceAll(s, old.Value, new_.Value)}
		})
	case "find":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			needle, ok := argStringMethod(args)
			if !ok {
				return e.errorAt(tok, value.NewTypeError("find() argument must be a string"))
			}
			return &value.Int{Value: int64(strings.Index(s, needle))}
		})
	}
	return nil
}

func argStringMethod(args []value.Value) (string, bool) {
	if len(args) != 1 {
		return "", false
	}
	s, ok := args[0].(*value.String)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func listMethod(recv *value.List, name string) value.Value {
	switch name {
	case "append":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if recv.Frozen() {
				return e.errorAt(tok, value.NewValueError("cannot mutate a frozen list"))
			}
			recv.Elements = append(recv.Elements, args...)
			return value.None
		})
	case "extend":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if recv.Frozen() {
				return e.errorAt(tok, value.NewValueError("cannot mutate a frozen list"))
			}
			if len(args) != 1 {
				return e.errorAt(tok, value.NewArgumentError("extend() takes 1 argument, got %d", len(args)))
			}
			elements, errv := e.materialize(tok, args[0])
			if errv != nil {
				return errv
			}
			recv.Elements = append(recv.Elements, elements...)
			return value.None
		})
	case "pop":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if recv.Frozen() {
				return e.errorAt(tok, value.NewValueError("cannot mutate a frozen list"))
			}
			if len(recv.Elements) == 0 {
				return e.errorAt(tok, value.NewValueError("pop from an empty list"))
			}
			i := len(recv.Elements) - 1
			if len(args) > 0 {
				idx, errv := e.normalizeIndex(tok, args[0], len(recv.Elements))
				if errv != nil {
					return errv
				}
				i = idx
			}
			v := recv.Elements[i]
			recv.Elements = append(recv.Elements[:i], recv.Elements[i+1:]...)
			return v
		})
	case "insert":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if recv.Frozen() {
				return e.errorAt(tok, value.NewValueError("cannot mutate a frozen list"))
			}
			if len(args) != 2 {
				return e.errorAt(tok, value.NewArgumentError("insert() takes 2 arguments, got %d", len(args)))
			}
			n, ok := args[0].(*value.Int)
			if !ok {
				return e.errorAt(tok, value.NewTypeError("insert() index must be an int"))
			}
			i := n.Value
			if i < 0 {
				i += int64(len(recv.Elements))
			}
			if i < 0 {
				i = 0
			}
			if i > int64(len(recv.Elements)) {
				i = int64(len(recv.Elements))
			}
			recv.Elements = append(recv.Elements, nil)
			copy(recv.Elements[i+1:], recv.Elements[i:])
			recv.Elements[i] = args[1]
			return value.None
		})
	case "remove":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if recv.Frozen() {
				return e.errorAt(tok, value.NewValueError("cannot mutate a frozen list"))
			}
			if len(args) != 1 {
				return e.errorAt(tok, value.NewArgumentError("remove() takes 1 argument, got %d", len(args)))
			}
			for i, el := range recv.Elements {
				if value.Equal(el, args[0]) {
					recv.Elements = append(recv.Elements[:i], recv.Elements[i+1:]...)
					return value.None
				}
			}
			return e.errorAt(tok, value.NewValueError("remove(): value not in list"))
		})
	case "index":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if len(args) != 1 {
				return e.errorAt(tok, value.NewArgumentError("index() takes 1 argument, got %d", len(args)))
			}
			for i, el := range recv.Elements {
				if value.Equal(el, args[0]) {
					return &value.Int{Value: int64(i)}
				}
			}
			return e.errorAt(tok, value.NewValueError("index(): value not in list"))
		})
	}
	return nil
}

func dictMethod(recv *value.Dict, name string) value.Value {
	switch name {
	case "get":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if len(args) < 1 || len(args) > 2 {
				return e.errorAt(tok, value.NewArgumentError("get() takes 1 or 2 arguments, got %d", len(args)))
			}
			key, ok := value.AsHashable(args[0])
			if !ok {
				return e.errorAt(tok, value.NewTypeError("unhashable type: %s", value.TypeName(args[0])))
			}
			if v, found := recv.Get(key); found {
				return v
			}
			if len(args) == 2 {
				return args[1]
			}
			return value.None
		})
	case "keys":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			out := &value.List{}
			for _, pair := range recv.Pairs() {
				out.Elements = append(out.Elements, pair.Key)
			}
			return out
		})
	case "values":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			out := &value.List{}
			for _, pair := range recv.Pairs() {
				out.Elements = append(out.Elements, pair.Value)
			}
			return out
		})
	case "items":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			out := &value.List{}
			for _, pair := range recv.Pairs() {
				out.Elements = append(out.Elements, &value.Tuple{Elements: []value.Value{pair.Key, pair.Value}})
			}
			return out
		})
	case "pop":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if recv.Frozen() {
				return e.errorAt(tok, value.NewValueError("cannot mutate a frozen dict"))
			}
			if len(args) < 1 || len(args) > 2 {
				return e.errorAt(tok, value.NewArgumentError("pop() takes 1 or 2 arguments, got %d", len(args)))
			}
			key, ok := value.AsHashable(args[0])
			if !ok {
				return e.errorAt(tok, value.NewTypeError("unhashable type: %s", value.TypeName(args[0])))
			}
			if v, found := recv.Get(key); found {
				recv.Delete(key)
				return v
			}
			if len(args) == 2 {
				return args[1]
			}
			return e.errorAt(tok, value.NewValueError("pop(): key not found: %s", args[0].Inspect()))
		})
	case "update":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if recv.Frozen() {
				return e.errorAt(tok, value.NewValueError("cannot mutate a frozen dict"))
			}
			if len(args) != 1 {
				return e.errorAt(tok, value.NewArgumentError("update() takes 1 argument, got %d", len(args)))
			}
			other, ok := args[0].(*value.Dict)
			if !ok {
				return e.errorAt(tok, value.NewTypeError("update() requires a dict, got %s", value.TypeName(args[0])))
			}
			for _, pair := range other.Pairs() {
				recv.Set(pair.Key.(value.Hashable), pair.Value)
			}
			return value.None
		})
	case "setdefault":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if len(args) < 1 || len(args) > 2 {
				return e.errorAt(tok, value.NewArgumentError("setdefault() takes 1 or 2 arguments, got %d", len(args)))
			}
			key, ok := value.AsHashable(args[0])
			if !ok {
				return e.errorAt(tok, value.NewTypeError("unhashable type: %s", value.TypeName(args[0])))
			}
			if v, found := recv.Get(key); found {
				return v
			}
			if recv.Frozen() {
				return e.errorAt(tok, value.NewValueError("cannot mutate a frozen dict"))
			}
			var fallback value.Value = value.None
			if len(args) == 2 {
				fallback = args[1]
			}
			recv.Set(key, fallback)
			return fallback
		})
	}
	return nil
}

func setMethod(recv *value.Set, name string) value.Value {
	switch name {
	case "add":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if recv.Frozen() {
				return e.errorAt(tok, value.NewValueError("cannot mutate a frozen set"))
			}
			if len(args) != 1 {
				return e.errorAt(tok, value.NewArgumentError("add() takes 1 argument, got %d", len(args)))
			}
			member, ok := value.AsHashable(args[0])
			if !ok {
				return e.errorAt(tok, value.NewTypeError("unhashable type: %s", value.TypeName(args[0])))
			}
			recv.Add(member)
			return value.None
		})
	case "remove":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if recv.Frozen() {
				return e.errorAt(tok, value.NewValueError("cannot mutate a frozen set"))
			}
			if len(args) != 1 {
				return e.errorAt(tok, value.NewArgumentError("remove() takes 1 argument, got %d", len(args)))
			}
			member, ok := value.AsHashable(args[0])
			if !ok {
				return e.errorAt(tok, value.NewTypeError("unhashable type: %s", value.TypeName(args[0])))
			}
			if !recv.Remove(member) {
				return e.errorAt(tok, value.NewValueError("remove(): value not in set"))
			}
			return value.None
		})
	case "union":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			out := value.NewSet()
			for _, m := range recv.Members() {
				out.Add(m.(value.Hashable))
			}
			for _, a := range args {
				other, ok := a.(*value.Set)
				if !ok {
					return e.errorAt(tok, value.NewTypeError("union() requires sets, got %s", value.TypeName(a)))
				}
				for _, m := range other.Members() {
					out.Add(m.(value.Hashable))
				}
			}
			return out
		})
	case "intersection":
		return boundMethod(name, func(e *Task, tok token.Token, args []value.Value, kwargs map[string]value.Value) value.Value {
			if len(args) != 1 {
				return e.errorAt(tok, value.NewArgumentError("intersection() takes 1 argument, got %d", len(args)))
			}
			other, ok := args[0].(*value.Set)
			if !ok {
				return e.errorAt(tok, value.NewTypeError("intersection() requires a set, got %s", value.TypeName(args[0])))
			}
			out := value.NewSet()
			for _, m := range recv.Members() {
				h := m.(value.Hashable)
				if other.Has(h) {
					out.Add(h)
				}
			}
			return out
		})
	}
	return nil
}
