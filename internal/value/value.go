package value

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alexchoi0/blueprint-engine/internal/ast"
)

const (
	NONE_VALUE   = "NoneType"
	BOOL_VALUE   = "bool"
	INT_VALUE    = "int"
	FLOAT_VALUE  = "float"
	STRING_VALUE = "string"
	BYTES_VALUE  = "bytes"

	LIST_VALUE  = "list"
	TUPLE_VALUE = "tuple"
	DICT_VALUE  = "dict"
	SET_VALUE   = "set"

	FUNCTION_VALUE  = "function"
	BUILTIN_VALUE   = "builtin"
	NATIVE_VALUE    = "native function"
	MODULE_VALUE    = "module"
	GENERATOR_VALUE = "generator"
	ERROR_VALUE     = "error"

	RETURN_SIGNAL   = "return"
	BREAK_SIGNAL    = "break"
	CONTINUE_SIGNAL = "continue"
)

var (
	None  = &NoneValue{}
	True  = &Bool{Value: true}
	False = &Bool{Value: false}
)

type Kind string

type Value interface {
	Kind() Kind
	Inspect() string
}

// Hashable values can be used as dict keys and set members.
type Hashable interface {
	Value
	HashKey() HashKey
}

// AsHashable returns v as a dict key or set member. A tuple qualifies
// only when every element does, so callers must use this instead of
// asserting Hashable directly.
func AsHashable(v Value) (Hashable, bool) {
	if t, ok := v.(*Tuple); ok {
		for _, e := range t.Elements {
			if _, ok := AsHashable(e); !ok {
				return nil, false
			}
		}
		return t, true
	}
	h, ok := v.(Hashable)
	return h, ok
}

type HashKey struct {
	Kind Kind
	Sum  uint64
}

type NoneValue struct{}

func (n *NoneValue) Kind() Kind      { return NONE_VALUE }
func (n *NoneValue) Inspect() string { return "None" }
func (n *NoneValue) HashKey() HashKey {
	return HashKey{Kind: n.Kind()}
}

type Bool struct {
	Value bool
}

func (b *Bool) Kind() Kind { return BOOL_VALUE }
func (b *Bool) Inspect() string {
	if b.Value {
		return "True"
	}
	return "False"
}
func (b *Bool) HashKey() HashKey {
	var sum uint64
	if b.Value {
		sum = 1
	}
	return HashKey{Kind: b.Kind(), Sum: sum}
}

type Int struct {
	Value int64
}

func (i *Int) Kind() Kind      { return INT_VALUE }
func (i *Int) Inspect() string { return strconv.FormatInt(i.Value, 10) }
func (i *Int) HashKey() HashKey {
	return HashKey{Kind: i.Kind(), Sum: uint64(i.Value)}
}

type Float struct {
	Value float64
}

func (f *Float) Kind() Kind { return FLOAT_VALUE }
func (f *Float) HashKey() HashKey {
	return HashKey{Kind: f.Kind(), Sum: math.Float64bits(f.Value)}
}
func (f *Float) Inspect() string {
	s := strconv.FormatFloat(f.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s
}

type String struct {
	Value string
}

func (s *String) Kind() Kind      { return STRING_VALUE }
func (s *String) Inspect() string { return strconv.Quote(s.Value) }
func (s *String) HashKey() HashKey {
	h := fnv.New64a()
	for _, r := range s.Value {
		var buf [4]byte
		n := utf8.EncodeRune(buf[:], r)
		h.Write(buf[:n])
	}
	return HashKey{Kind: s.Kind(), Sum: h.Sum64()}
}

type Bytes struct {
	Value []byte
}

func (b *Bytes) Kind() Kind      { return BYTES_VALUE }
func (b *Bytes) Inspect() string { return "b" + strconv.Quote(string(b.Value)) }
func (b *Bytes) HashKey() HashKey {
	h := fnv.New64a()
	h.Write(b.Value)
	return HashKey{Kind: b.Kind(), Sum: h.Sum64()}
}

type List struct {
	Elements []Value
	frozen   bool
}

func (l *List) Kind() Kind { return LIST_VALUE }
func (l *List) Inspect() string {
	return "[" + inspectJoin(l.Elements) + "]"
}
func (l *List) Frozen() bool { return l.frozen }

// Freeze marks the list and everything reachable from it immutable.
func (l *List) Freeze() {
	if l.frozen {
		return
	}
	l.frozen = true
	for _, e := range l.Elements {
		freezeValue(e)
	}
}

type Tuple struct {
	Elements []Value
}

func (t *Tuple) Kind() Kind { return TUPLE_VALUE }
func (t *Tuple) Inspect() string {
	if len(t.Elements) == 1 {
		return "(" + t.Elements[0].Inspect() + ",)"
	}
	return "(" + inspectJoin(t.Elements) + ")"
}
func (t *Tuple) HashKey() HashKey {
	h := fnv.New64a()
	for _, e := range t.Elements {
		// Callers vet elements through AsHashable first; an unhashable
		// element here is a bug, not a value to alias.
		k := e.(Hashable).HashKey()
		fmt.Fprintf(h, "%s:%d;", k.Kind, k.Sum)
	}
	return HashKey{Kind: t.Kind(), Sum: h.Sum64()}
}

type DictPair struct {
	Key   Value
	Value Value
}

// Dict preserves insertion order: entries maps hash keys to pairs and
// order records first-insertion sequence.
type Dict struct {
	entries map[HashKey]*DictPair
	order   []HashKey
	frozen  bool
}

func NewDict() *Dict {
	return &Dict{entries: make(map[HashKey]*DictPair)}
}

func (d *Dict) Kind() Kind { return DICT_VALUE }
func (d *Dict) Inspect() string {
	var out bytes.Buffer
	out.WriteString("{")
	for i, k := range d.order {
		if i > 0 {
			out.WriteString(", ")
		}
		pair := d.entries[k]
		out.WriteString(pair.Key.Inspect())
		out.WriteString(": ")
		out.WriteString(pair.Value.Inspect())
	}
	out.WriteString("}")
	return out.String()
}

func (d *Dict) Frozen() bool { return d.frozen }

func (d *Dict) Freeze() {
	if d.frozen {
		return
	}
	d.frozen = true
	for _, k := range d.order {
		freezeValue(d.entries[k].Value)
	}
}

func (d *Dict) Len() int { return len(d.order) }

func (d *Dict) Get(key Hashable) (Value, bool) {
	pair, ok := d.entries[key.HashKey()]
	if !ok {
		return nil, false
	}
	return pair.Value, true
}

// Set inserts or updates a key. The caller checks frozen-ness first and
// reports a language error; Set on a frozen dict is a no-op.
func (d *Dict) Set(key Hashable, val Value) {
	if d.frozen {
		return
	}
	hk := key.HashKey()
	if pair, ok := d.entries[hk]; ok {
		pair.Value = val
		return
	}
	d.entries[hk] = &DictPair{Key: key, Value: val}
	d.order = append(d.order, hk)
}

func (d *Dict) Delete(key Hashable) bool {
	if d.frozen {
		return false
	}
	hk := key.HashKey()
	if _, ok := d.entries[hk]; !ok {
		return false
	}
	delete(d.entries, hk)
	for i, k := range d.order {
		if k == hk {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

// Pairs returns entries in insertion order.
func (d *Dict) Pairs() []*DictPair {
	pairs := make([]*DictPair, 0, len(d.order))
	for _, k := range d.order {
		pairs = append(pairs, d.entries[k])
	}
	return pairs
}

// Set is an insertion-ordered hash set.
type Set struct {
	entries map[HashKey]Value
	order   []HashKey
	frozen  bool
}

func NewSet() *Set {
	return &Set{entries: make(map[HashKey]Value)}
}

func (s *Set) Kind() Kind { return SET_VALUE }
func (s *Set) Inspect() string {
	if len(s.order) == 0 {
		return "set()"
	}
	var out bytes.Buffer
	out.WriteString("{")
	for i, k := range s.order {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(s.entries[k].Inspect())
	}
	out.WriteString("}")
	return out.String()
}

func (s *Set) Frozen() bool { return s.frozen }

func (s *Set) Freeze() {
	if s.frozen {
		return
	}
	s.frozen = true
	for _, k := range s.order {
		freezeValue(s.entries[k])
	}
}

func (s *Set) Len() int { return len(s.order) }

func (s *Set) Has(key Hashable) bool {
	_, ok := s.entries[key.HashKey()]
	return ok
}

func (s *Set) Add(key Hashable) {
	if s.frozen {
		return
	}
	hk := key.HashKey()
	if _, ok := s.entries[hk]; ok {
		return
	}
	s.entries[hk] = key
	s.order = append(s.order, hk)
}

func (s *Set) Remove(key Hashable) bool {
	if s.frozen {
		return false
	}
	hk := key.HashKey()
	if _, ok := s.entries[hk]; !ok {
		return false
	}
	delete(s.entries, hk)
	for i, k := range s.order {
		if k == hk {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Members returns elements in insertion order.
func (s *Set) Members() []Value {
	members := make([]Value, 0, len(s.order))
	for _, k := range s.order {
		members = append(members, s.entries[k])
	}
	return members
}

// Function is a script closure. Defaults holds the default parameter
// values, evaluated once at definition time, aligned by index with Params
// (nil where a parameter has no default).
type Function struct {
	Name     string
	Params   []*ast.Parameter
	Defaults []Value
	Body     *ast.BlockStatement
	Scope    *Scope
	IsGen    bool
	Module   string
}

func (f *Function) Kind() Kind { return FUNCTION_VALUE }
func (f *Function) Inspect() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	name := f.Name
	if name == "" {
		name = "lambda"
	}
	return fmt.Sprintf("<function %s(%s)>", name, strings.Join(params, ", "))
}

type Module struct {
	Name    string
	Path    string
	Exports *Scope
}

func (m *Module) Kind() Kind      { return MODULE_VALUE }
func (m *Module) Inspect() string { return fmt.Sprintf("<module %q>", m.Path) }

// ReturnSignal, BreakSignal and ContinueSignal are evaluator-internal
// control-flow carriers; they never escape to user code.
type ReturnSignal struct {
	Value Value
}

func (r *ReturnSignal) Kind() Kind      { return RETURN_SIGNAL }
func (r *ReturnSignal) Inspect() string { return r.Value.Inspect() }

type BreakSignal struct{}

func (b *BreakSignal) Kind() Kind      { return BREAK_SIGNAL }
func (b *BreakSignal) Inspect() string { return "break" }

type ContinueSignal struct{}

func (c *ContinueSignal) Kind() Kind      { return CONTINUE_SIGNAL }
func (c *ContinueSignal) Inspect() string { return "continue" }

func inspectJoin(elements []Value) string {
	parts := make([]string, len(elements))
	for i, e := range elements {
		parts[i] = e.Inspect()
	}
	return strings.Join(parts, ", ")
}

func freezeValue(v Value) {
	switch v := v.(type) {
	case *List:
		v.Freeze()
	case *Dict:
		v.Freeze()
	case *Set:
		v.Freeze()
	case *Tuple:
		for _, e := range v.Elements {
			freezeValue(e)
		}
	}
}

// Freeze deep-freezes any container value.
func Freeze(v Value) { freezeValue(v) }

// Str renders a value the way str() and print() do: strings unquoted,
// everything else as Inspect.
func Str(v Value) string {
	switch v := v.(type) {
	case *String:
		return v.Value
	case *Bytes:
		return string(v.Value)
	}
	return v.Inspect()
}

// TypeName reports the user-facing type name used in error messages.
func TypeName(v Value) string { return string(v.Kind()) }
