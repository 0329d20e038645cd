package value

import "testing"

func TestStringHashKey(t *testing.T) {
	hello1 := &String{Value: "Hello World"}
	hello2 := &String{Value: "Hello World"}
	diff1 := &String{Value: "My name is johnny"}
	diff2 := &String{Value: "My name is johnny"}

	if hello1.HashKey() != hello2.HashKey() {
		t.Errorf("strings with same content have different hash keys")
	}

	if diff1.HashKey() != diff2.HashKey() {
		t.Errorf("strings with same content have different hash keys")
	}

	if hello1.HashKey() == diff1.HashKey() {
		t.Errorf("strings with different content have same hash keys")
	}
}

func TestBoolHashKey(t *testing.T) {
	true1 := &Bool{Value: true}
	true2 := &Bool{Value: true}
	false1 := &Bool{Value: false}

	if true1.HashKey() != true2.HashKey() {
		t.Errorf("trues do not have same hash key")
	}

	if true1.HashKey() == false1.HashKey() {
		t.Errorf("true has same hash key as false")
	}
}

func TestTupleHashKey(t *testing.T) {
	a := &Tuple{Elements: []Value{&Int{Value: 1}, &String{Value: "x"}}}
	b := &Tuple{Elements: []Value{&Int{Value: 1}, &String{Value: "x"}}}
	c := &Tuple{Elements: []Value{&Int{Value: 2}, &String{Value: "x"}}}

	if a.HashKey() != b.HashKey() {
		t.Errorf("equal tuples have different hash keys")
	}
	if a.HashKey() == c.HashKey() {
		t.Errorf("different tuples have same hash key")
	}
}

func TestFloatHashKey(t *testing.T) {
	a := &Float{Value: 1.5}
	b := &Float{Value: 1.5}
	c := &Float{Value: 2.5}

	if a.HashKey() != b.HashKey() {
		t.Errorf("equal floats have different hash keys")
	}
	if a.HashKey() == c.HashKey() {
		t.Errorf("different floats have same hash key")
	}
	if a.HashKey() == (&Int{Value: 1}).HashKey() {
		t.Errorf("float and int hash keys collide across kinds")
	}
}

func TestAsHashable(t *testing.T) {
	tests := []struct {
		v  Value
		ok bool
	}{
		{&Int{Value: 1}, true},
		{&Float{Value: 1.5}, true},
		{&String{Value: "k"}, true},
		{&Tuple{Elements: []Value{&Int{Value: 1}, &String{Value: "x"}}}, true},
		{&Tuple{Elements: []Value{&Tuple{Elements: []Value{&Int{Value: 2}}}}}, true},
		{&List{Elements: []Value{&Int{Value: 1}}}, false},
		{NewDict(), false},
		{&Tuple{Elements: []Value{&Int{Value: 1}, &List{}}}, false},
		{&Tuple{Elements: []Value{&Tuple{Elements: []Value{&List{}}}}}, false},
	}
	for _, tt := range tests {
		if _, ok := AsHashable(tt.v); ok != tt.ok {
			t.Errorf("AsHashable(%s) = %v, want %v", tt.v.Inspect(), ok, tt.ok)
		}
	}
}

func TestDictPreservesInsertionOrder(t *testing.T) {
	d := NewDict()
	keys := []string{"zebra", "apple", "mango"}
	for i, k := range keys {
		d.Set(&String{Value: k}, &Int{Value: int64(i)})
	}

	pairs := d.Pairs()
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}
	for i, p := range pairs {
		s := p.Key.(*String)
		if s.Value != keys[i] {
			t.Errorf("pair %d key = %q, want %q", i, s.Value, keys[i])
		}
	}

	// overwriting must keep the original position
	d.Set(&String{Value: "apple"}, &Int{Value: 99})
	pairs = d.Pairs()
	if pairs[1].Key.(*String).Value != "apple" {
		t.Errorf("overwrite moved the key")
	}
	if pairs[1].Value.(*Int).Value != 99 {
		t.Errorf("overwrite did not update the value")
	}
}

func TestFrozenDictIgnoresWrites(t *testing.T) {
	d := NewDict()
	d.Set(&String{Value: "a"}, &Int{Value: 1})
	d.Freeze()

	d.Set(&String{Value: "b"}, &Int{Value: 2})
	if d.Len() != 1 {
		t.Errorf("frozen dict accepted a write, len = %d", d.Len())
	}
}

func TestFreezeIsDeep(t *testing.T) {
	inner := &List{Elements: []Value{&Int{Value: 1}}}
	outer := &List{Elements: []Value{inner}}
	outer.Freeze()

	if !inner.Frozen() {
		t.Errorf("freezing the outer list did not freeze the inner list")
	}
}

func TestInspect(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{None, "None"},
		{&Int{Value: -3}, "-3"},
		{&Float{Value: 2}, "2.0"},
		{&Float{Value: 2.5}, "2.5"},
		{&String{Value: "hi"}, `"hi"`},
		{&Tuple{Elements: []Value{&Int{Value: 1}}}, "(1,)"},
		{&List{Elements: []Value{&Int{Value: 1}, &Int{Value: 2}}}, "[1, 2]"},
	}
	for _, tt := range tests {
		if got := tt.v.Inspect(); got != tt.want {
			t.Errorf("Inspect() = %q, want %q", got, tt.want)
		}
	}
}

func TestStrUnquotesStrings(t *testing.T) {
	if got := Str(&String{Value: "plain"}); got != "plain" {
		t.Errorf("Str(string) = %q", got)
	}
	if got := Str(&Int{Value: 7}); got != "7" {
		t.Errorf("Str(int) = %q", got)
	}
}
