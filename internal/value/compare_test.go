package value

import "testing"

func TestTruth(t *testing.T) {
	truthy := []Value{
		True,
		&Int{Value: -1},
		&Float{Value: 0.1},
		&String{Value: " "},
		&List{Elements: []Value{None}},
	}
	falsy := []Value{
		None,
		False,
		&Int{},
		&Float{},
		&String{},
		&List{},
		&Tuple{},
		NewDict(),
		NewSet(),
	}

	for _, v := range truthy {
		if !Truth(v) {
			t.Errorf("Truth(%s) = false, want true", v.Inspect())
		}
	}
	for _, v := range falsy {
		if Truth(v) {
			t.Errorf("Truth(%s) = true, want false", v.Inspect())
		}
	}
}

func TestEqualNumericCrossKind(t *testing.T) {
	if !Equal(&Int{Value: 2}, &Float{Value: 2.0}) {
		t.Errorf("2 == 2.0 should hold")
	}
	if Equal(&Int{Value: 2}, &Float{Value: 2.5}) {
		t.Errorf("2 == 2.5 should not hold")
	}
	if Equal(&Int{Value: 1}, True) {
		t.Errorf("1 == True should not hold; bool is its own kind")
	}
}

func TestEqualContainers(t *testing.T) {
	a := &List{Elements: []Value{&Int{Value: 1}, &String{Value: "x"}}}
	b := &List{Elements: []Value{&Int{Value: 1}, &String{Value: "x"}}}
	c := &List{Elements: []Value{&String{Value: "x"}, &Int{Value: 1}}}

	if !Equal(a, b) {
		t.Errorf("deep-equal lists reported unequal")
	}
	if Equal(a, c) {
		t.Errorf("order must matter for lists")
	}

	d1 := NewDict()
	d1.Set(&String{Value: "a"}, &Int{Value: 1})
	d1.Set(&String{Value: "b"}, &Int{Value: 2})
	d2 := NewDict()
	d2.Set(&String{Value: "b"}, &Int{Value: 2})
	d2.Set(&String{Value: "a"}, &Int{Value: 1})

	if !Equal(d1, d2) {
		t.Errorf("dict equality must ignore insertion order")
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b   Value
		want   int
		wantOk bool
	}{
		{&Int{Value: 1}, &Int{Value: 2}, -1, true},
		{&Int{Value: 2}, &Float{Value: 1.5}, 1, true},
		{&String{Value: "abc"}, &String{Value: "abd"}, -1, true},
		{&Int{Value: 1}, &String{Value: "a"}, 0, false},
		{&Int{Value: 1}, True, 0, false},
		{
			&List{Elements: []Value{&Int{Value: 1}}},
			&List{Elements: []Value{&Int{Value: 1}, &Int{Value: 2}}},
			-1, true,
		},
		{
			&Tuple{Elements: []Value{&Int{Value: 2}}},
			&Tuple{Elements: []Value{&Int{Value: 1}, &Int{Value: 9}}},
			1, true,
		},
	}

	for _, tt := range tests {
		got, ok := Compare(tt.a, tt.b)
		if ok != tt.wantOk {
			t.Errorf("Compare(%s, %s) ok = %v, want %v", tt.a.Inspect(), tt.b.Inspect(), ok, tt.wantOk)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a.Inspect(), tt.b.Inspect(), got, tt.want)
		}
	}
}
