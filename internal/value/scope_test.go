package value

import "testing"

func TestScopeChainLookup(t *testing.T) {
	outer := NewScope()
	outer.Define("x", &Int{Value: 1})
	inner := NewEnclosedScope(outer)
	inner.Define("y", &Int{Value: 2})

	if v, ok := inner.Get("x"); !ok || v.(*Int).Value != 1 {
		t.Errorf("inner scope cannot see outer binding")
	}
	if _, ok := outer.Get("y"); ok {
		t.Errorf("outer scope must not see inner binding")
	}
	if _, ok := inner.GetLocal("x"); ok {
		t.Errorf("GetLocal must not walk the chain")
	}
}

func TestShadowing(t *testing.T) {
	outer := NewScope()
	outer.Define("x", &Int{Value: 1})
	inner := NewEnclosedScope(outer)
	inner.Define("x", &Int{Value: 2})

	if v, _ := inner.Get("x"); v.(*Int).Value != 2 {
		t.Errorf("inner binding should shadow outer")
	}
	if v, _ := outer.Get("x"); v.(*Int).Value != 1 {
		t.Errorf("shadowing leaked into outer scope")
	}
}

func TestAssignRebindsNearest(t *testing.T) {
	outer := NewScope()
	outer.Define("count", &Int{Value: 0})
	inner := NewEnclosedScope(outer)

	found, err := inner.Assign("count", &Int{Value: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatalf("Assign did not find the outer binding")
	}
	if v, _ := outer.Get("count"); v.(*Int).Value != 5 {
		t.Errorf("outer binding not updated")
	}
	if _, ok := inner.GetLocal("count"); ok {
		t.Errorf("Assign must not create a local binding")
	}
}

func TestAssignUnboundReportsNotFound(t *testing.T) {
	s := NewScope()
	found, err := s.Assign("ghost", None)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Errorf("Assign reported an unbound name as found")
	}
}

func TestFrozenScopeRejectsWrites(t *testing.T) {
	s := NewScope()
	s.Define("x", &Int{Value: 1})
	s.Freeze()

	if err := s.Define("y", None); err == nil {
		t.Errorf("Define on a frozen scope must fail")
	}
	if _, err := s.Assign("x", &Int{Value: 2}); err == nil {
		t.Errorf("Assign on a frozen scope must fail")
	}
}

func TestFreezeReachesBoundContainers(t *testing.T) {
	s := NewScope()
	xs := &List{Elements: []Value{&Int{Value: 1}}}
	s.Define("xs", xs)
	s.Freeze()

	if !xs.Frozen() {
		t.Errorf("freezing a scope must freeze bound containers")
	}
}

func TestExportsSkipUnderscoreNames(t *testing.T) {
	s := NewScope()
	s.Define("public", &Int{Value: 1})
	s.Define("_private", &Int{Value: 2})

	exports := s.Exports()
	if _, ok := exports["public"]; !ok {
		t.Errorf("public name missing from exports")
	}
	if _, ok := exports["_private"]; ok {
		t.Errorf("underscore name leaked into exports")
	}
}
