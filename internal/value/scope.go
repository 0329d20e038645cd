package value

import (
	"fmt"
	"sync"
)

// Scope holds name bindings with a pointer to the enclosing scope. Module
// scopes are frozen after their top-level statements finish, from then on
// tasks may read them concurrently without locking discipline at the call
// sites; mutation attempts surface as language errors in the evaluator.
type Scope struct {
	bindings map[string]Value
	outer    *Scope
	frozen   bool

	mu sync.RWMutex
}

func NewScope() *Scope {
	return &Scope{bindings: make(map[string]Value)}
}

func NewEnclosedScope(outer *Scope) *Scope {
	s := NewScope()
	s.outer = outer
	return s
}

func (s *Scope) Outer() *Scope { return s.outer }

// Get walks the scope chain innermost first.
func (s *Scope) Get(name string) (Value, bool) {
	s.mu.RLock()
	val, ok := s.bindings[name]
	s.mu.RUnlock()

	if ok {
		return val, true
	}
	if s.outer != nil {
		return s.outer.Get(name)
	}
	return nil, false
}

// GetLocal reads a binding from this scope only, without walking outers.
func (s *Scope) GetLocal(name string) (Value, bool) {
	s.mu.RLock()
	val, ok := s.bindings[name]
	s.mu.RUnlock()
	return val, ok
}

// Define creates or overwrites a binding in this scope.
func (s *Scope) Define(name string, val Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return fmt.Errorf("cannot assign to %q: module globals are frozen", name)
	}
	s.bindings[name] = val
	return nil
}

// Assign updates the nearest existing binding. It reports whether any scope
// in the chain held the name.
func (s *Scope) Assign(name string, val Value) (bool, error) {
	s.mu.Lock()
	if _, ok := s.bindings[name]; ok {
		if s.frozen {
			s.mu.Unlock()
			return true, fmt.Errorf("cannot assign to %q: module globals are frozen", name)
		}
		s.bindings[name] = val
		s.mu.Unlock()
		return true, nil
	}
	s.mu.Unlock()

	if s.outer != nil {
		return s.outer.Assign(name, val)
	}
	return false, nil
}

// Freeze makes the scope and every container value bound in it immutable.
func (s *Scope) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return
	}
	s.frozen = true
	for _, v := range s.bindings {
		freezeValue(v)
	}
}

func (s *Scope) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// Names returns the locally bound names, unordered.
func (s *Scope) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.bindings))
	for name := range s.bindings {
		names = append(names, name)
	}
	return names
}

// Exports returns the public bindings of a module scope. Names with a
// leading underscore are module-private.
func (s *Scope) Exports() map[string]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exports := make(map[string]Value, len(s.bindings))
	for name, val := range s.bindings {
		if len(name) > 0 && name[0] == '_' {
			continue
		}
		exports[name] = val
	}
	return exports
}
