package value

// Truth reports the truthiness of a value. Empty containers, zero numbers,
// empty strings and None are falsy; everything else is truthy.
func Truth(v Value) bool {
	switch v := v.(type) {
	case *NoneValue:
		return false
	case *Bool:
		return v.Value
	case *Int:
		return v.Value != 0
	case *Float:
		return v.Value != 0
	case *String:
		return len(v.Value) > 0
	case *Bytes:
		return len(v.Value) > 0
	case *List:
		return len(v.Elements) > 0
	case *Tuple:
		return len(v.Elements) > 0
	case *Dict:
		return v.Len() > 0
	case *Set:
		return v.Len() > 0
	}
	return true
}

// Equal implements == semantics. Ints and floats compare by numeric value
// across kinds; container equality is deep and order-sensitive for
// sequences, order-insensitive for dicts and sets.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case *NoneValue:
		_, ok := b.(*NoneValue)
		return ok
	case *Bool:
		if b, ok := b.(*Bool); ok {
			return a.Value == b.Value
		}
		return false
	case *Int:
		switch b := b.(type) {
		case *Int:
			return a.Value == b.Value
		case *Float:
			return float64(a.Value) == b.Value
		}
		return false
	case *Float:
		switch b := b.(type) {
		case *Int:
			return a.Value == float64(b.Value)
		case *Float:
			return a.Value == b.Value
		}
		return false
	case *String:
		if b, ok := b.(*String); ok {
			return a.Value == b.Value
		}
		return false
	case *Bytes:
		if b, ok := b.(*Bytes); ok {
			return string(a.Value) == string(b.Value)
		}
		return false
	case *List:
		if b, ok := b.(*List); ok {
			return sequenceEqual(a.Elements, b.Elements)
		}
		return false
	case *Tuple:
		if b, ok := b.(*Tuple); ok {
			return sequenceEqual(a.Elements, b.Elements)
		}
		return false
	case *Dict:
		b, ok := b.(*Dict)
		if !ok || a.Len() != b.Len() {
			return false
		}
		for _, pair := range a.Pairs() {
			key, ok := pair.Key.(Hashable)
			if !ok {
				return false
			}
			other, ok := b.Get(key)
			if !ok || !Equal(pair.Value, other) {
				return false
			}
		}
		return true
	case *Set:
		b, ok := b.(*Set)
		if !ok || a.Len() != b.Len() {
			return false
		}
		for _, m := range a.Members() {
			key, ok := m.(Hashable)
			if !ok {
				return false
			}
			if !b.Has(key) {
				return false
			}
		}
		return true
	}
	return a == b
}

func sequenceEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Compare implements ordering for <, <=, > and >=. It returns -1, 0 or 1,
// and ok=false when the two kinds have no defined order (e.g. 1 < "a").
func Compare(a, b Value) (int, bool) {
	switch a := a.(type) {
	case *Int:
		switch b := b.(type) {
		case *Int:
			return cmpInt(a.Value, b.Value), true
		case *Float:
			return cmpFloat(float64(a.Value), b.Value), true
		}
	case *Float:
		switch b := b.(type) {
		case *Int:
			return cmpFloat(a.Value, float64(b.Value)), true
		case *Float:
			return cmpFloat(a.Value, b.Value), true
		}
	case *Bool:
		if b, ok := b.(*Bool); ok {
			return cmpInt(boolInt(a.Value), boolInt(b.Value)), true
		}
	case *String:
		if b, ok := b.(*String); ok {
			switch {
			case a.Value < b.Value:
				return -1, true
			case a.Value > b.Value:
				return 1, true
			}
			return 0, true
		}
	case *Bytes:
		if b, ok := b.(*Bytes); ok {
			switch {
			case string(a.Value) < string(b.Value):
				return -1, true
			case string(a.Value) > string(b.Value):
				return 1, true
			}
			return 0, true
		}
	case *List:
		if b, ok := b.(*List); ok {
			return cmpSequence(a.Elements, b.Elements)
		}
	case *Tuple:
		if b, ok := b.(*Tuple); ok {
			return cmpSequence(a.Elements, b.Elements)
		}
	}
	return 0, false
}

func cmpSequence(a, b []Value) (int, bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c, ok := Compare(a[i], b[i])
		if !ok {
			return 0, false
		}
		if c != 0 {
			return c, true
		}
	}
	return cmpInt(int64(len(a)), int64(len(b))), true
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
