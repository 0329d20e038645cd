package runtime

import (
	"github.com/alexchoi0/blueprint-engine/internal/token"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

// iterator is the pull protocol shared by sequences, generators and lazy
// map/filter wrappers. Next returns ok=false on exhaustion; errv carries a
// language error raised while producing the element.
type iterator interface {
	Next(t *Task) (element value.Value, ok bool, errv *value.Error)
}

type sliceIterator struct {
	elements []value.Value
	pos      int
}

func (it *sliceIterator) Next(t *Task) (value.Value, bool, *value.Error) {
	if it.pos >= len(it.elements) {
		return nil, false, nil
	}
	el := it.elements[it.pos]
	it.pos++
	return el, true, nil
}

type runeIterator struct {
	runes []rune
	pos   int
}

func (it *runeIterator) Next(t *Task) (value.Value, bool, *value.Error) {
	if it.pos >= len(it.runes) {
		return nil, false, nil
	}
	r := it.runes[it.pos]
	it.pos++
	return &value.String{Value: string(r)}, true, nil
}

// iterator builds an iterator over any iterable value. Dicts iterate over
// keys in insertion order.
func (e *Task) iterator(tok token.Token, v value.Value) (iterator, *value.Error) {
	switch v := v.(type) {
	case *value.List:
		return &sliceIterator{elements: v.Elements}, nil
	case *value.Tuple:
		return &sliceIterator{elements: v.Elements}, nil
	case *value.String:
		return &runeIterator{runes: []rune(v.Value)}, nil
	case *value.Bytes:
		elements := make([]value.Value, len(v.Value))
		for i, b := range v.Value {
			elements[i] = &value.Int{Value: int64(b)}
		}
		return &sliceIterator{elements: elements}, nil
	case *value.Dict:
		pairs := v.Pairs()
		elements := make([]value.Value, len(pairs))
		for i, p := range pairs {
			elements[i] = p.Key
		}
		return &sliceIterator{elements: elements}, nil
	case *value.Set:
		return &sliceIterator{elements: v.Members()}, nil
	case *Generator:
		return v, nil
	case *Lazy:
		return v, nil
	}
	return nil, e.errorAt(tok, value.NewTypeError(
		"%s is not iterable", value.TypeName(v)))
}

// materialize drains an iterable into a slice. Generators are driven to
// exhaustion.
func (e *Task) materialize(tok token.Token, v value.Value) ([]value.Value, *value.Error) {
	switch v := v.(type) {
	case *value.List:
		return v.Elements, nil
	case *value.Tuple:
		return v.Elements, nil
	}

	it, errv := e.iterator(tok, v)
	if errv != nil {
		return nil, errv
	}
	var out []value.Value
	for {
		el, ok, errv := it.Next(e)
		if errv != nil {
			return nil, errv
		}
		if !ok {
			return out, nil
		}
		out = append(out, el)
	}
}
