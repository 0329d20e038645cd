package native

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/alexchoi0/blueprint-engine/internal/value"
)

func jsonFns() []*Fn {
	return []*Fn{
		{Name: "encode", Call: jsonEncode},
		{Name: "decode", Call: jsonDecode},
	}
}

func jsonEncode(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	if errv := argCount("json.encode", args, 1); errv != nil {
		return errv
	}
	native, err := toGo(args[0])
	if err != nil {
		return err
	}

	indent, errv := kwargString("json.encode", kwargs, "indent", "")
	if errv != nil {
		return errv
	}

	var data []byte
	var marshalErr error
	if indent != "" {
		data, marshalErr = json.MarshalIndent(native, "", indent)
	} else {
		data, marshalErr = json.Marshal(native)
	}
	if marshalErr != nil {
		return value.NewNativeError("json.encode: %v", marshalErr)
	}
	return &value.String{Value: string(data)}
}

func jsonDecode(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	src, errv := argString("json.decode", args, 0)
	if errv != nil {
		return errv
	}
	var raw interface{}
	if err := json.Unmarshal([]byte(src), &raw); err != nil {
		return value.NewValueError("json.decode: %v", err)
	}
	return fromGo(raw)
}

func toGo(v value.Value) (interface{}, *value.Error) {
	switch v := v.(type) {
	case *value.NoneValue:
		return nil, nil
	case *value.Bool:
		return v.Value, nil
	case *value.Int:
		return v.Value, nil
	case *value.Float:
		return v.Value, nil
	case *value.String:
		return v.Value, nil
	case *value.List:
		return sliceToGo(v.Elements)
	case *value.Tuple:
		return sliceToGo(v.Elements)
	case *value.Dict:
		out := make(map[string]interface{}, v.Len())
		for _, pair := range v.Pairs() {
			key, ok := pair.Key.(*value.String)
			if !ok {
				return nil, value.NewTypeError("json.encode: dict keys must be strings, got %s",
					value.TypeName(pair.Key))
			}
			converted, err := toGo(pair.Value)
			if err != nil {
				return nil, err
			}
			out[key.Value] = converted
		}
		return out, nil
	}
	return nil, value.NewTypeError("json.encode: cannot encode %s", value.TypeName(v))
}

func sliceToGo(elements []value.Value) ([]interface{}, *value.Error) {
	out := make([]interface{}, len(elements))
	for i, e := range elements {
		converted, err := toGo(e)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

func fromGo(raw interface{}) value.Value {
	switch raw := raw.(type) {
	case nil:
		return value.None
	case bool:
		if raw {
			return value.True
		}
		return value.False
	case float64:
		// JSON numbers arrive as float64; keep exact integers integral.
		if raw == math.Trunc(raw) && math.Abs(raw) < 1<<53 {
			return &value.Int{Value: int64(raw)}
		}
		return &value.Float{Value: raw}
	case string:
		return &value.String{Value: raw}
	case []interface{}:
		out := &value.List{Elements: make([]value.Value, len(raw))}
		for i, e := range raw {
			out.Elements[i] = fromGo(e)
		}
		return out
	case map[string]interface{}:
		out := value.NewDict()
		for k, v := range raw {
			out.Set(&value.String{Value: k}, fromGo(v))
		}
		return out
	}
	return value.NewNativeError("json.decode: unsupported value %v", fmt.Sprintf("%T", raw))
}
