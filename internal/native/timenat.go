package native

import (
	"time"

	"github.com/alexchoi0/blueprint-engine/internal/value"
)

func timeFns() []*Fn {
	return []*Fn{
		{Name: "now", Call: timeNow},
		{Name: "now_ms", Call: timeNowMs},
		{Name: "sleep", Call: timeSleep},
		{Name: "format", Call: timeFormat},
		{Name: "parse", Call: timeParse},
	}
}

func timeNow(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	return &value.Float{Value: float64(time.Now().UnixNano()) / 1e9}
}

func timeNowMs(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	return &value.Int{Value: time.Now().UnixMilli()}
}

// timeSleep pauses for a number of seconds, given as int or float.
func timeSleep(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) != 1 {
		return value.NewArgumentError("time.sleep() takes 1 argument, got %d", len(args))
	}
	var secs float64
	switch v := args[0].(type) {
	case *value.Int:
		secs = float64(v.Value)
	case *value.Float:
		secs = v.Value
	default:
		return value.NewTypeError("time.sleep() argument must be a number, got %s",
			value.TypeName(args[0]))
	}
	if secs < 0 {
		return value.NewValueError("time.sleep() duration must not be negative")
	}
	time.Sleep(time.Duration(secs * float64(time.Second)))
	return value.None
}

func timeFormat(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	var ts float64
	switch v := args[0].(type) {
	case *value.Int:
		ts = float64(v.Value)
	case *value.Float:
		ts = v.Value
	default:
		return value.NewTypeError("time.format() argument 1 must be a number, got %s",
			value.TypeName(args[0]))
	}
	layout := time.RFC3339
	if len(args) > 1 {
		s, errv := argString("time.format", args, 1)
		if errv != nil {
			return errv
		}
		layout = s
	}
	t := time.Unix(int64(ts), int64((ts-float64(int64(ts)))*1e9)).UTC()
	return &value.String{Value: t.Format(layout)}
}

func timeParse(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	src, errv := argString("time.parse", args, 0)
	if errv != nil {
		return errv
	}
	layout := time.RFC3339
	if len(args) > 1 {
		s, errv := argString("time.parse", args, 1)
		if errv != nil {
			return errv
		}
		layout = s
	}
	t, err := time.Parse(layout, src)
	if err != nil {
		return value.NewValueError("time.parse: %v", err)
	}
	return &value.Float{Value: float64(t.UnixNano()) / 1e9}
}
