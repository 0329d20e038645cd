package native

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alexchoi0/blueprint-engine/internal/value"
)

func httpFns() []*Fn {
	return []*Fn{
		{Name: "get", Call: httpVerb("GET")},
		{Name: "post", Call: httpVerb("POST")},
		{Name: "put", Call: httpVerb("PUT")},
		{Name: "delete", Call: httpVerb("DELETE")},
	}
}

// httpVerb builds a native for one HTTP method. Positional: url [, body].
// Keywords: headers (dict of string to string), timeout_secs.
func httpVerb(method string) func(*Context, []value.Value, map[string]value.Value) value.Value {
	name := "http." + strings.ToLower(method)
	return func(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
		url, errv := argString(name, args, 0)
		if errv != nil {
			return errv
		}

		var body io.Reader
		if len(args) > 1 {
			switch v := args[1].(type) {
			case *value.String:
				body = strings.NewReader(v.Value)
			case *value.Bytes:
				body = strings.NewReader(string(v.Value))
			case *value.NoneValue:
			default:
				return value.NewTypeError("%s() body must be a string or bytes, got %s",
					name, value.TypeName(args[1]))
			}
		}

		req, err := http.NewRequest(method, url, body)
		if err != nil {
			return value.NewNativeError("%s: %v", name, err)
		}

		if h, ok := kwargs["headers"]; ok {
			dict, ok := h.(*value.Dict)
			if !ok {
				return value.NewTypeError("%s() headers must be a dict, got %s",
					name, value.TypeName(h))
			}
			for _, pair := range dict.Pairs() {
				k, ok := pair.Key.(*value.String)
				if !ok {
					return value.NewTypeError("%s() header names must be strings", name)
				}
				v, ok := pair.Value.(*value.String)
				if !ok {
					return value.NewTypeError("%s() header values must be strings", name)
				}
				req.Header.Set(k.Value, v.Value)
			}
		}

		timeout := time.Duration(ctx.Config.HTTPTimeoutSecs) * time.Second
		if t, ok := kwargs["timeout_secs"]; ok {
			n, ok := t.(*value.Int)
			if !ok {
				return value.NewTypeError("%s() timeout_secs must be an int, got %s",
					name, value.TypeName(t))
			}
			timeout = time.Duration(n.Value) * time.Second
		}

		client := &http.Client{Timeout: timeout}
		resp, err := client.Do(req)
		if err != nil {
			return value.NewNativeError("%s: %v", name, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return value.NewNativeError("%s: reading body: %v", name, err)
		}

		headers := value.NewDict()
		for k := range resp.Header {
			headers.Set(&value.String{Value: k}, &value.String{Value: resp.Header.Get(k)})
		}

		out := value.NewDict()
		out.Set(&value.String{Value: "status"}, &value.Int{Value: int64(resp.StatusCode)})
		out.Set(&value.String{Value: "body"}, &value.String{Value: string(data)})
		out.Set(&value.String{Value: "headers"}, headers)
		return out
	}
}
