package native

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/alexchoi0/blueprint-engine/internal/value"
)

func fileFns() []*Fn {
	return []*Fn{
		{Name: "read", Call: fileRead},
		{Name: "read_bytes", Call: fileReadBytes},
		{Name: "write", Call: fileWrite},
		{Name: "append", Call: fileAppend},
		{Name: "exists", Call: fileExists},
		{Name: "list", Call: fileList},
		{Name: "remove", Call: fileRemove},
		{Name: "mkdir", Call: fileMkdir},
	}
}

func fileRead(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	path, errv := argString("file.read", args, 0)
	if errv != nil {
		return errv
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return value.NewNativeError("file.read: %v", err)
	}
	return &value.String{Value: string(data)}
}

func fileReadBytes(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	path, errv := argString("file.read_bytes", args, 0)
	if errv != nil {
		return errv
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return value.NewNativeError("file.read_bytes: %v", err)
	}
	return &value.Bytes{Value: data}
}

func fileWrite(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	return writeFile("file.write", args, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
}

func fileAppend(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	return writeFile("file.append", args, os.O_WRONLY|os.O_CREATE|os.O_APPEND)
}

func writeFile(name string, args []value.Value, flag int) value.Value {
	path, errv := argString(name, args, 0)
	if errv != nil {
		return errv
	}
	if len(args) < 2 {
		return value.NewArgumentError("%s() missing argument 2", name)
	}
	var data []byte
	switch v := args[1].(type) {
	case *value.String:
		data = []byte(v.Value)
	case *value.Bytes:
		data = v.Value
	default:
		return value.NewTypeError("%s() argument 2 must be a string or bytes, got %s",
			name, value.TypeName(args[1]))
	}

	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return value.NewNativeError("%s: %v", name, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return value.NewNativeError("%s: %v", name, err)
	}
	return value.None
}

func fileExists(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	path, errv := argString("file.exists", args, 0)
	if errv != nil {
		return errv
	}
	if _, err := os.Stat(path); err != nil {
		return value.False
	}
	return value.True
}

func fileList(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	path, errv := argString("file.list", args, 0)
	if errv != nil {
		return errv
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return value.NewNativeError("file.list: %v", err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)
	out := &value.List{Elements: make([]value.Value, len(names))}
	for i, n := range names {
		out.Elements[i] = &value.String{Value: n}
	}
	return out
}

func fileRemove(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	path, errv := argString("file.remove", args, 0)
	if errv != nil {
		return errv
	}
	if err := os.Remove(path); err != nil {
		return value.NewNativeError("file.remove: %v", err)
	}
	return value.None
}

func fileMkdir(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	path, errv := argString("file.mkdir", args, 0)
	if errv != nil {
		return errv
	}
	if err := os.MkdirAll(filepath.Clean(path), 0o755); err != nil {
		return value.NewNativeError("file.mkdir: %v", err)
	}
	return value.None
}
