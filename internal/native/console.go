package native

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/alexchoi0/blueprint-engine/internal/value"
)

var stdin = bufio.NewReader(os.Stdin)

func consoleFns() []*Fn {
	return []*Fn{
		{Name: "write", Call: consoleWrite},
		{Name: "error", Call: consoleError},
		{Name: "read_line", Call: consoleReadLine},
		{Name: "redact", Call: consoleRedact},
	}
}

// consoleRedact replaces each secret given after the first argument with
// asterisks, so values like tokens can be logged safely.
func consoleRedact(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	text, errv := argString("console.redact", args, 0)
	if errv != nil {
		return errv
	}
	for i, a := range args[1:] {
		secret, ok := a.(*value.String)
		if !ok {
			return value.NewTypeError("console.redact() argument %d must be a string, got %s",
				i+2, value.TypeName(a))
		}
		if secret.Value == "" {
			continue
		}
		text = strings.ReplaceAll(text, secret.Value, "***")
	}
	return &value.String{Value: text}
}

func consoleWrite(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	for _, a := range args {
		fmt.Fprint(os.Stdout, value.Str(a))
	}
	return value.None
}

func consoleError(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	for _, a := range args {
		fmt.Fprint(os.Stderr, value.Str(a))
	}
	return value.None
}

// consoleReadLine blocks on stdin; the caller's worker slot is already
// released by the dispatch path, so a waiting read stalls only its task.
func consoleReadLine(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return value.None
	}
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	return &value.String{Value: line}
}
