package native

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/alexchoi0/blueprint-engine/internal/value"
)

func processFns() []*Fn {
	return []*Fn{
		{Name: "run", Call: processRun},
		{Name: "env", Call: processEnv},
		{Name: "argv", Call: processArgv},
		{Name: "cwd", Call: processCwd},
	}
}

// processRun executes a command and waits for it. Positional: command plus
// arguments. Keywords: stdin, timeout_secs.
func processRun(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	if len(args) == 0 {
		return value.NewArgumentError("process.run() requires a command")
	}
	argv := make([]string, len(args))
	for i, a := range args {
		s, ok := a.(*value.String)
		if !ok {
			return value.NewTypeError("process.run() arguments must be strings, got %s",
				value.TypeName(a))
		}
		argv[i] = s.Value
	}

	timeout := time.Duration(ctx.Config.ProcessTimeoutSecs) * time.Second
	if t, ok := kwargs["timeout_secs"]; ok {
		n, ok := t.(*value.Int)
		if !ok {
			return value.NewTypeError("process.run() timeout_secs must be an int, got %s",
				value.TypeName(t))
		}
		timeout = time.Duration(n.Value) * time.Second
	}

	runCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	if stdin, ok := kwargs["stdin"]; ok {
		s, ok := stdin.(*value.String)
		if !ok {
			return value.NewTypeError("process.run() stdin must be a string, got %s",
				value.TypeName(stdin))
		}
		cmd.Stdin = bytes.NewReader([]byte(s.Value))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return value.NewTimeoutError("process.run: %s timed out after %s", argv[0], timeout)
	}

	code := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return value.NewNativeError("process.run: %v", err)
		}
		code = exitErr.ExitCode()
	}

	out := value.NewDict()
	out.Set(&value.String{Value: "code"}, &value.Int{Value: int64(code)})
	out.Set(&value.String{Value: "stdout"}, &value.String{Value: stdout.String()})
	out.Set(&value.String{Value: "stderr"}, &value.String{Value: stderr.String()})
	return out
}

func processEnv(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	name, errv := argString("process.env", args, 0)
	if errv != nil {
		return errv
	}
	v, ok := os.LookupEnv(name)
	if !ok {
		if len(args) > 1 {
			return args[1]
		}
		return value.None
	}
	return &value.String{Value: v}
}

func processArgv(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	out := &value.List{Elements: make([]value.Value, len(ctx.Config.Args))}
	for i, a := range ctx.Config.Args {
		out.Elements[i] = &value.String{Value: a}
	}
	return out
}

func processCwd(ctx *Context, args []value.Value, kwargs map[string]value.Value) value.Value {
	dir, err := os.Getwd()
	if err != nil {
		return value.NewNativeError("process.cwd: %v", err)
	}
	return &value.String{Value: dir}
}
