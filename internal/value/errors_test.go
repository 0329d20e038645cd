package value

import (
	"strings"
	"testing"
)

func TestErrorInspectPrintsFramesOutermostLast(t *testing.T) {
	err := NewTypeError("unsupported operand")
	err.PushFrame("inner", "lib.bp", 4)
	err.PushFrame("outer", "main.bp", 12)

	got := err.Inspect()
	if !strings.HasPrefix(got, "TypeError: unsupported operand") {
		t.Fatalf("wrong header: %q", got)
	}
	outerIdx := strings.Index(got, "outer")
	innerIdx := strings.Index(got, "inner")
	if outerIdx < 0 || innerIdx < 0 {
		t.Fatalf("frames missing: %q", got)
	}
	if outerIdx > innerIdx {
		t.Errorf("outermost frame should print first:\n%s", got)
	}
}

func TestErrorImplementsGoError(t *testing.T) {
	var err error = NewValueError("division by zero")
	if err.Error() != "ValueError: division by zero" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIsError(t *testing.T) {
	if !IsError(NewNameError("x is not defined")) {
		t.Errorf("IsError missed an error value")
	}
	if IsError(None) || IsError(nil) {
		t.Errorf("IsError flagged a non-error")
	}
}
