package value

import (
	"bytes"
	"fmt"
)

// ErrKind classifies language-level failures. Errors propagate in-band as
// values; the evaluator stops unwinding only at task and module boundaries.
type ErrKind string

const (
	NameError     ErrKind = "NameError"
	TypeError     ErrKind = "TypeError"
	ArgumentError ErrKind = "ArgumentError"
	ValueError    ErrKind = "ValueError"
	NativeError   ErrKind = "NativeError"
	UserFail      ErrKind = "UserFail"
	TimeoutError  ErrKind = "TimeoutError"
)

type Frame struct {
	Function string
	File     string
	Line     int
}

type Error struct {
	ErrKind ErrKind
	Message string
	Frames  []Frame
}

func (e *Error) Kind() Kind { return ERROR_VALUE }

func (e *Error) Inspect() string {
	var out bytes.Buffer
	fmt.Fprintf(&out, "%s: %s", e.ErrKind, e.Message)
	for i := len(e.Frames) - 1; i >= 0; i-- {
		f := e.Frames[i]
		fmt.Fprintf(&out, "\n  at %s (%s:%d)", f.Function, f.File, f.Line)
	}
	return out.String()
}

// Error implements the Go error interface so native bindings can hand
// language errors across package boundaries without wrapping.
func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.ErrKind, e.Message) }

// PushFrame records a call-stack frame during unwinding, outermost last.
func (e *Error) PushFrame(function, file string, line int) {
	e.Frames = append(e.Frames, Frame{Function: function, File: file, Line: line})
}

func NewError(kind ErrKind, format string, a ...interface{}) *Error {
	return &Error{ErrKind: kind, Message: fmt.Sprintf(format, a...)}
}

func NewNameError(format string, a ...interface{}) *Error {
	return NewError(NameError, format, a...)
}

func NewTypeError(format string, a ...interface{}) *Error {
	return NewError(TypeError, format, a...)
}

func NewArgumentError(format string, a ...interface{}) *Error {
	return NewError(ArgumentError, format, a...)
}

func NewValueError(format string, a ...interface{}) *Error {
	return NewError(ValueError, format, a...)
}

func NewNativeError(format string, a ...interface{}) *Error {
	return NewError(NativeError, format, a...)
}

func NewTimeoutError(format string, a ...interface{}) *Error {
	return NewError(TimeoutError, format, a...)
}

func IsError(v Value) bool {
	if v == nil {
		return false
	}
	_, ok := v.(*Error)
	return ok
}
