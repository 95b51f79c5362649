package minilisp

import (
	"bytes"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/google/uuid"
)

type ErrorKind int

const (
	ErrCall ErrorKind = iota
	ErrArity
	ErrUnbound
	ErrType
	ErrForm
	ErrArithmetic
	ErrDepth
	ErrPrecondition
)

var kindNames = map[ErrorKind]string{
	ErrCall:         "call failed",
	ErrArity:        "arity mismatch",
	ErrUnbound:      "unbound function",
	ErrType:         "type mismatch",
	ErrForm:         "malformed form",
	ErrArithmetic:   "arithmetic error",
	ErrDepth:        "recursion too deep",
	ErrPrecondition: "precondition violated",
}

// ErrorKind is itself an error so errors.Is(err, ErrArity) works on any chain.
func (k ErrorKind) Error() string { return kindNames[k] }

// RuntimeError is returned by every failed evaluation. Errors raised inside a
// called function are wrapped with an ErrCall error naming the function,
// Cause keeps the wrapped error.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Frame   uuid.UUID
	Callers []string
	Cause   error
}

func (e *RuntimeError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

func (e *RuntimeError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// Trace prints the chain one error per line together with its call sites.
func (e *RuntimeError) Trace() string {
	p := bytes.Buffer{}
	for err := error(e); err != nil; {
		re, ok := err.(*RuntimeError)
		if !ok {
			p.WriteString(err.Error())
			break
		}
		fmt.Fprintf(&p, "%s (%v)", re.Message, re.Kind)
		for _, c := range re.Callers {
			p.WriteString("\n\tin " + c)
		}
		if re.Frame != uuid.Nil {
			p.WriteString("\n\tframe " + re.Frame.String())
		}
		if err = re.Cause; err != nil {
			p.WriteString("\ncaused by: ")
		}
	}
	return p.String()
}

func runtimeErrorf(kind ErrorKind, t string, a ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(t, a...)}
}

func preconditionf(t string, a ...interface{}) *RuntimeError {
	return runtimeErrorf(ErrPrecondition, t, a...)
}

type Position struct{ Line, Column int }

type Span struct{ Start, End Position }

// ParseError is returned by the reader. Incomplete is set when the source
// ended inside a list or a string, more input may complete it.
type ParseError struct {
	Message    string
	Span       Span
	Incomplete bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %s at %d:%d-%d:%d", e.Message, e.Span.Start.Line, e.Span.Start.Column, e.Span.End.Line, e.Span.End.Column)
}

// IsIncomplete reports whether err is a ParseError caused by truncated input.
func IsIncomplete(err error) bool {
	pe, ok := err.(*ParseError)
	return ok && pe.Incomplete
}

type assertable struct{ err error }

func (e *assertable) assert(ok bool) *assertable {
	if !ok {
		panic(e.err)
	}
	return e
}

func (e *assertable) panic(kind ErrorKind, t string, a ...interface{}) bool {
	e.err = runtimeErrorf(kind, t, a...)
	return false
}

// debugCatch turns a panic escaping the evaluator into err. Set
// MINILISP_STACK to dump the Go stack as well.
func debugCatch(ctx *Context, err *error) {
	if r := recover(); r != nil {
		frame := ctx.ID()
		if os.Getenv("MINILISP_STACK") != "" {
			fmt.Fprintln(os.Stderr, string(debug.Stack()))
		}
		switch r := r.(type) {
		case *RuntimeError:
			if r.Frame == uuid.Nil {
				r.Frame = frame
			}
			*err = r
		case *ParseError:
			*err = r
		case error:
			*err = &RuntimeError{Kind: ErrCall, Message: "internal error", Frame: frame, Cause: r}
		default:
			*err = &RuntimeError{Kind: ErrCall, Message: fmt.Sprint(r), Frame: frame}
		}
	}
}
