package minilisp

import "strings"

// NativeFunc implements a builtin. It receives the unevaluated arguments in
// s and decides itself which of them to evaluate.
type NativeFunc func(s *State) (Value, error)

type (
	Function struct {
		Name   string
		Params []Symbol // defun only
		Body   []Value  // defun only
		native NativeFunc
	}
	State struct {
		*Context
		assertable
		Caller Symbol
		Args   Value
		argv   []Value
		argIdx int
	}
)

func Builtin(name string, f NativeFunc) *Function { return &Function{Name: name, native: f} }

func Defun(name string, params []Symbol, body []Value) *Function {
	return &Function{Name: name, Params: params, Body: body}
}

func (f *Function) IsBuiltin() bool { return f.native != nil }

func (f *Function) String() string {
	if f.native != nil {
		return "#<builtin " + f.Name + ">"
	}
	p := make([]string, len(f.Params))
	for i, s := range f.Params {
		p[i] = s.Name
	}
	return "#<defun " + f.Name + " (" + strings.Join(p, " ") + ")>"
}

// Call invokes f from ctx with the raw argument list args, Nil when there are
// no arguments.
func (f *Function) Call(ctx *Context, caller Symbol, args Value) (Value, error) {
	if f.native != nil {
		return f.callNative(ctx, caller, args)
	}
	return f.callDefun(ctx, caller, args)
}

func (f *Function) callNative(ctx *Context, caller Symbol, args Value) (res Value, err error) {
	s := &State{Context: ctx, Caller: caller, Args: args, argv: args.Values()}
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			res, err = Nil, e
		}
		if re, ok := err.(*RuntimeError); ok {
			re.Callers = append(re.Callers, caller.site())
		}
	}()
	ctx.tracef("call %s %v", f, args)
	return f.native(s)
}

func (f *Function) callDefun(ctx *Context, caller Symbol, args Value) (Value, error) {
	argv := args.Values()
	if len(argv) != len(f.Params) {
		e := runtimeErrorf(ErrArity, "%s expected %d args but received %d", f.Name, len(f.Params), len(argv))
		e.Callers = []string{caller.site()}
		return Nil, e
	}
	frame := ctx.push()
	for i, p := range f.Params {
		v, err := ctx.Eval(argv[i])
		if err != nil {
			return Nil, err
		}
		frame.symbols.SetLocal(p, Bind(v))
	}
	ctx.tracef("call %s %v", f, args)

	res := Nil
	for _, form := range f.Body {
		var err error
		if res, err = frame.Eval(form); err != nil {
			return Nil, &RuntimeError{
				Kind:    ErrCall,
				Message: "failed to evaluate function " + f.Name,
				Frame:   frame.ID(),
				Callers: []string{caller.site()},
				Cause:   err,
			}
		}
	}
	ctx.symbols.Extend(frame.symbols)
	return res, nil
}

// Len is the number of arguments passed
func (s *State) Len() int { return len(s.argv) }

// More reports whether arguments are left to pop
func (s *State) More() bool { return s.argIdx < len(s.argv) }

// In pops the next argument unevaluated
func (s *State) In() Value {
	s.assert(s.More() || s.panic(ErrArity, "%s: too few arguments, expect at least %d", s.Caller.Name, s.argIdx+1))
	v := s.argv[s.argIdx]
	s.argIdx++
	return v
}

// EvalIn pops the next argument and evaluates it in the calling frame
func (s *State) EvalIn() Value { return s.Must(s.Eval(s.In())) }

// Must unwraps the result of an evaluation, a failure aborts the builtin
func (s *State) Must(v Value, err error) Value {
	if err != nil {
		panic(err)
	}
	return v
}

// Expect checks the exact number of arguments
func (s *State) Expect(n int) {
	s.assert(len(s.argv) == n || s.panic(ErrArity, "%s expected %d args but received %d", s.Caller.Name, n, len(s.argv)))
}

func (s *State) AtLeast(n int) {
	s.assert(len(s.argv) >= n || s.panic(ErrArity, "%s expected at least %d args but received %d", s.Caller.Name, n, len(s.argv)))
}

// Symbol pops an argument that must be a symbol
func (s *State) Symbol() Symbol {
	v := s.In()
	s.assert(v.typ == SYM || v.typ == QSYM || s.panic(ErrType, "%s: invalid argument #%d, expect symbol, got %v", s.Caller.Name, s.argIdx, v))
	return v.Symbol()
}
