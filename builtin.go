package minilisp

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strings"
)

// Default holds the builtins every new VirtualMachine starts with.
var Default = NewSymbolTable()

func install(name string, f NativeFunc) {
	Default.SetGlobal(Symbol{Name: name}, BindFunc(Builtin(name, f)))
}

// Builtins lists the names of the default builtins
func Builtins() []string {
	var names []string
	for k, b := range Default.Globals() {
		if b.IsFunc() {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func init() {
	install("t", func(s *State) (Value, error) { return T, nil })
	install("setq", func(s *State) (Value, error) {
		s.assert(s.Len()%2 == 0 || s.panic(ErrForm, "setq: odd number of arguments"))
		res := Nil
		for s.More() {
			sym := s.Symbol()
			res = s.SetGlobal(sym, Bind(s.EvalIn()))
		}
		return res, nil
	})
	install("defun", func(s *State) (Value, error) {
		s.AtLeast(2)
		name := s.Symbol()
		params := s.In()
		s.assert(params.IsList() || s.panic(ErrType, "defun %s: parameters must be a list, got %v", name.Name, params))
		var syms []Symbol
		for _, p := range params.Values() {
			s.assert(p.typ == SYM || s.panic(ErrType, "defun %s: parameter %v is not a symbol", name.Name, p))
			syms = append(syms, p.Symbol())
		}
		body := s.argv[s.argIdx:]
		return s.SetGlobal(name, BindFunc(Defun(name.Name, syms, body))), nil
	})
	install("car", func(s *State) (Value, error) {
		s.Expect(1)
		return Car(s.EvalIn()), nil
	})
	install("cdr", func(s *State) (Value, error) {
		s.Expect(1)
		return Cdr(s.EvalIn()), nil
	})
	install("cons", func(s *State) (Value, error) {
		s.Expect(2)
		return Cons(s.EvalIn(), s.EvalIn()), nil
	})
	install("list", func(s *State) (Value, error) {
		return MakeList(s.evalRest()), nil
	})
	install("append", func(s *State) (Value, error) {
		return Append(s.evalRest()...), nil
	})
	install("quote", func(s *State) (Value, error) {
		s.Expect(1)
		v := s.In()
		s.assert(!v.IsQuoted() || s.panic(ErrPrecondition, "quote: %v is already quoted", v))
		return v.Quote(), nil
	})
	install("unquote", func(s *State) (Value, error) {
		s.Expect(1)
		return s.EvalIn().Unquote(), nil
	})
	install("backquote", func(s *State) (Value, error) {
		s.Expect(1)
		v, splice := s.quasi(s.In())
		s.assert(splice == nil || s.panic(ErrForm, "unquote-splicing outside of a list"))
		if v.Quotable() && !v.IsQuoted() {
			v = v.Quote()
		}
		return v, nil
	})
	install("print", func(s *State) (Value, error) {
		args := s.evalRest()
		p := make([]string, len(args))
		for i, v := range args {
			if p[i] = v.String(); v.typ == TEXT {
				p[i] = v.text
			}
		}
		line := strings.Join(p, " ")
		fmt.Fprintln(s.vm.Stdout, line)
		return Str(line), nil
	})
	for _, op := range "+-*/" {
		install(string(op), arith(byte(op)))
	}
}

func (s *State) evalRest() (res []Value) {
	for s.More() {
		res = append(res, s.EvalIn())
	}
	return res
}

// quasi walks a backquoted form. (unquote x) is replaced by the value of x,
// the list value of (unquote-splicing x) is returned in splice for the
// enclosing list to inline.
func (s *State) quasi(expr Value) (v Value, splice []Value) {
	if expr.typ != LIST && expr.typ != QLIST {
		return expr, nil
	}
	if head := Car(expr); head.typ == SYM {
		switch head.text {
		case "unquote":
			s.assert(expr.Len() == 2 || s.panic(ErrForm, "invalid unquote syntax"))
			return s.Must(s.Eval(Car(Cdr(expr)))), nil
		case "unquote-splicing":
			s.assert(expr.Len() == 2 || s.panic(ErrForm, "invalid unquote-splicing syntax"))
			v := s.Must(s.Eval(Car(Cdr(expr))))
			if v.IsNil() || v.IsList() {
				return Nil, append([]Value{}, v.Values()...)
			}
			return Nil, []Value{v}
		}
	}
	c := NilCell()
	c.quoted = expr.typ == QLIST
	for _, e := range expr.Values() {
		if v, sp := s.quasi(e); sp != nil {
			for _, v := range sp {
				c.Push(v)
			}
		} else {
			c.Push(v)
		}
	}
	return List(c), nil
}

// arith folds the operands left to right. The first operand fixes the kind,
// a byte counts as an unsigned integer, and every later operand must be of
// that same kind.
func arith(op byte) NativeFunc {
	return func(s *State) (Value, error) {
		s.AtLeast(2)
		acc := s.operand(Nil)
		for s.More() {
			acc = s.fold(op, acc, s.operand(acc))
		}
		return acc, nil
	}
}

func (s *State) operand(acc Value) Value {
	v := s.In()
	if v.typ == SYM || v.typ == LIST {
		v = s.Must(s.Eval(v))
	}
	if v.typ == BYTE {
		v = Uint(v.num)
	}
	s.assert(v.typ == UINT || v.typ == INT || v.typ == FLOAT ||
		s.panic(ErrType, "%s called with unexpected, non-numerical value %v", s.Caller.Name, v))
	s.assert(acc.typ == NIL || acc.typ == v.typ ||
		s.panic(ErrType, "%s called with unexpected value %v, expect %s", s.Caller.Name, v, Types[acc.typ]))
	return v
}

func (s *State) fold(op byte, a, b Value) Value {
	switch a.typ {
	case UINT:
		x, y := a.num, b.num
		switch op {
		case '+':
			r, carry := bits.Add64(x, y, 0)
			s.assert(carry == 0 || s.panic(ErrArithmetic, "%d + %d overflows", x, y))
			return Uint(r)
		case '-':
			r, borrow := bits.Sub64(x, y, 0)
			s.assert(borrow == 0 || s.panic(ErrArithmetic, "%d - %d underflows", x, y))
			return Uint(r)
		case '*':
			hi, lo := bits.Mul64(x, y)
			s.assert(hi == 0 || s.panic(ErrArithmetic, "%d * %d overflows", x, y))
			return Uint(lo)
		default:
			s.assert(y != 0 || s.panic(ErrArithmetic, "division by zero"))
			return Uint(x / y)
		}
	case INT:
		x, y := a.Int(), b.Int()
		switch op {
		case '+':
			r := x + y
			s.assert((r > x) == (y > 0) || s.panic(ErrArithmetic, "%d + %d overflows", x, y))
			return Int(r)
		case '-':
			r := x - y
			s.assert((r < x) == (y > 0) || s.panic(ErrArithmetic, "%d - %d overflows", x, y))
			return Int(r)
		case '*':
			r := x * y
			s.assert(x == 0 || (r/x == y && !(x == -1 && y == math.MinInt64)) || s.panic(ErrArithmetic, "%d * %d overflows", x, y))
			return Int(r)
		default:
			s.assert(y != 0 || s.panic(ErrArithmetic, "division by zero"))
			s.assert(x != math.MinInt64 || y != -1 || s.panic(ErrArithmetic, "%d / %d overflows", x, y))
			return Int(x / y)
		}
	}
	x, y := a.Float(), b.Float()
	switch op {
	case '+':
		return Float(x + y)
	case '-':
		return Float(x - y)
	case '*':
		return Float(x * y)
	}
	return Float(x / y)
}
