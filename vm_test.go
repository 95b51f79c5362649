package minilisp

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func run(t *testing.T, vm *VirtualMachine, src string) Value {
	t.Helper()
	v, err := vm.EvalString(src)
	if err != nil {
		t.Fatal(src, err)
	}
	return v
}

func TestArithmeticPromotion(t *testing.T) {
	vm := New()
	if v := run(t, vm, "(+ 1 2)"); v.Type() != UINT || v.Uint() != 3 {
		t.Fatal(v.GoString())
	}
	if _, err := vm.EvalString("(+ 1.0 2)"); !errors.Is(err, ErrType) {
		t.Fatal("float first must reject an integer", err)
	}
	if v := run(t, vm, "(+ 1 2 3)"); !v.Equal(Uint(6)) {
		t.Fatal(v)
	}
}

func TestDefunScoping(t *testing.T) {
	vm := New()
	run(t, vm, "(defun sum (a b) (+ a b))")
	if v := run(t, vm, "(sum 1 1)"); !v.Equal(Uint(2)) {
		t.Fatal(v.GoString())
	}
	g := vm.Symbols().Globals()
	if _, ok := g["a"]; ok {
		t.Fatal("parameter a leaked")
	}
	if _, ok := g["b"]; ok {
		t.Fatal("parameter b leaked")
	}
	if v := run(t, vm, "a"); !v.Equal(Sym("a")) {
		t.Fatal(v)
	}
}

func TestSetqVisibility(t *testing.T) {
	vm := New()
	run(t, vm, "(setq x 5)")
	if v := run(t, vm, "x"); !v.Equal(Uint(5)) {
		t.Fatal(v)
	}

	// writes made inside a call reach the top level
	run(t, vm, "(defun setter () (setq w 7))")
	run(t, vm, "(setter)")
	if v := run(t, vm, "w"); !v.Equal(Uint(7)) {
		t.Fatal(v)
	}
}

func TestUnboundSymbol(t *testing.T) {
	vm := New()
	if v := run(t, vm, "foo"); v.Type() != SYM || v.Text() != "foo" {
		t.Fatal(v.GoString())
	}
	if _, ok := vm.Symbols().Globals()["foo"]; ok {
		t.Fatal("foo must not become a global")
	}
}

func TestConsScenario(t *testing.T) {
	vm := New()
	form, err := Parse(`(cons "a" "b")`)
	if err != nil {
		t.Fatal(err)
	}
	v, err := vm.Eval(form)
	if err != nil {
		t.Fatal(err)
	}
	vs := v.Values()
	if v.Type() != LIST || len(vs) != 2 || vs[0].Text() != "a" || vs[1].Text() != "b" {
		t.Fatal(v)
	}
}

func TestEvalList(t *testing.T) {
	vm := New()
	run(t, vm, "(setq v 1)")
	for src, want := range map[string]string{
		"(v (+ 1 1))":       "(1 2)",
		"(1 (+ 1 1) \"s\")": `(1 2 "s")`,
		"('v 2)":            "('v 2)",
		"()":                "nil",
		"'(a (+ 1 1))":      "'(a (+ 1 1))",
		"'(car '(1 2))":     "'(car '(1 2))",
		"(t)":               "t",
		"t":                 "t",
		"(1 t)":             "(1 t)",
	} {
		if v := run(t, vm, src); v.String() != want {
			t.Fatal(src, v, want)
		}
	}
	l, _ := Parse("(car '(1 2))")
	if v, err := vm.EvalList(l); err != nil || !v.Equal(Uint(1)) {
		t.Fatal(v, err)
	}

	// quoted lists and atoms come back untouched
	q, _ := Parse("'(+ 1 2)")
	for _, in := range []Value{q, Uint(7), Str("s"), QuotedSym("car"), EmptyQuotedList} {
		v, err := vm.EvalList(in)
		if err != nil || !v.Equal(in) || v.Type() != in.Type() {
			t.Fatal(in, "=>", v.GoString(), err)
		}
	}
	if v, err := vm.Eval(q); err != nil || v.String() != "'(+ 1 2)" {
		t.Fatal(v, err)
	}
	if v, err := vm.EvalList(EmptyList); err != nil || !v.IsNil() {
		t.Fatal(v, err)
	}
}

func TestFunctionSymbolResolution(t *testing.T) {
	vm := New(WithBuiltin("answer", func(s *State) (Value, error) {
		s.Expect(0)
		return Uint(42), nil
	}))
	if v := run(t, vm, "answer"); !v.Equal(Uint(42)) {
		t.Fatal(v)
	}
	if v := run(t, vm, "(list answer (answer))"); v.String() != "(42 42)" {
		t.Fatal(v)
	}
}

func TestLocalsDoNotLeak(t *testing.T) {
	vm := New()
	run(t, vm, "(defun inner (q) q)")
	run(t, vm, "(defun outer (p) (inner p) q)")
	if v := run(t, vm, "(outer 1)"); !v.Equal(Sym("q")) {
		t.Fatal("callee locals leaked into the caller", v)
	}

	// a callee frame sits on top of its caller
	run(t, vm, "(defun peek () p)")
	run(t, vm, "(defun outer2 (p) (peek))")
	if v := run(t, vm, "(outer2 3)"); !v.Equal(Uint(3)) {
		t.Fatal(v)
	}
}

func TestFailedEvalMergesNothing(t *testing.T) {
	vm := New()
	if _, err := vm.EvalString("(list (setq z 1) (nope))"); !errors.Is(err, ErrUnbound) {
		t.Fatal(err)
	}
	if v := run(t, vm, "z"); !v.Equal(Sym("z")) {
		t.Fatal("partial writes of a failed evaluation were merged", v)
	}

	// forms before the failing one are already merged
	if _, err := vm.EvalString("(setq y 1) (nope)"); err == nil {
		t.Fatal("expect error")
	}
	if v := run(t, vm, "y"); !v.Equal(Uint(1)) {
		t.Fatal(v)
	}
}

func TestErrors(t *testing.T) {
	vm := New()
	for src, kind := range map[string]ErrorKind{
		"(nope 1)":                   ErrUnbound,
		"(setq x)":                   ErrForm,
		"(setq 1 2)":                 ErrType,
		"(defun f (a) a) (f 1 2)":    ErrArity,
		"(defun f2 (a) a) (f2)":      ErrArity,
		"(defun 1 (a) a)":            ErrType,
		"(defun f3 (1) 1)":           ErrType,
		"(defun f4 a)":               ErrType,
		"(car 1 2)":                  ErrArity,
		"car":                        ErrArity,
		"(quote 'a)":                 ErrPrecondition,
		"(unquote (list 1))":         ErrPrecondition,
		"(- 1 2)":                    ErrArithmetic,
		"(/ 1 0)":                    ErrArithmetic,
		"(+ 18446744073709551615 1)": ErrArithmetic,
		"(+ 1)":                      ErrArity,
		"(+ 1 \"a\")":                ErrType,
		"(+ -1 2)":                   ErrType,
		"(+ 'a 1)":                   ErrType,
	} {
		_, err := vm.EvalString(src)
		if !errors.Is(err, kind) {
			t.Fatal(src, "expect", kind, "got", err)
		}
	}
}

func TestErrorChain(t *testing.T) {
	vm := New()
	_, err := vm.EvalString("(defun g (a) (+ a \"x\"))\n(g 1)")
	var re *RuntimeError
	if !errors.As(err, &re) || re.Kind != ErrCall {
		t.Fatal(err)
	}
	if !errors.Is(err, ErrType) {
		t.Fatal("inner cause lost", err)
	}
	if !strings.HasPrefix(err.Error(), "failed to evaluate function g: ") {
		t.Fatal(err)
	}
	tr := re.Trace()
	log.Println(tr)
	if !strings.Contains(tr, "in g:2") || !strings.Contains(tr, "caused by: ") || !strings.Contains(tr, "in +:1") {
		t.Fatal(tr)
	}

	_, err = vm.EvalString("(nope)")
	if !errors.As(err, &re) || re.Callers[0] != "nope:1" || re.Frame.String() == "" {
		t.Fatal(err)
	}
}

func TestDepthLimit(t *testing.T) {
	vm := New(WithMaxDepth(64))
	run(t, vm, "(defun loop (n) (loop n))")
	if _, err := vm.EvalString("(loop 1)"); !errors.Is(err, ErrDepth) {
		t.Fatal(err)
	}
	// the machine is still usable afterwards
	if v := run(t, vm, "(+ 1 1)"); !v.Equal(Uint(2)) {
		t.Fatal(v)
	}
	if vm.depth != 0 {
		t.Fatal("depth not restored", vm.depth)
	}
}

func TestTrace(t *testing.T) {
	buf := &bytes.Buffer{}
	vm := New(WithTrace(log.New(buf, "", 0)))
	run(t, vm, "(car '(1))")
	if !strings.Contains(buf.String(), "] call #<builtin car> ('(1))") {
		t.Fatal(buf.String())
	}

	// frames of a defun call are indented below their caller
	buf.Reset()
	run(t, vm, "(defun one (x) (car x))")
	run(t, vm, "(one '(2))")
	if !strings.Contains(buf.String(), "]   call #<builtin car> (x)") {
		t.Fatal(buf.String())
	}
}

func TestFrameID(t *testing.T) {
	vm := New()
	ctx := &Context{vm: vm, symbols: vm.symbols.Fork()}
	if ctx.id != uuid.Nil {
		t.Fatal("frame id assigned eagerly")
	}
	inner := ctx.push()
	if inner.Level() != 1 || inner.push().Level() != 2 || ctx.Level() != 0 {
		t.Fatal(inner.Level())
	}
	if id := inner.ID(); id == uuid.Nil || id != inner.ID() || id == ctx.ID() {
		t.Fatal("frame id not stable", id)
	}

	run(t, vm, "(defun bad () (nope))")
	_, err := vm.EvalString("(bad)")
	var re *RuntimeError
	if !errors.As(err, &re) || re.Frame == uuid.Nil {
		t.Fatal(err)
	}
	var cause *RuntimeError
	if !errors.As(re.Cause, &cause) || cause.Frame == uuid.Nil || cause.Frame != re.Frame {
		t.Fatal("unbound error carries the callee frame", re.Trace())
	}
}

func TestSymbolsSnapshot(t *testing.T) {
	vm := New()
	run(t, vm, "(setq k 1)")
	s := vm.Symbols()
	s.SetGlobal(Symbol{Name: "k"}, Bind(Uint(2)))
	if v := run(t, vm, "k"); !v.Equal(Uint(1)) {
		t.Fatal("snapshot is independent", v)
	}
	names := strings.Join(s.Names(), " ")
	for _, n := range Builtins() {
		if !strings.Contains(names, n) {
			t.Fatal(n, names)
		}
	}
}

func BenchmarkEval(b *testing.B) {
	vm := New()
	vm.EvalString("(defun sum (a b) (+ a b))")
	for i := 0; i < b.N; i++ {
		vm.EvalString("(sum (sum 1 2) (sum 3 4))")
	}
}
