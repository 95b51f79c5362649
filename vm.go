package minilisp

import (
	"io"
	"log"
	"os"
)

var DefaultStdout io.Writer = os.Stdout

const DefaultMaxDepth = 10000

// VirtualMachine owns the persistent global table. Every top level evaluation
// runs in a fresh Context whose global writes are merged back on success.
// A VirtualMachine must not be used from several goroutines at once.
type VirtualMachine struct {
	Stdout   io.Writer
	MaxDepth int

	symbols *SymbolTable
	stack   []*Context
	depth   int
	trace   *log.Logger
}

type Option func(*VirtualMachine)

func WithStdout(w io.Writer) Option  { return func(vm *VirtualMachine) { vm.Stdout = w } }
func WithMaxDepth(n int) Option      { return func(vm *VirtualMachine) { vm.MaxDepth = n } }
func WithTrace(l *log.Logger) Option { return func(vm *VirtualMachine) { vm.trace = l } }

func WithBuiltin(name string, f NativeFunc) Option {
	return func(vm *VirtualMachine) { vm.Register(name, f) }
}

// New creates a VirtualMachine with the default builtins bound. Tracing is
// enabled with MINILISP_TRACE=1.
func New(opts ...Option) *VirtualMachine {
	vm := &VirtualMachine{
		Stdout:   DefaultStdout,
		MaxDepth: DefaultMaxDepth,
		symbols:  Default.Copy(),
	}
	if os.Getenv("MINILISP_TRACE") != "" {
		vm.trace = log.New(os.Stderr, "minilisp ", log.Lmicroseconds)
	}
	for _, o := range opts {
		o(vm)
	}
	return vm
}

func (vm *VirtualMachine) Register(name string, f NativeFunc) {
	vm.symbols.SetGlobal(Symbol{Name: name}, BindFunc(Builtin(name, f)))
}

// Symbols returns a snapshot of the global table.
func (vm *VirtualMachine) Symbols() *SymbolTable { return vm.symbols.Copy() }

func (vm *VirtualMachine) Eval(v Value) (Value, error) {
	return vm.run(func(ctx *Context) (Value, error) { return ctx.Eval(v) })
}

func (vm *VirtualMachine) EvalList(v Value) (Value, error) {
	return vm.run(func(ctx *Context) (Value, error) { return ctx.EvalList(v) })
}

// EvalString reads every form in src and evaluates them in order as separate
// top level evaluations, returning the value of the last one.
func (vm *VirtualMachine) EvalString(src string) (Value, error) {
	forms, err := ParseAll(src)
	if err != nil {
		return Nil, err
	}
	res := Nil
	for _, form := range forms {
		if res, err = vm.Eval(form); err != nil {
			return Nil, err
		}
	}
	return res, nil
}

func (vm *VirtualMachine) run(f func(*Context) (Value, error)) (res Value, err error) {
	ctx := &Context{vm: vm, symbols: vm.symbols.Fork()}
	vm.stack = append(vm.stack, ctx)
	defer func() {
		vm.stack = vm.stack[:len(vm.stack)-1]
		if len(vm.stack) == 0 {
			vm.depth = 0
		}
	}()
	defer debugCatch(ctx, &err)

	if res, err = f(ctx); err != nil {
		ctx.tracef("error: %v", err)
		return Nil, err
	}
	vm.symbols.Extend(ctx.symbols)
	return res, nil
}
