package minilisp

import (
	"strings"

	"github.com/google/uuid"
)

// Context is one evaluation frame. It owns a fork of its parent's symbol
// table, global writes reach the parent only through Extend.
type Context struct {
	vm      *VirtualMachine
	parent  *Context
	symbols *SymbolTable
	id      uuid.UUID
}

func (ctx *Context) push() *Context {
	return &Context{vm: ctx.vm, parent: ctx, symbols: ctx.symbols.Fork()}
}

// ID identifies the frame in traces and errors. It is assigned on first use.
func (ctx *Context) ID() uuid.UUID {
	if ctx.id == uuid.Nil {
		ctx.id = uuid.New()
	}
	return ctx.id
}

// Level is the number of call frames below ctx, 0 for a top level Context.
func (ctx *Context) Level() (n int) {
	for p := ctx.parent; p != nil; p = p.parent {
		n++
	}
	return n
}

func (ctx *Context) Symbols() *SymbolTable { return ctx.symbols }
func (ctx *Context) VM() *VirtualMachine   { return ctx.vm }

// Eval evaluates v: quoted data and self-evaluating atoms come back as they
// are, symbols are resolved and lists are applied.
func (ctx *Context) Eval(v Value) (Value, error) {
	if v.IsQuoted() {
		return v, nil
	}
	switch v.typ {
	case SYM:
		if err := ctx.enter(); err != nil {
			return Nil, err
		}
		defer ctx.leave()
		return ctx.resolve(v.Symbol())
	case LIST, EMPTY:
		return ctx.EvalList(v)
	}
	return v, nil
}

// resolve returns the value bound to sym, a function bound to sym is called
// without arguments.
func (ctx *Context) resolve(sym Symbol) (Value, error) {
	b := ctx.symbols.Get(sym)
	if b.fn == nil {
		return b.value, nil
	}
	return b.fn.Call(ctx, sym, Nil)
}

// EvalList applies a list. A head symbol bound to a function receives the
// raw tail, a list headed by anything else has every element evaluated.
// Quoted values and atoms are returned as they are.
func (ctx *Context) EvalList(v Value) (Value, error) {
	if v.IsQuoted() || !v.IsList() {
		return v, nil
	}
	head, ok := v.cell.Head()
	if !ok {
		return Nil, nil
	}
	if err := ctx.enter(); err != nil {
		return Nil, err
	}
	defer ctx.leave()

	if head.typ == SYM {
		sym := head.Symbol()
		b, bound := ctx.symbols.Lookup(sym)
		if !bound {
			e := runtimeErrorf(ErrUnbound, "unbound function %s", sym.Name)
			e.Callers, e.Frame = []string{sym.site()}, ctx.ID()
			return Nil, e
		}
		if b.fn != nil {
			return b.fn.Call(ctx, sym, Cdr(v))
		}
	}

	c := NilCell()
	var err error
	v.cell.Foreach(func(e Value) bool {
		if e, err = ctx.Eval(e); err == nil {
			c.Push(e)
		}
		return err == nil
	})
	if err != nil {
		return Nil, err
	}
	return List(c), nil
}

// SetGlobal binds sym in this frame's global scope, visible to the caller once
// the frame is merged back.
func (ctx *Context) SetGlobal(sym Symbol, b Binding) Value {
	ctx.tracef("set %s", sym.Name)
	return ctx.symbols.SetGlobal(sym, b)
}

func (ctx *Context) enter() error {
	vm := ctx.vm
	if vm.depth++; vm.MaxDepth > 0 && vm.depth > vm.MaxDepth {
		vm.depth--
		return &RuntimeError{Kind: ErrDepth, Message: "maximum evaluation depth exceeded", Frame: ctx.ID()}
	}
	return nil
}

func (ctx *Context) leave() { ctx.vm.depth-- }

func (ctx *Context) tracef(t string, a ...interface{}) {
	if ctx.vm.trace != nil {
		pad := strings.Repeat("  ", ctx.Level())
		ctx.vm.trace.Printf("[%s] "+pad+t, append([]interface{}{ctx.ID().String()[:8]}, a...)...)
	}
}
