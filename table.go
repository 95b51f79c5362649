package minilisp

import "sort"

// Binding is what a symbol is bound to: a plain value or a function.
type Binding struct {
	value Value
	fn    *Function
	auto  bool // declared by a failed lookup, holds the symbol itself
}

func Bind(v Value) Binding         { return Binding{value: v} }
func BindFunc(f *Function) Binding { return Binding{fn: f} }
func (b Binding) Func() *Function  { return b.fn }
func (b Binding) IsFunc() bool     { return b.fn != nil }

// Value returns the bound value, functions read back as their description.
func (b Binding) Value() Value {
	if b.fn != nil {
		return Str(b.fn.String())
	}
	return b.value
}

type scope struct {
	parent *scope
	vars   map[string]Binding
}

func (s *scope) find(k string) (Binding, bool) {
	for ; s != nil; s = s.parent {
		if b, ok := s.vars[k]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

func (s *scope) set(k string, b Binding) {
	if s.vars == nil {
		s.vars = make(map[string]Binding, 4)
	}
	s.vars[k] = b
}

func (s *scope) flatten(m map[string]Binding) {
	if s == nil {
		return
	}
	s.parent.flatten(m)
	for k, b := range s.vars {
		m[k] = b
	}
}

// SymbolTable holds the global and local tiers of bindings. Each tier is a
// stack of scopes: a frame created by Fork writes into its own top scopes
// and reads through to the scopes of the table it was forked from.
type SymbolTable struct {
	globals, locals *scope
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{globals: &scope{}, locals: &scope{}}
}

// Get looks sym up in the locals, then the globals. A symbol bound nowhere is
// declared as a local evaluating to itself, so Get never fails.
func (t *SymbolTable) Get(sym Symbol) Binding {
	local, lok := t.locals.find(sym.Name)
	if lok && !local.auto {
		return local
	}
	if b, ok := t.globals.find(sym.Name); ok {
		return b
	}
	if lok {
		return local
	}
	b := Binding{value: Sym(sym.Name), auto: true}
	t.locals.set(sym.Name, b)
	return b
}

// Lookup is Get without the implicit declaration.
func (t *SymbolTable) Lookup(sym Symbol) (Binding, bool) {
	if b, ok := t.locals.find(sym.Name); ok && !b.auto {
		return b, true
	}
	return t.globals.find(sym.Name)
}

func (t *SymbolTable) SetGlobal(sym Symbol, b Binding) Value {
	b.auto = false
	t.globals.set(sym.Name, b)
	return b.Value()
}

func (t *SymbolTable) SetLocal(sym Symbol, b Binding) Value {
	b.auto = false
	t.locals.set(sym.Name, b)
	return b.Value()
}

// Fork returns a frame whose fresh scopes sit on top of t.
func (t *SymbolTable) Fork() *SymbolTable {
	return &SymbolTable{
		globals: &scope{parent: t.globals},
		locals:  &scope{parent: t.locals},
	}
}

// Extend applies the global writes made in other's own frame to t. Locals of
// other are never carried over.
func (t *SymbolTable) Extend(other *SymbolTable) {
	for k, b := range other.globals.vars {
		t.globals.set(k, b)
	}
}

// Copy flattens t into an independent table.
func (t *SymbolTable) Copy() *SymbolTable {
	t2 := NewSymbolTable()
	t2.globals.vars = t.Globals()
	t2.locals.vars = map[string]Binding{}
	t.locals.flatten(t2.locals.vars)
	return t2
}

// Globals returns every visible global binding.
func (t *SymbolTable) Globals() map[string]Binding {
	m := map[string]Binding{}
	t.globals.flatten(m)
	return m
}

// Names lists the global names in order
func (t *SymbolTable) Names() []string {
	m := t.Globals()
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
