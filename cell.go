package minilisp

import "bytes"

type (
	node struct {
		head Value
		next *node
	}
	// storage is shared by every handle cloned from the same chain
	storage struct {
		refs int
	}
	// Cell is a handle to a chain of cons nodes. Handles created by Clone or
	// Tail share their nodes with the source until one of them is mutated,
	// at which point the mutating handle copies the chain for itself.
	Cell struct {
		first  *node
		store  *storage
		quoted bool
	}
)

// NilCell returns the empty list terminator
func NilCell() *Cell { return &Cell{store: &storage{refs: 1}} }

func NewCell(v Value) *Cell {
	c := NilCell()
	c.first = &node{head: v}
	return c
}

func (c *Cell) IsNil() bool    { return c == nil || c.first == nil }
func (c *Cell) IsQuoted() bool { return c != nil && c.quoted }

// Refs is the number of live handles sharing this chain
func (c *Cell) Refs() int {
	if c == nil || c.store == nil {
		return 0
	}
	return c.store.refs
}

// Head returns the first element, false on a nil cell.
func (c *Cell) Head() (Value, bool) {
	if c.IsNil() {
		return Nil, false
	}
	return c.first.head, true
}

// Tail returns the rest of the chain sharing the same nodes, or nil when c
// holds fewer than two elements.
func (c *Cell) Tail() *Cell {
	if c.IsNil() || c.first.next == nil {
		return nil
	}
	c.store.refs++
	return &Cell{first: c.first.next, store: c.store, quoted: c.quoted}
}

func (c *Cell) Len() (n int) {
	if c == nil {
		return 0
	}
	for p := c.first; p != nil; p = p.next {
		n++
	}
	return n
}

func (c *Cell) Foreach(cb func(Value) bool) {
	if c == nil {
		return
	}
	for p := c.first; p != nil && cb(p.head); p = p.next {
	}
}

func (c *Cell) Values() (s []Value) {
	c.Foreach(func(v Value) bool { s = append(s, v); return true })
	return
}

// Push appends v at the end of the chain.
func (c *Cell) Push(v Value) *Cell {
	c.detach()
	n := &node{head: v}
	if c.first == nil {
		c.first = n
		return c
	}
	c.last().next = n
	return c
}

// Add appends every element of other, walking to the end of c first.
// other is left untouched.
func (c *Cell) Add(other *Cell) *Cell {
	other.Foreach(func(v Value) bool { c.Push(v); return true })
	return c
}

// Clone returns a new handle sharing c's nodes, O(1).
func (c *Cell) Clone() *Cell {
	if c == nil {
		return NilCell()
	}
	if c.store == nil {
		c.store = &storage{refs: 1}
	}
	c.store.refs++
	return &Cell{first: c.first, store: c.store, quoted: c.quoted}
}

// Drop releases the handle. The nodes are cleared once the last handle
// sharing them is dropped, after which c reads as a nil cell.
func (c *Cell) Drop() {
	if c == nil || c.store == nil {
		return
	}
	if c.store.refs--; c.store.refs <= 0 {
		for p := c.first; p != nil; {
			next := p.next
			p.head, p.next = Nil, nil
			p = next
		}
	}
	c.first, c.store = nil, nil
}

func (c *Cell) Equal(c2 *Cell) bool {
	return c.Compare(c2) == 0
}

func (c *Cell) Compare(c2 *Cell) int {
	a, b := c.Values(), c2.Values()
	for i := 0; i < len(a) && i < len(b); i++ {
		if r := a[i].Compare(b[i]); r != 0 {
			return r
		}
	}
	return len(a) - len(b)
}

func (c *Cell) String() string {
	p := bytes.NewBufferString("(")
	c.Foreach(func(v Value) bool {
		if p.Len() > 1 {
			p.WriteByte(' ')
		}
		p.WriteString(v.String())
		return true
	})
	p.WriteByte(')')
	return p.String()
}

func (c *Cell) last() (p *node) {
	for p = c.first; p.next != nil; p = p.next {
	}
	return p
}

// detach gives c private nodes when they are shared with another handle.
func (c *Cell) detach() {
	if c.store == nil {
		c.store = &storage{refs: 1}
	}
	if c.store.refs <= 1 {
		return
	}
	c.store.refs--
	c.store = &storage{refs: 1}
	var head, tail *node
	for p := c.first; p != nil; p = p.next {
		n := &node{head: p.head}
		if head == nil {
			head = n
		} else {
			tail.next = n
		}
		tail = n
	}
	c.first = head
}
