package minilisp

// Car returns the first element of a list, Nil for anything else. The head
// of a quoted list comes back quoted.
func Car(v Value) Value {
	h, ok := v.cell.Head()
	if !ok {
		return Nil
	}
	if v.IsQuoted() && h.Quotable() && !h.IsQuoted() {
		return h.Quote()
	}
	return h
}

// Cdr returns the rest of a list with the same quoting, Nil when there is
// nothing after the head. (cdr '(x)) is Nil, never an empty list.
func Cdr(v Value) Value {
	if t := v.cell.Tail(); t != nil {
		return List(t)
	}
	return Nil
}

// MakeList builds a list, each item becoming one element.
func MakeList(items []Value) Value { return ListOf(items...) }

// Append splices lists and appends atoms into a single list. Nil and empty
// lists contribute nothing.
func Append(items ...Value) Value {
	c := NilCell()
	for _, v := range items {
		switch v.typ {
		case NIL, EMPTY, QEMPTY:
		case LIST, QLIST:
			c.Add(v.cell)
		default:
			c.Push(v)
		}
	}
	return List(c)
}

// Cons prepends head to tail. A list tail keeps its quoting, a Nil tail gives
// a single element list and any other atom gives a pair of two elements.
func Cons(head, tail Value) Value {
	c := NewCell(head)
	switch tail.typ {
	case NIL:
	case EMPTY, QEMPTY:
		c.quoted = tail.typ == QEMPTY
	case LIST, QLIST:
		c.Add(tail.cell)
		c.quoted = tail.typ == QLIST
	default:
		c.Push(tail)
	}
	return List(c)
}
