package minilisp

import "testing"

func TestCellLength(t *testing.T) {
	for n := 1; n < 32; n++ {
		c := NilCell()
		for i := 0; i < n; i++ {
			c.Add(NewCell(Uint(uint64(i))))
		}
		if c.Len() != n || len(c.Values()) != n {
			t.Fatal(n, c.Len())
		}
		v := List(c)
		for i := 0; i < n-1; i++ {
			v = Cdr(v)
		}
		if v.Len() != 1 || !Car(v).Equal(Uint(uint64(n-1))) {
			t.Fatal(n, v)
		}
		if v = Cdr(v); !v.IsNil() {
			t.Fatal("expect nil after", n, "cdrs, got", v.GoString())
		}
	}
}

func TestCellTotal(t *testing.T) {
	c := NilCell()
	if _, ok := c.Head(); ok {
		t.Fatal("nil cell has no head")
	}
	if c.Tail() != nil || NewCell(Uint(1)).Tail() != nil {
		t.Fatal("tail")
	}
	var none *Cell
	if none.Len() != 0 || none.Values() != nil || !none.IsNil() {
		t.Fatal("nil handle")
	}
	if v, ok := NewCell(Str("x")).Head(); !ok || !v.Equal(Str("x")) {
		t.Fatal(v)
	}
}

func TestCellCopyOnWrite(t *testing.T) {
	a := NilCell().Push(Uint(1)).Push(Uint(2))
	b := a.Clone()
	if a.Refs() != 2 || b.Refs() != 2 {
		t.Fatal("clone shares storage", a.Refs())
	}
	b.Push(Uint(3))
	if a.String() != "(1 2)" || b.String() != "(1 2 3)" {
		t.Fatal(a, b)
	}
	if a.Refs() != 1 || b.Refs() != 1 {
		t.Fatal("mutation detaches", a.Refs(), b.Refs())
	}

	tail := a.Tail()
	if a.Refs() != 2 {
		t.Fatal("tail shares storage")
	}
	tail.Push(Uint(9))
	if a.String() != "(1 2)" || tail.String() != "(2 9)" {
		t.Fatal(a, tail)
	}

	// unshared handles mutate in place
	a.Add(NewCell(Uint(5)))
	if a.String() != "(1 2 5)" {
		t.Fatal(a)
	}
}

func TestCellDrop(t *testing.T) {
	c := NilCell().Push(Uint(1))
	d := c.Clone()
	c.Drop()
	if !c.IsNil() || c.Refs() != 0 {
		t.Fatal("dropped handle reads as nil")
	}
	if d.Len() != 1 || d.Refs() != 1 {
		t.Fatal("clone survives the drop of its source", d.Len(), d.Refs())
	}
	first := d.first
	d.Drop()
	if !d.IsNil() || first.next != nil || !first.head.IsNil() {
		t.Fatal("last drop releases the nodes")
	}
}

func TestCellEqual(t *testing.T) {
	a := NilCell().Push(Uint(1)).Push(Str("a"))
	b := NewCell(Uint(1)).Add(NewCell(Str("a")))
	if !a.Equal(b) || a == b {
		t.Fatal(a, b)
	}
	if a.Equal(NewCell(Uint(1))) {
		t.Fatal("length matters")
	}
	if NilCell().Compare(NilCell()) != 0 {
		t.Fatal("nil cells")
	}
}
