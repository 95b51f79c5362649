package minilisp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type ValueType byte

const NIL, TRUE, TEXT, SYM, QSYM, BYTE, UINT, INT, FLOAT, LIST, QLIST, EMPTY, QEMPTY ValueType = 0, 't', 's', 'y', 'Y', 'b', 'u', 'i', 'f', 'l', 'L', 'e', 'E'

var (
	Nil, T                     = Value{}, Value{typ: TRUE}
	EmptyList, EmptyQuotedList = Value{typ: EMPTY}, Value{typ: QEMPTY}

	Types = map[ValueType]string{
		NIL: "nil", TRUE: "t", TEXT: "string", SYM: "symbol", QSYM: "quoted symbol",
		BYTE: "byte", UINT: "unsigned integer", INT: "integer", FLOAT: "float",
		LIST: "list", QLIST: "quoted list", EMPTY: "empty list", QEMPTY: "empty quoted list",
	}

	// ordering of kinds used by Compare
	typeRank = map[ValueType]int{
		NIL: 0, TRUE: 1, BYTE: 2, UINT: 3, INT: 4, FLOAT: 5, TEXT: 6,
		SYM: 7, QSYM: 8, EMPTY: 9, QEMPTY: 10, LIST: 11, QLIST: 12,
	}
)

// Value is the tagged runtime datum. The zero Value is Nil.
// Symbols keep their source line in num, lists their cell in cell.
type Value struct {
	typ  ValueType
	num  uint64
	text string
	cell *Cell
}

func Str(v string) Value    { return Value{typ: TEXT, text: v} }
func Sym(v string) Value    { return Value{typ: SYM, text: v} }
func Byte(v byte) Value     { return Value{typ: BYTE, num: uint64(v)} }
func Uint(v uint64) Value   { return Value{typ: UINT, num: v} }
func Int(v int64) Value     { return Value{typ: INT, num: uint64(v)} }
func Float(v float64) Value { return Value{typ: FLOAT, num: math.Float64bits(v)} }

func Bool(v bool) Value {
	if v {
		return T
	}
	return Nil
}

// QuotedSym creates 'v
func QuotedSym(v string) Value { return Value{typ: QSYM, text: v} }

// SymAt creates a symbol remembering the source line it was read from
func SymAt(v string, line uint32) Value { return Value{typ: SYM, text: v, num: uint64(line)} }

// FromSymbol converts a table key back into runtime data, keeping its quoting.
func FromSymbol(s Symbol) Value {
	v := SymAt(s.Name, s.Line)
	if s.Quoted {
		v.typ = QSYM
	}
	return v
}

// List wraps c, the tag follows the quoting flag of the cell.
// An empty cell becomes EmptyList or EmptyQuotedList.
func List(c *Cell) Value {
	switch {
	case c.IsNil() && c.IsQuoted():
		return EmptyQuotedList
	case c.IsNil():
		return EmptyList
	case c.IsQuoted():
		return Value{typ: QLIST, cell: c}
	}
	return Value{typ: LIST, cell: c}
}

func QuotedList(c *Cell) Value {
	if c.IsQuoted() {
		return List(c)
	}
	q := c.Clone()
	q.quoted = true
	return List(q)
}

// ListOf builds an unquoted list holding items in order
func ListOf(items ...Value) Value {
	c := NilCell()
	for _, v := range items {
		c.Push(v)
	}
	return List(c)
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) IsNil() bool { return v.typ == NIL }

func (v Value) IsList() bool {
	switch v.typ {
	case LIST, QLIST, EMPTY, QEMPTY:
		return true
	}
	return false
}

func (v Value) IsNumber() bool {
	switch v.typ {
	case BYTE, UINT, INT, FLOAT:
		return true
	}
	return false
}

func (v Value) IsQuoted() bool { return v.typ == QSYM || v.typ == QLIST || v.typ == QEMPTY }

// Quotable reports whether v carries a quoting state at all. Numbers, strings,
// t and nil evaluate to themselves and are never quoted.
func (v Value) Quotable() bool {
	switch v.typ {
	case SYM, QSYM, LIST, QLIST, EMPTY, QEMPTY:
		return true
	}
	return false
}

// Quote marks a symbol or list as data. Quoting a quoted value panics with
// an ErrPrecondition RuntimeError, other atoms come back unchanged.
func (v Value) Quote() Value {
	switch v.typ {
	case SYM:
		v.typ = QSYM
	case EMPTY:
		v.typ = QEMPTY
	case LIST:
		return QuotedList(v.cell)
	case QSYM, QLIST, QEMPTY:
		panic(preconditionf("quote: %v is already quoted", v))
	}
	return v
}

// Unquote strips one level of quoting, the inverse of Quote.
func (v Value) Unquote() Value {
	switch v.typ {
	case QSYM:
		v.typ = SYM
	case QEMPTY:
		v.typ = EMPTY
	case QLIST:
		c := v.cell.Clone()
		c.quoted = false
		return List(c)
	case SYM, LIST, EMPTY:
		panic(preconditionf("unquote: %v is not quoted", v))
	}
	return v
}

func (v Value) Text() string { return v.text }

func (v Value) Symbol() Symbol {
	return Symbol{Name: v.text, Quoted: v.typ == QSYM, Line: uint32(v.num)}
}

func (v Value) Uint() uint64   { return v.num }
func (v Value) Int() int64     { return int64(v.num) }
func (v Value) Float() float64 { return math.Float64frombits(v.num) }
func (v Value) Byte() byte     { return byte(v.num) }

// Cell returns a private handle of the list storage, mutating it never
// affects v. Non-list values give a nil cell.
func (v Value) Cell() *Cell {
	if v.cell == nil {
		c := NilCell()
		c.quoted = v.typ == QEMPTY
		return c
	}
	return v.cell.Clone()
}

// Values flattens a list, nil for anything else
func (v Value) Values() []Value {
	if v.cell == nil {
		return nil
	}
	return v.cell.Values()
}

func (v Value) Len() int {
	if v.cell == nil {
		return 0
	}
	return v.cell.Len()
}

func (v Value) Equal(v2 Value) bool {
	if v.typ != v2.typ {
		return false
	}
	switch v.typ {
	case TEXT, SYM, QSYM:
		return v.text == v2.text
	case LIST, QLIST:
		return v.cell.Equal(v2.cell)
	case FLOAT:
		return v.Float() == v2.Float()
	}
	return v.num == v2.num
}

// Compare orders by kind first, then by payload. Lists compare element-wise.
func (v Value) Compare(v2 Value) int {
	if v.typ != v2.typ {
		return typeRank[v.typ] - typeRank[v2.typ]
	}
	switch v.typ {
	case TEXT, SYM, QSYM:
		return strings.Compare(v.text, v2.text)
	case LIST, QLIST:
		return v.cell.Compare(v2.cell)
	case INT:
		return cmp3(v.Int() < v2.Int(), v.Int() > v2.Int())
	case FLOAT:
		return cmp3(v.Float() < v2.Float(), v.Float() > v2.Float())
	}
	return cmp3(v.num < v2.num, v.num > v2.num)
}

func cmp3(less, greater bool) int {
	if less {
		return -1
	} else if greater {
		return 1
	}
	return 0
}

func (v Value) String() string {
	switch v.typ {
	case TRUE:
		return "t"
	case TEXT:
		return strconv.Quote(v.text)
	case SYM:
		return v.text
	case QSYM:
		return "'" + v.text
	case BYTE:
		return fmt.Sprintf("0x%02x", v.num)
	case UINT:
		return strconv.FormatUint(v.num, 10)
	case INT:
		return strconv.FormatInt(v.Int(), 10)
	case FLOAT:
		s := strconv.FormatFloat(v.Float(), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return s
	case LIST:
		return v.cell.String()
	case QLIST:
		return "'" + v.cell.String()
	case EMPTY:
		return "()"
	case QEMPTY:
		return "'()"
	}
	return "nil"
}

func (v Value) GoString() string {
	return fmt.Sprintf("{%s %s}", Types[v.typ], v.String())
}
