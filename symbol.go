package minilisp

import "strconv"

// Symbol is an identifier used as a table key. Two symbols are the same key
// when their names match, whatever their quoting or origin.
type Symbol struct {
	Name   string
	Quoted bool
	Line   uint32
}

func (s Symbol) Equal(s2 Symbol) bool  { return s.Name == s2.Name }
func (s Symbol) Compare(s2 Symbol) int { return cmp3(s.Name < s2.Name, s.Name > s2.Name) }
func (s Symbol) Value() Value          { return FromSymbol(s) }

func (s Symbol) String() string {
	if s.Quoted {
		return "'" + s.Name
	}
	return s.Name
}

// site renders the symbol as a call site for error traces
func (s Symbol) site() string {
	if s.Line == 0 {
		return s.Name
	}
	return s.Name + ":" + strconv.FormatUint(uint64(s.Line), 10)
}
