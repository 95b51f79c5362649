package minilisp

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/scanner"
	"unicode"
)

type parser struct {
	s     scanner.Scanner
	start scanner.Position
}

// Parse reads a single form. An empty source gives Nil.
func Parse(src string) (Value, error) {
	forms, err := ParseAll(src)
	if err != nil {
		return Nil, err
	}
	switch len(forms) {
	case 0:
		return Nil, nil
	case 1:
		return forms[0], nil
	}
	return Nil, &ParseError{Message: fmt.Sprintf("expect a single form, got %d", len(forms)), Span: Span{End: Position{Line: 1, Column: 1}}}
}

// ParseAll reads every form in src.
func ParseAll(src string) (forms []Value, err error) {
	p := &parser{}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.fail(strings.Contains(msg, "literal not terminated"), "%s", msg)
	}
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*ParseError)
			if !ok {
				panic(r)
			}
			forms, err = nil, pe
		}
	}()
	for tok := p.next(); tok != scanner.EOF; tok = p.next() {
		forms = append(forms, p.datum(tok))
	}
	return forms, nil
}

// next scans the next token, skipping ; comments
func (p *parser) next() rune {
	for {
		tok := p.s.Scan()
		p.start = p.s.Position
		if tok != ';' {
			return tok
		}
		for r := p.s.Peek(); r != '\n' && r != scanner.EOF; r = p.s.Peek() {
			p.s.Next()
		}
	}
}

func (p *parser) datum(tok rune) Value {
	switch tok {
	case scanner.String:
		t, err := strconv.Unquote(p.s.TokenText())
		p.assert(err == nil, "invalid string: %s", p.s.TokenText())
		return Str(t)
	case '(':
		return p.list()
	case ')':
		p.fail(false, "unexpected ')'")
	case '\'':
		v := p.one("quote")
		if v.Quotable() && !v.IsQuoted() {
			return v.Quote()
		} else if v.IsQuoted() {
			return ListOf(Sym("quote"), v)
		}
		return v
	case '`':
		return ListOf(Sym("backquote"), p.one("backquote"))
	case ',':
		name := "unquote"
		if p.s.Peek() == '@' {
			p.s.Next()
			name = "unquote-splicing"
		}
		return ListOf(Sym(name), p.one(name))
	}
	text := p.s.TokenText() + scanToDelim(&p.s)
	if v, ok := atom(text); ok {
		return v
	}
	p.assert(tok != scanner.Int && tok != scanner.Float, "invalid number: %s", text)
	return SymAt(text, uint32(p.start.Line))
}

func (p *parser) list() Value {
	open := p.start
	c := NilCell()
	for tok := p.next(); tok != ')'; tok = p.next() {
		if tok == scanner.EOF {
			p.start = open
			p.fail(true, "unclosed list")
		}
		c.Push(p.datum(tok))
	}
	return List(c)
}

func (p *parser) one(what string) Value {
	tok := p.next()
	p.assert(tok != scanner.EOF && tok != ')', "invalid %s syntax", what)
	return p.datum(tok)
}

func (p *parser) assert(ok bool, t string, a ...interface{}) {
	if !ok {
		p.fail(false, t, a...)
	}
}

func (p *parser) fail(incomplete bool, t string, a ...interface{}) {
	end := p.s.Pos()
	panic(&ParseError{
		Message:    fmt.Sprintf(t, a...),
		Span:       Span{Start: Position{p.start.Line, p.start.Column}, End: Position{end.Line, end.Column}},
		Incomplete: incomplete,
	})
}

func scanToDelim(s *scanner.Scanner) string {
	for p := (bytes.Buffer{}); ; {
		next := s.Peek()
		if unicode.IsSpace(next) || next < 0 || strings.IndexRune("();\"'`,", next) > -1 {
			return p.String()
		}
		s.Scan()
		p.WriteString(s.TokenText())
	}
}

// atom converts literal text: nil and numbers. 0x literals up to 0xff are
// bytes, decimals without a minus sign are unsigned integers, negative ones
// integers. t stays a symbol so it resolves through its builtin.
func atom(text string) (Value, bool) {
	if text == "nil" {
		return Nil, true
	}
	if !looksNumeric(text) {
		return Nil, false
	}
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		v, err := strconv.ParseUint(text[2:], 16, 64)
		if err != nil {
			return Nil, false
		} else if v <= 0xff {
			return Byte(byte(v)), true
		}
		return Uint(v), true
	}
	if v, err := strconv.ParseUint(strings.TrimPrefix(text, "+"), 10, 64); err == nil {
		return Uint(v), true
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Int(v), true
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return Float(v), true
	}
	return Nil, false
}

func looksNumeric(text string) bool {
	if text != "" && (text[0] == '-' || text[0] == '+') {
		text = text[1:]
	}
	if text != "" && text[0] == '.' {
		text = text[1:]
	}
	return text != "" && text[0] >= '0' && text[0] <= '9'
}
