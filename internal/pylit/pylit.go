// Package pylit parses the restricted Python-literal syntax used by NPY
// header dictionaries.
//
// The grammar covers exactly what numpy emits and accepts in a header:
// single- and double-quoted strings, integers, True/False, tuples, lists,
// and dictionaries with string keys. Trailing commas are permitted
// everywhere, matching Python. Nothing is evaluated; the parser produces a
// small value tree for the header codec to walk.
package pylit

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// ErrSyntax is returned (wrapped, with an offset) for malformed input.
var ErrSyntax = errors.New("invalid literal syntax")

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindTuple
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindTuple:
		return "tuple"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is one node of a parsed literal tree.
type Value struct {
	Kind Kind

	Str   string  // KindString
	Int   int64   // KindInt
	Bool  bool    // KindBool
	Items []Value // KindTuple, KindList

	// KindDict. Keys and Vals are parallel, in source order.
	Keys []string
	Vals []Value
}

// Get returns the dictionary value for key, if present.
func (v Value) Get(key string) (Value, bool) {
	for i, k := range v.Keys {
		if k == key {
			return v.Vals[i], true
		}
	}
	return Value{}, false
}

// Parse parses a single literal and requires that nothing but whitespace
// follows it.
func Parse(text string) (Value, error) {
	p := &parser{src: text}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Value{}, p.errorf("trailing data after literal")
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s: %w", p.pos, fmt.Sprintf(format, args...), ErrSyntax)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *parser) value() (Value, error) {
	c, ok := p.peek()
	if !ok {
		return Value{}, p.errorf("unexpected end of input")
	}
	switch {
	case c == '\'' || c == '"':
		return p.stringLit()
	case c == '(':
		return p.sequence('(', ')', KindTuple)
	case c == '[':
		return p.sequence('[', ']', KindList)
	case c == '{':
		return p.dict()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.intLit()
	case c == 'T' || c == 'F':
		return p.boolLit()
	default:
		return Value{}, p.errorf("unexpected character %q", c)
	}
}

func (p *parser) stringLit() (Value, error) {
	quote := p.src[p.pos]
	p.pos++
	var out []byte
	for {
		if p.pos >= len(p.src) {
			return Value{}, p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return Value{Kind: KindString, Str: string(out)}, nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return Value{}, p.errorf("unterminated escape")
			}
			e := p.src[p.pos]
			switch e {
			case '\\', '\'', '"':
				out = append(out, e)
				p.pos++
			case 'n':
				out = append(out, '\n')
				p.pos++
			case 't':
				out = append(out, '\t')
				p.pos++
			case 'x':
				if p.pos+2 >= len(p.src) {
					return Value{}, p.errorf("truncated \\x escape")
				}
				n, err := strconv.ParseUint(p.src[p.pos+1:p.pos+3], 16, 8)
				if err != nil {
					return Value{}, p.errorf("bad \\x escape")
				}
				out = append(out, byte(n))
				p.pos += 3
			default:
				return Value{}, p.errorf("unsupported escape \\%c", e)
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			if r == utf8.RuneError && size == 1 {
				return Value{}, p.errorf("invalid UTF-8 in string")
			}
			out = append(out, p.src[p.pos:p.pos+size]...)
			p.pos += size
		}
	}
}

func (p *parser) intLit() (Value, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start || (p.pos == start+1 && (p.src[start] == '-' || p.src[start] == '+')) {
		return Value{}, p.errorf("malformed integer")
	}
	n, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
	if err != nil {
		p.pos = start
		return Value{}, p.errorf("integer out of range")
	}
	return Value{Kind: KindInt, Int: n}, nil
}

func (p *parser) boolLit() (Value, error) {
	rest := p.src[p.pos:]
	switch {
	case len(rest) >= 4 && rest[:4] == "True":
		p.pos += 4
		return Value{Kind: KindBool, Bool: true}, nil
	case len(rest) >= 5 && rest[:5] == "False":
		p.pos += 5
		return Value{Kind: KindBool, Bool: false}, nil
	default:
		return Value{}, p.errorf("expected True or False")
	}
}

func (p *parser) sequence(open, close byte, kind Kind) (Value, error) {
	p.pos++ // consume open
	var items []Value
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return Value{}, p.errorf("unterminated sequence, expected %q", close)
		}
		if c == close {
			p.pos++
			return Value{Kind: kind, Items: items}, nil
		}
		item, err := p.value()
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return Value{}, p.errorf("unterminated sequence, expected %q", close)
		}
		switch c {
		case ',':
			p.pos++
		case close:
			// closed on next loop iteration
		default:
			return Value{}, p.errorf("expected ',' or %q", close)
		}
	}
}

func (p *parser) dict() (Value, error) {
	p.pos++ // consume '{'
	out := Value{Kind: KindDict}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return Value{}, p.errorf("unterminated dict")
		}
		if c == '}' {
			p.pos++
			return out, nil
		}
		if c != '\'' && c != '"' {
			return Value{}, p.errorf("dict key must be a string")
		}
		key, err := p.stringLit()
		if err != nil {
			return Value{}, err
		}
		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ':' {
			return Value{}, p.errorf("expected ':' after dict key")
		}
		p.pos++
		p.skipSpace()
		val, err := p.value()
		if err != nil {
			return Value{}, err
		}
		out.Keys = append(out.Keys, key.Str)
		out.Vals = append(out.Vals, val)
		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return Value{}, p.errorf("unterminated dict")
		}
		switch c {
		case ',':
			p.pos++
		case '}':
			// closed on next loop iteration
		default:
			return Value{}, p.errorf("expected ',' or '}'")
		}
	}
}
