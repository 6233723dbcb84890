package pyscript

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrUnsupportedValue is returned when a value has no Python literal form.
var ErrUnsupportedValue = errors.New("value has no python literal representation")

// Path is a filesystem path argument. It renders as a pathlib literal
// unless LiteralOptions.PathToString is set.
type Path string

// Tuple renders as a Python tuple instead of a list.
type Tuple []any

// Dict is an insertion-ordered mapping rendered as a Python dict.
type Dict = orderedmap.OrderedMap[string, any]

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return orderedmap.New[string, any]()
}

// LiteralOptions controls literal rendering.
type LiteralOptions struct {
	// PathToString renders Path values as plain string literals.
	PathToString bool
}

// Literal returns the Python source literal for v.
func Literal(v any, opts LiteralOptions) (string, error) {
	r := &renderer{opts: opts}
	var b strings.Builder
	if err := r.render(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Str returns what Python's str() would print for v: strings and paths are
// emitted raw, everything else as its literal.
func Str(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case Path:
		return string(x), nil
	}
	return Literal(v, LiteralOptions{PathToString: true})
}

// renderer walks a value and writes its literal. usesPosixPath records
// whether a pathlib literal was emitted so the program can import it.
type renderer struct {
	opts          LiteralOptions
	usesPosixPath bool
}

func (r *renderer) render(b *strings.Builder, v any) error {
	switch x := v.(type) {
	case nil:
		b.WriteString("None")
		return nil
	case Path:
		if r.opts.PathToString {
			b.WriteString(quote(string(x)))
			return nil
		}
		r.usesPosixPath = true
		b.WriteString("PosixPath(")
		b.WriteString(quote(string(x)))
		b.WriteString(")")
		return nil
	case Tuple:
		b.WriteString("(")
		for i, item := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := r.render(b, item); err != nil {
				return err
			}
		}
		if len(x) == 1 {
			b.WriteString(",")
		}
		b.WriteString(")")
		return nil
	case *Dict:
		return r.renderDict(b, x)
	case *Arguments:
		if x == nil {
			b.WriteString("{}")
			return nil
		}
		return r.renderDict(b, x.m)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32:
		b.WriteString(formatFloat(rv.Float(), 32))
	case reflect.Float64:
		b.WriteString(formatFloat(rv.Float(), 64))
	case reflect.String:
		b.WriteString(quote(rv.String()))
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[")
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := r.render(b, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		b.WriteString("]")
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			b.WriteString("None")
			return nil
		}
		return r.render(b, rv.Elem().Interface())
	case reflect.Map:
		// Go maps have no order; a dict literal must be reproducible.
		return fmt.Errorf("%w: %T (use an ordered Dict)", ErrUnsupportedValue, v)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return nil
}

func (r *renderer) renderDict(b *strings.Builder, d *Dict) error {
	b.WriteString("{")
	if d != nil {
		first := true
		for pair := d.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(quote(pair.Key))
			b.WriteString(": ")
			if err := r.render(b, pair.Value); err != nil {
				return err
			}
		}
	}
	b.WriteString("}")
	return nil
}

// formatFloat follows Python's float repr: shortest round-trip digits,
// positional notation for exponents in [-4, 16), scientific otherwise.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return "float('inf')"
	case math.IsInf(f, -1):
		return "float('-inf')"
	case math.IsNaN(f):
		return "float('nan')"
	}

	sci := strconv.FormatFloat(f, 'e', -1, bitSize)
	_, expPart, _ := strings.Cut(sci, "e")
	exp, err := strconv.Atoi(expPart)
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// quote renders s the way Python's repr() renders a str.
func quote(s string) string {
	q := byte('\'')
	if strings.Contains(s, "'") && !strings.Contains(s, "\"") {
		q = '"'
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&b, `\x%02x`, s[i])
			i++
			continue
		}
		i += size

		switch {
		case r == rune(q) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < ' ' || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x7f:
			b.WriteRune(r)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
