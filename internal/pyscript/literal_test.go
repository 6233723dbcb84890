package pyscript

import (
	"errors"
	"math"
	"testing"
)

func TestLiteral(t *testing.T) {
	nested := NewDict()
	nested.Set("a", 1)
	nested.Set("b", []string{"x"})

	var nilPtr *int
	n := 7

	tests := []struct {
		name  string
		value any
		opts  LiteralOptions
		want  string
	}{
		{"none", nil, LiteralOptions{}, "None"},
		{"true", true, LiteralOptions{}, "True"},
		{"false", false, LiteralOptions{}, "False"},
		{"int", 42, LiteralOptions{}, "42"},
		{"negative int64", int64(-3), LiteralOptions{}, "-3"},
		{"uint8", uint8(255), LiteralOptions{}, "255"},
		{"float", 0.5, LiteralOptions{}, "0.5"},
		{"integral float", 2.0, LiteralOptions{}, "2.0"},
		{"small float", 0.00001, LiteralOptions{}, "1e-05"},
		{"large float", 1e16, LiteralOptions{}, "1e+16"},
		{"positional large float", 1e15, LiteralOptions{}, "1000000000000000.0"},
		{"inf", math.Inf(1), LiteralOptions{}, "float('inf')"},
		{"-inf", math.Inf(-1), LiteralOptions{}, "float('-inf')"},
		{"nan", math.NaN(), LiteralOptions{}, "float('nan')"},
		{"string", "hello", LiteralOptions{}, "'hello'"},
		{"string with single quote", "it's", LiteralOptions{}, `"it's"`},
		{"string with both quotes", `it's "x"`, LiteralOptions{}, `'it\'s "x"'`},
		{"string escapes", "a\tb\nc\\", LiteralOptions{}, `'a\tb\nc\\'`},
		{"control char", "\x01", LiteralOptions{}, `'\x01'`},
		{"unicode kept", "café", LiteralOptions{}, "'café'"},
		{"path", Path("/data/run1"), LiteralOptions{}, "PosixPath('/data/run1')"},
		{"path as string", Path("/data/run1"), LiteralOptions{PathToString: true}, "'/data/run1'"},
		{"list", []int{1, 2, 3}, LiteralOptions{}, "[1, 2, 3]"},
		{"empty list", []string{}, LiteralOptions{}, "[]"},
		{"nil slice", []string(nil), LiteralOptions{}, "[]"},
		{"array", [2]bool{true, false}, LiteralOptions{}, "[True, False]"},
		{"mixed list", []any{1, "a", nil}, LiteralOptions{}, "[1, 'a', None]"},
		{"tuple one", Tuple{1}, LiteralOptions{}, "(1,)"},
		{"tuple two", Tuple{1, "b"}, LiteralOptions{}, "(1, 'b')"},
		{"empty tuple", Tuple{}, LiteralOptions{}, "()"},
		{"dict", nested, LiteralOptions{}, "{'a': 1, 'b': ['x']}"},
		{"nil pointer", nilPtr, LiteralOptions{}, "None"},
		{"pointer", &n, LiteralOptions{}, "7"},
		{"list of paths", []Path{"a", "b"}, LiteralOptions{PathToString: true}, "['a', 'b']"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Literal(tt.value, tt.opts)
			if err != nil {
				t.Fatalf("Literal() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Literal() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLiteralUnsupported(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"go map", map[string]int{"a": 1}},
		{"struct", struct{ A int }{1}},
		{"func", func() {}},
		{"channel", make(chan int)},
		{"nested unsupported", []any{1, struct{}{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Literal(tt.value, LiteralOptions{})
			if !errors.Is(err, ErrUnsupportedValue) {
				t.Errorf("Literal() error = %v, want ErrUnsupportedValue", err)
			}
		})
	}
}

func TestStr(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"plain", "plain"},
		{Path("/tmp/x"), "/tmp/x"},
		{3, "3"},
		{1.5, "1.5"},
		{true, "True"},
		{nil, "None"},
		{[]any{Path("p"), 1}, "['p', 1]"},
	}

	for _, tt := range tests {
		got, err := Str(tt.value)
		if err != nil {
			t.Fatalf("Str(%v) error = %v", tt.value, err)
		}
		if got != tt.want {
			t.Errorf("Str(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
