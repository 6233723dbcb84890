package slurmit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Justype/slurmit/internal/pyscript"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want string // python literal
	}{
		{"3", "3"},
		{"-7", "-7"},
		{"0.5", "0.5"},
		{"1e3", "1000.0"},
		{"true", "True"},
		{"null", "None"},
		{"~", "None"},
		{"hello world", "'hello world'"},
		{"'007'", "'007'"},
		{"2024-01-31", "'2024-01-31'"},
		{"[1, two, 3.0]", "[1, 'two', 3.0]"},
		{"!tuple [1, 2]", "(1, 2)"},
		{"{b: 1, a: [x]}", "{'b': 1, 'a': ['x']}"},
		{"!path /scratch/data", "PosixPath('/scratch/data')"},
		{"", "''"},
		{"a: b: c", "'a: b: c'"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseValue(tt.in)
			require.NoError(t, err)
			got, err := pyscript.Literal(v, pyscript.LiteralOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArguments(t *testing.T) {
	args, err := ParseArguments([]string{"n=3", "name=run=1", "paths=[a, b]"})
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "name", "paths"}, args.Keys())

	name, _ := args.Get("name")
	assert.Equal(t, "run=1", name)

	_, err = ParseArguments([]string{"n=1", "n=2"})
	assert.Error(t, err)

	_, err = ParseArguments([]string{"=1"})
	assert.Error(t, err)
}
