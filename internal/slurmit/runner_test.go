package slurmit

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Justype/slurmit/internal/pyscript"
	"github.com/Justype/slurmit/internal/utils"
)

func requirePython(t *testing.T) string {
	t.Helper()
	bin, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	return bin
}

func TestPythonRunner(t *testing.T) {
	runner := &PythonRunner{Bin: requirePython(t), Dir: t.TempDir()}

	w, err := Wrap(Target{Module: "builtins", Name: "print"}, Config{}, WithRunner(runner))
	require.NoError(t, err)

	result, err := w.Call(pyscript.NewArguments().Set("end", "hello"), CallOptions{})
	require.NoError(t, err)
	assert.Nil(t, result.Value, "print returns None; its output is not the value")
}

func writeModule(t *testing.T, dir, name, source string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".py"), []byte(source), 0o644))
}

func TestPythonRunnerReturnsValue(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "scoring", `
def score(n):
    return n * 2

def stats(n, label):
    return {"n": n, "pair": (1, label), "ratio": n / 4, "none": None}

def odd():
    return {1, 2}
`)
	runner := &PythonRunner{Bin: requirePython(t), Dir: dir}

	tests := []struct {
		name string
		args *pyscript.Arguments
		want any
	}{
		{"score", pyscript.NewArguments().Set("n", 21), 42},
		{"odd", nil, "{1, 2}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Wrap(Target{Module: "scoring", Name: tt.name}, Config{}, WithRunner(runner))
			require.NoError(t, err)
			result, err := w.Call(tt.args, CallOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Value)
		})
	}

	w, err := Wrap(Target{Module: "scoring", Name: "stats"}, Config{}, WithRunner(runner))
	require.NoError(t, err)
	result, err := w.Call(pyscript.NewArguments().Set("n", 10).Set("label", "a"), CallOptions{})
	require.NoError(t, err)

	d, ok := result.Value.(*pyscript.Dict)
	require.True(t, ok, "value = %#v", result.Value)
	assert.Equal(t, []string{"n", "pair", "ratio", "none"}, dictKeys(d))
	n, _ := d.Get("n")
	assert.Equal(t, 10, n)
	pair, _ := d.Get("pair")
	assert.Equal(t, []any{1, "a"}, pair)
	ratio, _ := d.Get("ratio")
	assert.Equal(t, 2.5, ratio)
	none, present := d.Get("none")
	assert.True(t, present)
	assert.Nil(t, none)
}

func dictKeys(d *pyscript.Dict) []string {
	var keys []string
	for pair := d.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func TestPythonRunnerError(t *testing.T) {
	runner := &PythonRunner{Bin: requirePython(t)}

	_, err := runner.Run(&pyscript.Program{
		Function:    "missing",
		FromImports: utils.NewStringMap("no_such_module_for_tests", "missing"),
	})
	require.Error(t, err)

	var perr *PythonError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Output, "ModuleNotFoundError")
	assert.Contains(t, perr.Error(), "conda environment")

	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestPythonErrorHints(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"ModuleNotFoundError: No module named 'x'", "conda environment"},
		{"ImportError: cannot import name 'f' from 'm'", "does not exist"},
		{"TypeError: f() got an unexpected keyword argument 'n'", "signature"},
		{"NameError: name 'PosixPath' is not defined", "path_to_string"},
		{"ValueError: bad", ""},
	}
	for _, tt := range tests {
		e := &PythonError{Function: "f", Output: tt.output, BaseErr: errors.New("exit status 1")}
		if tt.want == "" {
			assert.Empty(t, e.analyzeError(), tt.output)
			continue
		}
		assert.Contains(t, e.analyzeError(), tt.want, tt.output)
	}
}
