package slurmit

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Justype/slurmit/internal/pyscript"
	"github.com/Justype/slurmit/internal/scheduler"
	"github.com/Justype/slurmit/internal/utils"
)

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name     string
		names    []string
		values   [][]any
		wantErrs []error
	}{
		{
			name:   "valid",
			names:  []string{"a", "b"},
			values: [][]any{{1, 2}, {3, 4}},
		},
		{
			name:     "arity",
			names:    []string{"a", "b"},
			values:   [][]any{{1, 2}, {3}, {4, 5, 6}},
			wantErrs: []error{ErrBatchArity, ErrBatchArity},
		},
		{
			name:     "values without names",
			values:   [][]any{{1}},
			wantErrs: []error{ErrBatchNames, ErrBatchArity},
		},
		{
			name:     "names without values",
			names:    []string{"a"},
			wantErrs: []error{ErrBatchValues},
		},
		{
			name:     "bad and repeated names",
			names:    []string{"a", "a", "-b"},
			values:   [][]any{{1, 2, 3}},
			wantErrs: []error{ErrBatchNames, ErrBatchNames},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatch(tt.names, tt.values)
			if len(tt.wantErrs) == 0 {
				assert.NoError(t, err)
				return
			}
			var merr *multierror.Error
			require.ErrorAs(t, err, &merr)
			require.Len(t, merr.Errors, len(tt.wantErrs))
			for i, want := range tt.wantErrs {
				assert.ErrorIs(t, merr.Errors[i], want)
			}
		})
	}
}

func TestCallBatch(t *testing.T) {
	dir := t.TempDir()
	sched := newRecordingScheduler(t)

	w, err := Wrap(Target{Module: "mypkg.jobs", Name: "fit"}, Config{CondaEnv: "torch"}, WithScheduler(sched))
	require.NoError(t, err)

	// "a" is also a plain argument; the batch value replaces it.
	args := pyscript.NewArguments().Set("a", 0).Set("c", "x")
	result, err := w.Call(args, CallOptions{
		UseSlurm:        true,
		SlurmFolder:     dir,
		JobDependency:   scheduler.After("5"),
		BatchParamNames: []string{"a", "b"},
		BatchParamList:  [][]any{{1, 2}, {3, "y z"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"11", "12"}, result.JobIDs)
	assert.Empty(t, result.JobID)

	assertText(t, readFile(t, result.ProgramPath),
		"from mypkg.jobs import fit\n"+
			"\n"+
			"import argparse\n"+
			"\n"+
			"parser = argparse.ArgumentParser()\n"+
			"parser.add_argument('--a')\n"+
			"parser.add_argument('--b')\n"+
			"args = parser.parse_args()\n"+
			"\n"+
			"fit(c='x', a=args.a, b=args.b, )\n")

	script := readFile(t, result.ScriptPath)
	assert.Contains(t, script, "#SBATCH --output="+filepath.Join(dir, "fit_%j.out")+"\n")
	assert.True(t, strings.HasSuffix(script, "\npython "+filepath.Join(dir, "fit.py")+" --a $a --b $b\n"), script)

	require.Len(t, sched.requests, 2)
	wantEnv := [][]string{{"a", "1", "b", "2"}, {"a", "3", "b", "y z"}}
	for i, req := range sched.requests {
		assert.Equal(t, result.ScriptPath, req.ScriptPath)
		assert.Equal(t, "5", req.Dependency.String())

		var got []string
		for pair := req.EnvVars.Oldest(); pair != nil; pair = pair.Next() {
			got = append(got, pair.Key, pair.Value)
		}
		assert.Equal(t, wantEnv[i], got)
	}

	// The caller still has its own "a".
	v, ok := args.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 0, v)
}

func TestCallBatchDryRun(t *testing.T) {
	dir := t.TempDir()
	sched, err := scheduler.NewSlurmSchedulerWithCommand("sbatch")
	require.NoError(t, err)

	w, err := Wrap(Target{Name: "fit"}, Config{CondaEnv: "torch"}, WithScheduler(sched))
	require.NoError(t, err)

	result, err := w.Call(nil, CallOptions{
		UseSlurm:        true,
		SlurmFolder:     dir,
		DryRun:          true,
		JobDependency:   scheduler.After("11", "12"),
		BatchParamNames: []string{"seed", "path"},
		BatchParamList:  [][]any{{1, pyscript.Path("/data/a")}, {2.5, "b"}},
	})
	require.NoError(t, err)

	scriptPath := filepath.Join(dir, "fit.sh")
	assert.Equal(t, []string{
		"sbatch --export=seed=1,path=/data/a --dependency=afterok:11:12 " + scriptPath,
		"sbatch --export=seed=2.5,path=b --dependency=afterok:11:12 " + scriptPath,
	}, result.JobIDs)
}

func TestSubmitBatchStopsAtFirstFailure(t *testing.T) {
	sched := newRecordingScheduler(t)
	sched.failAt = 2

	base := &scheduler.SubmitRequest{ScriptPath: "/tmp/fit.sh"}
	ids, err := submitBatch(sched, base, []string{"n"}, [][]any{{1}, {2}, {3}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch job 2 of 3")
	assert.Equal(t, []string{"11"}, ids)
	assert.Len(t, sched.requests, 2)

	// The base request is never modified.
	assert.Equal(t, 0, utils.StringMapLen(base.EnvVars))
}

func TestBatchEnv(t *testing.T) {
	env, err := batchEnv([]string{"flag", "items", "none"}, []any{true, []any{1, "a"}, nil})
	require.NoError(t, err)

	flag, _ := env.Get("flag")
	items, _ := env.Get("items")
	none, _ := env.Get("none")
	assert.Equal(t, "True", flag)
	assert.Equal(t, "[1, 'a']", items)
	assert.Equal(t, "None", none)

	_, err = batchEnv([]string{"m"}, []any{map[string]int{"a": 1}})
	assert.ErrorIs(t, err, pyscript.ErrUnsupportedValue)
}
