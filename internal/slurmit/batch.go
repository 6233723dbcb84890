package slurmit

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/Justype/slurmit/internal/pyscript"
	"github.com/Justype/slurmit/internal/scheduler"
	"github.com/Justype/slurmit/internal/utils"
)

var (
	// ErrBatchArity indicates a batch tuple whose length differs from the name count
	ErrBatchArity = errors.New("batch tuple length does not match the parameter names")

	// ErrBatchNames indicates missing, duplicate or unusable batch parameter names
	ErrBatchNames = errors.New("invalid batch parameter names")

	// ErrBatchValues indicates batch parameter names without any tuple
	ErrBatchValues = errors.New("batch parameter names given without values")
)

// Batch names are shell variables and argparse flags at the same time.
var batchNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateBatch checks a parameter sweep before anything is written. All
// problems are reported together.
func ValidateBatch(names []string, values [][]any) error {
	var result *multierror.Error

	if len(names) == 0 {
		result = multierror.Append(result, fmt.Errorf("%w: no names for %d tuples", ErrBatchNames, len(values)))
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !batchNameRe.MatchString(name) {
			result = multierror.Append(result, fmt.Errorf("%w: %q is not an identifier", ErrBatchNames, name))
		}
		if seen[name] {
			result = multierror.Append(result, fmt.Errorf("%w: %q is repeated", ErrBatchNames, name))
		}
		seen[name] = true
	}

	if len(names) > 0 && len(values) == 0 {
		result = multierror.Append(result, ErrBatchValues)
	}
	for i, tuple := range values {
		if len(tuple) != len(names) {
			result = multierror.Append(result, fmt.Errorf("%w: tuple %d has %d values, want %d",
				ErrBatchArity, i, len(tuple), len(names)))
		}
	}

	return result.ErrorOrNil()
}

// batchEnv binds one tuple to the parameter names, values rendered as
// Python's str() would print them.
func batchEnv(names []string, tuple []any) (*utils.StringMap, error) {
	env := utils.NewStringMap()
	for i, name := range names {
		v, err := pyscript.Str(tuple[i])
		if err != nil {
			return nil, fmt.Errorf("batch parameter %s: %w", name, err)
		}
		if strings.Contains(v, ",") {
			utils.PrintWarning("Value of %s contains a comma, sbatch --export will split it: %s", utils.StyleName(name), v)
		}
		env.Set(name, v)
	}
	return env, nil
}

// submitBatch dispatches base once per tuple, sequentially. It stops at the
// first failure and returns the IDs collected so far.
func submitBatch(sched scheduler.Scheduler, base *scheduler.SubmitRequest, names []string, values [][]any) ([]string, error) {
	jobIDs := make([]string, 0, len(values))
	for i, tuple := range values {
		env, err := batchEnv(names, tuple)
		if err != nil {
			return jobIDs, err
		}

		req := *base
		req.EnvVars = env
		jobID, err := sched.Submit(&req)
		if err != nil {
			return jobIDs, fmt.Errorf("batch job %d of %d: %w", i+1, len(values), err)
		}
		utils.PrintDebug("Batch job %d of %d: %s", i+1, len(values), jobID)
		jobIDs = append(jobIDs, jobID)
	}
	return jobIDs, nil
}
