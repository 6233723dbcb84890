package slurmit

import (
	"errors"
	"fmt"
)

var (
	// ErrDependencyWithoutSlurm indicates a job dependency on a local run
	ErrDependencyWithoutSlurm = errors.New("job dependency requires scheduling with Slurm")

	// ErrMissingFolder indicates scheduling was requested without a target folder
	ErrMissingFolder = errors.New("slurm folder is required when scheduling")

	// ErrMissingCondaEnv indicates scheduling was requested without an environment
	ErrMissingCondaEnv = errors.New("conda environment is required when scheduling")

	// ErrNoScheduler indicates no scheduler was given or registered
	ErrNoScheduler = errors.New("no scheduler configured")

	// ErrNoLocalRunner indicates a local run with nothing to run it
	ErrNoLocalRunner = errors.New("target has no local callable and no runner")

	// ErrInvalidTarget indicates the target has no function name
	ErrInvalidTarget = errors.New("target function name is required")
)

// ConfigError represents a call rejected before anything was written or
// submitted. It is never worth retrying.
type ConfigError struct {
	Param string // control parameter at fault
	Err   error  // underlying error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Param, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func newConfigError(param string, err error) *ConfigError {
	return &ConfigError{Param: param, Err: err}
}

// IsConfigError checks if an error is a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
