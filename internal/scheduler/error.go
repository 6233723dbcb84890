package scheduler

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrSchedulerNotFound indicates the scheduler binary was not found
	ErrSchedulerNotFound = errors.New("scheduler binary not found in PATH")

	// ErrScriptNotFound indicates the script file was not found
	ErrScriptNotFound = errors.New("script file not found")

	// ErrInvalidScriptFormat indicates the script has invalid format
	ErrInvalidScriptFormat = errors.New("invalid script format")

	// ErrJobIDParseFailed indicates parsing job ID from output failed
	ErrJobIDParseFailed = errors.New("failed to parse job ID from scheduler output")

	// ErrInvalidSubmitCommand indicates the configured submit command cannot be split into argv
	ErrInvalidSubmitCommand = errors.New("invalid submit command")

	// ErrMissingEnvironment indicates no conda environment was given for a directive file
	ErrMissingEnvironment = errors.New("conda environment name is required")

	// ErrMissingProgram indicates no program path was given for a directive file
	ErrMissingProgram = errors.New("program path is required")

	// ErrShortFlag indicates an env var key uses a single-dash flag
	ErrShortFlag = errors.New("short flags are not supported for environment variables")

	// ErrInvalidTimeFormat indicates time format is invalid
	ErrInvalidTimeFormat = errors.New("invalid time format")

	// ErrInvalidMemoryFormat indicates memory format is invalid
	ErrInvalidMemoryFormat = errors.New("invalid memory format")
)

// SubmissionError represents an error during job submission
type SubmissionError struct {
	Scheduler string // Scheduler name
	JobName   string // Job name
	Output    string // Scheduler output
	Err       error  // Underlying error
}

func (e *SubmissionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s submission failed for job %s: %v\nOutput: %s",
			e.Scheduler, e.JobName, e.Err, e.Output)
	}
	return fmt.Sprintf("%s submission failed for job %s: %v",
		e.Scheduler, e.JobName, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ScriptCreationError represents an error creating a batch script
type ScriptCreationError struct {
	JobName string // Job name
	Path    string // Script path
	Err     error  // Underlying error
}

func (e *ScriptCreationError) Error() string {
	return fmt.Sprintf("failed to create script for job %s at %s: %v",
		e.JobName, e.Path, e.Err)
}

func (e *ScriptCreationError) Unwrap() error {
	return e.Err
}

// ParseError represents an error reading a directive file back
type ParseError struct {
	Path    string // Script path
	Line    int    // Line number where error occurred
	Content string // Line content
	Reason  string // Reason for parse failure
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: parse error at line %d (%s): %s",
			e.Path, e.Line, e.Content, e.Reason)
	}
	return fmt.Sprintf("%s: parse error: %s", e.Path, e.Reason)
}

// Is lets errors.Is match ErrInvalidScriptFormat
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidScriptFormat
}

// NewSubmissionError creates a new SubmissionError
func NewSubmissionError(scheduler string, jobName string, output string, err error) *SubmissionError {
	return &SubmissionError{
		Scheduler: scheduler,
		JobName:   jobName,
		Output:    output,
		Err:       err,
	}
}

// NewScriptCreationError creates a new ScriptCreationError
func NewScriptCreationError(jobName string, path string, err error) *ScriptCreationError {
	return &ScriptCreationError{
		JobName: jobName,
		Path:    path,
		Err:     err,
	}
}

// NewParseError creates a new ParseError
func NewParseError(path string, line int, content string, reason string) *ParseError {
	return &ParseError{
		Path:    path,
		Line:    line,
		Content: content,
		Reason:  reason,
	}
}

// IsSubmissionError checks if an error is a SubmissionError
func IsSubmissionError(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}

// IsScriptCreationError checks if an error is a ScriptCreationError
func IsScriptCreationError(err error) bool {
	var sce *ScriptCreationError
	return errors.As(err, &sce)
}

// IsParseError checks if an error is a ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
