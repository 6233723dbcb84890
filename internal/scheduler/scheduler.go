// Package scheduler writes Slurm directive files around generated programs
// and submits them with sbatch.
package scheduler

import (
	"os"
	"os/exec"

	"github.com/Justype/slurmit/internal/utils"
)

// SchedulerType represents the type of job scheduler
type SchedulerType string

const (
	SchedulerUnknown SchedulerType = ""
	SchedulerSLURM   SchedulerType = "SLURM"
)

// SchedulerInfo holds information about the detected scheduler
type SchedulerInfo struct {
	Type       string // Scheduler type ("SLURM")
	Binary     string // Path to the submit binary (e.g., "/usr/bin/sbatch")
	Command    string // Submit command as configured (e.g., "ssh login01 sbatch")
	Version    string // Scheduler version (if available)
	Compatible bool   // Version supports everything this tool emits
	InJob      bool   // Whether we're currently inside a scheduled job
	Available  bool   // Whether scheduler is available for job submission
}

// ScriptSpec describes one directive file.
type ScriptSpec struct {
	Folder    string   // Where the directive file and default logs go
	Name      string   // File name; ".sh" is appended when missing
	Program   string   // Python program called by the last line
	CondaEnv  string   // Environment activated before the call
	Partition string   // Default partition; DefaultPartition when empty
	Options   *Options // Caller directives merged over the defaults
	Modules   []string // Loaded with `ml` before the environment

	SplitOutput bool // Separate --error log next to --output
	PrintJobID  bool // Echo $SLURM_JOB_ID at job start
	TagJobID    bool // Put %j in the default log name

	// EnvVarsToPass maps program flag -> shell variable. Every entry becomes
	// ` --<flag> $<var>` on the call line. A non-empty map implies TagJobID.
	EnvVarsToPass *utils.StringMap
}

// SubmitRequest describes one sbatch call.
type SubmitRequest struct {
	ScriptPath     string
	DependencyType string           // afterok when empty
	Dependency     Dependency       // no --dependency segment when empty
	EnvVars        *utils.StringMap // --export=k=v,... when non-empty
	DryRun         bool             // return the command instead of running it
}

// Scheduler defines the interface for job schedulers
type Scheduler interface {
	// IsAvailable checks if the scheduler is available and we're not already in a job
	IsAvailable() bool

	// GetInfo returns information about the scheduler
	GetInfo() *SchedulerInfo

	// CreateScript writes the directive file for spec and returns its path
	CreateScript(spec *ScriptSpec) (string, error)

	// Submit submits a directive file. It returns the job ID, or the composed
	// command when req.DryRun is set.
	Submit(req *SubmitRequest) (string, error)
}

// DetectSchedulerWithCommand initializes the scheduler from a submit command
// such as "sbatch" or "ssh login01 sbatch". An empty command looks sbatch up
// in PATH. The scheduler is returned whenever the binary exists, regardless
// of availability.
func DetectSchedulerWithCommand(command string) (Scheduler, error) {
	if command == "" {
		return NewSlurmScheduler()
	}
	s, err := NewSlurmSchedulerWithCommand(command)
	if err != nil {
		return nil, err
	}
	if s.sbatchBin == "" {
		return nil, ErrSchedulerNotFound
	}
	return s, nil
}

// Init auto-detects and initializes the active scheduler.
// Returns the detected scheduler type and any error.
func Init(command string) (SchedulerType, error) {
	sched, err := DetectSchedulerWithCommand(command)
	if err != nil {
		ClearActiveScheduler()
		return SchedulerUnknown, err
	}

	SetActiveScheduler(sched)
	return SchedulerType(sched.GetInfo().Type), nil
}

// DetectType returns the type of scheduler available on the system without initializing it.
func DetectType() SchedulerType {
	if _, err := exec.LookPath("sbatch"); err == nil {
		return SchedulerSLURM
	}
	return SchedulerUnknown
}

// IsInsideJob checks if we're currently running inside a Slurm job.
// Submitting from inside a job is allowed but usually unintended.
func IsInsideJob() bool {
	_, ok := os.LookupEnv("SLURM_JOB_ID")
	return ok
}
