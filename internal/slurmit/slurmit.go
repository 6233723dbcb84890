// Package slurmit redirects a function call to Slurm. A wrapped target is
// either run in place or turned into a generated Python program plus a
// directive file, which are then submitted once or once per batch tuple.
package slurmit

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Justype/slurmit/internal/pyscript"
	"github.com/Justype/slurmit/internal/scheduler"
	"github.com/Justype/slurmit/internal/utils"
)

// LocalFunc is the Go side of a target, called when scheduling is off.
type LocalFunc func(args *pyscript.Arguments) (any, error)

// Target names the function to call.
type Target struct {
	Module string    // module the function is imported from; may be empty
	Name   string    // function name
	Local  LocalFunc // optional in-process implementation
}

// String renders "module:name".
func (t Target) String() string {
	if t.Module == "" {
		return t.Name
	}
	return t.Module + ":" + t.Name
}

// ParseTarget parses "pkg.module:function" or a bare "function".
func ParseTarget(s string) (Target, error) {
	module, name, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		module, name = "", module
	}
	if name == "" || strings.Contains(name, ":") {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	return Target{Module: module, Name: name}, nil
}

// Config is the wrap-time configuration. Wrap takes a private copy, so
// later changes by the caller do not leak into calls.
type Config struct {
	CondaEnv     string
	Partition    string
	Modules      []string
	Options      *scheduler.Options
	Imports      []string
	FromImports  *utils.StringMap // defaults to {Target.Module: Target.Name}
	PrintJobID   bool
	SplitOutput  bool
	PathToString bool
}

func (c Config) clone() Config {
	out := c
	out.Modules = append([]string(nil), c.Modules...)
	out.Imports = append([]string(nil), c.Imports...)
	out.Options = c.Options.Clone()
	if c.FromImports != nil {
		out.FromImports = utils.CloneStringMap(c.FromImports)
	}
	return out
}

// CallOptions are the per-call controls layered on top of the function's
// own arguments.
type CallOptions struct {
	UseSlurm        bool
	DependencyType  string               // afterok when empty
	JobDependency   scheduler.Dependency // all must satisfy DependencyType
	SlurmFolder     string               // holds program, directive file and logs
	ScriptsName     string               // base name; defaults to the function name
	SlurmOptions    *scheduler.Options   // merged over Config.Options
	BatchParamNames []string
	BatchParamList  [][]any
	DryRun          bool // compose sbatch commands without running them
}

// Result of a call. For a local run only Value is set. For a dry run the
// job IDs are the composed sbatch commands.
type Result struct {
	Value       any
	JobID       string
	JobIDs      []string
	ProgramPath string
	ScriptPath  string
}

// Prepared is a generated program and directive file ready for dispatch.
type Prepared struct {
	ProgramPath string
	ScriptPath  string
	EnvVarNames []string // batch parameter names, in order
}

// LocalRunner runs a synthesized program in place of the scheduler.
type LocalRunner interface {
	Run(p *pyscript.Program) (any, error)
}

// Option customizes a Wrapped target.
type Option func(*Wrapped)

// WithScheduler sets the scheduler; the active one is used otherwise.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(w *Wrapped) { w.sched = s }
}

// WithRunner sets how targets without a LocalFunc run locally.
func WithRunner(r LocalRunner) Option {
	return func(w *Wrapped) { w.runner = r }
}

// Wrapped is a target bound to its wrap-time configuration.
type Wrapped struct {
	target Target
	cfg    Config
	sched  scheduler.Scheduler
	runner LocalRunner
}

// Wrap binds target to a snapshot of cfg.
func Wrap(target Target, cfg Config, opts ...Option) (*Wrapped, error) {
	if strings.TrimSpace(target.Name) == "" {
		return nil, ErrInvalidTarget
	}
	w := &Wrapped{target: target, cfg: cfg.clone()}
	if utils.StringMapLen(w.cfg.FromImports) == 0 && target.Module != "" {
		w.cfg.FromImports = utils.NewStringMap(target.Module, target.Name)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Target returns the wrapped target.
func (w *Wrapped) Target() Target {
	return w.target
}

func (w *Wrapped) resolveScheduler() (scheduler.Scheduler, error) {
	if w.sched != nil {
		return w.sched, nil
	}
	if s := scheduler.ActiveScheduler(); s != nil {
		return s, nil
	}
	return nil, ErrNoScheduler
}

// Call runs the target with args, locally or through Slurm according to
// opts. args is never modified.
func (w *Wrapped) Call(args *pyscript.Arguments, opts CallOptions) (*Result, error) {
	dep := scheduler.After(opts.JobDependency...)

	if !opts.UseSlurm {
		if !dep.IsNone() {
			return nil, newConfigError("job_dependency", fmt.Errorf("%w: got %s", ErrDependencyWithoutSlurm, dep))
		}
		value, err := w.runLocal(args)
		if err != nil {
			return nil, err
		}
		return &Result{Value: value}, nil
	}

	sched, err := w.resolveScheduler()
	if err != nil {
		return nil, err
	}

	prepared, err := w.prepare(sched, args, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ProgramPath: prepared.ProgramPath,
		ScriptPath:  prepared.ScriptPath,
	}

	req := &scheduler.SubmitRequest{
		ScriptPath:     prepared.ScriptPath,
		DependencyType: opts.DependencyType,
		Dependency:     dep,
		DryRun:         opts.DryRun,
	}

	if len(prepared.EnvVarNames) == 0 {
		jobID, err := sched.Submit(req)
		if err != nil {
			return result, err
		}
		result.JobID = jobID
		return result, nil
	}

	jobIDs, err := submitBatch(sched, req, prepared.EnvVarNames, opts.BatchParamList)
	result.JobIDs = jobIDs
	return result, err
}

// Prepare writes the program and directive file for a scheduled call
// without submitting it.
func (w *Wrapped) Prepare(args *pyscript.Arguments, opts CallOptions) (*Prepared, error) {
	sched, err := w.resolveScheduler()
	if err != nil {
		return nil, err
	}
	return w.prepare(sched, args, opts)
}

func (w *Wrapped) prepare(sched scheduler.Scheduler, args *pyscript.Arguments, opts CallOptions) (*Prepared, error) {
	if opts.SlurmFolder == "" {
		return nil, newConfigError("slurm_folder", ErrMissingFolder)
	}
	if !utils.DirExists(opts.SlurmFolder) {
		return nil, newConfigError("slurm_folder", fmt.Errorf("%w: %s", pyscript.ErrTargetDirMissing, opts.SlurmFolder))
	}
	if strings.TrimSpace(w.cfg.CondaEnv) == "" {
		return nil, newConfigError("conda_env", ErrMissingCondaEnv)
	}

	var batchNames []string
	if len(opts.BatchParamNames) > 0 || len(opts.BatchParamList) > 0 {
		if err := ValidateBatch(opts.BatchParamNames, opts.BatchParamList); err != nil {
			return nil, newConfigError("batch", err)
		}
		batchNames = opts.BatchParamNames
	}

	// "job" and "job.sh" both name the pair job.py / job.sh.
	name := strings.TrimSuffix(opts.ScriptsName, scheduler.ScriptSuffix)
	if name == "" {
		name = w.target.Name
	}
	programPath := filepath.Join(opts.SlurmFolder, name+".py")

	callArgs := args.Clone()
	varsToParse := utils.NewStringMap()
	for _, p := range batchNames {
		if v, ok := callArgs.Delete(p); ok {
			utils.PrintNote("Parameter %s=%v is removed from the call; it will be passed as environment variable", utils.StyleName(p), v)
		}
		varsToParse.Set(p, p)
	}

	program := &pyscript.Program{
		Function:     w.target.Name,
		Arguments:    callArgs,
		VarsToParse:  varsToParse,
		Imports:      w.cfg.Imports,
		FromImports:  w.cfg.FromImports,
		PathToString: w.cfg.PathToString,
	}
	if err := pyscript.Synthesize(programPath, program); err != nil {
		return nil, err
	}

	// Fresh merge per call; the wrap-time options stay untouched.
	options := w.cfg.Options.Clone().Merge(opts.SlurmOptions)

	scriptPath, err := sched.CreateScript(&scheduler.ScriptSpec{
		Folder:        opts.SlurmFolder,
		Name:          name,
		Program:       programPath,
		CondaEnv:      w.cfg.CondaEnv,
		Partition:     w.cfg.Partition,
		Options:       options,
		Modules:       w.cfg.Modules,
		SplitOutput:   w.cfg.SplitOutput,
		PrintJobID:    w.cfg.PrintJobID,
		EnvVarsToPass: varsToParse,
	})
	if err != nil {
		return nil, err
	}

	return &Prepared{
		ProgramPath: programPath,
		ScriptPath:  scriptPath,
		EnvVarNames: batchNames,
	}, nil
}

func (w *Wrapped) runLocal(args *pyscript.Arguments) (any, error) {
	if w.target.Local != nil {
		return w.target.Local(args.Clone())
	}
	if w.runner == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoLocalRunner, w.target)
	}
	return w.runner.Run(&pyscript.Program{
		Function:     w.target.Name,
		Arguments:    args.Clone(),
		Imports:      w.cfg.Imports,
		FromImports:  w.cfg.FromImports,
		PathToString: w.cfg.PathToString,
	})
}
