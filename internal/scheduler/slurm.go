package scheduler

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"golang.org/x/mod/semver"

	"github.com/Justype/slurmit/internal/utils"
)

const (
	// DefaultPartition is used when neither the caller nor the config names one
	DefaultPartition = "cpu"

	// DefaultSubmitCommand is the submit command when none is configured
	DefaultSubmitCommand = "sbatch"

	// JobIDPlaceholder is expanded by Slurm to the job ID in log file names
	JobIDPlaceholder = "%j"

	// JobIDEcho is written when the job should print its ID at start
	JobIDEcho = `echo "Job ID: $SLURM_JOB_ID"`

	// minSlurmVersion is the first release accepting --export=NAME=value
	minSlurmVersion = "v2.0.0"
)

// SlurmScheduler implements the Scheduler interface for SLURM
type SlurmScheduler struct {
	submitCommand string   // as configured, used verbatim in dry runs
	submitArgv    []string // submitCommand split like a shell would
	sbatchBin     string   // resolved submitArgv[0]; empty when not found
	directiveRe   *regexp.Regexp
}

// NewSlurmScheduler creates a new SLURM scheduler instance using sbatch from PATH
func NewSlurmScheduler() (*SlurmScheduler, error) {
	s, err := NewSlurmSchedulerWithCommand(DefaultSubmitCommand)
	if err != nil {
		return nil, err
	}
	if s.sbatchBin == "" {
		return nil, ErrSchedulerNotFound
	}
	return s, nil
}

// NewSlurmSchedulerWithBinary creates a SLURM scheduler using an explicit sbatch path
func NewSlurmSchedulerWithBinary(sbatchBin string) (*SlurmScheduler, error) {
	binPath := sbatchBin
	if absPath, err := filepath.Abs(binPath); err == nil {
		binPath = absPath
	}
	info, err := os.Stat(binPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSchedulerNotFound, binPath)
	}
	return newSlurmScheduler(shellquote.Join(binPath), []string{binPath}, binPath), nil
}

// NewSlurmSchedulerWithCommand creates a SLURM scheduler from a submit
// command line, e.g. "sbatch" or "ssh login01 sbatch". The command is split
// with shell quoting rules. A first word that cannot be found leaves the
// scheduler unavailable but still usable for dry runs.
func NewSlurmSchedulerWithCommand(command string) (*SlurmScheduler, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSubmitCommand, command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidSubmitCommand)
	}

	binPath, err := exec.LookPath(argv[0])
	if err != nil {
		utils.PrintDebug("Submit binary %s not found: %v", argv[0], err)
		binPath = ""
	}
	return newSlurmScheduler(strings.TrimSpace(command), argv, binPath), nil
}

func newSlurmScheduler(command string, argv []string, binPath string) *SlurmScheduler {
	return &SlurmScheduler{
		submitCommand: command,
		submitArgv:    argv,
		sbatchBin:     binPath,
		directiveRe:   regexp.MustCompile(`^\s*#SBATCH\s+(.+)$`),
	}
}

// IsAvailable checks if sbatch can be run and we're not inside a SLURM job
func (s *SlurmScheduler) IsAvailable() bool {
	if s.sbatchBin == "" {
		return false
	}
	return !IsInsideJob()
}

// GetInfo returns information about the SLURM scheduler
func (s *SlurmScheduler) GetInfo() *SchedulerInfo {
	info := &SchedulerInfo{
		Type:      string(SchedulerSLURM),
		Binary:    s.sbatchBin,
		Command:   s.submitCommand,
		InJob:     IsInsideJob(),
		Available: s.IsAvailable(),
	}

	if s.sbatchBin != "" {
		if version, err := s.getSlurmVersion(); err == nil {
			info.Version = version
			info.Compatible = versionSupportsExport(version)
		} else {
			utils.PrintDebug("Failed to query Slurm version: %v", err)
		}
	}

	return info
}

// getSlurmVersion attempts to get the SLURM version
func (s *SlurmScheduler) getSlurmVersion() (string, error) {
	args := append(append([]string{}, s.submitArgv[1:]...), "--version")
	output, err := exec.Command(s.sbatchBin, args...).Output()
	if err != nil {
		return "", err
	}

	// Parse version from output like "slurm 23.02.6"
	versionStr := strings.TrimSpace(string(output))
	parts := strings.Fields(versionStr)
	if len(parts) >= 2 {
		return parts[1], nil
	}

	return versionStr, nil
}

// canonicalVersion turns "23.02.6" into "v23.2.6" for semver comparison.
func canonicalVersion(version string) string {
	core, _, _ := strings.Cut(strings.TrimPrefix(version, "v"), "-")
	parts := strings.Split(core, ".")
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return ""
		}
		parts[i] = strconv.Itoa(n)
	}
	return semver.Canonical("v" + strings.Join(parts, "."))
}

func versionSupportsExport(version string) bool {
	v := canonicalVersion(version)
	if v == "" {
		return false
	}
	return semver.Compare(v, minSlurmVersion) >= 0
}

// DefaultOptions returns a fresh default directive set for a script named
// scriptName in folder. With tagJobID the log name carries %j; with split
// the error log is derived from the output log.
func DefaultOptions(folder, scriptName, partition string, tagJobID, split bool) *Options {
	if partition == "" {
		partition = DefaultPartition
	}
	base := strings.TrimSuffix(normalizeScriptName(scriptName), ScriptSuffix)
	if tagJobID {
		base += "_" + JobIDPlaceholder
	}
	output := filepath.Join(folder, base+".out")

	opts := NewOptions().
		Set("ntasks", 1).
		Set("time", "12:00:00").
		Set("mem", "32G").
		Set("partition", partition).
		Set("output", output)
	if split {
		opts.Set("error", utils.ReplaceExt(output, ".err"))
	}
	return opts
}

// MergedOptions returns the directives CreateScript writes for spec.
func MergedOptions(spec *ScriptSpec) *Options {
	tag := spec.TagJobID || utils.StringMapLen(spec.EnvVarsToPass) > 0
	opts := DefaultOptions(spec.Folder, spec.Name, spec.Partition, tag, spec.SplitOutput)
	opts.Merge(spec.Options)

	// A caller-chosen output log still gets its own error log.
	if spec.SplitOutput && spec.Options.Has("output") && !spec.Options.Has("error") {
		output, _ := opts.Get("output")
		opts.Set("error", utils.ReplaceExt(output, ".err"))
	}
	return opts
}

// callLine renders `python <program> [--flag $var]*`.
func callLine(program string, envVars *utils.StringMap) (string, error) {
	var b strings.Builder
	b.WriteString("python ")
	b.WriteString(program)
	if envVars != nil {
		for pair := envVars.Oldest(); pair != nil; pair = pair.Next() {
			flag, err := envFlag(pair.Key)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, " %s $%s", flag, pair.Value)
		}
	}
	return b.String(), nil
}

// writeScript writes the directive file body to w.
func writeScript(w io.Writer, opts *Options, modules []string, printJobID bool, condaEnv, call string) {
	fmt.Fprintln(w, "#!/bin/bash")
	for _, d := range opts.Directives() {
		fmt.Fprintf(w, "#SBATCH %s\n", d)
	}
	for _, module := range modules {
		fmt.Fprintf(w, "ml %s\n", module)
	}
	if printJobID {
		fmt.Fprintln(w, JobIDEcho)
	}

	// Conda environment activation
	fmt.Fprintln(w, "ml Anaconda3")
	fmt.Fprintln(w, "source activate base")
	fmt.Fprintf(w, "conda activate %s\n", condaEnv)
	fmt.Fprintf(w, "export LD_LIBRARY_PATH=$LD_LIBRARY_PATH:~/.conda/envs/%s/lib/\n", condaEnv)
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, call)
}

// RenderScript returns the directive file text for spec without writing it.
func (s *SlurmScheduler) RenderScript(spec *ScriptSpec) (string, error) {
	var buf bytes.Buffer
	if err := s.renderScript(&buf, spec); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *SlurmScheduler) renderScript(w io.Writer, spec *ScriptSpec) error {
	if strings.TrimSpace(spec.CondaEnv) == "" {
		return ErrMissingEnvironment
	}
	if strings.TrimSpace(spec.Program) == "" {
		return ErrMissingProgram
	}

	call, err := callLine(spec.Program, spec.EnvVarsToPass)
	if err != nil {
		return err
	}

	opts := MergedOptions(spec)
	checkResourceOptions(opts)

	writeScript(w, opts, spec.Modules, spec.PrintJobID, spec.CondaEnv, call)
	return nil
}

// CreateScript writes the directive file described by spec into spec.Folder
// and makes it executable. The folder must exist. Returns the script path.
func (s *SlurmScheduler) CreateScript(spec *ScriptSpec) (string, error) {
	name := normalizeScriptName(spec.Name)
	scriptPath := filepath.Join(spec.Folder, name)

	if !utils.DirExists(spec.Folder) {
		return "", NewScriptCreationError(name, scriptPath, fmt.Errorf("folder %s does not exist", spec.Folder))
	}

	// Render first so a rejected spec leaves no file behind.
	var buf bytes.Buffer
	if err := s.renderScript(&buf, spec); err != nil {
		return "", NewScriptCreationError(name, scriptPath, err)
	}

	file, err := os.Create(scriptPath)
	if err != nil {
		return "", NewScriptCreationError(name, scriptPath, err)
	}
	writer := bufio.NewWriter(file)
	if _, err := buf.WriteTo(writer); err != nil {
		file.Close()
		return "", NewScriptCreationError(name, scriptPath, err)
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return "", NewScriptCreationError(name, scriptPath, err)
	}
	if err := file.Close(); err != nil {
		return "", NewScriptCreationError(name, scriptPath, err)
	}

	// Make executable
	if err := os.Chmod(scriptPath, utils.PermExec); err != nil {
		return "", NewScriptCreationError(name, scriptPath, err)
	}

	utils.PrintDebug("Wrote directive file %s", utils.StylePath(scriptPath))
	return scriptPath, nil
}

// SubmitArgs returns the arguments appended to the submit command:
// the export segment, then the dependency segment, then the script path.
func SubmitArgs(req *SubmitRequest) []string {
	var args []string
	if utils.StringMapLen(req.EnvVars) > 0 {
		pairs := make([]string, 0, req.EnvVars.Len())
		for pair := req.EnvVars.Oldest(); pair != nil; pair = pair.Next() {
			pairs = append(pairs, pair.Key+"="+pair.Value)
		}
		args = append(args, "--export="+strings.Join(pairs, ","))
	}
	if dep := req.Dependency.Flag(req.DependencyType); dep != "" {
		args = append(args, dep)
	}
	return append(args, req.ScriptPath)
}

// Command returns the full submit command line as a single string.
func (s *SlurmScheduler) Command(req *SubmitRequest) string {
	return strings.Join(append([]string{s.submitCommand}, SubmitArgs(req)...), " ")
}

// Submit runs the submit command for req and returns the job ID, the last
// whitespace-separated word sbatch prints. With req.DryRun the command is
// returned instead and nothing runs.
func (s *SlurmScheduler) Submit(req *SubmitRequest) (string, error) {
	if req.DryRun {
		return s.Command(req), nil
	}
	if s.sbatchBin == "" {
		return "", fmt.Errorf("%w: %s", ErrSchedulerNotFound, s.submitArgv[0])
	}

	args := append(append([]string{}, s.submitArgv[1:]...), SubmitArgs(req)...)
	utils.PrintDebug("Executing: %s", utils.StyleCommand(s.Command(req)))

	cmd := exec.Command(s.sbatchBin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", NewSubmissionError("SLURM", filepath.Base(req.ScriptPath), strings.TrimSpace(stderr.String()), err)
	}

	fields := strings.Fields(stdout.String())
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty output from %s", ErrJobIDParseFailed, s.submitCommand)
	}
	return fields[len(fields)-1], nil
}

// DirectiveScript is a directive file read back from disk.
type DirectiveScript struct {
	Path       string
	Options    *Options
	Modules    []string
	CondaEnv   string
	PrintJobID bool
	Command    string           // final python call line
	Program    string           // program path from the call line
	EnvFlags   *utils.StringMap // program flag -> shell variable
}

// ReadScript parses a directive file written by CreateScript.
func (s *SlurmScheduler) ReadScript(scriptPath string) (*DirectiveScript, error) {
	lines, err := readFileLines(scriptPath)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "#!") {
		return nil, NewParseError(scriptPath, 1, "", "missing shebang")
	}

	ds := &DirectiveScript{
		Path:     scriptPath,
		Options:  NewOptions(),
		EnvFlags: utils.NewStringMap(),
	}

	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "":
			continue
		case s.directiveRe.MatchString(line):
			directive := s.directiveRe.FindStringSubmatch(line)[1]
			key, value, err := utils.ParseKeyValue(strings.TrimSpace(directive))
			if err != nil || !strings.HasPrefix(key, "--") {
				utils.PrintWarning("Skipping unsupported directive at line %d: %s", i+1, line)
				continue
			}
			ds.Options.Set(key, value)
		case line == "ml Anaconda3" && i+1 < len(lines) && strings.TrimSpace(lines[i+1]) == "source activate base":
			i++
		case strings.HasPrefix(line, "conda activate "):
			ds.CondaEnv = strings.TrimSpace(strings.TrimPrefix(line, "conda activate "))
		case line == JobIDEcho:
			ds.PrintJobID = true
		case strings.HasPrefix(line, "python "):
			if err := ds.parseCall(line); err != nil {
				return nil, NewParseError(scriptPath, i+1, line, err.Error())
			}
		default:
			if modules, ok := utils.ParseModuleLine(line); ok {
				ds.Modules = append(ds.Modules, modules...)
			}
		}
	}

	if ds.Command == "" {
		return nil, NewParseError(scriptPath, 0, "", "no python call found")
	}
	return ds, nil
}

func (ds *DirectiveScript) parseCall(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fmt.Errorf("python call without program")
	}
	if len(fields[2:])%2 != 0 {
		return fmt.Errorf("unpaired program flag")
	}
	for i := 2; i+1 < len(fields); i += 2 {
		ds.EnvFlags.Set(fields[i], strings.TrimPrefix(fields[i+1], "$"))
	}
	ds.Command = line
	ds.Program = fields[1]
	return nil
}
