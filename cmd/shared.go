package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Justype/slurmit/internal/config"
	"github.com/Justype/slurmit/internal/pyscript"
	"github.com/Justype/slurmit/internal/scheduler"
	"github.com/Justype/slurmit/internal/slurmit"
	"github.com/Justype/slurmit/internal/utils"
	"github.com/spf13/cobra"
)

// SlurmFlags holds the scheduling flags shared by run, script and submit
type SlurmFlags struct {
	Folder         string
	Name           string
	CondaEnv       string
	Partition      string
	Modules        []string
	Options        []string
	Dependency     []string
	DependencyType string
	BatchNames     []string
	BatchValues    []string
	Imports        []string
	FromImports    []string
	PrintJobID     bool
	SplitOutput    bool
	PathToString   bool
	DryRun         bool
}

// RegisterSlurmFlags registers the scheduling flags on a cobra command
func RegisterSlurmFlags(cmd *cobra.Command, flags *SlurmFlags) {
	cmd.Flags().StringVarP(&flags.Folder, "folder", "d", "", "folder for the program, directive file and logs (must exist)")
	cmd.Flags().StringVarP(&flags.Name, "name", "n", "", "base name of the generated files (default: function name)")
	cmd.Flags().StringVarP(&flags.CondaEnv, "env", "e", "", "conda environment activated in the job")
	cmd.Flags().StringVarP(&flags.Partition, "partition", "p", "", "Slurm partition")
	cmd.Flags().StringSliceVarP(&flags.Modules, "module", "m", nil, "module loaded with 'ml' before the environment (can be used multiple times)")
	cmd.Flags().StringArrayVarP(&flags.Options, "option", "o", nil, "sbatch option 'KEY=VALUE', e.g. mem=8G (can be used multiple times)")
	cmd.Flags().StringSliceVar(&flags.Dependency, "dependency", nil, "job IDs that must finish first, e.g. 123:456 or 123,456")
	cmd.Flags().StringVar(&flags.DependencyType, "dependency-type", "", "dependency type (default: afterok)")
	cmd.Flags().StringSliceVar(&flags.BatchNames, "batch-names", nil, "parameter names passed per job as environment variables")
	cmd.Flags().StringArrayVar(&flags.BatchValues, "batch-values", nil, "one YAML list of values per job, e.g. '[1, a]' (can be used multiple times)")
	cmd.Flags().StringSliceVar(&flags.Imports, "import", nil, "extra 'import X' line in the program")
	cmd.Flags().StringArrayVar(&flags.FromImports, "from-import", nil, "'MODULE=SYMBOL' selective import in the program; replaces the default import of the target (repeatable)")
	cmd.Flags().BoolVar(&flags.PrintJobID, "print-job-id", false, "echo the job ID at job start")
	cmd.Flags().BoolVar(&flags.SplitOutput, "split-output", false, "write a separate --error log")
	cmd.Flags().BoolVar(&flags.PathToString, "path-to-string", false, "render !path arguments as plain strings")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "write the files and print the sbatch commands without running them")

	cmd.RegisterFlagCompletionFunc("dependency-type", dependencyTypeCompletion)
	cmd.RegisterFlagCompletionFunc("folder", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})
}

// newJob builds a job for target from the global configuration.
func newJob(target slurmit.Target, args *pyscript.Arguments) *slurmit.Job {
	d := slurmit.DefaultsFromConfig(&config.Global)
	return &slurmit.Job{
		Target: target,
		Args:   args,
		Config: slurmit.Config{
			CondaEnv:    d.CondaEnv,
			Partition:   d.Partition,
			Modules:     d.Modules,
			Options:     d.SlurmOptions,
			PrintJobID:  d.PrintJobID,
			SplitOutput: d.SplitOutput,
		},
		Call: slurmit.CallOptions{UseSlurm: d.UseSlurm},
	}
}

// apply overrides job with every flag given on the command line.
func (f *SlurmFlags) apply(cmd *cobra.Command, job *slurmit.Job) error {
	changed := cmd.Flags().Changed

	if changed("folder") {
		folder, err := filepath.Abs(f.Folder)
		if err != nil {
			return fmt.Errorf("invalid folder %s: %w", f.Folder, err)
		}
		job.Call.SlurmFolder = folder
	}
	if changed("name") {
		job.Call.ScriptsName = f.Name
	}
	if changed("env") {
		job.Config.CondaEnv = f.CondaEnv
	}
	if changed("partition") {
		job.Config.Partition = f.Partition
	}
	if changed("module") {
		job.Config.Modules = f.Modules
	}
	if changed("import") {
		job.Config.Imports = f.Imports
	}
	if changed("from-import") {
		// Replaces the default `from <module> import <function>`, as
		// from_imports does in a manifest.
		fromImports := utils.NewStringMap()
		for _, pair := range f.FromImports {
			module, symbol, err := utils.ParseKeyValue(pair)
			if err != nil {
				return err
			}
			fromImports.Set(module, symbol)
		}
		job.Config.FromImports = fromImports
	}
	if changed("print-job-id") {
		job.Config.PrintJobID = f.PrintJobID
	}
	if changed("split-output") {
		job.Config.SplitOutput = f.SplitOutput
	}
	if changed("path-to-string") {
		job.Config.PathToString = f.PathToString
	}

	if changed("option") {
		opts, err := parseOptions(f.Options)
		if err != nil {
			return err
		}
		job.Call.SlurmOptions = job.Call.SlurmOptions.Clone().Merge(opts)
	}
	if changed("dependency") {
		var ids []string
		for _, d := range f.Dependency {
			ids = append(ids, strings.Split(d, ":")...)
		}
		job.Call.JobDependency = scheduler.After(ids...)
	}
	if changed("dependency-type") {
		job.Call.DependencyType = f.DependencyType
	}
	if changed("batch-names") {
		job.Call.BatchParamNames = f.BatchNames
	}
	if changed("batch-values") {
		tuples, err := parseTuples(f.BatchValues)
		if err != nil {
			return err
		}
		job.Call.BatchParamList = tuples
	}

	job.Call.DryRun = f.DryRun
	if localMode {
		job.Call.UseSlurm = false
	}
	return nil
}

// parseOptions reads KEY=VALUE sbatch options, keeping their order.
func parseOptions(pairs []string) (*scheduler.Options, error) {
	opts := scheduler.NewOptions()
	for _, pair := range pairs {
		key, value, err := utils.ParseKeyValue(pair)
		if err != nil {
			return nil, err
		}
		opts.Set(key, value)
	}
	return opts, nil
}

// parseTuples reads one YAML flow list per batch job.
func parseTuples(raw []string) ([][]any, error) {
	tuples := make([][]any, 0, len(raw))
	for i, s := range raw {
		v, err := slurmit.ParseValue(s)
		if err != nil {
			return nil, fmt.Errorf("batch values %d: %w", i+1, err)
		}
		switch t := v.(type) {
		case []any:
			tuples = append(tuples, t)
		case pyscript.Tuple:
			tuples = append(tuples, []any(t))
		default:
			// A single value is a one-element tuple.
			tuples = append(tuples, []any{t})
		}
	}
	return tuples, nil
}

// schedulerFor returns the active scheduler, or an offline one when the
// job only needs files written and commands composed.
func schedulerFor(offline bool) scheduler.Scheduler {
	if sched := scheduler.ActiveScheduler(); sched != nil {
		return sched
	}
	if !offline {
		return nil
	}
	sched, err := scheduler.NewSlurmSchedulerWithCommand(config.Global.Slurm.SubmitCommand)
	if err != nil {
		utils.PrintDebug("Failed to set up offline scheduler: %v", err)
		return nil
	}
	return sched
}

// runJob calls job with the configured scheduler and local runner.
func runJob(job *slurmit.Job) (*slurmit.Result, error) {
	opts := []slurmit.Option{
		slurmit.WithRunner(&slurmit.PythonRunner{Bin: config.Global.PythonBin, Stream: true}),
	}
	if sched := schedulerFor(job.Call.DryRun); sched != nil {
		opts = append(opts, slurmit.WithScheduler(sched))
	}
	return job.Run(opts...)
}

// printResult reports what a job did. Job IDs go to stdout alone in quiet
// mode so they can be captured by a shell.
func printResult(result *slurmit.Result, dryRun bool) {
	if result == nil {
		return
	}
	ids := result.JobIDs
	if result.JobID != "" {
		ids = []string{result.JobID}
	}
	if len(ids) == 0 {
		if result.Value != nil {
			fmt.Fprintln(utils.Stdout, formatValue(result.Value))
		}
		return
	}

	if result.ProgramPath != "" {
		utils.PrintNote("Program: %s", utils.StylePath(result.ProgramPath))
		utils.PrintNote("Script:  %s", utils.StylePath(result.ScriptPath))
	}
	for _, id := range ids {
		switch {
		case dryRun:
			fmt.Println(id)
		case utils.QuietMode:
			fmt.Println(id)
		default:
			utils.PrintSuccess("Submitted job %s", utils.StyleNumber(id))
		}
	}
}

// formatValue renders a local run's return value as a Python literal.
// Values without a literal form fall back to their Go formatting.
func formatValue(v any) string {
	lit, err := pyscript.Literal(v, pyscript.LiteralOptions{})
	if err != nil {
		return fmt.Sprint(v)
	}
	return lit
}

// Exit codes used by various commands
const (
	// Generic error code
	ExitCodeError = 1
	// Returned when a call is rejected before anything is written
	ExitCodeUsage = 2
	// Returned when sbatch rejects a directive file
	ExitCodeSubmit = 3
)

// ============================================================================
// Shell Completion Functions
// ============================================================================

// dependencyTypeCompletion completes --dependency-type
func dependencyTypeCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	types := scheduler.DependencyTypes()
	suggestions := make([]string, 0, len(types))
	for _, t := range types {
		if strings.HasPrefix(t, toComplete) {
			suggestions = append(suggestions, t)
		}
	}
	return suggestions, cobra.ShellCompDirectiveNoFileComp
}

// findLocalFilesWithFilter is a shared helper for finding local files recursively
// up to maxDepth, skipping hidden entries
func findLocalFilesWithFilter(toComplete string, maxDepth int, fileFilter func(name string) bool) []string {
	pathDir, _ := filepath.Split(toComplete)
	dirForRead := pathDir
	if dirForRead == "" {
		dirForRead = "."
	}

	suggestions := []string{}

	var findFiles func(dir string, prefix string, currentDepth int)
	findFiles = func(dir string, prefix string, currentDepth int) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}

		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}

			candidate := name
			if prefix != "" {
				candidate = prefix + name
			}

			if entry.IsDir() {
				if currentDepth < maxDepth {
					findFiles(filepath.Join(dir, name), candidate+"/", currentDepth+1)
				}
			} else if fileFilter(name) {
				if toComplete == "" || strings.HasPrefix(candidate, toComplete) {
					suggestions = append(suggestions, candidate)
				}
			}
		}
	}

	findFiles(dirForRead, pathDir, 0)
	sort.Strings(suggestions)
	return suggestions
}

// fileArgCompletion completes the first positional argument with local files
// accepted by filter
func fileArgCompletion(filter func(name string) bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return findLocalFilesWithFilter(toComplete, 1, filter), cobra.ShellCompDirectiveNoFileComp
	}
}
