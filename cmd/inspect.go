package cmd

import (
	"fmt"

	"github.com/Justype/slurmit/internal/config"
	"github.com/Justype/slurmit/internal/scheduler"
	"github.com/Justype/slurmit/internal/utils"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <script.sh>",
	Short: "Show the settings of a generated directive file",
	Long: `Read a directive file written by slurmit and show its sbatch options,
modules, conda environment and the program call.`,
	Example: `  slurmit inspect slurm/train.sh`,
	Args:              cobra.ExactArgs(1),
	SilenceUsage:      true,
	ValidArgsFunction: fileArgCompletion(utils.IsShellScript),
	RunE:              runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	sched, err := scheduler.NewSlurmSchedulerWithCommand(config.Global.Slurm.SubmitCommand)
	if err != nil {
		return err
	}
	ds, err := sched.ReadScript(args[0])
	if err != nil {
		if scheduler.IsParseError(err) {
			utils.PrintHint("Only directive files written by slurmit can be inspected.")
		}
		return err
	}

	// Structured output, no [SIT] prefix
	fmt.Println(utils.StyleTitle("Directive File:"), utils.StylePath(ds.Path))
	fmt.Println()
	fmt.Println(utils.StyleTitle("Options:"))
	for _, key := range ds.Options.Keys() {
		value, _ := ds.Options.Get(key)
		fmt.Printf("  %-12s %s\n", key, value)
	}
	if len(ds.Modules) > 0 {
		fmt.Println()
		fmt.Println(utils.StyleTitle("Modules:"))
		for _, m := range ds.Modules {
			fmt.Printf("  %s\n", utils.StyleName(m))
		}
	}
	fmt.Println()
	fmt.Printf("%s %s\n", utils.StyleTitle("Environment:"), utils.StyleName(ds.CondaEnv))
	fmt.Printf("%s %v\n", utils.StyleTitle("Print Job ID:"), ds.PrintJobID)
	fmt.Printf("%s %s\n", utils.StyleTitle("Program:"), utils.StylePath(ds.Program))
	if utils.StringMapLen(ds.EnvFlags) > 0 {
		fmt.Println(utils.StyleTitle("Batch Parameters:"))
		for pair := ds.EnvFlags.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Printf("  %s <- $%s\n", pair.Key, pair.Value)
		}
	}
	fmt.Printf("%s %s\n", utils.StyleTitle("Command:"), utils.StyleCommand(ds.Command))
	return nil
}
