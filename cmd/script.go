package cmd

import (
	"fmt"

	"github.com/Justype/slurmit/internal/slurmit"
	"github.com/Justype/slurmit/internal/utils"
	"github.com/spf13/cobra"
)

var scriptFlags SlurmFlags

var scriptCmd = &cobra.Command{
	Use:   "script [flags] <module:function> [name=value...]",
	Short: "Write the program and directive file without submitting",
	Long: `Write the program and the directive file for a function call, exactly as
run would, but do not submit anything. The two paths are printed.

Submit later with 'sbatch <script>' or inspect with 'slurmit inspect'.`,
	Example: `  slurmit script mypkg.models:train -d slurm -e torch lr=0.01
  slurmit script mypkg.models:train -d slurm --batch-names seed --batch-values 1`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
	RegisterSlurmFlags(scriptCmd, &scriptFlags)
	scriptCmd.Flags().MarkHidden("dry-run")
	scriptCmd.Flags().MarkHidden("dependency")
	scriptCmd.Flags().MarkHidden("dependency-type")
}

func runScript(cmd *cobra.Command, args []string) error {
	target, err := slurmit.ParseTarget(args[0])
	if err != nil {
		return err
	}
	callArgs, err := slurmit.ParseArguments(args[1:])
	if err != nil {
		return err
	}

	job := newJob(target, callArgs)
	if err := scriptFlags.apply(cmd, job); err != nil {
		return err
	}

	sched := schedulerFor(true)
	if sched == nil {
		return slurmit.ErrNoScheduler
	}
	w, err := slurmit.Wrap(job.Target, job.Config, slurmit.WithScheduler(sched))
	if err != nil {
		return err
	}
	prepared, err := w.Prepare(job.Args, job.Call)
	if err != nil {
		return err
	}

	if utils.QuietMode {
		fmt.Println(prepared.ProgramPath)
		fmt.Println(prepared.ScriptPath)
		return nil
	}
	utils.PrintSuccess("Program written: %s", utils.StylePath(prepared.ProgramPath))
	utils.PrintSuccess("Script written:  %s", utils.StylePath(prepared.ScriptPath))
	if len(prepared.EnvVarNames) > 0 {
		utils.PrintHint("Pass %v with sbatch --export=NAME=VALUE,...", prepared.EnvVarNames)
	}
	return nil
}
