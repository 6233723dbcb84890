package cmd

import (
	"github.com/Justype/slurmit/internal/slurmit"
	"github.com/Justype/slurmit/internal/utils"
	"github.com/spf13/cobra"
)

var runFlags SlurmFlags

var runCmd = &cobra.Command{
	Use:   "run [flags] <module:function> [name=value...]",
	Short: "Call a Python function, on Slurm or locally",
	Long: `Call a Python function with literal keyword arguments.

With job submission enabled (the default) a program calling the function and
a directive file are written to --folder, then submitted with sbatch. With
--local the program runs through the configured python interpreter and
nothing is written.

Argument values are read as YAML, so 3 is an int, 0.5 a float, [1, 2] a list
and {a: 1} a dict. Use !path to pass a pathlib path and !tuple for a tuple.

With --batch-names and --batch-values one job is submitted per value list.
Batch parameters reach the program as environment variables, so all jobs
share one program and one directive file.`,
	Example: `  slurmit run mypkg.models:train -d slurm -e torch lr=0.01 epochs=20
  slurmit run mypkg.io:load -d slurm path='!path /scratch/data'
  slurmit run mypkg.models:train -d slurm -o mem=64G -o gres=gpu:1 lr=0.01
  slurmit --local run mypkg.models:score n=3

  # Dependency chaining example
  JOB=$(slurmit -q run mypkg.steps:align -d slurm sample=s1)
  slurmit run mypkg.steps:quant -d slurm --dependency "$JOB" sample=s1

  # One job per seed
  slurmit run mypkg.models:train -d slurm --batch-names seed --batch-values 1 --batch-values 2`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true, // Runtime errors should not show usage
	RunE:         runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	RegisterSlurmFlags(runCmd, &runFlags)
}

func runRun(cmd *cobra.Command, args []string) error {
	target, err := slurmit.ParseTarget(args[0])
	if err != nil {
		return err
	}
	callArgs, err := slurmit.ParseArguments(args[1:])
	if err != nil {
		return err
	}

	job := newJob(target, callArgs)
	if err := runFlags.apply(cmd, job); err != nil {
		return err
	}

	if job.Call.UseSlurm {
		utils.PrintDebug("Scheduling %s with %d argument(s)", utils.StyleName(target.String()), callArgs.Len())
	} else {
		utils.PrintDebug("Running %s locally", utils.StyleName(target.String()))
	}

	result, err := runJob(job)
	if err != nil {
		return err
	}
	printResult(result, job.Call.DryRun)
	return nil
}
