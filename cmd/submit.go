package cmd

import (
	"github.com/Justype/slurmit/internal/config"
	"github.com/Justype/slurmit/internal/slurmit"
	"github.com/Justype/slurmit/internal/utils"
	"github.com/spf13/cobra"
)

var submitFlags SlurmFlags

var submitCmd = &cobra.Command{
	Use:   "submit [flags] <job.yaml>",
	Short: "Submit a job described in a YAML manifest",
	Long: `Submit a job described in a YAML manifest.

The manifest names the function, its arguments and the scheduling options.
Values it leaves out come from the configuration. Flags given on the command
line override the manifest.

  function: train
  module: mypkg.models
  args:
    lr: 0.01
    data: !path /scratch/data
  conda_env: torch
  folder: slurm            # relative to the manifest
  slurm_options:
    mem: 64G
    gres: gpu:1
  dependency: [123, 456]
  batch:
    names: [seed]
    values: [[1], [2], [3]]`,
	Example: `  slurmit submit train.yaml
  slurmit submit train.yaml --dry-run
  slurmit submit train.yaml --dependency 123 -o time=02:00:00`,
	Args:              cobra.ExactArgs(1),
	SilenceUsage:      true,
	ValidArgsFunction: fileArgCompletion(utils.IsYaml),
	RunE:              runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	RegisterSlurmFlags(submitCmd, &submitFlags)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	manifest, err := slurmit.LoadManifest(args[0])
	if err != nil {
		return err
	}
	job, err := manifest.Job(slurmit.DefaultsFromConfig(&config.Global))
	if err != nil {
		return err
	}
	if err := submitFlags.apply(cmd, job); err != nil {
		return err
	}

	utils.PrintDebug("Manifest %s resolved to %s", utils.StylePath(args[0]), utils.StyleName(job.Target.String()))
	result, err := runJob(job)
	if err != nil {
		return err
	}
	printResult(result, job.Call.DryRun)
	return nil
}
