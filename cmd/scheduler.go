package cmd

import (
	"fmt"

	"github.com/Justype/slurmit/internal/config"
	"github.com/Justype/slurmit/internal/scheduler"
	"github.com/Justype/slurmit/internal/utils"
	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:     "scheduler",
	Aliases: []string{"sched"},
	Short:   "Display scheduler information",
	Long: `Display information about the Slurm installation used for submission.

Shows the submit command, the sbatch binary, its version and whether jobs can
be submitted from here.`,
	Example: `  slurmit scheduler           # Show scheduler information
  slurmit sched              # Short alias`,
	Run: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) {
	sched, err := scheduler.DetectSchedulerWithCommand(config.Global.Slurm.SubmitCommand)
	if err != nil {
		utils.PrintMessage("Scheduler Status: %s", utils.StyleError("Not Found"))
		utils.PrintMessage("")
		utils.PrintMessage("Submit command %s could not be found.", utils.StyleCommand(config.Global.Slurm.SubmitCommand))
		if scheduler.DetectType() == scheduler.SchedulerSLURM {
			utils.PrintHint("sbatch is in PATH; %s restores the default.",
				utils.StyleCommand("slurmit config set slurm.submit_command sbatch"))
			return
		}
		utils.PrintHint("Set it with %s, or use --dry-run to only compose commands.",
			utils.StyleCommand("slurmit config set slurm.submit_command <command>"))
		return
	}

	info := sched.GetInfo()

	// Display scheduler information (no [SIT] prefix for structured output)
	fmt.Println("Scheduler Information:")
	fmt.Printf("  Type:      %s\n", utils.StyleInfo(info.Type))
	fmt.Printf("  Command:   %s\n", utils.StyleCommand(info.Command))
	fmt.Printf("  Binary:    %s\n", utils.StylePath(info.Binary))

	if info.Version != "" {
		fmt.Printf("  Version:   %s\n", utils.StyleNumber(info.Version))
		if !info.Compatible {
			fmt.Printf("  %s\n", utils.StyleWarning("This Slurm version may not support --export with values; batch jobs could fail."))
		}
	}

	if info.InJob {
		fmt.Printf("  Status:    %s (inside job)\n", utils.StyleWarning("Nested"))
		fmt.Println()
		fmt.Println("You are currently inside a Slurm job (SLURM_JOB_ID is set).")
		fmt.Println("Jobs submitted from here are nested in this allocation's accounting.")
	} else if info.Available {
		fmt.Printf("  Status:    %s\n", utils.StyleSuccess("Available"))
		fmt.Println()
		fmt.Println("The scheduler is available and ready for job submission.")
	} else {
		fmt.Printf("  Status:    %s\n", utils.StyleError("Unavailable"))
		fmt.Println()
		fmt.Println("Scheduler detected but not available for job submission.")
	}

	fmt.Println()
	fmt.Printf("  Default partition: %s\n", utils.StyleName(config.Global.Slurm.Partition))
	if len(config.Global.Slurm.Modules) > 0 {
		fmt.Printf("  Default modules:   %v\n", config.Global.Slurm.Modules)
	}
}
