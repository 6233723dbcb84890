package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Justype/slurmit/internal/config"
	"github.com/Justype/slurmit/internal/scheduler"
	"github.com/Justype/slurmit/internal/slurmit"
	"github.com/Justype/slurmit/internal/utils"
	"github.com/spf13/cobra"
)

var (
	debugMode bool
	quietMode bool
	localMode bool
)

var rootCmd = &cobra.Command{
	Use:           "slurmit",
	Short:         "slurmit: turn a Python function call into a Slurm job.",
	Version:       config.VERSION,
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Step 1: Load defaults
		config.LoadDefaults()

		// Step 2: Initialize Viper (read config file, env vars)
		if err := config.InitViper(); err != nil {
			utils.PrintDebug("Error reading config file: %v", err)
		}

		// Step 3: Auto-detect the interpreter if needed and save to config
		updated, err := config.AutoDetectAndSave()
		if err != nil {
			utils.PrintDebug("Failed to save config: %v", err)
		} else if updated {
			if configPath, err := config.GetUserConfigPath(); err == nil {
				utils.PrintDebug("Auto-detected binaries saved to: %s", configPath)
			}
		}

		// Step 4: Load detected values from Viper into Global config
		config.LoadFromViper()

		// Step 5: Apply command-line flags (highest priority)
		if quietMode {
			utils.QuietMode = true
			config.Global.Quiet = true
		}
		if debugMode {
			utils.DebugMode = true
			config.Global.Debug = true
			utils.PrintDebug("Debug mode enabled")
			utils.PrintDebug("slurmit Version: %s", utils.StyleInfo(config.VERSION))
			utils.PrintDebug("Conda Environment: %s", config.Global.CondaEnv)
			utils.PrintDebug("Python Binary: %s", config.Global.PythonBin)
			utils.PrintDebug("Submit Command: %s", config.Global.Slurm.SubmitCommand)
		}

		if localMode {
			config.Global.SubmitJob = false
			utils.PrintDebug("Local mode enabled (job submission disabled)")
		}

		// Step 6: Initialize scheduler if job submission is enabled
		if config.Global.SubmitJob {
			if _, err := scheduler.Init(config.Global.Slurm.SubmitCommand); err != nil {
				utils.PrintDebug("Scheduler not available: %v", err)
			} else if scheduler.IsInsideJob() {
				utils.PrintDebug("Running inside a Slurm job; submissions will be nested")
			} else {
				utils.PrintDebug("Scheduler initialized and available")
			}
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error returned by a command to the process exit code
func exitCodeFor(err error) int {
	switch {
	case slurmit.IsConfigError(err):
		return ExitCodeUsage
	case scheduler.IsSubmissionError(err):
		return ExitCodeSubmit
	default:
		return ExitCodeError
	}
}

// reportError prints err, since Cobra's automatic error printing is
// silenced. For local Python failures the interpreter output is the useful
// part.
func reportError(err error) {
	var pe *slurmit.PythonError
	switch {
	case errors.As(err, &pe):
		if out := strings.TrimSpace(pe.Output); out != "" && !pe.HideOutput {
			fmt.Fprintln(utils.Stderr, out)
		}
	case slurmit.IsConfigError(err):
		utils.PrintError("%v", err)
	case scheduler.IsSubmissionError(err):
		utils.PrintError("%v", err)
		utils.PrintHint("Check %s, or compose the command only with --dry-run.",
			utils.StyleCommand("slurmit scheduler"))
	case scheduler.IsScriptCreationError(err):
		utils.PrintError("%v", err)
		utils.PrintHint("The Slurm folder must exist and be writable.")
	default:
		fmt.Fprintln(utils.Stderr, err)
	}
}

func init() {
	// Subcommands are attached to rootCmd in their respective init() functions
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Only print errors and results")
	rootCmd.PersistentFlags().BoolVar(&localMode, "local", false, "Disable job submission (run locally)")
}
