package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/Justype/slurmit/internal/config"
	"github.com/Justype/slurmit/internal/scheduler"
	"github.com/Justype/slurmit/internal/slurmit"
	"github.com/Justype/slurmit/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var showPath bool

// configKeysCompletion returns config keys for shell completion
func configKeysCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		keys := config.KeyNames()
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, k+"\t"+config.Keys[k])
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
	if len(args) == 1 {
		return configValueCompletion(args[0]), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// configValueCompletion returns suggested values for a config key
func configValueCompletion(key string) []string {
	switch key {
	case "submit_job", "slurm.split_output", "slurm.print_job_id":
		return []string{"true", "false"}
	case "slurm.time":
		return []string{"01:00:00", "04:00:00", "12:00:00", "1-00:00:00"}
	case "slurm.mem":
		return []string{"8G", "16G", "32G", "64G"}
	case "python_bin":
		return []string{"python3", "python"}
	case "slurm.submit_command":
		return []string{"sbatch"}
	default:
		return nil
	}
}

// getConfigEnvVars returns the environment variable name of every config key, sorted
func getConfigEnvVars() []string {
	vars := make([]string, 0, len(config.Keys))
	for key := range config.Keys {
		vars = append(vars, config.EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}
	sort.Strings(vars)
	return vars
}

// normalizeConfigValue checks a value given to 'config set' and converts it
// to the type stored in the config file.
func normalizeConfigValue(key, value string) (any, error) {
	switch key {
	case "submit_job", "slurm.split_output", "slurm.print_job_id":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		return b, nil
	case "slurm.time":
		if value == "" {
			return "", nil
		}
		return scheduler.NormalizeTime(value)
	case "slurm.mem":
		if value == "" {
			return "", nil
		}
		if err := scheduler.ValidateMemory(value); err != nil {
			return nil, err
		}
		return value, nil
	case "slurm.modules":
		return nil, fmt.Errorf("%s is a list; use 'slurmit config edit' or %s_SLURM_MODULES", key, config.EnvPrefix)
	case "slurm.submit_command", "python_bin":
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("%s cannot be empty", key)
		}
		return value, nil
	}
	if _, ok := config.Keys[key]; !ok {
		return nil, fmt.Errorf("unknown config key %q", key)
	}
	return value, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage slurmit configuration",
	Long: `Manage slurmit configuration settings.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (SLURMIT_*)
  3. User config file (~/.config/slurmit/config.yaml)
  4. Home config file (~/.slurmit/config.yaml)
  5. System config file (/etc/slurmit/config.yaml)
  6. Project config file (./config.yaml)
  7. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, the file it was read from and any
environment variable overrides.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showPath {
			configPath, err := config.GetUserConfigPath()
			if err != nil {
				return fmt.Errorf("failed to get config path: %w", err)
			}
			fmt.Println(configPath)
			return nil
		}

		fmt.Println(utils.StyleTitle("Config File:"))
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Printf("  %s\n", utils.StylePath(used))
		} else {
			fmt.Printf("  %s (use 'slurmit config init' to create)\n", utils.StyleWarning("No config file found"))
		}
		fmt.Println()

		fmt.Println(utils.StyleTitle("Current Configuration:"))
		dump, err := config.DumpYAML()
		if err != nil {
			return err
		}
		for _, line := range strings.Split(strings.TrimRight(dump, "\n"), "\n") {
			fmt.Printf("  %s\n", line)
		}
		if viper.GetBool("submit_job") && !config.Global.SubmitJob {
			fmt.Printf("  %s\n", utils.StyleWarning("submit_job is overridden by --local"))
		}
		fmt.Println()

		fmt.Println(utils.StyleTitle("Environment Variable Overrides:"))
		hasEnvOverrides := false
		for _, envVar := range getConfigEnvVars() {
			if val := os.Getenv(envVar); val != "" {
				fmt.Printf("  %s=%s\n", envVar, val)
				hasEnvOverrides = true
			}
		}
		if !hasEnvOverrides {
			fmt.Printf("  %s\n", utils.StyleInfo("none"))
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Example: `  slurmit config get conda_env
  slurmit config get slurm.partition`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: configKeysCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if _, ok := config.Keys[key]; !ok {
			return fmt.Errorf("unknown config key %q", key)
		}
		fmt.Println(viper.Get(key))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save it to the user config file.

Time values (slurm.time) accept the sbatch forms MM, MM:SS, HH:MM:SS, D-HH,
D-HH:MM and D-HH:MM:SS and are stored as [D-]HH:MM:SS. Memory values
(slurm.mem) take an optional K, M, G or T suffix.`,
	Example: `  slurmit config set conda_env torch
  slurmit config set slurm.partition gpu
  slurmit config set slurm.time 2-00:00
  slurmit config set slurm.submit_command "ssh login01 sbatch"
  slurmit config set submit_job false`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: configKeysCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		value, err := normalizeConfigValue(key, args[1])
		if err != nil {
			return &slurmit.ConfigError{Param: key, Err: err}
		}

		viper.Set(key, value)
		if err := config.SaveConfig(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		configPath, _ := config.GetUserConfigPath()
		utils.PrintSuccess("Set %s = %s", utils.StyleInfo(key), utils.StyleInfo(fmt.Sprint(value)))
		utils.PrintNote("Config saved to: %s", utils.StylePath(configPath))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with detected settings",
	Long: `Create the user config file with defaults, the python interpreter found in
PATH and the sbatch binary if one is installed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetUserConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}

		if _, err := os.Stat(configPath); err == nil {
			utils.PrintWarning("Config file already exists: %s", utils.StylePath(configPath))
			if !utils.IsInteractiveShell() {
				return fmt.Errorf("config file %s exists; remove it or run interactively to overwrite", configPath)
			}
			fmt.Print("Overwrite? [y/N]: ")
			var response string
			fmt.Scanln(&response)
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				utils.PrintNote("Cancelled")
				return nil
			}
		}

		updated, err := config.ForceDetectAndSave()
		if err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		if updated {
			utils.PrintSuccess("Config file created with auto-detected settings")
		} else {
			utils.PrintSuccess("Config file created")
		}
		fmt.Printf("  Location: %s\n", utils.StylePath(configPath))

		fmt.Println()
		fmt.Println(utils.StyleTitle("Detected settings:"))
		fmt.Printf("  Python: %s\n", viper.GetString("python_bin"))
		fmt.Printf("  Submit: %s\n", viper.GetString("slurm.submit_command"))
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit config file in default editor",
	Long:  "Open the configuration file in your default text editor ($EDITOR)",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetUserConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}

		if !utils.FileExists(configPath) {
			utils.PrintNote("Config file doesn't exist, creating it first...")
			if err := config.SaveConfig(); err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		editorCmd := exec.Command(editor, configPath)
		editorCmd.Stdin = os.Stdin
		editorCmd.Stdout = os.Stdout
		editorCmd.Stderr = os.Stderr
		if err := editorCmd.Run(); err != nil {
			return fmt.Errorf("failed to open editor: %w", err)
		}
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Check that the configured binaries exist and the default sbatch options are well formed",
	RunE: func(cmd *cobra.Command, args []string) error {
		valid := true
		ok := func(format string, a ...any) {
			if !utils.QuietMode {
				fmt.Printf("%s %s\n", utils.StyleSuccess("✓"), fmt.Sprintf(format, a...))
			}
		}
		warn := func(format string, a ...any) {
			if !utils.QuietMode {
				fmt.Printf("%s %s\n", utils.StyleWarning("⚠"), fmt.Sprintf(format, a...))
			}
		}
		bad := func(format string, a ...any) {
			fmt.Printf("%s %s\n", utils.StyleError("✗"), fmt.Sprintf(format, a...))
			valid = false
		}

		if !utils.QuietMode {
			fmt.Println(utils.StyleTitle("Validating configuration..."))
			fmt.Println()
		}

		pythonBin := viper.GetString("python_bin")
		if config.ValidateBinary(pythonBin) {
			ok("Python interpreter: %s", pythonBin)
		} else {
			warn("Python interpreter not found: %s (only needed for --local)", pythonBin)
		}

		submit := viper.GetString("slurm.submit_command")
		if _, err := scheduler.NewSlurmSchedulerWithCommand(submit); err != nil {
			bad("Submit command: %v", err)
		} else if _, err := scheduler.DetectSchedulerWithCommand(submit); err != nil {
			warn("Submit command not found: %s", submit)
		} else {
			ok("Submit command: %s", submit)
		}

		if env := viper.GetString("conda_env"); env != "" {
			ok("Conda environment: %s", env)
		} else {
			warn("conda_env is not set; pass --env for every job")
		}

		if t := viper.GetString("slurm.time"); t != "" {
			if normalized, err := scheduler.NormalizeTime(t); err != nil {
				bad("slurm.time: %v", err)
			} else {
				ok("Time limit: %s", normalized)
			}
		}
		if mem := viper.GetString("slurm.mem"); mem != "" {
			if err := scheduler.ValidateMemory(mem); err != nil {
				bad("slurm.mem: %v", err)
			} else {
				ok("Memory: %s", mem)
			}
		}

		if !utils.QuietMode {
			fmt.Println()
		}
		if !valid {
			return fmt.Errorf("configuration has errors")
		}
		if !utils.QuietMode {
			utils.PrintSuccess("Configuration is valid")
		}
		return nil
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&showPath, "path", false, "Show only the config file path")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configValidateCmd)

	rootCmd.AddCommand(configCmd)
}
