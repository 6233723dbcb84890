package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Justype/slurmit/internal/utils"
)

// ConfigFilename is the name of the config file
const ConfigFilename = "config"

// ConfigType is the type of config file (yaml, json, toml)
const ConfigType = "yaml"

// EnvPrefix prefixes environment overrides, e.g. SLURMIT_CONDA_ENV
const EnvPrefix = "SLURMIT"

const appDirName = "slurmit"

var envKeyReplacer = strings.NewReplacer(".", "_")

// Keys lists every supported config key with its description.
var Keys = map[string]string{
	"conda_env":            "conda environment activated in directive files",
	"python_bin":           "python interpreter used for local runs",
	"submit_job":           "submit to Slurm (false runs locally)",
	"slurm.partition":      "default --partition",
	"slurm.submit_command": "command used to submit directive files",
	"slurm.modules":        "modules loaded before the environment",
	"slurm.time":           "default --time (empty keeps 12:00:00)",
	"slurm.mem":            "default --mem (empty keeps 32G)",
	"slurm.split_output":   "write a separate --error log",
	"slurm.print_job_id":   "echo the job ID at job start",
}

// KeyNames returns the config keys sorted.
func KeyNames() []string {
	names := make([]string, 0, len(Keys))
	for k := range Keys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// InitViper initializes Viper with proper search paths and defaults
// Priority (highest to lowest):
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (SLURMIT_*)
// 3. User config file (~/.config/slurmit/config.yaml)
// 4. System config file (/etc/slurmit/config.yaml)
// 5. Defaults
func InitViper() error {
	viper.SetConfigName(ConfigFilename)
	viper.SetConfigType(ConfigType)

	// User config (highest priority)
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(userConfigDir, appDirName))
	}

	// Home directory fallback
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, "."+appDirName))
	}

	// System-wide config (lower priority)
	viper.AddConfigPath("/etc/" + appDirName)

	// Current directory (per-project config)
	viper.AddConfigPath(".")

	// Environment variables; slurm.partition -> SLURMIT_SLURM_PARTITION
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	setDefaults()

	// Read config file (non-fatal if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	utils.PrintDebug("Using config file %s", utils.StylePath(viper.ConfigFileUsed()))

	return nil
}

// setDefaults sets default values for all config keys
func setDefaults() {
	viper.SetDefault("conda_env", "")
	viper.SetDefault("python_bin", "python3")
	viper.SetDefault("submit_job", true)

	viper.SetDefault("slurm.partition", "cpu")
	viper.SetDefault("slurm.submit_command", "sbatch")
	viper.SetDefault("slurm.modules", []string{})
	viper.SetDefault("slurm.time", "")
	viper.SetDefault("slurm.mem", "")
	viper.SetDefault("slurm.split_output", false)
	viper.SetDefault("slurm.print_job_id", false)
}

// GetUserConfigPath returns the path to the user config file
func GetUserConfigPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "."+appDirName, ConfigFilename+"."+ConfigType), nil
	}

	return filepath.Join(userConfigDir, appDirName, ConfigFilename+"."+ConfigType), nil
}

// SaveConfig saves current Viper config to user config file
func SaveConfig() error {
	configPath, err := GetUserConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), utils.PermDir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DumpYAML renders the effective settings as YAML.
func DumpYAML() (string, error) {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(out), nil
}

// ValidateBinary checks if a binary exists and is executable
func ValidateBinary(binPath string) bool {
	if binPath == "" {
		return false
	}

	if filepath.IsAbs(binPath) {
		info, err := os.Stat(binPath)
		if err != nil {
			return false
		}
		return !info.IsDir() && info.Mode()&0111 != 0
	}

	_, err := exec.LookPath(binPath)
	return err == nil
}

// DetectPythonBin attempts to find a python interpreter.
// Returns the full absolute path if found, empty string otherwise
func DetectPythonBin() string {
	for _, candidate := range []string{"python3", "python"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path
		}
	}
	return ""
}

// DetectSubmitCommand returns the sbatch path if it is in PATH.
func DetectSubmitCommand() string {
	if path, err := exec.LookPath("sbatch"); err == nil {
		return path
	}
	return ""
}

// AutoDetectAndSave fills in binaries that are missing or invalid and saves
// the config when anything changed. Returns true if config was updated
func AutoDetectAndSave() (bool, error) {
	updated := false

	if !ValidateBinary(viper.GetString("python_bin")) {
		if detected := DetectPythonBin(); detected != "" {
			viper.Set("python_bin", detected)
			updated = true
		}
	}

	if updated {
		if err := SaveConfig(); err != nil {
			return false, err
		}
	}

	return updated, nil
}

// ForceDetectAndSave always re-detects binaries from the current PATH and
// saves, creating the config file if needed. Returns true if a value changed
func ForceDetectAndSave() (bool, error) {
	updated := false

	if detected := DetectPythonBin(); detected != "" && viper.GetString("python_bin") != detected {
		viper.Set("python_bin", detected)
		updated = true
	}

	// Keep wrapper commands such as "ssh login01 sbatch" untouched.
	if current := viper.GetString("slurm.submit_command"); current == "" || current == "sbatch" {
		if detected := DetectSubmitCommand(); detected != "" && detected != current {
			viper.Set("slurm.submit_command", detected)
			updated = true
		}
	}

	if err := SaveConfig(); err != nil {
		return false, err
	}

	return updated, nil
}

// LoadFromViper loads config from Viper into Global struct
func LoadFromViper() {
	if env := viper.GetString("conda_env"); env != "" {
		Global.CondaEnv = env
	}

	if bin := viper.GetString("python_bin"); bin != "" {
		Global.PythonBin = bin
	}

	if submitJob := viper.GetBool("submit_job"); !submitJob {
		Global.SubmitJob = submitJob
	}

	if partition := viper.GetString("slurm.partition"); partition != "" {
		Global.Slurm.Partition = partition
	}

	if command := viper.GetString("slurm.submit_command"); command != "" {
		Global.Slurm.SubmitCommand = command
	}

	if modules := viper.GetStringSlice("slurm.modules"); len(modules) > 0 {
		Global.Slurm.Modules = modules
	}

	if t := viper.GetString("slurm.time"); t != "" {
		Global.Slurm.Time = t
	}

	if mem := viper.GetString("slurm.mem"); mem != "" {
		Global.Slurm.Mem = mem
	}

	Global.Slurm.SplitOutput = viper.GetBool("slurm.split_output")
	Global.Slurm.PrintJobID = viper.GetBool("slurm.print_job_id")
}
