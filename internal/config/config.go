package config

const VERSION = "0.4.0"

// SlurmConfig holds the cluster-side defaults
type SlurmConfig struct {
	Partition     string   // default --partition
	SubmitCommand string   // e.g. "sbatch" or "ssh login01 sbatch"
	Modules       []string // loaded with `ml` in every directive file
	Time          string   // overrides the built-in --time default when set
	Mem           string   // overrides the built-in --mem default when set
	SplitOutput   bool     // write a separate --error log
	PrintJobID    bool     // echo the job ID at job start
}

// Config holds global application settings
type Config struct {
	Debug     bool
	Quiet     bool
	SubmitJob bool // false runs everything locally
	Version   string

	CondaEnv  string // environment activated in directive files
	PythonBin string // interpreter used for local runs

	Slurm SlurmConfig
}

// Global holds the singleton configuration instance
var Global Config

// LoadDefaults resets Global to the built-in defaults.
func LoadDefaults() {
	Global = Config{
		Debug:     false,
		Quiet:     false,
		SubmitJob: true,
		Version:   VERSION,

		CondaEnv:  "",
		PythonBin: "python3",

		Slurm: SlurmConfig{
			Partition:     "cpu",
			SubmitCommand: "sbatch",
			Modules:       nil,
			Time:          "",
			Mem:           "",
			SplitOutput:   false,
			PrintJobID:    false,
		},
	}
}

// SlurmOptionOverrides returns the configured --time/--mem overrides in
// directive order, as alternating key/value pairs.
func (c *Config) SlurmOptionOverrides() []any {
	var kv []any
	if c.Slurm.Time != "" {
		kv = append(kv, "time", c.Slurm.Time)
	}
	if c.Slurm.Mem != "" {
		kv = append(kv, "mem", c.Slurm.Mem)
	}
	return kv
}
