package cmd

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/Justype/slurmit/internal/config"
	"github.com/Justype/slurmit/internal/scheduler"
)

func TestConfigValueCompletion(t *testing.T) {
	for _, key := range []string{"submit_job", "slurm.split_output", "slurm.print_job_id"} {
		opts := configValueCompletion(key)
		if len(opts) != 2 || opts[0] != "true" || opts[1] != "false" {
			t.Errorf("configValueCompletion(%q) = %v; want [true false]", key, opts)
		}
	}
	for _, v := range configValueCompletion("slurm.time") {
		if _, err := scheduler.NormalizeTime(v); err != nil {
			t.Errorf("suggested time %q does not validate: %v", v, err)
		}
	}
	for _, v := range configValueCompletion("slurm.mem") {
		if err := scheduler.ValidateMemory(v); err != nil {
			t.Errorf("suggested memory %q does not validate: %v", v, err)
		}
	}
	if opts := configValueCompletion("conda_env"); opts != nil {
		t.Errorf("configValueCompletion(conda_env) = %v; want nil", opts)
	}
}

func TestConfigKeysCompletion(t *testing.T) {
	opts, _ := configKeysCompletion(nil, nil, "")
	if len(opts) != len(config.Keys) {
		t.Fatalf("got %d keys, expected %d", len(opts), len(config.Keys))
	}
	for _, o := range opts {
		key, desc, ok := strings.Cut(o, "\t")
		if !ok || desc != config.Keys[key] {
			t.Errorf("completion %q lacks the description of %q", o, key)
		}
	}

	opts, _ = configKeysCompletion(nil, []string{"submit_job"}, "")
	if len(opts) != 2 {
		t.Errorf("value completion for submit_job = %v", opts)
	}
	if opts, _ := configKeysCompletion(nil, []string{"submit_job", "true"}, ""); opts != nil {
		t.Errorf("third argument completion = %v; want nil", opts)
	}
}

func TestNormalizeConfigValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		{"submit_job", "false", false, false},
		{"slurm.print_job_id", "1", true, false},
		{"slurm.split_output", "maybe", nil, true},
		{"slurm.time", "90", "01:30:00", false},
		{"slurm.time", "2-00:00", "2-00:00:00", false},
		{"slurm.time", "", "", false},
		{"slurm.time", "noon", nil, true},
		{"slurm.mem", "64G", "64G", false},
		{"slurm.mem", "lots", nil, true},
		{"slurm.modules", "gcc", nil, true},
		{"slurm.submit_command", "ssh login01 sbatch", "ssh login01 sbatch", false},
		{"slurm.submit_command", "  ", nil, true},
		{"conda_env", "torch", "torch", false},
		{"slurm.partition", "gpu", "gpu", false},
		{"build.ncpus", "8", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got, err := normalizeConfigValue(tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("normalizeConfigValue(%q, %q) = %v; want error", tt.key, tt.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeConfigValue(%q, %q) error: %v", tt.key, tt.value, err)
			}
			if got != tt.want {
				t.Errorf("normalizeConfigValue(%q, %q) = %#v; want %#v", tt.key, tt.value, got, tt.want)
			}
		})
	}
}

func TestNormalizeConfigValueKeepsSentinel(t *testing.T) {
	_, err := normalizeConfigValue("slurm.mem", "8X")
	if !errors.Is(err, scheduler.ErrInvalidMemoryFormat) {
		t.Errorf("error = %v; want ErrInvalidMemoryFormat", err)
	}
}

func TestGetConfigEnvVars(t *testing.T) {
	vars := getConfigEnvVars()
	expected := make([]string, 0, len(config.Keys))
	for _, key := range config.KeyNames() {
		expected = append(expected, "SLURMIT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}
	sort.Strings(expected)

	if len(vars) != len(expected) {
		t.Fatalf("got %d vars, expected %d", len(vars), len(expected))
	}
	for i, v := range vars {
		if v != expected[i] {
			t.Errorf("env var[%d] = %q, want %q", i, v, expected[i])
		}
	}
}
