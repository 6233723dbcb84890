package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	LoadDefaults()
	if !Global.SubmitJob {
		t.Errorf("SubmitJob = false; want true")
	}
	if Global.Slurm.Partition != "cpu" {
		t.Errorf("Partition = %q; want cpu", Global.Slurm.Partition)
	}
	if Global.Slurm.SubmitCommand != "sbatch" {
		t.Errorf("SubmitCommand = %q; want sbatch", Global.Slurm.SubmitCommand)
	}
	if len(Global.SlurmOptionOverrides()) != 0 {
		t.Errorf("no overrides expected by default: %v", Global.SlurmOptionOverrides())
	}
}

func TestInitViperReadsUserConfig(t *testing.T) {
	resetViper(t)
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	dir := filepath.Join(configHome, "slurmit")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := strings.Join([]string{
		"conda_env: analysis",
		"slurm:",
		"  partition: hmem",
		"  modules: [CUDA/12.1, FFmpeg]",
		"  time: \"01:00:00\"",
	}, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := InitViper(); err != nil {
		t.Fatalf("InitViper failed: %v", err)
	}
	LoadDefaults()
	LoadFromViper()

	if Global.CondaEnv != "analysis" {
		t.Errorf("CondaEnv = %q; want analysis", Global.CondaEnv)
	}
	if Global.Slurm.Partition != "hmem" {
		t.Errorf("Partition = %q; want hmem", Global.Slurm.Partition)
	}
	if strings.Join(Global.Slurm.Modules, ",") != "CUDA/12.1,FFmpeg" {
		t.Errorf("Modules = %v", Global.Slurm.Modules)
	}
	if Global.Slurm.SubmitCommand != "sbatch" {
		t.Errorf("SubmitCommand = %q; want default sbatch", Global.Slurm.SubmitCommand)
	}
	overrides := Global.SlurmOptionOverrides()
	if len(overrides) != 2 || overrides[0] != "time" || overrides[1] != "01:00:00" {
		t.Errorf("SlurmOptionOverrides() = %v", overrides)
	}
}

func TestInitViperEnvOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SLURMIT_SLURM_PARTITION", "gpu")
	t.Setenv("SLURMIT_SUBMIT_JOB", "false")

	if err := InitViper(); err != nil {
		t.Fatalf("InitViper failed: %v", err)
	}
	LoadDefaults()
	LoadFromViper()

	if Global.Slurm.Partition != "gpu" {
		t.Errorf("Partition = %q; want gpu from env", Global.Slurm.Partition)
	}
	if Global.SubmitJob {
		t.Errorf("SubmitJob = true; want false from env")
	}
}

func TestSaveConfig(t *testing.T) {
	resetViper(t)
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	setDefaults()
	viper.Set("conda_env", "saved_env")
	if err := SaveConfig(); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(configHome, "slurmit", "config.yaml"))
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), "conda_env: saved_env") {
		t.Errorf("saved config missing conda_env:\n%s", data)
	}
}

func TestDumpYAML(t *testing.T) {
	resetViper(t)
	setDefaults()
	out, err := DumpYAML()
	if err != nil {
		t.Fatalf("DumpYAML failed: %v", err)
	}
	if !strings.Contains(out, "partition: cpu") {
		t.Errorf("DumpYAML() missing partition:\n%s", out)
	}
}

func TestKeyNames(t *testing.T) {
	names := KeyNames()
	if len(names) != len(Keys) {
		t.Fatalf("KeyNames() returned %d names; want %d", len(names), len(Keys))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("KeyNames() not sorted: %v", names)
		}
	}
}

func TestValidateBinary(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "tool")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	if !ValidateBinary(exe) {
		t.Errorf("ValidateBinary(%s) = false", exe)
	}
	if ValidateBinary(plain) {
		t.Errorf("ValidateBinary accepted a non-executable file")
	}
	if ValidateBinary(dir) {
		t.Errorf("ValidateBinary accepted a directory")
	}
	if ValidateBinary("") {
		t.Errorf("ValidateBinary accepted an empty path")
	}
}
