package scheduler

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	tests := []struct {
		name       string
		scriptName string
		partition  string
		tag        bool
		split      bool
		want       []string
	}{
		{
			name:       "plain",
			scriptName: "job",
			want: []string{
				"--ntasks=1", "--time=12:00:00", "--mem=32G", "--partition=cpu",
				"--output=" + filepath.Join("/f", "job.out"),
			},
		},
		{
			name:       "suffix already present",
			scriptName: "job.sh",
			partition:  "hmem",
			want: []string{
				"--ntasks=1", "--time=12:00:00", "--mem=32G", "--partition=hmem",
				"--output=" + filepath.Join("/f", "job.out"),
			},
		},
		{
			name:       "tagged and split",
			scriptName: "job",
			tag:        true,
			split:      true,
			want: []string{
				"--ntasks=1", "--time=12:00:00", "--mem=32G", "--partition=cpu",
				"--output=" + filepath.Join("/f", "job_%j.out"),
				"--error=" + filepath.Join("/f", "job_%j.err"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultOptions("/f", tt.scriptName, tt.partition, tt.tag, tt.split).Directives()
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("DefaultOptions() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultOptionsAreFresh(t *testing.T) {
	first := DefaultOptions("/f", "job", "", false, false)
	first.Set("time", "00:01:00")
	second := DefaultOptions("/f", "job", "", false, false)
	if v, _ := second.Get("time"); v != "12:00:00" {
		t.Errorf("defaults leaked between calls: time = %s", v)
	}
}

func TestOptionsMerge(t *testing.T) {
	base := OptionsFromPairs("ntasks", 1, "time", "12:00:00", "mem", "32G")
	decoration := OptionsFromPairs("time", "00:02:00")
	call := OptionsFromPairs("time", "00:02:00", "qos", "short")

	merged := base.Clone().Merge(decoration).Merge(call)

	want := "--ntasks=1 --time=00:02:00 --mem=32G --qos=short"
	if got := merged.String(); got != want {
		t.Errorf("merged = %q; want %q", got, want)
	}
	if got := base.String(); got != "--ntasks=1 --time=12:00:00 --mem=32G" {
		t.Errorf("base was modified: %q", got)
	}

	callWins := base.Clone().Merge(OptionsFromPairs("time", "01:00:00")).Merge(OptionsFromPairs("time", "00:02:00"))
	if v, _ := callWins.Get("time"); v != "00:02:00" {
		t.Errorf("time = %s; want the last override", v)
	}
}

func TestOptionsKeyNormalization(t *testing.T) {
	o := NewOptions().Set("--mem", "8G")
	if !o.Has("mem") || !o.Has("--mem") {
		t.Errorf("key normalization failed: %v", o.Keys())
	}
	o.Delete("--mem")
	if o.Len() != 0 {
		t.Errorf("Delete failed: %v", o.Keys())
	}

	var nilOpts *Options
	if nilOpts.Len() != 0 || nilOpts.Has("x") || len(nilOpts.Map()) != 0 {
		t.Errorf("nil Options should behave as empty")
	}
}
