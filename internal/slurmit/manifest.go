package slurmit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/imdario/mergo"
	"gopkg.in/yaml.v3"

	"github.com/Justype/slurmit/internal/config"
	"github.com/Justype/slurmit/internal/pyscript"
	"github.com/Justype/slurmit/internal/scheduler"
	"github.com/Justype/slurmit/internal/utils"
)

// ErrInvalidManifest wraps every manifest problem.
var ErrInvalidManifest = errors.New("invalid job manifest")

// Manifest is a YAML job description:
//
//	function: train
//	module: mypkg.models
//	args:
//	  lr: 0.01
//	  data: !path /scratch/data
//	conda_env: torch
//	folder: slurm
//	slurm_options:
//	  gres: gpu:1
//	batch:
//	  names: [seed]
//	  values: [[1], [2], [3]]
type Manifest struct {
	Function       string    `yaml:"function"`
	Module         string    `yaml:"module"`
	Args           yaml.Node `yaml:"args"`
	CondaEnv       string    `yaml:"conda_env"`
	Partition      string    `yaml:"partition"`
	Modules        []string  `yaml:"modules"`
	SlurmOptions   yaml.Node `yaml:"slurm_options"`
	Imports        []string  `yaml:"imports"`
	FromImports    yaml.Node `yaml:"from_imports"`
	PrintJobID     *bool     `yaml:"print_job_id"`
	SplitOutput    *bool     `yaml:"split_output"`
	PathToString   *bool     `yaml:"path_to_string"`
	UseSlurm       *bool     `yaml:"use_slurm"`
	Folder         string    `yaml:"folder"`
	Name           string    `yaml:"name"`
	Dependency     yaml.Node `yaml:"dependency"`
	DependencyType string    `yaml:"dependency_type"`
	Batch          *struct {
		Names  []string  `yaml:"names"`
		Values yaml.Node `yaml:"values"`
	} `yaml:"batch"`

	// Directory of the manifest file; relative folders resolve against it.
	dir string
}

// Defaults are the configured values a manifest is layered over.
type Defaults struct {
	CondaEnv       string
	Partition      string
	Modules        []string
	Imports        []string
	Folder         string
	DependencyType string
	SlurmOptions   *scheduler.Options
	UseSlurm       bool
	PrintJobID     bool
	SplitOutput    bool
	PathToString   bool
}

// DefaultsFromConfig takes the manifest defaults from the global settings.
func DefaultsFromConfig(c *config.Config) Defaults {
	return Defaults{
		CondaEnv:     c.CondaEnv,
		Partition:    c.Slurm.Partition,
		Modules:      c.Slurm.Modules,
		SlurmOptions: scheduler.OptionsFromPairs(c.SlurmOptionOverrides()...),
		UseSlurm:     c.SubmitJob,
		PrintJobID:   c.Slurm.PrintJobID,
		SplitOutput:  c.Slurm.SplitOutput,
	}
}

// layer is the part of a job that merges field by field.
type layer struct {
	CondaEnv       string
	Partition      string
	Modules        []string
	Imports        []string
	Folder         string
	DependencyType string
}

// Job is a manifest resolved against its defaults, ready to call.
type Job struct {
	Target Target
	Config Config
	Args   *pyscript.Arguments
	Call   CallOptions
}

// Run wraps the target and calls it.
func (j *Job) Run(opts ...Option) (*Result, error) {
	w, err := Wrap(j.Target, j.Config, opts...)
	if err != nil {
		return nil, err
	}
	return w.Call(j.Args, j.Call)
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		m.dir = abs
	}
	return m, nil
}

// ParseManifest decodes manifest YAML. Unknown keys are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return &m, nil
}

// Job resolves the manifest over defaults; manifest values win.
func (m *Manifest) Job(defaults Defaults) (*Job, error) {
	var errs *multierror.Error

	merged := layer{
		CondaEnv:       defaults.CondaEnv,
		Partition:      defaults.Partition,
		Modules:        append([]string(nil), defaults.Modules...),
		Imports:        append([]string(nil), defaults.Imports...),
		Folder:         defaults.Folder,
		DependencyType: defaults.DependencyType,
	}
	own := layer{
		CondaEnv:       m.CondaEnv,
		Partition:      m.Partition,
		Modules:        m.Modules,
		Imports:        m.Imports,
		Folder:         m.Folder,
		DependencyType: m.DependencyType,
	}
	if err := mergo.Merge(&merged, own, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge manifest over defaults: %w", err)
	}

	if strings.TrimSpace(m.Function) == "" {
		errs = multierror.Append(errs, fmt.Errorf("%w: function is required", ErrInvalidManifest))
	}

	args, err := m.arguments()
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	options, err := m.slurmOptions()
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	fromImports, err := m.fromImports()
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	dep, err := m.dependency()
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	var batchNames []string
	var batchValues [][]any
	if m.Batch != nil {
		batchNames = m.Batch.Names
		if batchValues, err = batchTuples(&m.Batch.Values); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	folder := merged.Folder
	if folder != "" && !filepath.IsAbs(folder) && m.dir != "" {
		folder = filepath.Join(m.dir, folder)
	}

	job := &Job{
		Target: Target{Module: m.Module, Name: m.Function},
		Config: Config{
			CondaEnv:     merged.CondaEnv,
			Partition:    merged.Partition,
			Modules:      merged.Modules,
			Options:      defaults.SlurmOptions.Clone(),
			Imports:      merged.Imports,
			FromImports:  fromImports,
			PrintJobID:   pick(m.PrintJobID, defaults.PrintJobID),
			SplitOutput:  pick(m.SplitOutput, defaults.SplitOutput),
			PathToString: pick(m.PathToString, defaults.PathToString),
		},
		Args: args,
		Call: CallOptions{
			UseSlurm:        pick(m.UseSlurm, defaults.UseSlurm),
			DependencyType:  merged.DependencyType,
			JobDependency:   dep,
			SlurmFolder:     folder,
			ScriptsName:     m.Name,
			SlurmOptions:    options,
			BatchParamNames: batchNames,
			BatchParamList:  batchValues,
		},
	}
	return job, nil
}

// pick applies an explicitly set manifest flag. A plain merge cannot tell
// an explicit false from an absent key.
func pick(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func isEmptyNode(n *yaml.Node) bool {
	return n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func (m *Manifest) arguments() (*pyscript.Arguments, error) {
	args := pyscript.NewArguments()
	if isEmptyNode(&m.Args) {
		return args, nil
	}
	if m.Args.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: args must be a mapping (line %d)", ErrInvalidManifest, m.Args.Line)
	}
	for i := 0; i+1 < len(m.Args.Content); i += 2 {
		k, v := m.Args.Content[i], m.Args.Content[i+1]
		if args.Has(k.Value) {
			return nil, fmt.Errorf("%w: argument %s is repeated (line %d)", ErrInvalidManifest, k.Value, k.Line)
		}
		val, err := NodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %s: %v", ErrInvalidManifest, k.Value, err)
		}
		args.Set(k.Value, val)
	}
	return args, nil
}

func (m *Manifest) slurmOptions() (*scheduler.Options, error) {
	opts := scheduler.NewOptions()
	if isEmptyNode(&m.SlurmOptions) {
		return opts, nil
	}
	if m.SlurmOptions.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: slurm_options must be a mapping (line %d)", ErrInvalidManifest, m.SlurmOptions.Line)
	}
	for i := 0; i+1 < len(m.SlurmOptions.Content); i += 2 {
		k, v := m.SlurmOptions.Content[i], m.SlurmOptions.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: slurm option %s must be a scalar (line %d)", ErrInvalidManifest, k.Value, v.Line)
		}
		opts.Set(k.Value, v.Value)
	}
	return opts, nil
}

func (m *Manifest) fromImports() (*utils.StringMap, error) {
	if isEmptyNode(&m.FromImports) {
		return nil, nil
	}
	if m.FromImports.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: from_imports must map modules to names (line %d)", ErrInvalidManifest, m.FromImports.Line)
	}
	out := utils.NewStringMap()
	for i := 0; i+1 < len(m.FromImports.Content); i += 2 {
		k, v := m.FromImports.Content[i], m.FromImports.Content[i+1]
		switch v.Kind {
		case yaml.ScalarNode:
			out.Set(k.Value, v.Value)
		case yaml.SequenceNode:
			var names []string
			if err := v.Decode(&names); err != nil {
				return nil, fmt.Errorf("%w: from_imports %s: %v", ErrInvalidManifest, k.Value, err)
			}
			out.Set(k.Value, strings.Join(names, ", "))
		default:
			return nil, fmt.Errorf("%w: from_imports %s (line %d)", ErrInvalidManifest, k.Value, v.Line)
		}
	}
	return out, nil
}

// dependency accepts "123", "123:456" or a list of IDs.
func (m *Manifest) dependency() (scheduler.Dependency, error) {
	n := &m.Dependency
	if isEmptyNode(n) {
		return scheduler.NoDependency, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return scheduler.After(strings.Split(n.Value, ":")...), nil
	case yaml.SequenceNode:
		ids := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: dependency IDs must be scalars (line %d)", ErrInvalidManifest, c.Line)
			}
			ids = append(ids, c.Value)
		}
		return scheduler.After(ids...), nil
	}
	return nil, fmt.Errorf("%w: dependency must be an ID or a list of IDs (line %d)", ErrInvalidManifest, n.Line)
}

func batchTuples(n *yaml.Node) ([][]any, error) {
	if isEmptyNode(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: batch values must be a list of lists (line %d)", ErrInvalidManifest, n.Line)
	}
	tuples := make([][]any, 0, len(n.Content))
	for _, c := range n.Content {
		if c.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w: batch tuple must be a list (line %d)", ErrInvalidManifest, c.Line)
		}
		tuple := make([]any, 0, len(c.Content))
		for _, item := range c.Content {
			v, err := NodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
			}
			tuple = append(tuple, v)
		}
		tuples = append(tuples, tuple)
	}
	return tuples, nil
}
