package slurmit

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Justype/slurmit/internal/pyscript"
	"github.com/Justype/slurmit/internal/utils"
)

// PythonError represents a failed local run of a generated program
type PythonError struct {
	Function   string // Function that was called
	Cmd        string // Interpreter command line
	Output     string // Captured stderr
	BaseErr    error  // Underlying error
	HideOutput bool   // Output was already streamed to the terminal
}

func (e *PythonError) Error() string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("Local run of %s failed.\n", utils.StyleName(e.Function)))

	if e.Output != "" && !e.HideOutput {
		msg.WriteString(fmt.Sprintf("\t%s: %s\n",
			utils.StyleHint("Output"),
			utils.StyleError(strings.TrimSpace(e.Output))))
	}

	if hint := e.analyzeError(); hint != "" {
		msg.WriteString(fmt.Sprintf("\t%s %s\n", utils.StyleHint("Hint:"), hint))
	}

	msg.WriteString(fmt.Sprintf("\t%s: %v", utils.StyleHint("Error"), e.BaseErr))
	return msg.String()
}

func (e *PythonError) Unwrap() error {
	return e.BaseErr
}

func (e *PythonError) analyzeError() string {
	out := e.Output
	if strings.Contains(out, "ModuleNotFoundError") {
		return "The module is not importable. Activate the conda environment or check the target module."
	}
	if strings.Contains(out, "ImportError") && strings.Contains(out, "cannot import name") {
		return "The function does not exist in the target module."
	}
	if strings.Contains(out, "TypeError") && strings.Contains(out, "unexpected keyword argument") {
		return "An argument name does not match the function signature."
	}
	if strings.Contains(out, "NameError") && strings.Contains(out, "PosixPath") {
		return "Add a pathlib import or set path_to_string."
	}
	return ""
}

const (
	resultVar     = "_slurmit_result"
	resultFileEnv = "SLURMIT_RESULT_FILE"
)

// resultEpilogue dumps the bound call value as JSON into the file named by
// SLURMIT_RESULT_FILE. Values json cannot encode are written as their repr.
const resultEpilogue = `
import json as _slurmit_json
import os as _slurmit_os

with open(_slurmit_os.environ['` + resultFileEnv + `'], 'w') as _slurmit_out:
    _slurmit_json.dump(` + resultVar + `, _slurmit_out, default=repr)
`

// PythonRunner runs a generated program through a local interpreter. The
// program is fed on stdin. Its output is left to the function; the value
// of a run is the function's return value, passed back through a
// temporary JSON file.
type PythonRunner struct {
	Bin    string // interpreter; "python3" when empty
	Dir    string // working directory; inherited when empty
	Stream bool   // copy the program's output to the terminal
}

// Run executes p and returns the value the called function returned.
// JSON objects come back as *pyscript.Dict, arrays as []any.
func (r *PythonRunner) Run(p *pyscript.Program) (any, error) {
	prog := *p
	prog.ResultVar = resultVar
	src, err := prog.Render()
	if err != nil {
		return nil, err
	}
	src += resultEpilogue

	bin := r.Bin
	if bin == "" {
		bin = "python3"
	}

	resultFile, err := os.CreateTemp("", "slurmit-result-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create result file: %w", err)
	}
	resultPath := resultFile.Name()
	resultFile.Close()
	defer os.Remove(resultPath)

	cmd := exec.Command(bin, "-")
	cmd.Dir = r.Dir
	cmd.Stdin = strings.NewReader(src)
	cmd.Env = append(os.Environ(), resultFileEnv+"="+resultPath)

	var stderrBuf bytes.Buffer
	if r.Stream {
		cmd.Stdout = os.Stdout
		cmd.Stderr = io.MultiWriter(os.Stderr, &stderrBuf)
	} else {
		cmd.Stdout = io.Discard
		cmd.Stderr = &stderrBuf
	}

	utils.PrintDebug("Running %s locally with %s", utils.StyleName(p.Function), utils.StyleCommand(bin))
	if err := cmd.Run(); err != nil {
		return nil, &PythonError{
			Function:   p.Function,
			Cmd:        bin + " -",
			Output:     stderrBuf.String(),
			BaseErr:    err,
			HideOutput: r.Stream,
		}
	}

	return readResult(resultPath)
}

// readResult decodes the JSON written by resultEpilogue. JSON is valid
// YAML, so the manifest value decoder is reused and integers stay ints.
func readResult(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		utils.PrintDebug("Result is not decodable, keeping the raw text: %v", err)
		return strings.TrimSpace(string(data)), nil
	}
	value, err := NodeValue(&node)
	if err != nil {
		utils.PrintDebug("Result is not decodable, keeping the raw text: %v", err)
		return strings.TrimSpace(string(data)), nil
	}
	return value, nil
}
