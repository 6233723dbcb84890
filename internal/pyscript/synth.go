// Package pyscript renders a single function call as a standalone Python
// program that can be re-run in a fresh process on a compute node.
package pyscript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/Justype/slurmit/internal/utils"
)

var (
	// ErrTargetDirMissing indicates the folder of a generated file does not exist
	ErrTargetDirMissing = errors.New("target directory does not exist")

	// ErrDuplicateArgument indicates an argument is both literal and parsed at run time
	ErrDuplicateArgument = errors.New("argument is both embedded and parsed from the command line")

	// ErrEmptyFunctionName indicates the program has nothing to call
	ErrEmptyFunctionName = errors.New("function name is empty")
)

const pathlibModule = "pathlib"
const posixPathSymbol = "PosixPath"

// Program describes the generated script: imports, optional command-line
// parsing and exactly one call.
type Program struct {
	// Function is the name called in the program, e.g. "analyse".
	Function string

	// Arguments are embedded as keyword literals.
	Arguments *Arguments

	// VarsToParse maps argument name -> command-line variable name for
	// arguments supplied at run time (`--<var> value`).
	VarsToParse *utils.StringMap

	// Imports are plain `import x` lines.
	Imports []string

	// FromImports maps module -> symbol for `from module import symbol`.
	FromImports *utils.StringMap

	// PathToString renders Path arguments as plain strings.
	PathToString bool

	// ResultVar, when set, binds the call's value: `<ResultVar> = f(...)`.
	// Generated job programs leave it empty.
	ResultVar string
}

// Render returns the program source.
func (p *Program) Render() (string, error) {
	if strings.TrimSpace(p.Function) == "" {
		return "", ErrEmptyFunctionName
	}

	for pair := oldest(p.VarsToParse); pair != nil; pair = pair.Next() {
		if p.Arguments.Has(pair.Key) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateArgument, pair.Key)
		}
	}

	// Literals first: a pathlib literal adds an import.
	r := &renderer{opts: LiteralOptions{PathToString: p.PathToString}}
	var call strings.Builder
	if p.ResultVar != "" {
		call.WriteString(p.ResultVar)
		call.WriteString(" = ")
	}
	call.WriteString(p.Function)
	call.WriteString("(")
	err := p.Arguments.Each(func(name string, value any) error {
		call.WriteString(name)
		call.WriteString("=")
		if err := r.render(&call, value); err != nil {
			return fmt.Errorf("argument %s: %w", name, err)
		}
		call.WriteString(", ")
		return nil
	})
	if err != nil {
		return "", err
	}
	for pair := oldest(p.VarsToParse); pair != nil; pair = pair.Next() {
		fmt.Fprintf(&call, "%s=args.%s, ", pair.Key, pair.Value)
	}
	call.WriteString(")\n")

	var b strings.Builder

	imports := dedupe(p.Imports)
	for _, imp := range imports {
		fmt.Fprintf(&b, "import %s\n", imp)
	}
	if len(imports) > 0 {
		b.WriteString("\n")
	}

	fromImports := utils.CloneStringMap(p.FromImports)
	if r.usesPosixPath {
		addSymbol(fromImports, pathlibModule, posixPathSymbol)
	}
	for pair := fromImports.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(&b, "from %s import %s\n", pair.Key, pair.Value)
	}
	if fromImports.Len() > 0 {
		b.WriteString("\n")
	}

	if utils.StringMapLen(p.VarsToParse) > 0 {
		b.WriteString("import argparse\n\n")
		b.WriteString("parser = argparse.ArgumentParser()\n")
		for pair := oldest(p.VarsToParse); pair != nil; pair = pair.Next() {
			fmt.Fprintf(&b, "parser.add_argument('--%s')\n", pair.Value)
		}
		b.WriteString("args = parser.parse_args()\n\n")
	}

	b.WriteString(call.String())
	return b.String(), nil
}

// Synthesize renders p and writes it to targetPath, overwriting any previous
// content. The parent directory must already exist.
func Synthesize(targetPath string, p *Program) error {
	dir := filepath.Dir(targetPath)
	if !utils.DirExists(dir) {
		return fmt.Errorf("%w: %s", ErrTargetDirMissing, dir)
	}

	src, err := p.Render()
	if err != nil {
		return err
	}

	if err := os.WriteFile(targetPath, []byte(src), utils.PermFile); err != nil {
		return fmt.Errorf("failed to write program %s: %w", targetPath, err)
	}
	utils.PrintDebug("Wrote program %s", utils.StylePath(targetPath))
	return nil
}

// addSymbol makes sure `from module import symbol` is covered by m.
func addSymbol(m *utils.StringMap, module, symbol string) {
	existing, ok := m.Get(module)
	if !ok {
		m.Set(module, symbol)
		return
	}
	for _, s := range strings.Split(existing, ",") {
		if strings.TrimSpace(s) == symbol {
			return
		}
	}
	m.Set(module, existing+", "+symbol)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func oldest(m *utils.StringMap) *orderedmap.Pair[string, string] {
	if m == nil {
		return nil
	}
	return m.Oldest()
}
