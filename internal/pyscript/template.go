package pyscript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Justype/slurmit/internal/utils"
)

// TemplateToken returns the placeholder replaced by the value of key, quotes
// included: key "n_iter" becomes `"XXX_N_ITER_XXX"`.
func TemplateToken(key string) string {
	return `"XXX_` + strings.ToUpper(key) + `_XXX"`
}

// WriteFromTemplate copies sourceScript into targetFolder, replacing each
// TemplateToken(key) with the literal of the argument bound to key. An empty
// targetName keeps the source file name. Returns the written path.
func WriteFromTemplate(targetFolder, sourceScript, targetName string, args *Arguments, opts LiteralOptions) (string, error) {
	if !utils.DirExists(targetFolder) {
		return "", fmt.Errorf("%w: %s", ErrTargetDirMissing, targetFolder)
	}

	data, err := os.ReadFile(sourceScript)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", sourceScript, err)
	}
	source := string(data)

	err = args.Each(func(key string, value any) error {
		lit, err := Literal(value, opts)
		if err != nil {
			return fmt.Errorf("argument %s: %w", key, err)
		}
		token := TemplateToken(key)
		if !strings.Contains(source, token) {
			utils.PrintDebug("Template %s has no %s placeholder", utils.StylePath(sourceScript), token)
		}
		source = strings.ReplaceAll(source, token, lit)
		return nil
	})
	if err != nil {
		return "", err
	}

	if targetName == "" {
		targetName = filepath.Base(sourceScript)
	}
	target := filepath.Join(targetFolder, targetName)
	if err := os.WriteFile(target, []byte(source), utils.PermFile); err != nil {
		return "", fmt.Errorf("failed to write program %s: %w", target, err)
	}
	return target, nil
}
