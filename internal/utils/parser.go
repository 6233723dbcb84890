package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var moduleLoadRegex = regexp.MustCompile(`^\s*(module\s+load)\s+(.+)$`)

// ParseModuleLine extracts module names from a single `ml` or `module load`
// line. The second return value reports whether the line was a module line
// at all; subcommands such as `ml purge` yield no modules.
func ParseModuleLine(line string) ([]string, bool) {
	line = strings.TrimSpace(line)

	if moduleLoadRegex.MatchString(line) {
		parts := strings.Fields(line)
		return parts[2:], true
	}

	parts := strings.Fields(line)
	if len(parts) == 0 || parts[0] != "ml" {
		return nil, false
	}

	var modules []string
	for _, mod := range parts[1:] {
		// Skip ml subcommands
		if mod == "purge" || mod == "list" || mod == "avail" || mod == "av" {
			break
		}
		if mod == "load" {
			continue
		}
		modules = append(modules, mod)
	}
	return modules, true
}

// ParseKeyValue splits "key=value" into its parts. The value may itself
// contain '=' characters; the key may not be empty.
func ParseKeyValue(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid key=value pair: %q", s)
	}
	return key, value, nil
}
