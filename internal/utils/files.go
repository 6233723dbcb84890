package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// Standard default permissions
// File: u=rw, g=rw, o=r
const PermFile os.FileMode = 0664

// Dir:  u=rwx, g=rwx, o=rx (Requires +x to traverse)
const PermDir os.FileMode = 0775

// Exec: u=rwx, g=rwx, o=rx
const PermExec os.FileMode = 0775

// --- Extension Checks (String-based) ---

// IsShellScript checks if the path has a shell script extension (.sh).
func IsShellScript(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".sh"
}

// IsPythonScript checks if the path has a Python source extension (.py).
func IsPythonScript(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".py"
}

// IsYaml checks if the path has a YAML extension (.yaml, .yml).
// Job manifests and config files use it.
func IsYaml(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ReplaceExt swaps the extension of path for ext (ext includes the dot).
// A path without extension simply gets ext appended.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// --- Filesystem Checks (OS-based) ---

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDir checks if a directory exists, and creates it if it doesn't.
func EnsureDir(path string) error {
	if DirExists(path) {
		return nil
	}
	return os.MkdirAll(path, PermDir)
}
