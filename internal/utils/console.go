package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// DebugMode controls whether PrintDebug output is visible.
var DebugMode = false

// QuietMode suppresses informational lines. Warnings and errors still print,
// and commands print bare results (job IDs, paths) to stdout.
var QuietMode = false

// Stdout and Stderr receive every console line. Tests swap them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

const projectPrefix = "[SIT]"

var (
	red         = color.New(color.FgRed).SprintFunc()
	green       = color.New(color.FgGreen).SprintFunc()
	yellow      = color.New(color.FgYellow).SprintFunc()
	blueBold    = color.New(color.FgBlue, color.Bold).SprintFunc()
	magenta     = color.New(color.FgMagenta).SprintFunc()
	magentaBold = color.New(color.FgMagenta, color.Bold).SprintFunc()
	cyan        = color.New(color.FgCyan).SprintFunc()
	cyanBold    = color.New(color.FgCyan, color.Bold).SprintFunc()
	gray        = color.New(color.FgWhite).SprintFunc()
	bold        = color.New(color.Bold).SprintFunc()
)

// StyleError formats failures (red).
func StyleError(msg string) string { return red(msg) }

// StyleSuccess formats success markers (green).
func StyleSuccess(msg string) string { return green(msg) }

// StyleWarning formats warnings (yellow).
func StyleWarning(msg string) string { return yellow(msg) }

// StyleHint formats suggestions and error labels (cyan).
func StyleHint(msg string) string { return cyan(msg) }

// StyleNote formats neutral annotations (magenta).
func StyleNote(msg string) string { return magenta(msg) }

// StyleInfo formats config values and status labels (magenta).
func StyleInfo(msg string) string { return magenta(msg) }

func StyleDebug(msg string) string { return gray(msg) }

// StyleCommand formats shell commands such as a composed sbatch line.
func StyleCommand(cmd string) string { return gray(cmd) }

func StyleTitle(title string) string { return bold(cyan(title)) }

// StyleNumber formats job IDs and counts.
func StyleNumber(num interface{}) string {
	return magenta(fmt.Sprintf("%v", num))
}

// StylePath colors directive files, generated programs and other paths
// differently so the two generated files stand apart in output.
func StylePath(path string) string {
	switch {
	case IsShellScript(path):
		return magentaBold(path)
	case IsPythonScript(path):
		return cyanBold(path)
	default:
		return blueBold(path)
	}
}

// StyleName formats function names, parameter names and environments.
func StyleName(name string) string { return yellow(name) }

// printTagged writes "[SIT]<tag> message" to w. An empty tag leaves a space
// after the prefix.
func printTagged(w io.Writer, tag, format string, a []interface{}) {
	msg := fmt.Sprintf(format, a...)
	if tag == "" {
		fmt.Fprintf(w, "%s %s\n", projectPrefix, msg)
		return
	}
	fmt.Fprintf(w, "%s%s %s\n", projectPrefix, tag, msg)
}

// PrintMessage prints an untagged info line.
// Output: [SIT] Message...
func PrintMessage(format string, a ...interface{}) {
	if QuietMode {
		return
	}
	printTagged(Stdout, "", format, a)
}

// PrintSuccess output: [SIT][PASS] Submitted job 123
func PrintSuccess(format string, a ...interface{}) {
	if QuietMode {
		return
	}
	printTagged(Stdout, StyleSuccess("[PASS]"), format, a)
}

// PrintError always prints, to stderr.
// Output: [SIT][ERR]  invalid slurm_folder: ...
func PrintError(format string, a ...interface{}) {
	printTagged(Stderr, StyleError("[ERR] "), format, a)
}

// PrintWarning always prints, to stderr.
func PrintWarning(format string, a ...interface{}) {
	printTagged(Stderr, StyleWarning("[WARN]"), format, a)
}

func PrintHint(format string, a ...interface{}) {
	if QuietMode {
		return
	}
	printTagged(Stdout, StyleHint("[HINT]"), format, a)
}

// PrintNote output: [SIT][NOTE] Parameter seed=1 is removed from the call; ...
func PrintNote(format string, a ...interface{}) {
	if QuietMode {
		return
	}
	printTagged(Stdout, StyleNote("[NOTE]"), format, a)
}

// PrintDebug prints to stderr only in DebugMode.
func PrintDebug(format string, a ...interface{}) {
	if !DebugMode {
		return
	}
	printTagged(Stderr, StyleDebug("[DBG] "), format, a)
}

// IsInteractiveShell reports whether stdin is a terminal, i.e. whether a
// prompt can be answered.
func IsInteractiveShell() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
