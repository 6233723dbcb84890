package scheduler

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Justype/slurmit/internal/utils"
)

// ScriptSuffix is appended to directive file names that lack it.
const ScriptSuffix = ".sh"

// readFileLines opens a file and returns all its lines.
func readFileLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, path)
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}
	return lines, nil
}

// normalizeScriptName appends ScriptSuffix unless name already ends with it.
func normalizeScriptName(name string) string {
	if strings.HasSuffix(name, ScriptSuffix) {
		return name
	}
	return name + ScriptSuffix
}

// envFlag turns an EnvVarsToPass key into the program flag.
// "name" -> "--name"; "--name" is kept; "-n" is rejected.
func envFlag(key string) (string, error) {
	switch {
	case strings.HasPrefix(key, "--"):
		return key, nil
	case strings.HasPrefix(key, "-"):
		return "", fmt.Errorf("%w: %s", ErrShortFlag, key)
	case key == "":
		return "", fmt.Errorf("%w: empty key", ErrShortFlag)
	}
	return "--" + key, nil
}

// checkResourceOptions warns about time and mem values sbatch would reject.
// It never fails: sbatch has the final word.
func checkResourceOptions(opts *Options) {
	if v, ok := opts.Get("time"); ok {
		if _, err := parseSlurmTimeSpec(v); err != nil {
			utils.PrintWarning("Option --time=%s does not look like a Slurm time: %v", v, err)
		}
	}
	if v, ok := opts.Get("mem"); ok {
		if _, err := parseMemoryMB(v); err != nil {
			utils.PrintWarning("Option --mem=%s does not look like a Slurm memory size: %v", v, err)
		}
	}
}

// parseMemoryMB converts memory strings like "8G", "1024M" to MB.
// A bare number is MB, as in sbatch.
func parseMemoryMB(memStr string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(memStr))
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidMemoryFormat, memStr)
	}
	value, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidMemoryFormat, memStr)
	}

	switch s[i:] {
	case "M", "MB", "":
		return value, nil
	case "G", "GB":
		return value * 1024, nil
	case "K", "KB":
		return value / 1024, nil
	case "T", "TB":
		return value * 1024 * 1024, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidMemoryFormat, memStr)
	}
}

// parseSlurmTimeSpec accepts the sbatch --time forms: "MM", "MM:SS",
// "HH:MM:SS", "D-HH", "D-HH:MM" and "D-HH:MM:SS".
func parseSlurmTimeSpec(timeStr string) (time.Duration, error) {
	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTimeFormat)
	}

	invalid := fmt.Errorf("%w: %s", ErrInvalidTimeFormat, timeStr)

	var days int64
	hms := timeStr
	hasDays := false
	if dayPart, rest, ok := strings.Cut(hms, "-"); ok {
		d, err := strconv.ParseInt(dayPart, 10, 64)
		if err != nil || d < 0 {
			return 0, invalid
		}
		days = d
		hms = rest
		hasDays = true
	}

	parts := strings.Split(hms, ":")
	nums := make([]int64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, invalid
		}
		nums[i] = n
	}

	var hours, minutes, seconds int64
	switch {
	case hasDays && len(nums) == 1:
		hours = nums[0]
	case hasDays && len(nums) == 2:
		hours, minutes = nums[0], nums[1]
	case len(nums) == 3:
		hours, minutes, seconds = nums[0], nums[1], nums[2]
	case !hasDays && len(nums) == 2:
		minutes, seconds = nums[0], nums[1]
	case !hasDays && len(nums) == 1:
		minutes = nums[0]
	default:
		return 0, invalid
	}

	total := days*24*3600 + hours*3600 + minutes*60 + seconds
	return time.Duration(total) * time.Second, nil
}

func formatSlurmTimeSpec(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int64(d.Seconds())
	days := total / (24 * 3600)
	rem := total % (24 * 3600)
	hours := rem / 3600
	rem %= 3600
	minutes := rem / 60
	seconds := rem % 60
	if days > 0 {
		return fmt.Sprintf("%d-%02d:%02d:%02d", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// NormalizeTime validates an sbatch --time value and returns it in the
// [D-]HH:MM:SS form.
func NormalizeTime(s string) (string, error) {
	d, err := parseSlurmTimeSpec(s)
	if err != nil {
		return "", err
	}
	if d == 0 {
		return "", fmt.Errorf("%w: zero duration", ErrInvalidTimeFormat)
	}
	return formatSlurmTimeSpec(d), nil
}

// ValidateMemory checks an sbatch --mem value.
func ValidateMemory(s string) error {
	_, err := parseMemoryMB(s)
	return err
}
