package scheduler

import (
	"sort"
	"strings"

	"github.com/Justype/slurmit/internal/utils"
)

// Dependency types understood by sbatch --dependency.
const (
	DependAfter      = "after"
	DependAfterAny   = "afterany"
	DependAfterOK    = "afterok"
	DependAfterNotOK = "afternotok"
	DependAfterCorr  = "aftercorr"
	DependAfterBurst = "afterburstbuffer"
	DependSingleton  = "singleton"

	DefaultDependencyType = DependAfterOK
)

var knownDependencyTypes = map[string]bool{
	DependAfter:      true,
	DependAfterAny:   true,
	DependAfterOK:    true,
	DependAfterNotOK: true,
	DependAfterCorr:  true,
	DependAfterBurst: true,
	DependSingleton:  true,
}

// DependencyTypes returns the dependency types sbatch accepts, sorted.
func DependencyTypes() []string {
	types := make([]string, 0, len(knownDependencyTypes))
	for t := range knownDependencyTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Dependency is the list of job IDs a submission waits for. All of them
// must satisfy the dependency type. An empty list means no dependency.
type Dependency []string

// NoDependency submits without a --dependency segment.
var NoDependency Dependency

// After depends on every non-empty id.
func After(ids ...string) Dependency {
	var d Dependency
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			d = append(d, id)
		}
	}
	return d
}

// IsNone reports whether the dependency is empty.
func (d Dependency) IsNone() bool {
	return len(d) == 0
}

// String joins the ids with ":".
func (d Dependency) String() string {
	return strings.Join(d, ":")
}

// Flag renders `--dependency=<type>:<ids>`, or "" for no dependency.
// An empty type means afterok.
func (d Dependency) Flag(depType string) string {
	if d.IsNone() {
		return ""
	}
	if depType == "" {
		depType = DefaultDependencyType
	}
	if !knownDependencyTypes[depType] {
		utils.PrintWarning("Unknown dependency type %s, passing it to sbatch as is", utils.StyleName(depType))
	}
	return "--dependency=" + depType + ":" + d.String()
}
