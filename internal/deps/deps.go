package deps

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Requirement names an external binary and what it is used for.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the resolved availability of one Requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries resolves every requirement in order. A command containing a
// path separator must name an executable file; a bare name is looked up on
// PATH. Available entries carry the resolved path.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, resolveRequirement(req))
	}
	return results
}

func resolveRequirement(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	switch {
	case cmd == "":
		status.Detail = "command not configured"
	case strings.ContainsRune(cmd, os.PathSeparator):
		info, err := os.Stat(cmd)
		if err != nil || !isExecutable(info) {
			status.Detail = fmt.Sprintf("%q is not an executable file", cmd)
			break
		}
		status.Available = true
	default:
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			break
		}
		status.Command = resolved
		status.Available = true
	}
	return status
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
