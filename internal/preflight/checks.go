package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"deepscan/internal/config"
	"deepscan/internal/deps"
	"deepscan/internal/models"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckCheckpoints reports which detector checkpoints are present in dir.
// Detectors without a checkpoint run with untrained weights.
func CheckCheckpoints(dir string) Result {
	var missing []string
	kinds := models.Kinds()
	for _, kind := range kinds {
		info, err := os.Stat(models.CheckpointPath(dir, kind))
		if err != nil || info.IsDir() {
			missing = append(missing, kind)
		}
	}
	present := len(kinds) - len(missing)
	if len(missing) == 0 {
		return Result{Name: "Checkpoints", Passed: true, Detail: fmt.Sprintf("%d/%d present", present, len(kinds))}
	}
	return Result{
		Name:   "Checkpoints",
		Detail: fmt.Sprintf("%d/%d present (untrained: %s)", present, len(kinds), strings.Join(missing, ", ")),
	}
}

// CheckSystemDeps evaluates the external binaries used by the media readers.
// The CLI check command and the server startup share this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckMediaTools(cfg.FFmpegBinary(), cfg.FFprobeBinary())
}
