package invoke

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/mitchellh/go-ps"
)

// RunningProcess is a live process whose executable matches the sorter.
type RunningProcess struct {
	PID        int
	PPID       int
	Executable string
}

// FindRunning finds all processes running the given executable.
// Uses go-ps library for cross-platform process discovery. Only the base
// name of executable is compared, and the ".exe" suffix is ignored on Windows.
func FindRunning(executable string) ([]RunningProcess, error) {
	processes, err := ps.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to get process list: %w", err)
	}

	want := normaliseExecutable(executable)
	var found []RunningProcess
	for _, p := range processes {
		if normaliseExecutable(p.Executable()) == want {
			found = append(found, RunningProcess{
				PID:        p.Pid(),
				PPID:       p.PPid(),
				Executable: p.Executable(),
			})
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].PID < found[j].PID })
	return found, nil
}

func normaliseExecutable(name string) string {
	base := filepath.Base(name)
	if runtime.GOOS == "windows" {
		base = strings.TrimSuffix(strings.ToLower(base), ".exe")
	}
	return base
}
