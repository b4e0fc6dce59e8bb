//go:build unix

package invoke

import (
	"os"
	"syscall"
)

// terminate asks the sorter to shut down with SIGTERM so it can clean up
// partially written output.
func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
