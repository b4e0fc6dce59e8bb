//go:build windows

package invoke

import (
	"os"
)

// terminate kills the process outright.
// Windows has no SIGTERM equivalent for console processes we do not own.
func terminate(p *os.Process) error {
	return p.Kill()
}
