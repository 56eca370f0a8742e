package util

import (
	"os/exec"
	"strconv"
)

// IsProcessAlive reports whether a process with pid exists. It shells
// out to ps, which exits non-zero if the pid is unknown. Reaped
// processes are reported as gone.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	return exec.Command("ps", "-p", strconv.Itoa(pid)).Run() == nil
}
