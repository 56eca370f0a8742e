//go:build windows

package worker

import (
	"os"
	"os/exec"
)

// Windows has no SIGTERM equivalent for console-less children,
// so both graceful and forced stops kill the process.
func signalProcess(p *os.Process, _ bool) error {
	return p.Kill()
}

func initCmd(cmd *exec.Cmd) {
	// No-op on Windows.
}
