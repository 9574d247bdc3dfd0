package swap

import (
	"os/exec"
)

// Runner executes an external command and returns its combined output.
// Controller and Allocator take one as a field so tests can stub out the
// system tools (swapon, mkswap, fallocate, chattr, sysctl).
type Runner func(name string, args ...string) (string, error)

// RunCommandSilent executes a command without streaming output to the terminal.
func RunCommandSilent(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// CommandExists reports whether name resolves on PATH.
func CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
