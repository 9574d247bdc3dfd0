package swap

import (
	"os"
	"strings"
)

// InContainer reports whether the process appears to run inside a container.
// Swap provisioning from inside a container usually affects the host (or is
// blocked outright), so the wizard warns about it. Advisory only, never a
// gate.
func InContainer() bool {
	if FileExists("/.dockerenv") {
		return true
	}

	data, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false
	}
	content := string(data)
	for _, marker := range []string{"docker", "lxc", "containerd", "kubepods"} {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}
