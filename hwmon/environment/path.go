package environment

import (
	"os"
	"path/filepath"
)

const KeyHostSys = "HOST_SYS"

// SysPath resolves elem under the host's /sys tree. KeyHostSys relocates the
// root so containerized runs can mount the host tree elsewhere and tests can
// point at a fixture tree.
func SysPath(elem ...string) string {
	root := os.Getenv(KeyHostSys)
	if root == "" {
		root = "/sys"
	}

	return filepath.Join(append([]string{root}, elem...)...)
}
