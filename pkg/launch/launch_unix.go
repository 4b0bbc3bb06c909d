//go:build unix

package launch

import (
	"fmt"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Exec replaces the current process with argv, exporting the device
// selection through VisibleDevicesEnv. It only returns on failure.
func Exec(argv []string, visibleDevices string) error {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("command %s not found: %w", argv[0], err)
	}

	if err := unix.Exec(path, argv, buildEnv(visibleDevices)); err != nil {
		return fmt.Errorf("executing %s: %w", path, err)
	}

	return nil
}
