//go:build !unix

package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Exec runs argv as a child process with the device selection exported
// and exits with its status. Process replacement is not available here.
func Exec(argv []string, visibleDevices string) error {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("command %s not found: %w", argv[0], err)
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = buildEnv(visibleDevices)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}

		return fmt.Errorf("running %s: %w", path, err)
	}

	os.Exit(0)

	return nil
}
