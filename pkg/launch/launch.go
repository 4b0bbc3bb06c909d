package launch

import (
	"fmt"
	"os"
	"strings"
)

// VisibleDevicesEnv is the environment variable CUDA reads to restrict
// which devices a process may use.
const VisibleDevicesEnv = "CUDA_VISIBLE_DEVICES"

// buildEnv returns the current environment with VisibleDevicesEnv set to
// the given value, replacing any inherited value. An empty value leaves
// the environment untouched.
func buildEnv(visibleDevices string) []string {
	env := os.Environ()
	if visibleDevices == "" {
		return env
	}

	out := make([]string, 0, len(env)+1)

	for _, kv := range env {
		if strings.HasPrefix(kv, VisibleDevicesEnv+"=") {
			continue
		}

		out = append(out, kv)
	}

	return append(out, fmt.Sprintf("%s=%s", VisibleDevicesEnv, visibleDevices))
}
