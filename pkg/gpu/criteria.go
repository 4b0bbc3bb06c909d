package gpu

import (
	"fmt"
	"strconv"
	"strings"
)

// Criteria are the thresholds and quota a selection must satisfy.
type Criteria struct {
	// MinFreeMemory is the minimum free memory per device in bytes.
	// Zero disables the check.
	MinFreeMemory uint64
	// MaxUtilization is the highest acceptable utilization percentage.
	// Negative disables the check.
	MaxUtilization int
	// RequireIdle restricts selection to idle devices.
	RequireIdle bool
	// MinCount is how many devices must be selected at least.
	MinCount int
	// MaxCount is how many devices may be selected at most.
	MaxCount int
}

// Validate checks that the criteria are usable.
func (c Criteria) Validate() error {
	if c.MinCount < 1 {
		return fmt.Errorf("at least one GPU must be requested, got %d", c.MinCount)
	}

	if c.MaxCount < c.MinCount {
		return fmt.Errorf("max GPU count %d is below min count %d", c.MaxCount, c.MinCount)
	}

	if c.MaxUtilization > 100 {
		return fmt.Errorf("max utilization %d%% is above 100%%", c.MaxUtilization)
	}

	return nil
}

// ParseDeviceList parses a comma separated list of device indices, as
// given to --gpus.
func ParseDeviceList(list string) ([]int, error) {
	parts := strings.Split(list, ",")
	indices := make([]int, 0, len(parts))
	seen := make(map[int]struct{}, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		index, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parsing GPU index %q: %w", part, err)
		}

		if index < 0 {
			return nil, fmt.Errorf("GPU index %d is negative", index)
		}

		if _, ok := seen[index]; ok {
			return nil, fmt.Errorf("GPU index %d given more than once", index)
		}

		seen[index] = struct{}{}
		indices = append(indices, index)
	}

	if len(indices) == 0 {
		return nil, fmt.Errorf("no GPU indices in %q", list)
	}

	return indices, nil
}
