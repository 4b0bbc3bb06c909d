package gpu

import (
	"fmt"

	"github.com/docker/go-units"
)

// Filter returns the devices that satisfy the criteria thresholds. Claims
// are not considered here, the selector deals with those. Filtering an
// already filtered slice again is a no-op.
func Filter(devices []Device, criteria Criteria) []Device {
	kept := make([]Device, 0, len(devices))

	for _, device := range devices {
		if criteria.MinFreeMemory > 0 && device.MemoryFree() < criteria.MinFreeMemory {
			continue
		}

		if criteria.MaxUtilization >= 0 && device.Utilization > criteria.MaxUtilization {
			continue
		}

		if criteria.RequireIdle && !device.Idle {
			continue
		}

		kept = append(kept, device)
	}

	return kept
}

// FilterReasons explains why devices did not qualify, for the error
// message when nothing is left to select.
func FilterReasons(devices []Device, claimedCount int, criteria Criteria) []string {
	var reasons []string

	if claimedCount > 0 {
		reasons = append(reasons, fmt.Sprintf("%d claimed by other processes", claimedCount))
	}

	var hidden, lowMemory, busy, notIdle int

	for _, device := range devices {
		if device.SuspectedHidden {
			hidden++
		}

		if criteria.MinFreeMemory > 0 && device.MemoryFree() < criteria.MinFreeMemory {
			lowMemory++
		}

		if criteria.MaxUtilization >= 0 && device.Utilization > criteria.MaxUtilization {
			busy++
		}

		if criteria.RequireIdle && !device.Idle {
			notIdle++
		}
	}

	if hidden > 0 {
		reasons = append(reasons, fmt.Sprintf("%d with suspected hidden usage", hidden))
	}

	if lowMemory > 0 {
		reasons = append(reasons, fmt.Sprintf("%d below %s free memory",
			lowMemory, units.BytesSize(float64(criteria.MinFreeMemory))))
	}

	if busy > 0 {
		reasons = append(reasons, fmt.Sprintf("%d above %d%% utilization", busy, criteria.MaxUtilization))
	}

	if notIdle > 0 {
		reasons = append(reasons, fmt.Sprintf("%d not idle", notIdle))
	}

	return reasons
}
