package gpu

import (
	"fmt"

	"github.com/docker/go-units"
)

const (
	// HiddenUsageThreshold is how much used memory may lack an owning
	// process before the device is flagged as having hidden usage.
	HiddenUsageThreshold = 512 * units.MiB

	// IdleMemoryThreshold is the most memory a device may have in use and
	// still count as idle.
	IdleMemoryThreshold = 500 * units.MiB
)

// ProcessUsage describes a single process visible on a device.
type ProcessUsage struct {
	// PID is the process identifier as reported by the driver.
	PID uint32 `json:"pid"`
	// Memory is the device memory attributed to the process in bytes.
	// Zero means the driver could not attribute memory to it.
	Memory uint64 `json:"memory_bytes"`
}

// Snapshot is a point in time reading of a single device.
type Snapshot struct {
	Index       int            `json:"index"`
	MemoryTotal uint64         `json:"memory_total_bytes"`
	MemoryUsed  uint64         `json:"memory_used_bytes"`
	Utilization int            `json:"utilization_percent"`
	Processes   []ProcessUsage `json:"processes,omitempty"`
}

// MemoryFree returns the free memory on the device in bytes.
func (s Snapshot) MemoryFree() uint64 {
	if s.MemoryUsed > s.MemoryTotal {
		return 0
	}

	return s.MemoryTotal - s.MemoryUsed
}

// Device is a snapshot enriched with its occupancy classification.
type Device struct {
	Snapshot

	// Attributed is the used memory accounted for by visible processes.
	Attributed uint64 `json:"attributed_bytes"`
	// Unattributed is the used memory no visible process accounts for.
	Unattributed uint64 `json:"unattributed_bytes"`
	// SuspectedHidden is set when unattributed usage exceeds
	// HiddenUsageThreshold, typically processes in other containers.
	SuspectedHidden bool `json:"suspected_hidden_usage"`
	// Idle is set when the device has no visible processes, little used
	// memory and no suspected hidden usage.
	Idle bool `json:"idle"`
}

// Classify derives the occupancy classification for a snapshot.
func Classify(snapshot Snapshot) Device {
	if snapshot.MemoryUsed > snapshot.MemoryTotal {
		snapshot.MemoryUsed = snapshot.MemoryTotal
	}

	var attributed uint64

	known := false

	for _, p := range snapshot.Processes {
		if p.Memory > 0 {
			attributed += p.Memory
			known = true
		}
	}

	// Without a per process breakdown, used memory is assumed to belong
	// to the visible processes.
	if !known && len(snapshot.Processes) > 0 {
		attributed = snapshot.MemoryUsed
	}

	if attributed > snapshot.MemoryUsed {
		attributed = snapshot.MemoryUsed
	}

	unattributed := snapshot.MemoryUsed - attributed
	hidden := unattributed > HiddenUsageThreshold

	return Device{
		Snapshot:        snapshot,
		Attributed:      attributed,
		Unattributed:    unattributed,
		SuspectedHidden: hidden,
		Idle:            len(snapshot.Processes) == 0 && snapshot.MemoryUsed < IdleMemoryThreshold && !hidden,
	}
}

// ClassifyAll classifies every snapshot in the slice.
func ClassifyAll(snapshots []Snapshot) []Device {
	devices := make([]Device, 0, len(snapshots))
	for _, snapshot := range snapshots {
		devices = append(devices, Classify(snapshot))
	}

	return devices
}

// String renders the device as a single status line.
func (d Device) String() string {
	state := "BUSY"
	if d.Idle {
		state = "IDLE"
	}

	var usedPct float64
	if d.MemoryTotal > 0 {
		usedPct = float64(d.MemoryUsed) / float64(d.MemoryTotal) * 100
	}

	line := fmt.Sprintf("GPU %d: %s - %d/%d MiB (%.1f%%), %d%% util, %d processes",
		d.Index,
		state,
		d.MemoryUsed/units.MiB,
		d.MemoryTotal/units.MiB,
		usedPct,
		d.Utilization,
		len(d.Processes))

	if d.SuspectedHidden {
		line += fmt.Sprintf(" (suspected hidden usage: %d MiB)", d.Unattributed/units.MiB)
	}

	return line
}
