//go:build !linux || !cgo

package nvml

import (
	"context"

	"gpurun/pkg/gpu"
)

// Discoverer is a no-op on platforms without NVML. Callers fall back to
// running the command without device selection.
type Discoverer struct{}

func New() *Discoverer {
	return &Discoverer{}
}

// Available reports whether snapshots can be produced on this host.
func (d *Discoverer) Available() bool {
	return false
}

// Snapshots returns no devices.
func (d *Discoverer) Snapshots(_ context.Context) ([]gpu.Snapshot, error) {
	return nil, nil
}
