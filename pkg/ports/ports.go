package ports

import (
	"context"
	"time"

	"gpurun/pkg/gpu"
	"gpurun/pkg/lock"
)

// DeviceDiscovery produces fresh device snapshots.
type DeviceDiscovery interface {
	// Available reports whether this host can produce snapshots at all.
	Available() bool
	// Snapshots queries the driver for the current state of every device.
	// Results are never cached, every call sees fresh data.
	Snapshots(ctx context.Context) ([]gpu.Snapshot, error)
}

// LockCoordinator manages advisory per device claims.
type LockCoordinator interface {
	Claims() (map[int]lock.Claim, error)
	TryClaim(indices []int) error
	Release(indices []int)
}

// Collection groups the ports used by the app.
type Collection struct {
	Discovery DeviceDiscovery
	Locks     LockCoordinator
	Clock     func() time.Time
	Sleep     func(ctx context.Context, d time.Duration)
}
