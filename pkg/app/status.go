package app

import (
	"context"
	"fmt"

	"gpurun/pkg/gpu"
	"gpurun/pkg/lock"
)

// StatusReport is the fused device and claim view used for reporting.
type StatusReport struct {
	// Supported is false when this host cannot produce snapshots.
	Supported bool
	Devices   []gpu.Device
	Claims    map[int]lock.Claim
}

// Status returns the current device and claim state.
func (a *App) Status(ctx context.Context) (*StatusReport, error) {
	if !a.ports.Discovery.Available() {
		return &StatusReport{}, nil
	}

	snapshots, err := a.ports.Discovery.Snapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}

	claims, err := a.ports.Locks.Claims()
	if err != nil {
		return nil, err
	}

	return &StatusReport{
		Supported: true,
		Devices:   gpu.ClassifyAll(snapshots),
		Claims:    claims,
	}, nil
}
