package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	errdefs "gpurun/pkg/errors"
	"gpurun/pkg/gpu"
	"gpurun/pkg/lock"
	"gpurun/pkg/log"
)

// NoTimeout disables the wait deadline.
const NoTimeout = time.Duration(-1)

// AcquireSpec describes one acquisition request.
type AcquireSpec struct {
	// Criteria used for automatic selection.
	Criteria gpu.Criteria
	// Explicit bypasses selection and uses these indices as given.
	Explicit []int
	// Wait retries until enough devices qualify instead of failing.
	Wait bool
	// Timeout bounds the wait. NoTimeout waits forever, zero gives up
	// after the first attempt.
	Timeout time.Duration
}

// Acquire picks devices matching spec and claims them. The claim
// files stay behind for the exec'd command and are reclaimed once the
// owning process exits.
func (a *App) Acquire(ctx context.Context, spec AcquireSpec) (*gpu.Selection, error) {
	logger := log.GetLogger(ctx).WithField("action", "acquire")

	start := a.ports.Clock()
	attempts := 0

	for {
		attempts++

		selection, devices, err := a.attempt(ctx, spec)
		if err == nil {
			return selection, nil
		}

		var conflict errdefs.ClaimConflictError
		if errors.As(err, &conflict) {
			// Raced with another process between selection and claim.
			// The next pass sees its claim file, so retry right away.
			logger.Debugf("lost the claim race for GPU %d, retrying", conflict.Index)

			continue
		}

		var insufficient errdefs.InsufficientDevicesError
		if !errors.As(err, &insufficient) {
			return nil, err
		}

		if !spec.Wait {
			return nil, err
		}

		elapsed := a.ports.Clock().Sub(start)
		if spec.Timeout >= 0 && elapsed >= spec.Timeout {
			return nil, errdefs.TimeoutExceededError{Attempts: attempts, Elapsed: elapsed, Last: err}
		}

		idle := idleIndices(devices)
		logger.Infof("waiting for GPUs (attempt %d, %s elapsed): %d idle %v",
			attempts, elapsed.Round(time.Second), len(idle), idle)

		a.ports.Sleep(ctx, a.cfg.PollInterval)

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("waiting for GPUs: %w", err)
		}
	}
}

// attempt runs one snapshot, classify, select, claim pass. The classified
// devices are returned alongside so the wait loop can report idle counts.
func (a *App) attempt(ctx context.Context, spec AcquireSpec) (*gpu.Selection, []gpu.Device, error) {
	snapshots, err := a.ports.Discovery.Snapshots(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("querying devices: %w", err)
	}

	devices := gpu.ClassifyAll(snapshots)
	if len(devices) == 0 {
		return nil, nil, errdefs.ErrNoDevices
	}

	claims, err := a.ports.Locks.Claims()
	if err != nil {
		return nil, devices, err
	}

	selection, err := a.selectDevices(devices, claims, spec)
	if err != nil {
		return nil, devices, err
	}

	if err := a.ports.Locks.TryClaim(selection.Indices); err != nil {
		return nil, devices, err
	}

	return selection, devices, nil
}

func (a *App) selectDevices(devices []gpu.Device, claims map[int]lock.Claim, spec AcquireSpec) (*gpu.Selection, error) {
	if len(spec.Explicit) > 0 {
		return gpu.SelectExplicit(devices, spec.Explicit, spec.Criteria)
	}

	claimed := make(map[int]bool, len(claims))
	for index := range claims {
		claimed[index] = true
	}

	selection, err := gpu.Select(gpu.Filter(devices, spec.Criteria), claimed, spec.Criteria)
	if err != nil {
		var insufficient errdefs.InsufficientDevicesError
		if errors.As(err, &insufficient) {
			insufficient.Reasons = gpu.FilterReasons(devices, len(claims), spec.Criteria)

			return nil, insufficient
		}

		return nil, err
	}

	return selection, nil
}

func idleIndices(devices []gpu.Device) []int {
	idle := make([]int, 0, len(devices))

	for _, device := range devices {
		if device.Idle {
			idle = append(idle, device.Index)
		}
	}

	return idle
}
