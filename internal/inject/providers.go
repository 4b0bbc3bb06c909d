package inject

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"gpurun/internal/config"
	"gpurun/pkg/lock"
	"gpurun/pkg/nvml"
	"gpurun/pkg/ports"
)

// appPorts assembles the live port implementations from the config.
func appPorts(cfg *config.Config) (*ports.Collection, error) {
	coordinator, err := lock.New(afero.NewOsFs(), lock.Config{
		Dir:      cfg.LockDir,
		ClaimTTL: cfg.ClaimTTL,
	})
	if err != nil {
		return nil, err
	}

	return &ports.Collection{
		Discovery: nvml.New(),
		Locks:     coordinator,
		Clock:     time.Now,
		Sleep:     sleepWithContext,
	}, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
