package run

import (
	"testing"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpurun/internal/config"
	"gpurun/pkg/app"
	errdefs "gpurun/pkg/errors"
)

func parseRunFlags(t *testing.T, args ...string) (*cobra.Command, *config.Config) {
	t.Helper()

	cfg := &config.Config{}

	cmd, err := NewCommand(cfg)
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags(args))

	return cmd, cfg
}

func TestAcquireSpec_defaults(t *testing.T) {
	cmd, cfg := parseRunFlags(t)

	spec, err := acquireSpec(cmd, cfg)
	require.NoError(t, err)

	assert.Equal(t, uint64(2*units.GiB), spec.Criteria.MinFreeMemory)
	assert.Equal(t, -1, spec.Criteria.MaxUtilization)
	assert.Equal(t, 1, spec.Criteria.MinCount)
	assert.Equal(t, 1, spec.Criteria.MaxCount)
	assert.False(t, spec.Wait)
	assert.Empty(t, spec.Explicit)
	assert.Equal(t, app.NoTimeout, spec.Timeout)
}

func TestAcquireSpec_explicitDevices(t *testing.T) {
	cmd, cfg := parseRunFlags(t, "--gpus", "0,2")

	spec, err := acquireSpec(cmd, cfg)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, spec.Explicit)
}

func TestAcquireSpec_timeoutRequiresWait(t *testing.T) {
	cmd, cfg := parseRunFlags(t, "--timeout", "30s")

	_, err := acquireSpec(cmd, cfg)

	assert.ErrorIs(t, err, errdefs.ErrTimeoutRequiresWait)
}

func TestAcquireSpec_timeoutWithWait(t *testing.T) {
	cmd, cfg := parseRunFlags(t, "--wait", "--timeout", "30s")

	spec, err := acquireSpec(cmd, cfg)
	require.NoError(t, err)

	assert.True(t, spec.Wait)
	assert.Equal(t, 30*time.Second, spec.Timeout)
}

func TestAcquireSpec_waitWithoutTimeoutWaitsForever(t *testing.T) {
	cmd, cfg := parseRunFlags(t, "--wait")

	spec, err := acquireSpec(cmd, cfg)
	require.NoError(t, err)

	assert.Equal(t, app.NoTimeout, spec.Timeout)
}

func TestAcquireSpec_invalidMinMemory(t *testing.T) {
	cmd, cfg := parseRunFlags(t, "--min-memory", "lots")

	_, err := acquireSpec(cmd, cfg)

	assert.ErrorContains(t, err, "parsing min memory")
}

func TestAcquireSpec_invalidCounts(t *testing.T) {
	cmd, cfg := parseRunFlags(t, "--min-gpus", "3", "--max-gpus", "2")

	_, err := acquireSpec(cmd, cfg)

	assert.Error(t, err)
}

func TestAcquireSpec_invalidDeviceList(t *testing.T) {
	cmd, cfg := parseRunFlags(t, "--gpus", "0,0")

	_, err := acquireSpec(cmd, cfg)

	assert.Error(t, err)
}

func TestNewCommand_gpusExcludesCounts(t *testing.T) {
	cmd, _ := parseRunFlags(t, "--gpus", "0", "--min-gpus", "2")

	assert.Error(t, cmd.ValidateFlagGroups())
}

func TestNewCommand_keepsWrappedCommandFlags(t *testing.T) {
	cfg := &config.Config{}

	cmd, err := NewCommand(cfg)
	require.NoError(t, err)

	// Everything after the first positional belongs to the wrapped
	// command, even when it looks like one of our flags.
	require.NoError(t, cmd.ParseFlags([]string{"--wait", "python", "--wait=off", "-m", "train"}))

	assert.True(t, cfg.Wait)
	assert.Equal(t, []string{"python", "--wait=off", "-m", "train"}, cmd.Flags().Args())
}

func TestSelectionRequested(t *testing.T) {
	cmd, _ := parseRunFlags(t)
	assert.False(t, selectionRequested(cmd))

	withFlags, _ := parseRunFlags(t, "--min-gpus", "2")
	assert.True(t, selectionRequested(withFlags))
}
