package run

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	cmdflags "gpurun/internal/command/flags"
	"gpurun/internal/config"
	"gpurun/internal/inject"
	"gpurun/pkg/app"
	errdefs "gpurun/pkg/errors"
	"gpurun/pkg/flags"
	"gpurun/pkg/gpu"
	"gpurun/pkg/launch"
	"gpurun/pkg/log"
)

func NewCommand(cfg *config.Config) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "run [flags] -- COMMAND [ARGS...]",
		Short: "Select GPUs and run a command on them",
		Args:  cobra.ArbitraryArgs,
		PreRunE: func(c *cobra.Command, _ []string) error {
			flags.BindCommandToViper(c)

			return nil
		},
		RunE: func(c *cobra.Command, args []string) error {
			return run(c, cfg, args)
		},
	}

	// Flags after the first positional belong to the wrapped command.
	cmd.Flags().SetInterspersed(false)

	cmdflags.AddSelectionFlagsToCommand(cmd, cfg)
	cmdflags.AddWaitFlagsToCommand(cmd, cfg)
	cmdflags.AddLockFlagsToCommand(cmd, cfg)

	cmd.MarkFlagsMutuallyExclusive(cmdflags.GPUsFlag, cmdflags.MinGPUsFlag)
	cmd.MarkFlagsMutuallyExclusive(cmdflags.GPUsFlag, cmdflags.MaxGPUsFlag)

	return cmd, nil
}

func run(cmd *cobra.Command, cfg *config.Config, args []string) error {
	ctx := cmd.Context()
	logger := log.GetLogger(ctx)

	if len(args) == 0 {
		return errdefs.ErrNoCommand
	}

	spec, err := acquireSpec(cmd, cfg)
	if err != nil {
		return err
	}

	ports, err := inject.InitializePorts(cfg)
	if err != nil {
		return err
	}

	if !ports.Discovery.Available() {
		if selectionRequested(cmd) {
			logger.Warn("GPU selection is not supported on this platform, running the command directly")
		}

		return launch.Exec(args, "")
	}

	gpuApp := inject.InitializeApp(appConfig(cfg), ports)

	selection, err := gpuApp.Acquire(ctx, spec)
	if err != nil {
		return err
	}

	for _, warning := range selection.Warnings {
		logger.Warn(warning)
	}

	logger.Infof("selected GPUs: %s", selection.VisibleDevices())

	return launch.Exec(args, selection.VisibleDevices())
}

func acquireSpec(cmd *cobra.Command, cfg *config.Config) (app.AcquireSpec, error) {
	criteria := gpu.Criteria{
		MaxUtilization: cfg.MaxUtilization,
		RequireIdle:    cfg.RequireIdle,
		MinCount:       cfg.MinGPUs,
		MaxCount:       cfg.MaxGPUs,
	}

	if cfg.MinMemory != "" {
		minMemory, err := units.RAMInBytes(cfg.MinMemory)
		if err != nil {
			return app.AcquireSpec{}, fmt.Errorf("parsing min memory %q: %w", cfg.MinMemory, err)
		}

		criteria.MinFreeMemory = uint64(minMemory)
	}

	if err := criteria.Validate(); err != nil {
		return app.AcquireSpec{}, err
	}

	spec := app.AcquireSpec{
		Criteria: criteria,
		Wait:     cfg.Wait,
		Timeout:  app.NoTimeout,
	}

	if cfg.Devices != "" {
		indices, err := gpu.ParseDeviceList(cfg.Devices)
		if err != nil {
			return app.AcquireSpec{}, err
		}

		spec.Explicit = indices
	}

	if cmd.Flags().Changed(cmdflags.TimeoutFlag) {
		if !cfg.Wait {
			return app.AcquireSpec{}, errdefs.ErrTimeoutRequiresWait
		}

		spec.Timeout = cfg.Timeout
	}

	return spec, nil
}

// selectionRequested reports whether the user asked for anything beyond
// the defaults, to decide if the platform fallback deserves a warning.
func selectionRequested(cmd *cobra.Command) bool {
	names := []string{
		cmdflags.GPUsFlag,
		cmdflags.MinGPUsFlag,
		cmdflags.MaxGPUsFlag,
		cmdflags.RequireIdleFlag,
		cmdflags.MinMemoryFlag,
		cmdflags.MaxUtilFlag,
		cmdflags.WaitFlag,
	}

	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}

	return false
}

func appConfig(cfg *config.Config) *app.Config {
	return &app.Config{
		PollInterval: cfg.PollInterval,
	}
}
