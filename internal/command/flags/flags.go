package flags

import (
	"github.com/spf13/cobra"

	"gpurun/internal/config"
	"gpurun/pkg/defaults"
)

const (
	GPUsFlag         = "gpus"
	MinGPUsFlag      = "min-gpus"
	MaxGPUsFlag      = "max-gpus"
	RequireIdleFlag  = "require-idle"
	MinMemoryFlag    = "min-memory"
	MaxUtilFlag      = "max-util"
	WaitFlag         = "wait"
	TimeoutFlag      = "timeout"
	PollIntervalFlag = "poll-interval"
	LockDirFlag      = "lock-dir"
	ClaimTTLFlag     = "claim-ttl"
	OutputFlag       = "output"
	PromFileFlag     = "prom-file"
)

// AddSelectionFlagsToCommand will add the device selection flags to the
// supplied command.
func AddSelectionFlagsToCommand(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&cfg.Devices,
		GPUsFlag,
		"",
		"Comma separated GPU indices to use directly, bypassing selection.")

	cmd.Flags().IntVar(&cfg.MinGPUs,
		MinGPUsFlag,
		1,
		"The minimum number of GPUs to select.")

	cmd.Flags().IntVar(&cfg.MaxGPUs,
		MaxGPUsFlag,
		1,
		"The maximum number of GPUs to select.")

	cmd.Flags().BoolVar(&cfg.RequireIdle,
		RequireIdleFlag,
		false,
		"Only select idle GPUs.")

	cmd.Flags().StringVar(&cfg.MinMemory,
		MinMemoryFlag,
		defaults.MinFreeMemory,
		"The minimum free memory per GPU, e.g. 2GiB or 512MiB. 0 disables the check.")

	cmd.Flags().IntVar(&cfg.MaxUtilization,
		MaxUtilFlag,
		-1,
		"The highest acceptable GPU utilization percentage. Negative disables the check.")
}

// AddWaitFlagsToCommand will add the wait loop flags to the supplied
// command.
func AddWaitFlagsToCommand(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().BoolVar(&cfg.Wait,
		WaitFlag,
		false,
		"Wait for GPUs to become available instead of failing.")

	cmd.Flags().DurationVar(&cfg.Timeout,
		TimeoutFlag,
		0,
		"Give up waiting after this long. Requires --wait, 0 probes exactly once.")

	cmd.Flags().DurationVar(&cfg.PollInterval,
		PollIntervalFlag,
		defaults.PollInterval,
		"The delay between selection attempts while waiting.")
}

// AddLockFlagsToCommand will add the claim coordination flags to the
// supplied command.
func AddLockFlagsToCommand(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&cfg.LockDir,
		LockDirFlag,
		defaults.LockDir,
		"The directory for advisory GPU claim files.")

	cmd.Flags().DurationVar(&cfg.ClaimTTL,
		ClaimTTLFlag,
		defaults.ClaimTTL,
		"The age after which a claim file is treated as abandoned.")
}

// AddStatusFlagsToCommand will add the status output flags to the
// supplied command.
func AddStatusFlagsToCommand(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVarP(&cfg.Output,
		OutputFlag,
		"o",
		"table",
		"The output format. One of table, json or yaml.")

	cmd.Flags().StringVar(&cfg.PromFile,
		PromFileFlag,
		"",
		"Also write the device state to this path in Prometheus text format.")
}
