package config

import (
	"time"

	"gpurun/pkg/log"
)

// Config represents the gpurun configuration.
type Config struct {
	// Logging contains the logging related config.
	Logging log.Config

	// Devices is an explicit comma separated list of GPU indices to use,
	// bypassing selection.
	Devices string
	// MinGPUs is the minimum number of GPUs to select.
	MinGPUs int
	// MaxGPUs is the maximum number of GPUs to select.
	MaxGPUs int
	// RequireIdle restricts selection to idle GPUs.
	RequireIdle bool
	// MinMemory is the minimum free memory per GPU, human readable.
	MinMemory string
	// MaxUtilization is the highest acceptable utilization percentage.
	// Negative disables the check.
	MaxUtilization int

	// Wait retries selection until enough GPUs qualify.
	Wait bool
	// Timeout bounds the wait.
	Timeout time.Duration
	// PollInterval is the delay between attempts while waiting.
	PollInterval time.Duration

	// LockDir is the directory for advisory claim files.
	LockDir string
	// ClaimTTL is the age after which claim files are treated as abandoned.
	ClaimTTL time.Duration

	// Output selects the status rendering, one of table, json or yaml.
	Output string
	// PromFile also writes the status to this path in Prometheus text
	// format when set.
	PromFile string
}
