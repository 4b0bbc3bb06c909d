package defaults

import "time"

const (
	// LockDir is the default directory for advisory GPU claim files.
	LockDir = "/tmp/gpurun"

	// MinFreeMemory is the default minimum free memory a GPU must have to
	// be selected.
	MinFreeMemory = "2GiB"

	// PollInterval is the default delay between selection attempts while
	// waiting for GPUs to free up.
	PollInterval = 5 * time.Second

	// ClaimTTL is the default age after which a claim file is treated as
	// abandoned even if a process with the recorded PID is still alive.
	ClaimTTL = 24 * time.Hour

	// LockDirPerm is the permissions to use for the lock directory.
	LockDirPerm = 0o755

	// LockFilePerm is the permissions to use for claim files.
	LockFilePerm = 0o644
)
