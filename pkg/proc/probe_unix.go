//go:build unix

package proc

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Probe checks whether a process exists by sending it signal 0. EPERM
// means the process exists but is owned by another user.
func Probe(pid int) Status {
	err := unix.Kill(pid, 0)

	switch {
	case err == nil:
		return StatusAlive
	case errors.Is(err, unix.ESRCH):
		return StatusDead
	case errors.Is(err, unix.EPERM):
		return StatusForeign
	default:
		return StatusAlive
	}
}
