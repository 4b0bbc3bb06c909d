package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoDevices is used when no GPUs are visible on the host.
	ErrNoDevices = errors.New("no GPUs detected on this host")

	// ErrNoCommand is used when no command to run was supplied.
	ErrNoCommand = errors.New("a command to run is required")

	// ErrTimeoutRequiresWait is used when a timeout is given without wait.
	ErrTimeoutRequiresWait = errors.New("a timeout can only be used together with wait")
)

// Exit codes reported by the CLI so callers can tell failures apart.
const (
	ExitCodeFailure      = 1
	ExitCodeInsufficient = 2
	ExitCodeTimeout      = 3
	ExitCodeLockDir      = 4
	ExitCodeUnknownGPU   = 5
)

// InsufficientDevicesError is used when fewer devices qualify than the
// selection requires. The failure can clear up on a later attempt.
type InsufficientDevicesError struct {
	Available int
	Required  int
	Reasons   []string
}

// Error returns the error message.
func (e InsufficientDevicesError) Error() string {
	msg := fmt.Sprintf("not enough GPUs available: %d qualifying, %d required", e.Available, e.Required)
	if len(e.Reasons) > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(e.Reasons, "; "))
	}

	return msg
}

// ClaimConflictError is used when another process won the race for a
// device between selection and claiming.
type ClaimConflictError struct {
	Index    int
	OwnerPID int
}

// Error returns the error message.
func (e ClaimConflictError) Error() string {
	if e.OwnerPID <= 0 {
		return fmt.Sprintf("GPU %d was claimed by another process", e.Index)
	}

	return fmt.Sprintf("GPU %d was claimed by pid %d", e.Index, e.OwnerPID)
}

// TimeoutExceededError is used when the wait deadline passes without a
// qualifying device set. Last carries the selection failure seen on the
// final attempt.
type TimeoutExceededError struct {
	Attempts int
	Elapsed  time.Duration
	Last     error
}

// Error returns the error message.
func (e TimeoutExceededError) Error() string {
	return fmt.Sprintf("timed out waiting for GPUs after %d attempts over %s: %v",
		e.Attempts, e.Elapsed.Round(time.Second), e.Last)
}

func (e TimeoutExceededError) Unwrap() error {
	return e.Last
}

// LockDirUnavailableError is used when the claim directory cannot be
// created, written or read. Coordination is never silently skipped.
type LockDirUnavailableError struct {
	Dir string
	Err error
}

// Error returns the error message.
func (e LockDirUnavailableError) Error() string {
	return fmt.Sprintf("lock directory %s is unavailable: %v", e.Dir, e.Err)
}

func (e LockDirUnavailableError) Unwrap() error {
	return e.Err
}

// DeviceNotFoundError is used when an explicitly requested device index
// does not exist on the host.
type DeviceNotFoundError struct {
	Index int
	Count int
}

// Error returns the error message.
func (e DeviceNotFoundError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("GPU %d not found, no GPUs detected", e.Index)
	}

	return fmt.Sprintf("GPU %d not found, available indices are 0-%d", e.Index, e.Count-1)
}

// IsRecoverable reports whether a selection failure can clear up on a
// later attempt.
func IsRecoverable(err error) bool {
	var (
		insufficient InsufficientDevicesError
		conflict     ClaimConflictError
	)

	return errors.As(err, &insufficient) || errors.As(err, &conflict)
}

// ExitCode maps an error to the exit code the CLI reports for it.
func ExitCode(err error) int {
	var (
		insufficient InsufficientDevicesError
		timeout      TimeoutExceededError
		lockDir      LockDirUnavailableError
		notFound     DeviceNotFoundError
	)

	switch {
	case errors.As(err, &timeout):
		return ExitCodeTimeout
	case errors.As(err, &insufficient):
		return ExitCodeInsufficient
	case errors.As(err, &lockDir):
		return ExitCodeLockDir
	case errors.As(err, &notFound):
		return ExitCodeUnknownGPU
	default:
		return ExitCodeFailure
	}
}
