package proc

// Status is the result of probing a process.
type Status int

const (
	// StatusAlive means the process exists and is visible to us.
	StatusAlive Status = iota
	// StatusDead means no process with the probed PID exists.
	StatusDead
	// StatusForeign means a process exists but belongs to another user,
	// so it cannot be signalled or inspected.
	StatusForeign
)

// String returns a human readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusAlive:
		return "alive"
	case StatusDead:
		return "dead"
	case StatusForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// ProbeFunc reports the status of a PID.
type ProbeFunc func(pid int) Status
