package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"gpurun/pkg/defaults"
	errdefs "gpurun/pkg/errors"
	"gpurun/pkg/proc"
)

// Claim is the payload of a single advisory claim file.
type Claim struct {
	PID        int       `toml:"pid"`
	Hostname   string    `toml:"hostname"`
	Invocation string    `toml:"invocation"`
	ClaimedAt  time.Time `toml:"claimed_at"`

	// Foreign marks a claim owned by another user. We can see it but not
	// inspect or remove it.
	Foreign bool `toml:"-"`
}

// Config for the coordinator.
type Config struct {
	// Dir is the directory holding the claim files.
	Dir string
	// ClaimTTL is the age after which a claim is reclaimed even if a
	// process with its PID is alive, guarding against PID reuse.
	ClaimTTL time.Duration
	// Probe overrides the process liveness probe.
	Probe proc.ProbeFunc
	// Clock overrides the time source.
	Clock func() time.Time
}

// Coordinator hands out advisory per device claims backed by lock files.
// Files are created exclusively, so two processes racing for the same
// device cannot both win. A successful claimer never removes its own
// claim file; the file outlives the exec and is reclaimed lazily once
// the owning process exits.
type Coordinator struct {
	fs         afero.Fs
	dir        string
	ttl        time.Duration
	probe      proc.ProbeFunc
	clock      func() time.Time
	pid        int
	hostname   string
	invocation string
}

var lockFilePattern = regexp.MustCompile(`^gpu-(\d+)\.lock$`)

// claimWriteGrace is how long a zero length claim file is assumed to be
// mid-write by a racing claimer rather than leftover junk.
const claimWriteGrace = 5 * time.Second

// New creates a coordinator rooted at cfg.Dir, creating the directory and
// verifying it is writable.
func New(fs afero.Fs, cfg Config) (*Coordinator, error) {
	if cfg.Dir == "" {
		cfg.Dir = defaults.LockDir
	}

	if cfg.ClaimTTL == 0 {
		cfg.ClaimTTL = defaults.ClaimTTL
	}

	if cfg.Probe == nil {
		cfg.Probe = proc.Probe
	}

	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	if err := fs.MkdirAll(cfg.Dir, defaults.LockDirPerm); err != nil {
		return nil, errdefs.LockDirUnavailableError{Dir: cfg.Dir, Err: err}
	}

	tmp, err := afero.TempFile(fs, cfg.Dir, ".probe-")
	if err != nil {
		return nil, errdefs.LockDirUnavailableError{Dir: cfg.Dir, Err: err}
	}

	tmp.Close()
	_ = fs.Remove(tmp.Name())

	hostname, _ := os.Hostname()

	return &Coordinator{
		fs:         fs,
		dir:        cfg.Dir,
		ttl:        cfg.ClaimTTL,
		probe:      cfg.Probe,
		clock:      cfg.Clock,
		pid:        os.Getpid(),
		hostname:   hostname,
		invocation: uuid.NewString(),
	}, nil
}

// Dir returns the lock directory.
func (c *Coordinator) Dir() string {
	return c.dir
}

// Claims scans the lock directory and returns the valid claims by device
// index. Stale claims are removed along the way, claims that cannot be
// read are kept and marked foreign.
func (c *Coordinator) Claims() (map[int]Claim, error) {
	infos, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		return nil, errdefs.LockDirUnavailableError{Dir: c.dir, Err: err}
	}

	claims := make(map[int]Claim)

	for _, info := range infos {
		if info.IsDir() {
			continue
		}

		match := lockFilePattern.FindStringSubmatch(info.Name())
		if match == nil {
			continue
		}

		index, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}

		if claim, valid := c.validate(c.lockPath(index)); valid {
			claims[index] = claim
		}
	}

	return claims, nil
}

// TryClaim atomically creates one claim file per requested index. On a
// conflict, files created by this call are removed again so the caller
// can retry with a clean slate.
func (c *Coordinator) TryClaim(indices []int) error {
	created := make([]int, 0, len(indices))

	for _, index := range indices {
		if err := c.claimOne(index); err != nil {
			c.Release(created)

			return err
		}

		created = append(created, index)
	}

	return nil
}

// Release removes the claim files for the given indices. Only used to
// roll back claims created by this process.
func (c *Coordinator) Release(indices []int) {
	for _, index := range indices {
		_ = c.fs.Remove(c.lockPath(index))
	}
}

func (c *Coordinator) lockPath(index int) string {
	return filepath.Join(c.dir, fmt.Sprintf("gpu-%d.lock", index))
}

func (c *Coordinator) claimOne(index int) error {
	path := c.lockPath(index)

	// Clear a stale claim left behind by a previous owner, if any.
	c.validate(path)

	err := c.create(path)
	if err == nil {
		return nil
	}

	if !os.IsExist(err) {
		return fmt.Errorf("claiming GPU %d: %w", index, err)
	}

	// Lost the race, or the claim went stale between the validation and
	// the create. One revalidation decides which.
	if claim, valid := c.validate(path); valid {
		return errdefs.ClaimConflictError{Index: index, OwnerPID: claim.PID}
	}

	if err := c.create(path); err != nil {
		if os.IsExist(err) {
			return errdefs.ClaimConflictError{Index: index}
		}

		return fmt.Errorf("claiming GPU %d: %w", index, err)
	}

	return nil
}

func (c *Coordinator) create(path string) error {
	file, err := c.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, defaults.LockFilePerm)
	if err != nil {
		return err
	}
	defer file.Close()

	payload, err := toml.Marshal(Claim{
		PID:        c.pid,
		Hostname:   c.hostname,
		Invocation: c.invocation,
		ClaimedAt:  c.clock(),
	})
	if err != nil {
		return err
	}

	_, err = file.Write(payload)

	return err
}

// validate reads a claim file and decides whether the claim still holds.
// Claims that no longer hold are removed.
func (c *Coordinator) validate(path string) (Claim, bool) {
	payload, err := afero.ReadFile(c.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Claim{}, false
		}

		// Unreadable, most likely another user's claim. Respect it.
		return Claim{PID: -1, Foreign: true}, true
	}

	// A zero length file is a claim whose owner is between the exclusive
	// create and the payload write. Treat it as held while it is fresh.
	if len(payload) == 0 {
		if info, err := c.fs.Stat(path); err == nil && c.clock().Sub(info.ModTime()) < claimWriteGrace {
			return Claim{PID: -1}, true
		}

		_ = c.fs.Remove(path)

		return Claim{}, false
	}

	var claim Claim
	if err := toml.Unmarshal(payload, &claim); err != nil {
		_ = c.fs.Remove(path)

		return Claim{}, false
	}

	if claim.PID <= 0 {
		_ = c.fs.Remove(path)

		return Claim{}, false
	}

	switch c.probe(claim.PID) {
	case proc.StatusDead:
		_ = c.fs.Remove(path)

		return Claim{}, false
	case proc.StatusForeign:
		// Alive but not ours to manage, the TTL does not apply.
		claim.Foreign = true

		return claim, true
	default:
	}

	// An ancient claim with a live PID usually means the PID was reused.
	if !claim.ClaimedAt.IsZero() && c.clock().Sub(claim.ClaimedAt) > c.ttl {
		_ = c.fs.Remove(path)

		return Claim{}, false
	}

	return claim, true
}
