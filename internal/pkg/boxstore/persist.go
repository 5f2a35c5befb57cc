package boxstore

import (
	"os"

	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

// archiveVersion is bumped whenever the Persisted shape changes in a way
// that isn't forward compatible; spec §4.8/§6 note forward compatibility is
// not a goal, so old archives simply fail to load after a bump.
const archiveVersion = 1

// MountSpec is the persisted form of a namespace-backend bind mount.
type MountSpec struct {
	Inner string `yaml:"inner"`
	Outer string `yaml:"outer"`
	RW    bool   `yaml:"rw"`
}

// Persisted is the versioned textual archive written to <base>/box_<id>/
// boxinfo between CLI invocations (spec §4.8). The Backend field is the
// type discriminator the loader uses to reconstruct the right backend; it
// is the Go-idiomatic analogue of the C++ original's Boost
// BOOST_CLASS_EXPORT polymorphic tag. Transient fields (the error pipe
// fds) are never part of this struct.
type Persisted struct {
	Version  int    `yaml:"version"`
	Backend  string `yaml:"backend"`
	ID       int    `yaml:"id"`
	BasePath string `yaml:"base_path"`

	MemoryLimit   int64 `yaml:"memory_limit"`
	CPULimit      int64 `yaml:"cpu_limit"`
	WallTimeLimit int64 `yaml:"wall_time_limit"`
	ProcessLimit  int   `yaml:"process_limit"`
	DiskLimit     int64 `yaml:"disk_limit"`

	Stdin  string `yaml:"stdin"`
	Stdout string `yaml:"stdout"`
	Stderr string `yaml:"stderr"`

	MemoryUsage int64  `yaml:"memory_usage"`
	RunningTime int64  `yaml:"running_time"`
	WallTime    int64  `yaml:"wall_time"`
	ExitStatus  string `yaml:"exit_status"`
	ReturnCode  int    `yaml:"return_code"`
	Signal      int    `yaml:"signal"`

	Mounts []MountSpec `yaml:"mounts,omitempty"`
}

// Save writes p to <base>/box_<id>/boxinfo, stamping the current archive
// version. Exactly one CLI invocation ever writes a given box's boxinfo at
// a time (spec §3 invariant); no file locking is attempted here beyond
// what Acquire/Release already guarantee for the run critical section.
func (s *Store) Save(p *Persisted) error {
	p.Version = archiveVersion
	data, err := yaml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshaling boxinfo")
	}
	if err := os.WriteFile(s.BoxInfoPath(p.ID), data, FileMode); err != nil {
		return errors.Wrapf(err, "writing boxinfo for box %d", p.ID)
	}
	return nil
}

// Load reads and parses <base>/box_<id>/boxinfo.
func (s *Store) Load(id int) (*Persisted, error) {
	data, err := os.ReadFile(s.BoxInfoPath(id))
	if err != nil {
		return nil, errors.Wrapf(err, "reading boxinfo for box %d", id)
	}
	var p Persisted
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrapf(err, "parsing boxinfo for box %d", id)
	}
	if p.Version != archiveVersion {
		return nil, errors.Errorf("boxinfo for box %d has unsupported version %d", id, p.Version)
	}
	return &p, nil
}
