package units

import "fmt"

// Space is a byte count, the storage unit used throughout the box contract
// for memory, address-space and disk limits and for reported memory usage.
type Space int64

// Bytes returns s as an integer count of bytes.
func (s Space) Bytes() int64 {
	return int64(s)
}

// KiB returns s as a floating point number of kibibytes. The CLI's
// memory-limit, disk-limit and memory-usage commands report byte counts,
// not this value.
func (s Space) KiB() float64 {
	return float64(s) / 1024
}

// SpaceFromBytes builds a Space from a byte count.
func SpaceFromBytes(b int64) Space {
	return Space(b)
}

// String renders s in MiB or KiB depending on magnitude. The CLI's memory
// and disk commands print raw byte counts on a TTY, not this form.
func (s Space) String() string {
	kib := s.KiB()
	if kib >= 1024 {
		return fmt.Sprintf("%.3gMiB", kib/1024)
	}
	return fmt.Sprintf("%.3gKiB", kib)
}

// FromRlimitUnit converts a raw value already expressed in the platform's
// RLIMIT_AS / ru_maxrss unit (bytes on Darwin, kibibytes on Linux) back into
// a Space in bytes.
func FromRlimitUnit(v int64) Space {
	return Space(v * rlimitUnitBytes)
}

// RlimitUnit converts s into the platform's RLIMIT_AS unit (bytes on Darwin,
// kibibytes on Linux). Returns 0 if s is zero, signaling "no limit" to
// callers that treat zero specially.
func (s Space) RlimitUnit() int64 {
	if s == 0 {
		return 0
	}
	return int64(s) / rlimitUnitBytes
}
