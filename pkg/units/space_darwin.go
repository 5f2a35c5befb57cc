//go:build darwin

package units

// rlimitUnitBytes is the number of bytes in one platform rlimit unit.
// Darwin's RLIMIT_AS and ru_maxrss are both expressed directly in bytes.
const rlimitUnitBytes = 1
