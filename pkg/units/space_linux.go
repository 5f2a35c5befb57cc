//go:build linux

package units

// rlimitUnitBytes is the number of bytes in one platform rlimit unit.
// Linux's RLIMIT_AS and ru_maxrss are both expressed in kibibytes.
const rlimitUnitBytes = 1024
