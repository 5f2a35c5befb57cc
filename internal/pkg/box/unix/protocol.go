//go:build linux

package unix

import (
	"encoding/binary"
	"io"
)

// Error pipe record ids (spec §4.4, §7). Positive ids are fatal; negative
// ids are warnings; the child continues after a warning.
const (
	errStdin  = 1
	errStdout = 2
	errStderr = 3
	errExecv  = 4
	errChdir  = 5

	warnStack   = -1
	warnAS      = -2
	warnCPU     = -3
	warnProcess = -4
	warnDisk    = -5
)

func childErrString(id int32) string {
	switch id {
	case warnStack:
		return "error setting stack limit"
	case warnAS:
		return "error setting memory limit"
	case warnCPU:
		return "error setting time limit"
	case warnProcess:
		return "error setting process limit"
	case warnDisk:
		return "error setting disk limit"
	case errStdin:
		return "cannot open stdin file"
	case errStdout:
		return "cannot open stdout file"
	case errStderr:
		return "cannot open stderr file"
	case errExecv:
		return "execv failed"
	case errChdir:
		return "chdir failed"
	default:
		return "unknown error"
	}
}

// errRecord is the fixed-size two-int record the error pipe carries (spec
// §4.4, §6 "Wire/format details"): error_id then errno, native-endian.
type errRecord struct {
	ErrorID int32
	Errno   int32
}

const errRecordSize = 8

// sendError writes one record to the pipe, used by the child.
func sendError(w io.Writer, errorID, errno int32) error {
	var buf [errRecordSize]byte
	binary.NativeEndian.PutUint32(buf[0:4], uint32(errorID))
	binary.NativeEndian.PutUint32(buf[4:8], uint32(errno))
	_, err := w.Write(buf[:])
	return err
}

// readError reads exactly one record from the pipe, retrying short reads
// (the EINTR-safe loop spec §4.4/§6 requires). Returns io.EOF once the
// child has exec'd successfully and the write end closed.
func readError(r io.Reader) (errRecord, error) {
	var buf [errRecordSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return errRecord{}, err
	}
	return errRecord{
		ErrorID: int32(binary.NativeEndian.Uint32(buf[0:4])),
		Errno:   int32(binary.NativeEndian.Uint32(buf[4:8])),
	}, nil
}

// BootstrapConfig is the configuration the parent sends across the
// bootstrap pipe to the re-exec'd child (see run_linux.go for why this
// exists: Go cannot safely fork a multi-threaded runtime and continue
// running arbitrary Go code before exec, so the "child" is a fresh process
// image that needs its configuration handed to it explicitly, unlike the
// original C++ fork() which simply inherited it via shared address space).
type BootstrapConfig struct {
	// RunID tags the parent's start and finish log lines for a single Run
	// invocation. It is carried across the re-exec boundary, but the child
	// does not log it.
	RunID string `json:"run_id"`

	Backend string   `json:"backend"`
	Root    string   `json:"root"`
	Command string   `json:"command"`
	Args    []string `json:"args"`

	Stdin  string `json:"stdin"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`

	MemoryLimitRlimitUnit int64 `json:"memory_limit_rlimit_unit"`
	CPULimitSeconds       int64 `json:"cpu_limit_seconds"`
	ProcessLimit          int   `json:"process_limit"`
	DiskLimitBytes        int64 `json:"disk_limit_bytes"`

	// Mounts is only populated, and only consulted, by the namespace
	// backend's child hooks.
	Mounts []MountSpec `json:"mounts,omitempty"`
}

// MountSpec is the wire form of one namespace-backend bind mount.
type MountSpec struct {
	Inner string `json:"inner"`
	Outer string `json:"outer"`
	RW    bool   `json:"rw"`
}
