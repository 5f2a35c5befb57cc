//go:build linux

package unix

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccoveille/go-safecast"
	"github.com/sylabs/cotton/internal/pkg/box"
	"golang.org/x/sys/unix"
)

// bootstrapConfigFD and errorPipeFD are the fixed ExtraFiles slots run_linux.go
// hands the re-exec'd child: fd 3 is the read end of the bootstrap pipe, fd 4
// is the write end of the error pipe (spec §4.4, §6's wire format details).
const (
	bootstrapConfigFD = 3
	errorPipeFD       = 4
)

// Init is the entrypoint cmd/cotton wires to the hidden ReexecSentinel
// subcommand (spec §4.6): it reads its BootstrapConfig off fd 3, applies
// rlimits and I/O redirection, runs the backend's PreExec hook, drops
// privileges and execs the guest command. It never returns on success;
// on failure it reports through the error pipe and exits nonzero.
func Init() {
	cfgFile := os.NewFile(bootstrapConfigFD, "bootstrap-config")
	errFile := os.NewFile(errorPipeFD, "error-pipe")

	unix.CloseOnExec(errorPipeFD)

	cfg, err := readBootstrapConfig(cfgFile)
	if err != nil {
		os.Exit(126)
	}

	runInit(cfg, errFile)
	os.Exit(125) // unreachable: runInit either execs or exits itself
}

func readBootstrapConfig(r io.Reader) (*BootstrapConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var cfg BootstrapConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func runInit(cfg *BootstrapConfig, errFile *os.File) {
	report := func(id int32, err error) {
		var errno unix.Errno
		if errors.As(err, &errno) {
			sendError(errFile, id, int32(errno))
			return
		}
		sendError(errFile, id, 0)
	}

	if hooks, ok := box.ChildHooksFor(cfg.Backend); ok {
		if err := hooks.PostFork(cfg); err != nil {
			report(errChdir, err)
			os.Exit(1)
		}
	}

	if err := redirectStdio(cfg, errFile); err != nil {
		os.Exit(1) // redirectStdio already reported
	}

	if err := unix.Chdir(cfg.Root); err != nil {
		report(errChdir, err)
		os.Exit(1)
	}

	applyRlimits(cfg, func(id int32, err error) { report(id, err) })

	if hooks, ok := box.ChildHooksFor(cfg.Backend); ok {
		if err := hooks.PreExec(cfg); err != nil {
			report(errChdir, err)
			os.Exit(1)
		}
	}

	// The child re-exec starts with whatever real/effective uid the parent
	// process had (the namespace backend's PreFork/PostFork hooks, running
	// in a priv.Region, have already done any namespace setup that needed
	// root); drop to the real uid unconditionally before handing control to
	// the guest command.
	if err := unix.Setuid(unix.Getuid()); err != nil {
		report(errExecv, err)
		os.Exit(1)
	}

	argv0 := strings.TrimPrefix(cfg.Command, "/")
	path, err := lookPath(argv0)
	if err != nil {
		report(errExecv, unix.ENOENT)
		os.Exit(1)
	}

	argv := append([]string{argv0}, cfg.Args...)
	if err := unix.Exec(path, argv, os.Environ()); err != nil {
		report(errExecv, err)
		os.Exit(1)
	}
}

// redirectStdio opens the configured stdin/stdout/stderr files relative to
// the sandbox root and dup2's them onto fd 0/1/2 (spec §4.6). An empty
// path means "inherit the parent's fd", matching what run_linux.go leaves
// in place for an unconfigured stream.
func redirectStdio(cfg *BootstrapConfig, errFile *os.File) error {
	type stream struct {
		path  string
		flag  int
		fd    int
		errID int32
	}
	streams := []stream{
		{cfg.Stdin, os.O_RDONLY, 0, errStdin},
		{cfg.Stdout, os.O_WRONLY | os.O_CREATE | os.O_TRUNC, 1, errStdout},
		{cfg.Stderr, os.O_WRONLY | os.O_CREATE | os.O_TRUNC, 2, errStderr},
	}
	for _, s := range streams {
		if s.path == "" {
			continue
		}
		f, err := os.OpenFile(filepath.Join(cfg.Root, s.path), s.flag, 0o644)
		if err != nil {
			sendError(errFile, s.errID, 0)
			return err
		}
		if err := unix.Dup2(int(f.Fd()), s.fd); err != nil {
			f.Close()
			sendError(errFile, s.errID, 0)
			return err
		}
		f.Close()
	}
	return nil
}

// applyRlimits applies the rlimits derived from the BootstrapConfig in a
// fixed order (spec §4.6): unlimited stack, then memory, CPU, process
// count, and finally the disk quota via RLIMIT_FSIZE+RLIMIT_NOFILE=0.
// Failures here are warnings, not fatal: the box runs best-effort.
func applyRlimits(cfg *BootstrapConfig, warn func(id int32, err error)) {
	if err := unix.Setrlimit(unix.RLIMIT_STACK, &unix.Rlimit{Cur: unix.RLIM_INFINITY, Max: unix.RLIM_INFINITY}); err != nil {
		warn(warnStack, err)
	}

	if cfg.MemoryLimitRlimitUnit > 0 {
		lim, err := safecast.ToUint64(cfg.MemoryLimitRlimitUnit)
		if err != nil {
			warn(warnAS, err)
		} else if err := unix.Setrlimit(unix.RLIMIT_AS, &unix.Rlimit{Cur: lim, Max: lim}); err != nil {
			warn(warnAS, err)
		}
	}

	if cfg.CPULimitSeconds > 0 {
		lim, err := safecast.ToUint64(cfg.CPULimitSeconds)
		if err != nil {
			warn(warnCPU, err)
		} else if err := unix.Setrlimit(unix.RLIMIT_CPU, &unix.Rlimit{Cur: lim, Max: lim}); err != nil {
			warn(warnCPU, err)
		}
	}

	if cfg.ProcessLimit > 0 {
		lim, err := safecast.ToUint64(cfg.ProcessLimit)
		if err != nil {
			warn(warnProcess, err)
		} else if err := unix.Setrlimit(unix.RLIMIT_NPROC, &unix.Rlimit{Cur: lim, Max: lim}); err != nil {
			warn(warnProcess, err)
		}
	}

	if cfg.DiskLimitBytes > 0 {
		lim, err := safecast.ToUint64(cfg.DiskLimitBytes)
		if err != nil {
			warn(warnDisk, err)
		} else if err := unix.Setrlimit(unix.RLIMIT_FSIZE, &unix.Rlimit{Cur: lim, Max: lim}); err != nil {
			warn(warnDisk, err)
		}
		if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &unix.Rlimit{Cur: 0, Max: 0}); err != nil {
			warn(warnDisk, err)
		}
	}
}

// lookPath resolves command the same way a shell would, without requiring
// it to already be an absolute path inside file_root.
func lookPath(command string) (string, error) {
	if strings.Contains(command, "/") {
		if _, err := os.Stat(command); err != nil {
			return "", err
		}
		return command, nil
	}
	for _, dir := range strings.Split(os.Getenv("PATH"), ":") {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, command)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
	}
	return "", unix.ENOENT
}
