package box

// ParentHooks and ChildHooks are the four optional subclass hooks spec
// §4.3/§4.7 describe (pre_fork_hook, post_fork_hook, pre_exec_hook,
// cleanup_hook). Because cotton's child "fork" is implemented as a
// re-exec of the cotton binary itself (Go cannot safely fork a
// multi-threaded runtime and continue running arbitrary Go code before
// exec — see internal/pkg/box/unix/run_linux.go), the child-side hooks
// cannot close over the parent's live Box object: they run in a
// different process. Instead every hook is a pure function of the
// BootstrapConfig that crosses the fork/exec boundary on the wire, and
// backends register their hook implementations here by name, the same
// way they register their Box factory in the registry below.
type ParentHooks interface {
	// PreFork runs in the parent, briefly privileged, before the pipe and
	// fork/re-exec are set up.
	PreFork(cfg interface{}) error
	// Cleanup runs in the parent after the child has been reaped.
	Cleanup(cfg interface{}) error
}

// ChildHooks run inside the re-exec'd child, before it drops privileges
// and execs the guest program.
type ChildHooks interface {
	// PostFork runs first, right after the child starts.
	PostFork(cfg interface{}) error
	// PreExec runs after rlimits are applied, briefly privileged, just
	// before the child drops privileges and execs.
	PreExec(cfg interface{}) error
}

var (
	parentHooks = map[string]ParentHooks{}
	childHooks  = map[string]ChildHooks{}
)

// RegisterHooks associates a backend name with its parent- and
// child-side hook implementations. A backend with no special hooks
// (the plain Unix backend) need not call this; lookups for an
// unregistered name return ok == false and callers treat that as a
// no-op hook.
func RegisterHooks(name string, p ParentHooks, c ChildHooks) {
	if p != nil {
		parentHooks[name] = p
	}
	if c != nil {
		childHooks[name] = c
	}
}

// ParentHooksFor looks up the registered parent hooks for name.
func ParentHooksFor(name string) (ParentHooks, bool) {
	h, ok := parentHooks[name]
	return h, ok
}

// ChildHooksFor looks up the registered child hooks for name.
func ChildHooksFor(name string) (ChildHooks, bool) {
	h, ok := childHooks[name]
	return h, ok
}
