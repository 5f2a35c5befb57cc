package box

import "sort"

// registry is the process-wide name→factory map (spec §4.2), populated by
// Register calls from each backend package's init(), before main begins —
// the Go equivalent of the original C++ source's REGISTER_SANDBOX
// constructor-attribute trick and of singularity's plugin/launcher
// registration style.
var registry = map[string]Factory{}

// Register adds a backend factory under name. Intended to be called from a
// backend package's init() function.
func Register(name string, f Factory) {
	registry[name] = f
}

// New instantiates the named backend bound to basePath, or reports false if
// no backend is registered under that name.
func New(name, basePath string, errFn ErrorFunc, warnFn WarnFunc) (Box, bool) {
	f, ok := registry[name]
	if !ok {
		return nil, false
	}
	return f(basePath, errFn, warnFn), true
}

// Info is one row of the `list` command's output (spec §4.2, §6): a
// backend's name, overhead score, and advertised feature names.
type Info struct {
	Name     string
	Overhead int
	Features []string
}

// List instantiates every registered backend against basePath, filters out
// those that report IsAvailable() == false, and returns the remainder as
// (name, overhead, feature names) triples sorted by name.
func List(basePath string, errFn ErrorFunc, warnFn WarnFunc) []Info {
	var out []Info
	for name, f := range registry {
		b := f(basePath, errFn, warnFn)
		if !b.IsAvailable() {
			continue
		}
		out = append(out, Info{
			Name:     name,
			Overhead: b.GetOverhead(),
			Features: b.GetFeatures().Names(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every registered backend name, regardless of availability.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
