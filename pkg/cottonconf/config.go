// Package cottonconf describes cotton.conf, the process-wide configuration
// file read once at CLI startup, modeled on singularity.conf's directive-tag
// shape: a flat struct of options, each carrying a default and the text
// directive name it's addressed by on disk.
package cottonconf

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// currentConfig is the configuration loaded by the running CLI process,
// set once by cmd/cotton at startup and read by any package that needs it
// without threading a *File through every call.
var currentConfig *File

// SetCurrentConfig sets the process-wide configuration.
func SetCurrentConfig(c *File) {
	currentConfig = c
}

// GetCurrentConfig returns the process-wide configuration, or a zero-value
// File with defaults applied if none has been set yet.
func GetCurrentConfig() *File {
	if currentConfig == nil {
		currentConfig = Default()
	}
	return currentConfig
}

// File describes cotton.conf's options (spec §5's configuration surface).
type File struct {
	SpoolDir           string `default:"/var/lib/cotton" directive:"spool dir"`
	DefaultBackend     string `default:"unix" authorized:"unix,namespace" directive:"default backend"`
	MaxMemoryLimit     uint64 `default:"0" directive:"max memory limit"`
	MaxCPULimit        uint64 `default:"0" directive:"max cpu limit"`
	MaxWallTimeLimit   uint64 `default:"0" directive:"max wall time limit"`
	MaxDiskLimit       uint64 `default:"0" directive:"max disk limit"`
	MaxProcessLimit    uint   `default:"1" directive:"max process limit"`
	AllowNamespaceBox  bool   `default:"yes" authorized:"yes,no" directive:"allow namespace backend"`
	LogLevel           string `default:"warn" authorized:"debug,info,warn,error,silent" directive:"log level"`
}

// Default returns a File with every field at its tag-declared default.
func Default() *File {
	f := &File{}
	applyDefaults(reflect.ValueOf(f).Elem())
	return f
}

func applyDefaults(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		def, ok := t.Field(i).Tag.Lookup("default")
		if !ok {
			continue
		}
		setField(v.Field(i), def)
	}
}

func setField(fv reflect.Value, raw string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		fv.SetBool(raw == "yes" || raw == "true")
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "parsing %q", raw)
		}
		fv.SetUint(n)
	default:
		return errors.Errorf("unsupported config field kind %s", fv.Kind())
	}
	return nil
}

func directiveIndex(t reflect.Type) map[string]int {
	idx := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if d, ok := t.Field(i).Tag.Lookup("directive"); ok {
			idx[d] = i
		}
	}
	return idx
}

// Parse reads a cotton.conf file, starting from Default() and overriding
// whichever directives appear in the file. Unrecognized directives and
// blank/comment lines are ignored, matching the teacher's tolerant parser.
func Parse(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	cfg := Default()
	v := reflect.ValueOf(cfg).Elem()
	idx := directiveIndex(v.Type())

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		i, ok := idx[key]
		if !ok {
			continue
		}
		if err := setField(v.Field(i), val); err != nil {
			return nil, errors.Wrapf(err, "directive %q", key)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return cfg, nil
}

// Generate renders c as a cotton.conf file, one "directive = value" line
// per field in struct order, for `cotton.conf`'s installed default and for
// documentation.
func Generate(w *os.File, c *File) error {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		d, ok := t.Field(i).Tag.Lookup("directive")
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s = %v\n", d, v.Field(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}
