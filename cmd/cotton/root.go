package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/sylabs/cotton/internal/pkg/box"
	"github.com/sylabs/cotton/internal/pkg/boxstore"
	"github.com/sylabs/cotton/internal/pkg/result"
	"github.com/sylabs/cotton/internal/pkg/sylog"
	"github.com/sylabs/cotton/pkg/cottonconf"
)

var (
	rootPath      string
	jsonOutput    bool
	backendName   string
	configFile    string

	debug   bool
	verbose bool
	silent  bool

	// exitCode is set by subcommands to the process exit status a Result
	// implies: 0 on success, 1 on a reported failure.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:           "cotton",
	Short:         "Run commands inside a resource-limited sandbox",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		sylog.SetLevel(debug, verbose, silent)

		if configFile != "" {
			cfg, err := cottonconf.Parse(configFile)
			if err != nil {
				sylog.Warningf("loading %s: %s, using defaults", configFile, err)
				cfg = cottonconf.Default()
			}
			cottonconf.SetCurrentConfig(cfg)
		}

		if rootPath == "" {
			rootPath = cottonconf.GetCurrentConfig().SpoolDir
		}
		if backendName == "" {
			backendName = cottonconf.GetCurrentConfig().DefaultBackend
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootPath, "root", "r", "", "box storage root (default from cotton.conf)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "render output as JSON")
	rootCmd.PersistentFlags().StringVarP(&backendName, "backend", "b", "", "backend to use for create (default from cotton.conf)")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to cotton.conf (defaults built in if unset)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, "suppress all but error logging")
}

// emit renders r in the selected format and sets the process exit code.
func emit(r *result.Result) {
	if r.OK {
		exitCode = 0
	} else {
		exitCode = 1
	}
	var err error
	if jsonOutput {
		err = r.WriteJSON(os.Stdout)
	} else {
		err = r.WriteHuman(os.Stdout)
	}
	if err != nil {
		sylog.Warningf("writing output: %s", err)
	}
}

// loadBox resolves idArg to an allocated box bound to its persisted
// backend and configuration. Every subcommand but list/create uses this.
func loadBox(idArg string, r *result.Result) (box.Box, *boxstore.Store, int, bool) {
	id, err := strconv.Atoi(idArg)
	if err != nil {
		r.Fail(1, "invalid box id %q", idArg)
		return nil, nil, 0, false
	}

	store := boxstore.New(rootPath)
	if !store.Exists(id) {
		r.Fail(2, "box %d does not exist", id)
		return nil, nil, 0, false
	}

	p, err := store.Load(id)
	if err != nil {
		r.Fail(2, "loading box %d: %s", id, err)
		return nil, nil, 0, false
	}

	col := result.NewCollector(r)
	b, ok := box.New(p.Backend, rootPath, col.Error, col.Warn)
	if !ok {
		r.Fail(2, "unknown backend %q for box %d", p.Backend, id)
		return nil, nil, 0, false
	}
	b.BindID(id)
	boxstore.ApplyPersisted(b, p)

	return b, store, id, true
}

// saveBox persists b's current configuration and statistics back to
// store, reporting any write error into r.
func saveBox(store *boxstore.Store, b box.Box, r *result.Result) {
	p := boxstore.ToPersisted(b, rootPath)
	if err := store.Save(p); err != nil {
		r.Fail(3, "saving box %d: %s", b.ID(), err)
	}
}
