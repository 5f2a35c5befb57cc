package main

import (
	"github.com/spf13/cobra"
	"github.com/sylabs/cotton/internal/pkg/box"
	"github.com/sylabs/cotton/internal/pkg/boxstore"
	"github.com/sylabs/cotton/internal/pkg/result"
)

func init() {
	rootCmd.AddCommand(listCmd, createCmd, destroyCmd, clearCmd, getRootCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the backends available on this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := result.New()
		infos := box.List(rootPath, nil, nil)
		type backendInfo struct {
			Name     string   `json:"name"`
			Overhead int      `json:"overhead"`
			Features []string `json:"features"`
		}
		out := make([]backendInfo, 0, len(infos))
		for _, info := range infos {
			out = append(out, backendInfo{Name: info.Name, Overhead: info.Overhead, Features: info.Features})
		}
		r.Succeed(out)
		emit(r)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Allocate a new box",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := result.New()
		name := backendName

		col := result.NewCollector(r)
		b, ok := box.New(name, rootPath, col.Error, col.Warn)
		if !ok {
			r.Fail(2, "unknown backend %q", name)
			emit(r)
			return nil
		}
		if !b.IsAvailable() {
			r.Fail(2, "backend %q is not available on this host", name)
			emit(r)
			return nil
		}

		store := boxstore.New(rootPath)
		id, err := store.Allocate()
		if err != nil {
			r.Fail(3, "allocating box: %s", err)
			emit(r)
			return nil
		}
		b.BindID(id)

		saveBox(store, b, r)
		r.Succeed(id)
		emit(r)
		return nil
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy <id>",
	Short: "Delete a box and free its id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := result.New()
		b, store, id, ok := loadBox(args[0], r)
		if !ok {
			emit(r)
			return nil
		}
		if !b.DeleteBox() {
			r.Fail(4, "deleting box %d", id)
		} else {
			_ = store.Delete(id)
			r.Succeed(nil)
		}
		emit(r)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Reset a box's file_root to a clean state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := result.New()
		b, store, _, ok := loadBox(args[0], r)
		if !ok {
			emit(r)
			return nil
		}
		if b.Clear() {
			saveBox(store, b, r)
			r.Succeed(nil)
		}
		emit(r)
		return nil
	},
}

var getRootCmd = &cobra.Command{
	Use:   "get-root <id>",
	Short: "Print a box's file_root path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := result.New()
		b, _, _, ok := loadBox(args[0], r)
		if !ok {
			emit(r)
			return nil
		}
		r.Succeed(b.Root())
		emit(r)
		return nil
	},
}
