//go:build linux

package main

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Value  json.RawMessage `json:"result"`
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e envelope) ok() bool { return len(e.Errors) == 0 }

// execJSON runs rootCmd with args against rootPath/backendName already set
// by the caller, capturing whatever emit wrote to stdout and decoding it.
func execJSON(t *testing.T, args ...string) envelope {
	t.Helper()
	jsonOutput = true

	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w

	rootCmd.SetArgs(args)
	execErr := rootCmd.Execute()

	w.Close()
	os.Stdout = orig
	require.NoError(t, execErr)

	var buf []byte
	buf, err = io.ReadAll(bufio.NewReader(r))
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(buf, &env))
	return env
}

func TestCreateListDestroyRoundtrip(t *testing.T) {
	dir := t.TempDir()
	rootPath = dir
	backendName = "unix"

	created := execJSON(t, "create")
	require.True(t, created.ok())
	var id int
	require.NoError(t, json.Unmarshal(created.Value, &id))

	listed := execJSON(t, "list")
	require.True(t, listed.ok())
	assert.Contains(t, string(listed.Value), `"name":"unix"`)

	rootID := execJSON(t, "get-root", strconv.Itoa(id))
	require.True(t, rootID.ok())

	destroyed := execJSON(t, "destroy", strconv.Itoa(id))
	assert.True(t, destroyed.ok())

	missing := execJSON(t, "get-root", strconv.Itoa(id))
	assert.False(t, missing.ok())
}

func TestMemoryLimitGetSet(t *testing.T) {
	dir := t.TempDir()
	rootPath = dir
	backendName = "unix"

	created := execJSON(t, "create")
	require.True(t, created.ok())
	var id int
	require.NoError(t, json.Unmarshal(created.Value, &id))

	set := execJSON(t, "memory-limit", strconv.Itoa(id), "64MiB")
	require.True(t, set.ok())

	got := execJSON(t, "memory-limit", strconv.Itoa(id))
	require.True(t, got.ok())
	var bytesLimit int64
	require.NoError(t, json.Unmarshal(got.Value, &bytesLimit))
	assert.Equal(t, int64(64*1024*1024), bytesLimit)
}
