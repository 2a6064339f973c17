// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-chunked"
)

func execute(stdin string, args ...string) (string, error) {
	var out bytes.Buffer

	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)

	err := rootCmd.Execute()

	return out.String(), err
}

// Commands share global flag state, so the tests below run sequentially.

func TestPlace(t *testing.T) {
	out, err := execute(`[{"a":1},{"a":2}]`, "place", "--kind", "structured", "--threshold", "8", "--bound", "1000")
	require.NoError(t, err)

	var result placeOutput

	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.Equal(t, chunked.PlacementExternal, result.Placement)
	assert.Equal(t, chunked.KindStructured, result.Kind)
	assert.EqualValues(t, 17, result.Size)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, "chunk_000000.jsonl", result.Chunks[0].Name)
	assert.EqualValues(t, len("{\"a\":1}\n{\"a\":2}\n"), result.Chunks[0].Size)

	out, err = execute("short", "place", "--kind", "text", "--threshold", "8", "--bound", "1000")
	require.NoError(t, err)

	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, chunked.PlacementInline, result.Placement)

	_, err = execute("x", "place", "--kind", "binary", "--threshold", "8", "--bound", "1000")
	require.Error(t, err)

	_, err = execute("x", "place", "--kind", "text", "--threshold", "8", "--bound", "0")
	require.ErrorIs(t, err, chunked.ErrInvalidBound)
}

func TestPlaceConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nthreshold_bytes: 4\nchunk_bound_bytes: 2\n"), 0o644))

	// --threshold and --bound stay changed from earlier invocations and override the profile
	out, err := execute("abcdef", "place", "--kind", "text", "--config", path, "--threshold", "4", "--bound", "2")
	require.NoError(t, err)

	var result placeOutput

	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, chunked.PlacementExternal, result.Placement)
	assert.EqualValues(t, 4, result.Threshold)
	assert.EqualValues(t, 2, result.Bound)
	assert.Len(t, result.Chunks, 3)

	rootFlags.configPath = ""
}

func TestStoreCommands(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("chunked content ", 10)

	out, err := execute(content, "put", "--dir", dir, "--id", "doc", "--kind", "text", "--threshold", "8", "--bound", "16", "--compress")
	require.NoError(t, err)

	var m chunked.Manifest

	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "doc", m.ResourceID)
	assert.True(t, m.Compressed)
	assert.Len(t, m.Chunks, 10)

	out, err = execute("", "cat", "--dir", dir, "--id", "doc", "--threshold", "8", "--bound", "16", "--compress")
	require.NoError(t, err)
	assert.Equal(t, content, out)

	_, err = execute("", "rm", "--dir", dir, "--id", "doc", "--threshold", "8", "--bound", "16")
	require.NoError(t, err)

	_, err = execute("", "cat", "--dir", dir, "--id", "doc", "--threshold", "8", "--bound", "16")
	require.ErrorIs(t, err, chunked.ErrNotFound)
}
