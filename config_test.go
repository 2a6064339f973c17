// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chunked_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-chunked"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name string

		contents string

		expected    chunked.Config
		expectedErr error
	}{
		{
			name:     "empty file keeps defaults",
			contents: "",
			expected: chunked.DefaultConfig(),
		},
		{
			name:     "overrides",
			contents: "version: 1\nthreshold_bytes: 4096\nchunk_bound_bytes: 1024\n",
			expected: chunked.Config{Version: 1, ThresholdBytes: 4096, ChunkBoundBytes: 1024},
		},
		{
			name:     "partial",
			contents: "chunk_bound_bytes: 512\n",
			expected: chunked.Config{Version: 1, ThresholdBytes: 1 << 20, ChunkBoundBytes: 512},
		},
		{
			name:        "unsupported version",
			contents:    "version: 2\n",
			expectedErr: chunked.ErrUnsupportedVersion,
		},
		{
			name:        "zero bound",
			contents:    "chunk_bound_bytes: 0\n",
			expectedErr: chunked.ErrInvalidBound,
		},
		{
			name:        "zero threshold",
			contents:    "threshold_bytes: 0\n",
			expectedErr: chunked.ErrInvalidThreshold,
		},
		{
			name:     "unknown key",
			contents: "threshold: 10\n",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "chunked.yaml")
			require.NoError(t, os.WriteFile(path, []byte(test.contents), 0o644))

			cfg, err := chunked.LoadConfig(path)

			if test.expected == (chunked.Config{}) {
				require.Error(t, err)

				if test.expectedErr != nil {
					require.ErrorIs(t, err, test.expectedErr)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expected, cfg)
		})
	}
}

func TestLoadConfigMissing(t *testing.T) {
	t.Parallel()

	_, err := chunked.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := chunked.Config{Version: chunked.ConfigVersion, ThresholdBytes: 100, ChunkBoundBytes: 10}

	placer, err := chunked.New(cfg.Options()...)
	require.NoError(t, err)

	assert.EqualValues(t, 100, placer.Threshold())
	assert.EqualValues(t, 10, placer.ChunkBound())
}
