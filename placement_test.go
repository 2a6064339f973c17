// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chunked_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/siderolabs/go-chunked"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name string

		length    uint64
		threshold uint64

		expected chunked.Placement
	}{
		{
			name:      "below threshold",
			length:    1_048_575,
			threshold: 1_048_576,
			expected:  chunked.PlacementInline,
		},
		{
			name:      "at threshold",
			length:    1_048_576,
			threshold: 1_048_576,
			expected:  chunked.PlacementExternal,
		},
		{
			name:      "above threshold",
			length:    1_048_577,
			threshold: 1_048_576,
			expected:  chunked.PlacementExternal,
		},
		{
			name:      "empty",
			length:    0,
			threshold: 1,
			expected:  chunked.PlacementInline,
		},
		{
			name:      "zero threshold",
			length:    0,
			threshold: 0,
			expected:  chunked.PlacementExternal,
		},
		{
			name:      "max length",
			length:    ^uint64(0),
			threshold: ^uint64(0),
			expected:  chunked.PlacementExternal,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, test.expected, chunked.Decide(test.length, test.threshold))
		})
	}
}

func TestDecideBoundary(t *testing.T) {
	t.Parallel()

	for _, threshold := range []uint64{1, 2, 1024, 1 << 20, 1 << 40} {
		assert.Equal(t, chunked.PlacementInline, chunked.Decide(threshold-1, threshold), "threshold %d", threshold)
		assert.Equal(t, chunked.PlacementExternal, chunked.Decide(threshold, threshold), "threshold %d", threshold)
		assert.Equal(t, chunked.PlacementExternal, chunked.Decide(threshold+1, threshold), "threshold %d", threshold)
	}
}
