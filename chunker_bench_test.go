// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

//go:build !race

package chunked_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-chunked"
)

func BenchmarkChunk(b *testing.B) {
	items := make([]map[string]any, 20_000)
	for i := range items {
		items[i] = map[string]any{"id": i, "body": strings.Repeat("structured ", i%20)}
	}

	structured, err := json.Marshal(items)
	require.NoError(b, err)

	for _, test := range []struct {
		name string

		payload chunked.Payload
		bound   uint64
	}{
		{
			name:    "text ascii",
			payload: chunked.TextPayload(strings.Repeat("plain text ", 400_000)),
			bound:   64 * 1024,
		},
		{
			name:    "text multi-byte",
			payload: chunked.TextPayload(strings.Repeat("многобайтовый ", 200_000)),
			bound:   64*1024 + 1,
		},
		{
			name:    "structured",
			payload: chunked.StructuredPayload(structured),
			bound:   64 * 1024,
		},
	} {
		b.Run(test.name, func(b *testing.B) {
			b.SetBytes(int64(len(test.payload.Body)))
			b.ReportAllocs()

			for b.Loop() {
				chunks, err := chunked.Chunk(test.payload, test.bound)
				if err != nil {
					b.Fatal(err)
				}

				if len(chunks) == 0 {
					b.Fatal("no chunks")
				}
			}
		})
	}
}
