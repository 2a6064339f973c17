// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chunked

import "fmt"

// MIME types of produced chunks.
const (
	MIMEStructured = "application/jsonl"
	MIMEText       = "text/plain; charset=utf-8"
)

// Descriptor is one unit of externalized storage.
//
// Descriptors are immutable once returned from Chunk.
type Descriptor struct {
	// name under which the chunk is stored, derived from Index and the chunk kind
	Name string
	MIME string
	// exact chunk payload, UTF-8 encoded
	Bytes []byte
	// zero-based position in the chunk sequence
	Index int
}

// ChunkName returns the storage name of the chunk with the given index.
//
// Index is zero-padded to 6 digits; indices above 999999 get wider names,
// so lexical order of names is only guaranteed below that.
func ChunkName(index int, kind Kind) string {
	return fmt.Sprintf("chunk_%06d.%s", index, chunkExt(kind))
}

func chunkExt(kind Kind) string {
	if kind == KindStructured {
		return "jsonl"
	}

	return "txt"
}

func chunkMIME(kind Kind) string {
	if kind == KindStructured {
		return MIMEStructured
	}

	return MIMEText
}

func newDescriptor(index int, kind Kind, data []byte) Descriptor {
	return Descriptor{
		Index: index,
		Name:  ChunkName(index, kind),
		MIME:  chunkMIME(kind),
		Bytes: data,
	}
}
