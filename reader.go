// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chunked

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/siderolabs/gen/optional"
)

// Reader reassembles the content of a stored resource, loading chunks one at a time in index order.
//
// Each chunk is verified against the manifest size and digest before any of its bytes are returned.
//
// Reader is not safe to be used with concurrent Read operations.
type Reader struct {
	compressor Compressor
	manifest   *Manifest

	// chunk being read, absent before the first chunk is loaded or when the current one is drained
	current optional.Optional[[]byte]

	// decompression buffer, re-used between chunks
	scratch []byte

	dir  string
	next int

	closed atomic.Bool
}

func newReader(m *Manifest, dir string, compressor Compressor) *Reader {
	r := &Reader{
		manifest:   m,
		dir:        dir,
		compressor: compressor,
	}

	if m.Placement == PlacementInline && len(m.Inline) > 0 {
		r.current = optional.Some(m.Inline)
	}

	return r
}

// Manifest returns the manifest the reader follows.
func (r *Reader) Manifest() *Manifest {
	return r.manifest
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (n int, err error) {
	if r.closed.Load() {
		return n, ErrClosed
	}

	for len(r.current.ValueOr(nil)) == 0 {
		if r.next >= len(r.manifest.Chunks) {
			return n, io.EOF
		}

		if err = r.loadChunk(); err != nil {
			return n, err
		}
	}

	if len(p) == 0 {
		return n, nil
	}

	data := r.current.ValueOr(nil)

	n = copy(p, data)

	if n == len(data) {
		r.current = optional.None[[]byte]()
	} else {
		r.current = optional.Some(data[n:])
	}

	return n, nil
}

func (r *Reader) loadChunk() error {
	entry := r.manifest.Chunks[r.next]

	data, err := os.ReadFile(filepath.Join(r.dir, entry.Name))
	if err != nil {
		return fmt.Errorf("failed to read chunk %s: %w", entry.Name, err)
	}

	if r.manifest.Compressed {
		r.scratch, err = r.compressor.Decompress(data, r.scratch[:0])
		if err != nil {
			return fmt.Errorf("failed to decompress chunk %s: %w", entry.Name, err)
		}

		data = r.scratch
	}

	if int64(len(data)) != entry.Size {
		return fmt.Errorf("%w: chunk %s is %d bytes, expected %d", ErrDigestMismatch, entry.Name, len(data), entry.Size)
	}

	if digest := Digest(data); digest != entry.Digest {
		return fmt.Errorf("%w: chunk %s has digest %s, expected %s", ErrDigestMismatch, entry.Name, digest, entry.Digest)
	}

	r.current = optional.Some(data)
	r.next++

	return nil
}

// Close implements io.Closer.
func (r *Reader) Close() error {
	r.closed.Store(true)

	return nil
}
