// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chunked

import (
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/fxamacker/cbor/v2"
	"github.com/siderolabs/gen/xslices"
	"github.com/zeebo/blake3"
)

// ManifestVersion is the only supported Manifest version.
const ManifestVersion = 1

// ManifestEntry references one stored chunk.
type ManifestEntry struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	// hex-encoded BLAKE3-256 of the uncompressed chunk bytes
	Digest string `json:"digest"`
	Index  int    `json:"index"`
	Size   int64  `json:"size"`
}

// Manifest maps a logical resource to its inline content or to its ordered chunks.
//
// Manifest is stored in place of the payload in the owning record.
type Manifest struct {
	ResourceID string          `json:"resource_id"`
	Kind       Kind            `json:"kind"`
	Placement  Placement       `json:"placement"`
	Inline     []byte          `json:"inline,omitempty"`
	Chunks     []ManifestEntry `json:"chunks,omitempty"`
	Size       uint64          `json:"size"`
	Version    int             `json:"version"`
	Compressed bool            `json:"compressed,omitempty"`
}

// encMode uses Core Deterministic Encoding, so the same manifest always encodes to the same bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("chunked: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("chunked: CBOR decoder initialization failed: " + err.Error())
	}
}

// Digest returns the hex-encoded BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// NewManifest builds a manifest for the payload and its placement result.
func NewManifest(resourceID string, payload Payload, res Result) *Manifest {
	m := &Manifest{
		Version:    ManifestVersion,
		ResourceID: resourceID,
		Kind:       res.Kind,
		Placement:  res.Placement,
		Size:       res.Size,
	}

	if res.Placement == PlacementInline {
		if len(payload.Body) > 0 {
			m.Inline = slices.Clone(payload.Body)
		}

		return m
	}

	m.Chunks = xslices.Map(res.Chunks, func(d Descriptor) ManifestEntry {
		return ManifestEntry{
			Index:  d.Index,
			Name:   d.Name,
			MIME:   d.MIME,
			Size:   int64(len(d.Bytes)),
			Digest: Digest(d.Bytes),
		}
	})

	return m
}

// Names returns chunk names in index order.
func (m *Manifest) Names() []string {
	return xslices.Map(m.Chunks, func(e ManifestEntry) string {
		return e.Name
	})
}

// ChunkedSize returns the total size of the chunk bytes.
//
// For structured content it differs from Size, as chunks hold the compact one-line form of each element.
func (m *Manifest) ChunkedSize() int64 {
	var size int64

	for _, e := range m.Chunks {
		size += e.Size
	}

	return size
}

// Validate checks manifest consistency.
func (m *Manifest) Validate() error {
	if m.Version != ManifestVersion {
		return fmt.Errorf("%w: manifest version %d", ErrUnsupportedVersion, m.Version)
	}

	if _, err := ParseKind(string(m.Kind)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	switch m.Placement {
	case PlacementInline:
		if len(m.Chunks) > 0 {
			return fmt.Errorf("%w: inline manifest references %d chunks", ErrInvalidManifest, len(m.Chunks))
		}

		if uint64(len(m.Inline)) != m.Size {
			return fmt.Errorf("%w: inline content is %d bytes, expected %d", ErrInvalidManifest, len(m.Inline), m.Size)
		}
	case PlacementExternal:
		if len(m.Inline) > 0 {
			return fmt.Errorf("%w: external manifest carries inline content", ErrInvalidManifest)
		}

		for i, e := range m.Chunks {
			if e.Index != i {
				return fmt.Errorf("%w: chunk at position %d has index %d", ErrInvalidManifest, i, e.Index)
			}

			if e.Name != ChunkName(i, m.Kind) || e.MIME != chunkMIME(m.Kind) {
				return fmt.Errorf("%w: chunk %d is %q (%s)", ErrInvalidManifest, i, e.Name, e.MIME)
			}

			if e.Size <= 0 {
				return fmt.Errorf("%w: chunk %d is empty", ErrInvalidManifest, i)
			}

			if digest, err := hex.DecodeString(e.Digest); err != nil || len(digest) != 32 {
				return fmt.Errorf("%w: chunk %d digest %q", ErrInvalidManifest, i, e.Digest)
			}
		}
	default:
		return fmt.Errorf("%w: unknown placement %q", ErrInvalidManifest, m.Placement)
	}

	return nil
}

// Marshal encodes the manifest to CBOR.
func (m *Manifest) Marshal() ([]byte, error) {
	return encMode.Marshal(m)
}

// UnmarshalManifest decodes and validates a CBOR-encoded manifest.
func UnmarshalManifest(data []byte) (*Manifest, error) {
	var m Manifest

	if err := decMode.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}
