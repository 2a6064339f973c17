// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chunked

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const manifestFile = "manifest.cbor"

// Store persists payloads in a local directory.
//
// Each resource gets a directory holding its manifest, and for external content a generation
// directory with the chunk files named after the chunk descriptors:
//
//	<dir>/<resource>/manifest.cbor
//	<dir>/<resource>/<generation>/chunk_000000.jsonl
//
// The generation is derived from the encoded manifest, so rewriting a resource never touches
// the chunks referenced by the manifest readers currently see. The manifest is written only after
// all chunks are durable, and older generations are removed after that.
//
// Store is safe for concurrent use on different resources.
type Store struct {
	placer  *Placer
	limiter *rate.Limiter
	dir     string
	opt     Options
}

// NewStore creates new Store in the directory dir with specified options.
func NewStore(dir string, opts ...OptionFunc) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store directory should be set")
	}

	placer, err := New(opts...)
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:    dir,
		placer: placer,
		opt:    placer.opt,
	}

	if s.opt.WriteLimit > 0 {
		s.limiter = rate.NewLimiter(s.opt.WriteLimit, s.opt.WriteBurst)
	}

	if err = os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return s, nil
}

// Placer returns the placer used by the store.
func (s *Store) Placer() *Placer {
	return s.placer
}

// Put stores the payload under resourceID, replacing any previous version.
func (s *Store) Put(ctx context.Context, resourceID string, payload Payload) (*Manifest, error) {
	if err := validateResourceID(resourceID); err != nil {
		return nil, err
	}

	res, err := s.placer.Place(payload)
	if err != nil {
		return nil, err
	}

	m := NewManifest(resourceID, payload, res)
	m.Compressed = s.opt.Compressor != nil && res.Placement == PlacementExternal

	data, err := m.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	resourceDir := filepath.Join(s.dir, resourceID)

	if err = os.MkdirAll(resourceDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create resource directory: %w", err)
	}

	var generation string

	if res.Placement == PlacementExternal {
		generation = generationOf(data)

		if err = s.writeChunks(ctx, filepath.Join(resourceDir, generation), m.Compressed, res.Chunks); err != nil {
			s.dropFailedGeneration(resourceDir, generation)

			return nil, fmt.Errorf("failed to write chunks of %q: %w", resourceID, err)
		}
	}

	if err = atomicWriteFile(filepath.Join(resourceDir, manifestFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write manifest of %q: %w", resourceID, err)
	}

	s.dropStaleGenerations(resourceDir, generation)

	s.opt.Logger.Debug("stored resource",
		zap.String("resource_id", resourceID),
		zap.String("placement", string(m.Placement)),
		zap.Int("num_chunks", len(m.Chunks)),
		zap.String("generation", generation),
	)

	return m, nil
}

func (s *Store) writeChunks(ctx context.Context, dir string, compressed bool, chunks []Descriptor) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opt.WriteConcurrency)

	for _, d := range chunks {
		d := d

		eg.Go(func() error {
			return s.writeChunk(ctx, dir, compressed, d)
		})
	}

	return eg.Wait()
}

func (s *Store) writeChunk(ctx context.Context, dir string, compressed bool, d Descriptor) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	data := d.Bytes

	if compressed {
		var err error

		data, err = s.opt.Compressor.Compress(d.Bytes, nil)
		if err != nil {
			return fmt.Errorf("failed to compress chunk %s: %w", d.Name, err)
		}
	}

	path := filepath.Join(dir, d.Name)

	if err := atomicWriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write chunk %s: %w", d.Name, err)
	}

	s.opt.Logger.Debug("persisted chunk", zap.String("path", path), zap.Int("size", len(d.Bytes)), zap.Int("stored_size", len(data)))

	return nil
}

// Manifest returns the current manifest of the resource.
func (s *Store) Manifest(ctx context.Context, resourceID string) (*Manifest, error) {
	m, _, err := s.readManifest(ctx, resourceID)

	return m, err
}

func (s *Store) readManifest(ctx context.Context, resourceID string) (*Manifest, string, error) {
	if err := validateResourceID(resourceID); err != nil {
		return nil, "", err
	}

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, resourceID, manifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %q", ErrNotFound, resourceID)
		}

		return nil, "", fmt.Errorf("failed to read manifest of %q: %w", resourceID, err)
	}

	m, err := UnmarshalManifest(data)
	if err != nil {
		return nil, "", fmt.Errorf("manifest of %q: %w", resourceID, err)
	}

	if m.ResourceID != resourceID {
		return nil, "", fmt.Errorf("%w: manifest of %q belongs to %q", ErrInvalidManifest, resourceID, m.ResourceID)
	}

	var generation string

	if m.Placement == PlacementExternal {
		generation = generationOf(data)
	}

	return m, generation, nil
}

// Open returns a reader over the reassembled content of the resource.
func (s *Store) Open(ctx context.Context, resourceID string) (*Reader, error) {
	m, generation, err := s.readManifest(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	if m.Compressed && s.opt.Compressor == nil {
		return nil, fmt.Errorf("resource %q is compressed, but no compressor is configured", resourceID)
	}

	return newReader(m, filepath.Join(s.dir, resourceID, generation), s.opt.Compressor), nil
}

// Load returns the reassembled content of the resource.
func (s *Store) Load(ctx context.Context, resourceID string) ([]byte, error) {
	r, err := s.Open(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	defer r.Close() //nolint:errcheck

	return io.ReadAll(r)
}

// Delete removes the resource: the manifest goes first, so readers never see a manifest without chunks.
func (s *Store) Delete(ctx context.Context, resourceID string) error {
	if err := validateResourceID(resourceID); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	resourceDir := filepath.Join(s.dir, resourceID)

	if err := os.Remove(filepath.Join(resourceDir, manifestFile)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %q", ErrNotFound, resourceID)
		}

		return fmt.Errorf("failed to remove manifest of %q: %w", resourceID, err)
	}

	if err := os.RemoveAll(resourceDir); err != nil {
		return fmt.Errorf("failed to remove chunks of %q: %w", resourceID, err)
	}

	s.opt.Logger.Debug("deleted resource", zap.String("resource_id", resourceID))

	return nil
}

// dropStaleGenerations removes chunk generations other than current.
func (s *Store) dropStaleGenerations(resourceDir, current string) {
	entries, err := os.ReadDir(resourceDir)
	if err != nil {
		s.opt.Logger.Error("failed to list resource directory", zap.String("path", resourceDir), zap.Error(err))

		return
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == current {
			continue
		}

		path := filepath.Join(resourceDir, entry.Name())

		if err = os.RemoveAll(path); err != nil {
			s.opt.Logger.Error("failed to remove stale chunks", zap.String("path", path), zap.Error(err))
		} else {
			s.opt.Logger.Debug("dropped stale chunks", zap.String("path", path))
		}
	}
}

// dropFailedGeneration removes a partially written generation, unless the current manifest references it.
func (s *Store) dropFailedGeneration(resourceDir, generation string) {
	if data, err := os.ReadFile(filepath.Join(resourceDir, manifestFile)); err == nil && generationOf(data) == generation {
		return
	}

	path := filepath.Join(resourceDir, generation)

	if err := os.RemoveAll(path); err != nil {
		s.opt.Logger.Error("failed to remove partially written chunks", zap.String("path", path), zap.Error(err))
	}
}

// generationOf derives the chunk directory name from the encoded manifest.
func generationOf(manifest []byte) string {
	return Digest(manifest)[:16]
}

func validateResourceID(resourceID string) error {
	if resourceID == "" || resourceID == "." || resourceID == ".." ||
		strings.ContainsAny(resourceID, `/\`) || filepath.Base(resourceID) != resourceID {
		return fmt.Errorf("%w: %q", ErrInvalidResourceID, resourceID)
	}

	return nil
}

func atomicWriteFile(path string, data []byte, mode fs.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tmpPath := f.Name()

	cleanup := func() {
		f.Close()          //nolint:errcheck
		os.Remove(tmpPath) //nolint:errcheck
	}

	if _, err = f.Write(data); err != nil {
		cleanup()

		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err = f.Sync(); err != nil {
		cleanup()

		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err = f.Chmod(mode); err != nil {
		cleanup()

		return fmt.Errorf("failed to set temporary file mode: %w", err)
	}

	if err = f.Close(); err != nil {
		os.Remove(tmpPath) //nolint:errcheck

		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) //nolint:errcheck

		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
