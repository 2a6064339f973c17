// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chunked

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options defines settings for Placer and Store.
type Options struct {
	Compressor Compressor

	Logger *zap.Logger

	// WriteLimit limits the rate of chunk writes in Store, zero means unlimited.
	WriteLimit rate.Limit

	ThresholdBytes  uint64
	ChunkBoundBytes uint64

	WriteConcurrency int
	WriteBurst       int
}

// Compressor implements an optional interface for chunk compression in Store.
//
// Compress and Decompress append to the dest slice and return the result.
//
// Compressor should be safe for concurrent use by multiple goroutines.
// Compressor should verify checksums of the compressed data.
type Compressor interface {
	Compress(src, dest []byte) ([]byte, error)
	Decompress(src, dest []byte) ([]byte, error)
	DecompressedSize(src []byte) (int64, error)
}

// defaultOptions returns default initial values.
func defaultOptions() Options {
	cfg := DefaultConfig()

	return Options{
		ThresholdBytes:   cfg.ThresholdBytes,
		ChunkBoundBytes:  cfg.ChunkBoundBytes,
		WriteConcurrency: 4,
		Logger:           zap.NewNop(),
	}
}

// OptionFunc allows setting Placer and Store options.
type OptionFunc func(*Options) error

// WithThreshold sets the content length at which payloads are externalized.
func WithThreshold(threshold uint64) OptionFunc {
	return func(opt *Options) error {
		if threshold == 0 {
			return fmt.Errorf("%w: %d", ErrInvalidThreshold, threshold)
		}

		opt.ThresholdBytes = threshold

		return nil
	}
}

// WithChunkBound sets the maximum chunk size.
func WithChunkBound(bound uint64) OptionFunc {
	return func(opt *Options) error {
		if bound == 0 {
			return fmt.Errorf("%w: %d", ErrInvalidBound, bound)
		}

		opt.ChunkBoundBytes = bound

		return nil
	}
}

// WithCompressor enables chunk compression in Store.
//
// Chunk bound applies to the uncompressed chunk bytes.
func WithCompressor(c Compressor) OptionFunc {
	return func(opt *Options) error {
		opt.Compressor = c

		return nil
	}
}

// WithWriteConcurrency sets the number of chunks Store writes in parallel.
func WithWriteConcurrency(n int) OptionFunc {
	return func(opt *Options) error {
		if n <= 0 {
			return fmt.Errorf("write concurrency should be positive: %d", n)
		}

		opt.WriteConcurrency = n

		return nil
	}
}

// WithWriteLimit limits the number of chunk writes per second in Store.
func WithWriteLimit(limit rate.Limit, burst int) OptionFunc {
	return func(opt *Options) error {
		if limit <= 0 {
			return fmt.Errorf("write limit should be positive: %v", limit)
		}

		if burst <= 0 {
			return fmt.Errorf("write burst should be positive: %d", burst)
		}

		opt.WriteLimit = limit
		opt.WriteBurst = burst

		return nil
	}
}

// WithLogger sets logger for Placer and Store.
func WithLogger(logger *zap.Logger) OptionFunc {
	return func(opt *Options) error {
		opt.Logger = logger

		return nil
	}
}
