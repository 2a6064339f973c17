// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package chunked decides whether content is stored inline with its owning record
// or externalized into chunks, and splits externalized content into deterministic,
// size-bounded chunks.
package chunked

import (
	"go.uber.org/zap"
)

// Placer combines the placement decision and chunking for the write path.
//
// Placer is stateless and safe for concurrent use.
type Placer struct {
	opt Options
}

// Result is the outcome of Placer.Place.
type Result struct {
	Placement Placement

	// Kind of the produced chunks, KindText for structured payloads which are not valid JSON.
	Kind Kind

	// Chunks are set only for PlacementExternal.
	Chunks []Descriptor

	Size uint64
}

// New creates new Placer with specified options.
func New(opts ...OptionFunc) (*Placer, error) {
	p := &Placer{
		opt: defaultOptions(),
	}

	for _, o := range opts {
		if err := o(&p.opt); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Threshold returns the configured placement threshold.
func (p *Placer) Threshold() uint64 {
	return p.opt.ThresholdBytes
}

// ChunkBound returns the configured chunk bound.
func (p *Placer) ChunkBound() uint64 {
	return p.opt.ChunkBoundBytes
}

// Place decides the placement of the payload and chunks it if it should be externalized.
func (p *Placer) Place(payload Payload) (Result, error) {
	res := Result{
		Placement: Decide(payload.Len(), p.opt.ThresholdBytes),
		Kind:      payload.Kind,
		Size:      payload.Len(),
	}

	if res.Placement == PlacementInline {
		p.opt.Logger.Debug("keeping content inline", zap.Uint64("size", res.Size), zap.String("kind", string(payload.Kind)))

		return res, nil
	}

	kind, chunks, err := chunk(payload, p.opt.ChunkBoundBytes)
	if err != nil {
		return Result{}, err
	}

	if kind != payload.Kind {
		p.opt.Logger.Warn("structured content is not valid JSON, chunking as text", zap.Uint64("size", res.Size))
	}

	res.Kind = kind
	res.Chunks = chunks

	p.opt.Logger.Debug("externalizing content",
		zap.Uint64("size", res.Size),
		zap.String("kind", string(kind)),
		zap.Int("num_chunks", len(chunks)),
	)

	return res, nil
}
