// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chunked

import "errors"

// ErrInvalidBound is returned when the chunk size bound is zero.
var ErrInvalidBound = errors.New("chunk bound should be positive")

// ErrInvalidThreshold is returned when the placement threshold is zero.
var ErrInvalidThreshold = errors.New("placement threshold should be positive")

// ErrInvalidResourceID is returned for resource IDs which can't be used as a single path element.
var ErrInvalidResourceID = errors.New("invalid resource ID")

// ErrNotFound is returned when the store has no manifest for the resource.
var ErrNotFound = errors.New("resource not found")

// ErrInvalidManifest is returned when a manifest fails validation.
var ErrInvalidManifest = errors.New("invalid manifest")

// ErrUnsupportedVersion is returned for manifests and configs written with an unknown version.
var ErrUnsupportedVersion = errors.New("unsupported version")

// ErrDigestMismatch is returned when chunk contents don't match the manifest.
var ErrDigestMismatch = errors.New("chunk digest mismatch")

// ErrClosed is raised on read from closed Reader.
var ErrClosed = errors.New("reader is closed")
