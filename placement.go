// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chunked

// Placement is the inline-vs-external decision for one content payload.
type Placement string

// Placement values.
const (
	// PlacementInline keeps content as part of its owning record.
	PlacementInline Placement = "inline"
	// PlacementExternal replaces content with a manifest referencing separately stored chunks.
	PlacementExternal Placement = "external"
)

// Decide returns PlacementExternal if length reaches the threshold.
//
// The comparison is inclusive: content of exactly threshold bytes is externalized.
// Every writer of the same records must use the same threshold, so Decide has no default;
// use DefaultConfig to get the shared one.
func Decide(length, threshold uint64) Placement {
	if length >= threshold {
		return PlacementExternal
	}

	return PlacementInline
}
