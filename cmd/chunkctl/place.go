// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"github.com/spf13/cobra"

	"github.com/siderolabs/go-chunked"
)

var placeCmd = &cobra.Command{
	Use:   "place [file]",
	Short: "Print the placement decision and chunk layout for content",
	Long:  "Reads content from the file or stdin and prints whether it would be stored inline or externally, and the chunks it would be split into.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlace,
}

func init() {
	rootCmd.AddCommand(placeCmd)
}

type placeOutput struct {
	Placement chunked.Placement       `json:"placement"`
	Kind      chunked.Kind            `json:"kind"`
	Chunks    []chunked.ManifestEntry `json:"chunks,omitempty"`
	Size      uint64                  `json:"size"`
	Threshold uint64                  `json:"threshold_bytes"`
	Bound     uint64                  `json:"chunk_bound_bytes"`
}

func runPlace(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	defer logger.Sync() //nolint:errcheck

	opts, err := options(cmd, logger)
	if err != nil {
		return err
	}

	placer, err := chunked.New(opts...)
	if err != nil {
		return err
	}

	payload, err := readPayload(cmd, args)
	if err != nil {
		return err
	}

	res, err := placer.Place(payload)
	if err != nil {
		return err
	}

	m := chunked.NewManifest("", payload, res)

	return writeJSON(cmd.OutOrStdout(), placeOutput{
		Placement: res.Placement,
		Kind:      res.Kind,
		Size:      res.Size,
		Threshold: placer.Threshold(),
		Bound:     placer.ChunkBound(),
		Chunks:    m.Chunks,
	})
}
