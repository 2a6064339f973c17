// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package main implements chunkctl, a command line tool to inspect placement decisions
// and manage a local chunk store.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siderolabs/go-chunked"
)

var rootCmd = &cobra.Command{
	Use:          "chunkctl",
	Short:        "Decide content placement and manage chunked content",
	Long:         "chunkctl decides whether content is stored inline or split into chunks, and stores, reads and removes chunked content in a local directory.",
	SilenceUsage: true,
}

var rootFlags struct {
	configPath string
	kind       string
	threshold  uint64
	bound      uint64
	debug      bool
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "Path to the YAML placement profile")
	rootCmd.PersistentFlags().StringVarP(&rootFlags.kind, "kind", "k", string(chunked.KindText), "Content kind: text or structured")
	rootCmd.PersistentFlags().Uint64Var(&rootFlags.threshold, "threshold", 0, "Placement threshold in bytes (overrides the profile)")
	rootCmd.PersistentFlags().Uint64Var(&rootFlags.bound, "bound", 0, "Chunk size bound in bytes (overrides the profile)")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.debug, "debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if rootFlags.debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

// options builds placement options from the profile and flag overrides.
func options(cmd *cobra.Command, logger *zap.Logger) ([]chunked.OptionFunc, error) {
	cfg := chunked.DefaultConfig()

	if rootFlags.configPath != "" {
		var err error

		cfg, err = chunked.LoadConfig(rootFlags.configPath)
		if err != nil {
			return nil, err
		}
	}

	opts := append(cfg.Options(), chunked.WithLogger(logger))

	if cmd.Flags().Changed("threshold") {
		opts = append(opts, chunked.WithThreshold(rootFlags.threshold))
	}

	if cmd.Flags().Changed("bound") {
		opts = append(opts, chunked.WithChunkBound(rootFlags.bound))
	}

	return opts, nil
}

// readPayload reads the payload from the file named by the only argument, or from stdin.
func readPayload(cmd *cobra.Command, args []string) (chunked.Payload, error) {
	kind, err := chunked.ParseKind(rootFlags.kind)
	if err != nil {
		return chunked.Payload{}, err
	}

	var data []byte

	if len(args) > 0 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}

	if err != nil {
		return chunked.Payload{}, fmt.Errorf("failed to read input: %w", err)
	}

	return chunked.Payload{Kind: kind, Body: data}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
