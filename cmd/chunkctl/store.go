// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siderolabs/go-chunked"
	"github.com/siderolabs/go-chunked/zstd"
)

var storeFlags struct {
	dir         string
	id          string
	concurrency int
	compress    bool
}

var putCmd = &cobra.Command{
	Use:   "put [file]",
	Short: "Store content in the chunk store",
	Long:  "Reads content from the file or stdin, stores it inline or as chunks, and prints the manifest.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPut,
}

var catCmd = &cobra.Command{
	Use:   "cat",
	Short: "Write stored content to stdout",
	Args:  cobra.NoArgs,
	RunE:  runCat,
}

var rmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Remove stored content",
	Args:  cobra.NoArgs,
	RunE:  runRm,
}

func init() {
	for _, cmd := range []*cobra.Command{putCmd, catCmd, rmCmd} {
		cmd.Flags().StringVarP(&storeFlags.dir, "dir", "d", "", "Chunk store directory (required)")
		cmd.Flags().BoolVar(&storeFlags.compress, "compress", false, "Compress chunks with zstd")

		cmd.MarkFlagRequired("dir") //nolint:errcheck

		rootCmd.AddCommand(cmd)
	}

	putCmd.Flags().StringVar(&storeFlags.id, "id", "", "Resource ID (defaults to a random UUID)")
	putCmd.Flags().IntVar(&storeFlags.concurrency, "concurrency", 4, "Number of chunks written in parallel")

	for _, cmd := range []*cobra.Command{catCmd, rmCmd} {
		cmd.Flags().StringVar(&storeFlags.id, "id", "", "Resource ID (required)")
		cmd.MarkFlagRequired("id") //nolint:errcheck
	}
}

// withStore opens the store and runs fn with it.
func withStore(cmd *cobra.Command, fn func(*chunked.Store, *zap.Logger) error) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	defer logger.Sync() //nolint:errcheck

	opts, err := options(cmd, logger)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("concurrency") {
		opts = append(opts, chunked.WithWriteConcurrency(storeFlags.concurrency))
	}

	if storeFlags.compress {
		compressor, err := zstd.NewCompressor()
		if err != nil {
			return err
		}

		defer compressor.Close() //nolint:errcheck

		opts = append(opts, chunked.WithCompressor(compressor))
	}

	store, err := chunked.NewStore(storeFlags.dir, opts...)
	if err != nil {
		return err
	}

	return fn(store, logger)
}

func runPut(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(store *chunked.Store, logger *zap.Logger) error {
		payload, err := readPayload(cmd, args)
		if err != nil {
			return err
		}

		id := storeFlags.id
		if id == "" {
			id = uuid.NewString()
		}

		m, err := store.Put(cmd.Context(), id, payload)
		if err != nil {
			return err
		}

		logger.Info("stored content", zap.String("resource_id", id), zap.String("placement", string(m.Placement)), zap.Int("num_chunks", len(m.Chunks)))

		return writeJSON(cmd.OutOrStdout(), m)
	})
}

func runCat(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(store *chunked.Store, _ *zap.Logger) error {
		r, err := store.Open(cmd.Context(), storeFlags.id)
		if err != nil {
			return err
		}

		_, err = io.Copy(cmd.OutOrStdout(), r)

		return errors.Join(err, r.Close())
	})
}

func runRm(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(store *chunked.Store, logger *zap.Logger) error {
		if err := store.Delete(cmd.Context(), storeFlags.id); err != nil {
			return err
		}

		logger.Info("removed content", zap.String("resource_id", storeFlags.id))

		return nil
	})
}
