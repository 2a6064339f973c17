// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chunked

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigVersion is the only supported Config version.
const ConfigVersion = 1

// Config is the placement profile shared by every writer of the same records.
//
// All writers of the same records must use identical values.
type Config struct {
	Version         int    `yaml:"version"`
	ThresholdBytes  uint64 `yaml:"threshold_bytes"`
	ChunkBoundBytes uint64 `yaml:"chunk_bound_bytes"`
}

// DefaultConfig returns the default profile: 1 MiB threshold and 1 MiB chunks.
func DefaultConfig() Config {
	return Config{
		Version:         ConfigVersion,
		ThresholdBytes:  1 << 20,
		ChunkBoundBytes: 1 << 20,
	}
}

// LoadConfig reads the profile from a YAML file.
//
// Missing keys keep their default values, unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err = dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	if err = cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the profile.
func (c Config) Validate() error {
	if c.Version != ConfigVersion {
		return fmt.Errorf("%w: config version %d", ErrUnsupportedVersion, c.Version)
	}

	if c.ThresholdBytes == 0 {
		return ErrInvalidThreshold
	}

	if c.ChunkBoundBytes == 0 {
		return ErrInvalidBound
	}

	return nil
}

// Options converts the profile to options.
func (c Config) Options() []OptionFunc {
	return []OptionFunc{
		WithThreshold(c.ThresholdBytes),
		WithChunkBound(c.ChunkBoundBytes),
	}
}
