// Package config holds the per-instance configuration record (SDKOptions)
// shared by the OT and tuple-generator layers, plus a YAML loader for
// overriding it from a file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SDKOptions configures a Ferret/OT/tuple-generator instance.
type SDKOptions struct {
	// BufferSize is the tuple buffer's target depth (DefaultFerretOptions
	// sets 16384).
	BufferSize int `yaml:"buffer_size"`
	// BaseSize is the number of base-COT blocks an iteration consumes and,
	// simultaneously, reserves as the next iteration's seed.
	BaseSize int `yaml:"base_size"`
	// ExtendedSize is the total number of RCOTs one Ferret iteration
	// produces, BaseSize of which are reinvested as the next seed.
	ExtendedSize int `yaml:"extended_size"`
	// Weight is the number of SPCOTs the multi-point COT runs, i.e. the
	// number of errors (one per bucket) in an iteration's error vector. The
	// ten-local linear code's row weight is fixed at 10 and does not follow it.
	Weight int `yaml:"weight"`
}

// DefaultFerretOptions returns the reference Ferret extension parameters.
func DefaultFerretOptions() SDKOptions {
	return SDKOptions{
		BufferSize:   16384,
		BaseSize:     589760,
		ExtendedSize: 10805248,
		Weight:       1319,
	}
}

// Validate checks the combination is internally consistent. Returns an
// error rather than panicking, since the caller picked these numbers and
// can correct them before construction proceeds.
func (o SDKOptions) Validate() error {
	if o.BaseSize <= 0 || o.ExtendedSize <= 0 || o.Weight <= 0 || o.BufferSize <= 0 {
		return fmt.Errorf("config: all of buffer_size, base_size, extended_size, weight must be positive, got %+v", o)
	}
	if o.ExtendedSize <= o.BaseSize {
		return fmt.Errorf("config: extended_size (%d) must exceed base_size (%d)", o.ExtendedSize, o.BaseSize)
	}
	if o.ExtendedSize%o.Weight != 0 {
		return fmt.Errorf("config: extended_size (%d) must be a multiple of weight (%d) for regular-error partitioning", o.ExtendedSize, o.Weight)
	}
	return nil
}

// Load reads SDKOptions from a YAML file, applying DefaultFerretOptions for
// any field left at its zero value.
func Load(path string) (SDKOptions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SDKOptions{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	opts := DefaultFerretOptions()
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return SDKOptions{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return SDKOptions{}, err
	}
	return opts, nil
}
