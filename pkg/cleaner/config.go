package cleaner

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

// Config defines what the cleaner clears and what it keeps.
type Config struct {
	// === Clearing ===

	// ClearNBMetadata clears notebook metadata except preserved paths.
	ClearNBMetadata bool `json:"clear_nb_metadata" yaml:"clear_nb_metadata"`

	// ClearCellMetadata clears cell and output metadata except preserved paths.
	ClearCellMetadata bool `json:"clear_cell_metadata" yaml:"clear_cell_metadata"`

	// ClearExecutionCount nulls execution counts of code cells and their outputs.
	ClearExecutionCount bool `json:"clear_execution_count" yaml:"clear_execution_count"`

	// ClearOutputs removes all outputs of code cells.
	ClearOutputs bool `json:"clear_outputs" yaml:"clear_outputs"`

	// === Preservation ===

	// NBMetadataPreserveMasks lists notebook metadata paths to keep.
	// Empty means the built-in defaults.
	NBMetadataPreserveMasks []Mask `json:"nb_metadata_preserve_mask,omitempty" yaml:"nb_metadata_preserve_mask,omitempty" validate:"omitempty,dive,min=1,dive,required"`

	// CellMetadataPreserveMasks lists cell metadata paths to keep.
	CellMetadataPreserveMasks []Mask `json:"cell_metadata_preserve_mask,omitempty" yaml:"cell_metadata_preserve_mask,omitempty" validate:"omitempty,dive,min=1,dive,required"`

	// MaskMerge adds the built-in notebook masks to NBMetadataPreserveMasks
	// instead of replacing them.
	MaskMerge bool `json:"mask_merge" yaml:"mask_merge"`

	// === Run ===

	// PreserveTimestamp keeps the modification time of rewritten files.
	PreserveTimestamp bool `json:"preserve_timestamp" yaml:"preserve_timestamp"`

	// DryRun reports changes without writing them.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	Silent  bool `json:"silent" yaml:"silent"`
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// DefaultConfig clears notebook metadata, cell metadata and execution counts
// and keeps outputs.
func DefaultConfig() *Config {
	return &Config{
		ClearNBMetadata:     true,
		ClearCellMetadata:   true,
		ClearExecutionCount: true,
		ClearOutputs:        false,
		MaskMerge:           true,
		PreserveTimestamp:   true,
	}
}

// PresetOutputs is DefaultConfig that also strips outputs.
func PresetOutputs() *Config {
	cfg := DefaultConfig()
	cfg.ClearOutputs = true
	return cfg
}

// PresetMetadataOnly clears metadata and leaves execution counts and outputs.
func PresetMetadataOnly() *Config {
	cfg := DefaultConfig()
	cfg.ClearExecutionCount = false
	return cfg
}

// Active reports whether any cell level clearing is enabled.
func (c *Config) Active() bool {
	return c.ClearCellMetadata || c.ClearExecutionCount || c.ClearOutputs
}

// EffectiveNBMasks returns the notebook metadata masks in force. Without
// user masks the defaults apply. User masks replace the defaults when
// MaskMerge is off; otherwise the defaults are appended after them.
func (c *Config) EffectiveNBMasks() []Mask {
	if len(c.NBMetadataPreserveMasks) == 0 {
		return DefaultNBMetadataPreserveMasks()
	}
	if !c.MaskMerge {
		return c.NBMetadataPreserveMasks
	}
	return append(slices.Clone(c.NBMetadataPreserveMasks), DefaultNBMetadataPreserveMasks()...)
}

var validate = validator.New()

// Validate checks that every mask has at least one non-empty key.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid clean config: %w", err)
	}
	return nil
}

// Merge merges another config into this one.
// Flags set in other win; masks are appended. A false flag in other never
// turns a flag off, so Merge cannot express the dont_* switches.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	merged := *c

	if other.ClearNBMetadata {
		merged.ClearNBMetadata = true
	}
	if other.ClearCellMetadata {
		merged.ClearCellMetadata = true
	}
	if other.ClearExecutionCount {
		merged.ClearExecutionCount = true
	}
	if other.ClearOutputs {
		merged.ClearOutputs = true
	}
	if other.MaskMerge {
		merged.MaskMerge = true
	}
	if other.PreserveTimestamp {
		merged.PreserveTimestamp = true
	}
	if other.DryRun {
		merged.DryRun = true
	}
	if other.Silent {
		merged.Silent = true
	}
	if other.Verbose {
		merged.Verbose = true
	}

	merged.NBMetadataPreserveMasks = appendMasks(c.NBMetadataPreserveMasks, other.NBMetadataPreserveMasks)
	merged.CellMetadataPreserveMasks = appendMasks(c.CellMetadataPreserveMasks, other.CellMetadataPreserveMasks)

	return &merged
}

func appendMasks(base, more []Mask) []Mask {
	if more == nil {
		return base
	}
	return append(slices.Clone(base), more...)
}
