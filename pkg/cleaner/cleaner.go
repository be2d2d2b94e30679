// Package cleaner strips execution state and metadata from Jupyter notebooks.
//
// Every clearing step reports whether it actually changed the notebook, not
// whether clearing was attempted, so callers can skip rewriting files that
// are already clean.
package cleaner

import (
	"github.com/ayasyrev/nbmetaclean/pkg/notebook"
)

// Cleaner clears notebooks according to a Config.
type Cleaner struct {
	config *Config
	stats  *Stats
}

// New creates a new Cleaner with the given configuration.
// If config is nil, DefaultConfig() is used.
func New(config *Config) *Cleaner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Cleaner{
		config: config,
		stats:  &Stats{},
	}
}

// Name returns the cleaner name for logging.
func (c *Cleaner) Name() string {
	return "nbmetaclean"
}

// Config returns the configuration in use.
func (c *Cleaner) Config() *Config {
	return c.config
}

// Stats returns the totals accumulated over every Clean call.
func (c *Cleaner) Stats() *Stats {
	return c.stats
}

// Clean clears nb in place and reports whether anything changed.
func (c *Cleaner) Clean(nb *notebook.Notebook) bool {
	changed := c.cleanNotebook(nb)
	c.stats.Notebooks++
	if changed {
		c.stats.Changed++
	}
	return changed
}

// CleanNotebook clears nb in place using cfg and reports whether it changed.
func CleanNotebook(nb *notebook.Notebook, cfg *Config) bool {
	return New(cfg).cleanNotebook(nb)
}

// CleanCell clears a single cell using cfg and reports whether it changed.
func CleanCell(cell *notebook.Cell, cfg *Config) bool {
	return New(cfg).cleanCell(cell)
}

// CleanOutputs clears execution counts and metadata of outputs using cfg.
func CleanOutputs(outputs []*notebook.Output, cfg *Config) bool {
	return New(cfg).cleanOutputs(outputs)
}

func (c *Cleaner) cleanNotebook(nb *notebook.Notebook) bool {
	changed := false

	if c.config.ClearNBMetadata && len(nb.Metadata) > 0 {
		filtered := FilterMetadata(nb.Metadata, c.config.EffectiveNBMasks())
		if !equalMetadata(filtered, nb.Metadata) {
			nb.Metadata = filtered
			c.stats.NBMetadataCleared++
			changed = true
		}
	}

	if c.config.Active() {
		for _, cell := range nb.Cells {
			if c.cleanCell(cell) {
				changed = true
			}
		}
	}

	return changed
}

func (c *Cleaner) cleanCell(cell *notebook.Cell) bool {
	changed := false

	if c.config.ClearCellMetadata && len(cell.Metadata) > 0 {
		if c.filterMetadata(&cell.Metadata) {
			changed = true
		}
	}

	if !cell.IsCode() {
		return changed
	}

	if c.config.ClearExecutionCount && countSet(cell.ExecutionCount) {
		cell.ExecutionCount = nil
		c.stats.ExecutionCountsCleared++
		changed = true
	}

	if len(cell.Outputs) > 0 {
		switch {
		case c.config.ClearOutputs:
			c.stats.OutputsRemoved += len(cell.Outputs)
			cell.Outputs = []*notebook.Output{}
			changed = true
		case c.config.ClearCellMetadata || c.config.ClearExecutionCount:
			if c.cleanOutputs(cell.Outputs) {
				changed = true
			}
		}
	}

	return changed
}

func (c *Cleaner) cleanOutputs(outputs []*notebook.Output) bool {
	changed := false
	for _, output := range outputs {
		if c.config.ClearExecutionCount && countSet(output.ExecutionCount) {
			output.ExecutionCount = nil
			c.stats.ExecutionCountsCleared++
			changed = true
		}
		if c.config.ClearCellMetadata && len(output.Metadata) > 0 {
			if c.filterMetadata(&output.Metadata) {
				changed = true
			}
		}
	}
	return changed
}

// filterMetadata replaces *meta with its preserved part and reports a change.
func (c *Cleaner) filterMetadata(meta *notebook.Metadata) bool {
	filtered := FilterMetadata(*meta, c.config.CellMetadataPreserveMasks)
	if equalMetadata(filtered, *meta) {
		return false
	}
	*meta = filtered
	c.stats.MetadataCleared++
	return true
}

// countSet reports whether an execution count is present and non-zero.
func countSet(n *int) bool {
	return n != nil && *n != 0
}
