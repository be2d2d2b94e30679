package cleaner

import (
	"fmt"
	"strings"
)

// Stats captures what a Cleaner changed.
type Stats struct {
	Notebooks int `json:"notebooks"`
	Changed   int `json:"changed"`

	NBMetadataCleared      int `json:"nb_metadata_cleared"`
	MetadataCleared        int `json:"metadata_cleared"` // cells and outputs
	ExecutionCountsCleared int `json:"execution_counts_cleared"`
	OutputsRemoved         int `json:"outputs_removed"`
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Notebooks: %d checked, %d changed\n", s.Notebooks, s.Changed))
	sb.WriteString(fmt.Sprintf("Metadata: %d notebooks, %d cells or outputs\n", s.NBMetadataCleared, s.MetadataCleared))
	sb.WriteString(fmt.Sprintf("Execution counts cleared: %d\n", s.ExecutionCountsCleared))
	sb.WriteString(fmt.Sprintf("Outputs removed: %d\n", s.OutputsRemoved))
	return sb.String()
}
