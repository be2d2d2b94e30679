// compare_presets.go - Compare what each cleaner preset would change
//
// Usage: go run scripts/compare_presets.go <notebook.ipynb>
//
// Example:
//   go run scripts/compare_presets.go pkg/notebook/testdata/test_nb_2.ipynb

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ayasyrev/nbmetaclean/pkg/cleaner"
	"github.com/ayasyrev/nbmetaclean/pkg/notebook"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/compare_presets.go <notebook.ipynb>")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  go run scripts/compare_presets.go pkg/notebook/testdata/test_nb_2.ipynb")
		os.Exit(1)
	}

	path := os.Args[1]
	original, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Printf("Notebook: %s\n", path)
	fmt.Printf("Original size: %s\n\n", humanize.Bytes(uint64(len(original))))

	presets := []struct {
		name string
		cfg  *cleaner.Config
	}{
		{"default", cleaner.DefaultConfig()},
		{"metadata-only", cleaner.PresetMetadataOnly()},
		{"outputs", cleaner.PresetOutputs()},
	}

	fmt.Printf("%-15s %8s %10s %8s\n", "PRESET", "CHANGED", "SIZE", "SAVED")
	fmt.Println(strings.Repeat("-", 45))

	for _, p := range presets {
		nb, err := notebook.Unmarshal(original)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", path, err)
			os.Exit(1)
		}
		c := cleaner.New(p.cfg)
		changed := c.Clean(nb)

		data, err := notebook.Marshal(nb)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding with %s: %v\n", p.name, err)
			continue
		}
		saved := 100 * (1 - float64(len(data))/float64(len(original)))
		fmt.Printf("%-15s %8t %10s %7.1f%%\n", p.name, changed, humanize.Bytes(uint64(len(data))), saved)
	}
}
