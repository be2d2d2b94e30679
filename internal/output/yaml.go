package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter buffers reports and writes them as one YAML document on Flush.
type YAMLWriter struct {
	w       *bufio.Writer
	reports []any
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{w: bufio.NewWriter(w)}
}

// Write buffers a single report.
func (w *YAMLWriter) Write(report any) error {
	w.reports = append(w.reports, report)
	return nil
}

// Flush writes the buffered reports.
func (w *YAMLWriter) Flush() error {
	if len(w.reports) == 0 {
		return nil
	}
	var data any = w.reports
	if len(w.reports) == 1 {
		data = w.reports[0]
	}
	w.reports = nil

	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}
