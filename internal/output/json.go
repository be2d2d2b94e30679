package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter buffers reports and writes them on Flush, as a single object
// for one report and as an array otherwise.
type JSONWriter struct {
	w       *bufio.Writer
	indent  string
	reports []any
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		indent: indent,
	}
}

// Write buffers a single report.
func (w *JSONWriter) Write(report any) error {
	w.reports = append(w.reports, report)
	return nil
}

// Flush writes the buffered reports. Nothing is written when no report was
// buffered.
func (w *JSONWriter) Flush() error {
	if len(w.reports) == 0 {
		return nil
	}
	var data any = w.reports
	if len(w.reports) == 1 {
		data = w.reports[0]
	}
	w.reports = nil

	enc := json.NewEncoder(w.w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", w.indent)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return w.w.Flush()
}

// JSONLWriter writes newline-delimited JSON (JSONL), one report per line.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

// Write writes a single report as a JSON line.
func (w *JSONLWriter) Write(report any) error {
	enc := json.NewEncoder(w.w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return w.w.Flush()
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}
