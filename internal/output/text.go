package output

import (
	"bufio"
	"fmt"
	"io"
)

// TextWriter writes reports as plain lines for terminals.
type TextWriter struct {
	w *bufio.Writer
}

// NewTextWriter creates a text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// Write renders report immediately. Reports implement TextReport or
// fmt.Stringer, or are strings.
func (w *TextWriter) Write(report any) error {
	var lines []string
	switch r := report.(type) {
	case TextReport:
		lines = r.TextLines()
	case string:
		lines = []string{r}
	case fmt.Stringer:
		lines = []string{r.String()}
	default:
		return fmt.Errorf("no text form for %T", report)
	}

	for _, line := range lines {
		if _, err := w.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return w.w.Flush()
}

// Flush flushes the buffer.
func (w *TextWriter) Flush() error {
	return w.w.Flush()
}
