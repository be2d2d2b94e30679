// Package notebook provides a typed model of Jupyter notebook documents.
//
// The model covers the fields nbmetaclean reads or rewrites: notebook and cell
// metadata, cell sources, execution counts and outputs. Every other key found
// in a document (cell ids, attachments, output data bundles, ...) is carried
// through unchanged, so a notebook that is read and written back without
// modification is byte-identical to a file written by nbformat with sorted keys.
package notebook

import "strings"

// CellType identifies the kind of a notebook cell.
type CellType string

const (
	CellCode     CellType = "code"
	CellMarkdown CellType = "markdown"
	CellRaw      CellType = "raw"
)

// OutputType identifies the kind of a code cell output.
type OutputType string

const (
	OutputExecuteResult OutputType = "execute_result"
	OutputDisplayData   OutputType = "display_data"
	OutputStream        OutputType = "stream"
	OutputError         OutputType = "error"
)

// Stream names used by stream outputs.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Metadata is a notebook, cell or output metadata mapping.
// Nested mappings are map[string]any; numbers are json.Number.
type Metadata map[string]any

// Notebook is a Jupyter notebook document.
type Notebook struct {
	NBFormat      int
	NBFormatMinor int
	Metadata      Metadata
	Cells         []*Cell `validate:"dive,required"`

	extra map[string]rawValue
}

// Cell is a single notebook cell. ExecutionCount and Outputs are only
// meaningful for code cells.
type Cell struct {
	ID             string
	CellType       CellType `validate:"oneof=code markdown raw"`
	Metadata       Metadata
	Source         Text
	ExecutionCount *int
	Outputs        []*Output `validate:"dive,required"`

	extra map[string]rawValue
}

// IsCode reports whether c is a code cell.
func (c *Cell) IsCode() bool {
	return c.CellType == CellCode
}

// HasSource reports whether the cell carries any source text.
func (c *Cell) HasSource() bool {
	return !c.Source.IsEmpty()
}

// Output is a code cell output.
type Output struct {
	OutputType     OutputType `validate:"oneof=execute_result display_data stream error"`
	ExecutionCount *int
	Metadata       Metadata

	// Stream outputs.
	Name string `validate:"omitempty,oneof=stdout stderr"`
	Text Text

	// Error outputs.
	EName     string
	EValue    string
	Traceback []string

	present map[string]bool
	extra   map[string]rawValue
}

// Text is a notebook multiline string. nbformat stores it either as one JSON
// string or as a list of lines; the form read is the form written.
type Text struct {
	parts []string
	list  bool
}

// NewText returns a Text stored as a single string.
func NewText(s string) Text {
	return Text{parts: []string{s}}
}

// NewLines returns a Text stored as a list of lines.
func NewLines(lines ...string) Text {
	return Text{parts: lines, list: true}
}

// String returns the joined text.
func (t Text) String() string {
	return strings.Join(t.parts, "")
}

// Lines returns the stored parts.
func (t Text) Lines() []string {
	return t.parts
}

// IsEmpty reports whether the joined text is empty.
func (t Text) IsEmpty() bool {
	for _, p := range t.parts {
		if p != "" {
			return false
		}
	}
	return true
}

// IntPtr returns a pointer to n. Handy for building execution counts.
func IntPtr(n int) *int {
	return &n
}
