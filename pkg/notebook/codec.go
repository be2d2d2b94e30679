package notebook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type rawValue = json.RawMessage

// encode marshals v without HTML escaping, matching what nbformat writes.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return unescapeSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeSeparators writes U+2028 and U+2029 as raw characters, which
// encoding/json always escapes and nbformat does not. Other escapes are
// copied as they are.
func unescapeSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) {
			switch string(data[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// decode unmarshals data keeping numbers as json.Number.
func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// take decodes fields[key] into v and removes it from fields.
// A missing key leaves v untouched.
func take(fields map[string]rawValue, key string, v any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	delete(fields, key)
	if err := decode(raw, v); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func withExtra(extra map[string]rawValue, size int) map[string]any {
	fields := make(map[string]any, len(extra)+size)
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

func orEmpty(m Metadata) Metadata {
	if m == nil {
		return Metadata{}
	}
	return m
}

// UnmarshalJSON implements json.Unmarshaler.
func (nb *Notebook) UnmarshalJSON(data []byte) error {
	var fields map[string]rawValue
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*nb = Notebook{}
	if _, ok := fields["cells"]; !ok {
		return errors.New("missing cells")
	}
	if err := take(fields, "nbformat", &nb.NBFormat); err != nil {
		return err
	}
	if err := take(fields, "nbformat_minor", &nb.NBFormatMinor); err != nil {
		return err
	}
	if err := take(fields, "metadata", &nb.Metadata); err != nil {
		return err
	}
	if err := take(fields, "cells", &nb.Cells); err != nil {
		return err
	}
	nb.extra = fields
	return nil
}

// MarshalJSON implements json.Marshaler.
func (nb Notebook) MarshalJSON() ([]byte, error) {
	fields := withExtra(nb.extra, 4)
	fields["nbformat"] = nb.NBFormat
	fields["nbformat_minor"] = nb.NBFormatMinor
	fields["metadata"] = orEmpty(nb.Metadata)
	cells := nb.Cells
	if cells == nil {
		cells = []*Cell{}
	}
	fields["cells"] = cells
	return encode(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var fields map[string]rawValue
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*c = Cell{}
	if _, ok := fields["cell_type"]; !ok {
		return errors.New("cell: missing cell_type")
	}
	for key, dst := range map[string]any{
		"cell_type": &c.CellType,
		"id":        &c.ID,
		"metadata":  &c.Metadata,
		"source":    &c.Source,
	} {
		if err := take(fields, key, dst); err != nil {
			return fmt.Errorf("cell: %w", err)
		}
	}
	if c.CellType == CellCode {
		if err := take(fields, "execution_count", &c.ExecutionCount); err != nil {
			return fmt.Errorf("cell: %w", err)
		}
		if err := take(fields, "outputs", &c.Outputs); err != nil {
			return fmt.Errorf("cell: %w", err)
		}
	}
	c.extra = fields
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Cell) MarshalJSON() ([]byte, error) {
	fields := withExtra(c.extra, 6)
	fields["cell_type"] = c.CellType
	fields["metadata"] = orEmpty(c.Metadata)
	fields["source"] = c.Source
	if c.ID != "" {
		fields["id"] = c.ID
	}
	if c.IsCode() {
		fields["execution_count"] = c.ExecutionCount
		outputs := c.Outputs
		if outputs == nil {
			outputs = []*Output{}
		}
		fields["outputs"] = outputs
	}
	return encode(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Output) UnmarshalJSON(data []byte) error {
	var fields map[string]rawValue
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*o = Output{present: make(map[string]bool)}
	if _, ok := fields["output_type"]; !ok {
		return errors.New("output: missing output_type")
	}
	for key, dst := range map[string]any{
		"output_type":     &o.OutputType,
		"execution_count": &o.ExecutionCount,
		"metadata":        &o.Metadata,
		"name":            &o.Name,
		"text":            &o.Text,
		"ename":           &o.EName,
		"evalue":          &o.EValue,
		"traceback":       &o.Traceback,
	} {
		if _, ok := fields[key]; ok {
			o.present[key] = true
		}
		if err := take(fields, key, dst); err != nil {
			return fmt.Errorf("output: %w", err)
		}
	}
	o.extra = fields
	return nil
}

// MarshalJSON implements json.Marshaler. Keys are written when the output
// type requires them, when they were present on read, or when they are set.
func (o Output) MarshalJSON() ([]byte, error) {
	fields := withExtra(o.extra, 8)
	fields["output_type"] = o.OutputType

	put := func(key string, v any, want bool) {
		if want || o.present[key] {
			fields[key] = v
		}
	}
	result := o.OutputType == OutputExecuteResult
	rich := result || o.OutputType == OutputDisplayData
	stream := o.OutputType == OutputStream
	failed := o.OutputType == OutputError

	put("execution_count", o.ExecutionCount, result || o.ExecutionCount != nil)
	put("metadata", orEmpty(o.Metadata), rich || len(o.Metadata) > 0)
	put("name", o.Name, stream || o.Name != "")
	put("text", o.Text, stream || len(o.Text.parts) > 0)
	put("ename", o.EName, failed || o.EName != "")
	put("evalue", o.EValue, failed || o.EValue != "")
	traceback := o.Traceback
	if traceback == nil {
		traceback = []string{}
	}
	put("traceback", traceback, failed || o.Traceback != nil)
	return encode(fields)
}

// MarshalJSON implements json.Marshaler.
func (t Text) MarshalJSON() ([]byte, error) {
	if t.list {
		parts := t.parts
		if parts == nil {
			parts = []string{}
		}
		return encode(parts)
	}
	return encode(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*t = Text{}
	case len(trimmed) > 0 && trimmed[0] == '[':
		var parts []string
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return err
		}
		*t = NewLines(parts...)
	default:
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = NewText(s)
	}
	return nil
}
