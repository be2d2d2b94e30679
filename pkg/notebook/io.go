package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Suffix is the file extension of notebook files.
const Suffix = ".ipynb"

// Unmarshal parses and validates a notebook document.
func Unmarshal(data []byte) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotebook, err)
	}
	if err := Validate(&nb); err != nil {
		return nil, err
	}
	return &nb, nil
}

// Decode reads a whole notebook document from r.
func Decode(r io.Reader) (*Notebook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// Read loads the notebook stored at path.
func Read(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading notebook %s: %w", path, err)
	}
	nb, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nb, nil
}

// Marshal renders nb the way nbformat does: one space indentation,
// sorted keys, non-ASCII characters unescaped and a trailing newline.
func Marshal(nb *Notebook) ([]byte, error) {
	data, err := encode(nb)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", " "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WriteOptions controls Write.
type WriteOptions struct {
	// ModTime, when set, is restored on the written file so that
	// cleaning does not look like an edit to build tools.
	ModTime time.Time
}

// Write stores nb at path, forcing the .ipynb suffix. It returns the name of
// the file written.
func Write(nb *Notebook, path string, opts WriteOptions) (string, error) {
	filename := path
	if ext := filepath.Ext(filename); ext != Suffix {
		filename = strings.TrimSuffix(filename, ext) + Suffix
	}
	data, err := Marshal(nb)
	if err != nil {
		return "", fmt.Errorf("encoding notebook %s: %w", filename, err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", fmt.Errorf("writing notebook %s: %w", filename, err)
	}
	if !opts.ModTime.IsZero() {
		// A zero atime leaves the access time alone.
		if err := os.Chtimes(filename, time.Time{}, opts.ModTime); err != nil {
			return "", fmt.Errorf("restoring timestamp %s: %w", filename, err)
		}
	}
	return filename, nil
}
