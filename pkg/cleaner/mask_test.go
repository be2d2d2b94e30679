package cleaner

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayasyrev/nbmetaclean/pkg/notebook"
)

func sampleMeta() map[string]any {
	return map[string]any{
		"language_info": map[string]any{
			"name":    "python",
			"version": "3.11.4",
			"codemirror_mode": map[string]any{
				"name":    "ipython",
				"version": json.Number("3"),
			},
		},
		"authors":    []any{map[string]any{"name": "Jane"}},
		"kernelspec": map[string]any{"name": "python3", "display_name": "Python 3"},
		"empty":      map[string]any{},
		"missing":    nil,
	}
}

func TestParseMask(t *testing.T) {
	tests := []struct {
		in   string
		want Mask
	}{
		{"authors", Mask{"authors"}},
		{"language_info.name", Mask{"language_info", "name"}},
		{"a.b.c", Mask{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseMask(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseMask() mismatch (-want +got):\n%s", diff)
			}
			if got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}

	if ParseMasks(nil) != nil {
		t.Error("expected nil masks for no paths")
	}
}

func TestFilterByMask(t *testing.T) {
	tests := []struct {
		name  string
		value any
		mask  Mask
		want  any
	}{
		{
			name:  "nil mask keeps nothing",
			value: sampleMeta(),
			mask:  nil,
			want:  map[string]any{},
		},
		{
			name:  "empty mask keeps everything",
			value: map[string]any{"a": "b"},
			mask:  Mask{},
			want:  map[string]any{"a": "b"},
		},
		{
			name:  "scalar string",
			value: "python",
			mask:  Mask{"name"},
			want:  "python",
		},
		{
			name:  "scalar number",
			value: json.Number("3"),
			mask:  nil,
			want:  json.Number("3"),
		},
		{
			name:  "top level key",
			value: sampleMeta(),
			mask:  Mask{"kernelspec"},
			want:  map[string]any{"kernelspec": map[string]any{"name": "python3", "display_name": "Python 3"}},
		},
		{
			name:  "multi level",
			value: sampleMeta(),
			mask:  Mask{"language_info", "name"},
			want:  map[string]any{"language_info": map[string]any{"name": "python"}},
		},
		{
			name:  "three levels",
			value: sampleMeta(),
			mask:  Mask{"language_info", "codemirror_mode", "version"},
			want: map[string]any{"language_info": map[string]any{
				"codemirror_mode": map[string]any{"version": json.Number("3")},
			}},
		},
		{
			name:  "missing key",
			value: sampleMeta(),
			mask:  Mask{"celltoolbar"},
			want:  map[string]any{},
		},
		{
			name:  "null value",
			value: sampleMeta(),
			mask:  Mask{"missing"},
			want:  map[string]any{},
		},
		{
			name:  "missing intermediate keeps present value",
			value: sampleMeta(),
			mask:  Mask{"kernelspec", "language"},
			want:  map[string]any{"kernelspec": map[string]any{"name": "python3", "display_name": "Python 3"}},
		},
		{
			name:  "list leaf with longer mask",
			value: sampleMeta(),
			mask:  Mask{"authors", "name"},
			want:  map[string]any{"authors": []any{map[string]any{"name": "Jane"}}},
		},
		{
			name:  "empty mapping is kept",
			value: sampleMeta(),
			mask:  Mask{"empty", "x"},
			want:  map[string]any{"empty": map[string]any{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByMask(tt.value, tt.mask)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterByMask() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterMetadata(t *testing.T) {
	meta := notebook.Metadata(sampleMeta())

	t.Run("defaults", func(t *testing.T) {
		got := FilterMetadata(meta, DefaultNBMetadataPreserveMasks())
		want := notebook.Metadata{
			"language_info": map[string]any{"name": "python"},
			"authors":       []any{map[string]any{"name": "Jane"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("FilterMetadata() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("nil masks", func(t *testing.T) {
		got := FilterMetadata(meta, nil)
		if len(got) != 0 {
			t.Errorf("expected empty metadata, got %v", got)
		}
	})

	t.Run("union of masks", func(t *testing.T) {
		a := Mask{"kernelspec", "name"}
		b := Mask{"authors"}
		got := FilterMetadata(meta, []Mask{a, b})

		want := notebook.Metadata{}
		for _, mask := range []Mask{a, b} {
			for k, v := range FilterByMask(map[string]any(meta), mask).(map[string]any) {
				want[k] = v
			}
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("FilterMetadata() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("last mask wins on collision", func(t *testing.T) {
		got := FilterMetadata(meta, []Mask{{"language_info"}, {"language_info", "name"}})
		want := notebook.Metadata{"language_info": map[string]any{"name": "python"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("FilterMetadata() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		masks := []Mask{{"language_info", "name"}, {"kernelspec"}, {"authors", "name"}}
		once := FilterMetadata(meta, masks)
		twice := FilterMetadata(once, masks)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("second filter changed result (-once +twice):\n%s", diff)
		}
	})
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"true", true, true},
		{"empty string", "", false},
		{"string", "x", true},
		{"zero number", json.Number("0"), false},
		{"zero float number", json.Number("0.0"), false},
		{"number", json.Number("0.5"), true},
		{"zero int", 0, false},
		{"int", 2, true},
		{"empty list", []any{}, false},
		{"list", []any{1}, true},
		{"empty map", map[string]any{}, false},
		{"empty metadata", notebook.Metadata{}, false},
		{"map", map[string]any{"a": 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truthy(tt.value); got != tt.want {
				t.Errorf("truthy(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
