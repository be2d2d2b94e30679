package cleaner

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/ayasyrev/nbmetaclean/pkg/notebook"
)

// Mask is a path of keys into a metadata tree, for example
// {"language_info", "name"}. A nil Mask means no mask at all; an empty,
// non-nil Mask selects everything at the point where it is applied.
type Mask []string

// ParseMask splits a dotted path such as "language_info.name".
func ParseMask(s string) Mask {
	return Mask(strings.Split(s, "."))
}

// ParseMasks parses every dotted path in paths. It returns nil for no paths.
func ParseMasks(paths []string) []Mask {
	if len(paths) == 0 {
		return nil
	}
	masks := make([]Mask, len(paths))
	for i, p := range paths {
		masks[i] = ParseMask(p)
	}
	return masks
}

// String returns the dotted form of m.
func (m Mask) String() string {
	return strings.Join(m, ".")
}

// DefaultNBMetadataPreserveMasks returns the notebook metadata paths kept by
// a metadata clear unless masks are replaced. Each call returns a new slice.
func DefaultNBMetadataPreserveMasks() []Mask {
	return []Mask{
		{"language_info", "name"},
		{"authors"},
	}
}

// FilterByMask extracts the part of value selected by mask.
//
// Non-mapping values and empty masks return value itself. A nil mask returns
// an empty mapping. Otherwise the result is a single-key mapping for mask[0]
// holding the value filtered by the rest of the mask, or nothing when the key
// is missing or null. When filtering a present value yields an empty result
// the value is kept whole.
func FilterByMask(value any, mask Mask) any {
	meta, ok := asMap(value)
	if !ok || (mask != nil && len(mask) == 0) {
		return value
	}
	if mask == nil {
		return map[string]any{}
	}

	key := mask[0]
	child, ok := meta[key]
	if !ok || child == nil {
		return map[string]any{}
	}
	filtered := FilterByMask(child, mask[1:])
	if !truthy(filtered) {
		filtered = child
	}
	return map[string]any{key: filtered}
}

// FilterMetadata applies every mask to meta and merges the results, later
// masks winning on top-level key collisions. Nil masks yield empty metadata.
func FilterMetadata(meta notebook.Metadata, masks []Mask) notebook.Metadata {
	result := notebook.Metadata{}
	for _, mask := range masks {
		filtered, ok := asMap(FilterByMask(map[string]any(meta), mask))
		if !ok {
			continue
		}
		for k, v := range filtered {
			result[k] = v
		}
	}
	return result
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case notebook.Metadata:
		return m, true
	default:
		return nil, false
	}
}

// truthy follows JSON truthiness: null, false, zero, "" and empty
// containers are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	}
	if m, ok := asMap(v); ok {
		return len(m) > 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map:
		return rv.Len() > 0
	}
	return true
}

// equalMetadata compares metadata trees, treating Metadata and
// map[string]any as the same mapping type.
func equalMetadata(a, b any) bool {
	am, aok := asMap(a)
	bm, bok := asMap(b)
	if aok || bok {
		if !aok || !bok || len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !equalMetadata(av, bv) {
				return false
			}
		}
		return true
	}
	as, aok := a.([]any)
	bs, bok := b.([]any)
	if aok && bok {
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !equalMetadata(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}
