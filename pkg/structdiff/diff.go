package structdiff

import (
	"encoding/json"
	"sort"
	"strings"
)

type DiffType string

const (
	DiffAdded    DiffType = "added"
	DiffRemoved  DiffType = "removed"
	DiffModified DiffType = "modified"
)

// FieldDiff is a single field-level difference. Original/Proposed are nil for
// the absent side of added/removed entries.
type FieldDiff struct {
	Field    string   `json:"field"`
	Original *Value   `json:"original"`
	Proposed *Value   `json:"proposed"`
	Type     DiffType `json:"type"`
	Year     string   `json:"year,omitempty"`
}

// excludedFields is record metadata that churns independently of user edits
// and must never surface in diffs or conflict checks: identifiers, storage
// timestamps, the derived year index, and internal coding fields.
var excludedFields = map[string]struct{}{
	"id":            {},
	"createdAt":     {},
	"updatedAt":     {},
	"yearsWithData": {},
	"psgcCode":      {},
	"encodedBy":     {},
}

// IsExcludedField reports whether a top-level field is metadata ignored by
// diffing and conflict detection.
func IsExcludedField(field string) bool {
	top := field
	if i := strings.IndexByte(field, '.'); i >= 0 {
		top = field[:i]
	}
	_, ok := excludedFields[top]
	return ok
}

// Compare recursively computes field-level differences between two values.
// Plain objects diff by key union, recursing only on object/object pairs;
// everything else (primitives, arrays, mixed kinds) compares wholesale by
// structural equality and reports a single entry at its path.
func Compare(a, b Value) []FieldDiff {
	return compare(&a, &b, "")
}

func compare(a, b *Value, path string) []FieldDiff {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return []FieldDiff{{Field: leafField(path), Proposed: b, Type: DiffAdded}}
	case b == nil:
		return []FieldDiff{{Field: leafField(path), Original: a, Type: DiffRemoved}}
	}

	if a.Kind() == KindObject && b.Kind() == KindObject {
		var diffs []FieldDiff
		for _, key := range unionKeys(*a, *b) {
			av, aok := a.Field(key)
			bv, bok := b.Field(key)
			childPath := joinPath(path, key)
			switch {
			case !aok:
				diffs = append(diffs, FieldDiff{Field: childPath, Proposed: ptr(bv), Type: DiffAdded})
			case !bok:
				diffs = append(diffs, FieldDiff{Field: childPath, Original: ptr(av), Type: DiffRemoved})
			case av.Kind() == KindObject && bv.Kind() == KindObject:
				diffs = append(diffs, compare(ptr(av), ptr(bv), childPath)...)
			case !Equal(av, bv):
				diffs = append(diffs, FieldDiff{Field: childPath, Original: ptr(av), Proposed: ptr(bv), Type: DiffModified})
			}
		}
		return diffs
	}

	if !Equal(*a, *b) {
		return []FieldDiff{{Field: leafField(path), Original: a, Proposed: b, Type: DiffModified}}
	}
	return nil
}

// FieldDifferences is the full pipeline: parse, normalize year-keyed records,
// diff, drop metadata fields, annotate the resolved year.
func FieldDifferences(original, proposed json.RawMessage) ([]FieldDiff, error) {
	origValue, err := Parse(original)
	if err != nil {
		return nil, err
	}
	propValue, err := Parse(proposed)
	if err != nil {
		return nil, err
	}
	return FieldDifferencesOf(origValue, propValue)
}

// FieldDifferencesOf is FieldDifferences over already-parsed values.
func FieldDifferencesOf(original, proposed Value) ([]FieldDiff, error) {
	norm, err := Normalize(original, proposed)
	if err != nil {
		return nil, err
	}

	diffs := Compare(norm.Original, norm.Proposed)
	out := make([]FieldDiff, 0, len(diffs))
	for _, d := range diffs {
		if IsExcludedField(d.Field) {
			continue
		}
		d.Year = norm.Year
		out = append(out, d)
	}
	return out, nil
}

func unionKeys(a, b Value) []string {
	keys := a.Keys()
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	for _, k := range b.Keys() {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	// b-only keys land after a's sorted keys; re-sorting keeps output stable.
	sort.Strings(keys)
	return keys
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// leafField names a non-object comparison site; the literal "value" stands in
// for an empty path when two primitives are compared at top level.
func leafField(path string) string {
	if path == "" {
		return "value"
	}
	return path
}

func ptr(v Value) *Value { return &v }
