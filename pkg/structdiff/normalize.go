package structdiff

import (
	"regexp"

	"github.com/msu-projects/sitio-portal/pkg/serrors"
)

// YearlyDataField is the record member holding per-year survey sub-records,
// keyed by 4-digit year strings ("2024").
const YearlyDataField = "yearlyData"

var yearKeyPattern = regexp.MustCompile(`^\d{4}$`)

var (
	// ErrNoYearKey is returned when a proposal carries a yearly-data map with
	// no 4-digit year key to resolve.
	ErrNoYearKey = serrors.NewError("DIFF_NO_YEAR_KEY", "proposed yearly data contains no year key", "Review.Diff.NoYearKey")
	// ErrAmbiguousYear is returned when a proposal's yearly-data map names
	// more than one year; a submission edits exactly one year at a time.
	ErrAmbiguousYear = serrors.NewError("DIFF_AMBIGUOUS_YEAR", "proposed yearly data contains more than one year key", "Review.Diff.AmbiguousYear")
)

// Normalized is the outcome of aligning two records before diffing.
type Normalized struct {
	Original Value
	Proposed Value
	// Year is the resolved survey year, or "" when the records are not
	// year-keyed.
	Year string
}

// Normalize aligns year-keyed records so the diff covers the one year a
// submitter actually edited instead of reporting the whole year map as
// changed. Three cases:
//
//  1. Both sides carry a yearly-data map: resolve the single year present in
//     the proposal and diff that year's sub-record on both sides. A missing
//     year on the original side diffs against an empty record, so every
//     proposed field surfaces as added.
//  2. Only the proposal carries a yearly-data map (legacy flat original):
//     diff the original directly against the proposal's year sub-record.
//  3. Neither side is year-keyed: diff the records as given.
//
// Year resolution fails loudly on zero or multiple candidate years rather
// than guessing.
func Normalize(original, proposed Value) (Normalized, error) {
	proposedYears, proposedHasMap := yearMap(proposed)
	if !proposedHasMap {
		return Normalized{Original: original, Proposed: proposed}, nil
	}

	year, err := resolveYear(proposedYears)
	if err != nil {
		return Normalized{}, err
	}
	normProposed, ok := proposedYears.Field(year)
	if !ok {
		return Normalized{}, ErrNoYearKey
	}

	if originalYears, ok := yearMap(original); ok {
		normOriginal, ok := originalYears.Field(year)
		if !ok {
			normOriginal = Object(nil)
		}
		return Normalized{Original: normOriginal, Proposed: normProposed, Year: year}, nil
	}

	return Normalized{Original: original, Proposed: normProposed, Year: year}, nil
}

// yearMap returns the record's yearly-data object, if present.
func yearMap(v Value) (Value, bool) {
	if v.Kind() != KindObject {
		return Value{}, false
	}
	ym, ok := v.Field(YearlyDataField)
	if !ok || ym.Kind() != KindObject {
		return Value{}, false
	}
	return ym, true
}

func resolveYear(years Value) (string, error) {
	var candidates []string
	for _, key := range years.Keys() {
		if yearKeyPattern.MatchString(key) {
			candidates = append(candidates, key)
		}
	}
	switch len(candidates) {
	case 0:
		return "", ErrNoYearKey
	case 1:
		return candidates[0], nil
	default:
		return "", ErrAmbiguousYear
	}
}
