package services

import (
	"github.com/msu-projects/sitio-portal/modules/review/domain/pendingchange"
	"github.com/msu-projects/sitio-portal/pkg/structdiff"
)

// computeConflicts is the three-way comparison at the heart of conflict
// detection: baseline (the snapshot captured at submission time), proposed
// (the submitter's payload), and live (the resource as it stands at review
// time). A field conflicts when someone else changed it after the baseline
// was captured — live differs from baseline AND live differs from what the
// submitter proposed. Fields the submitter's proposal already agrees with
// are not conflicts, and metadata churn is ignored via the diff engine's
// exclusion set.
func computeConflicts(baseline, proposed, live structdiff.Value) ([]pendingchange.ConflictDetail, error) {
	norm, err := structdiff.Normalize(baseline, proposed)
	if err != nil {
		return nil, err
	}

	// Year-keyed submissions compare against the same year's slice of the
	// live record; a year the live record does not carry yet behaves as an
	// empty record.
	liveAligned := live
	if norm.Year != "" {
		if yearly, ok := live.Field(structdiff.YearlyDataField); ok && yearly.Kind() == structdiff.KindObject {
			if sub, ok := yearly.Field(norm.Year); ok {
				liveAligned = sub
			} else {
				liveAligned = structdiff.Object(nil)
			}
		}
	}

	drifted := structdiff.Compare(norm.Original, liveAligned)
	var details []pendingchange.ConflictDetail
	for _, d := range drifted {
		if structdiff.IsExcludedField(d.Field) {
			continue
		}

		liveVal, liveOK := structdiff.Lookup(liveAligned, d.Field)
		propVal, propOK := structdiff.Lookup(norm.Proposed, d.Field)
		if liveOK == propOK && (!liveOK || structdiff.Equal(liveVal, propVal)) {
			// The live record already matches the proposal; nothing to flag.
			continue
		}

		detail := pendingchange.ConflictDetail{Field: d.Field}
		if liveOK {
			detail.CurrentValue = liveVal.JSON()
		} else {
			detail.CurrentValue = []byte("null")
		}
		if propOK {
			detail.ProposedValue = propVal.JSON()
		} else {
			detail.ProposedValue = []byte("null")
		}
		details = append(details, detail)
	}
	return details, nil
}
