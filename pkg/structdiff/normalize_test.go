package structdiff_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msu-projects/sitio-portal/pkg/structdiff"
)

func TestNormalize_SingleYearResolved(t *testing.T) {
	t.Parallel()

	original := mustParse(t, `{"yearlyData":{"2023":{"population":90},"2024":{"population":100}}}`)
	proposed := mustParse(t, `{"yearlyData":{"2024":{"population":150}}}`)

	norm, err := structdiff.Normalize(original, proposed)
	require.NoError(t, err)
	assert.Equal(t, "2024", norm.Year)

	diffs := structdiff.Compare(norm.Original, norm.Proposed)
	require.Len(t, diffs, 1)
	assert.Equal(t, "population", diffs[0].Field)
	assert.Equal(t, structdiff.DiffModified, diffs[0].Type)
}

func TestNormalize_YearAnnotatedOnDiffs(t *testing.T) {
	t.Parallel()

	diffs, err := structdiff.FieldDifferences(
		json.RawMessage(`{"yearlyData":{"2024":{"population":100}}}`),
		json.RawMessage(`{"yearlyData":{"2024":{"population":150}}}`),
	)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "2024", diffs[0].Year)
}

func TestNormalize_LegacyFlatOriginal(t *testing.T) {
	t.Parallel()

	original := mustParse(t, `{"population":100,"households":20}`)
	proposed := mustParse(t, `{"yearlyData":{"2024":{"population":150,"households":20}}}`)

	norm, err := structdiff.Normalize(original, proposed)
	require.NoError(t, err)
	assert.Equal(t, "2024", norm.Year)

	diffs := structdiff.Compare(norm.Original, norm.Proposed)
	require.Len(t, diffs, 1)
	assert.Equal(t, "population", diffs[0].Field)
}

func TestNormalize_MissingYearOnOriginalSide(t *testing.T) {
	t.Parallel()

	original := mustParse(t, `{"yearlyData":{"2023":{"population":90}}}`)
	proposed := mustParse(t, `{"yearlyData":{"2024":{"population":150}}}`)

	norm, err := structdiff.Normalize(original, proposed)
	require.NoError(t, err)
	assert.Equal(t, "2024", norm.Year)

	diffs := structdiff.Compare(norm.Original, norm.Proposed)
	require.Len(t, diffs, 1)
	assert.Equal(t, structdiff.DiffAdded, diffs[0].Type)
}

func TestNormalize_AmbiguousYearFails(t *testing.T) {
	t.Parallel()

	original := mustParse(t, `{"yearlyData":{"2024":{"population":100}}}`)
	proposed := mustParse(t, `{"yearlyData":{"2023":{"population":90},"2024":{"population":150}}}`)

	_, err := structdiff.Normalize(original, proposed)
	require.ErrorIs(t, err, structdiff.ErrAmbiguousYear)
}

func TestNormalize_NoYearKeyFails(t *testing.T) {
	t.Parallel()

	original := mustParse(t, `{"yearlyData":{"2024":{"population":100}}}`)
	proposed := mustParse(t, `{"yearlyData":{"latest":{"population":150}}}`)

	_, err := structdiff.Normalize(original, proposed)
	require.ErrorIs(t, err, structdiff.ErrNoYearKey)
}

func TestNormalize_NotYearKeyed(t *testing.T) {
	t.Parallel()

	original := mustParse(t, `{"population":100}`)
	proposed := mustParse(t, `{"population":150}`)

	norm, err := structdiff.Normalize(original, proposed)
	require.NoError(t, err)
	assert.Empty(t, norm.Year)
	assert.True(t, structdiff.Equal(original, norm.Original))
	assert.True(t, structdiff.Equal(proposed, norm.Proposed))
}
