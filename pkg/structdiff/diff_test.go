package structdiff_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msu-projects/sitio-portal/pkg/structdiff"
)

func mustParse(t *testing.T, raw string) structdiff.Value {
	t.Helper()
	v, err := structdiff.Parse(json.RawMessage(raw))
	require.NoError(t, err)
	return v
}

func TestFieldDifferences_IdenticalRecords(t *testing.T) {
	t.Parallel()

	records := []string{
		`{}`,
		`{"name":"Sitio Malipayon","population":120}`,
		`{"nested":{"a":[1,2,3],"b":null},"flag":true}`,
		`{"yearlyData":{"2024":{"population":100}}}`,
	}
	for _, raw := range records {
		diffs, err := structdiff.FieldDifferences(json.RawMessage(raw), json.RawMessage(raw))
		require.NoError(t, err)
		assert.Empty(t, diffs, "identical records must produce no differences: %s", raw)
	}
}

func TestFieldDifferences_ModifiedField(t *testing.T) {
	t.Parallel()

	diffs, err := structdiff.FieldDifferences(
		json.RawMessage(`{"averageDailyIncome": 200}`),
		json.RawMessage(`{"averageDailyIncome": 250}`),
	)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "averageDailyIncome", diffs[0].Field)
	assert.Equal(t, structdiff.DiffModified, diffs[0].Type)
	require.NotNil(t, diffs[0].Original)
	require.NotNil(t, diffs[0].Proposed)

	orig, err := json.Marshal(diffs[0].Original)
	require.NoError(t, err)
	assert.JSONEq(t, `200`, string(orig))
	prop, err := json.Marshal(diffs[0].Proposed)
	require.NoError(t, err)
	assert.JSONEq(t, `250`, string(prop))
}

func TestFieldDifferences_AddedField(t *testing.T) {
	t.Parallel()

	diffs, err := structdiff.FieldDifferences(
		json.RawMessage(`{}`),
		json.RawMessage(`{"notes":"hello"}`),
	)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "notes", diffs[0].Field)
	assert.Equal(t, structdiff.DiffAdded, diffs[0].Type)
	assert.Nil(t, diffs[0].Original)
	require.NotNil(t, diffs[0].Proposed)
}

func TestFieldDifferences_RemovedField(t *testing.T) {
	t.Parallel()

	diffs, err := structdiff.FieldDifferences(
		json.RawMessage(`{"notes":"hello"}`),
		json.RawMessage(`{}`),
	)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "notes", diffs[0].Field)
	assert.Equal(t, structdiff.DiffRemoved, diffs[0].Type)
	assert.Nil(t, diffs[0].Proposed)
}

func TestFieldDifferences_ExcludesMetadata(t *testing.T) {
	t.Parallel()

	diffs, err := structdiff.FieldDifferences(
		json.RawMessage(`{"updatedAt":"2024-01-01T00:00:00Z","id":"a","population":100,"yearsWithData":["2023"]}`),
		json.RawMessage(`{"updatedAt":"2025-06-01T00:00:00Z","id":"b","population":110,"yearsWithData":["2023","2024"]}`),
	)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "population", diffs[0].Field)
}

func TestFieldDifferences_NestedObjectsRecurse(t *testing.T) {
	t.Parallel()

	diffs, err := structdiff.FieldDifferences(
		json.RawMessage(`{"services":{"water":{"level":2,"source":"spring"},"power":"grid"}}`),
		json.RawMessage(`{"services":{"water":{"level":3,"source":"spring"},"power":"grid"}}`),
	)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "services.water.level", diffs[0].Field)
	assert.Equal(t, structdiff.DiffModified, diffs[0].Type)
}

func TestFieldDifferences_ArraysCompareWholesale(t *testing.T) {
	t.Parallel()

	diffs, err := structdiff.FieldDifferences(
		json.RawMessage(`{"programs":["health","feeding"]}`),
		json.RawMessage(`{"programs":["health","literacy"]}`),
	)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "programs", diffs[0].Field)
	assert.Equal(t, structdiff.DiffModified, diffs[0].Type)
}

func TestFieldDifferences_TopLevelPrimitives(t *testing.T) {
	t.Parallel()

	diffs, err := structdiff.FieldDifferences(
		json.RawMessage(`12`),
		json.RawMessage(`13`),
	)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "value", diffs[0].Field)
	assert.Equal(t, structdiff.DiffModified, diffs[0].Type)
}

func TestCompare_Symmetry(t *testing.T) {
	t.Parallel()

	a := mustParse(t, `{"population":100,"notes":"old","services":{"water":1},"gone":true}`)
	b := mustParse(t, `{"population":120,"added":"x","services":{"water":2},"notes":"old"}`)

	forward := structdiff.Compare(a, b)
	backward := structdiff.Compare(b, a)
	require.Equal(t, len(forward), len(backward))

	swap := func(dt structdiff.DiffType) structdiff.DiffType {
		switch dt {
		case structdiff.DiffAdded:
			return structdiff.DiffRemoved
		case structdiff.DiffRemoved:
			return structdiff.DiffAdded
		default:
			return dt
		}
	}

	backByField := make(map[string]structdiff.FieldDiff, len(backward))
	for _, d := range backward {
		backByField[d.Field] = d
	}
	for _, fd := range forward {
		bd, ok := backByField[fd.Field]
		require.True(t, ok, "field %s missing from reverse diff", fd.Field)
		assert.Equal(t, swap(fd.Type), bd.Type, "field %s", fd.Field)
	}
}

func TestFieldDifferences_NumberFormatsAreEqual(t *testing.T) {
	t.Parallel()

	diffs, err := structdiff.FieldDifferences(
		json.RawMessage(`{"income":200.0,"rate":1e2}`),
		json.RawMessage(`{"income":200,"rate":100}`),
	)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestFieldDifferences_MalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := structdiff.FieldDifferences(json.RawMessage(`{"a":1}`), json.RawMessage(`{oops`))
	require.Error(t, err)
}

func TestIsExcludedField(t *testing.T) {
	t.Parallel()

	assert.True(t, structdiff.IsExcludedField("updatedAt"))
	assert.True(t, structdiff.IsExcludedField("yearsWithData"))
	assert.True(t, structdiff.IsExcludedField("psgcCode.region"))
	assert.False(t, structdiff.IsExcludedField("population"))
	assert.False(t, structdiff.IsExcludedField("notes.updatedAt"))
}
