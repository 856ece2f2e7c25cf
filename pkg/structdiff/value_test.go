package structdiff_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msu-projects/sitio-portal/pkg/structdiff"
)

func TestEqual_KeyOrderInsensitive(t *testing.T) {
	t.Parallel()

	a := mustParse(t, `{"a":1,"b":{"c":2,"d":[1,2]}}`)
	b := mustParse(t, `{"b":{"d":[1,2],"c":2},"a":1}`)
	assert.True(t, structdiff.Equal(a, b))
}

func TestEqual_ArrayOrderSensitive(t *testing.T) {
	t.Parallel()

	a := mustParse(t, `[1,2,3]`)
	b := mustParse(t, `[3,2,1]`)
	assert.False(t, structdiff.Equal(a, b))
}

func TestEqual_MixedKinds(t *testing.T) {
	t.Parallel()

	assert.False(t, structdiff.Equal(mustParse(t, `"1"`), mustParse(t, `1`)))
	assert.False(t, structdiff.Equal(mustParse(t, `null`), mustParse(t, `0`)))
	assert.False(t, structdiff.Equal(mustParse(t, `{}`), mustParse(t, `[]`)))
	assert.True(t, structdiff.Equal(mustParse(t, `null`), mustParse(t, `null`)))
}

func TestValue_MarshalRoundtrip(t *testing.T) {
	t.Parallel()

	raw := `{"a":1.5,"b":["x",null,true],"c":{"d":"e"}}`
	v := mustParse(t, raw)
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	_, err := structdiff.Parse(json.RawMessage(`{"a":`))
	require.Error(t, err)
}
