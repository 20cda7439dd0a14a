package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripRawMessage(t *testing.T) {
	t.Parallel()
	var resp struct {
		Error  []string   `json:"error"`
		Result RawMessage `json:"result"`
	}
	err := Unmarshal([]byte(`{"error":["EGeneral:Invalid arguments"],"result":{"XXBT":"0.1"}}`), &resp)
	require.NoErrorf(t, err, "Unmarshal must not error using %s", Implementation)
	assert.Equal(t, []string{"EGeneral:Invalid arguments"}, resp.Error)
	assert.JSONEq(t, `{"XXBT":"0.1"}`, string(resp.Result))
	assert.True(t, Valid(resp.Result), "Result should be valid JSON")
	assert.False(t, Valid([]byte(`{"nope"`)), "Truncated JSON should not be valid")
}
