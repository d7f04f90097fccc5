package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_stringParseRoundtrip(t *testing.T) {
	statuses := []Status{
		StatusNone,
		StatusSuccess,
		StatusFailed,
		StatusCancelled,
	}
	for _, status := range statuses {
		t.Run(status.String(), func(t *testing.T) {
			assert.Equal(t, status, ParseStatus(status.String()))
		})
	}
}

func TestStatus_parseUnknown(t *testing.T) {
	assert.Equal(t, StatusUnknown, ParseStatus("bogus"))
	// The runner is synchronous; a step is never observable mid-flight.
	assert.Equal(t, StatusUnknown, ParseStatus("running"))
}

func TestStatus_json(t *testing.T) {
	b, err := json.Marshal(StatusFailed)
	require.NoError(t, err)
	assert.Equal(t, `"Failed"`, string(b))

	var status Status
	require.NoError(t, json.Unmarshal([]byte(`"success"`), &status))
	assert.Equal(t, StatusSuccess, status)
}
