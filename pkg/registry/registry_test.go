package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	for _, taskType := range []string{
		"resolve-worker-status",
		"filter-eligible-workers",
		"rank-eligible-workers",
		"search-workers",
	} {
		a, err := reg.Lookup(taskType)
		require.NoError(t, err, taskType)
		assert.NotEmpty(t, a.InputSchema)
		assert.Contains(t, a.ErrorCodes, "INPUT_VALIDATION_FAILED")
	}

	_, err = reg.Lookup("send-email")
	assert.ErrorIs(t, err, ErrUnknownTaskType)
}

func TestParse_Check(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing task type", `{"activities":[{"id":"a","inputSchema":{"type":"object"}}]}`},
		{"duplicate id", `{"activities":[
			{"id":"a","taskType":"x","inputSchema":{"type":"object"}},
			{"id":"a","taskType":"y","inputSchema":{"type":"object"}}]}`},
		{"duplicate task type", `{"activities":[
			{"id":"a","taskType":"x","inputSchema":{"type":"object"}},
			{"id":"b","taskType":"x","inputSchema":{"type":"object"}}]}`},
		{"no schema", `{"activities":[{"id":"a","taskType":"x"}]}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestTimeoutDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, Activity{Timeout: "5s"}.TimeoutDuration(time.Second))
	assert.Equal(t, time.Second, Activity{}.TimeoutDuration(time.Second))
	assert.Equal(t, time.Second, Activity{Timeout: "soon"}.TimeoutDuration(time.Second))
}
