package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSetActiveVersion(t *testing.T) {
	SetActiveVersion("", "v1")
	assert.Equal(t, 1.0, testutil.ToFloat64(ActiveWeightsVersion.WithLabelValues("v1")))

	SetActiveVersion("v1", "v2")
	assert.Equal(t, 1.0, testutil.ToFloat64(ActiveWeightsVersion.WithLabelValues("v2")))
	// v1 was deleted, so asking for it again creates a fresh zero series
	assert.Equal(t, 0.0, testutil.ToFloat64(ActiveWeightsVersion.WithLabelValues("v1")))
	ActiveWeightsVersion.Reset()
}

func TestRecordRejections(t *testing.T) {
	before := testutil.ToFloat64(CandidatesEvaluated)
	skillBefore := testutil.ToFloat64(CandidatesRejected.WithLabelValues("skill"))

	RecordRejections(5, map[string]int{"skill": 2, "distance": 0})

	assert.Equal(t, before+5, testutil.ToFloat64(CandidatesEvaluated))
	assert.Equal(t, skillBefore+2, testutil.ToFloat64(CandidatesRejected.WithLabelValues("skill")))
}
