package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg, "se")

	r.RecordBarsLoaded("5m", 750)
	r.RecordBarsLoaded("5m", 250)
	r.RecordCohort("scenario", 12)
	r.RecordCohort("scenario", 3)
	r.RecordError("load")
	r.RecordLatency("run", 0.25)

	assert.Equal(t, 1000.0, testutil.ToFloat64(r.barsLoaded.WithLabelValues("5m")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cohortsDone.WithLabelValues("scenario")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("load")))

	n, err := testutil.GatherAndCount(reg, "se_cohort_days", "se_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNopSatisfiesRecorderShape(t *testing.T) {
	var n Nop
	n.RecordBarsLoaded("30m", 1)
	n.RecordCohort("all", 1)
	n.RecordError("x")
	n.RecordLatency("y", 1)
}
