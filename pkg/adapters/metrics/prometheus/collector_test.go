package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSpellSubmitted("submitted")
	c.RecordSpellSubmitted("submitted")
	c.RecordSpellSubmitted("failed")
	c.RecordSpellCompleted("completed", 2*time.Second)
	c.RecordNodeExecuted("Echo", "completed", 10*time.Millisecond)
	c.RecordNodeExecuted("Echo", "failed", 10*time.Millisecond)
	c.RecordWorkerPoolStatus(3, 2, 0)
	c.SetActiveExecutions(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.spellsSubmitted.WithLabelValues("submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.spellsSubmitted.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.spellsCompleted.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.nodesExecuted.WithLabelValues("Echo", "failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.workerPoolIdle))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.workerPoolBusy))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.activeExecutions))

	assert.Equal(t, 1, testutil.CollectAndCount(c.nodeDuration))
}

func TestCollectorsUseSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector(prometheus.NewRegistry())
		NewCollector(prometheus.NewRegistry())
	})
}
