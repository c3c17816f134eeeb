package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_IsolatedRegistries(t *testing.T) {
	// Two collectors on separate registries must not collide.
	a := NewCollector("aq_test", prometheus.NewRegistry())
	b := NewCollector("aq_test", prometheus.NewRegistry())

	a.RecordViewRender("gathering")
	a.RecordViewRender("gathering")
	b.RecordViewRender("gathering")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.ViewRendersTotal.WithLabelValues("gathering")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.ViewRendersTotal.WithLabelValues("gathering")))
}

func TestCollector_DatasetShape(t *testing.T) {
	c := NewCollector("aq_test", prometheus.NewRegistry())
	c.RecordDatasetShape(35064, 18)

	assert.Equal(t, 35064.0, testutil.ToFloat64(c.DatasetRows))
	assert.Equal(t, 18.0, testutil.ToFloat64(c.DatasetColumns))
}

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("aq_test", prometheus.NewRegistry())

	c.RecordAPIRequest("/api/views/{view}", "GET", "200")
	c.RecordAPIError("not_found", "/api/views/{view}")
	c.RecordViewMessage("visualization", "warning")
	c.RecordDatasetLoadError("not_found")
	c.RecordIngestionError("parse_error")
	c.RecordDBError("query_error")
	c.UpdateDBConnectionPool(1, 2, 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/api/views/{view}", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.APIErrorsTotal.WithLabelValues("not_found", "/api/views/{view}")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ViewWarningsTotal.WithLabelValues("visualization", "warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DatasetLoadErrors.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.IngestionErrorsTotal.WithLabelValues("parse_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DBErrorsTotal.WithLabelValues("query_error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.DBConnectionPool.WithLabelValues("total")))
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := NewCollector("aq_test", prometheus.NewRegistry())
	timer := c.NewTimer(c.DatasetLoadDuration)
	time.Sleep(time.Millisecond)

	d := timer.ObserveDuration()
	assert.Greater(t, d, time.Duration(0))
	assert.Equal(t, 1, testutil.CollectAndCount(c.DatasetLoadDuration))
}
