package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMetrics_LazyInit(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	require.NotNil(t, m.IndexerMetrics())
	assert.Same(t, m, GetMetrics())
}

func TestTrackError(t *testing.T) {
	before := testutil.ToFloat64(GetMetrics().Error.ErrorsTotal.WithLabelValues("indexer", "decode_fault"))
	TrackError("indexer", "decode_fault")
	after := testutil.ToFloat64(GetMetrics().Error.ErrorsTotal.WithLabelValues("indexer", "decode_fault"))

	assert.Equal(t, before+1, after)
}

func TestSetComponentHealth(t *testing.T) {
	SetComponentHealth("indexer", true)
	assert.Equal(t, float64(1), testutil.ToFloat64(GetMetrics().Error.ComponentHealth.WithLabelValues("indexer")))

	SetComponentHealth("indexer", false)
	assert.Equal(t, float64(0), testutil.ToFloat64(GetMetrics().Error.ComponentHealth.WithLabelValues("indexer")))
}

func TestGetStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", GetStatusClass(200))
	assert.Equal(t, "4xx", GetStatusClass(404))
	assert.Equal(t, "5xx", GetStatusClass(503))
	assert.Equal(t, "other", GetStatusClass(101))
}

func TestGetHandlerPattern(t *testing.T) {
	assert.Equal(t, "root", GetHandlerPattern("/"))
	assert.Equal(t, "health", GetHandlerPattern("/health"))
	assert.Equal(t, "transfer-volume", GetHandlerPattern("/indexer/transfer-volume/abcd"))
	assert.Equal(t, "status", GetHandlerPattern("/indexer/status"))
	assert.Equal(t, "other", GetHandlerPattern("/metrics"))
}
