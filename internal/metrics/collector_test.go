package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentbridge/types"
)

func TestCollector_RecordsInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWith(reg, nil)

	c.RecordProbe(types.ProtocolACP, "success", 50*time.Millisecond)
	c.RecordProbe(types.ProtocolACP, "unreachable", 10*time.Millisecond)
	c.RecordEviction()
	c.SetRegistryAgents(map[types.HealthState]int{types.HealthHealthy: 3})
	c.RecordDecision(types.RouteMethodFallback, 2*time.Millisecond)
	c.RecordValidationRejection()
	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.RecordExecution(types.ProtocolMCP, "success", time.Second)
	c.RecordHTTPRequest("POST", "/v1/route", 200, 5*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.probesTotal.WithLabelValues("acp", "success"))+
		testutil.ToFloat64(c.probesTotal.WithLabelValues("acp", "unreachable")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.evictions))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.registryAgents.WithLabelValues("healthy")))
	assert.Equal(t, float64(0), testutil.ToFloat64(c.registryAgents.WithLabelValues("degraded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.decisionsTotal.WithLabelValues("fallback")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.validationRejections))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.cacheMisses))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.executionsTotal.WithLabelValues("mcp", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/v1/route", "200")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector
	c.RecordProbe(types.ProtocolA2A, "success", time.Millisecond)
	c.RecordEviction()
	c.SetRegistryAgents(nil)
	c.RecordDecision(types.RouteMethodReasoner, time.Millisecond)
	c.RecordValidationRejection()
	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.RecordExecution(types.ProtocolCustom, "error", time.Millisecond)
	c.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
}
