package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateRules(t *testing.T) {
	empty := Aggregate("factory", nil)
	assert.True(t, empty.IsHealthy())

	allHealthy := Aggregate("factory", []Status{
		NewHealthy("nats", "connected"),
		NewHealthy("store", "buckets open"),
	})
	assert.True(t, allHealthy.IsHealthy())
	assert.Len(t, allHealthy.SubStatuses, 2)

	withDegraded := Aggregate("factory", []Status{
		NewHealthy("nats", "connected"),
		NewDegraded("store", "slow writes"),
	})
	assert.True(t, withDegraded.IsDegraded())

	// Unhealthy dominates degraded.
	withUnhealthy := Aggregate("factory", []Status{
		NewDegraded("store", "slow writes"),
		NewUnhealthy("nats", "disconnected"),
	})
	assert.True(t, withUnhealthy.IsUnhealthy())
}

func TestMonitorUpdateAndGet(t *testing.T) {
	m := NewMonitor()

	m.UpdateHealthy("nats", "connected")
	status, ok := m.Get("nats")
	require.True(t, ok)
	assert.True(t, status.Healthy)
	assert.Equal(t, "nats", status.Component)
	assert.False(t, status.Timestamp.IsZero())

	m.UpdateUnhealthy("nats", "connection lost")
	status, ok = m.Get("nats")
	require.True(t, ok)
	assert.False(t, status.Healthy)

	_, ok = m.Get("absent")
	assert.False(t, ok)
}

func TestHandlerStatusCodes(t *testing.T) {
	m := NewMonitor()
	m.UpdateHealthy("nats", "connected")

	rec := httptest.NewRecorder()
	m.Handler("luxfactory").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "luxfactory", status.Component)
	assert.True(t, status.Healthy)

	m.UpdateUnhealthy("nats", "connection lost")
	rec = httptest.NewRecorder()
	m.Handler("luxfactory").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
