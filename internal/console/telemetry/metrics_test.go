package telemetry_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentregistry-dev/agentconsole/internal/console/telemetry"
)

func TestInitMetrics(t *testing.T) {
	shutdown, metrics, err := telemetry.InitMetrics("test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	ctx := context.Background()
	metrics.RecordSubmission(ctx, nil)
	metrics.RecordSubmission(ctx, errors.New("boom"))
	metrics.RecordMcpInstall(ctx, nil)

	w := httptest.NewRecorder()
	metrics.PrometheusHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "agent_console_import_submissions_total")
	assert.Contains(t, body, `outcome="failure"`)
	assert.Contains(t, body, "agent_console_mcp_installs_total")
	assert.Contains(t, body, "go_goroutine")
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *telemetry.Metrics
	assert.NotPanics(t, func() {
		m.RecordSubmission(context.Background(), nil)
		m.RecordMcpInstall(context.Background(), errors.New("x"))
	})
}
