package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilravan/Enhanced-VM-Health-Check/domain/check"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/syshealth"
)

func setup(t *testing.T) (*echo.Echo, *check.Tracker, *syshealth.Exporter) {
	t.Helper()
	e := echo.New()
	tracker := check.NewTracker()
	exporter := syshealth.NewExporter()
	RegisterRoutes(e, NewHandler(tracker, exporter))
	return e, tracker, exporter
}

func record(tracker *check.Tracker, exporter *syshealth.Exporter, cpu, memory, disk int) {
	r := syshealth.ClassifyReport(
		syshealth.Sample{CPU: cpu, Memory: memory, Disk: disk},
		syshealth.DefaultThresholds(),
		time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	)
	tracker.Set(&r)
	exporter.Observe(&r)
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth_NoCheckYet(t *testing.T) {
	e, _, _ := setup(t)

	rec := get(e, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "PENDING", body.Status)
	assert.Nil(t, body.Report)
}

func TestHealth_StatusCodes(t *testing.T) {
	tests := []struct {
		name              string
		cpu, memory, disk int
		wantCode          int
		wantStatus        string
	}{
		{"ok", 45, 50, 40, http.StatusOK, "OK"},
		{"warning", 65, 40, 30, http.StatusOK, "WARNING"},
		{"critical", 85, 90, 50, http.StatusServiceUnavailable, "CRITICAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, tracker, exporter := setup(t)
			record(tracker, exporter, tt.cpu, tt.memory, tt.disk)

			rec := get(e, "/health")
			assert.Equal(t, tt.wantCode, rec.Code)

			var body HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, 1, body.Checks)
			require.NotNil(t, body.Report)
			assert.Equal(t, syshealth.StatusMessage(body.Report.Overall), body.StatusMessage)
			assert.Len(t, body.Report.Metrics, 3)
			assert.Equal(t, tt.cpu, body.Report.Metrics[0].Value)
		})
	}
}

func TestHealthz(t *testing.T) {
	e, _, _ := setup(t)
	rec := get(e, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	e, tracker, exporter := setup(t)
	record(tracker, exporter, 65, 40, 30)

	rec := get(e, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `vmhealth_resource_usage_percent{resource="cpu"} 65`), body)
	assert.Contains(t, body, "vmhealth_overall_severity 1")
}
