package health

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sahilravan/Enhanced-VM-Health-Check/domain/check"
	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/version"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/syshealth"
)

// Handler serves the results of watch-mode checks.
type Handler struct {
	tracker *check.Tracker
	startAt time.Time
	metrics http.Handler
}

// NewHandler creates a new health handler
func NewHandler(tracker *check.Tracker, exporter *syshealth.Exporter) *Handler {
	return &Handler{
		tracker: tracker,
		startAt: time.Now(),
		metrics: promhttp.HandlerFor(exporter.Gatherer(), promhttp.HandlerOpts{}),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string                  `json:"status"`
	StatusMessage string                  `json:"status_message,omitempty"`
	Uptime        string                  `json:"uptime"`
	Version       string                  `json:"version"`
	Checks        int                     `json:"checks"`
	Report        *syshealth.HealthReport `json:"report,omitempty"`
}

// Health returns the last report. It responds 503 when the host is CRITICAL
// or no check has completed yet.
func (h *Handler) Health(c echo.Context) error {
	response := HealthResponse{
		Status:  "PENDING",
		Uptime:  time.Since(h.startAt).Round(time.Second).String(),
		Version: version.Version,
		Checks:  h.tracker.Runs(),
	}

	report, ok := h.tracker.Last()
	if !ok {
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	response.Status = report.Overall.String()
	response.StatusMessage = syshealth.StatusMessage(report.Overall)
	response.Report = report

	statusCode := http.StatusOK
	if report.Overall == syshealth.SeverityCritical {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, response)
}

// Healthz is a liveness probe for the agent itself.
func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Metrics exposes the exporter registry in the Prometheus text format.
func (h *Handler) Metrics(c echo.Context) error {
	h.metrics.ServeHTTP(c.Response(), c.Request())
	return nil
}
