package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/config"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/syshealth"
)

var checkedAt = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func classify(cpu, memory, disk int) *syshealth.HealthReport {
	r := syshealth.ClassifyReport(
		syshealth.Sample{CPU: cpu, Memory: memory, Disk: disk},
		syshealth.DefaultThresholds(),
		checkedAt,
	)
	r.Host = "web-01"
	r.RunID = "run-1"
	return &r
}

func TestText_Summary(t *testing.T) {
	assert.Equal(t, "VM Health Status: OK\n", Text(classify(45, 50, 40), Options{}))
	assert.Equal(t, "VM Health Status: WARNING\n", Text(classify(65, 40, 30), Options{}))
	assert.Equal(t, "VM Health Status: CRITICAL\n", Text(classify(85, 90, 50), Options{}))
}

func TestText_Explain(t *testing.T) {
	tests := []struct {
		name   string
		report *syshealth.HealthReport
		want   string
	}{
		{
			name:   "healthy",
			report: classify(45, 50, 40),
			want: "VM Health Status: OK\n" +
				"CPU Usage: 45% (Threshold: 60%) - OK\n" +
				"Memory Usage: 50% (Threshold: 60%) - OK\n" +
				"Disk Usage: 40% (Threshold: 60%) - OK\n" +
				"All resources within normal limits\n",
		},
		{
			name:   "cpu warning",
			report: classify(65, 40, 30),
			want: "VM Health Status: WARNING\n" +
				"CPU Usage: 65% (Threshold: 60%) - WARNING\n" +
				"Memory Usage: 40% (Threshold: 60%) - OK\n" +
				"Disk Usage: 30% (Threshold: 60%) - OK\n" +
				"Warning: High resource utilization\n" +
				"Recommendation: " + Hint(syshealth.ResourceCPU) + "\n",
		},
		{
			name:   "cpu and memory critical",
			report: classify(85, 90, 50),
			want: "VM Health Status: CRITICAL\n" +
				"CPU Usage: 85% (Threshold: 60%) - CRITICAL\n" +
				"Memory Usage: 90% (Threshold: 60%) - CRITICAL\n" +
				"Disk Usage: 50% (Threshold: 60%) - OK\n" +
				"Critical resource utilization detected\n" +
				"Recommendation: " + Hint(syshealth.ResourceCPU) + "\n" +
				"Recommendation: " + Hint(syshealth.ResourceMemory) + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.report, Options{Explain: true}))
		})
	}
}

func TestHint_EveryResource(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range syshealth.Resources {
		h := Hint(r)
		assert.NotEmpty(t, h, r)
		assert.False(t, seen[h], "hint for %s is not unique", r)
		seen[h] = true
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := NewReporterWithFormat(FormatJSON).Render(&buf, classify(65, 40, 30), Options{Explain: true})
	require.NoError(t, err)

	var got struct {
		Overall         string `json:"overall"`
		StatusMessage   string `json:"status_message"`
		Host            string `json:"host"`
		RunID           string `json:"run_id"`
		Timestamp       time.Time
		Metrics         []map[string]any `json:"metrics"`
		Recommendations []map[string]string
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "WARNING", got.Overall)
	assert.Equal(t, "Warning: High resource utilization", got.StatusMessage)
	assert.Equal(t, "web-01", got.Host)
	assert.Equal(t, "run-1", got.RunID)
	assert.True(t, checkedAt.Equal(got.Timestamp))
	require.Len(t, got.Metrics, 3)
	assert.Equal(t, "cpu", got.Metrics[0]["name"])
	assert.Equal(t, float64(80), got.Metrics[0]["critical_threshold"])
	assert.Equal(t, "WARNING", got.Metrics[0]["severity"])
	require.Len(t, got.Recommendations, 1)
	assert.Equal(t, "cpu", got.Recommendations[0]["resource"])
}

func TestRender_JSONWithoutExplainOmitsRecommendations(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporterWithFormat(FormatJSON).Render(&buf, classify(85, 90, 50), Options{}))
	assert.NotContains(t, buf.String(), "recommendations")
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporterWithFormat(FormatYAML).Render(&buf, classify(85, 90, 50), Options{}))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "CRITICAL", got["overall"])
	assert.Equal(t, "Critical resource utilization detected", got["status_message"])

	metrics, ok := got["metrics"].([]any)
	require.True(t, ok)
	require.Len(t, metrics, 3)
	disk := metrics[2].(map[string]any)
	assert.Equal(t, "disk", disk["name"])
	assert.Equal(t, "OK", disk["severity"])
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporterWithFormat(FormatTable).Render(&buf, classify(65, 40, 30), Options{Explain: true}))

	out := buf.String()
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("VM Health Status: WARNING\n")))
	assert.Contains(t, out, "Memory")
	assert.Contains(t, out, "65%")
	assert.Contains(t, out, "80%")
	assert.Contains(t, out, "Warning: High resource utilization")
	assert.Contains(t, out, "Recommendation: "+Hint(syshealth.ResourceCPU))
}

func TestRender_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := NewReporterWithFormat("xml").Render(&buf, classify(1, 1, 1), Options{})
	assert.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestNewReporter_UsesConfiguredFormat(t *testing.T) {
	r := NewReporter(&config.Config{OutputFormat: "yaml"})
	assert.Equal(t, FormatYAML, r.Format())
}
