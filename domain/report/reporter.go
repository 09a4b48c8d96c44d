package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/config"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/syshealth"
)

// Format selects how a report is rendered on stdout.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// Options controls a single Render call.
type Options struct {
	// Explain adds per-metric lines, the status message and recommendations.
	Explain bool
}

var hints = map[syshealth.Resource]string{
	syshealth.ResourceCPU:    "Identify CPU-heavy processes with top or ps and consider adding vCPUs",
	syshealth.ResourceMemory: "Look for processes with growing memory usage and consider adding RAM or swap",
	syshealth.ResourceDisk:   "Remove old logs and temporary files or expand the volume",
}

// Hint returns the remediation hint for r.
func Hint(r syshealth.Resource) string {
	return hints[r]
}

// Reporter renders health reports for humans and scripts.
type Reporter struct {
	format Format
}

// NewReporter creates a reporter using the configured output format.
func NewReporter(cfg *config.Config) *Reporter {
	return &Reporter{format: Format(cfg.OutputFormat)}
}

// NewReporterWithFormat creates a reporter for a fixed format.
func NewReporterWithFormat(format Format) *Reporter {
	return &Reporter{format: format}
}

// Format returns the reporter's output format.
func (r *Reporter) Format() Format {
	return r.format
}

// Render writes report to w.
func (r *Reporter) Render(w io.Writer, report *syshealth.HealthReport, opts Options) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newView(report, opts))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newView(report, opts)); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		return renderTable(w, report, opts)
	case FormatText, "":
		_, err := io.WriteString(w, Text(report, opts))
		return err
	}
	return fmt.Errorf("unsupported output format %q", r.format)
}

// Text renders the plain text form of report.
func Text(report *syshealth.HealthReport, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "VM Health Status: %s\n", report.Overall)
	if !opts.Explain {
		return b.String()
	}

	for _, m := range report.Metrics {
		fmt.Fprintf(&b, "%s\n", MetricLine(m))
	}
	fmt.Fprintf(&b, "%s\n", syshealth.StatusMessage(report.Overall))
	writeRecommendations(&b, report)
	return b.String()
}

// MetricLine formats one metric as "<Name> Usage: <v>% (Threshold: <t>%) - <SEVERITY>".
func MetricLine(m syshealth.MetricResult) string {
	return fmt.Sprintf("%s Usage: %d%% (Threshold: %d%%) - %s",
		m.Name.DisplayName(), m.Value, m.Threshold, m.Severity)
}

func writeRecommendations(w io.Writer, report *syshealth.HealthReport) {
	for _, m := range report.Metrics {
		if m.Severity == syshealth.SeverityOK {
			continue
		}
		fmt.Fprintf(w, "Recommendation: %s\n", Hint(m.Name))
	}
}

func renderTable(w io.Writer, report *syshealth.HealthReport, opts Options) error {
	if _, err := fmt.Fprintf(w, "VM Health Status: %s\n", report.Overall); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Resource", "Usage", "Threshold", "Critical", "Severity")
	for _, m := range report.Metrics {
		if err := table.Append(
			m.Name.DisplayName(),
			fmt.Sprintf("%d%%", m.Value),
			fmt.Sprintf("%d%%", m.Threshold),
			fmt.Sprintf("%d%%", m.CriticalThreshold()),
			m.Severity.String(),
		); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if !opts.Explain {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", syshealth.StatusMessage(report.Overall))
	writeRecommendations(&b, report)
	_, err := io.WriteString(w, b.String())
	return err
}

type metricView struct {
	Name              syshealth.Resource `json:"name" yaml:"name"`
	Value             int                `json:"value" yaml:"value"`
	Threshold         int                `json:"threshold" yaml:"threshold"`
	CriticalThreshold int                `json:"critical_threshold" yaml:"critical_threshold"`
	Severity          syshealth.Severity `json:"severity" yaml:"severity"`
}

type recommendation struct {
	Resource syshealth.Resource `json:"resource" yaml:"resource"`
	Hint     string             `json:"hint" yaml:"hint"`
}

type reportView struct {
	Overall         syshealth.Severity `json:"overall" yaml:"overall"`
	StatusMessage   string             `json:"status_message" yaml:"status_message"`
	Timestamp       time.Time          `json:"timestamp" yaml:"timestamp"`
	Host            string             `json:"host,omitempty" yaml:"host,omitempty"`
	RunID           string             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Metrics         []metricView       `json:"metrics" yaml:"metrics"`
	Recommendations []recommendation   `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

func newView(report *syshealth.HealthReport, opts Options) reportView {
	v := reportView{
		Overall:       report.Overall,
		StatusMessage: syshealth.StatusMessage(report.Overall),
		Timestamp:     report.Timestamp,
		Host:          report.Host,
		RunID:         report.RunID,
		Metrics:       make([]metricView, 0, len(report.Metrics)),
	}
	for _, m := range report.Metrics {
		v.Metrics = append(v.Metrics, metricView{
			Name:              m.Name,
			Value:             m.Value,
			Threshold:         m.Threshold,
			CriticalThreshold: m.CriticalThreshold(),
			Severity:          m.Severity,
		})
		if opts.Explain && m.Severity != syshealth.SeverityOK {
			v.Recommendations = append(v.Recommendations, recommendation{Resource: m.Name, Hint: Hint(m.Name)})
		}
	}
	return v
}
