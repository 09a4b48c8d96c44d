package notify

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/aymerick/raymond"

	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/syshealth"
)

//go:embed templates/alert.hbs
var defaultTemplateSource string

// TimestampFormat is used for the time line of alert bodies.
const TimestampFormat = "2006-01-02 15:04:05 MST"

// DefaultTemplate returns the built-in alert body template.
func DefaultTemplate() *raymond.Template {
	return raymond.MustParse(defaultTemplateSource)
}

// LoadTemplate parses the handlebars template at path.
func LoadTemplate(path string) (*raymond.Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	tmpl, err := raymond.Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	return tmpl, nil
}

// TemplateContext is the data available to alert templates.
type TemplateContext map[string]interface{}

// NewTemplateContext exposes report to a template. Keys: overall, host,
// timestamp, run_id, status_message and metrics (name, display_name, value,
// threshold, critical_threshold, severity).
func NewTemplateContext(report *syshealth.HealthReport) TemplateContext {
	metrics := make([]map[string]interface{}, 0, len(report.Metrics))
	for _, m := range report.Metrics {
		metrics = append(metrics, map[string]interface{}{
			"name":               string(m.Name),
			"display_name":       m.Name.DisplayName(),
			"value":              m.Value,
			"threshold":          m.Threshold,
			"critical_threshold": m.CriticalThreshold(),
			"severity":           m.Severity.String(),
		})
	}

	host := report.Host
	if host == "" {
		host = "unknown"
	}

	return TemplateContext{
		"overall":        report.Overall.String(),
		"host":           host,
		"timestamp":      report.Timestamp.Format(TimestampFormat),
		"unix_time":      report.Timestamp.Unix(),
		"run_id":         report.RunID,
		"status_message": syshealth.StatusMessage(report.Overall),
		"metrics":        metrics,
	}
}
