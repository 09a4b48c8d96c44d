package notify

import (
	"fmt"

	"github.com/aymerick/raymond"

	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/syshealth"
)

// Message is a rendered alert ready for delivery.
type Message struct {
	Subject  string
	Body     string
	Severity syshealth.Severity
}

// Subject returns "VM Health Alert: <OVERALL>".
func Subject(overall syshealth.Severity) string {
	return "VM Health Alert: " + overall.String()
}

// BuildMessage renders the alert for report. A nil template selects the
// built-in one.
func BuildMessage(report *syshealth.HealthReport, tmpl *raymond.Template) (Message, error) {
	if tmpl == nil {
		tmpl = DefaultTemplate()
	}

	body, err := tmpl.Exec(NewTemplateContext(report))
	if err != nil {
		return Message{}, fmt.Errorf("failed to render alert body: %w", err)
	}

	return Message{
		Subject:  Subject(report.Overall),
		Body:     body,
		Severity: report.Overall,
	}, nil
}
