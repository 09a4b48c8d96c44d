package syshealth

import "time"

// CriticalOffset is added to a warning threshold to obtain the critical bound.
const CriticalOffset = 20

// CriticalThreshold derives the critical bound from a warning threshold.
// The result is not clamped, so thresholds above 80 make CRITICAL unreachable
// for percentage readings.
func CriticalThreshold(threshold int) int {
	return threshold + CriticalOffset
}

// ClassifyMetric maps a reading and its warning threshold to a severity.
// Out-of-range values are classified as given.
func ClassifyMetric(value, threshold int) Severity {
	if value >= CriticalThreshold(threshold) {
		return SeverityCritical
	}
	if value >= threshold {
		return SeverityWarning
	}
	return SeverityOK
}

// ClassifyReport classifies every resource of sample and reduces the results
// to an overall severity. It has no side effects.
func ClassifyReport(sample Sample, thresholds Thresholds, at time.Time) HealthReport {
	report := HealthReport{
		Metrics:   make([]MetricResult, 0, len(Resources)),
		Timestamp: at,
	}
	for _, r := range Resources {
		value, threshold := sample.Value(r), thresholds.For(r)
		severity := ClassifyMetric(value, threshold)
		report.Metrics = append(report.Metrics, MetricResult{
			Metric:    Metric{Name: r, Value: value},
			Threshold: threshold,
			Severity:  severity,
		})
		report.Overall = MaxSeverity(report.Overall, severity)
	}
	return report
}

// StatusMessage is the human readable summary of an overall severity.
func StatusMessage(overall Severity) string {
	switch overall {
	case SeverityCritical:
		return "Critical resource utilization detected"
	case SeverityWarning:
		return "Warning: High resource utilization"
	default:
		return "All resources within normal limits"
	}
}
