package syshealth

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the health level of a single resource or of the whole host.
// Values are ordered: SeverityOK < SeverityWarning < SeverityCritical.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "OK"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText encodes the severity as its upper-case name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts OK, WARNING or CRITICAL in any case.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity parses a severity name.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "OK":
		return SeverityOK, nil
	case "WARNING":
		return SeverityWarning, nil
	case "CRITICAL":
		return SeverityCritical, nil
	}
	return SeverityOK, fmt.Errorf("unknown severity %q", name)
}

// MaxSeverity returns the most severe level in levels, or SeverityOK when empty.
func MaxSeverity(levels ...Severity) Severity {
	worst := SeverityOK
	for _, l := range levels {
		if l > worst {
			worst = l
		}
	}
	return worst
}

// Resource names a sampled host resource.
type Resource string

const (
	ResourceCPU    Resource = "cpu"
	ResourceMemory Resource = "memory"
	ResourceDisk   Resource = "disk"
)

// Resources lists the sampled resources in presentation order.
var Resources = []Resource{ResourceCPU, ResourceMemory, ResourceDisk}

// DisplayName is the capitalised label used in human readable output.
func (r Resource) DisplayName() string {
	switch r {
	case ResourceCPU:
		return "CPU"
	case ResourceMemory:
		return "Memory"
	case ResourceDisk:
		return "Disk"
	default:
		return string(r)
	}
}

// Sample holds one reading of each resource as whole percentages.
type Sample struct {
	CPU    int `json:"cpu" yaml:"cpu"`
	Memory int `json:"memory" yaml:"memory"`
	Disk   int `json:"disk" yaml:"disk"`
}

// Value returns the reading for r.
func (s Sample) Value(r Resource) int {
	switch r {
	case ResourceCPU:
		return s.CPU
	case ResourceMemory:
		return s.Memory
	case ResourceDisk:
		return s.Disk
	}
	return 0
}

// Thresholds holds the warning threshold of each resource.
type Thresholds struct {
	CPU    int `json:"cpu" yaml:"cpu"`
	Memory int `json:"memory" yaml:"memory"`
	Disk   int `json:"disk" yaml:"disk"`
}

// DefaultThreshold applies to every resource unless configured otherwise.
const DefaultThreshold = 60

// DefaultThresholds returns DefaultThreshold for all resources.
func DefaultThresholds() Thresholds {
	return Thresholds{CPU: DefaultThreshold, Memory: DefaultThreshold, Disk: DefaultThreshold}
}

// For returns the threshold configured for r.
func (t Thresholds) For(r Resource) int {
	switch r {
	case ResourceCPU:
		return t.CPU
	case ResourceMemory:
		return t.Memory
	case ResourceDisk:
		return t.Disk
	}
	return DefaultThreshold
}

// Metric is a single named resource reading.
type Metric struct {
	Name  Resource `json:"name" yaml:"name"`
	Value int      `json:"value" yaml:"value"`
}

// MetricResult is the classification of one metric against its threshold.
type MetricResult struct {
	Metric    `yaml:",inline"`
	Threshold int      `json:"threshold" yaml:"threshold"`
	Severity  Severity `json:"severity" yaml:"severity"`
}

// CriticalThreshold is the derived critical bound for this result.
func (r MetricResult) CriticalThreshold() int {
	return CriticalThreshold(r.Threshold)
}

// HealthReport is the outcome of one health check.
type HealthReport struct {
	Metrics   []MetricResult `json:"metrics" yaml:"metrics"`
	Overall   Severity       `json:"overall" yaml:"overall"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Host      string         `json:"host,omitempty" yaml:"host,omitempty"`
	RunID     string         `json:"run_id,omitempty" yaml:"run_id,omitempty"`
}

// Result returns the classification for r.
func (h *HealthReport) Result(r Resource) (MetricResult, bool) {
	for _, m := range h.Metrics {
		if m.Name == r {
			return m, true
		}
	}
	return MetricResult{}, false
}

// Unhealthy reports whether any resource is above its warning threshold.
func (h *HealthReport) Unhealthy() bool {
	return h.Overall != SeverityOK
}

// Sample reconstructs the raw readings the report was built from.
func (h *HealthReport) Sample() Sample {
	var s Sample
	for _, m := range h.Metrics {
		switch m.Name {
		case ResourceCPU:
			s.CPU = m.Value
		case ResourceMemory:
			s.Memory = m.Value
		case ResourceDisk:
			s.Disk = m.Value
		}
	}
	return s
}
