package check

import (
	"sync"

	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/syshealth"
)

// Tracker keeps the most recent report for the watch-mode status endpoint.
type Tracker struct {
	mu   sync.RWMutex
	last *syshealth.HealthReport
	runs int
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Set records report as the latest result.
func (t *Tracker) Set(report *syshealth.HealthReport) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = report
	t.runs++
}

// Last returns the latest report, or false when no check has completed.
func (t *Tracker) Last() (*syshealth.HealthReport, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last, t.last != nil
}

// Runs returns the number of completed checks.
func (t *Tracker) Runs() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.runs
}
