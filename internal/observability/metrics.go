package observability

import (
	"sync"
)

// Metrics provides basic in-memory counters for the scan loop and the
// delivery channels, exposed through the status surface.
type Metrics struct {
	mu              sync.Mutex
	scansRun        int64
	scansSkipped    int64
	ticketsExamined int64
	warningsSent    int64
	breachesSent    int64
	scanErrors      int64
	deliveryCount   map[string]int64
	errorCount      map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		deliveryCount: make(map[string]int64),
		errorCount:    make(map[string]int64),
	}
}

// RecordScan accumulates the counters of one completed scan pass.
func (m *Metrics) RecordScan(examined, warnings, breaches, errors int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scansRun++
	m.ticketsExamined += int64(examined)
	m.warningsSent += int64(warnings)
	m.breachesSent += int64(breaches)
	m.scanErrors += int64(errors)
}

// RecordSkippedTick counts a coalesced scheduler tick.
func (m *Metrics) RecordSkippedTick() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scansSkipped++
}

// RecordDelivery increments the per-channel outcome counter.
func (m *Metrics) RecordDelivery(channel, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveryCount[channel+"|"+outcome]++
}

// RecordError increments error counters by component and code.
func (m *Metrics) RecordError(component, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[component+"|"+code]++
}

// Snapshot returns a copy of all counters for the status surface.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := map[string]int64{
		"scans_run":        m.scansRun,
		"scans_skipped":    m.scansSkipped,
		"tickets_examined": m.ticketsExamined,
		"warnings_sent":    m.warningsSent,
		"breaches_sent":    m.breachesSent,
		"scan_errors":      m.scanErrors,
	}
	for key, val := range m.deliveryCount {
		snap["delivery|"+key] = val
	}
	for key, val := range m.errorCount {
		snap["error|"+key] = val
	}
	return snap
}
