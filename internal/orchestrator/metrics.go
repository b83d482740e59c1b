package orchestrator

import (
	"sync"
	"time"

	"github.com/testweaver/testweaver/internal/domain"
)

// runMetrics owns the per-run timing record. Only the orchestrator writes
// to it, strictly in stage order, and each field is set at most once per
// run. Readers get a snapshot copy, never the live struct.
type runMetrics struct {
	mu   sync.Mutex
	data domain.PerformanceMetrics
}

func newRunMetrics() *runMetrics {
	return &runMetrics{}
}

// reset clears all fields and stamps the run start.
func (m *runMetrics) reset(start time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = domain.PerformanceMetrics{StartTime: &start}
}

func (m *runMetrics) setPageLoad(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data.PageLoadTime == nil {
		m.data.PageLoadTime = &d
	}
}

func (m *runMetrics) setAIResponse(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data.AIResponseTime == nil {
		m.data.AIResponseTime = &d
	}
}

func (m *runMetrics) setTestExecution(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data.TestExecutionTime == nil {
		m.data.TestExecutionTime = &d
	}
}

// finish stamps the end of the run and derives the total. Called exactly
// once per run, on success and on failure alike.
func (m *runMetrics) finish(end time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data.EndTime != nil {
		return
	}
	m.data.EndTime = &end
	if m.data.StartTime != nil {
		total := end.Sub(*m.data.StartTime)
		m.data.TotalExecutionTime = &total
	}
}

// snapshot returns a deep copy of the current metrics.
func (m *runMetrics) snapshot() domain.PerformanceMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyTime := func(t *time.Time) *time.Time {
		if t == nil {
			return nil
		}
		v := *t
		return &v
	}
	copyDur := func(d *time.Duration) *time.Duration {
		if d == nil {
			return nil
		}
		v := *d
		return &v
	}

	return domain.PerformanceMetrics{
		StartTime:          copyTime(m.data.StartTime),
		EndTime:            copyTime(m.data.EndTime),
		PageLoadTime:       copyDur(m.data.PageLoadTime),
		AIResponseTime:     copyDur(m.data.AIResponseTime),
		TestExecutionTime:  copyDur(m.data.TestExecutionTime),
		TotalExecutionTime: copyDur(m.data.TotalExecutionTime),
	}
}
