package poller

import (
	"sync"
	"time"
)

// Stats is a point-in-time snapshot of one poller.
type Stats struct {
	Name        string    `json:"name"`
	Interval    string    `json:"interval"`
	Running     bool      `json:"running"`
	Iterations  uint64    `json:"iterations"`
	LastTick    time.Time `json:"last_tick,omitempty"`
	LastTickMs  int64     `json:"last_tick_ms"`
	LastDue     int       `json:"last_due"`
	Processed   uint64    `json:"processed"`
	Executed    uint64    `json:"executed"`
	Failed      uint64    `json:"failed"`
	Expired     uint64    `json:"expired"`
	Skipped     uint64    `json:"skipped"`
	Invalid     uint64    `json:"invalid"`
	Contended   uint64    `json:"contended"`
	Panicked    uint64    `json:"panicked"`
	QueryErrors uint64    `json:"query_errors"`
	LastError   string    `json:"last_error,omitempty"`
}

type statsRecorder struct {
	mu    sync.RWMutex
	stats Stats
}

func (s *statsRecorder) setRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Running = running
}

func (s *statsRecorder) tick(at time.Time, duration time.Duration, due int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Iterations++
	s.stats.LastTick = at
	s.stats.LastTickMs = duration.Milliseconds()
	s.stats.LastDue = due
}

func (s *statsRecorder) queryError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.QueryErrors++
	s.stats.LastError = err.Error()
}

func (s *statsRecorder) outcome(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Processed++
	switch o {
	case OutcomeExecuted:
		s.stats.Executed++
	case OutcomeFailed:
		s.stats.Failed++
	case OutcomeExpired:
		s.stats.Expired++
	case OutcomeSkipped:
		s.stats.Skipped++
	case OutcomeInvalid:
		s.stats.Invalid++
	case OutcomeContended:
		s.stats.Contended++
	case OutcomePanicked:
		s.stats.Panicked++
	}
}

func (s *statsRecorder) snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
