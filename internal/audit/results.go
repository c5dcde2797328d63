package audit

import "sync"

// Results is a thread-safe accumulator for batch outcomes. The driver
// appends while, e.g., a progress reporter reads counts.
type Results struct {
	mu     sync.RWMutex
	rows   []Record
	counts map[Status]int
}

// NewResults returns an empty accumulator.
func NewResults() *Results {
	return &Results{counts: make(map[Status]int)}
}

// Add appends one outcome.
func (r *Results) Add(out Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, out.Record)
	r.counts[out.Status]++
}

// Rows returns the accumulated records in input order.
func (r *Results) Rows() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, len(r.rows))
	copy(out, r.rows)
	return out
}

// Count returns how many outcomes concluded with the given status.
func (r *Results) Count(s Status) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counts[s]
}

// Len returns the total number of accumulated outcomes.
func (r *Results) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}
