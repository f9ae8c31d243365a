package pipeline

import (
	"sync/atomic"
)

// Metrics contains pipeline counters.
type Metrics struct {
	Submitted    atomic.Uint64
	Throttled    atomic.Uint64 // submits that waited for the low water mark
	Decoded      atomic.Uint64
	Malformed    atomic.Uint64
	Unsupported  atomic.Uint64
	Skipped      atomic.Uint64
	Reported     atomic.Uint64
	ReportErrors atomic.Uint64
}

// Stats is a point in time copy of the pipeline counters.
type Stats struct {
	Submitted    uint64
	Throttled    uint64
	Decoded      uint64
	Malformed    uint64
	Unsupported  uint64
	Skipped      uint64
	Reported     uint64
	ReportErrors uint64
	Pending      int64
	Shards       []int
}

// Stats returns the current counters and shard depths.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		Submitted:    p.stats.Submitted.Load(),
		Throttled:    p.stats.Throttled.Load(),
		Decoded:      p.stats.Decoded.Load(),
		Malformed:    p.stats.Malformed.Load(),
		Unsupported:  p.stats.Unsupported.Load(),
		Skipped:      p.stats.Skipped.Load(),
		Reported:     p.stats.Reported.Load(),
		ReportErrors: p.stats.ReportErrors.Load(),
		Pending:      p.pending.Load(),
		Shards:       make([]int, len(p.shards)),
	}
	for i, shard := range p.shards {
		s.Shards[i] = shard.Size()
	}
	return s
}

// Reset resets all counters to zero.
func (m *Metrics) Reset() {
	m.Submitted.Store(0)
	m.Throttled.Store(0)
	m.Decoded.Store(0)
	m.Malformed.Store(0)
	m.Unsupported.Store(0)
	m.Skipped.Store(0)
	m.Reported.Store(0)
	m.ReportErrors.Store(0)
}
