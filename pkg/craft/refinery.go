package craft

import (
	"fmt"
	"time"
)

// ============================================
// REFINERY SCHEDULING TYPES
// ============================================

// RefinerySize is the processing-station class a formula runs on.
type RefinerySize int

const (
	SizeCraft RefinerySize = iota
	SizeMedium
	SizeBig
)

// String returns the display name of the size.
func (s RefinerySize) String() string {
	switch s {
	case SizeCraft:
		return "craft"
	case SizeMedium:
		return "medium"
	case SizeBig:
		return "big"
	}
	return "unknown"
}

// RefineryJob is one batch of work bound to a station queue.
type RefineryJob struct {
	Formula  *Formula
	Duration time.Duration
	Batch    int
}

// RefineryJobQueue is an ordered queue of jobs for a single station, with a
// running total of its busy time.
type RefineryJobQueue struct {
	jobs  []RefineryJob
	total time.Duration
}

// Len returns the number of queued jobs.
func (q *RefineryJobQueue) Len() int {
	return len(q.jobs)
}

// Jobs returns the queued jobs in order.
func (q *RefineryJobQueue) Jobs() []RefineryJob {
	return q.jobs
}

// TotalTime returns the queue's accumulated busy time.
func (q *RefineryJobQueue) TotalTime() time.Duration {
	return q.total
}

// AddJob appends a job and extends the total time.
func (q *RefineryJobQueue) AddJob(job RefineryJob) {
	q.total += job.Duration
	q.jobs = append(q.jobs, job)
}

// RefineryPool schedules jobs over a bounded or unbounded set of station
// queues. While below capacity every job opens a fresh queue; at capacity
// new work lands on the queue with the smallest running total (greedy
// shortest-queue balancing). The resulting assignment is deterministic.
type RefineryPool struct {
	size    int // 0 = unbounded
	queues  []*RefineryJobQueue
	maxTime time.Duration
	maxLen  int
}

// NewRefineryPool creates a pool bounded to size queues. Size must be
// positive; zero or negative sizes are configuration errors.
func NewRefineryPool(size int) (*RefineryPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("refinery pool size must be positive, got %d", size)
	}
	return &RefineryPool{size: size}, nil
}

// UnboundedRefineryPool creates a pool that opens a new queue for every job.
func UnboundedRefineryPool() *RefineryPool {
	return &RefineryPool{}
}

// Unbounded reports whether the pool has no queue limit.
func (p *RefineryPool) Unbounded() bool {
	return p.size == 0
}

// Size returns the configured queue limit, zero when unbounded.
func (p *RefineryPool) Size() int {
	return p.size
}

// OpenQueues returns how many queues have been opened so far.
func (p *RefineryPool) OpenQueues() int {
	return len(p.queues)
}

// Queues returns the open queues in the order they were opened.
func (p *RefineryPool) Queues() []*RefineryJobQueue {
	return p.queues
}

// MaxTime returns the pool makespan: the busiest queue's total time.
func (p *RefineryPool) MaxTime() time.Duration {
	return p.maxTime
}

// MaxLen returns the length of the longest queue.
func (p *RefineryPool) MaxLen() int {
	return p.maxLen
}

func (p *RefineryPool) nextQueue() *RefineryJobQueue {
	if p.Unbounded() || len(p.queues) < p.size {
		q := &RefineryJobQueue{}
		p.queues = append(p.queues, q)
		return q
	}
	best := p.queues[0]
	for _, q := range p.queues[1:] {
		if q.TotalTime() < best.TotalTime() {
			best = q
		}
	}
	return best
}

// AddJob places the job on the next queue per the balancing rule and updates
// the pool's makespan and longest-queue counters.
func (p *RefineryPool) AddJob(job RefineryJob) {
	q := p.nextQueue()
	q.AddJob(job)
	if q.TotalTime() > p.maxTime {
		p.maxTime = q.TotalTime()
	}
	if q.Len() > p.maxLen {
		p.maxLen = q.Len()
	}
}

// RefineryLimits configures the queue count per station size. A missing or
// non-positive entry means unbounded.
type RefineryLimits map[RefinerySize]int

// DefaultRefineryLimits returns the standard per-site station counts.
func DefaultRefineryLimits() RefineryLimits {
	return RefineryLimits{SizeMedium: 3, SizeBig: 2}
}

// ProductionLine bundles the three pools used for one estimation run. The
// craft pool always has exactly one queue: crafting is serial.
type ProductionLine struct {
	pools map[RefinerySize]*RefineryPool
}

// NewProductionLine builds a line from the given limits.
func NewProductionLine(limits RefineryLimits) *ProductionLine {
	makePool := func(size RefinerySize) *RefineryPool {
		if n, ok := limits[size]; ok && n > 0 {
			p, _ := NewRefineryPool(n)
			return p
		}
		return UnboundedRefineryPool()
	}
	craft, _ := NewRefineryPool(1)
	return &ProductionLine{pools: map[RefinerySize]*RefineryPool{
		SizeMedium: makePool(SizeMedium),
		SizeBig:    makePool(SizeBig),
		SizeCraft:  craft,
	}}
}

// Pool returns the pool for a station size.
func (l *ProductionLine) Pool(size RefinerySize) *RefineryPool {
	return l.pools[size]
}

// Craft returns the serial crafting pool.
func (l *ProductionLine) Craft() *RefineryPool { return l.pools[SizeCraft] }

// Medium returns the medium refiner pool.
func (l *ProductionLine) Medium() *RefineryPool { return l.pools[SizeMedium] }

// Big returns the big refiner pool.
func (l *ProductionLine) Big() *RefineryPool { return l.pools[SizeBig] }

// MaxTime returns the line makespan: the largest pool makespan.
func (l *ProductionLine) MaxTime() time.Duration {
	var max time.Duration
	for _, p := range l.pools {
		if p.MaxTime() > max {
			max = p.MaxTime()
		}
	}
	return max
}
