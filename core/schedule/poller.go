package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ResolveFunc is what a Poller refreshes against; in production it is
// Resolver.Resolve, tests swap in fakes.
type ResolveFunc func(ctx context.Context, dateStr string, day Weekday) (map[string]EffectiveEntry, error)

// Poller re-resolves the effective schedule on a fixed interval while a date
// is being viewed, converging concurrently-editing clients' views.
//
// Ordering is last-request-wins: every fetch carries a monotonic sequence
// number and a response older than the last applied one is discarded, so a
// slow early request can never overwrite a fresher view. There are no
// transactional guarantees beyond that; a client should optimistically apply
// its own writes rather than wait for the next tick.
type Poller struct {
	resolve  ResolveFunc
	interval time.Duration
	onUpdate func(seq uint64, effective map[string]EffectiveEntry)
	onError  func(error)

	seq     uint64
	mu      sync.Mutex
	applied uint64
}

func NewPoller(
	resolve ResolveFunc,
	interval time.Duration,
	onUpdate func(seq uint64, effective map[string]EffectiveEntry),
	onError func(error),
) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Poller{
		resolve:  resolve,
		interval: interval,
		onUpdate: onUpdate,
		onError:  onError,
	}
}

// Run polls until ctx is cancelled (view teardown stops the timer). The first
// fetch fires immediately; each subsequent tick issues a new fetch without
// waiting for in-flight ones.
func (p *Poller) Run(ctx context.Context, dateStr string, day Weekday) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetch(ctx, dateStr, day)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go p.fetch(ctx, dateStr, day)
		}
	}
}

func (p *Poller) fetch(ctx context.Context, dateStr string, day Weekday) {
	seq := atomic.AddUint64(&p.seq, 1)
	effective, err := p.resolve(ctx, dateStr, day)
	if err != nil {
		if p.onError != nil && ctx.Err() == nil {
			p.onError(err)
		}
		return
	}
	p.apply(seq, effective)
}

func (p *Poller) apply(seq uint64, effective map[string]EffectiveEntry) {
	p.mu.Lock()
	if seq <= p.applied {
		p.mu.Unlock()
		return // stale response; a newer fetch already landed
	}
	p.applied = seq
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(seq, effective)
	}
}
