package pool

import (
	"time"

	"go.uber.org/zap"

	"github.com/playforge/spawnpool/pkg/asset"
	"github.com/playforge/spawnpool/pkg/metrics"
)

// evictedInstance pairs an instance with why the sweep removed it.
type evictedInstance struct {
	inst   *asset.Instance
	key    string
	reason string
}

// sweepLoop runs Sweep on a fixed cadence until the pool closes.
func (p *Pool) sweepLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Sweep()
		case <-p.ctx.Done():
			return
		}
	}
}

// Sweep runs one policy-enforcement pass over every key: first strict-FIFO
// capacity eviction while a queue exceeds MaxCount, then a lifetime filter
// removing entries idle for MaxLifetime or longer. Evicted instances are
// released to the resolver after the pool lock is dropped. UpdatePolicy
// calls this directly; debug tooling may too.
func (p *Pool) Sweep() {
	now := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	var evicted []evictedInstance
	for key, kp := range p.pools {
		// Capacity: evict oldest-enqueued first to bound memory predictably.
		for uint(kp.queue.Length()) > kp.policy.MaxCount {
			inst := kp.queue.Remove().(*asset.Instance)
			delete(kp.lastReturned, inst.ID())
			evicted = append(evicted, evictedInstance{inst: inst, key: key, reason: metrics.ReasonCapacity})
		}

		// Lifetime: rebuild the queue without expired entries, preserving
		// order among survivors. A zero MaxLifetime disables expiry.
		if kp.policy.MaxLifetime > 0 {
			for n := kp.queue.Length(); n > 0; n-- {
				inst := kp.queue.Remove().(*asset.Instance)
				if now.Sub(kp.lastReturned[inst.ID()]) >= kp.policy.MaxLifetime {
					delete(kp.lastReturned, inst.ID())
					evicted = append(evicted, evictedInstance{inst: inst, key: key, reason: metrics.ReasonLifetime})
				} else {
					kp.queue.Add(inst)
				}
			}
		}

		metrics.QueueDepth.WithLabelValues(key).Set(float64(kp.queue.Length()))
	}
	p.mu.Unlock()

	for _, e := range evicted {
		p.resolver.ReleaseInstance(e.inst)
		metrics.EvictionsTotal.WithLabelValues(e.key, e.reason).Inc()
	}

	if len(evicted) > 0 {
		p.logger.Debug("sweep evicted instances", zap.Int("count", len(evicted)))
	}
}
