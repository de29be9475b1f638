package pool

import (
	"time"

	"github.com/playforge/spawnpool/pkg/asset"
)

// InstanceInfo describes one queued instance for debug tooling.
type InstanceInfo struct {
	// Name is the instance's display name.
	Name string `json:"name"`
	// TimeInPool is how long the instance has been queued.
	TimeInPool time.Duration `json:"time_in_pool"`
	// TimeUntilCleanup is how long until the lifetime sweep would evict it:
	// zero when already due, negative when the key's policy disables
	// lifetime eviction (MaxLifetime zero).
	TimeUntilCleanup time.Duration `json:"time_until_cleanup"`
}

// PoolInfo returns the queued instance count per key. A snapshot; not
// authoritative once the lock is released.
func (p *Pool) PoolInfo() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	info := make(map[string]int, len(p.pools))
	for key, kp := range p.pools {
		info[key] = kp.queue.Length()
	}
	return info
}

// DetailedPoolInfo returns, per key, each queued instance's name, time in
// pool, and time until lifetime cleanup. Computed from the timestamps on
// demand, never cached.
func (p *Pool) DetailedPoolInfo() map[string][]InstanceInfo {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	info := make(map[string][]InstanceInfo, len(p.pools))
	for key, kp := range p.pools {
		entries := make([]InstanceInfo, 0, kp.queue.Length())
		for i := 0; i < kp.queue.Length(); i++ {
			inst := kp.queue.Get(i).(*asset.Instance)
			inPool := now.Sub(kp.lastReturned[inst.ID()])
			remaining := time.Duration(-1)
			if kp.policy.MaxLifetime > 0 {
				remaining = kp.policy.MaxLifetime - inPool
				if remaining < 0 {
					remaining = 0
				}
			}
			entries = append(entries, InstanceInfo{
				Name:             inst.Name(),
				TimeInPool:       inPool,
				TimeUntilCleanup: remaining,
			})
		}
		info[key] = entries
	}
	return info
}

// Policies returns a snapshot of every registered policy.
func (p *Pool) Policies() map[string]Policy {
	p.mu.Lock()
	defer p.mu.Unlock()

	policies := make(map[string]Policy, len(p.pools))
	for key, kp := range p.pools {
		policies[key] = kp.policy
	}
	return policies
}
