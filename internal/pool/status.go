package pool

import "modeld/pkg/types"

// Status returns a non-blocking, eventually-consistent snapshot of the
// pool's metrics.
func (p *Pool) Status() types.PoolStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return types.PoolStatus{
		Name:          p.name,
		State:         string(p.state),
		TotalThreads:  p.totalThreads,
		FreeThreads:   len(p.freeThreads),
		WaitingJobs:   len(p.waitingJobs),
		JobsRequested: p.jobsRequested,
		JobsQueued:    p.jobsQueued,
		QueueRate:     p.queueRateLocked(),
		Reloads:       p.reloads,
	}
}
