package repo

import "sync"

// pathLocks hands out one mutex per top-level store key, giving the
// serialized consistency mode a per-user and per-conversation serialization
// point for its read-modify-write cycles. Mutexes are never reclaimed; the
// population is bounded by users plus conversations.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for key and returns its unlock func.
func (p *pathLocks) acquire(key string) func() {
	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &sync.Mutex{}
		p.locks[key] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
