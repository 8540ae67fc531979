package indexer

import "sync"

// corpusLocks lets one IndexCorpus run per corpus root at a time. Runs on
// different roots proceed concurrently.
type corpusLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// TryAcquire claims root without blocking. It reports false when a run on
// root is already in progress.
func (l *corpusLocks) TryAcquire(root string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[root]; busy {
		return false
	}
	if l.held == nil {
		l.held = make(map[string]struct{})
	}
	l.held[root] = struct{}{}
	return true
}

// Release frees root for the next run
func (l *corpusLocks) Release(root string) {
	l.mu.Lock()
	delete(l.held, root)
	l.mu.Unlock()
}
