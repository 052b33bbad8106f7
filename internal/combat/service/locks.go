package service

import "sync"

// lockTable serializes mutating operations per combat session so two state
// transitions for the same session never interleave in-process. Entries are
// kept for the life of the process; the table is bounded by the combats a
// single session of the tool touches.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// acquire locks the mutex for key and returns its unlock function.
func (l *lockTable) acquire(key string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
