package schema

import "sync"

// nameLocks serializes DDL per schema name. Concurrent create/drop/migrate on
// the same schema is a race; operations on different schemas run in parallel.
// Entries are never removed: the map is bounded by the number of tenant
// schemas ever touched by this process.
type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newNameLocks() *nameLocks {
	return &nameLocks{locks: make(map[string]*sync.Mutex)}
}

func (n *nameLocks) get(name string) *sync.Mutex {
	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.locks[name]
	if !ok {
		l = &sync.Mutex{}
		n.locks[name] = l
	}
	return l
}
