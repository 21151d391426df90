package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLock is an in-process Locker. TTLs are honoured so a key left behind
// by a crashed request path eventually frees up.
type LocalLock struct {
	mu     sync.Mutex
	owners map[string]localEntry
	now    func() time.Time
}

type localEntry struct {
	owner   string
	expires time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{owners: make(map[string]localEntry), now: time.Now}
}

func (l *LocalLock) Acquire(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.owners[key]; ok {
		if held.expires.IsZero() || l.now().Before(held.expires) {
			return false, nil
		}
	}

	entry := localEntry{owner: owner}
	if ttl > 0 {
		entry.expires = l.now().Add(ttl)
	}
	l.owners[key] = entry
	return true, nil
}

func (l *LocalLock) Release(_ context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.owners[key]; ok && held.owner == owner {
		delete(l.owners, key)
	}
	return nil
}
