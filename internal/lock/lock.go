package lock

import (
	"context"
	"time"
)

// Locker grants exclusive ownership of a key. Acquire does not block: it
// reports false when another owner holds the key.
type Locker interface {
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
}

func ReferenceKey(reference string) string {
	return "reference_lock:" + reference
}

func LedgerKey(name string) string {
	return "ledger_lock:" + name
}
