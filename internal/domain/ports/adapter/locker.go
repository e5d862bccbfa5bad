package adapter

import (
	"context"
	"time"
)

// Locker serializes work on a key. Lock blocks until the key is free, ctx is
// done or ttl elapses; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
