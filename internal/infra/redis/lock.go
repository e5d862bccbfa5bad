package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/domain"
	"telegram-reward-bot/internal/domain/ports/adapter"
	"telegram-reward-bot/internal/infra/logging"
)

var _ adapter.Locker = (*RedisLocker)(nil)

const (
	lockPrefix     = "lock:"
	lockRetryDelay = 25 * time.Millisecond
)

// RedisLocker is a SET NX token lock shared by every bot process using the
// same Redis. The token makes sure a holder only ever releases its own lock.
type RedisLocker struct {
	cli RedisClient
	log *zerolog.Logger
}

func NewLocker(cli RedisClient, logger *zerolog.Logger) *RedisLocker {
	return &RedisLocker{cli: cli, log: logging.Component(logger, "RedisLocker")}
}

// Lock retries until the key is free. ttl is both the lease on the key and
// the longest it waits for it.
func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	token := uuid.NewString()
	full := lockPrefix + key
	deadline := time.Now().Add(ttl)

	for {
		ok, err := l.cli.SetNX(ctx, full, token, ttl)
		if err != nil {
			l.log.Warn().Err(err).Str("key", full).Msg("lock attempt failed")
		}
		if ok {
			return func() {
				// release even if the caller's ctx is already done
				rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if _, err := l.cli.DelIfEquals(rctx, full, token); err != nil {
					l.log.Warn().Err(err).Str("key", full).Msg("unlock failed")
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, domain.ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}
