package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/domain/ports/repository"
	"telegram-reward-bot/internal/infra/logging"
	"telegram-reward-bot/internal/infra/metrics"
	red "telegram-reward-bot/internal/infra/redis"
)

var _ repository.AccountRepository = (*accountRepoCacheDecorator)(nil)

type accountRepoCacheDecorator struct {
	inner repository.AccountRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewAccountRepoCacheDecorator(inner repository.AccountRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.AccountRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &accountRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   logging.Component(logger, "AccountCache"),
	}
}

func accountKey(id int64) string { return fmt.Sprintf("account:id:%d", id) }

// Save drops the cached entries on both sides of the write so a reader that
// raced the write cannot leave a stale copy behind.
func (d *accountRepoCacheDecorator) Save(ctx context.Context, accounts ...*model.UserAccount) error {
	keys := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a != nil {
			keys = append(keys, accountKey(a.ID))
		}
	}
	if len(keys) == 0 {
		return d.inner.Save(ctx, accounts...)
	}
	if err := d.cache.Del(ctx, keys...); err != nil {
		metrics.IncCacheRequest("account", "error")
		logging.With(ctx, d.log).Warn().Err(err).Strs("keys", keys).Msg("cache invalidation before save failed")
	}
	if err := d.inner.Save(ctx, accounts...); err != nil {
		return err
	}
	if err := d.cache.Del(ctx, keys...); err != nil {
		metrics.IncCacheRequest("account", "error")
		d.overwrite(ctx, err, accounts)
	}
	return nil
}

// overwrite replaces entries that could not be deleted with the committed
// snapshot, so no reader sees the pre-save state until the TTL runs out.
func (d *accountRepoCacheDecorator) overwrite(ctx context.Context, delErr error, accounts []*model.UserAccount) {
	for _, a := range accounts {
		if a == nil {
			continue
		}
		b, err := json.Marshal(a)
		if err == nil {
			err = d.cache.Set(ctx, accountKey(a.ID), b, d.ttl)
		}
		if err != nil {
			logging.With(ctx, d.log).Error().Err(err).AnErr("del_err", delErr).Int64("tg_id", a.ID).
				Msg("stale account may stay cached until ttl")
		}
	}
}

func (d *accountRepoCacheDecorator) FindByID(ctx context.Context, id int64) (*model.UserAccount, error) {
	key := accountKey(id)
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var acc model.UserAccount
		if json.Unmarshal([]byte(val), &acc) == nil {
			metrics.IncCacheRequest("account", "hit")
			return &acc, nil
		}
		metrics.IncCacheRequest("account", "error")
	case errors.Is(err, red.Nil):
		metrics.IncCacheRequest("account", "miss")
	default:
		metrics.IncCacheRequest("account", "error")
	}

	acc, err := d.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(acc); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return acc, nil
}

// Pass-through methods that don't need caching
func (d *accountRepoCacheDecorator) List(ctx context.Context) ([]*model.UserAccount, error) {
	metrics.IncCacheRequest("account_list", "bypass")
	return d.inner.List(ctx)
}

func (d *accountRepoCacheDecorator) Count(ctx context.Context) (int, error) {
	return d.inner.Count(ctx)
}
