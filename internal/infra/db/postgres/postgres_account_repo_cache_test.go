//go:build !integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/domain"
	"telegram-reward-bot/internal/domain/model"
	red "telegram-reward-bot/internal/infra/redis"
)

func TestAccountRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	account := &model.UserAccount{ID: 98765, Balance: 12000}
	logger := zerolog.Nop()

	t.Run("FindByID should fetch from DB and set cache on miss", func(t *testing.T) {
		// Arrange
		innerRepoCalled := false
		var cacheSets sync.Map

		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return "", red.Nil
			},
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				cacheSets.Store(key, value)
				return nil
			},
		}
		mockInner := &mockInnerAccountRepo{
			FindByIDFunc: func(ctx context.Context, id int64) (*model.UserAccount, error) {
				innerRepoCalled = true
				return account, nil
			},
		}
		decorator := NewAccountRepoCacheDecorator(mockInner, mockRedis, time.Minute, &logger)

		// Act
		result, err := decorator.FindByID(ctx, 98765)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !innerRepoCalled {
			t.Error("inner repository should be called on a cache miss")
		}
		if _, ok := cacheSets.Load("account:id:98765"); !ok {
			t.Error("expected the account to be cached")
		}
		if result == nil || result.Balance != 12000 {
			t.Error("did not return the account from the inner repository")
		}
	})

	t.Run("FindByID should serve hits without touching the DB", func(t *testing.T) {
		cached, _ := json.Marshal(account)
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return string(cached), nil
			},
		}
		mockInner := &mockInnerAccountRepo{
			FindByIDFunc: func(ctx context.Context, id int64) (*model.UserAccount, error) {
				t.Error("inner repository must not be called on a hit")
				return nil, nil
			},
		}
		decorator := NewAccountRepoCacheDecorator(mockInner, mockRedis, time.Minute, &logger)

		result, err := decorator.FindByID(ctx, 98765)
		if err != nil || result.Balance != 12000 {
			t.Fatalf("unexpected result %+v %v", result, err)
		}
	})

	t.Run("FindByID should not cache missing accounts", func(t *testing.T) {
		setCalled := false
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return "", errors.New("redis down")
			},
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				setCalled = true
				return nil
			},
		}
		mockInner := &mockInnerAccountRepo{
			FindByIDFunc: func(ctx context.Context, id int64) (*model.UserAccount, error) {
				return nil, domain.ErrNotFound
			},
		}
		decorator := NewAccountRepoCacheDecorator(mockInner, mockRedis, time.Minute, &logger)

		_, err := decorator.FindByID(ctx, 1)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if setCalled {
			t.Error("a not-found result must not be cached")
		}
	})

	t.Run("Save should invalidate every saved account", func(t *testing.T) {
		// Arrange
		var deletedKeys sync.Map
		deletes := 0
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deletes++
				for _, k := range keys {
					deletedKeys.Store(k, true)
				}
				return nil
			},
		}
		mockInner := &mockInnerAccountRepo{
			SaveFunc: func(ctx context.Context, accounts ...*model.UserAccount) error { return nil },
		}
		decorator := NewAccountRepoCacheDecorator(mockInner, mockRedis, time.Minute, &logger)

		// Act
		err := decorator.Save(ctx, &model.UserAccount{ID: 1}, &model.UserAccount{ID: 2})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, k := range []string{"account:id:1", "account:id:2"} {
			if _, ok := deletedKeys.Load(k); !ok {
				t.Errorf("expected key %s to be invalidated", k)
			}
		}
		if deletes != 2 {
			t.Errorf("expected invalidation before and after the write, got %d", deletes)
		}
	})
	t.Run("Save should overwrite the cache with the saved state when invalidation fails", func(t *testing.T) {
		var cacheSets sync.Map
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				return errors.New("redis down")
			},
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				cacheSets.Store(key, value)
				return nil
			},
		}
		mockInner := &mockInnerAccountRepo{
			SaveFunc: func(ctx context.Context, accounts ...*model.UserAccount) error { return nil },
		}
		decorator := NewAccountRepoCacheDecorator(mockInner, mockRedis, time.Minute, &logger)

		claimed := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
		if err := decorator.Save(ctx, &model.UserAccount{ID: 7, Balance: 11000, LastClaimDate: &claimed}); err != nil {
			t.Fatalf("a committed save must not fail on cache errors, got %v", err)
		}

		raw, ok := cacheSets.Load("account:id:7")
		if !ok {
			t.Fatal("expected the saved account to replace the cached copy")
		}
		var got model.UserAccount
		if err := json.Unmarshal(raw.([]byte), &got); err != nil {
			t.Fatalf("decode cached value: %v", err)
		}
		if got.Balance != 11000 || got.LastClaimDate == nil || !got.LastClaimDate.Equal(claimed) {
			t.Errorf("cache holds stale state: %+v", got)
		}
	})

	t.Run("Save should surface inner errors without touching the cache again", func(t *testing.T) {
		deletes := 0
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deletes++
				return nil
			},
		}
		mockInner := &mockInnerAccountRepo{
			SaveFunc: func(ctx context.Context, accounts ...*model.UserAccount) error { return domain.ErrStoreWrite },
		}
		decorator := NewAccountRepoCacheDecorator(mockInner, mockRedis, time.Minute, &logger)

		if err := decorator.Save(ctx, &model.UserAccount{ID: 8}); !errors.Is(err, domain.ErrStoreWrite) {
			t.Fatalf("expected ErrStoreWrite, got %v", err)
		}
		if deletes != 1 {
			t.Errorf("expected a single invalidation, got %d", deletes)
		}
	})
}
