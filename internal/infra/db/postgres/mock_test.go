//go:build !integration

package postgres

import (
	"context"
	"time"

	"telegram-reward-bot/internal/domain/model"
	red "telegram-reward-bot/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerAccountRepo mocks the database repository that the decorator wraps.
type mockInnerAccountRepo struct {
	SaveFunc     func(ctx context.Context, accounts ...*model.UserAccount) error
	FindByIDFunc func(ctx context.Context, id int64) (*model.UserAccount, error)
	ListFunc     func(ctx context.Context) ([]*model.UserAccount, error)
	CountFunc    func(ctx context.Context) (int, error)
}

func (m *mockInnerAccountRepo) Save(ctx context.Context, accounts ...*model.UserAccount) error {
	return m.SaveFunc(ctx, accounts...)
}
func (m *mockInnerAccountRepo) FindByID(ctx context.Context, id int64) (*model.UserAccount, error) {
	return m.FindByIDFunc(ctx, id)
}
func (m *mockInnerAccountRepo) List(ctx context.Context) ([]*model.UserAccount, error) {
	return m.ListFunc(ctx)
}
func (m *mockInnerAccountRepo) Count(ctx context.Context) (int, error) {
	return m.CountFunc(ctx)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) DelIfEquals(ctx context.Context, key, value string) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return nil }
