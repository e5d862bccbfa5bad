//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/domain"
	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/domain/ports/adapter"
	"telegram-reward-bot/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// fixedClock returns a settable clock for day-boundary tests.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{now: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// =============================
// Adapters
// =============================

// ---- Mock MembershipOracle ----

type MockOracle struct {
	mu      sync.Mutex
	members map[string]map[int64]bool
	Calls   int

	IsMemberFunc func(ctx context.Context, userID int64, channel string) (bool, error)
}

var _ adapter.MembershipOracle = (*MockOracle)(nil)

func NewMockOracle() *MockOracle {
	return &MockOracle{members: map[string]map[int64]bool{}}
}

func (m *MockOracle) Join(channel string, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[channel] == nil {
		m.members[channel] = map[int64]bool{}
	}
	m.members[channel][userID] = true
}

func (m *MockOracle) IsMember(ctx context.Context, userID int64, channel string) (bool, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.IsMemberFunc != nil {
		return m.IsMemberFunc(ctx, userID, channel)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[channel][userID], nil
}

// ---- Mock AccountSyncNotifier ----

type MockNotifier struct {
	mu        sync.Mutex
	Snapshots []model.UserAccount
}

var _ adapter.AccountSyncNotifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(ctx context.Context, snapshot model.UserAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Snapshots = append(m.Snapshots, snapshot)
}

func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Snapshots)
}

// =============================
// Repositories
// =============================

// ---- Mock AccountRepository ----

type MockAccountRepo struct {
	mu   sync.Mutex
	byID map[int64]*model.UserAccount

	SaveFunc     func(ctx context.Context, accounts ...*model.UserAccount) error
	FindByIDFunc func(ctx context.Context, id int64) (*model.UserAccount, error)
}

var _ repository.AccountRepository = (*MockAccountRepo)(nil)

func NewMockAccountRepo() *MockAccountRepo {
	return &MockAccountRepo{byID: map[int64]*model.UserAccount{}}
}

func (r *MockAccountRepo) Seed(accs ...*model.UserAccount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range accs {
		r.byID[a.ID] = a.Clone()
	}
}

func (r *MockAccountRepo) Get(id int64) *model.UserAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].Clone()
}

func (r *MockAccountRepo) FindByID(ctx context.Context, id int64) (*model.UserAccount, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byID[id]; ok {
		return a.Clone(), nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockAccountRepo) Save(ctx context.Context, accounts ...*model.UserAccount) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, accounts...)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range accounts {
		r.byID[a.ID] = a.Clone()
	}
	return nil
}

func (r *MockAccountRepo) List(ctx context.Context) ([]*model.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.UserAccount, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MockAccountRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

// ---- Mock AdminRepository ----

type MockAdminRepo struct {
	mu  sync.Mutex
	ids []int64

	ContainsFunc func(ctx context.Context, id int64) (bool, error)
	AddFunc      func(ctx context.Context, id int64) (bool, error)
}

var _ repository.AdminRepository = (*MockAdminRepo)(nil)

func NewMockAdminRepo(ids ...int64) *MockAdminRepo {
	return &MockAdminRepo{ids: append([]int64(nil), ids...)}
}

func (r *MockAdminRepo) List(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.ids...), nil
}

func (r *MockAdminRepo) Contains(ctx context.Context, id int64) (bool, error) {
	if r.ContainsFunc != nil {
		return r.ContainsFunc(ctx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.ids {
		if v == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *MockAdminRepo) Add(ctx context.Context, id int64) (bool, error) {
	if r.AddFunc != nil {
		return r.AddFunc(ctx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.ids {
		if v == id {
			return false, nil
		}
	}
	r.ids = append(r.ids, id)
	return true, nil
}

// ---- Mock ChannelRepository ----

type MockChannelRepo struct {
	mu       sync.Mutex
	channels []string

	ListFunc func(ctx context.Context) ([]string, error)
}

var _ repository.ChannelRepository = (*MockChannelRepo)(nil)

func NewMockChannelRepo(channels ...string) *MockChannelRepo {
	return &MockChannelRepo{channels: append([]string(nil), channels...)}
}

func (r *MockChannelRepo) List(ctx context.Context) ([]string, error) {
	if r.ListFunc != nil {
		return r.ListFunc(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.channels...), nil
}

func (r *MockChannelRepo) Add(ctx context.Context, channel string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.channels {
		if c == channel {
			return false, nil
		}
	}
	r.channels = append(r.channels, channel)
	return true, nil
}

func (r *MockChannelRepo) Remove(ctx context.Context, channel string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.channels {
		if c == channel {
			r.channels = append(r.channels[:i], r.channels[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ---- Mock StateRepository ----

type MockConversationStateRepo struct {
	mu     sync.Mutex
	states map[int64]*repository.ConversationState
}

var _ repository.StateRepository = (*MockConversationStateRepo)(nil)

func NewMockConversationStateRepo() *MockConversationStateRepo {
	return &MockConversationStateRepo{states: map[int64]*repository.ConversationState{}}
}

func (m *MockConversationStateRepo) SetState(ctx context.Context, tgID int64, state *repository.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.states[tgID] = &cp
	return nil
}

func (m *MockConversationStateRepo) GetState(ctx context.Context, tgID int64) (*repository.ConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[tgID]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, nil
}

func (m *MockConversationStateRepo) ClearState(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, tgID)
	return nil
}
