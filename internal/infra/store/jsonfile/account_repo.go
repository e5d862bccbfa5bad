package jsonfile

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"telegram-reward-bot/internal/domain"
	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/domain/ports/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

// UserRecord is one entry of users.json. Field names follow the legacy file.
type UserRecord struct {
	Balance              int64      `json:"balance"`
	Referrals            int        `json:"referrals"`
	JoinedChannels       bool       `json:"joinedChannels"`
	ReferredBy           *FlexID    `json:"referredBy"`
	LastClaimDate        *time.Time `json:"lastClaimDate"`
	ClaimedOneTimeReward bool       `json:"claimedOneTimeReward,omitempty"`
	ClaimedReward        bool       `json:"claimedReward,omitempty"` // legacy name of the one-time flag
	WalletAddress        string     `json:"walletAddress,omitempty"`
	CreatedAt            *time.Time `json:"createdAt,omitempty"`
	UpdatedAt            *time.Time `json:"updatedAt,omitempty"`
}

// FlexID decodes an id written either as a JSON number or as a string.
type FlexID int64

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		b = []byte(s)
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("id %q: %w", b, err)
	}
	*f = FlexID(v)
	return nil
}

// Users is the decoded users.json document.
type Users map[string]*UserRecord

func (u Users) Account(key string) (*model.UserAccount, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("user key %q: %w", key, domain.ErrInvalidArgument)
	}
	rec := u[key]
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec.toModel(id), nil
}

// Accounts converts every well-formed entry, skipping keys that are not ids.
func (u Users) Accounts() []*model.UserAccount {
	out := make([]*model.UserAccount, 0, len(u))
	for key := range u {
		acc, err := u.Account(key)
		if err != nil {
			continue
		}
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *UserRecord) toModel(id int64) *model.UserAccount {
	acc := &model.UserAccount{
		ID:                        id,
		Balance:                   r.Balance,
		ReferralCount:             r.Referrals,
		HasJoinedRequiredChannels: r.JoinedChannels,
		ClaimedOneTimeReward:      r.ClaimedOneTimeReward || r.ClaimedReward,
		WalletAddress:             r.WalletAddress,
	}
	if r.ReferredBy != nil && *r.ReferredBy > 0 {
		v := int64(*r.ReferredBy)
		acc.ReferredBy = &v
	}
	if r.LastClaimDate != nil {
		v := *r.LastClaimDate
		acc.LastClaimDate = &v
	}
	if r.CreatedAt != nil {
		acc.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		acc.UpdatedAt = *r.UpdatedAt
	}
	return acc
}

func recordFromModel(a *model.UserAccount) *UserRecord {
	rec := &UserRecord{
		Balance:              a.Balance,
		Referrals:            a.ReferralCount,
		JoinedChannels:       a.HasJoinedRequiredChannels,
		ClaimedOneTimeReward: a.ClaimedOneTimeReward,
		ClaimedReward:        a.ClaimedOneTimeReward,
		WalletAddress:        a.WalletAddress,
	}
	if a.ReferredBy != nil {
		v := FlexID(*a.ReferredBy)
		rec.ReferredBy = &v
	}
	if a.LastClaimDate != nil {
		v := *a.LastClaimDate
		rec.LastClaimDate = &v
	}
	if !a.CreatedAt.IsZero() {
		v := a.CreatedAt
		rec.CreatedAt = &v
	}
	if !a.UpdatedAt.IsZero() {
		v := a.UpdatedAt
		rec.UpdatedAt = &v
	}
	return rec
}

type AccountRepo struct {
	s *Store
}

func (r *AccountRepo) loadUsers() (Users, error) {
	users := Users{}
	if err := r.s.load(UsersFile, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = Users{}
	}
	return users, nil
}

func (r *AccountRepo) FindByID(ctx context.Context, id int64) (*model.UserAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	users, err := r.loadUsers()
	r.s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return users.Account(strconv.FormatInt(id, 10))
}

// Save merges accounts into the file in a single rewrite.
func (r *AccountRepo) Save(ctx context.Context, accounts ...*model.UserAccount) error {
	if len(accounts) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users, err := r.loadUsers()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if a == nil || a.ID <= 0 {
			return domain.ErrInvalidArgument
		}
		users[strconv.FormatInt(a.ID, 10)] = recordFromModel(a)
	}
	return r.s.write(UsersFile, users)
}

func (r *AccountRepo) List(ctx context.Context) ([]*model.UserAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	users, err := r.loadUsers()
	r.s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return users.Accounts(), nil
}

func (r *AccountRepo) Count(ctx context.Context) (int, error) {
	accs, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(accs), nil
}
