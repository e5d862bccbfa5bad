package model

import (
	"time"

	"telegram-reward-bot/internal/domain"
)

// UserAccount is the reward state the ledger keeps for one Telegram user.
type UserAccount struct {
	ID                        int64      `json:"id"`
	Balance                   int64      `json:"balance"`
	ReferralCount             int        `json:"referralCount"`
	ReferredBy                *int64     `json:"referredBy,omitempty"`
	HasJoinedRequiredChannels bool       `json:"hasJoinedRequiredChannels"`
	LastClaimDate             *time.Time `json:"lastClaimDate,omitempty"` // only the calendar day is significant
	ClaimedOneTimeReward      bool       `json:"claimedOneTimeReward"`
	WalletAddress             string     `json:"walletAddress,omitempty"`
	CreatedAt                 time.Time  `json:"createdAt"`
	UpdatedAt                 time.Time  `json:"updatedAt"`
}

func NewUserAccount(id int64, welcomeBonus int64, now time.Time) (*UserAccount, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if welcomeBonus < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &UserAccount{
		ID:        id,
		Balance:   welcomeBonus,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (a *UserAccount) Clone() *UserAccount {
	if a == nil {
		return nil
	}
	cp := *a
	if a.ReferredBy != nil {
		v := *a.ReferredBy
		cp.ReferredBy = &v
	}
	if a.LastClaimDate != nil {
		v := *a.LastClaimDate
		cp.LastClaimDate = &v
	}
	return &cp
}

// HasClaimedOn reports whether the last daily claim falls on the same calendar
// day as day, both evaluated in loc.
func (a *UserAccount) HasClaimedOn(day time.Time, loc *time.Location) bool {
	if a.LastClaimDate == nil {
		return false
	}
	return SameDay(*a.LastClaimDate, day, loc)
}

// Credit adds amount to the balance. Amounts are never negative.
func (a *UserAccount) Credit(amount int64, now time.Time) {
	if amount <= 0 {
		return
	}
	a.Balance += amount
	a.UpdatedAt = now
}

// SetReferrer links the account to its referrer. It is a no-op once set.
func (a *UserAccount) SetReferrer(referrerID int64, now time.Time) bool {
	if a.ReferredBy != nil || referrerID == a.ID || referrerID <= 0 {
		return false
	}
	id := referrerID
	a.ReferredBy = &id
	a.UpdatedAt = now
	return true
}

func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
