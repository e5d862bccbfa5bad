package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"telegram-reward-bot/internal/domain"
	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/domain/ports/adapter"
	"telegram-reward-bot/internal/domain/ports/repository"
	"telegram-reward-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// LedgerUseCase owns every mutation of a user's reward state.
type LedgerUseCase interface {
	GetOrCreate(ctx context.Context, id int64) (*model.UserAccount, bool, error)
	FindAccount(ctx context.Context, id int64) (*model.UserAccount, error)
	ApplyReferral(ctx context.Context, newUserID int64, code string) (model.ReferralResult, error)
	ClaimDaily(ctx context.Context, id int64) (model.ClaimResult, error)
	ClaimOneTimeReward(ctx context.Context, id int64) (model.ClaimResult, error)
	RecordChannelMembership(ctx context.Context, id int64, isMember bool) error
	CheckRequiredChannels(ctx context.Context, id int64) (model.MembershipResult, error)
	SetWalletAddress(ctx context.Context, id int64, address string) error
	ListAccounts(ctx context.Context) ([]*model.UserAccount, error)
	CountAccounts(ctx context.Context) (int, error)
}

// LedgerPolicy carries reward amounts and timing knobs.
type LedgerPolicy struct {
	WelcomeBonus   int64
	ReferralBonus  int64
	DailyBonus     int64
	OneTimeBonus   int64
	OneTimeChannel string

	Location      *time.Location // calendar day boundary for daily claims
	OracleTimeout time.Duration
	LockTTL       time.Duration
	Now           func() time.Time
}

func DefaultLedgerPolicy() LedgerPolicy {
	return LedgerPolicy{
		WelcomeBonus:   10000,
		ReferralBonus:  2000,
		DailyBonus:     1000,
		OneTimeBonus:   2000,
		OneTimeChannel: "@varieti02",
		Location:       time.UTC,
		OracleTimeout:  3 * time.Second,
		LockTTL:        10 * time.Second,
		Now:            time.Now,
	}
}

type ledgerUC struct {
	accounts repository.AccountRepository
	channels repository.ChannelRepository
	oracle   adapter.MembershipOracle
	notifier adapter.AccountSyncNotifier
	locker   adapter.Locker
	policy   LedgerPolicy
	log      *zerolog.Logger
}

func NewLedgerUseCase(
	accounts repository.AccountRepository,
	channels repository.ChannelRepository,
	oracle adapter.MembershipOracle,
	notifier adapter.AccountSyncNotifier,
	locker adapter.Locker,
	policy LedgerPolicy,
	logger *zerolog.Logger,
) *ledgerUC {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if policy.Now == nil {
		policy.Now = time.Now
	}
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &ledgerUC{
		accounts: accounts,
		channels: channels,
		oracle:   oracle,
		notifier: notifier,
		locker:   locker,
		policy:   policy,
		log:      logging.Component(logger, "LedgerUC"),
	}
}

func (u *ledgerUC) GetOrCreate(ctx context.Context, id int64) (*model.UserAccount, bool, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.GetOrCreate")()

	unlock, err := u.lockUsers(ctx, id)
	if err != nil {
		return nil, false, err
	}
	acc, created, err := u.loadOrCreate(ctx, id)
	if err == nil && created {
		err = u.save(ctx, "create account", acc)
	}
	unlock()
	if err != nil {
		return nil, false, err
	}

	if created {
		u.log.Info().Int64("tg_id", id).Int64("balance", acc.Balance).Msg("account created")
		u.notify(ctx, acc)
	}
	return acc.Clone(), created, nil
}

func (u *ledgerUC) FindAccount(ctx context.Context, id int64) (*model.UserAccount, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.FindAccount")()
	return u.accounts.FindByID(ctx, id)
}

func (u *ledgerUC) ApplyReferral(ctx context.Context, newUserID int64, code string) (model.ReferralResult, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.ApplyReferral")()

	referrerID, ok := model.ParseReferralCode(code)
	if !ok {
		return model.ReferralResult{Outcome: model.ReferralMalformedCode}, nil
	}
	res := model.ReferralResult{ReferrerID: referrerID}
	if referrerID == newUserID {
		res.Outcome = model.ReferralSelf
		return res, nil
	}

	unlock, err := u.lockUsers(ctx, newUserID, referrerID)
	if err != nil {
		return res, err
	}
	defer unlock()

	user, created, err := u.loadOrCreate(ctx, newUserID)
	if err != nil {
		return res, err
	}
	if user.ReferredBy != nil {
		res.Outcome = model.ReferralAlreadyReferred
		return res, nil
	}

	referrer, err := u.accounts.FindByID(ctx, referrerID)
	if errors.Is(err, domain.ErrNotFound) {
		res.Outcome = model.ReferralUnknownReferrer
		if created {
			if err := u.save(ctx, "create account", user); err != nil {
				return res, err
			}
			u.notify(ctx, user)
		}
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("load referrer %d: %w", referrerID, err)
	}

	now := u.policy.Now()
	user.SetReferrer(referrerID, now)
	referrer.ReferralCount++
	referrer.Credit(u.policy.ReferralBonus, now)

	// both records go in one batch so a failure leaves neither changed
	if err := u.save(ctx, "apply referral", user, referrer); err != nil {
		return res, err
	}

	u.log.Info().
		Int64("tg_id", newUserID).
		Int64("referrer_id", referrerID).
		Int("referral_count", referrer.ReferralCount).
		Msg("referral applied")
	u.notify(ctx, user, referrer)

	res.Outcome = model.ReferralApplied
	res.Referrer = referrer.Clone()
	return res, nil
}

func (u *ledgerUC) ClaimDaily(ctx context.Context, id int64) (model.ClaimResult, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.ClaimDaily")()

	unlock, err := u.lockUsers(ctx, id)
	if err != nil {
		return model.ClaimResult{}, err
	}
	defer unlock()

	acc, created, err := u.loadOrCreate(ctx, id)
	if err != nil {
		return model.ClaimResult{}, err
	}

	now := u.policy.Now()
	if acc.HasClaimedOn(now, u.policy.Location) {
		if created {
			if err := u.save(ctx, "create account", acc); err != nil {
				return model.ClaimResult{}, err
			}
		}
		return model.ClaimResult{Outcome: model.ClaimAlreadyClaimed, NewBalance: acc.Balance}, nil
	}

	acc.Credit(u.policy.DailyBonus, now)
	claimedAt := now
	acc.LastClaimDate = &claimedAt
	if err := u.save(ctx, "claim daily", acc); err != nil {
		return model.ClaimResult{}, err
	}
	u.notify(ctx, acc)

	return model.ClaimResult{Success: true, Outcome: model.ClaimSucceeded, NewBalance: acc.Balance}, nil
}

func (u *ledgerUC) ClaimOneTimeReward(ctx context.Context, id int64) (model.ClaimResult, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.ClaimOneTimeReward")()

	// skip the oracle round trip for users who already claimed
	if acc, err := u.accounts.FindByID(ctx, id); err == nil && acc.ClaimedOneTimeReward {
		return model.ClaimResult{Outcome: model.ClaimAlreadyClaimed, NewBalance: acc.Balance}, nil
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return model.ClaimResult{}, err
	}

	// no lock is held while the oracle is consulted
	if !u.isMember(ctx, id, u.policy.OneTimeChannel) {
		return model.ClaimResult{Outcome: model.ClaimNotMember}, nil
	}

	unlock, err := u.lockUsers(ctx, id)
	if err != nil {
		return model.ClaimResult{}, err
	}
	defer unlock()

	acc, _, err := u.loadOrCreate(ctx, id)
	if err != nil {
		return model.ClaimResult{}, err
	}
	if acc.ClaimedOneTimeReward {
		return model.ClaimResult{Outcome: model.ClaimAlreadyClaimed, NewBalance: acc.Balance}, nil
	}

	now := u.policy.Now()
	acc.Credit(u.policy.OneTimeBonus, now)
	acc.ClaimedOneTimeReward = true
	if err := u.save(ctx, "claim one-time reward", acc); err != nil {
		return model.ClaimResult{}, err
	}
	u.notify(ctx, acc)

	return model.ClaimResult{Success: true, Outcome: model.ClaimSucceeded, NewBalance: acc.Balance}, nil
}

func (u *ledgerUC) RecordChannelMembership(ctx context.Context, id int64, isMember bool) error {
	defer logging.TraceDuration(u.log, "LedgerUC.RecordChannelMembership")()

	unlock, err := u.lockUsers(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	acc, created, err := u.loadOrCreate(ctx, id)
	if err != nil {
		return err
	}
	if !created && acc.HasJoinedRequiredChannels == isMember {
		return nil
	}
	acc.HasJoinedRequiredChannels = isMember
	acc.UpdatedAt = u.policy.Now()
	if err := u.save(ctx, "record membership", acc); err != nil {
		return err
	}
	u.notify(ctx, acc)
	return nil
}

func (u *ledgerUC) CheckRequiredChannels(ctx context.Context, id int64) (model.MembershipResult, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.CheckRequiredChannels")()

	channels, err := u.channels.List(ctx)
	if err != nil {
		return model.MembershipResult{}, fmt.Errorf("list required channels: %w", err)
	}
	joined := u.checkAllRequired(ctx, id, channels)
	if err := u.RecordChannelMembership(ctx, id, joined); err != nil {
		return model.MembershipResult{Joined: joined, Channels: channels}, err
	}
	return model.MembershipResult{Joined: joined, Channels: channels}, nil
}

func (u *ledgerUC) SetWalletAddress(ctx context.Context, id int64, address string) error {
	defer logging.TraceDuration(u.log, "LedgerUC.SetWalletAddress")()

	unlock, err := u.lockUsers(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	acc, _, err := u.loadOrCreate(ctx, id)
	if err != nil {
		return err
	}
	acc.WalletAddress = address
	acc.UpdatedAt = u.policy.Now()
	if err := u.save(ctx, "set wallet address", acc); err != nil {
		return err
	}
	u.notify(ctx, acc)
	return nil
}

func (u *ledgerUC) ListAccounts(ctx context.Context) ([]*model.UserAccount, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.ListAccounts")()
	return u.accounts.List(ctx)
}

func (u *ledgerUC) CountAccounts(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.CountAccounts")()
	return u.accounts.Count(ctx)
}

// checkAllRequired is a short-circuit AND over the channel list; an empty
// list is satisfied.
func (u *ledgerUC) checkAllRequired(ctx context.Context, id int64, channels []string) bool {
	for _, ch := range channels {
		if !u.isMember(ctx, id, ch) {
			return false
		}
	}
	return true
}

// isMember asks the oracle with a bounded wait. Errors and timeouts count as
// not a member.
func (u *ledgerUC) isMember(ctx context.Context, id int64, channel string) bool {
	if u.oracle == nil || channel == "" {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, u.policy.OracleTimeout)
	defer cancel()

	ok, err := u.oracle.IsMember(cctx, id, channel)
	if err != nil {
		u.log.Warn().Err(err).Int64("tg_id", id).Str("channel", channel).Msg("membership check failed")
		return false
	}
	return ok
}

func (u *ledgerUC) loadOrCreate(ctx context.Context, id int64) (*model.UserAccount, bool, error) {
	acc, err := u.accounts.FindByID(ctx, id)
	if err == nil {
		return acc, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("load account %d: %w", id, err)
	}
	acc, err = model.NewUserAccount(id, u.policy.WelcomeBonus, u.policy.Now())
	if err != nil {
		return nil, false, err
	}
	return acc, true, nil
}

func (u *ledgerUC) save(ctx context.Context, op string, accs ...*model.UserAccount) error {
	if err := u.accounts.Save(ctx, accs...); err != nil {
		u.log.Error().Err(err).Str("op", op).Msg("account save failed")
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreWrite, err)
	}
	return nil
}

func (u *ledgerUC) notify(ctx context.Context, accs ...*model.UserAccount) {
	if u.notifier == nil {
		return
	}
	for _, a := range accs {
		u.notifier.Notify(ctx, *a.Clone())
	}
}

// lockUsers takes the per-user locks in ascending id order.
func (u *ledgerUC) lockUsers(ctx context.Context, ids ...int64) (func(), error) {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var unlocks []func()
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	var prev int64
	for i, id := range sorted {
		if i > 0 && id == prev {
			continue
		}
		prev = id
		unlock, err := u.locker.Lock(ctx, userLockKey(id), u.policy.LockTTL)
		if err != nil {
			release()
			return nil, fmt.Errorf("lock account %d: %w", id, err)
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

func userLockKey(id int64) string {
	return "ledger:user:" + strconv.FormatInt(id, 10)
}
