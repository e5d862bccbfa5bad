package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-reward-bot/internal/domain"
	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/domain/ports/adapter"
	"telegram-reward-bot/internal/domain/ports/repository"
	"telegram-reward-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

var _ AdminUseCase = (*adminUC)(nil)

const (
	adminsLockKey   = "ledger:admins"
	channelsLockKey = "ledger:channels"

	defaultAdminLockTTL = 10 * time.Second
)

// AdminUseCase manages the admin set and the required channel list. Every
// operation taking an executor checks it against the admin set first.
type AdminUseCase interface {
	IsAdmin(ctx context.Context, id int64) bool
	SeedAdmins(ctx context.Context, ids []int64) error
	AdminAdd(ctx context.Context, executor, target int64) (model.AdminResult, error)
	ChannelAdd(ctx context.Context, executor int64, channel string) (model.AdminResult, error)
	ChannelRemove(ctx context.Context, executor int64, channel string) (model.AdminResult, error)
	ChannelList(ctx context.Context, executor int64) ([]string, model.AdminResult, error)
	UserInfo(ctx context.Context, executor, target int64) (*model.UserAccount, model.AdminResult, error)
}

type adminUC struct {
	admins   repository.AdminRepository
	channels repository.ChannelRepository
	accounts repository.AccountRepository
	locker   adapter.Locker
	log      *zerolog.Logger
}

func NewAdminUseCase(
	admins repository.AdminRepository,
	channels repository.ChannelRepository,
	accounts repository.AccountRepository,
	locker adapter.Locker,
	logger *zerolog.Logger,
) *adminUC {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &adminUC{
		admins:   admins,
		channels: channels,
		accounts: accounts,
		locker:   locker,
		log:      logging.Component(logger, "AdminUC"),
	}
}

// IsAdmin fails closed: a store error means not an admin.
func (u *adminUC) IsAdmin(ctx context.Context, id int64) bool {
	ok, err := u.admins.Contains(ctx, id)
	if err != nil {
		u.log.Error().Err(err).Int64("tg_id", id).Msg("admin lookup failed")
		return false
	}
	return ok
}

// SeedAdmins bootstraps the admin set from configuration.
func (u *adminUC) SeedAdmins(ctx context.Context, ids []int64) error {
	defer logging.TraceDuration(u.log, "AdminUC.SeedAdmins")()

	unlock, err := u.locker.Lock(ctx, adminsLockKey, defaultAdminLockTTL)
	if err != nil {
		return err
	}
	defer unlock()

	for _, id := range ids {
		if id <= 0 {
			continue
		}
		added, err := u.admins.Add(ctx, id)
		if err != nil {
			return fmt.Errorf("seed admin %d: %w: %w", id, domain.ErrStoreWrite, err)
		}
		if added {
			u.log.Info().Int64("tg_id", id).Msg("admin seeded")
		}
	}
	return nil
}

func (u *adminUC) AdminAdd(ctx context.Context, executor, target int64) (model.AdminResult, error) {
	defer logging.TraceDuration(u.log, "AdminUC.AdminAdd")()

	if !u.IsAdmin(ctx, executor) {
		return model.AdminResult{Outcome: model.AdminUnauthorized}, nil
	}
	if target <= 0 {
		return model.AdminResult{Outcome: model.AdminInvalidInput}, nil
	}
	res := model.AdminResult{Value: fmt.Sprint(target)}

	unlock, err := u.locker.Lock(ctx, adminsLockKey, defaultAdminLockTTL)
	if err != nil {
		return res, err
	}
	defer unlock()

	added, err := u.admins.Add(ctx, target)
	if err != nil {
		return res, fmt.Errorf("add admin: %w: %w", domain.ErrStoreWrite, err)
	}
	if !added {
		res.Outcome = model.AdminAlreadyPresent
		return res, nil
	}
	u.log.Info().Int64("executor", executor).Int64("tg_id", target).Msg("admin added")
	res.Outcome = model.AdminApplied
	return res, nil
}

func (u *adminUC) ChannelAdd(ctx context.Context, executor int64, channel string) (model.AdminResult, error) {
	defer logging.TraceDuration(u.log, "AdminUC.ChannelAdd")()
	return u.mutateChannels(ctx, executor, channel, u.channels.Add, model.AdminAlreadyPresent, "channel added")
}

func (u *adminUC) ChannelRemove(ctx context.Context, executor int64, channel string) (model.AdminResult, error) {
	defer logging.TraceDuration(u.log, "AdminUC.ChannelRemove")()
	return u.mutateChannels(ctx, executor, channel, u.channels.Remove, model.AdminNotPresent, "channel removed")
}

func (u *adminUC) mutateChannels(
	ctx context.Context,
	executor int64,
	raw string,
	op func(context.Context, string) (bool, error),
	noop model.AdminOutcome,
	msg string,
) (model.AdminResult, error) {
	if !u.IsAdmin(ctx, executor) {
		return model.AdminResult{Outcome: model.AdminUnauthorized}, nil
	}
	channel, ok := model.NormalizeChannel(raw)
	if !ok {
		return model.AdminResult{Outcome: model.AdminInvalidInput}, nil
	}
	res := model.AdminResult{Value: channel}

	unlock, err := u.locker.Lock(ctx, channelsLockKey, defaultAdminLockTTL)
	if err != nil {
		return res, err
	}
	defer unlock()

	changed, err := op(ctx, channel)
	if err != nil {
		return res, fmt.Errorf("update channels: %w: %w", domain.ErrStoreWrite, err)
	}
	if !changed {
		res.Outcome = noop
		return res, nil
	}
	u.log.Info().Int64("executor", executor).Str("channel", channel).Msg(msg)
	res.Outcome = model.AdminApplied
	return res, nil
}

func (u *adminUC) ChannelList(ctx context.Context, executor int64) ([]string, model.AdminResult, error) {
	defer logging.TraceDuration(u.log, "AdminUC.ChannelList")()

	if !u.IsAdmin(ctx, executor) {
		return nil, model.AdminResult{Outcome: model.AdminUnauthorized}, nil
	}
	channels, err := u.channels.List(ctx)
	if err != nil {
		return nil, model.AdminResult{}, fmt.Errorf("list channels: %w", err)
	}
	return channels, model.AdminResult{Outcome: model.AdminApplied}, nil
}

func (u *adminUC) UserInfo(ctx context.Context, executor, target int64) (*model.UserAccount, model.AdminResult, error) {
	defer logging.TraceDuration(u.log, "AdminUC.UserInfo")()

	if !u.IsAdmin(ctx, executor) {
		return nil, model.AdminResult{Outcome: model.AdminUnauthorized}, nil
	}
	if target <= 0 {
		return nil, model.AdminResult{Outcome: model.AdminInvalidInput}, nil
	}
	acc, err := u.accounts.FindByID(ctx, target)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, model.AdminResult{Outcome: model.AdminNotPresent}, nil
	}
	if err != nil {
		return nil, model.AdminResult{}, err
	}
	return acc, model.AdminResult{Outcome: model.AdminApplied}, nil
}
