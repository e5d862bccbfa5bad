package application

import (
	"context"

	"telegram-reward-bot/internal/domain/model"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----
// These describe the minimal surface the facade needs so tests can pass
// light-weight mocks.
type LedgerUseCaseIface interface {
	GetOrCreate(ctx context.Context, id int64) (*model.UserAccount, bool, error)
	ApplyReferral(ctx context.Context, newUserID int64, code string) (model.ReferralResult, error)
	ClaimDaily(ctx context.Context, id int64) (model.ClaimResult, error)
	ClaimOneTimeReward(ctx context.Context, id int64) (model.ClaimResult, error)
	CheckRequiredChannels(ctx context.Context, id int64) (model.MembershipResult, error)
}

type AdminUseCaseIface interface {
	IsAdmin(ctx context.Context, id int64) bool
	AdminAdd(ctx context.Context, executor, target int64) (model.AdminResult, error)
	ChannelAdd(ctx context.Context, executor int64, channel string) (model.AdminResult, error)
	ChannelRemove(ctx context.Context, executor int64, channel string) (model.AdminResult, error)
	ChannelList(ctx context.Context, executor int64) ([]string, model.AdminResult, error)
	UserInfo(ctx context.Context, executor, target int64) (*model.UserAccount, model.AdminResult, error)
}

type ConversationUseCaseIface interface {
	AwaitWalletAddress(ctx context.Context, tgID int64) error
	CompleteWalletAddress(ctx context.Context, tgID int64, text string) (bool, error)
}

// Translator renders reply catalogue entries.
type Translator interface {
	T(key string, args ...interface{}) string
}
