package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/domain/ports/repository"
	"telegram-reward-bot/internal/infra/logging"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Totals is a point-in-time summary of the ledger.
type Totals struct {
	Accounts        int   `json:"accounts"`
	TotalBalance    int64 `json:"total_balance"`
	JoinedChannels  int   `json:"joined_channels"`
	ClaimedOneTime  int   `json:"claimed_one_time"`
	WithWallet      int   `json:"with_wallet"`
	Referred        int   `json:"referred"`
	RequiredChannel int   `json:"required_channels"`
	Admins          int   `json:"admins"`
}

type StatsUseCase interface {
	Totals(ctx context.Context) (Totals, error)
}

type statsUC struct {
	accounts repository.AccountRepository
	channels repository.ChannelRepository
	admins   repository.AdminRepository

	log *zerolog.Logger
}

func NewStatsUseCase(accounts repository.AccountRepository, channels repository.ChannelRepository, admins repository.AdminRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{accounts: accounts, channels: channels, admins: admins, log: logging.Component(logger, "StatsUseCase")}
}

func (s *statsUC) Totals(ctx context.Context) (Totals, error) {
	defer logging.TraceDuration(s.log, "StatsUC.Totals")()

	var t Totals
	accs, err := s.accounts.List(ctx)
	if err != nil {
		return t, fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accs {
		t.Accounts++
		t.TotalBalance += a.Balance
		if a.HasJoinedRequiredChannels {
			t.JoinedChannels++
		}
		if a.ClaimedOneTimeReward {
			t.ClaimedOneTime++
		}
		if a.WalletAddress != "" {
			t.WithWallet++
		}
		if a.ReferredBy != nil {
			t.Referred++
		}
	}

	chans, err := s.channels.List(ctx)
	if err != nil {
		return t, fmt.Errorf("list channels: %w", err)
	}
	t.RequiredChannel = len(chans)

	admins, err := s.admins.List(ctx)
	if err != nil {
		return t, fmt.Errorf("list admins: %w", err)
	}
	t.Admins = len(admins)
	return t, nil
}
