//go:build !integration

package usecase_test

import (
	"context"
	"testing"

	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/usecase"
)

func TestStatsUseCase_Totals(t *testing.T) {
	ctx := context.Background()

	t.Run("should summarize accounts, channels and admins", func(t *testing.T) {
		ref := int64(1)
		accounts := NewMockAccountRepo()
		accounts.Seed(
			&model.UserAccount{ID: 1, Balance: 12000, ReferralCount: 1, HasJoinedRequiredChannels: true},
			&model.UserAccount{ID: 2, Balance: 11000, ReferredBy: &ref, ClaimedOneTimeReward: true, WalletAddress: "TX1"},
		)
		uc := usecase.NewStatsUseCase(accounts, NewMockChannelRepo("@a", "@b"), NewMockAdminRepo(1), newTestLogger())

		got, err := uc.Totals(ctx)
		if err != nil {
			t.Fatal(err)
		}
		want := usecase.Totals{
			Accounts:        2,
			TotalBalance:    23000,
			JoinedChannels:  1,
			ClaimedOneTime:  1,
			WithWallet:      1,
			Referred:        1,
			RequiredChannel: 2,
			Admins:          1,
		}
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("should return zeros for an empty ledger", func(t *testing.T) {
		uc := usecase.NewStatsUseCase(NewMockAccountRepo(), NewMockChannelRepo(), NewMockAdminRepo(), newTestLogger())
		got, err := uc.Totals(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got != (usecase.Totals{}) {
			t.Errorf("expected zero totals, got %+v", got)
		}
	})
}
