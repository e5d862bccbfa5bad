//go:build !integration

package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/application"
	"telegram-reward-bot/internal/domain"
	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/infra/i18n"
)

type mockLedgerUC struct {
	GetOrCreateFunc           func(ctx context.Context, id int64) (*model.UserAccount, bool, error)
	ApplyReferralFunc         func(ctx context.Context, newUserID int64, code string) (model.ReferralResult, error)
	ClaimDailyFunc            func(ctx context.Context, id int64) (model.ClaimResult, error)
	ClaimOneTimeRewardFunc    func(ctx context.Context, id int64) (model.ClaimResult, error)
	CheckRequiredChannelsFunc func(ctx context.Context, id int64) (model.MembershipResult, error)

	referralCalls int
}

func (m *mockLedgerUC) GetOrCreate(ctx context.Context, id int64) (*model.UserAccount, bool, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, id)
	}
	return &model.UserAccount{ID: id, Balance: 10000}, false, nil
}

func (m *mockLedgerUC) ApplyReferral(ctx context.Context, newUserID int64, code string) (model.ReferralResult, error) {
	m.referralCalls++
	if m.ApplyReferralFunc != nil {
		return m.ApplyReferralFunc(ctx, newUserID, code)
	}
	return model.ReferralResult{Outcome: model.ReferralMalformedCode}, nil
}

func (m *mockLedgerUC) ClaimDaily(ctx context.Context, id int64) (model.ClaimResult, error) {
	return m.ClaimDailyFunc(ctx, id)
}

func (m *mockLedgerUC) ClaimOneTimeReward(ctx context.Context, id int64) (model.ClaimResult, error) {
	return m.ClaimOneTimeRewardFunc(ctx, id)
}

func (m *mockLedgerUC) CheckRequiredChannels(ctx context.Context, id int64) (model.MembershipResult, error) {
	return m.CheckRequiredChannelsFunc(ctx, id)
}

type mockAdminUC struct {
	admins map[int64]bool

	AdminAddFunc      func(ctx context.Context, executor, target int64) (model.AdminResult, error)
	ChannelAddFunc    func(ctx context.Context, executor int64, channel string) (model.AdminResult, error)
	ChannelRemoveFunc func(ctx context.Context, executor int64, channel string) (model.AdminResult, error)
	ChannelListFunc   func(ctx context.Context, executor int64) ([]string, model.AdminResult, error)
	UserInfoFunc      func(ctx context.Context, executor, target int64) (*model.UserAccount, model.AdminResult, error)
}

func (m *mockAdminUC) IsAdmin(ctx context.Context, id int64) bool { return m.admins[id] }

func (m *mockAdminUC) AdminAdd(ctx context.Context, executor, target int64) (model.AdminResult, error) {
	return m.AdminAddFunc(ctx, executor, target)
}

func (m *mockAdminUC) ChannelAdd(ctx context.Context, executor int64, channel string) (model.AdminResult, error) {
	return m.ChannelAddFunc(ctx, executor, channel)
}

func (m *mockAdminUC) ChannelRemove(ctx context.Context, executor int64, channel string) (model.AdminResult, error) {
	return m.ChannelRemoveFunc(ctx, executor, channel)
}

func (m *mockAdminUC) ChannelList(ctx context.Context, executor int64) ([]string, model.AdminResult, error) {
	return m.ChannelListFunc(ctx, executor)
}

func (m *mockAdminUC) UserInfo(ctx context.Context, executor, target int64) (*model.UserAccount, model.AdminResult, error) {
	return m.UserInfoFunc(ctx, executor, target)
}

type mockConvUC struct {
	awaiting map[int64]bool
	saved    map[int64]string
	saveErr  error
}

func (m *mockConvUC) AwaitWalletAddress(ctx context.Context, tgID int64) error {
	m.awaiting[tgID] = true
	return nil
}

func (m *mockConvUC) CompleteWalletAddress(ctx context.Context, tgID int64, text string) (bool, error) {
	if !m.awaiting[tgID] {
		return false, nil
	}
	if m.saveErr != nil {
		return true, m.saveErr
	}
	m.saved[tgID] = strings.TrimSpace(text)
	delete(m.awaiting, tgID)
	return true, nil
}

func newFacade(t *testing.T, ledger *mockLedgerUC, admin *mockAdminUC, conv *mockConvUC) *application.BotFacade {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	if admin == nil {
		admin = &mockAdminUC{admins: map[int64]bool{}}
	}
	if conv == nil {
		conv = &mockConvUC{awaiting: map[int64]bool{}, saved: map[int64]string{}}
	}
	logger := zerolog.Nop()
	return application.NewBotFacade(ledger, admin, conv, tr,
		application.Rewards{Welcome: 10000, Referral: 2000, Daily: 1000, OneTime: 2000, Currency: "VAR"},
		application.Links{BotUsername: "variety_earn_bot", WebAppURL: "https://web.example.com/app"},
		time.UTC, &logger)
}

func TestHandleStart(t *testing.T) {
	ctx := context.Background()

	t.Run("should welcome without touching referrals when there is no payload", func(t *testing.T) {
		ledger := &mockLedgerUC{}
		f := newFacade(t, ledger, nil, nil)

		reply, err := f.HandleStart(ctx, 42, "Ann", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply.Text, "Welcome, Ann!") {
			t.Errorf("welcome text missing name: %q", reply.Text)
		}
		if !strings.Contains(reply.Text, "1000 VAR") || !strings.Contains(reply.Text, "10000 VAR") {
			t.Errorf("welcome text missing amounts: %q", reply.Text)
		}
		if ledger.referralCalls != 0 || reply.ReferrerID != 0 {
			t.Errorf("expected no referral, got calls=%d referrer=%d", ledger.referralCalls, reply.ReferrerID)
		}
	})

	t.Run("should notify the referrer when the referral is applied", func(t *testing.T) {
		ledger := &mockLedgerUC{
			ApplyReferralFunc: func(ctx context.Context, newUserID int64, code string) (model.ReferralResult, error) {
				if newUserID != 42 || code != "ref7" {
					t.Errorf("unexpected referral args %d %q", newUserID, code)
				}
				return model.ReferralResult{Outcome: model.ReferralApplied, ReferrerID: 7}, nil
			},
		}
		f := newFacade(t, ledger, nil, nil)

		reply, err := f.HandleStart(ctx, 42, "Ann", " ref7 ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.ReferrerID != 7 {
			t.Errorf("expected referrer 7, got %d", reply.ReferrerID)
		}
		if reply.ReferrerNotice != "🎉 You have a new referral! 2000 VAR has been added to your balance." {
			t.Errorf("unexpected notice %q", reply.ReferrerNotice)
		}
	})

	t.Run("should not notify anyone when the referral is a no-op", func(t *testing.T) {
		ledger := &mockLedgerUC{
			ApplyReferralFunc: func(ctx context.Context, newUserID int64, code string) (model.ReferralResult, error) {
				return model.ReferralResult{Outcome: model.ReferralAlreadyReferred, ReferrerID: 7}, nil
			},
		}
		f := newFacade(t, ledger, nil, nil)

		reply, err := f.HandleStart(ctx, 42, "Ann", "ref7")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.ReferrerID != 0 || reply.ReferrerNotice != "" {
			t.Errorf("expected no notice, got %+v", reply)
		}
	})

	t.Run("should surface store failures instead of a welcome", func(t *testing.T) {
		ledger := &mockLedgerUC{
			ApplyReferralFunc: func(ctx context.Context, newUserID int64, code string) (model.ReferralResult, error) {
				return model.ReferralResult{}, domain.ErrStoreWrite
			},
		}
		f := newFacade(t, ledger, nil, nil)

		reply, err := f.HandleStart(ctx, 42, "Ann", "ref7")
		if !errors.Is(err, domain.ErrStoreWrite) {
			t.Fatalf("expected store write error, got %v", err)
		}
		if reply.Text != "" {
			t.Errorf("expected empty reply, got %q", reply.Text)
		}
	})

	t.Run("should escape markdown in the first name", func(t *testing.T) {
		f := newFacade(t, &mockLedgerUC{}, nil, nil)
		reply, _ := f.HandleStart(ctx, 42, "a_b*c", "")
		if !strings.Contains(reply.Text, `a\_b\*c`) {
			t.Errorf("name not escaped: %q", reply.Text)
		}
	})
}

func TestHandleClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("should report the new balance on success", func(t *testing.T) {
		ledger := &mockLedgerUC{ClaimDailyFunc: func(ctx context.Context, id int64) (model.ClaimResult, error) {
			return model.ClaimResult{Success: true, Outcome: model.ClaimSucceeded, NewBalance: 11000}, nil
		}}
		f := newFacade(t, ledger, nil, nil)

		text, err := f.HandleClaim(ctx, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "You have successfully claimed today's reward of 1000 VAR! Your new balance is 11000 VAR."
		if text != want {
			t.Errorf("got %q want %q", text, want)
		}
	})

	t.Run("should tell the user the reward was already claimed", func(t *testing.T) {
		ledger := &mockLedgerUC{ClaimDailyFunc: func(ctx context.Context, id int64) (model.ClaimResult, error) {
			return model.ClaimResult{Outcome: model.ClaimAlreadyClaimed, NewBalance: 11000}, nil
		}}
		f := newFacade(t, ledger, nil, nil)

		text, _ := f.HandleClaim(ctx, 1)
		if text != "Today's reward has already been claimed." {
			t.Errorf("unexpected text %q", text)
		}
	})

	t.Run("should never report success on a store failure", func(t *testing.T) {
		ledger := &mockLedgerUC{ClaimDailyFunc: func(ctx context.Context, id int64) (model.ClaimResult, error) {
			return model.ClaimResult{}, domain.ErrStoreWrite
		}}
		f := newFacade(t, ledger, nil, nil)

		text, err := f.HandleClaim(ctx, 1)
		if err == nil || text != "" {
			t.Errorf("expected error and no text, got %q %v", text, err)
		}
	})
}

func TestHandleSubmitReward(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name    string
		res     model.ClaimResult
		want    string
		claimed bool
	}{
		{"should credit a member", model.ClaimResult{Success: true, Outcome: model.ClaimSucceeded}, "🎉 Reward claimed! 2000 VAR coins have been added to your balance.", true},
		{"should ask non-members to join", model.ClaimResult{Outcome: model.ClaimNotMember}, "⚠️ You must join the Telegram channel", false},
		{"should refuse a second claim", model.ClaimResult{Outcome: model.ClaimAlreadyClaimed}, "⚠️ You have already claimed this reward.", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := &mockLedgerUC{ClaimOneTimeRewardFunc: func(ctx context.Context, id int64) (model.ClaimResult, error) {
				return tc.res, nil
			}}
			f := newFacade(t, ledger, nil, nil)

			text, claimed, err := f.HandleSubmitReward(ctx, 5)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if claimed != tc.claimed || !strings.HasPrefix(text, tc.want) {
				t.Errorf("got (%q, %v), want prefix %q and %v", text, claimed, tc.want, tc.claimed)
			}
		})
	}
}

func TestHandleHowToEarn(t *testing.T) {
	ctx := context.Background()

	t.Run("should hide the offer once claimed", func(t *testing.T) {
		ledger := &mockLedgerUC{GetOrCreateFunc: func(ctx context.Context, id int64) (*model.UserAccount, bool, error) {
			return &model.UserAccount{ID: id, ClaimedOneTimeReward: true}, false, nil
		}}
		f := newFacade(t, ledger, nil, nil)

		_, offer, err := f.HandleHowToEarn(ctx, 5)
		if err != nil || offer {
			t.Errorf("expected no offer, got offer=%v err=%v", offer, err)
		}
	})

	t.Run("should show the offer to new users", func(t *testing.T) {
		f := newFacade(t, &mockLedgerUC{}, nil, nil)
		text, offer, _ := f.HandleHowToEarn(ctx, 5)
		if !offer || text != "Here are the platforms you can join to earn more:" {
			t.Errorf("unexpected (%q, %v)", text, offer)
		}
	})
}

func TestHandleCheckSubscriptions(t *testing.T) {
	ctx := context.Background()

	t.Run("should list the channels when one is missing", func(t *testing.T) {
		ledger := &mockLedgerUC{CheckRequiredChannelsFunc: func(ctx context.Context, id int64) (model.MembershipResult, error) {
			return model.MembershipResult{Joined: false, Channels: []string{"@a", "@b"}}, nil
		}}
		f := newFacade(t, ledger, nil, nil)

		text, res, err := f.HandleCheckSubscriptions(ctx, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Joined || !strings.HasSuffix(text, "@a\n@b") {
			t.Errorf("unexpected (%q, %+v)", text, res)
		}
	})

	t.Run("should confirm when every channel is joined", func(t *testing.T) {
		ledger := &mockLedgerUC{CheckRequiredChannelsFunc: func(ctx context.Context, id int64) (model.MembershipResult, error) {
			return model.MembershipResult{Joined: true}, nil
		}}
		f := newFacade(t, ledger, nil, nil)

		text, _, _ := f.HandleCheckSubscriptions(ctx, 3)
		if text != "You have successfully joined all required channels!" {
			t.Errorf("unexpected text %q", text)
		}
	})
}

func TestWalletConversation(t *testing.T) {
	ctx := context.Background()
	conv := &mockConvUC{awaiting: map[int64]bool{}, saved: map[int64]string{}}
	f := newFacade(t, &mockLedgerUC{}, nil, conv)

	t.Run("should ignore text when nothing is pending", func(t *testing.T) {
		_, handled, err := f.HandleText(ctx, 9, "hello")
		if err != nil || handled {
			t.Errorf("expected unhandled, got handled=%v err=%v", handled, err)
		}
	})

	t.Run("should save the address after the prompt", func(t *testing.T) {
		if _, err := f.HandleWalletPrompt(ctx, 9); err != nil {
			t.Fatalf("prompt: %v", err)
		}
		text, handled, err := f.HandleText(ctx, 9, "  TXYZ123  ")
		if err != nil || !handled {
			t.Fatalf("expected handled, got %v %v", handled, err)
		}
		if conv.saved[9] != "TXYZ123" || text != "✅ Wallet address saved: TXYZ123" {
			t.Errorf("unexpected state %q / %q", conv.saved[9], text)
		}
	})

	t.Run("should save an inline address in one step", func(t *testing.T) {
		text, err := f.HandleAddAddress(ctx, 10, "TINLINE")
		if err != nil {
			t.Fatalf("add address: %v", err)
		}
		if conv.saved[10] != "TINLINE" || conv.awaiting[10] {
			t.Errorf("unexpected state saved=%q awaiting=%v", conv.saved[10], conv.awaiting[10])
		}
		if text != "✅ Wallet address saved: TINLINE" {
			t.Errorf("unexpected reply %q", text)
		}
	})

	t.Run("should prompt when no address is given", func(t *testing.T) {
		text, err := f.HandleAddAddress(ctx, 11, "  ")
		if err != nil || text != "Copy Your USDT Wallet and Paste Here." {
			t.Fatalf("unexpected %q / %v", text, err)
		}
		if !conv.awaiting[11] {
			t.Error("expected the wallet step to be armed")
		}
	})
}

func TestAdminCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("should refuse non-admins", func(t *testing.T) {
		admin := &mockAdminUC{
			admins: map[int64]bool{},
			ChannelAddFunc: func(ctx context.Context, executor int64, channel string) (model.AdminResult, error) {
				return model.AdminResult{Outcome: model.AdminUnauthorized}, nil
			},
		}
		f := newFacade(t, &mockLedgerUC{}, admin, nil)

		text, err := f.HandleAddChannel(ctx, 2, "@news")
		if err != nil || text != "You are not authorized to use this command." {
			t.Errorf("unexpected (%q, %v)", text, err)
		}
	})

	t.Run("should print usage when the argument is missing", func(t *testing.T) {
		f := newFacade(t, &mockLedgerUC{}, nil, nil)
		text, _ := f.HandleAddAdmin(ctx, 1, " ")
		if text != "Usage: /addadmin <user id>" {
			t.Errorf("unexpected text %q", text)
		}
	})

	t.Run("should quote the normalized channel", func(t *testing.T) {
		admin := &mockAdminUC{
			admins: map[int64]bool{1: true},
			ChannelRemoveFunc: func(ctx context.Context, executor int64, channel string) (model.AdminResult, error) {
				return model.AdminResult{Outcome: model.AdminNotPresent, Value: "@news"}, nil
			},
		}
		f := newFacade(t, &mockLedgerUC{}, admin, nil)

		text, _ := f.HandleRemoveChannel(ctx, 1, "news")
		if text != "Channel @news was not found in the list." {
			t.Errorf("unexpected text %q", text)
		}
	})

	t.Run("should render user info", func(t *testing.T) {
		ref := int64(7)
		day := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
		admin := &mockAdminUC{
			admins: map[int64]bool{1: true},
			UserInfoFunc: func(ctx context.Context, executor, target int64) (*model.UserAccount, model.AdminResult, error) {
				return &model.UserAccount{ID: target, Balance: 12000, ReferralCount: 2, ReferredBy: &ref, LastClaimDate: &day},
					model.AdminResult{Outcome: model.AdminApplied}, nil
			},
		}
		f := newFacade(t, &mockLedgerUC{}, admin, nil)

		text, err := f.HandleUserInfo(ctx, 1, "55")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"User ID: 55", "Balance: 12000 VAR", "Joined Channels: No", "Referred By: 7", "Last Claim Date: 2024-03-09", "Wallet Address: Not set"} {
			if !strings.Contains(text, want) {
				t.Errorf("missing %q in %q", want, text)
			}
		}
	})

	t.Run("should gate the channel check on admin rights", func(t *testing.T) {
		f := newFacade(t, &mockLedgerUC{}, nil, nil)
		text, _ := f.HandleCheckChannels(ctx, 3)
		if text != "You are not authorized to use this command." {
			t.Errorf("unexpected text %q", text)
		}
	})
}

func TestWebAppLink(t *testing.T) {
	f := newFacade(t, &mockLedgerUC{}, nil, nil)
	if got := f.WebAppLink(12); got != "https://web.example.com/app?userId=12" {
		t.Errorf("unexpected link %q", got)
	}
	if got := f.HandleReferralLink(12); !strings.HasSuffix(got, "https://t.me/variety_earn_bot?start=ref12") {
		t.Errorf("unexpected referral link %q", got)
	}
}
