package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"telegram-reward-bot/internal/domain"
	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/infra/logging"
	"telegram-reward-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Rewards mirrors the ledger amounts so replies quote the configured values.
type Rewards struct {
	Welcome  int64
	Referral int64
	Daily    int64
	OneTime  int64
	Currency string
}

// Links holds the public URLs replies point at.
type Links struct {
	BotUsername string
	WebAppURL   string
}

// StartReply is what /start produces. ReferrerID is set when a referral was
// applied and the referrer should receive ReferrerNotice.
type StartReply struct {
	Text           string
	ReferrerID     int64
	ReferrerNotice string
}

// BotFacade composes usecases into high-level bot commands.
// Keep the facade methods returning strings so the Telegram adapter only
// decides on keyboards and forwards the text to the chat.
type BotFacade struct {
	LedgerUC LedgerUseCaseIface
	AdminUC  AdminUseCaseIface
	ConvUC   ConversationUseCaseIface

	tr      Translator
	rewards Rewards
	links   Links
	loc     *time.Location
	log     *zerolog.Logger
}

func NewBotFacade(
	ledgerUC LedgerUseCaseIface,
	adminUC AdminUseCaseIface,
	convUC ConversationUseCaseIface,
	tr Translator,
	rewards Rewards,
	links Links,
	loc *time.Location,
	logger *zerolog.Logger,
) *BotFacade {
	if loc == nil {
		loc = time.UTC
	}
	return &BotFacade{
		LedgerUC: ledgerUC,
		AdminUC:  adminUC,
		ConvUC:   convUC,
		tr:       tr,
		rewards:  rewards,
		links:    links,
		loc:      loc,
		log:      logging.Component(logger, "BotFacade"),
	}
}

// HandleStart ensures the account exists, applies the referral payload if
// any, and returns the welcome text.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64, firstName, payload string) (StartReply, error) {
	_, created, err := b.LedgerUC.GetOrCreate(ctx, tgID)
	if err != nil {
		b.countStoreFailure("start", err)
		return StartReply{}, fmt.Errorf("get or create account: %w", err)
	}
	if created {
		metrics.IncAccountCreated()
	}

	var reply StartReply
	if payload = strings.TrimSpace(payload); payload != "" {
		res, err := b.LedgerUC.ApplyReferral(ctx, tgID, payload)
		if err != nil {
			metrics.IncReferral("error")
			b.countStoreFailure("apply_referral", err)
			return StartReply{}, fmt.Errorf("apply referral: %w", err)
		}
		metrics.IncReferral(res.Outcome.String())
		if res.Applied() {
			reply.ReferrerID = res.ReferrerID
			reply.ReferrerNotice = b.tr.T("new_referral", b.rewards.Referral, b.rewards.Currency)
		}
	}

	cur := b.rewards.Currency
	reply.Text = b.tr.T("welcome",
		escapeMarkdown(firstName),
		b.rewards.Daily, cur,
		b.rewards.Referral, cur,
		cur,
		b.rewards.Welcome, cur,
	)
	return reply, nil
}

// HandleBalance returns the balance line; inline selects the short form used
// by the callback buttons.
func (b *BotFacade) HandleBalance(ctx context.Context, tgID int64, inline bool) (string, error) {
	acc, err := b.account(ctx, tgID)
	if err != nil {
		return "", err
	}
	if inline {
		return b.tr.T("balance_inline", acc.Balance, b.rewards.Currency), nil
	}
	return b.tr.T("balance", acc.Balance, b.rewards.Currency), nil
}

func (b *BotFacade) HandleReferrals(ctx context.Context, tgID int64, inline bool) (string, error) {
	acc, err := b.account(ctx, tgID)
	if err != nil {
		return "", err
	}
	if inline {
		return b.tr.T("referrals_inline", acc.ReferralCount), nil
	}
	return b.tr.T("referrals", acc.ReferralCount), nil
}

func (b *BotFacade) HandleReferralLink(tgID int64) string {
	link := model.ReferralLink(b.links.BotUsername, tgID)
	return b.tr.T("referral_link", b.rewards.Referral, b.rewards.Currency, link)
}

// WebAppLink returns "<web app>?userId=<id>", or "" when no web app is configured.
func (b *BotFacade) WebAppLink(tgID int64) string {
	base := strings.TrimSpace(b.links.WebAppURL)
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("userId", strconv.FormatInt(tgID, 10))
	u.RawQuery = q.Encode()
	return u.String()
}

// HandleWebApp returns the prompt text and the link for the web app button.
func (b *BotFacade) HandleWebApp(tgID int64) (string, string) {
	link := b.WebAppLink(tgID)
	if link == "" {
		return b.tr.T("webapp_unavailable"), ""
	}
	return b.tr.T("webapp_prompt", b.rewards.Currency), link
}

func (b *BotFacade) HandleClaim(ctx context.Context, tgID int64) (string, error) {
	res, err := b.LedgerUC.ClaimDaily(ctx, tgID)
	if err != nil {
		metrics.IncClaim("daily", "error")
		b.countStoreFailure("claim_daily", err)
		return "", fmt.Errorf("claim daily: %w", err)
	}
	metrics.IncClaim("daily", res.Outcome.String())
	if !res.Success {
		return b.tr.T("claim_already"), nil
	}
	cur := b.rewards.Currency
	return b.tr.T("claim_success", b.rewards.Daily, cur, res.NewBalance, cur), nil
}

// HandleHowToEarn reports whether the one-time offer should be shown. Users
// who already claimed it get the "already claimed" text instead.
func (b *BotFacade) HandleHowToEarn(ctx context.Context, tgID int64) (string, bool, error) {
	acc, err := b.account(ctx, tgID)
	if err != nil {
		return "", false, err
	}
	if acc.ClaimedOneTimeReward {
		return b.tr.T("onetime_already"), false, nil
	}
	return b.tr.T("how_to_earn"), true, nil
}

func (b *BotFacade) HandleJoinChannelHint() string {
	return b.tr.T("join_channel_hint")
}

// HandleSubmitReward claims the one-time reward. claimed is true only when
// the balance was credited by this call.
func (b *BotFacade) HandleSubmitReward(ctx context.Context, tgID int64) (string, bool, error) {
	res, err := b.LedgerUC.ClaimOneTimeReward(ctx, tgID)
	if err != nil {
		metrics.IncClaim("one_time", "error")
		b.countStoreFailure("claim_one_time", err)
		return "", false, fmt.Errorf("claim one-time reward: %w", err)
	}
	metrics.IncClaim("one_time", res.Outcome.String())
	switch res.Outcome {
	case model.ClaimSucceeded:
		return b.tr.T("onetime_success", b.rewards.OneTime, b.rewards.Currency), true, nil
	case model.ClaimNotMember:
		return b.tr.T("onetime_not_member"), false, nil
	default:
		return b.tr.T("onetime_already"), false, nil
	}
}

// HandleCheckSubscriptions re-evaluates the required channels and records the
// result on the account.
func (b *BotFacade) HandleCheckSubscriptions(ctx context.Context, tgID int64) (string, model.MembershipResult, error) {
	res, err := b.LedgerUC.CheckRequiredChannels(ctx, tgID)
	if err != nil {
		metrics.IncMembershipCheck("error")
		b.countStoreFailure("record_membership", err)
		return "", res, fmt.Errorf("check required channels: %w", err)
	}
	if res.Joined {
		metrics.IncMembershipCheck("joined")
		return b.tr.T("channels_joined"), res, nil
	}
	metrics.IncMembershipCheck("missing")
	return b.tr.T("channels_missing", strings.Join(res.Channels, "\n")), res, nil
}

// HandleCheckChannels is the admin diagnostic form of the channel check.
func (b *BotFacade) HandleCheckChannels(ctx context.Context, tgID int64) (string, error) {
	if !b.AdminUC.IsAdmin(ctx, tgID) {
		metrics.IncAdminCommand("checkchannels", model.AdminUnauthorized.String())
		return b.tr.T("not_authorized"), nil
	}
	res, err := b.LedgerUC.CheckRequiredChannels(ctx, tgID)
	if err != nil {
		metrics.IncAdminCommand("checkchannels", "error")
		return "", fmt.Errorf("check required channels: %w", err)
	}
	metrics.IncAdminCommand("checkchannels", model.AdminApplied.String())
	if res.Joined {
		return b.tr.T("check_status_joined"), nil
	}
	return b.tr.T("check_status_missing"), nil
}

// HandleWalletPrompt arms the wallet capture for the next text message.
func (b *BotFacade) HandleWalletPrompt(ctx context.Context, tgID int64) (string, error) {
	if err := b.ConvUC.AwaitWalletAddress(ctx, tgID); err != nil {
		return "", fmt.Errorf("await wallet address: %w", err)
	}
	return b.tr.T("wallet_prompt"), nil
}

// HandleAddAddress serves "/addaddress [value]": without a value it prompts
// for one, with a value it saves it right away.
func (b *BotFacade) HandleAddAddress(ctx context.Context, tgID int64, arg string) (string, error) {
	prompt, err := b.HandleWalletPrompt(ctx, tgID)
	if err != nil || strings.TrimSpace(arg) == "" {
		return prompt, err
	}
	text, _, err := b.HandleText(ctx, tgID, arg)
	return text, err
}

// HandleText consumes free text for a pending conversation step. handled is
// false when no step was waiting for it.
func (b *BotFacade) HandleText(ctx context.Context, tgID int64, text string) (string, bool, error) {
	handled, err := b.ConvUC.CompleteWalletAddress(ctx, tgID, text)
	if err != nil {
		b.countStoreFailure("set_wallet", err)
		return "", handled, fmt.Errorf("save wallet address: %w", err)
	}
	if !handled {
		return "", false, nil
	}
	return b.tr.T("wallet_saved", strings.TrimSpace(text)), true, nil
}

// ---- admin commands ----

func (b *BotFacade) HandleAddAdmin(ctx context.Context, executor int64, arg string) (string, error) {
	if strings.TrimSpace(arg) == "" {
		return b.tr.T("usage_addadmin"), nil
	}
	target, _ := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	res, err := b.AdminUC.AdminAdd(ctx, executor, target)
	return b.adminReply("addadmin", res, err, "admin_added", "admin_exists", "", "usage_addadmin")
}

func (b *BotFacade) HandleAddChannel(ctx context.Context, executor int64, arg string) (string, error) {
	if strings.TrimSpace(arg) == "" {
		return b.tr.T("usage_addchannel"), nil
	}
	res, err := b.AdminUC.ChannelAdd(ctx, executor, arg)
	return b.adminReply("addchannel", res, err, "channel_added", "channel_exists", "", "usage_addchannel")
}

func (b *BotFacade) HandleRemoveChannel(ctx context.Context, executor int64, arg string) (string, error) {
	if strings.TrimSpace(arg) == "" {
		return b.tr.T("usage_removechannel"), nil
	}
	res, err := b.AdminUC.ChannelRemove(ctx, executor, arg)
	return b.adminReply("removechannel", res, err, "channel_removed", "", "channel_not_found", "usage_removechannel")
}

func (b *BotFacade) HandleListChannels(ctx context.Context, executor int64) (string, error) {
	channels, res, err := b.AdminUC.ChannelList(ctx, executor)
	if err != nil {
		metrics.IncAdminCommand("listchannels", "error")
		return "", fmt.Errorf("list channels: %w", err)
	}
	metrics.IncAdminCommand("listchannels", res.Outcome.String())
	switch {
	case res.Outcome == model.AdminUnauthorized:
		return b.tr.T("not_authorized"), nil
	case len(channels) == 0:
		return b.tr.T("channels_empty"), nil
	}
	return b.tr.T("channels_list", strings.Join(channels, "\n")), nil
}

func (b *BotFacade) HandleUserInfo(ctx context.Context, executor int64, arg string) (string, error) {
	if strings.TrimSpace(arg) == "" {
		return b.tr.T("usage_userinfo"), nil
	}
	target, _ := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	acc, res, err := b.AdminUC.UserInfo(ctx, executor, target)
	if err != nil {
		metrics.IncAdminCommand("userinfo", "error")
		return "", fmt.Errorf("user info: %w", err)
	}
	metrics.IncAdminCommand("userinfo", res.Outcome.String())
	switch res.Outcome {
	case model.AdminUnauthorized:
		return b.tr.T("not_authorized"), nil
	case model.AdminInvalidInput:
		return b.tr.T("usage_userinfo"), nil
	case model.AdminNotPresent:
		return b.tr.T("user_not_found"), nil
	}
	return b.formatUserInfo(acc), nil
}

func (b *BotFacade) formatUserInfo(acc *model.UserAccount) string {
	joined := b.tr.T("answer_no")
	if acc.HasJoinedRequiredChannels {
		joined = b.tr.T("answer_yes")
	}
	referredBy := b.tr.T("none")
	if acc.ReferredBy != nil {
		referredBy = strconv.FormatInt(*acc.ReferredBy, 10)
	}
	lastClaim := b.tr.T("never")
	if acc.LastClaimDate != nil {
		lastClaim = acc.LastClaimDate.In(b.loc).Format("2006-01-02")
	}
	wallet := b.tr.T("not_set")
	if acc.WalletAddress != "" {
		wallet = acc.WalletAddress
	}
	return b.tr.T("user_info",
		acc.ID, acc.Balance, b.rewards.Currency, acc.ReferralCount,
		joined, referredBy, lastClaim, wallet,
	)
}

// adminReply maps a mutation outcome onto its reply key. Empty keys fall back
// to the generic error text.
func (b *BotFacade) adminReply(cmd string, res model.AdminResult, err error, applied, present, absent, usage string) (string, error) {
	if err != nil {
		metrics.IncAdminCommand(cmd, "error")
		b.countStoreFailure(cmd, err)
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	metrics.IncAdminCommand(cmd, res.Outcome.String())

	key := "generic_error"
	switch res.Outcome {
	case model.AdminApplied:
		key = applied
	case model.AdminAlreadyPresent:
		key = present
	case model.AdminNotPresent:
		key = absent
	case model.AdminUnauthorized:
		return b.tr.T("not_authorized"), nil
	case model.AdminInvalidInput:
		return b.tr.T(usage), nil
	}
	if key == "" {
		key = "generic_error"
	}
	if key == "generic_error" {
		return b.tr.T(key), nil
	}
	return b.tr.T(key, res.Value), nil
}

func (b *BotFacade) account(ctx context.Context, tgID int64) (*model.UserAccount, error) {
	acc, created, err := b.LedgerUC.GetOrCreate(ctx, tgID)
	if err != nil {
		b.countStoreFailure("get_account", err)
		return nil, fmt.Errorf("get or create account: %w", err)
	}
	if created {
		metrics.IncAccountCreated()
	}
	return acc, nil
}

func (b *BotFacade) countStoreFailure(op string, err error) {
	if errors.Is(err, domain.ErrStoreWrite) {
		metrics.IncStoreWriteFailure(op)
		b.log.Error().Err(err).Str("op", op).Msg("store write failed")
	}
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }
