package telegram

import (
	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/domain/ports/adapter"
)

// Callback data understood by cbRoutes.
const (
	cbBalance            = "balance"
	cbReferrals          = "referrals"
	cbClaimReward        = "claim_reward"
	cbHowToEarn          = "how_to_earn"
	cbJoinChannel        = "join_channel"
	cbSubmitReward       = "submit_reward"
	cbCheckSubscriptions = "check_subscriptions"
)

// startKeyboard is the inline menu under the welcome message.
func (r *RealTelegramBotAdapter) startKeyboard(tgID int64) *adapter.ReplyMarkup {
	rows := [][]adapter.InlineButton{
		{{Text: r.tr.T("btn_balance"), Data: cbBalance}},
		{{Text: r.tr.T("btn_referrals"), Data: cbReferrals}},
		{{Text: r.tr.T("btn_claim"), Data: cbClaimReward}},
	}
	if link := r.facade.WebAppLink(tgID); link != "" {
		rows = append(rows, []adapter.InlineButton{{Text: r.tr.T("btn_open_webapp"), URL: link}})
	}
	rows = append(rows, []adapter.InlineButton{{Text: r.tr.T("btn_how_to_earn"), Data: cbHowToEarn}})
	return &adapter.ReplyMarkup{Buttons: rows, IsInline: true}
}

// mainMenuKeyboard is the persistent reply keyboard; its labels are matched
// by textRoutes.
func (r *RealTelegramBotAdapter) mainMenuKeyboard() *adapter.ReplyMarkup {
	return &adapter.ReplyMarkup{Buttons: [][]adapter.InlineButton{
		{{Text: r.tr.T("btn_balance")}, {Text: r.tr.T("btn_referrals")}},
		{{Text: r.tr.T("btn_referral_link")}, {Text: r.tr.T("btn_rate")}},
		{{Text: r.tr.T("btn_add_wallet")}, {Text: r.tr.T("btn_open_webapp")}},
		{{Text: r.tr.T("btn_claim")}},
	}}
}

// channelsKeyboard links every required channel and ends with Submit.
func (r *RealTelegramBotAdapter) channelsKeyboard(channels []string) *adapter.ReplyMarkup {
	rows := make([][]adapter.InlineButton, 0, len(channels)+1)
	for i, ch := range channels {
		rows = append(rows, []adapter.InlineButton{{Text: r.tr.T("btn_channel", i+1), URL: model.ChannelURL(ch)}})
	}
	rows = append(rows, []adapter.InlineButton{{Text: r.tr.T("btn_submit"), Data: cbCheckSubscriptions}})
	return &adapter.ReplyMarkup{Buttons: rows, IsInline: true}
}

// earnKeyboard lists the follow links and the one-time channel above Submit.
func (r *RealTelegramBotAdapter) earnKeyboard() *adapter.ReplyMarkup {
	rows := make([][]adapter.InlineButton, 0, len(r.opts.FollowLinks)+2)
	for _, link := range r.opts.FollowLinks {
		rows = append(rows, []adapter.InlineButton{{Text: r.tr.T("btn_follow"), URL: link}})
	}
	if r.opts.OneTimeChannel != "" {
		rows = append(rows, []adapter.InlineButton{{Text: r.tr.T("btn_join_telegram"), URL: model.ChannelURL(r.opts.OneTimeChannel)}})
	}
	rows = append(rows, []adapter.InlineButton{{Text: r.tr.T("btn_submit"), Data: cbSubmitReward}})
	return &adapter.ReplyMarkup{Buttons: rows, IsInline: true}
}

func (r *RealTelegramBotAdapter) webAppKeyboard(link string) *adapter.ReplyMarkup {
	return &adapter.ReplyMarkup{
		Buttons:  [][]adapter.InlineButton{{{Text: r.tr.T("btn_open_webapp"), URL: link}}},
		IsInline: true,
	}
}
