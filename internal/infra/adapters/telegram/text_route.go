package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-reward-bot/internal/domain/ports/adapter"
	"telegram-reward-bot/internal/infra/metrics"
)

type textHandler func(ctx context.Context, message *tgbotapi.Message) error

// textRoutes maps the reply keyboard labels to their handlers.
func (r *RealTelegramBotAdapter) textRoutes() map[string]textHandler {
	return map[string]textHandler{
		r.tr.T("btn_balance"):       r.balanceTextRoute,
		r.tr.T("btn_referrals"):     r.referralsTextRoute,
		r.tr.T("btn_referral_link"): r.referralLinkTextRoute,
		r.tr.T("btn_rate"):          r.rateTextRoute,
		r.tr.T("btn_claim"):         r.claimTextRoute,
		r.tr.T("btn_add_wallet"):    r.walletTextRoute,
		r.tr.T("btn_open_webapp"):   r.webAppTextRoute,
	}
}

// handleText serves keyboard buttons first so a button press never ends up
// captured as conversation input. Other text goes to the pending step, if any.
func (r *RealTelegramBotAdapter) handleText(ctx context.Context, message *tgbotapi.Message) error {
	label := strings.TrimSpace(message.Text)
	if fn, ok := r.textRoutes()[label]; ok {
		metrics.IncTelegramCommand("button")
		return fn(ctx, message)
	}

	text, handled, err := r.facade.HandleText(ctx, message.From.ID, message.Text)
	if err != nil {
		return r.fail(ctx, message.Chat.ID, err)
	}
	if !handled {
		return nil
	}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      message.Chat.ID,
		Text:        text,
		ReplyMarkup: r.mainMenuKeyboard(),
	})
}

func (r *RealTelegramBotAdapter) balanceTextRoute(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleBalance(ctx, message.From.ID, false)
	if err != nil {
		return r.fail(ctx, message.Chat.ID, err)
	}
	return r.reply(ctx, message.Chat.ID, text)
}

// referralsTextRoute answers with a message that removes itself shortly after.
func (r *RealTelegramBotAdapter) referralsTextRoute(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleReferrals(ctx, message.From.ID, false)
	if err != nil {
		return r.fail(ctx, message.Chat.ID, err)
	}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      message.Chat.ID,
		Text:        text,
		DeleteAfter: r.fadeAfter,
	})
}

func (r *RealTelegramBotAdapter) referralLinkTextRoute(ctx context.Context, message *tgbotapi.Message) error {
	return r.reply(ctx, message.Chat.ID, r.facade.HandleReferralLink(message.From.ID))
}

func (r *RealTelegramBotAdapter) rateTextRoute(ctx context.Context, message *tgbotapi.Message) error {
	return r.reply(ctx, message.Chat.ID, r.tr.T("rate_prompt"))
}

func (r *RealTelegramBotAdapter) claimTextRoute(ctx context.Context, message *tgbotapi.Message) error {
	return r.sendClaim(ctx, message.From.ID, message.Chat.ID)
}

func (r *RealTelegramBotAdapter) walletTextRoute(ctx context.Context, message *tgbotapi.Message) error {
	return r.sendWalletPrompt(ctx, message.From.ID, message.Chat.ID)
}

func (r *RealTelegramBotAdapter) webAppTextRoute(ctx context.Context, message *tgbotapi.Message) error {
	return r.sendWebApp(ctx, message.From.ID, message.Chat.ID)
}
