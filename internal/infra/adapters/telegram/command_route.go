package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-reward-bot/internal/domain/ports/adapter"
	"telegram-reward-bot/internal/infra/logging"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message, args string) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":      r.handleStartCommand,
		"balance":    r.handleBalanceCommand,
		"referrals":  r.handleReferralsCommand,
		"claim":      r.handleClaimCommand,
		"webapp":     r.handleWebAppCommand,
		"addaddress": r.handleAddAddressCommand,

		// Authorization happens in the admin usecase; these only adapt replies.
		"addadmin":      r.adminRoute(r.facade.HandleAddAdmin),
		"addchannel":    r.adminRoute(r.facade.HandleAddChannel),
		"removechannel": r.adminRoute(r.facade.HandleRemoveChannel),
		"userinfo":      r.adminRoute(r.facade.HandleUserInfo),
		"listchannels": r.adminRoute(func(ctx context.Context, executor int64, _ string) (string, error) {
			return r.facade.HandleListChannels(ctx, executor)
		}),
		"checkchannels": r.adminRoute(func(ctx context.Context, executor int64, _ string) (string, error) {
			return r.facade.HandleCheckChannels(ctx, executor)
		}),
	}
}

func (r *RealTelegramBotAdapter) adminRoute(fn func(ctx context.Context, executor int64, args string) (string, error)) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message, args string) error {
		text, err := fn(ctx, message.From.ID, args)
		if err != nil {
			return r.fail(ctx, message.Chat.ID, err)
		}
		return r.reply(ctx, message.Chat.ID, text)
	}
}

// handleStartCommand creates the account, applies a "ref<id>" payload and
// greets the user with the start menu.
func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message, args string) error {
	res, err := r.facade.HandleStart(ctx, message.From.ID, message.From.FirstName, args)
	if err != nil {
		return r.fail(ctx, message.Chat.ID, err)
	}

	isAdmin := r.facade.AdminUC.IsAdmin(ctx, message.From.ID)
	if err := r.SetMenuCommands(ctx, message.Chat.ID, isAdmin); err != nil {
		// Log the error but don't block the user
		logging.With(ctx, r.log).Warn().Err(err).Msg("failed to set chat menu commands")
	}

	if res.ReferrerID != 0 {
		if err := r.reply(ctx, res.ReferrerID, res.ReferrerNotice); err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Int64("referrer_id", res.ReferrerID).Msg("referral notice not delivered")
		}
	}

	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      message.Chat.ID,
		Text:        res.Text,
		ParseMode:   tgbotapi.ModeMarkdown,
		ReplyMarkup: r.startKeyboard(message.From.ID),
	})
}

func (r *RealTelegramBotAdapter) handleBalanceCommand(ctx context.Context, message *tgbotapi.Message, _ string) error {
	text, err := r.facade.HandleBalance(ctx, message.From.ID, false)
	if err != nil {
		return r.fail(ctx, message.Chat.ID, err)
	}
	return r.reply(ctx, message.Chat.ID, text)
}

func (r *RealTelegramBotAdapter) handleReferralsCommand(ctx context.Context, message *tgbotapi.Message, _ string) error {
	text, err := r.facade.HandleReferrals(ctx, message.From.ID, false)
	if err != nil {
		return r.fail(ctx, message.Chat.ID, err)
	}
	return r.reply(ctx, message.Chat.ID, text)
}

func (r *RealTelegramBotAdapter) handleClaimCommand(ctx context.Context, message *tgbotapi.Message, _ string) error {
	return r.sendClaim(ctx, message.From.ID, message.Chat.ID)
}

func (r *RealTelegramBotAdapter) handleWebAppCommand(ctx context.Context, message *tgbotapi.Message, _ string) error {
	return r.sendWebApp(ctx, message.From.ID, message.Chat.ID)
}

func (r *RealTelegramBotAdapter) handleAddAddressCommand(ctx context.Context, message *tgbotapi.Message, args string) error {
	if args == "" {
		return r.sendWalletPrompt(ctx, message.From.ID, message.Chat.ID)
	}
	text, err := r.facade.HandleAddAddress(ctx, message.From.ID, args)
	if err != nil {
		return r.fail(ctx, message.Chat.ID, err)
	}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      message.Chat.ID,
		Text:        text,
		ReplyMarkup: r.mainMenuKeyboard(),
	})
}

// ---- shared by commands, callbacks and text buttons ----

func (r *RealTelegramBotAdapter) sendClaim(ctx context.Context, tgID, chatID int64) error {
	text, err := r.facade.HandleClaim(ctx, tgID)
	if err != nil {
		return r.fail(ctx, chatID, err)
	}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: r.mainMenuKeyboard(),
	})
}

func (r *RealTelegramBotAdapter) sendWebApp(ctx context.Context, tgID, chatID int64) error {
	text, link := r.facade.HandleWebApp(tgID)
	params := adapter.SendMessageParams{ChatID: chatID, Text: text}
	if link != "" {
		params.ReplyMarkup = r.webAppKeyboard(link)
	}
	return r.SendMessage(ctx, params)
}

func (r *RealTelegramBotAdapter) sendWalletPrompt(ctx context.Context, tgID, chatID int64) error {
	text, err := r.facade.HandleWalletPrompt(ctx, tgID)
	if err != nil {
		return r.fail(ctx, chatID, err)
	}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: r.mainMenuKeyboard(),
	})
}
