package telegram

import (
	"context"

	"telegram-reward-bot/internal/domain/ports/adapter"
	"telegram-reward-bot/internal/infra/logging"
)

// callback is the part of a CallbackQuery the handlers need.
type callback struct {
	UserID    int64
	ChatID    int64
	MessageID int // message carrying the pressed button, 0 if unknown
	Data      string
}

type cbHandler func(ctx context.Context, cb callback) error

func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		cbBalance:            r.balanceCBRoute,
		cbReferrals:          r.referralsCBRoute,
		cbClaimReward:        r.claimCBRoute,
		cbHowToEarn:          r.howToEarnCBRoute,
		cbJoinChannel:        r.joinChannelCBRoute,
		cbSubmitReward:       r.submitRewardCBRoute,
		cbCheckSubscriptions: r.checkSubscriptionsCBRoute,
	}
}

func (r *RealTelegramBotAdapter) balanceCBRoute(ctx context.Context, cb callback) error {
	text, err := r.facade.HandleBalance(ctx, cb.UserID, true)
	if err != nil {
		return r.fail(ctx, cb.ChatID, err)
	}
	return r.reply(ctx, cb.ChatID, text)
}

func (r *RealTelegramBotAdapter) referralsCBRoute(ctx context.Context, cb callback) error {
	text, err := r.facade.HandleReferrals(ctx, cb.UserID, true)
	if err != nil {
		return r.fail(ctx, cb.ChatID, err)
	}
	return r.reply(ctx, cb.ChatID, text)
}

func (r *RealTelegramBotAdapter) claimCBRoute(ctx context.Context, cb callback) error {
	return r.sendClaim(ctx, cb.UserID, cb.ChatID)
}

func (r *RealTelegramBotAdapter) howToEarnCBRoute(ctx context.Context, cb callback) error {
	text, offer, err := r.facade.HandleHowToEarn(ctx, cb.UserID)
	if err != nil {
		return r.fail(ctx, cb.ChatID, err)
	}
	params := adapter.SendMessageParams{ChatID: cb.ChatID, Text: text}
	if offer {
		params.ReplyMarkup = r.earnKeyboard()
	}
	return r.SendMessage(ctx, params)
}

func (r *RealTelegramBotAdapter) joinChannelCBRoute(ctx context.Context, cb callback) error {
	return r.reply(ctx, cb.UserID, r.facade.HandleJoinChannelHint())
}

// submitRewardCBRoute claims the one-time reward and removes the instruction
// message once it has been paid out.
func (r *RealTelegramBotAdapter) submitRewardCBRoute(ctx context.Context, cb callback) error {
	text, claimed, err := r.facade.HandleSubmitReward(ctx, cb.UserID)
	if err != nil {
		return r.fail(ctx, cb.UserID, err)
	}
	if err := r.reply(ctx, cb.UserID, text); err != nil {
		return err
	}
	if claimed && cb.MessageID != 0 {
		if err := r.DeleteMessage(ctx, cb.ChatID, cb.MessageID); err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Msg("instruction message not deleted")
		}
	}
	return nil
}

// checkSubscriptionsCBRoute re-checks the required channels. Missing
// memberships get the channel keyboard again.
func (r *RealTelegramBotAdapter) checkSubscriptionsCBRoute(ctx context.Context, cb callback) error {
	text, res, err := r.facade.HandleCheckSubscriptions(ctx, cb.UserID)
	if err != nil {
		return r.fail(ctx, cb.UserID, err)
	}
	params := adapter.SendMessageParams{ChatID: cb.UserID, Text: text}
	if res.Joined {
		params.ReplyMarkup = r.mainMenuKeyboard()
	} else {
		params.ReplyMarkup = r.channelsKeyboard(res.Channels)
	}
	return r.SendMessage(ctx, params)
}
