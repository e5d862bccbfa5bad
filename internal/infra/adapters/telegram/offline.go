package telegram

import (
	"fmt"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/infra/logging"
)

var (
	_ BotAPI           = (*OfflineAPI)(nil)
	_ ChatMemberGetter = (*OfflineAPI)(nil)
)

// OfflineAPI stands in for the Bot API in local runs. Outgoing calls are
// logged, polling yields nothing and nobody is a channel member. Updates can
// still be POSTed to the webhook route.
type OfflineAPI struct {
	nextID  atomic.Int64
	updates chan tgbotapi.Update
	log     *zerolog.Logger
}

func NewOfflineAPI(logger *zerolog.Logger) *OfflineAPI {
	return &OfflineAPI{
		updates: make(chan tgbotapi.Update),
		log:     logging.Component(logger, "OfflineBot"),
	}
}

func (o *OfflineAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	id := int(o.nextID.Add(1))
	ev := o.log.Info().Int("message_id", id)
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		ev = ev.Int64("chat_id", m.ChatID).Str("text", m.Text).Bool("keyboard", m.ReplyMarkup != nil)
	}
	ev.Msg("send")
	return tgbotapi.Message{MessageID: id}, nil
}

func (o *OfflineAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	o.log.Debug().Str("type", fmt.Sprintf("%T", c)).Msg("request")
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (o *OfflineAPI) MakeRequest(endpoint string, _ tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	o.log.Debug().Str("method", endpoint).Msg("request")
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (o *OfflineAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return o.updates
}

func (o *OfflineAPI) StopReceivingUpdates() {}

func (o *OfflineAPI) GetChatMember(cfg tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	o.log.Debug().Int64("user_id", cfg.UserID).Str("chat", cfg.SuperGroupUsername).Msg("get chat member")
	return tgbotapi.ChatMember{Status: "left"}, nil
}
