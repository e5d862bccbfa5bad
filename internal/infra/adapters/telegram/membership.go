package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-reward-bot/internal/domain/ports/adapter"
)

var _ adapter.MembershipOracle = (*MembershipOracle)(nil)

type ChatMemberGetter interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// MembershipOracle answers channel membership with getChatMember.
type MembershipOracle struct {
	bot ChatMemberGetter
}

// NewMembershipOracle accepts a *tgbotapi.BotAPI or an *OfflineAPI.
func NewMembershipOracle(bot ChatMemberGetter) *MembershipOracle {
	return &MembershipOracle{bot: bot}
}

// IsMember treats member, administrator and creator as joined. The HTTP call
// is not cancelable, so ctx only bounds how long the caller waits for it.
func (o *MembershipOracle) IsMember(ctx context.Context, userID int64, channel string) (bool, error) {
	cfg := tgbotapi.GetChatMemberConfig{ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: userID}}
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		cfg.ChatID = id
	} else {
		cfg.SuperGroupUsername = "@" + strings.TrimPrefix(channel, "@")
	}

	type result struct {
		member tgbotapi.ChatMember
		err    error
	}
	done := make(chan result, 1)
	go func() {
		m, err := o.bot.GetChatMember(cfg)
		done <- result{member: m, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return false, fmt.Errorf("get chat member %s: %w", channel, res.err)
		}
		switch res.member.Status {
		case "member", "administrator", "creator":
			return true, nil
		}
		return false, nil
	}
}
