// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"
	"time"
)

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// ReplyMarkup is either an inline keyboard or a persistent reply keyboard.
type ReplyMarkup struct {
	Buttons  [][]InlineButton
	IsInline bool
}

type SendMessageParams struct {
	ChatID      int64
	Text        string
	ParseMode   string
	ReplyMarkup *ReplyMarkup
	// DeleteAfter removes the message once elapsed; zero keeps it.
	DeleteAfter time.Duration
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SetMenuCommands(ctx context.Context, chatID int64, isAdmin bool) error
}
