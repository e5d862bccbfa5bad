package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-reward-bot/internal/application"
	"telegram-reward-bot/internal/config"
	"telegram-reward-bot/internal/domain/ports/adapter"
	"telegram-reward-bot/internal/infra/logging"
	"telegram-reward-bot/internal/infra/metrics"
	red "telegram-reward-bot/internal/infra/redis"
	"telegram-reward-bot/internal/infra/worker"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

const defaultFadeAfter = 3 * time.Second

// BotAPI is the part of *tgbotapi.BotAPI the adapter talks to.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type rateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Options carries the reward settings that shape keyboards.
type Options struct {
	OneTimeChannel string
	FollowLinks    []string
}

// RealTelegramBotAdapter routes Telegram updates to the BotFacade and
// implements adapter.TelegramBotAdapter on top of tgbotapi.
type RealTelegramBotAdapter struct {
	bot         BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	tr          application.Translator
	rateLimiter rateLimiter
	pool        *worker.Pool
	opts        Options

	fadeAfter     time.Duration
	cancelPolling context.CancelFunc
	log           *zerolog.Logger
}

// NewBotAPI authenticates against Telegram with token.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return bot, nil
}

// NewRealTelegramBotAdapter wires the adapter. bot is a *tgbotapi.BotAPI or an
// *OfflineAPI. rl may be nil to disable rate limiting. Updates are processed
// on pool, which the caller starts and stops.
func NewRealTelegramBotAdapter(
	bot BotAPI,
	cfg *config.BotConfig,
	facade *application.BotFacade,
	tr application.Translator,
	rl *red.RateLimiter,
	pool *worker.Pool,
	opts Options,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if bot == nil {
		return nil, errors.New("bot api is nil")
	}
	var limiter rateLimiter
	if rl != nil {
		limiter = rl
	}
	return newAdapter(bot, cfg, facade, tr, limiter, pool, opts, logger)
}

func newAdapter(
	bot BotAPI,
	cfg *config.BotConfig,
	facade *application.BotFacade,
	tr application.Translator,
	rl rateLimiter,
	pool *worker.Pool,
	opts Options,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if tr == nil {
		return nil, errors.New("translator is nil")
	}
	if pool == nil {
		return nil, errors.New("update pool is nil")
	}
	return &RealTelegramBotAdapter{
		bot:         bot,
		cfg:         cfg,
		facade:      facade,
		tr:          tr,
		rateLimiter: rl,
		pool:        pool,
		opts:        opts,
		fadeAfter:   defaultFadeAfter,
		log:         logging.Component(logger, "TelegramBot"),
	}, nil
}

// StartPolling feeds updates into the worker pool until ctx is canceled.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel
	defer cancel()

	r.log.Info().Int("workers", r.cfg.Workers).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			r.log.Info().Msg("polling stopped")
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			r.Dispatch(up)
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// Dispatch queues one update for asynchronous handling.
func (r *RealTelegramBotAdapter) Dispatch(update tgbotapi.Update) {
	err := r.pool.Submit(func(ctx context.Context) error {
		return r.handleUpdate(ctx, update)
	})
	if err != nil {
		r.log.Warn().Err(err).Int("update_id", update.UpdateID).Msg("update dropped")
	}
}

// HandleWebhookPayload decodes a webhook body and dispatches it. Only a
// malformed body is reported; handling itself is asynchronous.
func (r *RealTelegramBotAdapter) HandleWebhookPayload(payload []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(payload, &update); err != nil {
		return fmt.Errorf("decode update: %w", err)
	}
	r.Dispatch(update)
	return nil
}

// Setup registers the command list and the menu button, then points Telegram
// at the webhook or clears it for polling.
func (r *RealTelegramBotAdapter) Setup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.bot.Request(tgbotapi.NewSetMyCommands(r.userCommands()...)); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	if _, err := r.bot.MakeRequest("setChatMenuButton", tgbotapi.Params{"menu_button": `{"type":"commands"}`}); err != nil {
		r.log.Warn().Err(err).Msg("set menu button failed")
	}

	if r.cfg.Mode != "webhook" {
		_, err := r.bot.Request(tgbotapi.DeleteWebhookConfig{})
		if err != nil {
			return fmt.Errorf("delete webhook: %w", err)
		}
		return nil
	}
	link := strings.TrimSuffix(r.cfg.WebhookURL, "/") + r.cfg.WebhookPath
	wh, err := tgbotapi.NewWebhook(link)
	if err != nil {
		return fmt.Errorf("webhook url: %w", err)
	}
	wh.AllowedUpdates = []string{"message", "callback_query"}
	if _, err := r.bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	r.log.Info().Str("url", link).Msg("webhook registered")
	return nil
}

// SendMessage sends text with optional keyboard. A positive DeleteAfter
// removes the message once it elapses.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(params.ChatID, params.Text)
	msg.ParseMode = params.ParseMode
	if params.ReplyMarkup != nil {
		msg.ReplyMarkup = buildMarkup(params.ReplyMarkup)
	}

	sent, err := r.bot.Send(msg)
	if err != nil {
		metrics.IncTelegramSendFailure("sendMessage")
		return fmt.Errorf("send message to %d: %w", params.ChatID, err)
	}
	if params.DeleteAfter > 0 {
		chatID, msgID := params.ChatID, sent.MessageID
		time.AfterFunc(params.DeleteAfter, func() {
			if err := r.DeleteMessage(context.Background(), chatID, msgID); err != nil {
				r.log.Warn().Err(err).Int64("chat_id", chatID).Msg("fade-out delete failed")
			}
		})
	}
	return nil
}

func (r *RealTelegramBotAdapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		metrics.IncTelegramSendFailure("deleteMessage")
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	return nil
}

// SetMenuCommands scopes the command list to one chat; admins also see the
// admin commands.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context, chatID int64, isAdmin bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmds := r.userCommands()
	if isAdmin {
		cmds = append(cmds, r.adminCommands()...)
	}
	scope := tgbotapi.NewBotCommandScopeChat(chatID)
	if _, err := r.bot.Request(tgbotapi.NewSetMyCommandsWithScope(scope, cmds...)); err != nil {
		metrics.IncTelegramSendFailure("setMyCommands")
		return fmt.Errorf("set commands for %d: %w", chatID, err)
	}
	return nil
}

func (r *RealTelegramBotAdapter) userCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: r.tr.T("cmd_start")},
		{Command: "balance", Description: r.tr.T("cmd_balance")},
		{Command: "referrals", Description: r.tr.T("cmd_referrals")},
		{Command: "claim", Description: r.tr.T("cmd_claim")},
		{Command: "addaddress", Description: r.tr.T("cmd_addaddress")},
		{Command: "webapp", Description: r.tr.T("cmd_webapp")},
	}
}

func (r *RealTelegramBotAdapter) adminCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "addadmin", Description: r.tr.T("cmd_addadmin")},
		{Command: "addchannel", Description: r.tr.T("cmd_addchannel")},
		{Command: "removechannel", Description: r.tr.T("cmd_removechannel")},
		{Command: "listchannels", Description: r.tr.T("cmd_listchannels")},
		{Command: "userinfo", Description: r.tr.T("cmd_userinfo")},
		{Command: "checkchannels", Description: r.tr.T("cmd_checkchannels")},
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithUpdateID(ctx, update.UpdateID)

	// ----- Inline button callbacks -----
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}

	// ----- Regular messages -----
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.Text == "" {
		return nil
	}
	ctx = logging.WithTgID(ctx, msg.From.ID)

	cmd, args, isCommand := parseCommand(msg.Text)
	key := "message"
	if isCommand {
		key = "/" + cmd
	}
	if !r.allow(ctx, msg.From.ID, key) {
		return r.reply(ctx, msg.Chat.ID, r.tr.T("rate_limited"))
	}

	if isCommand {
		metrics.IncTelegramCommand(cmd)
		if fn, ok := r.commandRoutes()[cmd]; ok {
			return fn(ctx, msg, args)
		}
		return r.reply(ctx, msg.Chat.ID, r.tr.T("unknown_command"))
	}
	return r.handleText(ctx, msg)
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop the telegram spinner when we return
	defer func() {
		if _, err := r.bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			r.log.Debug().Err(err).Msg("answer callback failed")
		}
	}()

	cb := callback{UserID: query.From.ID, ChatID: query.From.ID, Data: strings.TrimSpace(query.Data)}
	if query.Message != nil {
		cb.MessageID = query.Message.MessageID
		if query.Message.Chat != nil {
			cb.ChatID = query.Message.Chat.ID
		}
	}
	ctx = logging.WithTgID(ctx, cb.UserID)

	if !r.allow(ctx, cb.UserID, "cb:"+cb.Data) {
		return r.reply(ctx, cb.ChatID, r.tr.T("rate_limited"))
	}

	fn, ok := r.cbRoutes()[cb.Data]
	if !ok {
		metrics.IncTelegramCallback("unknown")
		return fmt.Errorf("unknown callback data %q", cb.Data)
	}
	metrics.IncTelegramCallback(cb.Data)
	return fn(ctx, cb)
}

// allow fails open when the limiter itself errors.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, userID int64, key string) bool {
	if r.rateLimiter == nil || r.cfg.RateLimit <= 0 {
		return true
	}
	ok, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(userID, key), r.cfg.RateLimit, time.Minute)
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limit check failed")
		return true
	}
	if !ok {
		metrics.IncRateLimitTriggered()
	}
	return ok
}

func (r *RealTelegramBotAdapter) reply(ctx context.Context, chatID int64, text string) error {
	return r.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text})
}

// fail logs err and tells the user something went wrong.
func (r *RealTelegramBotAdapter) fail(ctx context.Context, chatID int64, err error) error {
	logging.With(ctx, r.log).Error().Err(err).Msg("update handling failed")
	return r.reply(ctx, chatID, r.tr.T("generic_error"))
}

// parseCommand splits "/cmd@bot args" into "cmd" and "args".
func parseCommand(text string) (string, string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, args, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(args), true
}

func buildMarkup(m *adapter.ReplyMarkup) interface{} {
	if m.IsInline {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(m.Buttons))
		for _, row := range m.Buttons {
			if len(row) == 0 {
				continue
			}
			kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, btn := range row {
				label := strings.TrimSpace(btn.Text)
				if label == "" {
					label = "•"
				}
				switch {
				case btn.URL != "":
					kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
				case btn.Data != "":
					kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
				default:
					// fall back to the label as callback data
					kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(label, label))
				}
			}
			rows = append(rows, kbRow)
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(m.Buttons))
	for _, row := range m.Buttons {
		kbRow := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, btn := range row {
			kbRow = append(kbRow, tgbotapi.NewKeyboardButton(btn.Text))
		}
		if len(kbRow) > 0 {
			rows = append(rows, kbRow)
		}
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}
