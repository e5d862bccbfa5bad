package webapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/config"
	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/domain/ports/adapter"
	"telegram-reward-bot/internal/infra/logging"
	"telegram-reward-bot/internal/infra/metrics"
	"telegram-reward-bot/internal/infra/worker"
)

var _ adapter.AccountSyncNotifier = (*Notifier)(nil)

const (
	syncPath   = "/api/telegram-webhook"
	syncAction = "update_user"
	tokenTTL   = 5 * time.Minute
	issuer     = "telegram-reward-bot"
)

type syncRequest struct {
	Action string            `json:"action"`
	UserID int64             `json:"userId"`
	Data   model.UserAccount `json:"data"`
}

// Notifier pushes account snapshots to the web app. Notify queues the push on
// a worker pool; Push performs it inline.
type Notifier struct {
	client     *resty.Client
	signingKey []byte
	timeout    time.Duration
	pool       *worker.Pool
	log        *zerolog.Logger
}

func NewNotifier(cfg config.WebAppConfig, pool *worker.Pool, logger *zerolog.Logger) (*Notifier, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("web app url is empty")
	}
	if pool == nil {
		return nil, errors.New("sync pool is nil")
	}
	client := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	n := &Notifier{
		client:  client,
		timeout: cfg.Timeout,
		pool:    pool,
		log:     logging.Component(logger, "WebAppNotifier"),
	}
	if cfg.SigningKey != "" {
		n.signingKey = []byte(cfg.SigningKey)
	}
	return n, nil
}

// Notify never blocks the caller; failures end up in logs and metrics only.
func (n *Notifier) Notify(ctx context.Context, snapshot model.UserAccount) {
	traceID := logging.TraceIDFrom(ctx)
	err := n.pool.Submit(func(ctx context.Context) error {
		if traceID != "" {
			ctx = logging.WithTraceID(ctx, traceID)
		}
		if err := n.Push(ctx, snapshot); err != nil {
			logging.With(ctx, n.log).Warn().Err(err).Int64("user_id", snapshot.ID).Msg("web app sync failed")
			return err
		}
		return nil
	})
	if err != nil {
		metrics.IncWebAppSync("dropped")
		logging.With(ctx, n.log).Warn().Err(err).Int64("user_id", snapshot.ID).Msg("web app sync dropped")
	}
}

// Push sends one snapshot and waits for the web app to acknowledge it.
func (n *Notifier) Push(ctx context.Context, snapshot model.UserAccount) error {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	eventID := ulid.Make().String()
	req := n.client.R().
		SetContext(ctx).
		SetHeader("X-Event-ID", eventID).
		SetBody(syncRequest{Action: syncAction, UserID: snapshot.ID, Data: snapshot})

	if n.signingKey != nil {
		token, err := n.sign(snapshot.ID, eventID)
		if err != nil {
			metrics.IncWebAppSync("error")
			return fmt.Errorf("sign sync request: %w", err)
		}
		req.SetAuthToken(token)
	}

	start := time.Now()
	resp, err := req.Post(syncPath)
	metrics.ObserveWebAppSyncLatency(time.Since(start).Milliseconds())
	if err != nil {
		metrics.IncWebAppSync("error")
		return fmt.Errorf("post %s: %w", syncPath, err)
	}
	if resp.IsError() {
		metrics.IncWebAppSync("error")
		return fmt.Errorf("post %s: status %d", syncPath, resp.StatusCode())
	}
	metrics.IncWebAppSync("ok")
	return nil
}

func (n *Notifier) sign(userID int64, eventID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ID:        eventID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(n.signingKey)
}
