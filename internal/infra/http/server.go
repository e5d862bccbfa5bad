package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/config"
	"telegram-reward-bot/internal/infra/logging"
)

const (
	maxWebhookBody = 1 << 20
	setupTimeout   = 15 * time.Second
)

// BotEndpoint is the bot side of the HTTP surface.
type BotEndpoint interface {
	HandleWebhookPayload(payload []byte) error
	Setup(ctx context.Context) error
}

// Mounter adds extra routes, e.g. the admin API.
type Mounter interface {
	Mount(r chi.Router)
}

type Server struct {
	port        int
	webhookPath string
	webhook     bool
	bot         BotEndpoint
	router      *chi.Mux
	server      *http.Server
	log         *zerolog.Logger
}

// NewServer builds the router. The webhook route exists only in webhook mode;
// extra mounters are attached after the built-in routes.
func NewServer(httpCfg config.HTTPConfig, botCfg config.BotConfig, bot BotEndpoint, logger *zerolog.Logger, extra ...Mounter) *Server {
	s := &Server{
		port:        httpCfg.Port,
		webhookPath: botCfg.WebhookPath,
		webhook:     botCfg.Mode == "webhook",
		bot:         bot,
		router:      chi.NewRouter(),
		log:         logging.Component(logger, "HTTPServer"),
	}
	s.routes(extra)
	return s
}

func (s *Server) routes(extra []Mounter) {
	r := s.router
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log))

	r.Get("/", s.handleIndex)
	r.Get("/api/health", s.handleHealth)
	r.With(Timeout(setupTimeout)).Get("/api/setup", s.handleSetup)
	r.Handle("/metrics", promhttp.Handler())
	if s.webhook {
		r.Post(s.webhookPath, s.handleWebhook)
	}
	for _, m := range extra {
		if m != nil {
			m.Mount(r)
		}
	}
}

func (s *Server) Handler() http.Handler { return s.router }

// Start blocks until the server stops; a graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", s.port).Bool("webhook", s.webhook).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Bot server is running.")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	if err := s.bot.Setup(r.Context()); err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("bot setup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Bot setup completed successfully"})
}

// handleWebhook acknowledges Telegram at once; the update is processed on the
// bot's worker pool.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := s.bot.HandleWebhookPayload(body); err != nil {
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("webhook payload rejected")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
