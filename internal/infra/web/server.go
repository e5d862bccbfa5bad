package web

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/infra/logging"
	"telegram-reward-bot/internal/usecase"
)

// AccountReader is the read side of the ledger the admin API exposes.
type AccountReader interface {
	FindAccount(ctx context.Context, id int64) (*model.UserAccount, error)
	ListAccounts(ctx context.Context) ([]*model.UserAccount, error)
}

// ChannelLister lists the required channels.
type ChannelLister interface {
	List(ctx context.Context) ([]string, error)
}

// Server is the read-only admin API under /api/v1.
type Server struct {
	statsUC  usecase.StatsUseCase
	accounts AccountReader
	channels ChannelLister
	apiKey   string
	auth     *AuthManager
	log      *zerolog.Logger
}

func NewServer(
	statsUC usecase.StatsUseCase,
	accounts AccountReader,
	channels ChannelLister,
	apiKey string,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		statsUC:  statsUC,
		accounts: accounts,
		channels: channels,
		apiKey:   apiKey,
		auth:     auth,
		log:      logging.Component(logger, "AdminAPI"),
	}
}

// Mount attaches the admin routes to r.
func (s *Server) Mount(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", s.requireAPIKey(sessionCreateHandler(s.auth)))

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Delete("/session", sessionDeleteHandler(s.auth))
			r.Get("/stats", statsHandler(s.statsUC))
			r.Get("/users", usersListHandler(s.accounts))
			r.Get("/users/{id}", userGetHandler(s.accounts))
			r.Get("/channels", channelsListHandler(s.channels))
		})
	})
}

// authMiddleware accepts the static API key or a session minted by /session.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" && s.auth == nil {
			logging.With(r.Context(), s.log).Error().Msg("admin API has no credentials configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if s.validKey(r) {
			next.ServeHTTP(w, r)
			return
		}
		if s.auth != nil {
			if _, err := s.auth.ParseFromRequest(r); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if !s.validKey(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) validKey(r *http.Request) bool {
	if s.apiKey == "" {
		return false
	}
	tok, ok := bearer(r)
	return ok && subtle.ConstantTimeCompare([]byte(tok), []byte(s.apiKey)) == 1
}
