package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"telegram-reward-bot/internal/domain"
	"telegram-reward-bot/internal/usecase"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statsHandler serves ledger totals.
func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := statsUC.Totals(r.Context())
		if err != nil {
			http.Error(w, "Failed to get totals", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, totals)
	}
}

// usersListHandler pages through accounts ordered by id: ?offset=&limit=.
func usersListHandler(accounts AccountReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		offset, err := intParam(q.Get("offset"), 0)
		if err != nil || offset < 0 {
			http.Error(w, "Invalid offset", http.StatusBadRequest)
			return
		}
		limit, err := intParam(q.Get("limit"), defaultPageSize)
		if err != nil || limit <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}

		all, err := accounts.ListAccounts(r.Context())
		if err != nil {
			http.Error(w, "Failed to list users", http.StatusInternalServerError)
			return
		}
		end := offset + limit
		if offset > len(all) {
			offset = len(all)
		}
		if end > len(all) {
			end = len(all)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": all[offset:end],
			"total": len(all),
		})
	}
}

func userGetHandler(accounts AccountReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Invalid user ID", http.StatusBadRequest)
			return
		}
		acc, err := accounts.FindAccount(r.Context(), id)
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to get user", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, acc)
	}
}

func channelsListHandler(channels ChannelLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := channels.List(r.Context())
		if err != nil {
			http.Error(w, "Failed to list channels", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

func sessionCreateHandler(auth *AuthManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth == nil {
			http.Error(w, "Sessions are disabled", http.StatusNotImplemented)
			return
		}
		tok, err := auth.Mint(w)
		if err != nil {
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"token": tok})
	}
}

func sessionDeleteHandler(auth *AuthManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth != nil {
			auth.Clear(w)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
