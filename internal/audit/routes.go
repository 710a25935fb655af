package audit

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/ad-verify/internal/api"
	"github.com/ziadkadry99/ad-verify/internal/auth"
)

// RegisterRoutes mounts audit endpoints under /api/audit. It must sit behind
// auth.Middleware: callers only ever see their own entries.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/audit", func(r chi.Router) {
		r.Get("/", handleQuery(store))
		r.Get("/{id}", handleGetByID(store))
	})
}

func handleQuery(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()

		filter := QueryFilter{
			ActorID: u.ID,
			ScopeID: q.Get("scope_id"),
			Limit:   100,
		}
		if v := q.Get("scope"); v != "" {
			filter.Scope = Scope(v)
		}
		if v := q.Get("action"); v != "" {
			filter.Action = Action(v)
		}
		if v := q.Get("since"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				filter.Since = &t
			}
		}
		if v := q.Get("until"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				filter.Until = &t
			}
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				filter.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		entries, err := store.Query(r.Context(), filter)
		if err != nil {
			api.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		api.JSON(w, http.StatusOK, entries)
	}
}

func handleGetByID(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}

		entry, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, sql.ErrNoRows) || (err == nil && entry.ActorID != u.ID) {
			api.Error(w, http.StatusNotFound, "not found")
			return
		}
		if err != nil {
			api.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		api.JSON(w, http.StatusOK, entry)
	}
}
