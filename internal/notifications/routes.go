package notifications

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/ad-verify/internal/api"
	"github.com/ziadkadry99/ad-verify/internal/audit"
	"github.com/ziadkadry99/ad-verify/internal/auth"
)

const defaultDeliveryLimit = 50

type createSubscriptionRequest struct {
	WebhookURL string   `json:"webhook_url" validate:"required,url"`
	MaxScore   *float64 `json:"max_score" validate:"omitnil,gte=0,lte=1"`
}

// RegisterRoutes mounts the notification endpoints under
// /api/notifications. They must sit behind auth.Middleware.
func RegisterRoutes(r chi.Router, store *Store, auditLog audit.Logger) {
	r.Route("/api/notifications", func(r chi.Router) {
		r.Get("/subscriptions/", handleListSubscriptions(store))
		r.Post("/subscriptions/", handleCreateSubscription(store, auditLog))
		r.Delete("/subscriptions/{id}", handleDeleteSubscription(store, auditLog))
		r.Get("/deliveries/", handleListDeliveries(store))
	})
}

func handleListSubscriptions(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		subs, err := store.ListSubscriptions(r.Context(), u.ID)
		if err != nil {
			serverError(w, err)
			return
		}
		api.JSON(w, http.StatusOK, subs)
	}
}

func handleCreateSubscription(store *Store, auditLog audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		var req createSubscriptionRequest
		if err := api.Decode(w, r, &req); err != nil {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		sub := &Subscription{UserID: u.ID, WebhookURL: req.WebhookURL, MaxScore: DefaultMaxScore}
		if req.MaxScore != nil {
			sub.MaxScore = *req.MaxScore
		}
		if err := store.CreateSubscription(r.Context(), sub); err != nil {
			serverError(w, err)
			return
		}
		audit.Record(r.Context(), auditLog, audit.Entry{
			ActorID: u.ID,
			Action:  audit.ActionSubscriptionCreated,
			Scope:   audit.ScopeSubscription,
			ScopeID: sub.ID,
			Summary: "Subscribed " + sub.WebhookURL,
		})
		api.JSON(w, http.StatusCreated, sub)
	}
}

func handleDeleteSubscription(store *Store, auditLog audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		if err := store.DeleteSubscription(r.Context(), id, u.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				api.Error(w, http.StatusNotFound, "Not found.")
				return
			}
			serverError(w, err)
			return
		}
		audit.Record(r.Context(), auditLog, audit.Entry{
			ActorID: u.ID,
			Action:  audit.ActionSubscriptionDeleted,
			Scope:   audit.ScopeSubscription,
			ScopeID: id,
			Summary: "Removed webhook subscription",
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleListDeliveries(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		limit := defaultDeliveryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		list, err := store.ListDeliveries(r.Context(), u.ID, limit)
		if err != nil {
			serverError(w, err)
			return
		}
		api.JSON(w, http.StatusOK, list)
	}
}

func serverError(w http.ResponseWriter, err error) {
	log.Printf("notifications: %v", err)
	api.Error(w, http.StatusInternalServerError, "internal error")
}
