package ads

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/ad-verify/internal/api"
	"github.com/ziadkadry99/ad-verify/internal/audit"
	"github.com/ziadkadry99/ad-verify/internal/auth"
)

type createAdRequest struct {
	Content  string `json:"content" validate:"required,max=20000"`
	URL      string `json:"url" validate:"omitempty,url"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

// RegisterRoutes mounts the advertisement and verification result
// endpoints. They must sit behind auth.Middleware.
func RegisterRoutes(r chi.Router, store *Store, auditLog audit.Logger) {
	r.Route("/api/advertisements", func(r chi.Router) {
		r.Get("/", handleListAds(store))
		r.Post("/", handleCreateAd(store, auditLog))
		r.Get("/{id}", handleGetAd(store))
		r.Delete("/{id}", handleDeleteAd(store, auditLog))
	})
	r.Route("/api/verification-results", func(r chi.Router) {
		r.Get("/", handleListResults(store))
		r.Get("/{id}", handleGetResult(store))
		r.Delete("/{id}", handleDeleteResult(store, auditLog))
	})
}

func handleListAds(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListAdvertisements(r.Context())
		if err != nil {
			serverError(w, err)
			return
		}
		api.JSON(w, http.StatusOK, list)
	}
}

func handleCreateAd(store *Store, auditLog audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		var req createAdRequest
		if err := api.Decode(w, r, &req); err != nil {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		ad := &Advertisement{Content: req.Content, URL: req.URL, ImageURL: req.ImageURL, CreatedBy: u.ID}
		if err := store.CreateAdvertisement(r.Context(), ad); err != nil {
			serverError(w, err)
			return
		}
		audit.Record(r.Context(), auditLog, audit.Entry{
			ActorID: u.ID,
			Action:  audit.ActionAdvertisementCreated,
			Scope:   audit.ScopeAdvertisement,
			ScopeID: ad.ID,
			Summary: "Created advertisement",
		})
		api.JSON(w, http.StatusCreated, ad)
	}
}

func handleGetAd(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ad, err := store.GetAdvertisement(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.JSON(w, http.StatusOK, ad)
	}
}

func handleDeleteAd(store *Store, auditLog audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		if err := store.DeleteAdvertisement(r.Context(), id, u.ID); err != nil {
			writeStoreError(w, err)
			return
		}
		audit.Record(r.Context(), auditLog, audit.Entry{
			ActorID: u.ID,
			Action:  audit.ActionAdvertisementDeleted,
			Scope:   audit.ScopeAdvertisement,
			ScopeID: id,
			Summary: "Deleted advertisement",
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleListResults(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		list, err := store.ListResults(r.Context(), u.ID)
		if err != nil {
			serverError(w, err)
			return
		}
		api.JSON(w, http.StatusOK, list)
	}
}

func handleGetResult(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		res, err := store.GetResult(r.Context(), chi.URLParam(r, "id"), u.ID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		api.JSON(w, http.StatusOK, res)
	}
}

func handleDeleteResult(store *Store, auditLog audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		if err := store.DeleteResult(r.Context(), id, u.ID); err != nil {
			writeStoreError(w, err)
			return
		}
		audit.Record(r.Context(), auditLog, audit.Entry{
			ActorID: u.ID,
			Action:  audit.ActionResultDeleted,
			Scope:   audit.ScopeVerification,
			ScopeID: id,
			Summary: "Deleted verification result",
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		api.Error(w, http.StatusNotFound, "Not found.")
		return
	}
	serverError(w, err)
}

func serverError(w http.ResponseWriter, err error) {
	log.Printf("ads: %v", err)
	api.Error(w, http.StatusInternalServerError, "internal error")
}
