package knowledge

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/ad-verify/internal/api"
	"github.com/ziadkadry99/ad-verify/internal/audit"
	"github.com/ziadkadry99/ad-verify/internal/auth"
	"github.com/ziadkadry99/ad-verify/internal/vectordb"
)

// maxSearchK caps k on the search endpoint.
const maxSearchK = 50

type ingestRequest struct {
	Source string   `json:"source" validate:"required,max=200"`
	Texts  []string `json:"texts" validate:"required,min=1,dive,required"`
}

type ingestResponse struct {
	Source string `json:"source"`
	Added  int    `json:"added"`
	Total  int    `json:"total"`
}

type searchResponse struct {
	Query   string  `json:"query"`
	Results []Chunk `json:"results"`
}

type deleteResponse struct {
	Source  string `json:"source"`
	Removed int    `json:"removed"`
	Total   int    `json:"total"`
}

type statusResponse struct {
	Ready  bool `json:"ready"`
	Chunks int  `json:"chunks"`
}

// RegisterRoutes mounts the knowledge base endpoints. They must sit behind
// auth.Middleware.
func RegisterRoutes(r chi.Router, store *Store, auditLog audit.Logger) {
	r.Route("/api/knowledge", func(r chi.Router) {
		r.Get("/", handleStatus(store))
		r.Post("/", handleIngest(store, auditLog))
		r.Get("/search", handleSearch(store))
		// Sources are relative file paths, so the whole remainder is the source.
		r.Delete("/*", handleDelete(store, auditLog))
	})
}

func handleStatus(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.JSON(w, http.StatusOK, statusResponse{Ready: store.Ready(), Chunks: store.Count()})
	}
}

func handleIngest(store *Store, auditLog audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		var req ingestRequest
		if err := api.Decode(w, r, &req); err != nil {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		n, err := store.AddTexts(r.Context(), req.Source, req.Texts)
		if err != nil {
			writeError(w, err)
			return
		}
		audit.Record(r.Context(), auditLog, audit.Entry{
			ActorID: u.ID,
			Action:  audit.ActionKnowledgeIngested,
			Scope:   audit.ScopeKnowledge,
			ScopeID: req.Source,
			Summary: fmt.Sprintf("Ingested %d chunks", n),
		})
		api.JSON(w, http.StatusCreated, ingestResponse{Source: req.Source, Added: n, Total: store.Count()})
	}
}

func handleSearch(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			api.Error(w, http.StatusBadRequest, "q is required")
			return
		}
		k := DefaultTopK
		if v := r.URL.Query().Get("k"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				api.Error(w, http.StatusBadRequest, "k must be a positive integer")
				return
			}
			k = min(n, maxSearchK)
		}

		kind := vectordb.DocumentKind(r.URL.Query().Get("kind"))
		switch kind {
		case "", vectordb.KindSeed, vectordb.KindIngested:
		default:
			api.Error(w, http.StatusBadRequest, "kind must be seed or ingested")
			return
		}

		chunks, err := store.Search(r.Context(), q, k, kind)
		if err != nil {
			writeError(w, err)
			return
		}
		if chunks == nil {
			chunks = []Chunk{}
		}
		api.JSON(w, http.StatusOK, searchResponse{Query: q, Results: chunks})
	}
}

func handleDelete(store *Store, auditLog audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		source, err := url.PathUnescape(chi.URLParam(r, "*"))
		if err != nil || source == "" {
			api.Error(w, http.StatusBadRequest, "source is required")
			return
		}

		n, err := store.DeleteSource(r.Context(), source)
		if err != nil {
			writeError(w, err)
			return
		}
		audit.Record(r.Context(), auditLog, audit.Entry{
			ActorID: u.ID,
			Action:  audit.ActionKnowledgeDeleted,
			Scope:   audit.ScopeKnowledge,
			ScopeID: source,
			Summary: fmt.Sprintf("Deleted %d chunks", n),
		})
		api.JSON(w, http.StatusOK, deleteResponse{Source: source, Removed: n, Total: store.Count()})
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		api.Error(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, ErrSourceNotFound):
		api.Error(w, http.StatusNotFound, "Not found.")
		return
	}
	log.Printf("knowledge: %v", err)
	api.Error(w, http.StatusInternalServerError, "internal error")
}
