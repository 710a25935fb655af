package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/ad-verify/internal/audit"
	"github.com/ziadkadry99/ad-verify/internal/auth"
	"github.com/ziadkadry99/ad-verify/internal/db"
)

func knowledgeRouter(s *Store, auditLog audit.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), &auth.User{ID: "admin"})))
		})
	})
	RegisterRoutes(r, s, auditLog)
	return r
}

func serve(h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, &buf))
	return w
}

func TestIngestAndSearchRoutes(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	defer database.Close()
	auditStore := audit.NewStore(database)

	s := newStore(t, "")
	require.NoError(t, s.Initialize(context.Background()))
	h := knowledgeRouter(s, auditStore)

	body := map[string]any{
		"source": "house_rules",
		"texts":  []string{"Crypto ads must state that capital is at risk."},
	}
	w := serve(h, http.MethodPost, "/api/knowledge/", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ing ingestResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ing))
	assert.Equal(t, 1, ing.Added)
	assert.Equal(t, len(SeedCorpus())+1, ing.Total)

	// Same text again adds nothing.
	w = serve(h, http.MethodPost, "/api/knowledge/", body)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ing))
	assert.Zero(t, ing.Added)

	w = serve(h, http.MethodGet, "/api/knowledge/search?q=crypto+capital+risk&k=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res searchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Len(t, res.Results, 2)

	w = serve(h, http.MethodGet, "/api/knowledge/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ready": true, "chunks": 4}`, w.Body.String())

	entries, err := auditStore.Query(context.Background(), audit.QueryFilter{Action: audit.ActionKnowledgeIngested})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSearchRouteKindFilter(t *testing.T) {
	s := newStore(t, "")
	require.NoError(t, s.Initialize(context.Background()))
	_, err := s.AddTexts(context.Background(), "house_rules", []string{"Crypto ads must state that capital is at risk."})
	require.NoError(t, err)
	h := knowledgeRouter(s, nil)

	w := serve(h, http.MethodGet, "/api/knowledge/search?q=crypto&k=10&kind=ingested", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res searchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	require.Len(t, res.Results, 1)
	assert.Equal(t, "house_rules", res.Results[0].Source)

	w = serve(h, http.MethodGet, "/api/knowledge/search?q=crypto&k=10&kind=seed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Len(t, res.Results, len(SeedCorpus()))
	for _, c := range res.Results {
		assert.NotEqual(t, "house_rules", c.Source)
	}

	w = serve(h, http.MethodGet, "/api/knowledge/search?q=crypto&kind=draft", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSourceRoute(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	defer database.Close()
	auditStore := audit.NewStore(database)

	s := newStore(t, "")
	require.NoError(t, s.Initialize(context.Background()))
	_, err = s.AddTexts(context.Background(), "policy/health.md", []string{"Health claims need clinical evidence."})
	require.NoError(t, err)
	h := knowledgeRouter(s, auditStore)

	w := serve(h, http.MethodDelete, "/api/knowledge/policy/health.md", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var del deleteResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&del))
	assert.Equal(t, deleteResponse{Source: "policy/health.md", Removed: 1, Total: len(SeedCorpus())}, del)

	w = serve(h, http.MethodDelete, "/api/knowledge/policy/health.md", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	entries, err := auditStore.Query(context.Background(), audit.QueryFilter{Action: audit.ActionKnowledgeDeleted})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "policy/health.md", entries[0].ScopeID)
}

func TestKnowledgeRouteErrors(t *testing.T) {
	s := newStore(t, "")
	h := knowledgeRouter(s, nil)

	w := serve(h, http.MethodGet, "/api/knowledge/search?q=anything", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(h, http.MethodPost, "/api/knowledge/", map[string]any{"source": "x", "texts": []string{"y"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.NoError(t, s.Initialize(context.Background()))

	for _, target := range []string{"/api/knowledge/search", "/api/knowledge/search?q=x&k=0", "/api/knowledge/search?q=x&k=abc"} {
		w = serve(h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
	for _, body := range []map[string]any{
		{"texts": []string{"y"}},
		{"source": "x"},
		{"source": "x", "texts": []string{}},
		{"source": "x", "texts": []string{""}},
	} {
		w = serve(h, http.MethodPost, "/api/knowledge/", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}
