package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/ad-verify/internal/auth"
	"github.com/ziadkadry99/ad-verify/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:        "test-1",
		ActorType: ActorUser,
		ActorID:   "alice",
		Action:    ActionVerificationCompleted,
		Scope:     ScopeVerification,
		ScopeID:   "result-1",
		Summary:   "Verified advertisement ad-1",
		Detail:    "score=0.30",
	}

	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.ActorID != "alice" {
		t.Errorf("ActorID = %q, want %q", got.ActorID, "alice")
	}
	if got.Action != ActionVerificationCompleted {
		t.Errorf("Action = %q, want %q", got.Action, ActionVerificationCompleted)
	}
	if got.Scope != ScopeVerification {
		t.Errorf("Scope = %q, want %q", got.Scope, ScopeVerification)
	}
	if got.ScopeID != "result-1" {
		t.Errorf("ScopeID = %q, want %q", got.ScopeID, "result-1")
	}
	if got.Detail != "score=0.30" {
		t.Errorf("Detail = %q, want %q", got.Detail, "score=0.30")
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestLogGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ActorType: ActorSystem,
		ActorID:   "kb",
		Action:    ActionKnowledgeRebuilt,
		Scope:     ScopeKnowledge,
		Summary:   "Rebuilt knowledge base",
	}

	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := store.Query(ctx, QueryFilter{ActorID: "kb"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("expected generated ID, got empty string")
	}
}

func TestLogDefaultsActorType(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{ID: "x", ActorID: "alice", Action: ActionChatMessage, Scope: ScopeChat}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	got, err := store.GetByID(ctx, "x")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ActorType != ActorUser {
		t.Errorf("ActorType = %q, want %q", got.ActorType, ActorUser)
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	seed := []Entry{
		{ActorID: "alice", Action: ActionAdvertisementCreated, Scope: ScopeAdvertisement, ScopeID: "ad-1"},
		{ActorID: "bob", Action: ActionAdvertisementCreated, Scope: ScopeAdvertisement, ScopeID: "ad-2"},
		{ActorID: "alice", Action: ActionVerificationCompleted, Scope: ScopeVerification, ScopeID: "res-1"},
		{ActorID: "alice", Action: ActionAdvertisementDeleted, Scope: ScopeAdvertisement, ScopeID: "ad-1"},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"all", QueryFilter{}, 4},
		{"actor", QueryFilter{ActorID: "alice"}, 3},
		{"scope", QueryFilter{Scope: ScopeAdvertisement}, 3},
		{"scope id", QueryFilter{ScopeID: "ad-1"}, 2},
		{"action", QueryFilter{Action: ActionAdvertisementCreated}, 2},
		{"actor and action", QueryFilter{ActorID: "bob", Action: ActionAdvertisementCreated}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("got %d entries, want %d", len(entries), tt.want)
			}
		})
	}
}

func TestQueryNewestFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		if err := store.Log(ctx, Entry{
			ID:        id,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			ActorID:   "alice",
			Action:    ActionChatMessage,
			Scope:     ScopeChat,
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 3 || entries[0].ID != "third" || entries[2].ID != "first" {
		t.Errorf("unexpected order: %+v", entries)
	}

	since := base.Add(30 * time.Second)
	entries, err = store.Query(ctx, QueryFilter{Since: &since})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries since %v, got %d", since, len(entries))
	}
}

func TestQueryLimitOffset(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, Entry{
			ActorID: "alice",
			Action:  ActionChatMessage,
			Scope:   ScopeChat,
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.Query(ctx, QueryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries with limit, got %d", len(entries))
	}

	entries, err = store.Query(ctx, QueryFilter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry with offset, got %d", len(entries))
	}

	entries, err = store.Query(ctx, QueryFilter{Offset: 3})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries with offset only, got %d", len(entries))
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, Entry{
			ActorType: ActorSystem,
			ActorID:   "system",
			Action:    ActionKnowledgeIngested,
			Scope:     ScopeKnowledge,
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	deleted, err := store.DeleteBefore(ctx, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}

	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 remaining entries, got %d", len(entries))
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetByID(context.Background(), "nonexistent")
	if err == nil {
		t.Error("expected error for nonexistent ID, got nil")
	}
}

// --- HTTP handler tests ---

func setupRouter(t *testing.T, userID string) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithUser(req.Context(), &auth.User{ID: userID, Username: userID})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPGetByID(t *testing.T) {
	r, store := setupRouter(t, "alice")
	ctx := context.Background()

	for _, e := range []Entry{
		{ID: "mine", ActorID: "alice", Action: ActionAdvertisementCreated, Scope: ScopeAdvertisement},
		{ID: "theirs", ActorID: "bob", Action: ActionAdvertisementCreated, Scope: ScopeAdvertisement},
	} {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit/mine", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "mine" {
		t.Errorf("ID = %q, want %q", got.ID, "mine")
	}

	for _, id := range []string{"theirs", "missing"} {
		req = httptest.NewRequest(http.MethodGet, "/api/audit/"+id, nil)
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want %d", id, rec.Code, http.StatusNotFound)
		}
	}
}

func TestHTTPQueryOnlyOwnEntries(t *testing.T) {
	r, store := setupRouter(t, "alice")
	ctx := context.Background()

	for _, actor := range []string{"alice", "bob", "alice"} {
		if err := store.Log(ctx, Entry{
			ActorID: actor,
			Action:  ActionChatMessage,
			Scope:   ScopeChat,
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit/?actor=bob&limit=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var entries []Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries for alice, got %d", len(entries))
	}
	for _, e := range entries {
		if e.ActorID != "alice" {
			t.Errorf("leaked entry for %q", e.ActorID)
		}
	}
}

func TestRecord(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	Record(ctx, nil, Entry{ActorID: "alice"})
	Record(ctx, store, Entry{ActorID: "alice", Action: ActionResultDeleted, Scope: ScopeVerification})
	// Invalid actor type violates the CHECK constraint; Record swallows it.
	Record(ctx, store, Entry{ActorType: "robot", ActorID: "alice", Action: ActionResultDeleted, Scope: ScopeVerification})

	entries, err := store.Query(ctx, QueryFilter{ActorID: "alice"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}
