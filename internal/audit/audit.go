// Package audit records who did what to advertisements, verification
// results, the knowledge base and chat transcripts.
package audit

import (
	"context"
	"log"
	"time"
)

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
	ActorBot    ActorType = "bot"
)

// Action describes what was done.
type Action string

const (
	ActionVerificationCompleted Action = "verification_completed"
	ActionAdvertisementCreated  Action = "advertisement_created"
	ActionAdvertisementDeleted  Action = "advertisement_deleted"
	ActionResultDeleted         Action = "result_deleted"
	ActionKnowledgeIngested     Action = "knowledge_ingested"
	ActionKnowledgeRebuilt      Action = "knowledge_rebuilt"
	ActionKnowledgeDeleted      Action = "knowledge_deleted"
	ActionChatMessage           Action = "chat_message"
	ActionSubscriptionCreated   Action = "subscription_created"
	ActionSubscriptionDeleted   Action = "subscription_deleted"
)

// Scope names the kind of object an action applies to.
type Scope string

const (
	ScopeUser          Scope = "user"
	ScopeAdvertisement Scope = "advertisement"
	ScopeVerification  Scope = "verification"
	ScopeKnowledge     Scope = "knowledge"
	ScopeChat          Scope = "chat"
	ScopeSubscription  Scope = "subscription"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorType ActorType `json:"actor_type"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	Scope     Scope     `json:"scope"`
	ScopeID   string    `json:"scope_id,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Logger is implemented by Store. Feature packages depend on this instead
// of the concrete store so tests can pass nil.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// Record writes entry to l. Audit failures never fail the calling
// operation; they are logged and dropped. A nil Logger records nothing.
func Record(ctx context.Context, l Logger, entry Entry) {
	if l == nil {
		return
	}
	if err := l.Log(ctx, entry); err != nil {
		log.Printf("audit: recording %s on %s %s: %v", entry.Action, entry.Scope, entry.ScopeID, err)
	}
}
