package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/ad-verify/internal/audit"
	"github.com/ziadkadry99/ad-verify/internal/verifier"
)

// ErrEmptyMessage is returned for blank chat messages.
var ErrEmptyMessage = errors.New("Message is required")

// Verifier runs and records a verification. *verifier.Service implements it.
type Verifier interface {
	VerifyAndRecord(ctx context.Context, userID, content, url string) (*verifier.Record, error)
}

// Reply is the outcome of one chat exchange.
type Reply struct {
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
	ResultID    string    `json:"result_id,omitempty"`
}

// Bot answers chat messages.
type Bot struct {
	verifier Verifier
	store    *Store
	audit    audit.Logger
}

// NewBot creates a Bot. auditLog may be nil.
func NewBot(v Verifier, store *Store, auditLog audit.Logger) *Bot {
	return &Bot{verifier: v, store: store, audit: auditLog}
}

// HandleMessage stores the user's message, runs a verification when the
// message asks for one, and stores and returns the bot's answer.
func (b *Bot) HandleMessage(ctx context.Context, userID, message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	userMsg, err := b.store.Add(ctx, userID, message, true)
	if err != nil {
		return nil, err
	}

	response := HelpText
	var resultID string
	if LooksLikeVerificationRequest(message) {
		if content := ExtractAdContent(message); strings.TrimSpace(content) != "" {
			rec, err := b.verifier.VerifyAndRecord(ctx, userID, content, "")
			if err != nil {
				return nil, err
			}
			response = FormatOutcome(rec.Outcome)
			resultID = rec.Result.ID
		}
	}

	botMsg, err := b.store.Add(ctx, userID, response, false)
	if err != nil {
		return nil, err
	}

	audit.Record(ctx, b.audit, audit.Entry{
		ActorType: audit.ActorBot,
		ActorID:   userID,
		Action:    audit.ActionChatMessage,
		Scope:     audit.ScopeChat,
		ScopeID:   botMsg.ID,
		Summary:   summarize(resultID),
	})

	return &Reply{
		UserMessage: userMsg.Message,
		BotResponse: botMsg.Message,
		Timestamp:   botMsg.CreatedAt,
		ResultID:    resultID,
	}, nil
}

func summarize(resultID string) string {
	if resultID == "" {
		return "Answered with help text"
	}
	return "Answered with verification " + resultID
}

// FormatOutcome renders a verification as a chat reply.
func FormatOutcome(o *verifier.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ad Verification Result:\nCredibility Score: %.2f/1.00\n\nAnalysis:\n%s\n\n", o.CredibilityScore, o.Explanation)
	if len(o.Issues) > 0 {
		b.WriteString("Issues Identified:\n")
		b.WriteString(bullets(o.Issues))
		b.WriteString("\n\n")
	}
	if len(o.Recommendations) > 0 {
		b.WriteString("Recommendations:\n")
		b.WriteString(bullets(o.Recommendations))
	}
	return b.String()
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- " + it
	}
	return strings.Join(lines, "\n")
}
