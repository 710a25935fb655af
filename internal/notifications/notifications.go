// Package notifications delivers low-credibility verification results to
// user-registered webhooks and keeps a log of every delivery attempt.
package notifications

import (
	"errors"
	"time"

	"github.com/ziadkadry99/ad-verify/internal/ads"
)

// EventLowCredibility is the event name carried in webhook payloads.
const EventLowCredibility = "verification.low_credibility"

// DefaultMaxScore is the alert threshold used when a subscription does not
// set one. The parse fallback score is 0.5, so unparseable verdicts alert too.
const DefaultMaxScore = 0.5

// ErrNotFound is returned for subscriptions that do not exist or belong to
// another user.
var ErrNotFound = errors.New("subscription not found")

// Subscription asks for a webhook call whenever one of the user's
// verifications scores at or below MaxScore.
type Subscription struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user"`
	WebhookURL string    `json:"webhook_url"`
	MaxScore   float64   `json:"max_score"`
	CreatedAt  time.Time `json:"created_at"`
}

// Matches reports whether a result with the given score should be sent.
func (s Subscription) Matches(score float64) bool {
	return score <= s.MaxScore
}

// Delivery records one webhook attempt.
type Delivery struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscription"`
	ResultID       string    `json:"result"`
	StatusCode     int       `json:"status_code"`
	Error          string    `json:"error,omitempty"`
	Delivered      bool      `json:"delivered"`
	CreatedAt      time.Time `json:"created_at"`
}

// Payload is the JSON body POSTed to webhooks.
type Payload struct {
	Event  string                  `json:"event"`
	Result *ads.VerificationResult `json:"result"`
	SentAt time.Time               `json:"sent_at"`
}
