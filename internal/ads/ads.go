// Package ads stores advertisements and the verification results produced
// for them.
package ads

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist or belongs to
// another user.
var ErrNotFound = errors.New("not found")

// Advertisement is a piece of ad copy submitted for verification.
type Advertisement struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	URL       string    `json:"url"`
	ImageURL  string    `json:"image_url"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// VerificationResult is one stored assessment of an advertisement.
type VerificationResult struct {
	ID               string    `json:"id"`
	AdvertisementID  string    `json:"advertisement"`
	UserID           string    `json:"user"`
	CredibilityScore float64   `json:"credibility_score"`
	Explanation      string    `json:"explanation"`
	Issues           []string  `json:"issues"`
	Recommendations  []string  `json:"recommendations"`
	CreatedAt        time.Time `json:"created_at"`

	// AdvertisementContent is filled in on reads.
	AdvertisementContent string `json:"advertisement_content,omitempty"`
}
