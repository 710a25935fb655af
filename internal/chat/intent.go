// Package chat implements the conversational front end: a keyword rule
// decides whether a message asks for an ad verification, and the bot
// answers with a formatted verdict or a help text.
package chat

import (
	"regexp"
	"strings"
)

// HelpText is the reply to messages that do not ask for a verification.
const HelpText = "I'm your ad verification assistant. To verify an advertisement, please send me the ad content with 'Verify this ad:' followed by the advertisement text."

// verifyMarker designates where the ad text begins in a message. It is
// matched on the original text so offsets stay valid for runes whose
// lower-case form has a different byte length.
var verifyMarker = regexp.MustCompile(`(?i)verify this ad:`)

var intentKeywords = []string{"verify", "check", "ad", "advertisement", "credibility"}

// LooksLikeVerificationRequest reports whether text mentions any of the
// verification keywords. Matching is on substrings, so "ad" also matches
// inside longer words.
func LooksLikeVerificationRequest(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range intentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractAdContent returns the text after the "verify this ad:" marker
// (matched case-insensitively), or the whole message when the marker is
// absent.
func ExtractAdContent(text string) string {
	loc := verifyMarker.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return strings.TrimSpace(text[loc[1]:])
}
