package verifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Defaults applied when a parsed reply omits or mistypes a field.
const (
	// DefaultScore replaces a missing or non-numeric credibility score.
	DefaultScore = 0.5
	// DefaultExplanation replaces a missing or non-string explanation.
	DefaultExplanation = "No explanation provided."
)

// Fixed fields of the Outcome returned when the reply cannot be parsed.
const (
	// FallbackPrefix precedes the raw model reply in a fallback explanation.
	FallbackPrefix = "Could not parse structured result. Raw analysis: "
	// FallbackIssue is the only issue listed in a fallback outcome.
	FallbackIssue = "Result format error"
	// FallbackRecommendation is the only recommendation in a fallback outcome.
	FallbackRecommendation = "Try again with a different advertisement format"
)

// ErrMalformedOutput is returned by ParseModelOutput when the model's reply
// is not a JSON object of the expected shape.
var ErrMalformedOutput = errors.New("malformed model output")

// Outcome is the canonical result of verifying one advertisement.
type Outcome struct {
	CredibilityScore float64  `json:"credibility_score"`
	Explanation      string   `json:"explanation"`
	Issues           []string `json:"issues"`
	Recommendations  []string `json:"recommendations"`
}

// MarshalJSON encodes empty lists as [] rather than null.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type plain Outcome
	p := plain(o)
	if p.Issues == nil {
		p.Issues = []string{}
	}
	if p.Recommendations == nil {
		p.Recommendations = []string{}
	}
	return json.Marshal(p)
}

// Fallback is the outcome used when the model's reply cannot be parsed.
func Fallback(raw string) Outcome {
	return Outcome{
		CredibilityScore: DefaultScore,
		Explanation:      FallbackPrefix + raw,
		Issues:           []string{FallbackIssue},
		Recommendations:  []string{FallbackRecommendation},
	}
}

// outputSchema describes the reply requested in the prompt. Every key is
// optional and null is treated like a missing key.
const outputSchema = `{
  "type": "object",
  "properties": {
    "score":           {"type": ["number", "null"]},
    "explanation":     {"type": ["string", "null"]},
    "issues":          {"type": ["array", "null"], "items": {"type": "string"}},
    "recommendations": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(outputSchema))
})

// ParseModelOutput turns the model's raw reply into an Outcome. A single
// surrounding markdown code fence is tolerated. Missing keys take their
// defaults and the score is clamped into [0, 1]. Anything that is not a
// JSON object of the expected types yields an error wrapping
// ErrMalformedOutput; callers substitute Fallback.
func ParseModelOutput(raw string) (Outcome, error) {
	body := stripCodeFence(raw)
	if !json.Valid([]byte(body)) {
		return Outcome{}, fmt.Errorf("%w: not valid JSON", ErrMalformedOutput)
	}

	schema, err := compiledSchema()
	if err != nil {
		return Outcome{}, fmt.Errorf("compiling output schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return Outcome{}, fmt.Errorf("%w: %s", ErrMalformedOutput, strings.Join(details, "; "))
	}

	var fields struct {
		Score           *float64 `json:"score"`
		Explanation     *string  `json:"explanation"`
		Issues          []string `json:"issues"`
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}

	out := Outcome{
		CredibilityScore: DefaultScore,
		Explanation:      DefaultExplanation,
		Issues:           fields.Issues,
		Recommendations:  fields.Recommendations,
	}
	if fields.Score != nil {
		out.CredibilityScore = clamp(*fields.Score)
	}
	if fields.Explanation != nil {
		out.Explanation = *fields.Explanation
	}
	if out.Issues == nil {
		out.Issues = []string{}
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	return out, nil
}

func clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

// stripCodeFence removes one ```lang ... ``` wrapper if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := s[3 : len(s)-3]
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		// Drop the language tag on the opening line.
		if tag := strings.TrimSpace(inner[:nl]); !strings.ContainsAny(tag, "{[") {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}
