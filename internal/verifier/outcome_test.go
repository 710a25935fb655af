package verifier

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelOutputWellFormed(t *testing.T) {
	raw := `{"score": 0.82, "explanation": "Claims are specific and sourced.", "issues": ["Missing #ad tag"], "recommendations": ["Add a sponsorship disclosure"]}`

	got, err := ParseModelOutput(raw)
	require.NoError(t, err)
	assert.Equal(t, Outcome{
		CredibilityScore: 0.82,
		Explanation:      "Claims are specific and sourced.",
		Issues:           []string{"Missing #ad tag"},
		Recommendations:  []string{"Add a sponsorship disclosure"},
	}, got)
}

func TestParseModelOutputDefaults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Outcome
	}{
		{
			name: "empty object",
			raw:  `{}`,
			want: Outcome{CredibilityScore: DefaultScore, Explanation: DefaultExplanation, Issues: []string{}, Recommendations: []string{}},
		},
		{
			name: "nulls",
			raw:  `{"score": null, "explanation": null, "issues": null, "recommendations": null}`,
			want: Outcome{CredibilityScore: DefaultScore, Explanation: DefaultExplanation, Issues: []string{}, Recommendations: []string{}},
		},
		{
			name: "only score",
			raw:  `{"score": 1}`,
			want: Outcome{CredibilityScore: 1, Explanation: DefaultExplanation, Issues: []string{}, Recommendations: []string{}},
		},
		{
			name: "extra keys ignored",
			raw:  `{"score": 0.2, "explanation": "x", "verdict": "bad"}`,
			want: Outcome{CredibilityScore: 0.2, Explanation: "x", Issues: []string{}, Recommendations: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModelOutput(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseModelOutputClampsScore(t *testing.T) {
	for raw, want := range map[string]float64{
		`{"score": -2}`:  0,
		`{"score": 7.5}`: 1,
		`{"score": 0}`:   0,
	} {
		got, err := ParseModelOutput(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got.CredibilityScore, raw)
	}
}

func TestParseModelOutputCodeFence(t *testing.T) {
	for _, raw := range []string{
		"```json\n{\"score\": 0.4, \"explanation\": \"fenced\"}\n```",
		"```\n{\"score\": 0.4, \"explanation\": \"fenced\"}\n```",
		"  ```{\"score\": 0.4, \"explanation\": \"fenced\"}```  ",
	} {
		got, err := ParseModelOutput(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, 0.4, got.CredibilityScore)
		assert.Equal(t, "fenced", got.Explanation)
	}
}

func TestParseModelOutputMalformed(t *testing.T) {
	for _, raw := range []string{
		"not json at all",
		"",
		`{"score": 0.4`,
		`[1, 2, 3]`,
		`"just a string"`,
		`null`,
		`{"score": "high"}`,
		`{"explanation": 42}`,
		`{"issues": "one issue"}`,
		`{"recommendations": [1, 2]}`,
		`Here you go: {"score": 0.3}`,
	} {
		_, err := ParseModelOutput(raw)
		assert.ErrorIs(t, err, ErrMalformedOutput, "input %q", raw)
	}
}

func TestFallback(t *testing.T) {
	got := Fallback("not json at all")
	assert.Equal(t, Outcome{
		CredibilityScore: 0.5,
		Explanation:      "Could not parse structured result. Raw analysis: not json at all",
		Issues:           []string{"Result format error"},
		Recommendations:  []string{"Try again with a different advertisement format"},
	}, got)
}

func TestOutcomeMarshalsEmptyLists(t *testing.T) {
	data, err := json.Marshal(Outcome{CredibilityScore: 0.5, Explanation: "ok"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"credibility_score":0.5,"explanation":"ok","issues":[],"recommendations":[]}`, string(data))
}
