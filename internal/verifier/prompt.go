package verifier

import (
	"strings"

	"github.com/ziadkadry99/ad-verify/internal/knowledge"
)

// SystemPrompt casts the model as the verification expert.
const SystemPrompt = "You are an expert in advertisement verification, tasked with assessing the credibility and authenticity of ads."

// NoGuidelinesText fills the guidelines section when retrieval finds nothing.
const NoGuidelinesText = "No relevant guidelines found."

const instructions = `Please analyze the advertisement and provide:
1. A credibility score from 0.0 to 1.0 (where 0 is completely misleading and 1 is fully verified)
2. A detailed explanation of your assessment
3. Specific issues or red flags identified
4. Recommendations for improvement

Format your response as a JSON object with keys: "score", "explanation", "issues", "recommendations"`

// BuildPrompt assembles the user message: the ad, the URL context, the
// retrieved guidelines and the output instructions, in that order.
func BuildPrompt(adContent, urlContext string, chunks []knowledge.Chunk) string {
	var b strings.Builder

	b.WriteString("ADVERTISEMENT TO VERIFY:\n")
	b.WriteString(adContent)
	b.WriteString("\n\nADDITIONAL CONTEXT FROM URL:\n")
	b.WriteString(urlContext)
	b.WriteString("\n\nRELEVANT ADVERTISING REGULATIONS AND GUIDELINES:\n")
	if len(chunks) == 0 {
		b.WriteString(NoGuidelinesText)
	} else {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		b.WriteString(strings.Join(texts, "\n\n"))
	}
	b.WriteString("\n\n")
	b.WriteString(instructions)
	b.WriteString("\n")

	return b.String()
}
