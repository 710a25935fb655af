package knowledge

import (
	"fmt"
	"strings"
)

// FormatChunks renders retrieved chunks as human-readable text.
func FormatChunks(chunks []Chunk) string {
	if len(chunks) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n\n", len(chunks))
	for i, c := range chunks {
		fmt.Fprintf(&sb, "--- Result %d (similarity: %.4f) ---\n", i+1, c.Similarity)
		if c.Source != "" {
			fmt.Fprintf(&sb, "Source: %s\n", c.Source)
		}
		sb.WriteString("\n")
		sb.WriteString(c.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
