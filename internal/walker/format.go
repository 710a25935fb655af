package walker

import (
	"path/filepath"
	"strings"
)

// Format identifies how a guideline document is written.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatHTML     Format = "html"
	FormatUnknown  Format = "unknown"
)

var extensionToFormat = map[string]Format{
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".txt":      FormatText,
	".text":     FormatText,
	".rst":      FormatText,
	".html":     FormatHTML,
	".htm":      FormatHTML,
}

// DetectFormat returns the document format for a filename based on its
// extension.
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	if f, ok := extensionToFormat[ext]; ok {
		return f
	}
	return FormatUnknown
}
