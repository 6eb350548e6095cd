package nlu

import (
	"log/slog"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var htmlTag = regexp.MustCompile(`(?i)</?(?:p|div|br|span|a|b|i|strong|em|ul|ol|li|table|tr|td|h[1-6]|html|body|blockquote|pre|code)\b[^>]*>`)

// NormalizeMessage converts HTML ticket bodies (email channel) to markdown so
// keyword and entity matching sees plain words. Plain text passes through
// trimmed. Conversion failures fall back to the raw body.
func NormalizeMessage(body string) string {
	if !htmlTag.MatchString(body) {
		return strings.TrimSpace(body)
	}
	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		slog.Warn("html ticket body conversion failed", "error", err)
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(md)
}
