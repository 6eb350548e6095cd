package nlu

import "regexp"

const (
	EntityEmail     = "email"
	EntityURL       = "url"
	EntityErrorCode = "errorCode"
	EntityVersion   = "version"
	EntityBrowser   = "browser"
	EntityOS        = "os"
)

// Entities maps an entity type to its full matches in message order.
type Entities map[string][]string

// First returns the first match of an entity type.
func (e Entities) First(kind string) (string, bool) {
	if v := e[kind]; len(v) > 0 {
		return v[0], true
	}
	return "", false
}

var entityPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{EntityEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)},
	{EntityURL, regexp.MustCompile(`https?://[^\s]+`)},
	{EntityErrorCode, regexp.MustCompile(`(?i)(?:error|code)\s*[:=#]?\s*([A-Z0-9_-]+)`)},
	{EntityVersion, regexp.MustCompile(`(?i)(?:version|ver|v)\.?\s*(\d+(?:\.\d+)*)`)},
	{EntityBrowser, regexp.MustCompile(`(?i)(?:chrome|firefox|safari|edge|internet explorer|ie)\s*(\d+)?`)},
	{EntityOS, regexp.MustCompile(`(?i)(?:windows|mac|linux|android|ios)\s*(\d+(?:\.\d+)*)?`)},
}

// ExtractEntities collects whole-pattern matches per entity type. Types with
// no match are absent from the result. Matches are not restricted to word
// boundaries, so "ie" is found inside "cookies".
func ExtractEntities(message string) Entities {
	out := make(Entities)
	for _, p := range entityPatterns {
		if m := p.re.FindAllString(message, -1); len(m) > 0 {
			out[p.kind] = m
		}
	}
	return out
}
