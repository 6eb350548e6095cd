// Package nlu is a deterministic keyword and regex pipeline for support
// tickets: intent classification, entity extraction, urgency and sentiment.
package nlu

import (
	"maps"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	IntentLogin       = "login_issue"
	IntentBilling     = "billing_issue"
	IntentFeature     = "feature_request"
	IntentBug         = "bug_report"
	IntentIntegration = "integration_issue"
	IntentPerformance = "performance_issue"
	IntentGeneral     = "general"
)

type intentPattern struct {
	name     string
	keywords []*regexp.Regexp
	patterns []*regexp.Regexp
	weight   float64
}

// Classification is the outcome of ClassifyIntent. Confidence is the raw
// weighted score of the primary intent, not a probability.
type Classification struct {
	PrimaryIntent string             `json:"primaryIntent"`
	Confidence    float64            `json:"confidence"`
	AllScores     map[string]float64 `json:"allScores"`
}

// intentTable lists intents in tie-break order.
var intentTable = []intentPattern{
	{
		name:     IntentLogin,
		keywords: keywords("login", "signin", "sign in", "password", "authentication", "access", "locked out", "forgot password"),
		patterns: patterns(
			`can't log(?:in| in)|cannot log(?:in| in)`,
			`password (?:not working|incorrect|wrong)`,
			`(?:forgot|forgotten|lost) (?:my )?password`,
			`account (?:locked|blocked|suspended)`,
		),
		weight: 1.2,
	},
	{
		name:     IntentBilling,
		keywords: keywords("billing", "payment", "charge", "invoice", "refund", "subscription", "credit card", "overcharged"),
		patterns: patterns(
			`(?:wrong|incorrect|unexpected) (?:charge|billing|amount)`,
			`(?:refund|money back|return)`,
			`subscription (?:cancelled|canceled|stopped)`,
			`payment (?:failed|declined|not working)`,
		),
		weight: 1.1,
	},
	{
		name:     IntentFeature,
		keywords: keywords("feature", "functionality", "add", "improvement", "enhance", "suggestion", "would like", "need"),
		patterns: patterns(
			`(?:can you|could you|please) add`,
			`(?:feature request|new feature)`,
			`would (?:like|love) to (?:see|have)`,
			`suggestion for improvement`,
		),
		weight: 1.0,
	},
	{
		name:     IntentBug,
		keywords: keywords("bug", "error", "broken", "not working", "issue", "problem", "crash", "freeze"),
		patterns: patterns(
			`(?:error|bug|problem) (?:with|in|on)`,
			`(?:not working|broken|crashed)`,
			`(?:getting (?:an )?error|receiving (?:an )?error)`,
			`(?:page|app|system) (?:frozen|hanging|stuck)`,
		),
		weight: 1.3,
	},
	{
		name:     IntentIntegration,
		keywords: keywords("integration", "api", "webhook", "sync", "connection", "third party", "export", "import"),
		patterns: patterns(
			`(?:api|integration) (?:not working|failing|broken)`,
			`(?:sync|synchronization) (?:issue|problem|not working)`,
			`(?:webhook|connection) (?:failed|timeout|error)`,
			`(?:export|import) (?:not working|failing)`,
		),
		weight: 1.1,
	},
	{
		name:     IntentPerformance,
		keywords: keywords("slow", "performance", "loading", "timeout", "lag", "speed", "response time"),
		patterns: patterns(
			`(?:very|too|really) slow`,
			`(?:loading|takes) (?:forever|too long|a long time)`,
			`(?:performance|speed) (?:issue|problem)`,
			`(?:timeout|timed out)`,
		),
		weight: 1.2,
	},
}

func keywords(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// Classifier scores messages against the intent table. Results are memoised
// in an LRU cache since the same ticket body is classified on open, on
// redraft and in batch runs.
type Classifier struct {
	cache *lru.Cache[string, Classification]
}

// NewClassifier creates a classifier caching up to cacheSize results. A size
// of zero or less disables the cache.
func NewClassifier(cacheSize int) *Classifier {
	c := &Classifier{}
	if cacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		c.cache, _ = lru.New[string, Classification](cacheSize)
	}
	return c
}

// ClassifyIntent sums one point per keyword hit and two per matching pattern,
// multiplied by the intent weight. The highest positive score wins; ties go to
// the earlier intent. With no positive score the intent is "general".
func (c *Classifier) ClassifyIntent(message string) Classification {
	if c.cache != nil {
		if hit, ok := c.cache.Get(message); ok {
			hit.AllScores = maps.Clone(hit.AllScores)
			return hit
		}
	}

	lower := strings.ToLower(message)
	result := Classification{
		PrimaryIntent: IntentGeneral,
		AllScores:     make(map[string]float64, len(intentTable)),
	}
	for _, intent := range intentTable {
		score := 0.0
		for _, kw := range intent.keywords {
			score += float64(len(kw.FindAllStringIndex(lower, -1)))
		}
		for _, p := range intent.patterns {
			if p.MatchString(message) {
				score += 2
			}
		}
		score *= intent.weight
		result.AllScores[intent.name] = score

		if score > 0 && score > result.Confidence {
			result.PrimaryIntent = intent.name
			result.Confidence = score
		}
	}

	if c.cache != nil {
		c.cache.Add(message, Classification{
			PrimaryIntent: result.PrimaryIntent,
			Confidence:    result.Confidence,
			AllScores:     maps.Clone(result.AllScores),
		})
	}
	return result
}

// Intents lists the known intent names in table order.
func Intents() []string {
	out := make([]string, len(intentTable))
	for i, in := range intentTable {
		out[i] = in.name
	}
	return out
}
