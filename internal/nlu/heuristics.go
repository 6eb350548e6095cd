package nlu

import (
	"strings"

	"github.com/user/agentdeck/internal/types"
)

type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

var (
	urgentKeywords   = []string{"urgent", "asap", "immediately", "critical", "emergency", "production down", "can't work"}
	moderateKeywords = []string{"soon", "important", "blocking", "affecting users"}

	positiveWords = []string{"thank", "please", "appreciate", "great", "good", "excellent"}
	negativeWords = []string{"urgent", "critical", "broken", "frustrated", "angry", "terrible", "awful"}
)

// AnalyzeUrgency: an urgent keyword or High priority is high, a moderate
// keyword or Medium priority is medium, anything else low. Keywords match as
// case-insensitive substrings.
func AnalyzeUrgency(message string, priority types.Priority) Urgency {
	lower := strings.ToLower(message)
	if containsAny(lower, urgentKeywords) || priority == types.PriorityHigh {
		return UrgencyHigh
	}
	if containsAny(lower, moderateKeywords) || priority == types.PriorityMedium {
		return UrgencyMedium
	}
	return UrgencyLow
}

// AnalyzeSentiment compares how many positive and negative words appear.
// Matching is case-sensitive; each word counts once.
func AnalyzeSentiment(message string) Sentiment {
	pos := countPresent(message, positiveWords)
	neg := countPresent(message, negativeWords)
	switch {
	case neg > pos:
		return SentimentNegative
	case pos > neg:
		return SentimentPositive
	default:
		return SentimentNeutral
	}
}

// KeyTopics tags a message with coarse topics used for ticket labels.
func KeyTopics(message string) []string {
	var topics []string
	if strings.Contains(message, "login") || strings.Contains(message, "password") {
		topics = append(topics, "authentication")
	}
	if strings.Contains(message, "billing") || strings.Contains(message, "payment") {
		topics = append(topics, "billing")
	}
	if strings.Contains(message, "feature") || strings.Contains(message, "function") {
		topics = append(topics, "feature")
	}
	if strings.Contains(message, "bug") || strings.Contains(message, "error") {
		topics = append(topics, "bug")
	}
	return topics
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func countPresent(s string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(s, w) {
			n++
		}
	}
	return n
}
