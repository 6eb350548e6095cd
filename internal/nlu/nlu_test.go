package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/agentdeck/internal/types"
)

func TestClassifyLoginTicket(t *testing.T) {
	c := NewClassifier(16)
	msg := "I can't login, password incorrect, urgent!!"

	got := c.ClassifyIntent(msg)
	assert.Equal(t, IntentLogin, got.PrimaryIntent)
	// keywords login+password, patterns "can't login" and "password incorrect"
	assert.InDelta(t, 6*1.2, got.Confidence, 1e-9)
	assert.Equal(t, UrgencyHigh, AnalyzeUrgency(msg, types.PriorityMedium))
}

func TestClassifyGeneral(t *testing.T) {
	c := NewClassifier(0)
	got := c.ClassifyIntent("hello there")
	assert.Equal(t, IntentGeneral, got.PrimaryIntent)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Len(t, got.AllScores, len(Intents()))
}

func TestClassifyCountsRepeatedKeywords(t *testing.T) {
	c := NewClassifier(0)
	got := c.ClassifyIntent("slow slow slow")
	assert.Equal(t, IntentPerformance, got.PrimaryIntent)
	assert.InDelta(t, 3*1.2, got.Confidence, 1e-9)
}

func TestClassifyBugReport(t *testing.T) {
	c := NewClassifier(0)
	got := c.ClassifyIntent("The app crashed and I am getting an error")
	assert.Equal(t, IntentBug, got.PrimaryIntent)
	// keyword "error", patterns "crashed" and "getting an error"
	assert.InDelta(t, 5*1.3, got.Confidence, 1e-9)
}

func TestClassifierCacheReturnsCopies(t *testing.T) {
	c := NewClassifier(4)
	first := c.ClassifyIntent("refund my invoice")
	first.AllScores[IntentBilling] = -1

	second := c.ClassifyIntent("refund my invoice")
	assert.Equal(t, IntentBilling, second.PrimaryIntent)
	assert.Greater(t, second.AllScores[IntentBilling], 0.0)
}

func TestExtractEntities(t *testing.T) {
	msg := "Contact me at jane.doe@example.com, error: E1234 on Chrome 118 (Windows 11), version 2.3.1 see https://app.example.com/x"
	e := ExtractEntities(msg)

	assert.Equal(t, []string{"jane.doe@example.com"}, e[EntityEmail])
	assert.Equal(t, []string{"https://app.example.com/x"}, e[EntityURL])
	assert.Equal(t, []string{"error: E1234"}, e[EntityErrorCode])
	assert.Equal(t, []string{"version 2.3.1"}, e[EntityVersion])
	assert.Equal(t, []string{"Chrome 118"}, e[EntityBrowser])
	assert.Equal(t, []string{"Windows 11"}, e[EntityOS])
}

func TestExtractEntitiesAbsentTypes(t *testing.T) {
	e := ExtractEntities("nothing to see")
	assert.Empty(t, e)
	_, ok := e.First(EntityEmail)
	assert.False(t, ok)
}

func TestExtractEntitiesMatchesInsideWords(t *testing.T) {
	e := ExtractEntities("Clear cookies")
	first, ok := e.First(EntityBrowser)
	require.True(t, ok)
	assert.Equal(t, "ie", first)
}

func TestAnalyzeUrgency(t *testing.T) {
	assert.Equal(t, UrgencyHigh, AnalyzeUrgency("Production down for everyone", types.PriorityLow))
	assert.Equal(t, UrgencyHigh, AnalyzeUrgency("hello", types.PriorityHigh))
	assert.Equal(t, UrgencyMedium, AnalyzeUrgency("this is blocking my release", types.PriorityLow))
	assert.Equal(t, UrgencyMedium, AnalyzeUrgency("hello", types.PriorityMedium))
	assert.Equal(t, UrgencyLow, AnalyzeUrgency("hello", types.PriorityLow))
}

func TestAnalyzeSentiment(t *testing.T) {
	assert.Equal(t, SentimentPositive, AnalyzeSentiment("thank you, please help"))
	assert.Equal(t, SentimentNegative, AnalyzeSentiment("this is broken and I am frustrated"))
	assert.Equal(t, SentimentNeutral, AnalyzeSentiment("please, it is broken"))
	// case-sensitive
	assert.Equal(t, SentimentNeutral, AnalyzeSentiment("Thank you"))
}

func TestKeyTopics(t *testing.T) {
	assert.Equal(t, []string{"authentication", "bug"}, KeyTopics("login error"))
	assert.Nil(t, KeyTopics("hello"))
}

func TestShouldEscalate(t *testing.T) {
	assert.True(t, ShouldEscalate(IntentLogin, "my account locked for >24 hours now", types.PriorityLow))
	assert.True(t, ShouldEscalate(IntentBug, "Data Loss everywhere", types.PriorityLow))
	assert.True(t, ShouldEscalate(IntentFeature, "dark mode please", types.PriorityHigh))
	assert.False(t, ShouldEscalate(IntentFeature, "data loss", types.PriorityLow))
	assert.False(t, ShouldEscalate(IntentGeneral, "anything", types.PriorityMedium))
}

func TestGetSolution(t *testing.T) {
	s := GetSolution(IntentBilling)
	assert.Len(t, s.TroubleshootingSteps, 5)
	assert.Equal(t, "billing adjustment processed", s.FollowUpActions[0])
	assert.Empty(t, GetSolution(IntentGeneral).FollowUpActions)
}

func TestNormalizeMessage(t *testing.T) {
	assert.Equal(t, "plain text", NormalizeMessage("  plain text \n"))

	md := NormalizeMessage("<p>I <strong>cannot login</strong> today</p>")
	assert.Contains(t, md, "cannot login")
	assert.NotContains(t, md, "<p>")
}
