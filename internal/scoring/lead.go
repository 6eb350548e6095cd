// Package scoring holds the pure functions behind lead qualification, support
// SLA reporting and supply risk. Nothing here fails: missing or malformed input
// degrades to zero or to the documented empty-input value.
package scoring

import (
	"math"
	"time"

	"github.com/user/agentdeck/internal/types"
)

// Thresholds used by the lead pipeline.
const (
	QualifyThreshold = 70
	NurtureThreshold = 40
	WinThreshold     = 85
)

var budgetScores = map[types.Budget]float64{
	types.Budget10to50K:   25,
	types.Budget50to100K:  50,
	types.Budget100to250K: 75,
	types.Budget250KPlus:  100,
}

var intentScores = map[types.Intent]float64{
	types.IntentLow:    20,
	types.IntentMedium: 60,
	types.IntentHigh:   100,
}

var sourceScores = map[types.LeadSource]float64{
	types.SourceReferral: 100,
	types.SourceEvent:    75,
	types.SourceWebsite:  50,
	types.SourceAd:       25,
}

// LeadScore scores a lead against the current time.
func LeadScore(lead *types.Lead) int {
	return LeadScoreAt(lead, time.Now())
}

// LeadScoreAt is a weighted sum of budget (.35), intent (.35), recency (.20)
// and source (.10), rounded and clamped to [0,100]. Unknown enum values
// contribute 0. Recency loses 3 points per whole day since last activity.
func LeadScoreAt(lead *types.Lead, now time.Time) int {
	if lead == nil {
		return 0
	}
	recency := math.Max(0, 100-float64(wholeDays(now.Sub(lead.LastActivity)))*3)

	total := budgetScores[lead.Budget]*0.35 +
		intentScores[lead.Intent]*0.35 +
		recency*0.20 +
		sourceScores[lead.Source]*0.10

	return round(math.Min(100, math.Max(0, total)))
}

// Decision maps a score to QUALIFY, NURTURE or DROP.
func Decision(score int) string {
	switch {
	case score >= QualifyThreshold:
		return "QUALIFY"
	case score >= NurtureThreshold:
		return "NURTURE"
	default:
		return "DROP"
	}
}

// NextStage advances a lead's stage for a fresh score. Stages only move
// forward: new becomes qualified at 70, qualified becomes won at 85.
func NextStage(current types.LeadStage, score int) types.LeadStage {
	switch {
	case current == types.StageNew && score >= QualifyThreshold:
		return types.StageQualified
	case current == types.StageQualified && score >= WinThreshold:
		return types.StageWon
	}
	return current
}

// QualificationReasons explains a score in sales language.
func QualificationReasons(lead *types.Lead, score int) []string {
	if lead == nil {
		return []string{"Standard qualification assessment completed"}
	}
	var reasons []string

	switch lead.Budget {
	case types.Budget250KPlus:
		reasons = append(reasons, "High budget potential indicates strong purchasing power")
	case types.Budget100to250K:
		reasons = append(reasons, "Good budget range for our solutions")
	}

	switch lead.Intent {
	case types.IntentHigh:
		reasons = append(reasons, "High purchase intent signals immediate buying opportunity")
	case types.IntentMedium:
		reasons = append(reasons, "Medium intent suggests active evaluation phase")
	}

	switch lead.Source {
	case types.SourceReferral:
		reasons = append(reasons, "Referral source typically indicates higher conversion rates")
	case types.SourceEvent:
		reasons = append(reasons, "Event leads often have immediate interest and timeline")
	}

	if score < NurtureThreshold {
		reasons = append(reasons, "Low overall score suggests need for further nurturing")
	} else if score >= QualifyThreshold {
		reasons = append(reasons, "Strong overall profile meets qualification criteria")
	}

	if len(reasons) == 0 {
		return []string{"Standard qualification assessment completed"}
	}
	return reasons
}

// ConversionRate is the percentage of won leads, one decimal place.
func ConversionRate(leads []*types.Lead) float64 {
	won, n := 0, 0
	for _, l := range leads {
		if l == nil {
			continue
		}
		n++
		if l.Stage == types.StageWon {
			won++
		}
	}
	if n == 0 {
		return 0
	}
	return round1(float64(won) / float64(n) * 100)
}

// AvgLeadScore recomputes every lead's score and averages them.
func AvgLeadScore(leads []*types.Lead, now time.Time) int {
	total, n := 0, 0
	for _, l := range leads {
		if l == nil {
			continue
		}
		total += LeadScoreAt(l, now)
		n++
	}
	if n == 0 {
		return 0
	}
	return round(float64(total) / float64(n))
}

// AgingBuckets counts leads by days since creation.
type AgingBuckets struct {
	Fresh  int `json:"0-7"`
	Recent int `json:"8-30"`
	Stale  int `json:"31+"`
}

func Aging(leads []*types.Lead, now time.Time) AgingBuckets {
	var b AgingBuckets
	for _, l := range leads {
		if l == nil {
			continue
		}
		switch d := wholeDays(now.Sub(l.CreatedAt)); {
		case d <= 7:
			b.Fresh++
		case d <= 30:
			b.Recent++
		default:
			b.Stale++
		}
	}
	return b
}

// wholeDays truncates toward zero, like a calendar-free day difference.
func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}

// round rounds half up, matching the dashboard's client-side rounding.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

func round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}
