package scoring

import (
	"time"

	"github.com/user/agentdeck/internal/types"
)

// SLAPolicy holds response and resolution limits in minutes.
type SLAPolicy struct {
	FirstResponseMins        int                    `json:"first_response_mins"`
	ResolutionMinsByPriority map[types.Priority]int `json:"resolution_mins_by_priority"`
}

// DefaultSLAPolicy: 4h first response; 8h, 24h and 72h resolution for
// High, Medium and Low.
func DefaultSLAPolicy() SLAPolicy {
	return SLAPolicy{
		FirstResponseMins: 240,
		ResolutionMinsByPriority: map[types.Priority]int{
			types.PriorityHigh:   480,
			types.PriorityMedium: 1440,
			types.PriorityLow:    4320,
		},
	}
}

// FirstResponseTime returns whole minutes from creation to first response.
func FirstResponseTime(t *types.Ticket) (int, bool) {
	if t == nil || t.FirstResponseAt == nil {
		return 0, false
	}
	return int(t.FirstResponseAt.Sub(t.CreatedAt) / time.Minute), true
}

// ResolutionTime returns whole minutes from creation to resolution.
func ResolutionTime(t *types.Ticket) (int, bool) {
	if t == nil || t.ResolvedAt == nil {
		return 0, false
	}
	return int(t.ResolvedAt.Sub(t.CreatedAt) / time.Minute), true
}

// SLABreached reports whether either the first response or the resolution
// exceeded the policy. Open tickets are judged only on what has happened.
func SLABreached(t *types.Ticket, policy SLAPolicy) bool {
	if t == nil {
		return false
	}
	if mins, ok := FirstResponseTime(t); ok && mins > policy.FirstResponseMins {
		return true
	}
	limit, hasLimit := policy.ResolutionMinsByPriority[t.Priority]
	if mins, ok := ResolutionTime(t); ok && hasLimit && limit > 0 && mins > limit {
		return true
	}
	return false
}

// SLACompliance is the percentage of tickets within policy; 100 when empty.
func SLACompliance(tickets []*types.Ticket, policy SLAPolicy) int {
	breached, n := 0, 0
	for _, t := range tickets {
		if t == nil {
			continue
		}
		n++
		if SLABreached(t, policy) {
			breached++
		}
	}
	if n == 0 {
		return 100
	}
	return round(float64(n-breached) / float64(n) * 100)
}

// AvgHandleTime is the mean resolution time of resolved tickets in hours,
// one decimal place.
func AvgHandleTime(tickets []*types.Ticket) float64 {
	var total, n int
	for _, t := range tickets {
		if mins, ok := ResolutionTime(t); ok {
			total += mins
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round1(float64(total) / float64(n) / 60)
}

// Backlog counts tickets that are not resolved.
func Backlog(tickets []*types.Ticket) int {
	n := 0
	for _, t := range tickets {
		if t != nil && t.Status != types.TicketResolved {
			n++
		}
	}
	return n
}

// CSATAverage averages the non-zero satisfaction ratings, one decimal place.
func CSATAverage(tickets []*types.Ticket) float64 {
	var total, n int
	for _, t := range tickets {
		if t != nil && t.CSAT != nil && *t.CSAT != 0 {
			total += *t.CSAT
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round1(float64(total) / float64(n))
}
