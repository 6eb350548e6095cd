package agents

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/user/agentdeck/internal/nlu"
	"github.com/user/agentdeck/internal/scoring"
	"github.com/user/agentdeck/internal/types"
)

const SupportAgentName = "supportAgent"

// Draft is a suggested reply to a ticket with the analysis behind it.
type Draft struct {
	TicketID          types.TicketID     `json:"ticketId"`
	SuggestedResponse string             `json:"suggestedResponse"`
	Intent            string             `json:"intent"`
	Confidence        float64            `json:"confidence"`
	Category          string             `json:"category"`
	Sentiment         nlu.Sentiment      `json:"sentiment"`
	Urgency           nlu.Urgency        `json:"urgency"`
	EscalationNeeded  bool               `json:"escalationNeeded"`
	NextSteps         []string           `json:"nextSteps"`
	Tags              []string           `json:"tags"`
	Entities          nlu.Entities       `json:"entities,omitempty"`
	AllIntentScores   map[string]float64 `json:"allIntentScores,omitempty"`
}

type analysis struct {
	intent     string
	confidence float64
	scores     map[string]float64
	entities   nlu.Entities
	urgency    nlu.Urgency
	sentiment  nlu.Sentiment
	escalate   bool
	nextSteps  []string
	topics     []string
}

// SupportAgent drafts replies to support tickets.
type SupportAgent struct {
	lifecycle
	classifier *nlu.Classifier
	tickets    types.TicketStore
	latency    time.Duration
	processed  atomic.Int64
}

// NewSupportAgent creates the agent. tickets is only read for stats and may
// be nil.
func NewSupportAgent(classifier *nlu.Classifier, tickets types.TicketStore) *SupportAgent {
	if classifier == nil {
		classifier = nlu.NewClassifier(0)
	}
	return &SupportAgent{
		lifecycle:  lifecycle{name: SupportAgentName},
		classifier: classifier,
		tickets:    tickets,
	}
}

func (a *SupportAgent) SetLatency(d time.Duration) { a.latency = d }

func (a *SupportAgent) Start() error {
	a.activate(nil)
	return nil
}

func (a *SupportAgent) Stop() { a.deactivate() }

// DraftReply analyses the ticket message and renders a reply. HTML bodies are
// converted to text first.
func (a *SupportAgent) DraftReply(ctx context.Context, ticket *types.Ticket) (*Draft, error) {
	if ticket == nil {
		return nil, nil
	}
	if err := wait(ctx, a.latency); err != nil {
		return nil, err
	}

	an := a.analyze(ticket)
	reply, err := renderReply(ticket, an)
	if err != nil {
		return nil, fmt.Errorf("drafting reply for %s: %w", ticket.ID, err)
	}
	a.processed.Add(1)
	return &Draft{
		TicketID:          ticket.ID,
		SuggestedResponse: reply,
		Intent:            an.intent,
		Confidence:        an.confidence,
		Category:          ticket.Category,
		Sentiment:         an.sentiment,
		Urgency:           an.urgency,
		EscalationNeeded:  an.escalate,
		NextSteps:         an.nextSteps,
		Tags:              tags(ticket, an),
		Entities:          an.entities,
		AllIntentScores:   an.scores,
	}, nil
}

// NeedsEscalation runs just the escalation check for a ticket.
func (a *SupportAgent) NeedsEscalation(ticket *types.Ticket) bool {
	message := nlu.NormalizeMessage(ticket.Message)
	c := a.classifier.ClassifyIntent(message)
	return nlu.ShouldEscalate(c.PrimaryIntent, message, ticket.Priority)
}

func (a *SupportAgent) analyze(ticket *types.Ticket) *analysis {
	message := nlu.NormalizeMessage(ticket.Message)
	c := a.classifier.ClassifyIntent(message)
	entities := nlu.ExtractEntities(message)
	return &analysis{
		intent:     c.PrimaryIntent,
		confidence: c.Confidence,
		scores:     c.AllScores,
		entities:   entities,
		urgency:    nlu.AnalyzeUrgency(message, ticket.Priority),
		sentiment:  nlu.AnalyzeSentiment(message),
		escalate:   nlu.ShouldEscalate(c.PrimaryIntent, message, ticket.Priority),
		nextSteps:  nextSteps(c.PrimaryIntent, entities),
		topics:     nlu.KeyTopics(message),
	}
}

func nextSteps(intent string, entities nlu.Entities) []string {
	steps := append([]string(nil), nlu.GetSolution(intent).FollowUpActions...)
	if _, ok := entities.First(nlu.EntityEmail); ok {
		steps = append(steps, "Send confirmation email to provided address")
	}
	if code, ok := entities.First(nlu.EntityErrorCode); ok {
		steps = append(steps, "Research error code: "+code)
	}
	if browser, ok := entities.First(nlu.EntityBrowser); ok {
		steps = append(steps, "Test with "+browser+" browser compatibility")
	}
	return append(steps, "Follow up within 24 hours to confirm resolution")
}

func tags(ticket *types.Ticket, an *analysis) []string {
	var out []string
	if ticket.Category != "" {
		out = append(out, strings.Replace(strings.ToLower(ticket.Category), " ", "_", 1))
	}
	out = append(out, "priority_"+strings.ToLower(string(ticket.Priority)))
	if an.sentiment != nlu.SentimentNeutral {
		out = append(out, "sentiment_"+string(an.sentiment))
	}
	if an.urgency == nlu.UrgencyHigh {
		out = append(out, "urgent")
	}
	if an.escalate {
		out = append(out, "escalated")
	}
	return append(out, an.topics...)
}

// Stats reports drafts produced, plus resolved tickets and mean CSAT when a
// ticket store is attached.
func (a *SupportAgent) Stats() Stats {
	st := Stats{Name: SupportAgentName, Active: a.IsActive(), Processed: int(a.processed.Load())}
	if a.tickets != nil {
		tickets := a.tickets.List()
		for _, t := range tickets {
			if t.Status == types.TicketResolved || t.Status == types.TicketClosed {
				st.Resolved++
			}
		}
		st.AvgCSAT = scoring.CSATAverage(tickets)
	}
	return st
}
