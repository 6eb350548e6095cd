package agents

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/scoring"
	"github.com/user/agentdeck/internal/types"
)

const LeadAgentName = "leadAgent"

// Qualification is the outcome of QualifyLead.
type Qualification struct {
	LeadID   types.LeadID    `json:"leadId"`
	Score    int             `json:"score"`
	Decision string          `json:"decision"`
	Stage    types.LeadStage `json:"stage"`
	Reasons  []string        `json:"reasons"`
}

// scoringFields are the lead fields whose change warrants a rescore.
var scoringFields = []string{"budget", "intent", "source"}

// LeadAgent scores leads and announces the ones that qualify.
type LeadAgent struct {
	lifecycle
	store   types.LeadStore
	bus     Bus
	latency time.Duration
	now     func() time.Time
}

func NewLeadAgent(store types.LeadStore, bus Bus) *LeadAgent {
	return &LeadAgent{
		lifecycle: lifecycle{name: LeadAgentName},
		store:     store,
		bus:       bus,
		now:       time.Now,
	}
}

// SetLatency adds a simulated processing delay to QualifyLead.
func (a *LeadAgent) SetLatency(d time.Duration) { a.latency = d }

// Start subscribes to lead.created and lead.updated.
func (a *LeadAgent) Start() error {
	a.activate(a.bus,
		subscription{events.LeadCreated, a.handleLeadCreated},
		subscription{events.LeadUpdated, a.handleLeadUpdated},
	)
	return nil
}

func (a *LeadAgent) Stop() { a.deactivate() }

// QualifyLead scores the lead, persists score and stage, and emits
// lead.qualified when the score reaches the qualification threshold. A
// missing lead returns nil, nil.
func (a *LeadAgent) QualifyLead(ctx context.Context, id types.LeadID) (*Qualification, error) {
	if err := wait(ctx, a.latency); err != nil {
		return nil, err
	}
	lead, ok := a.store.Find(id)
	if !ok {
		return nil, nil
	}

	score := scoring.LeadScoreAt(lead, a.now())
	stage := scoring.NextStage(lead.Stage, score)
	if err := a.store.Update(ctx, id, types.LeadPatch{Score: &score, Stage: &stage}); err != nil {
		return nil, fmt.Errorf("saving qualification for %s: %w", id, err)
	}

	if score >= scoring.QualifyThreshold {
		a.emitQualified(ctx, lead, score)
	}
	slog.Debug("lead qualified", "lead_id", string(id), "score", score, "stage", stage)

	return &Qualification{
		LeadID:   id,
		Score:    score,
		Decision: scoring.Decision(score),
		Stage:    stage,
		Reasons:  scoring.QualificationReasons(lead, score),
	}, nil
}

func (a *LeadAgent) handleLeadCreated(ctx context.Context, ev types.Event) error {
	id, _ := ev.Payload["leadId"].(string)
	return a.rescore(ctx, types.LeadID(id))
}

// handleLeadUpdated rescores only when a scoring input changed, so the
// agent's own score writes do not feed back into it.
func (a *LeadAgent) handleLeadUpdated(ctx context.Context, ev types.Event) error {
	fields, _ := ev.Payload["fields"].([]string)
	if !slices.ContainsFunc(fields, func(f string) bool { return slices.Contains(scoringFields, f) }) {
		return nil
	}
	id, _ := ev.Payload["leadId"].(string)
	return a.rescore(ctx, types.LeadID(id))
}

func (a *LeadAgent) rescore(ctx context.Context, id types.LeadID) error {
	lead, ok := a.store.Find(id)
	if !ok {
		return nil
	}
	score := scoring.LeadScoreAt(lead, a.now())
	old := 0
	if lead.Score != nil {
		old = *lead.Score
		if old == score {
			return nil
		}
	}
	if err := a.store.Update(ctx, id, types.LeadPatch{Score: &score}); err != nil {
		return fmt.Errorf("rescoring %s: %w", id, err)
	}
	if score >= scoring.QualifyThreshold && old < scoring.QualifyThreshold {
		a.emitQualified(ctx, lead, score)
	}
	return nil
}

func (a *LeadAgent) emitQualified(ctx context.Context, lead *types.Lead, score int) {
	emit(ctx, a.bus, events.LeadQualified, LeadAgentName, map[string]any{
		"leadId":            string(lead.ID),
		"leadName":          lead.Name,
		"company":           lead.Company,
		"score":             score,
		"qualificationTime": a.now().UTC().Format(time.RFC3339),
	})
}

// Stats counts scored leads, qualified or won leads and the mean stored
// score across all leads.
func (a *LeadAgent) Stats() Stats {
	leads := a.store.List()
	st := Stats{Name: LeadAgentName, Active: a.IsActive()}
	total := 0
	for _, l := range leads {
		if l.Score != nil {
			st.Processed++
			total += *l.Score
		}
		if l.Stage == types.StageQualified || l.Stage == types.StageWon {
			st.Qualified++
		}
	}
	if len(leads) > 0 {
		st.AvgScore = int(float64(total)/float64(len(leads)) + 0.5)
	}
	return st
}

// wait simulates processing latency, returning early if ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
