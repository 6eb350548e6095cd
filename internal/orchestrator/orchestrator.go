// Package orchestrator wires the event bus, the agents and the task queue
// together. Routed events become follow-up tasks; workflows drive an agent
// through one operation and announce progress on the bus.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/agentdeck/internal/agents"
	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/metrics"
	"github.com/user/agentdeck/internal/nlu"
	"github.com/user/agentdeck/internal/tasks"
	"github.com/user/agentdeck/internal/types"
)

const source = "Orchestrator"

// DefaultMaxConcurrent is the batch chunk size when none is configured.
const DefaultMaxConcurrent = 3

// Config holds the tunables UpdateConfig can change at runtime.
type Config struct {
	MaxConcurrent int
	TaskMaxAge    time.Duration
}

// Options are the collaborators handed to New. Bus and the three stores are
// required; everything else falls back to a default.
type Options struct {
	Bus           *events.Bus
	Leads         types.LeadStore
	Tickets       types.TicketStore
	Inventory     types.InventoryStore
	Notifier      types.Notifier
	MetricsSource types.MetricsSource
	Metrics       *metrics.Store
	Classifier    *nlu.Classifier
	Config        Config
}

// Orchestrator owns the agents and the task queue. Initialize and Shutdown
// are idempotent.
type Orchestrator struct {
	bus       *events.Bus
	leads     types.LeadStore
	tickets   types.TicketStore
	inventory types.InventoryStore
	notifier  types.Notifier
	source    types.MetricsSource
	metrics   *metrics.Store

	Queue    *tasks.Queue
	Registry *agents.Registry
	Lead     *agents.LeadAgent
	Support  *agents.SupportAgent
	Supply   *agents.SupplyAgent

	mu          sync.Mutex
	cfg         Config
	initialized bool
	subs        []events.Subscription
	inflight    map[string]map[string]struct{}
}

// New builds an orchestrator and registers the lead, support and supply
// agents. Agents are not started until Initialize.
func New(opts Options) *Orchestrator {
	cfg := opts.Config
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.TaskMaxAge <= 0 {
		cfg.TaskMaxAge = 24 * time.Hour
	}
	store := opts.Metrics
	if store == nil {
		store = metrics.NewStore()
	}

	o := &Orchestrator{
		bus:       opts.Bus,
		leads:     opts.Leads,
		tickets:   opts.Tickets,
		inventory: opts.Inventory,
		notifier:  opts.Notifier,
		source:    opts.MetricsSource,
		metrics:   store,
		Registry:  agents.NewRegistry(),
		Lead:      agents.NewLeadAgent(opts.Leads, opts.Bus),
		Support:   agents.NewSupportAgent(opts.Classifier, opts.Tickets),
		Supply:    agents.NewSupplyAgent(opts.Inventory, opts.Bus),
		cfg:       cfg,
		inflight:  newInflight(),
	}
	o.Queue = tasks.NewQueue(o.execute)

	for _, a := range []agents.Agent{o.Lead, o.Support, o.Supply} {
		// names are distinct constants
		_ = o.Registry.Register(a)
	}
	return o
}

func newInflight() map[string]map[string]struct{} {
	return map[string]map[string]struct{}{
		string(BatchLeads):     {},
		string(BatchTickets):   {},
		string(BatchInventory): {},
	}
}

// Metrics returns the metrics store the orchestrator keeps current.
func (o *Orchestrator) Metrics() *metrics.Store { return o.metrics }

func (o *Orchestrator) MetricsSnapshot() types.MetricsSnapshot { return o.metrics.Snapshot() }

func (o *Orchestrator) Bus() *events.Bus { return o.bus }

// Initialize subscribes the routing table and metric listeners, starts the
// registered agents and loads the initial metrics. A failed metrics fetch is
// logged and recorded on the metrics store, never returned.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	if o.initialized {
		o.mu.Unlock()
		return nil
	}
	o.subs = append(o.subs,
		o.bus.On(events.LeadQualified, o.routeLeadQualified),
		o.bus.On(events.TicketEscalated, o.routeTicketEscalated),
		o.bus.On(events.SupplyAlert, o.routeSupplyAlert),
		o.bus.On(events.OrderGenerated, o.routeOrderGenerated),

		o.bus.On(events.LeadCreated, o.onLeadCreated),
		o.bus.On(events.LeadQualified, o.onLeadQualified),
		o.bus.On(events.TicketCreated, o.onTicketCreated),
		o.bus.On(events.TicketResolved, o.onTicketResolved),
		o.bus.On(events.OrderGenerated, o.onOrderGenerated),
		o.bus.On(events.MetricsUpdated, logEvent("metrics updated")),
		o.bus.On(events.InventoryAnalyzed, logEvent("inventory analyzed")),
	)
	o.initialized = true
	o.mu.Unlock()

	if err := o.Registry.StartAll(); err != nil {
		return fmt.Errorf("start agents: %w", err)
	}
	o.loadMetrics(ctx)
	slog.Info("orchestrator initialized", "agents", len(o.Registry.All()))
	return nil
}

func (o *Orchestrator) loadMetrics(ctx context.Context) {
	_ = o.fetchMetrics(ctx, "initial")
}

// RefreshMetrics refetches the headline figures from the metrics source.
// On failure the previous figures are kept and the error is recorded.
func (o *Orchestrator) RefreshMetrics(ctx context.Context) error {
	return o.fetchMetrics(ctx, "refresh")
}

func (o *Orchestrator) fetchMetrics(ctx context.Context, kind string) error {
	if o.source == nil {
		return nil
	}
	o.metrics.SetLoading(true)
	snap, err := o.source.FetchMetrics(ctx)
	if err != nil {
		slog.Error("metrics fetch failed", "type", kind, "error", err)
		o.metrics.SetError("Failed to load metrics")
		return fmt.Errorf("fetch metrics: %w", err)
	}
	o.metrics.Set(*snap)
	o.emit(ctx, events.MetricsUpdated, map[string]any{
		"type":    kind,
		"metrics": o.metrics.Snapshot(),
	})
	return nil
}

// Shutdown stops the agents, removes every bus listener and forgets the
// in-flight workflow ids. Queued tasks are kept.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	if !o.initialized {
		o.mu.Unlock()
		return
	}
	o.initialized = false
	subs := o.subs
	o.subs = nil
	o.inflight = newInflight()
	o.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	o.Registry.StopAll()
	o.bus.ClearListeners()
	slog.Info("orchestrator shut down")
}

func (o *Orchestrator) Initialized() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initialized
}

// AgentStatus reports every registered agent in registration order.
func (o *Orchestrator) AgentStatus() []agents.Stats {
	return o.Registry.Status()
}

// StartAgent starts one agent by name.
func (o *Orchestrator) StartAgent(name string) error {
	a, ok := o.Registry.Get(name)
	if !ok {
		return fmt.Errorf("agent %s: %w", name, types.ErrNotFound)
	}
	return a.Start()
}

func (o *Orchestrator) StopAgent(name string) error {
	a, ok := o.Registry.Get(name)
	if !ok {
		return fmt.Errorf("agent %s: %w", name, types.ErrNotFound)
	}
	a.Stop()
	return nil
}

// Config returns the current runtime configuration.
func (o *Orchestrator) Config() Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}

// UpdateConfig merges the non-zero fields of cfg into the current
// configuration and returns the result.
func (o *Orchestrator) UpdateConfig(cfg Config) Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cfg.MaxConcurrent > 0 {
		o.cfg.MaxConcurrent = cfg.MaxConcurrent
	}
	if cfg.TaskMaxAge > 0 {
		o.cfg.TaskMaxAge = cfg.TaskMaxAge
	}
	return o.cfg
}

// Cleanup drops finished tasks older than maxAge, or the configured
// TaskMaxAge when maxAge is zero.
func (o *Orchestrator) Cleanup(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = o.Config().TaskMaxAge
	}
	n := o.Queue.Cleanup(maxAge)
	if n > 0 {
		slog.Info("cleaned up tasks", "removed", n)
	}
	return n
}

// ProcessNext runs the next pending task.
func (o *Orchestrator) ProcessNext(ctx context.Context) (*tasks.Task, error) {
	return o.Queue.ProcessNext(ctx)
}

// Drain runs pending tasks until the queue is empty or limit tasks ran.
func (o *Orchestrator) Drain(ctx context.Context, limit int) int {
	return o.Queue.Drain(ctx, limit)
}

// InFlight counts the ids each workflow kind is currently processing.
func (o *Orchestrator) InFlight() map[string]int {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]int, len(o.inflight))
	for k, ids := range o.inflight {
		out[k] = len(ids)
	}
	return out
}

// track marks id as in flight for kind and returns the release func.
func (o *Orchestrator) track(kind BatchKind, id string) func() {
	o.mu.Lock()
	o.inflight[string(kind)][id] = struct{}{}
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		delete(o.inflight[string(kind)], id)
		o.mu.Unlock()
	}
}

func (o *Orchestrator) emit(ctx context.Context, eventType string, payload map[string]any) {
	o.bus.Emit(ctx, eventType, source, payload)
}

func logEvent(msg string) events.Handler {
	return func(ctx context.Context, ev types.Event) error {
		slog.Debug(msg, "event_id", string(ev.ID), "source", ev.Source)
		return nil
	}
}
