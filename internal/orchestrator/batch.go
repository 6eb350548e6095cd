package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/user/agentdeck/internal/types"
)

// ErrUnknownBatchKind is returned by ProcessBatch for an unsupported kind.
var ErrUnknownBatchKind = errors.New("unknown batch kind")

// BatchKind selects the workflow ProcessBatch runs for each id.
type BatchKind string

const (
	BatchLeads     BatchKind = "leads"
	BatchTickets   BatchKind = "tickets"
	BatchInventory BatchKind = "inventory"
)

// BatchItem is the outcome for one id.
type BatchItem struct {
	Success bool   `json:"success"`
	Item    string `json:"item"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchResult splits outcomes into successes and failures, each in input
// order.
type BatchResult struct {
	Results []BatchItem `json:"results"`
	Errors  []BatchItem `json:"errors"`
}

// ProcessBatch runs the workflow for kind over ids in chunks of
// maxConcurrent (the configured default when <= 0). Items within a chunk run
// concurrently and a chunk finishes before the next starts. A failing item
// is recorded and never stops the batch.
func (o *Orchestrator) ProcessBatch(ctx context.Context, kind BatchKind, ids []string, maxConcurrent int) (*BatchResult, error) {
	run, err := o.batchWorkflow(kind)
	if err != nil {
		return nil, err
	}
	if maxConcurrent <= 0 {
		maxConcurrent = o.Config().MaxConcurrent
	}

	items := make([]BatchItem, len(ids))
	for start := 0; start < len(ids); start += maxConcurrent {
		end := min(start+maxConcurrent, len(ids))
		var g errgroup.Group
		g.SetLimit(maxConcurrent)
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, err := run(ctx, ids[i])
				if err != nil {
					items[i] = BatchItem{Item: ids[i], Error: err.Error()}
					return nil
				}
				items[i] = BatchItem{Success: true, Item: ids[i], Result: res}
				return nil
			})
		}
		_ = g.Wait()
	}

	out := &BatchResult{Results: []BatchItem{}, Errors: []BatchItem{}}
	for _, it := range items {
		if it.Success {
			out.Results = append(out.Results, it)
		} else {
			out.Errors = append(out.Errors, it)
		}
	}
	slog.Info("batch processed", "kind", kind, "succeeded", len(out.Results), "failed", len(out.Errors))
	return out, nil
}

func (o *Orchestrator) batchWorkflow(kind BatchKind) (func(context.Context, string) (any, error), error) {
	switch kind {
	case BatchLeads:
		return func(ctx context.Context, id string) (any, error) {
			return o.OnNewLead(ctx, types.LeadID(id))
		}, nil
	case BatchTickets:
		return func(ctx context.Context, id string) (any, error) {
			return o.OnTicketOpened(ctx, types.TicketID(id))
		}, nil
	case BatchInventory:
		return func(ctx context.Context, sku string) (any, error) {
			return o.OnInventorySelected(ctx, sku)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBatchKind, kind)
	}
}
