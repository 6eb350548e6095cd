// internal/state/seed.go
package state

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/agentdeck/internal/types"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is a fixture set loaded into empty stores at startup.
type Seed struct {
	Leads     []types.Lead          `yaml:"leads"`
	Tickets   []types.Ticket        `yaml:"tickets"`
	Inventory []types.InventoryItem `yaml:"inventory"`
}

// LoadSeed reads a YAML seed file. An empty path returns the built-in
// demo fixtures.
func LoadSeed(path string) (*Seed, error) {
	data := defaultSeed
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading seed: %w", err)
		}
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return &s, nil
}

// Apply adds the fixtures to the stores. Any store may be nil to skip its
// fixtures.
func (s *Seed) Apply(ctx context.Context, leads *LeadStore, tickets *TicketStore, inventory *InventoryStore) error {
	if leads != nil {
		for _, l := range s.Leads {
			if _, err := leads.Add(ctx, l); err != nil {
				return fmt.Errorf("seeding lead %q: %w", l.Name, err)
			}
		}
	}
	if tickets != nil {
		for _, t := range s.Tickets {
			if _, err := tickets.Add(ctx, t); err != nil {
				return fmt.Errorf("seeding ticket %q: %w", t.Subject, err)
			}
		}
	}
	if inventory != nil {
		for _, it := range s.Inventory {
			if _, err := inventory.Add(it); err != nil {
				return fmt.Errorf("seeding item %s: %w", it.SKU, err)
			}
		}
	}
	return nil
}
