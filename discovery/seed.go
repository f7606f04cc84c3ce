// Package discovery turns endpoint seeds into normalized registry records.
// Per-protocol adapters probe endpoints for their native descriptors, the
// normalizer folds capability metadata into one canonical form, and the
// refresher keeps the registry synchronized on a periodic cycle.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/BaSui01/agentbridge/config"
	"github.com/BaSui01/agentbridge/types"
)

// Seed is one endpoint to probe. ID is stable across cycles so probe
// outcomes correlate with existing registry records.
type Seed struct {
	// ID uniquely identifies the agent this seed discovers.
	ID string `json:"id"`
	// Name is a human-readable fallback when the descriptor lacks one.
	Name string `json:"name"`
	// Protocol selects the adapter.
	Protocol types.Protocol `json:"protocol"`
	// URL is the base endpoint.
	URL string `json:"url"`
}

// Validate checks the fields every adapter depends on.
func (s Seed) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("seed missing id")
	}
	if s.URL == "" {
		return fmt.Errorf("seed %s missing url", s.ID)
	}
	if !s.Protocol.Valid() {
		return fmt.Errorf("seed %s has unknown protocol %q", s.ID, s.Protocol)
	}
	return nil
}

// EndpointSource supplies the seeds for one refresh cycle.
type EndpointSource interface {
	Seeds(ctx context.Context) ([]Seed, error)
}

// StaticSource serves a fixed seed list. Replace swaps the whole list, so a
// config reload can retarget discovery without restarting the refresher.
type StaticSource struct {
	mu    sync.RWMutex
	seeds []Seed
}

// NewStaticSource builds a source from explicit seeds.
func NewStaticSource(seeds []Seed) *StaticSource {
	return &StaticSource{seeds: seeds}
}

// SourceFromConfig builds a static source from the discovery config block.
func SourceFromConfig(cfg config.DiscoveryConfig) (*StaticSource, error) {
	seeds, err := SeedsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewStaticSource(seeds), nil
}

// SeedsFromConfig converts configured endpoints into validated seeds.
// Missing ids derive as <protocol>-<slug(name)>, falling back to the seed's
// position when there is no name either.
func SeedsFromConfig(cfg config.DiscoveryConfig) ([]Seed, error) {
	seeds := make([]Seed, 0, len(cfg.Seeds))
	for i, sc := range cfg.Seeds {
		protocol, err := types.ParseProtocol(sc.Protocol)
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", i, err)
		}
		seed := Seed{ID: sc.ID, Name: sc.Name, Protocol: protocol, URL: sc.URL}
		if seed.ID == "" {
			if slug := slugify(sc.Name); slug != "" {
				seed.ID = fmt.Sprintf("%s-%s", protocol, slug)
			} else {
				seed.ID = fmt.Sprintf("%s-%d", protocol, i)
			}
		}
		if err := seed.Validate(); err != nil {
			return nil, fmt.Errorf("seed %d: %w", i, err)
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

// slugify lowercases a name and joins its alphanumeric runs with hyphens,
// producing a stable id fragment for seeds configured without one.
func slugify(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	return strings.Join(words, "-")
}

// Seeds returns a copy of the current list.
func (s *StaticSource) Seeds(ctx context.Context) ([]Seed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Seed, len(s.seeds))
	copy(out, s.seeds)
	return out, nil
}

// Replace swaps the seed list.
func (s *StaticSource) Replace(seeds []Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds = make([]Seed, len(seeds))
	copy(s.seeds, seeds)
}
