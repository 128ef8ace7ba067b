// Package platform holds the read-only configuration snapshot of the backend
// platforms the panel talks to, plus the completeness strategies used to decide
// whether a cached entity payload needs enrichment.
package platform

import (
	"fmt"
	"strings"
)

// Kind identifies which family a platform belongs to.
type Kind string

const (
	// KindIntel is a threat-intelligence platform (observables, domain
	// objects, vulnerabilities, containers, investigations).
	KindIntel Kind = "intel"
	// KindSim is an attack-simulation platform (endpoints, teams, payloads,
	// scenarios, atomic testing).
	KindSim Kind = "sim"
)

// ParseKind validates a kind string from config or events.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIntel:
		return KindIntel, nil
	case KindSim:
		return KindSim, nil
	default:
		return "", fmt.Errorf("unknown platform kind %q (want %q or %q)", s, KindIntel, KindSim)
	}
}

// Platform describes one configured backend platform.
type Platform struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Kind       Kind   `json:"kind"`
	Enterprise bool   `json:"enterprise,omitempty"`
}

// Features are the panel capabilities that can be toggled off in config.
// A zero value means everything enabled; use Resolve on toggles from a file.
type Features struct {
	Containers     bool
	Investigations bool
	Scenarios      bool
	AtomicTesting  bool
	UnifiedSearch  bool
}

// AllFeatures returns a Features value with every capability enabled.
func AllFeatures() Features {
	return Features{
		Containers:     true,
		Investigations: true,
		Scenarios:      true,
		AtomicTesting:  true,
		UnifiedSearch:  true,
	}
}

// Snapshot is the immutable platform view handed to the panel core.
// It is built once at startup; the core never mutates it.
type Snapshot struct {
	platforms []Platform
	byID      map[string]Platform
	features  Features
}

// NewSnapshot validates the platform list and freezes it into a Snapshot.
// Platform order is preserved as configured.
func NewSnapshot(platforms []Platform, features Features) (*Snapshot, error) {
	byID := make(map[string]Platform, len(platforms))
	frozen := make([]Platform, 0, len(platforms))
	for i, p := range platforms {
		if p.ID == "" {
			return nil, fmt.Errorf("platform %d: missing id", i)
		}
		if p.URL == "" {
			return nil, fmt.Errorf("platform %q: missing url", p.ID)
		}
		if _, err := ParseKind(string(p.Kind)); err != nil {
			return nil, fmt.Errorf("platform %q: %w", p.ID, err)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("platform %q: duplicate id", p.ID)
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		byID[p.ID] = p
		frozen = append(frozen, p)
	}
	return &Snapshot{platforms: frozen, byID: byID, features: features}, nil
}

// EmptySnapshot returns a snapshot with no platforms and all features enabled.
// The panel still runs against it, rendering degraded modes.
func EmptySnapshot() *Snapshot {
	s, _ := NewSnapshot(nil, AllFeatures())
	return s
}

// ByID looks up one platform.
func (s *Snapshot) ByID(id string) (Platform, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// All returns every configured platform in config order.
func (s *Snapshot) All() []Platform {
	out := make([]Platform, len(s.platforms))
	copy(out, s.platforms)
	return out
}

// OfKind returns the configured platforms of one kind, in config order.
func (s *Snapshot) OfKind(k Kind) []Platform {
	var out []Platform
	for _, p := range s.platforms {
		if p.Kind == k {
			out = append(out, p)
		}
	}
	return out
}

// Count returns how many platforms of one kind are configured. Mode
// transitions branch on this (zero, one, many).
func (s *Snapshot) Count(k Kind) int {
	n := 0
	for _, p := range s.platforms {
		if p.Kind == k {
			n++
		}
	}
	return n
}

// Features reports the capability toggles.
func (s *Snapshot) Features() Features {
	return s.features
}

// DisplayKind returns the label used when a platform-native type is shown
// with its platform prefix, e.g. "sim-Endpoint".
func DisplayKind(k Kind) string {
	return string(k)
}
