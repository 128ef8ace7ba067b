package platform

import (
	"strings"
	"sync"
)

// Completeness decides whether a cached entity payload carries enough detail
// to display without an enrichment round trip. Payloads arrive as raw maps
// because field sets differ per platform and per entity type.
type Completeness interface {
	// Complete reports whether the payload is full detail. A false return
	// marks the entity "minimal" and triggers a background enrichment fetch.
	Complete(entityType string, data map[string]any) bool
}

// completenessRegistry maps platform kinds to their strategy.
type completenessRegistry struct {
	mu         sync.RWMutex
	strategies map[Kind]Completeness
}

var registry = &completenessRegistry{strategies: make(map[Kind]Completeness)}

// RegisterCompleteness installs the strategy for one platform kind,
// replacing any previous one. Call before the panel starts handling events.
func RegisterCompleteness(k Kind, c Completeness) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.strategies[k] = c
}

// CompletenessFor returns the strategy for a kind. Unregistered kinds get a
// strategy that treats every payload as complete, so unknown platforms never
// loop on enrichment.
func CompletenessFor(k Kind) Completeness {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	if c, ok := registry.strategies[k]; ok {
		return c
	}
	return alwaysComplete{}
}

func init() {
	RegisterCompleteness(KindIntel, IntelCompleteness{})
	RegisterCompleteness(KindSim, SimCompleteness{})
}

type alwaysComplete struct{}

func (alwaysComplete) Complete(string, map[string]any) bool { return true }

// IntelCompleteness covers threat-intel entities. Page-scan hits carry only
// identity fields; a payload with neither a description nor labels is the
// cached minimal form regardless of entity type.
type IntelCompleteness struct{}

func (IntelCompleteness) Complete(entityType string, data map[string]any) bool {
	return hasValue(data, "description") || hasValue(data, "objectLabel", "labels")
}

// SimCompleteness covers simulation-platform entities, which have per-type
// detail fields instead of a shared description/labels pair.
type SimCompleteness struct{}

// simDetailFields lists, per entity type, the fields only present on a fully
// loaded payload. Types not listed fall back to requiring a description.
var simDetailFields = map[string][]string{
	"Endpoint":      {"endpoint_ips", "endpoint_hostname", "endpoint_platform"},
	"AssetGroup":    {"asset_group_assets"},
	"Team":          {"team_users"},
	"Player":        {"user_email"},
	"Payload":       {"payload_type", "payload_platforms"},
	"AttackPattern": {"attack_pattern_external_id", "attack_pattern_kill_chain_phases"},
	"Scenario":      {"scenario_injects"},
	"Simulation":    {"exercise_injects"},
}

func (SimCompleteness) Complete(entityType string, data map[string]any) bool {
	fields, ok := simDetailFields[trimKindPrefix(entityType)]
	if !ok {
		return hasValue(data, "description")
	}
	for _, f := range fields {
		if !hasValue(data, f) {
			return false
		}
	}
	return true
}

// trimKindPrefix strips a display prefix like "sim-" from an entity type, so
// strategies see the platform-native type name.
func trimKindPrefix(entityType string) string {
	for _, k := range []Kind{KindIntel, KindSim} {
		if rest, ok := strings.CutPrefix(entityType, string(k)+"-"); ok {
			return rest
		}
	}
	return entityType
}

// hasValue reports whether any of the candidate fields is present and
// non-empty. Field names vary across platform versions, so callers pass the
// known spellings in preference order.
func hasValue(data map[string]any, fields ...string) bool {
	for _, f := range fields {
		v, ok := data[f]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) != "" {
				return true
			}
		case []any:
			if len(t) > 0 {
				return true
			}
		case []string:
			if len(t) > 0 {
				return true
			}
		case map[string]any:
			if len(t) > 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}
