// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package correlate merges heterogeneous per-platform detections from a page
// scan into a deduplicated collection of logical entities. It is pure data
// transformation: no I/O, no memory of prior scans.
package correlate

import (
	"strings"

	"github.com/monadic/intel-scout/pkg/platform"
)

// Category identifies which scan source produced a detection.
type Category string

const (
	CategoryObservable    Category = "observable"
	CategoryObject        Category = "object"
	CategoryVulnerability Category = "vulnerability"
	CategorySimEntity     Category = "sim-entity"
)

// Detection is one raw per-platform hit from a page scan.
type Detection struct {
	Type       string         `json:"type"`
	Name       string         `json:"name,omitempty"`
	Value      string         `json:"value,omitempty"`
	Found      bool           `json:"found"`
	EntityID   string         `json:"entityId,omitempty"`
	PlatformID string         `json:"platformId,omitempty"`
	Kind       platform.Kind  `json:"platformKind,omitempty"`
	Data       map[string]any `json:"entityData,omitempty"`

	// Discovery metadata for detections suggested rather than matched.
	DiscoveredByAI bool    `json:"discoveredByAI,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// Ident returns the identity string used for grouping: the name when
// present, otherwise the value. Observables carry values, domain objects
// carry names; both sides must land on the same key.
func (d Detection) Ident() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Value
}

// PlatformMatch is one platform's record of a detected entity.
type PlatformMatch struct {
	PlatformID string         `json:"platformId"`
	Kind       platform.Kind  `json:"platformKind"`
	EntityID   string         `json:"entityId,omitempty"`
	Type       string         `json:"type"`
	Data       map[string]any `json:"entityData,omitempty"`
}

// CorrelatedEntity is the merged view of one logical entity across every
// platform that reported it.
type CorrelatedEntity struct {
	GroupKey string          `json:"groupKey"`
	Name     string          `json:"name,omitempty"`
	Value    string          `json:"value,omitempty"`
	Type     string          `json:"type"`
	Found    bool            `json:"found"`
	Matches  []PlatformMatch `json:"platformMatches"`

	DiscoveredByAI bool    `json:"discoveredByAI,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// Ident returns the entity's display identity: name, else value, else key.
func (e *CorrelatedEntity) Ident() string {
	if e.Name != "" {
		return e.Name
	}
	if e.Value != "" {
		return e.Value
	}
	return e.GroupKey
}

// HasMatch reports whether a platform already contributed a match of the
// given kind. At most one match exists per (platform id, kind) pair.
func (e *CorrelatedEntity) HasMatch(platformID string, kind platform.Kind) bool {
	for _, m := range e.Matches {
		if m.PlatformID == platformID && m.Kind == kind {
			return true
		}
	}
	return false
}

// GetField implements query.Matchable for CorrelatedEntity.
// The platform field joins all contributing platform ids with commas, so
// regex matching (~=) is the useful comparator for it.
func (e *CorrelatedEntity) GetField(field string) (string, bool) {
	switch field {
	case "type":
		return e.Type, true
	case "name":
		return e.Name, true
	case "value":
		return e.Value, true
	case "key", "groupKey":
		return e.GroupKey, true
	case "found":
		if e.Found {
			return "true", true
		}
		return "false", true
	case "ai":
		if e.DiscoveredByAI {
			return "true", true
		}
		return "false", true
	case "platform", "platforms":
		if len(e.Matches) == 0 {
			return "", false
		}
		ids := make([]string, 0, len(e.Matches))
		for _, m := range e.Matches {
			ids = append(ids, m.PlatformID)
		}
		return strings.Join(ids, ","), true
	default:
		return "", false
	}
}

// Batch carries one scan pass's detections, one slice per source category.
type Batch struct {
	Observables     []Detection `json:"observables,omitempty"`
	Objects         []Detection `json:"objects,omitempty"`
	Vulnerabilities []Detection `json:"vulnerabilities,omitempty"`
	SimEntities     []Detection `json:"simEntities,omitempty"`
}

// Size returns the total detection count across all categories.
func (b Batch) Size() int {
	return len(b.Observables) + len(b.Objects) + len(b.Vulnerabilities) + len(b.SimEntities)
}

// categories returns the slices in the fixed processing order. First-seen
// output order and name/type tie-breaks follow this order; the per-group
// match sets do not depend on it.
func (b Batch) categories() [][]Detection {
	return [][]Detection{b.Observables, b.Objects, b.Vulnerabilities, b.SimEntities}
}
