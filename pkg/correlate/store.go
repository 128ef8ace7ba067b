// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package correlate

// Correlate merges one scan batch into the deduplicated entity collection.
//
// Categories are processed in the fixed order observables, objects,
// vulnerabilities, sim entities. For each detection the group key is
// computed; an existing group absorbs the detection (found flags OR
// together, the platform match is appended unless that (platform id, kind)
// pair already contributed one), otherwise a new group is created. Output
// order is first-seen insertion order.
//
// The result depends only on the batch: correlating the same batch twice
// yields identical collections, and a new scan's result fully replaces the
// previous one at the caller.
func Correlate(b Batch) []*CorrelatedEntity {
	index := make(map[string]*CorrelatedEntity, b.Size())
	out := make([]*CorrelatedEntity, 0, b.Size())

	for _, category := range b.categories() {
		for _, d := range category {
			key := GroupKey(d.Ident())
			e, ok := index[key]
			if !ok {
				e = &CorrelatedEntity{
					GroupKey: key,
					Name:     d.Name,
					Value:    d.Value,
					Type:     d.Type,
				}
				index[key] = e
				out = append(out, e)
			}
			absorb(e, d)
		}
	}
	return out
}

// absorb folds one detection into its group.
func absorb(e *CorrelatedEntity, d Detection) {
	e.Found = e.Found || d.Found
	if e.Name == "" {
		e.Name = d.Name
	}
	if e.Value == "" {
		e.Value = d.Value
	}
	if e.Type == "" {
		e.Type = d.Type
	}
	if d.DiscoveredByAI {
		e.DiscoveredByAI = true
		if e.Reason == "" {
			e.Reason = d.Reason
		}
		if d.Confidence > e.Confidence {
			e.Confidence = d.Confidence
		}
	}

	// Detections without a platform id contribute identity and found state
	// but no navigable match.
	if d.PlatformID == "" || e.HasMatch(d.PlatformID, d.Kind) {
		return
	}
	e.Matches = append(e.Matches, PlatformMatch{
		PlatformID: d.PlatformID,
		Kind:       d.Kind,
		EntityID:   d.EntityID,
		Type:       d.Type,
		Data:       d.Data,
	})
}

// FoundFilter selects entities by their found state.
type FoundFilter int

const (
	FoundAny FoundFilter = iota
	FoundOnly
	NotFoundOnly
)

func (f FoundFilter) String() string {
	switch f {
	case FoundOnly:
		return "found"
	case NotFoundOnly:
		return "missing"
	default:
		return "all"
	}
}

// Next cycles the filter, for a single-key toggle in the panel.
func (f FoundFilter) Next() FoundFilter {
	switch f {
	case FoundAny:
		return FoundOnly
	case FoundOnly:
		return NotFoundOnly
	default:
		return FoundAny
	}
}

// Filter narrows a correlated collection for display. The zero value
// matches everything.
type Filter struct {
	Type  string
	Found FoundFilter
}

// Match reports whether one entity passes the filter.
func (f Filter) Match(e *CorrelatedEntity) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	switch f.Found {
	case FoundOnly:
		return e.Found
	case NotFoundOnly:
		return !e.Found
	}
	return true
}

// Apply returns the entities passing the filter, preserving order. The
// returned slice shares the underlying entities, not the slice storage.
func (f Filter) Apply(entities []*CorrelatedEntity) []*CorrelatedEntity {
	if f == (Filter{}) {
		out := make([]*CorrelatedEntity, len(entities))
		copy(out, entities)
		return out
	}
	out := make([]*CorrelatedEntity, 0, len(entities))
	for _, e := range entities {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Types returns the distinct display types in first-seen order, for the
// type-filter picker.
func Types(entities []*CorrelatedEntity) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entities {
		if e.Type == "" || seen[e.Type] {
			continue
		}
		seen[e.Type] = true
		out = append(out, e.Type)
	}
	return out
}
