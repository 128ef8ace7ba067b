// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package panel

import (
	"github.com/monadic/intel-scout/pkg/correlate"
	"github.com/monadic/intel-scout/pkg/platform"
)

// Ticket identifies one outstanding enrichment fetch. It snapshots the
// navigation generation at dispatch; completion compares it against the
// live generation and discards on mismatch. There is no real cancellation
// of the underlying request, only this discard rule.
type Ticket struct {
	gen   uint64
	index int
}

// Index returns the slot the fetch was issued for.
func (t Ticket) Index() int {
	return t.index
}

// Slot is one platform's entry in the navigation strip.
type Slot struct {
	PlatformID   string
	PlatformName string
	Kind         platform.Kind
	Match        correlate.PlatformMatch
}

// Navigation holds the ordered platform matches for the open entity plus
// the cursor. A session owns exactly one Navigation for its whole life;
// opening another entity reinstalls the slots, which advances the
// generation and orphans every outstanding ticket.
type Navigation struct {
	slots   []Slot
	index   int
	gen     uint64
	loading bool
}

// NewNavigation returns an empty navigation.
func NewNavigation() *Navigation {
	return &Navigation{}
}

// Install replaces the slots with the matches of a newly opened entity.
// Intel matches come before sim matches; ties keep first-seen order. The
// cursor resets to the first slot and the generation advances.
func (n *Navigation) Install(matches []correlate.PlatformMatch, snap *platform.Snapshot) {
	var primary, secondary []Slot
	for _, m := range matches {
		slot := Slot{
			PlatformID:   m.PlatformID,
			PlatformName: m.PlatformID,
			Kind:         m.Kind,
			Match:        m,
		}
		if p, ok := snap.ByID(m.PlatformID); ok {
			slot.PlatformName = p.Name
		}
		if m.Kind == platform.KindIntel {
			primary = append(primary, slot)
		} else {
			secondary = append(secondary, slot)
		}
	}
	n.slots = append(primary, secondary...)
	n.index = 0
	n.loading = false
	n.gen++
}

// Clear empties the navigation and orphans outstanding tickets.
func (n *Navigation) Clear() {
	n.slots = nil
	n.index = 0
	n.loading = false
	n.gen++
}

// Empty reports whether any slots are installed.
func (n *Navigation) Empty() bool {
	return len(n.slots) == 0
}

// Len returns the slot count.
func (n *Navigation) Len() int {
	return len(n.slots)
}

// Index returns the cursor position, 0 when empty.
func (n *Navigation) Index() int {
	return n.index
}

// Loading reports whether an enrichment fetch is outstanding for the
// current slot.
func (n *Navigation) Loading() bool {
	return n.loading
}

// Slots returns a copy of the slot list for rendering.
func (n *Navigation) Slots() []Slot {
	out := make([]Slot, len(n.slots))
	copy(out, n.slots)
	return out
}

// Current returns the slot under the cursor.
func (n *Navigation) Current() (Slot, bool) {
	if n.Empty() {
		return Slot{}, false
	}
	return n.slots[n.index], true
}

// Move shifts the cursor by delta, clamped to the slot range. A move that
// lands on the same slot is a no-op and issues nothing. Otherwise the
// generation advances, the slot is marked loading, and the returned ticket
// keys the enrichment fetch for the destination.
func (n *Navigation) Move(delta int) (Ticket, bool) {
	if n.Empty() {
		return Ticket{}, false
	}
	dest := n.index + delta
	if dest < 0 {
		dest = 0
	}
	if dest > len(n.slots)-1 {
		dest = len(n.slots) - 1
	}
	if dest == n.index {
		return Ticket{}, false
	}
	n.index = dest
	n.gen++
	n.loading = true
	return Ticket{gen: n.gen, index: n.index}, true
}

// Issue stamps a ticket for the current slot without moving, for the
// optimistic-entry background fetch. The slot is marked loading.
func (n *Navigation) Issue() (Ticket, bool) {
	if n.Empty() {
		return Ticket{}, false
	}
	n.loading = true
	return Ticket{gen: n.gen, index: n.index}, true
}

// ApplyIfCurrent installs fetched detail into the ticket's slot if the
// generation still matches, and reports whether it applied. Stale results
// are discarded with no side effect on any slot.
func (n *Navigation) ApplyIfCurrent(t Ticket, data map[string]any) bool {
	if !n.current(t) {
		return false
	}
	n.slots[t.index].Match.Data = data
	n.loading = false
	return true
}

// Fail completes a fetch without data. If the ticket is current the slot
// leaves its loading state and keeps whatever cached data it had.
func (n *Navigation) Fail(t Ticket) bool {
	if !n.current(t) {
		return false
	}
	n.loading = false
	return true
}

func (n *Navigation) current(t Ticket) bool {
	return t.gen != 0 && t.gen == n.gen && t.index >= 0 && t.index < len(n.slots)
}
