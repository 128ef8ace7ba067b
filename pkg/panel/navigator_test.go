// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package panel

import (
	"testing"

	"github.com/monadic/intel-scout/pkg/correlate"
	"github.com/monadic/intel-scout/pkg/platform"
)

func navSnapshot(t *testing.T) *platform.Snapshot {
	t.Helper()
	snap, err := platform.NewSnapshot([]platform.Platform{
		{ID: "octi-a", Name: "OpenCTI A", URL: "https://octi-a.example.com", Kind: platform.KindIntel},
		{ID: "octi-b", Name: "OpenCTI B", URL: "https://octi-b.example.com", Kind: platform.KindIntel},
		{ID: "obas-a", Name: "OpenBAS A", URL: "https://obas-a.example.com", Kind: platform.KindSim},
	}, platform.AllFeatures())
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	return snap
}

func match(platformID string, kind platform.Kind) correlate.PlatformMatch {
	return correlate.PlatformMatch{
		PlatformID: platformID,
		Kind:       kind,
		EntityID:   platformID + "-entity",
		Type:       "IPv4-Addr",
		Data:       map[string]any{"value": "1.2.3.4"},
	}
}

func TestInstallOrdersPrimaryFirst(t *testing.T) {
	snap := navSnapshot(t)
	nav := NewNavigation()
	nav.Install([]correlate.PlatformMatch{
		match("octi-a", platform.KindIntel),
		match("obas-a", platform.KindSim),
		match("octi-b", platform.KindIntel),
	}, snap)

	got := make([]string, 0, nav.Len())
	for _, s := range nav.Slots() {
		got = append(got, s.PlatformID)
	}
	want := []string{"octi-a", "octi-b", "obas-a"}
	if len(got) != len(want) {
		t.Fatalf("Len() = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d = %q, want %q", i, got[i], want[i])
		}
	}
	if nav.Index() != 0 {
		t.Errorf("Index() = %d, want 0", nav.Index())
	}
	cur, ok := nav.Current()
	if !ok || cur.PlatformID != "octi-a" {
		t.Errorf("Current() = %v, %v, want octi-a slot", cur.PlatformID, ok)
	}
	if cur.PlatformName != "OpenCTI A" {
		t.Errorf("PlatformName = %q, want %q", cur.PlatformName, "OpenCTI A")
	}
}

func TestInstallFallsBackToPlatformID(t *testing.T) {
	snap := navSnapshot(t)
	nav := NewNavigation()
	nav.Install([]correlate.PlatformMatch{match("gone", platform.KindIntel)}, snap)

	cur, ok := nav.Current()
	if !ok {
		t.Fatal("Current() not ok after Install")
	}
	if cur.PlatformName != "gone" {
		t.Errorf("PlatformName = %q, want platform id fallback", cur.PlatformName)
	}
}

func TestMoveClampsAtBounds(t *testing.T) {
	snap := navSnapshot(t)
	nav := NewNavigation()
	nav.Install([]correlate.PlatformMatch{
		match("octi-a", platform.KindIntel),
		match("obas-a", platform.KindSim),
	}, snap)

	if _, moved := nav.Move(-1); moved {
		t.Error("Move(-1) at first slot reported a move")
	}
	if nav.Index() != 0 {
		t.Errorf("Index() = %d after clamped move, want 0", nav.Index())
	}
	if nav.Loading() {
		t.Error("Loading() = true after clamped move")
	}

	if _, moved := nav.Move(1); !moved {
		t.Fatal("Move(1) did not move")
	}
	if _, moved := nav.Move(1); moved {
		t.Error("Move(1) at last slot reported a move")
	}
	if nav.Index() != 1 {
		t.Errorf("Index() = %d, want 1", nav.Index())
	}
}

func TestClampedMoveKeepsTicketsValid(t *testing.T) {
	snap := navSnapshot(t)
	nav := NewNavigation()
	nav.Install([]correlate.PlatformMatch{match("octi-a", platform.KindIntel)}, snap)

	tk, ok := nav.Issue()
	if !ok {
		t.Fatal("Issue() not ok")
	}
	if _, moved := nav.Move(1); moved {
		t.Fatal("Move(1) on single slot reported a move")
	}
	if !nav.ApplyIfCurrent(tk, map[string]any{"description": "full"}) {
		t.Error("ticket invalidated by a clamped move")
	}
}

func TestStaleTicketRejected(t *testing.T) {
	snap := navSnapshot(t)
	nav := NewNavigation()
	nav.Install([]correlate.PlatformMatch{
		match("octi-a", platform.KindIntel),
		match("octi-b", platform.KindIntel),
	}, snap)

	t1, ok := nav.Issue()
	if !ok {
		t.Fatal("Issue() not ok")
	}
	t2, moved := nav.Move(1)
	if !moved {
		t.Fatal("Move(1) did not move")
	}

	if nav.ApplyIfCurrent(t1, map[string]any{"description": "stale"}) {
		t.Error("stale ticket applied")
	}
	if _, has := nav.Slots()[0].Match.Data["description"]; has {
		t.Error("stale write reached slot 0")
	}
	if !nav.Loading() {
		t.Error("Loading() = false while the live fetch is outstanding")
	}

	if !nav.ApplyIfCurrent(t2, map[string]any{"description": "fresh"}) {
		t.Error("live ticket rejected")
	}
	if nav.Slots()[1].Match.Data["description"] != "fresh" {
		t.Error("live write did not reach slot 1")
	}
	if nav.Loading() {
		t.Error("Loading() = true after the live fetch applied")
	}
}

func TestInstallOrphansTickets(t *testing.T) {
	snap := navSnapshot(t)
	nav := NewNavigation()
	nav.Install([]correlate.PlatformMatch{match("octi-a", platform.KindIntel)}, snap)

	tk, _ := nav.Issue()
	nav.Install([]correlate.PlatformMatch{match("octi-b", platform.KindIntel)}, snap)

	if nav.ApplyIfCurrent(tk, map[string]any{"x": 1}) {
		t.Error("ticket from a previous entity applied after reinstall")
	}
}

func TestClearOrphansTickets(t *testing.T) {
	snap := navSnapshot(t)
	nav := NewNavigation()
	nav.Install([]correlate.PlatformMatch{match("octi-a", platform.KindIntel)}, snap)

	tk, _ := nav.Issue()
	nav.Clear()

	if !nav.Empty() {
		t.Error("Empty() = false after Clear")
	}
	if nav.ApplyIfCurrent(tk, map[string]any{"x": 1}) {
		t.Error("ticket applied after Clear")
	}
	if nav.Fail(tk) {
		t.Error("Fail acknowledged a cleared ticket")
	}
}

func TestFailKeepsCachedData(t *testing.T) {
	snap := navSnapshot(t)
	nav := NewNavigation()
	nav.Install([]correlate.PlatformMatch{match("octi-a", platform.KindIntel)}, snap)

	tk, _ := nav.Issue()
	if !nav.Fail(tk) {
		t.Fatal("Fail() rejected the live ticket")
	}
	if nav.Loading() {
		t.Error("Loading() = true after Fail")
	}
	if nav.Slots()[0].Match.Data["value"] != "1.2.3.4" {
		t.Error("cached data lost on Fail")
	}
}

func TestZeroTicketNeverApplies(t *testing.T) {
	snap := navSnapshot(t)
	nav := NewNavigation()
	nav.Install([]correlate.PlatformMatch{match("octi-a", platform.KindIntel)}, snap)

	if nav.ApplyIfCurrent(Ticket{}, map[string]any{"x": 1}) {
		t.Error("zero ticket applied")
	}
	if nav.Fail(Ticket{}) {
		t.Error("zero ticket acknowledged by Fail")
	}
}

func TestEmptyNavigation(t *testing.T) {
	nav := NewNavigation()
	if !nav.Empty() {
		t.Error("Empty() = false on a fresh navigation")
	}
	if _, ok := nav.Current(); ok {
		t.Error("Current() ok on a fresh navigation")
	}
	if _, ok := nav.Issue(); ok {
		t.Error("Issue() ok on a fresh navigation")
	}
	if _, moved := nav.Move(1); moved {
		t.Error("Move(1) moved on a fresh navigation")
	}
}
