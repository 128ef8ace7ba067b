// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/monadic/intel-scout/pkg/pagescan"
	"github.com/monadic/intel-scout/pkg/panel"
)

// Journey tests simulate real analyst workflows through the TUI. The demo
// dataset stands in for live platforms, so the whole loop runs in process:
// Init scans the canned advisory, effects resolve through the demo caller.

func journeyModel(t *testing.T) PanelModel {
	t.Helper()
	snap, err := demoSnapshot()
	if err != nil {
		t.Fatalf("demo snapshot: %v", err)
	}
	caller := demoCaller()
	scanner := pagescan.NewScanner(caller, snap, nil, nil)
	return newPanelModel(snap, caller, scanner, nil, demoPageText, demoPageURL)
}

func finalPanel(t *testing.T, tm *teatest.TestModel) PanelModel {
	t.Helper()
	fm := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second))
	m, ok := fm.(PanelModel)
	if !ok {
		t.Fatalf("final model is %T, want PanelModel", fm)
	}
	return m
}

func sendRune(tm *teatest.TestModel, r rune) {
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func typeText(tm *teatest.TestModel, text string) {
	for _, r := range text {
		sendRune(tm, r)
	}
}

// ===========================================================================
// Journey 1: "Triage the page" - scan, open an entity, walk its platforms
// ===========================================================================

func TestJourney_TriagePage_ScanAndOpen(t *testing.T) {
	m := journeyModel(t)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	defer tm.Quit()

	// Let the initial scan land
	time.Sleep(100 * time.Millisecond)

	// Walk the results and open an entity
	sendRune(tm, 'j')
	sendRune(tm, 'j')
	sendRune(tm, 'k')
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(100 * time.Millisecond)

	// Walk this entity's platforms
	sendRune(tm, 'l')
	time.Sleep(50 * time.Millisecond)
	sendRune(tm, 'h')
	time.Sleep(50 * time.Millisecond)

	// Back to results, then quit
	tm.Send(tea.KeyMsg{Type: tea.KeyEscape})
	time.Sleep(50 * time.Millisecond)
	sendRune(tm, 'q')

	fm := finalPanel(t, tm)
	if got := fm.machine.Session().Mode(); got != panel.ModeScanResults {
		t.Errorf("final mode = %v, want %v", got, panel.ModeScanResults)
	}
	if len(fm.machine.Session().Entities()) == 0 {
		t.Error("no entities after the initial scan")
	}
	if !fm.quitting {
		t.Error("quitting flag not set")
	}
}

func TestJourney_TriagePage_PreviewRow(t *testing.T) {
	m := journeyModel(t)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	defer tm.Quit()

	time.Sleep(100 * time.Millisecond)

	// Peek at a row without opening it
	sendRune(tm, 'j')
	sendRune(tm, 'p')
	time.Sleep(50 * time.Millisecond)

	tm.Send(tea.KeyMsg{Type: tea.KeyEscape})
	time.Sleep(50 * time.Millisecond)
	sendRune(tm, 'q')

	fm := finalPanel(t, tm)
	if got := fm.machine.Session().Mode(); got != panel.ModeScanResults {
		t.Errorf("final mode = %v, want %v", got, panel.ModeScanResults)
	}
}

// ===========================================================================
// Journey 2: "Cover the page" - container creation end to end
// ===========================================================================

func TestJourney_CoverPage_CreateContainer(t *testing.T) {
	m := journeyModel(t)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	defer tm.Quit()

	time.Sleep(100 * time.Millisecond)

	// Start the container flow; two intel platforms, so pick one
	sendRune(tm, 'C')
	time.Sleep(100 * time.Millisecond)
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(100 * time.Millisecond)

	// Pick the first container type and fill the form
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(50 * time.Millisecond)
	typeText(tm, "GrapheneLoader wave")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(150 * time.Millisecond)

	sendRune(tm, 'q')

	fm := finalPanel(t, tm)
	s := fm.machine.Session()
	// The refreshed URL lookup now finds the container we just created.
	if got := s.Mode(); got != panel.ModeExistingContainers {
		t.Errorf("final mode = %v, want %v", got, panel.ModeExistingContainers)
	}
	if len(s.ExistingContainers()) == 0 {
		t.Error("created container missing from the URL lookup")
	}
}

// ===========================================================================
// Journey 3: "Drill the team" - scenario draft from detected techniques
// ===========================================================================

func TestJourney_DrillTeam_DraftScenario(t *testing.T) {
	m := journeyModel(t)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	defer tm.Quit()

	time.Sleep(100 * time.Millisecond)

	sendRune(tm, 'S')
	time.Sleep(100 * time.Millisecond)

	// Overview to form, name it, submit
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(50 * time.Millisecond)
	typeText(tm, "Phishing drill")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(100 * time.Millisecond)

	sendRune(tm, 'q')

	fm := finalPanel(t, tm)
	s := fm.machine.Session()
	if got := s.Mode(); got != panel.ModeScenarioOverview {
		t.Errorf("final mode = %v, want %v", got, panel.ModeScenarioOverview)
	}
	if got := len(s.ScenarioSeed()); got == 0 {
		t.Error("no attack patterns seeded from the page")
	}
	if fm.notification != "scenario created" {
		t.Errorf("notification = %q, want %q", fm.notification, "scenario created")
	}
}

// ===========================================================================
// Journey 4: "Search everywhere" - one query across every platform
// ===========================================================================

func TestJourney_SearchEverywhere(t *testing.T) {
	m := journeyModel(t)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	defer tm.Quit()

	time.Sleep(100 * time.Millisecond)

	sendRune(tm, '/')
	time.Sleep(50 * time.Millisecond)
	typeText(tm, "phishing")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(100 * time.Millisecond)

	sendRune(tm, 'q')

	fm := finalPanel(t, tm)
	s := fm.machine.Session()
	if got := s.SearchText(); got != "phishing" {
		t.Errorf("search text = %q, want %q", got, "phishing")
	}
	if got := len(s.SearchResults()); got != 2 {
		t.Errorf("search hits = %d, want 2", got)
	}
}

// ===========================================================================
// Journey 5: "Fill the gaps" - import missing entities, rescan
// ===========================================================================

func TestJourney_FillGaps_ImportAndRescan(t *testing.T) {
	m := journeyModel(t)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	defer tm.Quit()

	time.Sleep(100 * time.Millisecond)

	// Import everything the platforms are missing
	sendRune(tm, 'a')
	time.Sleep(50 * time.Millisecond)
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(50 * time.Millisecond)
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(150 * time.Millisecond)

	// Back to results and rescan: the new observables count as known now
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	time.Sleep(50 * time.Millisecond)
	sendRune(tm, 'r')
	time.Sleep(150 * time.Millisecond)

	sendRune(tm, 'q')

	fm := finalPanel(t, tm)
	s := fm.machine.Session()
	if got := s.Mode(); got != panel.ModeScanResults {
		t.Errorf("final mode = %v, want %v", got, panel.ModeScanResults)
	}

	stillMissing := 0
	for _, e := range s.AllEntities() {
		if !e.Found {
			stillMissing++
		}
	}
	if stillMissing != 0 {
		t.Errorf("%d entities still unknown after import and rescan", stillMissing)
	}
}

// ===========================================================================
// Journey 6: "Lost? Ask for help" - help overlay over any screen
// ===========================================================================

func TestJourney_HelpOverlay(t *testing.T) {
	m := journeyModel(t)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	defer tm.Quit()

	time.Sleep(100 * time.Millisecond)

	sendRune(tm, '?')
	time.Sleep(50 * time.Millisecond)

	// Any key closes help; esc must not also back out of the screen
	tm.Send(tea.KeyMsg{Type: tea.KeyEscape})
	time.Sleep(50 * time.Millisecond)
	sendRune(tm, 'q')

	fm := finalPanel(t, tm)
	if fm.helpMode {
		t.Error("help mode still set at quit")
	}
	if got := fm.machine.Session().Mode(); got != panel.ModeScanResults {
		t.Errorf("final mode = %v, want %v", got, panel.ModeScanResults)
	}
	if !strings.Contains(fm.View(), "SCAN RESULTS") {
		t.Error("final view is not the results screen")
	}
}
