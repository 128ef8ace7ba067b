// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/monadic/intel-scout/pkg/correlate"
	"github.com/monadic/intel-scout/pkg/pagescan"
	"github.com/monadic/intel-scout/pkg/panel"
)

// demoModel builds a panel model over the canned demo dataset, sized so
// views render.
func demoModel(t *testing.T) PanelModel {
	t.Helper()
	snap, err := demoSnapshot()
	if err != nil {
		t.Fatalf("demo snapshot: %v", err)
	}
	caller := demoCaller()
	scanner := pagescan.NewScanner(caller, snap, nil, nil)
	m := newPanelModel(snap, caller, scanner, nil, demoPageText, demoPageURL)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(PanelModel)
}

// scannedModel runs the demo scan synchronously and feeds the result in,
// landing the model on the results screen.
func scannedModel(t *testing.T) PanelModel {
	t.Helper()
	m := demoModel(t)
	batch := m.scanner.Scan(context.Background(), demoPageText)
	return update(t, m, scanDoneMsg{batch: batch})
}

func update(t *testing.T, m PanelModel, msg tea.Msg) PanelModel {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(PanelModel)
	if !ok {
		t.Fatalf("Update returned %T, want PanelModel", next)
	}
	return out
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func press(t *testing.T, m PanelModel, msg tea.Msg) (PanelModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(PanelModel)
	if !ok {
		t.Fatalf("Update returned %T, want PanelModel", next)
	}
	return out, cmd
}

// drain executes the command tree a key produced, feeding effect
// completions back into the model until none are left. The demo caller
// answers in process, so a whole fetch round trip settles synchronously.
// Spinner ticks and other UI messages are dropped.
func drain(t *testing.T, m PanelModel, cmd tea.Cmd) PanelModel {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
		return m
	case panelEventMsg:
		next, nextCmd := m.Update(msg)
		return drain(t, next.(PanelModel), nextCmd)
	case scanDoneMsg:
		next, nextCmd := m.Update(msg)
		return drain(t, next.(PanelModel), nextCmd)
	default:
		return m
	}
}

// pressAndDrain runs one keypress and settles every effect it started.
func pressAndDrain(t *testing.T, m PanelModel, msg tea.Msg) PanelModel {
	t.Helper()
	next, cmd := press(t, m, msg)
	return drain(t, next, cmd)
}

func findEntity(t *testing.T, m PanelModel, ident string) (*correlate.CorrelatedEntity, int) {
	t.Helper()
	for i, e := range m.machine.Session().Entities() {
		if e.Ident() == ident {
			return e, i
		}
	}
	t.Fatalf("entity %q not in scan results", ident)
	return nil, 0
}

func TestPanelScanResults(t *testing.T) {
	m := scannedModel(t)
	s := m.machine.Session()

	if s.Mode() != panel.ModeScanResults {
		t.Fatalf("mode = %v, want %v", s.Mode(), panel.ModeScanResults)
	}
	if m.scanning {
		t.Error("scanning flag still set after scan completed")
	}

	entities := s.Entities()
	if len(entities) == 0 {
		t.Fatal("no entities after demo scan")
	}

	domain, _ := findEntity(t, m, "update.stage-check.net")
	if !domain.Found {
		t.Error("demo domain should be known")
	}
	if len(domain.Matches) != 2 {
		t.Errorf("domain matches = %d, want 2 (cti-main and cti-lab)", len(domain.Matches))
	}

	unknown := 0
	for _, e := range entities {
		if !e.Found {
			unknown++
		}
	}
	if unknown == 0 {
		t.Error("expected unknown entities in the demo page")
	}

	view := m.View()
	if !strings.Contains(view, "SCAN RESULTS") {
		t.Error("results view missing banner")
	}
	if !strings.Contains(view, "update.stage-check.net") {
		t.Error("results view missing the demo domain row")
	}
}

func TestPanelCursorAndFilters(t *testing.T) {
	m := scannedModel(t)

	m = update(t, m, keyMsg('k'))
	if m.cursor != 0 {
		t.Errorf("cursor moved above the first row: %d", m.cursor)
	}
	m = update(t, m, keyMsg('j'))
	if m.cursor != 1 {
		t.Errorf("cursor = %d after one down, want 1", m.cursor)
	}

	m = update(t, m, keyMsg('f'))
	if got := m.machine.Session().Filter().Found; got != correlate.FoundOnly {
		t.Errorf("found filter = %v after one cycle, want %v", got, correlate.FoundOnly)
	}
	m = update(t, m, keyMsg('f'))
	m = update(t, m, keyMsg('f'))
	if got := m.machine.Session().Filter().Found; got != correlate.FoundAny {
		t.Errorf("found filter = %v after full cycle, want %v", got, correlate.FoundAny)
	}

	m = update(t, m, keyMsg('t'))
	if m.machine.Session().Filter().Type == "" {
		t.Error("type filter empty after pressing t")
	}
	for i := 0; i < len(correlate.Types(m.machine.Session().AllEntities())); i++ {
		m = update(t, m, keyMsg('t'))
	}
	if got := m.machine.Session().Filter().Type; got != "" {
		t.Errorf("type filter = %q after cycling through all types, want empty", got)
	}
}

func TestPanelOpenEntityAndNavigate(t *testing.T) {
	m := scannedModel(t)
	_, idx := findEntity(t, m, "update.stage-check.net")
	for i := 0; i < idx; i++ {
		m = update(t, m, keyMsg('j'))
	}

	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	s := m.machine.Session()

	if s.Mode() != panel.ModeEntity {
		t.Fatalf("mode = %v after opening entity, want %v", s.Mode(), panel.ModeEntity)
	}
	if s.Nav().Len() != 2 {
		t.Fatalf("nav slots = %d, want 2", s.Nav().Len())
	}
	if s.Nav().Loading() {
		t.Error("nav still loading after enrichment settled")
	}
	if got := s.ActiveData().Description(); got == "" {
		t.Error("enrichment did not fill the description")
	}
	if len(s.Containers()) == 0 {
		t.Error("containers not fetched for the intel entity")
	}

	m = pressAndDrain(t, m, keyMsg('l'))
	s = m.machine.Session()
	if got := s.Nav().Index(); got != 1 {
		t.Fatalf("nav index = %d after next, want 1", got)
	}
	if got := s.ActiveData().Description(); !strings.Contains(got, "Mirrored") {
		t.Errorf("second platform data = %q, want the lab mirror detail", got)
	}

	// Clamped at the last platform.
	m = pressAndDrain(t, m, keyMsg('l'))
	if got := m.machine.Session().Nav().Index(); got != 1 {
		t.Errorf("nav index = %d after next at the end, want 1", got)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.machine.Session().Mode(); got != panel.ModeScanResults {
		t.Errorf("mode = %v after esc, want %v", got, panel.ModeScanResults)
	}
}

// TestPanelStaleEnrichmentDiscarded switches platforms before the first
// enrichment lands; the late reply must not clobber the newer slot.
func TestPanelStaleEnrichmentDiscarded(t *testing.T) {
	m := scannedModel(t)
	_, idx := findEntity(t, m, "update.stage-check.net")
	for i := 0; i < idx; i++ {
		m = update(t, m, keyMsg('j'))
	}

	m, openCmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, nextCmd := press(t, m, keyMsg('l'))

	// The first fetch resolves after the platform switch: stale.
	m = drain(t, m, openCmd)
	s := m.machine.Session()
	if s.Mode() != panel.ModeLoading {
		t.Fatalf("mode = %v after stale reply, want %v", s.Mode(), panel.ModeLoading)
	}
	if !s.Nav().Loading() {
		t.Error("stale reply cleared the loading flag")
	}

	m = drain(t, m, nextCmd)
	s = m.machine.Session()
	if s.Mode() != panel.ModeEntity {
		t.Fatalf("mode = %v after current reply, want %v", s.Mode(), panel.ModeEntity)
	}
	if got := s.Nav().Index(); got != 1 {
		t.Errorf("nav index = %d, want 1", got)
	}
	if got := s.ActiveData().Description(); !strings.Contains(got, "Mirrored") {
		t.Errorf("active data = %q, want the second platform's detail", got)
	}
}

func TestPanelContainerJourney(t *testing.T) {
	m := scannedModel(t)

	m = pressAndDrain(t, m, keyMsg('C'))
	s := m.machine.Session()
	if s.Mode() != panel.ModePlatformSelect {
		t.Fatalf("mode = %v after container key, want %v", s.Mode(), panel.ModePlatformSelect)
	}
	if got := s.PendingFlow(); got != panel.FlowContainer {
		t.Fatalf("pending flow = %v, want %v", got, panel.FlowContainer)
	}

	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	s = m.machine.Session()
	if s.Mode() != panel.ModeContainerType {
		t.Fatalf("mode = %v after platform pick, want %v", s.Mode(), panel.ModeContainerType)
	}
	if got := s.Vocabulary("cti-main", "report_types_ov"); len(got) != 3 {
		t.Errorf("vocabulary entries = %d, want 3", len(got))
	}
	if got := s.Labels("cti-main"); len(got) == 0 {
		t.Error("labels not fetched for the container platform")
	}

	m = update(t, m, keyMsg('j'))
	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	s = m.machine.Session()
	if s.Mode() != panel.ModeContainerForm {
		t.Fatalf("mode = %v after type pick, want %v", s.Mode(), panel.ModeContainerForm)
	}
	if got := s.ContainerType(); got != "incident-report" {
		t.Errorf("container type = %q, want %q", got, "incident-report")
	}

	for _, r := range "Graphene wave" {
		m = update(t, m, keyMsg(r))
	}
	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	s = m.machine.Session()

	if m.notification != "container created" {
		t.Errorf("notification = %q, want %q", m.notification, "container created")
	}
	// The post-create lookup finds the container the demo platform now has.
	if s.Mode() != panel.ModeExistingContainers {
		t.Fatalf("mode = %v after create, want %v", s.Mode(), panel.ModeExistingContainers)
	}
	if got := s.ExistingContainers(); len(got) == 0 {
		t.Error("created container missing from the refreshed URL lookup")
	}
}

func TestPanelContainerFormRequiresName(t *testing.T) {
	m := scannedModel(t)
	m = pressAndDrain(t, m, keyMsg('C'))
	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.notification == "" {
		t.Fatal("expected a warning for the empty container name")
	}
	if got := m.machine.Session().Mode(); got != panel.ModeContainerForm {
		t.Errorf("mode = %v after rejected submit, want %v", got, panel.ModeContainerForm)
	}
}

func TestPanelImportJourney(t *testing.T) {
	m := scannedModel(t)
	s := m.machine.Session()

	want := 0
	for _, e := range s.AllEntities() {
		if !e.Found {
			want++
		}
	}
	if want == 0 {
		t.Fatal("demo scan has nothing to import")
	}

	m = pressAndDrain(t, m, keyMsg('a'))
	if got := m.machine.Session().Mode(); got != panel.ModeAddSelection {
		t.Fatalf("mode = %v after add key, want %v", got, panel.ModeAddSelection)
	}

	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.machine.Session().Mode(); got != panel.ModeAdd {
		t.Fatalf("mode = %v after platform pick, want %v", got, panel.ModeAdd)
	}

	// No picks toggled: import everything missing.
	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	s = m.machine.Session()
	if s.Mode() != panel.ModeImportResults {
		t.Fatalf("mode = %v after import, want %v", s.Mode(), panel.ModeImportResults)
	}
	if got := s.ImportedCount(); got != want {
		t.Errorf("imported count = %d, want %d", got, want)
	}
}

func TestPanelImportPickSubset(t *testing.T) {
	m := scannedModel(t)
	m = pressAndDrain(t, m, keyMsg('a'))
	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = update(t, m, keyMsg(' '))
	picked := 0
	for _, on := range m.importPicks {
		if on {
			picked++
		}
	}
	if picked != 1 {
		t.Fatalf("picked = %d after one toggle, want 1", picked)
	}

	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.machine.Session().ImportedCount(); got != 1 {
		t.Errorf("imported count = %d, want 1", got)
	}
}

func TestPanelScenarioJourney(t *testing.T) {
	m := scannedModel(t)

	m = pressAndDrain(t, m, keyMsg('S'))
	s := m.machine.Session()
	if s.Mode() != panel.ModeScenarioOverview {
		t.Fatalf("mode = %v after scenario key, want %v", s.Mode(), panel.ModeScenarioOverview)
	}
	if got := len(s.ScenarioSeed()); got != 4 {
		t.Errorf("attack patterns seeded = %d, want 4", got)
	}
	if got := len(s.Sim().Assets); got != 2 {
		t.Errorf("sim assets = %d, want 2", got)
	}
	if got := len(s.Sim().Contracts); got != 2 {
		t.Errorf("injector contracts = %d, want 2", got)
	}

	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.machine.Session().Mode(); got != panel.ModeScenarioForm {
		t.Fatalf("mode = %v after opening the form, want %v", got, panel.ModeScenarioForm)
	}

	for _, r := range "Phishing drill" {
		m = update(t, m, keyMsg(r))
	}
	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.notification != "scenario created" {
		t.Errorf("notification = %q, want %q", m.notification, "scenario created")
	}
	if got := m.machine.Session().Mode(); got != panel.ModeScenarioOverview {
		t.Errorf("mode = %v after create, want %v", got, panel.ModeScenarioOverview)
	}
}

func TestPanelAtomicJourney(t *testing.T) {
	m := scannedModel(t)

	m = pressAndDrain(t, m, keyMsg('A'))
	s := m.machine.Session()
	if s.Mode() != panel.ModeAtomicTesting {
		t.Fatalf("mode = %v after atomic key, want %v", s.Mode(), panel.ModeAtomicTesting)
	}
	if got := s.AtomicPattern(); got != "Phishing" {
		t.Errorf("atomic pattern = %q, want %q", got, "Phishing")
	}

	m = update(t, m, keyMsg('j'))
	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.notification != "atomic test created" {
		t.Errorf("notification = %q, want %q", m.notification, "atomic test created")
	}
}

func TestPanelUnifiedSearch(t *testing.T) {
	m := scannedModel(t)

	m = pressAndDrain(t, m, keyMsg('/'))
	if got := m.machine.Session().Mode(); got != panel.ModeUnifiedSearch {
		t.Fatalf("mode = %v after search key, want %v", got, panel.ModeUnifiedSearch)
	}

	for _, r := range "phishing" {
		m = update(t, m, keyMsg(r))
	}
	m = pressAndDrain(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	s := m.machine.Session()

	if got := s.SearchText(); got != "phishing" {
		t.Errorf("search text = %q, want %q", got, "phishing")
	}
	// cti-main has the attack pattern, sim-range the payload; cti-lab
	// has no phishing entity.
	if got := len(s.SearchResults()); got != 2 {
		t.Errorf("search hits = %d, want 2", got)
	}
}

func TestPanelHelpAndQuit(t *testing.T) {
	m := scannedModel(t)

	m = update(t, m, keyMsg('?'))
	if !m.helpMode {
		t.Fatal("help mode not set")
	}
	if !strings.Contains(m.View(), "INTEL SCOUT HELP") {
		t.Error("help view missing banner")
	}
	m = update(t, m, keyMsg('x'))
	if m.helpMode {
		t.Error("help mode not cleared by a keypress")
	}

	next, cmd := m.Update(keyMsg('q'))
	m = next.(PanelModel)
	if !m.quitting {
		t.Error("quitting flag not set")
	}
	if cmd == nil {
		t.Fatal("quit produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command did not produce tea.QuitMsg")
	}
}

func TestPanelRescan(t *testing.T) {
	m := scannedModel(t)

	next, cmd := m.Update(keyMsg('r'))
	m = next.(PanelModel)
	if !m.scanning {
		t.Error("scanning flag not set during rescan")
	}

	m = drain(t, m, cmd)
	s := m.machine.Session()
	if s.Mode() != panel.ModeScanResults {
		t.Errorf("mode = %v after rescan, want %v", s.Mode(), panel.ModeScanResults)
	}
	if m.scanning {
		t.Error("scanning flag still set after rescan settled")
	}
	if len(s.Entities()) == 0 {
		t.Error("rescan produced no entities")
	}
}
