// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package panel

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/monadic/intel-scout/pkg/correlate"
	"github.com/monadic/intel-scout/pkg/platform"
)

// Object kinds reported back through CreateResolved.What.
const (
	CreatedContainer     = "container"
	CreatedInvestigation = "investigation"
	CreatedScenario      = "scenario"
	CreatedAtomic        = "atomic test"
)

// transitionKey addresses one row of the transition table. ModeAny rows
// match when no mode-specific row does.
type transitionKey struct {
	mode Mode
	ev   EventType
}

type transitionFunc func(m *Machine, ev Event) []Effect

// Machine advances the panel session through its modes. Every transition
// is a table row keyed by (mode, event type); handlers read only the
// session, the platform snapshot, and the event payload, so behavior is
// reproducible from those three alone.
type Machine struct {
	s     *Session
	log   *slog.Logger
	table map[transitionKey]transitionFunc
}

// NewMachine builds the transition table over a session. A nil logger
// discards.
func NewMachine(s *Session, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	m := &Machine{s: s, log: log}
	m.table = buildTable()
	return m
}

// Session exposes the owned store for rendering.
func (m *Machine) Session() *Session {
	return m.s
}

// Handle routes one event. Unmatched (mode, event) pairs are ignored with
// a debug log; nothing here panics or blocks.
func (m *Machine) Handle(ev Event) []Effect {
	fn, ok := m.table[transitionKey{m.s.mode, ev.Type()}]
	if !ok {
		fn, ok = m.table[transitionKey{ModeAny, ev.Type()}]
	}
	if !ok {
		m.log.Debug("event ignored", "mode", m.s.mode.String(), "event", string(ev.Type()))
		return nil
	}
	return fn(m, ev)
}

func buildTable() map[transitionKey]transitionFunc {
	t := make(map[transitionKey]transitionFunc)
	add := func(mode Mode, evt EventType, fn transitionFunc) {
		t[transitionKey{mode, evt}] = fn
	}

	// Entry points reachable from any mode.
	add(ModeAny, EvShowScanResults, (*Machine).handleShowScanResults)
	add(ModeAny, EvShowEntity, (*Machine).handleShowEntity)
	add(ModeAny, EvShowCreateContainer, (*Machine).handleShowCreateContainer)
	add(ModeAny, EvShowInvestigation, (*Machine).handleShowInvestigation)
	add(ModeAny, EvShowScenario, (*Machine).handleShowScenario)
	add(ModeAny, EvShowAtomicTesting, (*Machine).handleShowAtomicTesting)
	add(ModeAny, EvShowUnifiedSearch, (*Machine).handleShowUnifiedSearch)
	add(ModeAny, EvRescan, (*Machine).handleRescan)
	add(ModeAny, EvBack, (*Machine).handleBack)
	add(ModeAny, EvClosePanel, (*Machine).handleClosePanel)

	// Completions can land in any mode; each handler decides applicability.
	add(ModeAny, EvEnrichmentResolved, (*Machine).handleEnrichmentResolved)
	add(ModeAny, EvContainersResolved, (*Machine).handleContainersResolved)
	add(ModeAny, EvURLContainersResolved, (*Machine).handleURLContainersResolved)
	add(ModeAny, EvSimContextResolved, (*Machine).handleSimContextResolved)
	add(ModeAny, EvSearchResolved, (*Machine).handleSearchResolved)
	add(ModeAny, EvCreateResolved, (*Machine).handleCreateResolved)
	add(ModeAny, EvImportResolved, (*Machine).handleImportResolved)
	add(ModeAny, EvLabelsResolved, (*Machine).handleLabelsResolved)
	add(ModeAny, EvMarkingsResolved, (*Machine).handleMarkingsResolved)
	add(ModeAny, EvVocabularyResolved, (*Machine).handleVocabularyResolved)
	add(ModeAny, EvPlatformStatusResolved, (*Machine).handlePlatformStatusResolved)

	// Scan results.
	add(ModeScanResults, EvSelectEntity, (*Machine).handleSelectEntity)
	add(ModeScanResults, EvShowPreview, (*Machine).handleShowPreview)
	add(ModeScanResults, EvSetTypeFilter, (*Machine).handleSetTypeFilter)
	add(ModeScanResults, EvCycleFoundFilter, (*Machine).handleCycleFoundFilter)
	add(ModeScanResults, EvShowAddEntity, (*Machine).handleShowAddEntity)

	// Entity view navigation, also reachable while an enrichment loads.
	add(ModeEntity, EvNextPlatform, (*Machine).handleNextPlatform)
	add(ModeEntity, EvPrevPlatform, (*Machine).handlePrevPlatform)
	add(ModeLoading, EvNextPlatform, (*Machine).handleNextPlatform)
	add(ModeLoading, EvPrevPlatform, (*Machine).handlePrevPlatform)

	// Flow sub-states.
	add(ModePlatformSelect, EvSelectPlatform, (*Machine).handleSelectPlatform)
	add(ModeAddSelection, EvSelectPlatform, (*Machine).handleSelectPlatform)
	add(ModeContainerType, EvSelectContainerType, (*Machine).handleSelectContainerType)
	add(ModeContainerForm, EvSubmitContainer, (*Machine).handleSubmitContainer)
	add(ModeInvestigation, EvSubmitInvestigation, (*Machine).handleSubmitInvestigation)
	add(ModeScenarioOverview, EvOpenScenarioForm, (*Machine).handleOpenScenarioForm)
	add(ModeScenarioForm, EvSubmitScenario, (*Machine).handleSubmitScenario)
	add(ModeAtomicTesting, EvLaunchAtomic, (*Machine).handleLaunchAtomic)
	add(ModeUnifiedSearch, EvSubmitSearch, (*Machine).handleSubmitSearch)
	add(ModeAdd, EvSubmitImport, (*Machine).handleSubmitImport)

	return t
}

func (m *Machine) handleShowScanResults(ev Event) []Effect {
	p := ev.(ShowScanResults)
	m.s.entities = correlate.Correlate(p.Batch)
	m.s.filter = correlate.Filter{}
	m.s.leaveEntityView()
	m.s.resetFlows()
	m.s.mode = ModeScanResults
	m.log.Info("scan correlated", "detections", p.Batch.Size(), "entities", len(m.s.entities))
	return nil
}

func (m *Machine) handleShowEntity(ev Event) []Effect {
	p := ev.(ShowEntity)
	if p.Entity == nil {
		m.s.resetFlows()
		m.s.errorText = "entity payload missing"
		m.s.mode = ModeError
		return nil
	}
	return m.openEntity(p.Entity, p.ExistsInPlatform)
}

func (m *Machine) handleSelectEntity(ev Event) []Effect {
	p := ev.(SelectEntity)
	e, ok := m.s.EntityByKey(p.GroupKey)
	if !ok {
		m.log.Debug("select for unknown group", "key", p.GroupKey)
		return nil
	}
	return m.openEntity(e, e.Found)
}

// openEntity is the shared show-entity transition: install navigation,
// classify the current slot, and either enter the view directly or enter
// optimistically with a background enrichment fetch.
func (m *Machine) openEntity(e *correlate.CorrelatedEntity, exists bool) []Effect {
	m.s.resetFlows()
	m.s.activeEntity = e
	m.s.activeExists = exists
	m.s.containers = nil
	m.s.nav.Install(e.Matches, m.s.snap)

	cur, ok := m.s.nav.Current()
	if !ok {
		if exists {
			m.s.mode = ModeEntity
		} else {
			m.s.mode = ModeNotFound
		}
		return nil
	}

	if !exists {
		m.s.mode = ModeNotFound
		return nil
	}

	var effects []Effect
	m.s.mode = ModeEntity
	complete := platform.CompletenessFor(cur.Kind).Complete(cur.Match.Type, cur.Match.Data)
	if !complete {
		// Optimistic entry: show the partial payload now, fill in detail
		// when the fetch lands. The ticket orphans itself if the user
		// navigates meanwhile.
		if t, ok := m.s.nav.Issue(); ok {
			effects = append(effects, FetchEnrichment{Ticket: t, Match: cur.Match})
		}
	}
	if cur.Kind == platform.KindIntel && cur.Match.EntityID != "" {
		effects = append(effects, FetchContainers{
			GroupKey:   e.GroupKey,
			EntityID:   cur.Match.EntityID,
			PlatformID: cur.PlatformID,
		})
	}
	return effects
}

func (m *Machine) handleShowPreview(ev Event) []Effect {
	p := ev.(ShowPreview)
	e, ok := m.s.EntityByKey(p.GroupKey)
	if !ok {
		m.log.Debug("preview for unknown group", "key", p.GroupKey)
		return nil
	}
	m.s.previewEntity = e
	m.s.mode = ModePreview
	return nil
}

func (m *Machine) handleNextPlatform(Event) []Effect { return m.movePlatform(1) }
func (m *Machine) handlePrevPlatform(Event) []Effect { return m.movePlatform(-1) }

func (m *Machine) movePlatform(delta int) []Effect {
	t, moved := m.s.nav.Move(delta)
	if !moved {
		return nil
	}
	m.s.mode = ModeLoading
	cur, _ := m.s.nav.Current()
	return []Effect{FetchEnrichment{Ticket: t, Match: cur.Match}}
}

func (m *Machine) handleEnrichmentResolved(ev Event) []Effect {
	p := ev.(EnrichmentResolved)
	if p.Err != nil {
		if m.s.nav.Fail(p.Ticket) {
			if m.s.mode == ModeLoading {
				m.s.mode = ModeEntity
			}
			m.log.Warn("enrichment failed, keeping cached data", "slot", p.Ticket.Index(), "err", p.Err)
		} else {
			m.log.Debug("stale enrichment failure discarded", "slot", p.Ticket.Index())
		}
		return nil
	}
	if m.s.nav.ApplyIfCurrent(p.Ticket, p.Entity) {
		if m.s.mode == ModeLoading {
			m.s.mode = ModeEntity
		}
	} else {
		m.log.Debug("stale enrichment discarded", "slot", p.Ticket.Index())
	}
	return nil
}

func (m *Machine) handleContainersResolved(ev Event) []Effect {
	p := ev.(ContainersResolved)
	if p.Err != nil {
		m.log.Warn("container lookup failed", "group", p.GroupKey, "err", p.Err)
		return nil
	}
	if m.s.activeEntity == nil || m.s.activeEntity.GroupKey != p.GroupKey {
		m.log.Debug("containers for closed entity discarded", "group", p.GroupKey)
		return nil
	}
	m.s.containers = p.Containers
	return nil
}

func (m *Machine) handleShowCreateContainer(ev Event) []Effect {
	p := ev.(ShowCreateContainer)
	m.s.leaveEntityView()
	m.s.resetFlows()
	if !m.s.snap.Features().Containers {
		m.s.unavailableReason = "container creation is disabled in config"
		m.s.mode = ModeUnavailable
		return nil
	}
	intel := m.s.snap.OfKind(platform.KindIntel)
	if len(intel) == 0 {
		m.s.unavailableReason = "no intel platform configured"
		m.s.mode = ModeUnavailable
		return nil
	}

	// Look for containers already covering this page before offering to
	// create one.
	m.s.pendingFlow = FlowContainer
	m.s.pageURL = p.PageURL
	m.s.pendingURLLookups = len(intel)
	m.s.mode = ModeLoading
	effects := make([]Effect, 0, len(intel))
	for _, pl := range intel {
		effects = append(effects, FindContainersByURL{PageURL: p.PageURL, PlatformID: pl.ID})
	}
	return effects
}

func (m *Machine) handleURLContainersResolved(ev Event) []Effect {
	p := ev.(URLContainersResolved)
	if m.s.pendingFlow != FlowContainer {
		m.log.Debug("url containers outside container flow discarded", "platform", p.PlatformID)
		return nil
	}
	if p.Err != nil {
		m.log.Warn("url container lookup failed", "platform", p.PlatformID, "err", p.Err)
	} else if len(p.Containers) > 0 {
		m.s.existingContainers = append(m.s.existingContainers, p.Containers...)
	}
	if m.s.pendingURLLookups > 0 {
		m.s.pendingURLLookups--
	}

	if len(m.s.existingContainers) > 0 {
		m.s.mode = ModeExistingContainers
		return nil
	}
	if m.s.pendingURLLookups > 0 {
		return nil
	}

	// No platform knows this page. One eligible platform auto-selects;
	// more than one asks the user first.
	intel := m.s.snap.OfKind(platform.KindIntel)
	if len(intel) > 1 {
		m.s.mode = ModePlatformSelect
		return nil
	}
	return m.enterContainerType(intel[0].ID)
}

func (m *Machine) enterContainerType(platformID string) []Effect {
	m.s.containerPlatform = platformID
	m.s.mode = ModeContainerType
	// Form pickers use these whenever they arrive; late arrivals after a
	// different platform selection still apply (no staleness guard on
	// ancillary fetches).
	return []Effect{
		FetchLabels{PlatformID: platformID},
		FetchMarkings{PlatformID: platformID},
		FetchVocabulary{PlatformID: platformID, Field: "report_types_ov"},
	}
}

func (m *Machine) handleSelectPlatform(ev Event) []Effect {
	p := ev.(SelectPlatform)
	pl, ok := m.s.snap.ByID(p.PlatformID)
	if !ok {
		m.log.Debug("unknown platform selected", "platform", p.PlatformID)
		return nil
	}
	switch m.s.pendingFlow {
	case FlowContainer:
		if pl.Kind != platform.KindIntel {
			return nil
		}
		return m.enterContainerType(pl.ID)
	case FlowInvestigation:
		if pl.Kind != platform.KindIntel {
			return nil
		}
		return m.enterInvestigation(pl.ID)
	case FlowScenario, FlowAtomic:
		if pl.Kind != platform.KindSim {
			return nil
		}
		return m.enterSimLoading(pl.ID)
	case FlowAdd:
		if pl.Kind != platform.KindIntel {
			return nil
		}
		m.s.importPlatform = pl.ID
		m.s.mode = ModeAdd
		return nil
	}
	m.log.Debug("platform selected with no pending flow", "platform", p.PlatformID)
	return nil
}

func (m *Machine) handleShowInvestigation(Event) []Effect {
	m.s.leaveEntityView()
	m.s.resetFlows()
	if !m.s.snap.Features().Investigations {
		m.s.unavailableReason = "investigations are disabled in config"
		m.s.mode = ModeUnavailable
		return nil
	}
	intel := m.s.snap.OfKind(platform.KindIntel)
	m.s.pendingFlow = FlowInvestigation
	switch len(intel) {
	case 0:
		m.s.unavailableReason = "no intel platform configured"
		m.s.mode = ModeUnavailable
		return nil
	case 1:
		return m.enterInvestigation(intel[0].ID)
	default:
		m.s.mode = ModePlatformSelect
		return nil
	}
}

func (m *Machine) enterInvestigation(platformID string) []Effect {
	m.s.intelPlatform = platformID
	m.s.mode = ModeInvestigation
	return []Effect{
		FetchLabels{PlatformID: platformID},
		FetchMarkings{PlatformID: platformID},
	}
}

func (m *Machine) handleShowScenario(ev Event) []Effect {
	p := ev.(ShowScenario)
	m.s.leaveEntityView()
	m.s.resetFlows()
	if !m.s.snap.Features().Scenarios {
		m.s.unavailableReason = "scenarios are disabled in config"
		m.s.mode = ModeUnavailable
		return nil
	}
	sims := m.s.snap.OfKind(platform.KindSim)
	m.s.pendingFlow = FlowScenario
	m.s.scenarioSeed = p.AttackPatterns
	switch len(sims) {
	case 0:
		m.s.unavailableReason = "no simulation platform configured"
		m.s.mode = ModeUnavailable
		return nil
	case 1:
		return m.enterSimLoading(sims[0].ID)
	default:
		m.s.mode = ModePlatformSelect
		return nil
	}
}

func (m *Machine) handleShowAtomicTesting(ev Event) []Effect {
	p := ev.(ShowAtomicTesting)
	m.s.leaveEntityView()
	m.s.resetFlows()
	if !m.s.snap.Features().AtomicTesting {
		m.s.unavailableReason = "atomic testing is disabled in config"
		m.s.mode = ModeUnavailable
		return nil
	}
	sims := m.s.snap.OfKind(platform.KindSim)
	m.s.pendingFlow = FlowAtomic
	m.s.atomicPattern = p.AttackPattern
	switch len(sims) {
	case 0:
		m.s.unavailableReason = "no simulation platform configured"
		m.s.mode = ModeUnavailable
		return nil
	case 1:
		return m.enterSimLoading(sims[0].ID)
	default:
		m.s.mode = ModePlatformSelect
		return nil
	}
}

// enterSimLoading prefetches assets, teams, and contracts; the working mode
// opens when SimContextResolved lands.
func (m *Machine) enterSimLoading(platformID string) []Effect {
	m.s.simPlatform = platformID
	m.s.mode = ModeLoading
	return []Effect{PrefetchSimContext{PlatformID: platformID}}
}

func (m *Machine) handleSimContextResolved(ev Event) []Effect {
	p := ev.(SimContextResolved)
	inSimFlow := m.s.pendingFlow == FlowScenario || m.s.pendingFlow == FlowAtomic
	if !inSimFlow || m.s.mode != ModeLoading || m.s.simPlatform != p.PlatformID {
		m.log.Debug("sim context discarded", "platform", p.PlatformID)
		return nil
	}
	if p.Err != nil {
		m.log.Warn("sim context prefetch failed, entering with empty context", "platform", p.PlatformID, "err", p.Err)
		m.s.simContext = SimContext{PlatformID: p.PlatformID}
	} else {
		m.s.simContext = SimContext{
			PlatformID: p.PlatformID,
			Assets:     p.Assets,
			Teams:      p.Teams,
			Contracts:  p.Contracts,
		}
	}
	if m.s.pendingFlow == FlowAtomic {
		m.s.mode = ModeAtomicTesting
	} else {
		m.s.mode = ModeScenarioOverview
	}
	return nil
}

func (m *Machine) handleShowUnifiedSearch(ev Event) []Effect {
	p := ev.(ShowUnifiedSearch)
	m.s.leaveEntityView()
	m.s.resetFlows()
	if !m.s.snap.Features().UnifiedSearch {
		m.s.unavailableReason = "search is disabled in config"
		m.s.mode = ModeUnavailable
		return nil
	}
	if len(m.s.snap.All()) == 0 {
		m.s.unavailableReason = "no platforms configured"
		m.s.mode = ModeUnavailable
		return nil
	}
	m.s.mode = ModeUnifiedSearch
	if strings.TrimSpace(p.Initial) != "" {
		return m.runSearch(p.Initial)
	}
	return nil
}

func (m *Machine) handleSubmitSearch(ev Event) []Effect {
	p := ev.(SubmitSearch)
	if strings.TrimSpace(p.Text) == "" {
		return nil
	}
	return m.runSearch(p.Text)
}

func (m *Machine) runSearch(text string) []Effect {
	m.s.searchText = text
	m.s.searchResults = nil
	platforms := m.s.snap.All()
	effects := make([]Effect, 0, len(platforms))
	for _, pl := range platforms {
		effects = append(effects, RunSearch{PlatformID: pl.ID, Text: text})
	}
	return effects
}

func (m *Machine) handleSearchResolved(ev Event) []Effect {
	p := ev.(SearchResolved)
	if m.s.mode != ModeUnifiedSearch {
		m.log.Debug("search result outside search mode discarded", "platform", p.PlatformID)
		return nil
	}
	if p.Err != nil {
		m.log.Warn("search failed on platform", "platform", p.PlatformID, "err", p.Err)
		return nil
	}
	// Results append as each platform answers; a slow answer to an earlier
	// query can interleave with the current one.
	for _, e := range p.Results {
		m.s.searchResults = append(m.s.searchResults, SearchHit{PlatformID: p.PlatformID, Entity: e})
	}
	return nil
}

func (m *Machine) handleShowAddEntity(Event) []Effect {
	m.s.resetFlows()
	intel := m.s.snap.OfKind(platform.KindIntel)
	if len(intel) == 0 {
		m.s.unavailableReason = "no intel platform configured"
		m.s.mode = ModeUnavailable
		return nil
	}
	if m.s.NotFoundCount() == 0 {
		return []Effect{Notify{Level: NotifyInfo, Message: "every detected entity is already known"}}
	}
	m.s.pendingFlow = FlowAdd
	if len(intel) == 1 {
		m.s.importPlatform = intel[0].ID
		m.s.mode = ModeAdd
		return nil
	}
	m.s.mode = ModeAddSelection
	return nil
}

func (m *Machine) handleSubmitImport(ev Event) []Effect {
	p := ev.(SubmitImport)
	want := make(map[string]bool, len(p.GroupKeys))
	for _, k := range p.GroupKeys {
		want[k] = true
	}
	var picks []*correlate.CorrelatedEntity
	for _, e := range m.s.entities {
		if e.Found {
			continue
		}
		if len(want) == 0 || want[e.GroupKey] {
			picks = append(picks, e)
		}
	}
	if len(picks) == 0 {
		return []Effect{Notify{Level: NotifyWarn, Message: "nothing to import"}}
	}
	return []Effect{CreateObservables{PlatformID: m.s.importPlatform, Entities: picks}}
}

func (m *Machine) handleImportResolved(ev Event) []Effect {
	p := ev.(ImportResolved)
	if p.Err != nil {
		return []Effect{Notify{Level: NotifyError, Message: fmt.Sprintf("import failed: %v", p.Err)}}
	}
	m.s.importedCount = p.Created
	if m.s.mode == ModeAdd {
		m.s.mode = ModeImportResults
	}
	return []Effect{Notify{Level: NotifyInfo, Message: fmt.Sprintf("created %d observables", p.Created)}}
}

func (m *Machine) handleSelectContainerType(ev Event) []Effect {
	p := ev.(SelectContainerType)
	if p.ContainerType == "" {
		return nil
	}
	m.s.containerType = p.ContainerType
	m.s.mode = ModeContainerForm
	return nil
}

func (m *Machine) handleSubmitContainer(ev Event) []Effect {
	p := ev.(SubmitContainer)
	if strings.TrimSpace(p.Name) == "" {
		return []Effect{Notify{Level: NotifyWarn, Message: "container name is required"}}
	}
	return []Effect{CreateContainer{
		PlatformID:    m.s.containerPlatform,
		ContainerType: m.s.containerType,
		Name:          p.Name,
		Description:   p.Description,
		PageURL:       m.s.pageURL,
	}}
}

func (m *Machine) handleSubmitInvestigation(ev Event) []Effect {
	p := ev.(SubmitInvestigation)
	if strings.TrimSpace(p.Name) == "" {
		return []Effect{Notify{Level: NotifyWarn, Message: "investigation name is required"}}
	}
	var ids []string
	for _, e := range m.s.entities {
		if !e.Found {
			continue
		}
		for _, match := range e.Matches {
			if match.PlatformID == m.s.intelPlatform && match.EntityID != "" {
				ids = append(ids, match.EntityID)
			}
		}
	}
	if len(ids) == 0 {
		return []Effect{Notify{Level: NotifyWarn, Message: "no known intel entities to investigate"}}
	}
	return []Effect{CreateInvestigation{
		PlatformID: m.s.intelPlatform,
		Name:       p.Name,
		EntityIDs:  ids,
	}}
}

func (m *Machine) handleOpenScenarioForm(Event) []Effect {
	m.s.mode = ModeScenarioForm
	return nil
}

func (m *Machine) handleSubmitScenario(ev Event) []Effect {
	p := ev.(SubmitScenario)
	if strings.TrimSpace(p.Name) == "" {
		return []Effect{Notify{Level: NotifyWarn, Message: "scenario name is required"}}
	}
	return []Effect{CreateScenario{
		PlatformID:     m.s.simPlatform,
		Name:           p.Name,
		Description:    p.Description,
		AttackPatterns: m.s.scenarioSeed,
	}}
}

func (m *Machine) handleLaunchAtomic(ev Event) []Effect {
	p := ev.(LaunchAtomic)
	if p.AssetID == "" {
		return []Effect{Notify{Level: NotifyWarn, Message: "choose an asset first"}}
	}
	return []Effect{LaunchAtomicTest{
		PlatformID:    m.s.simPlatform,
		AttackPattern: m.s.atomicPattern,
		AssetID:       p.AssetID,
	}}
}

func (m *Machine) handleCreateResolved(ev Event) []Effect {
	p := ev.(CreateResolved)
	if p.Err != nil {
		return []Effect{Notify{Level: NotifyError, Message: fmt.Sprintf("creating %s failed: %v", p.What, p.Err)}}
	}
	effects := []Effect{Notify{Level: NotifyInfo, Message: fmt.Sprintf("%s created", p.What)}}

	switch p.What {
	case CreatedContainer:
		// Refresh the page lookup so the new container shows up through
		// the normal existing-containers branch.
		if m.s.pendingFlow == FlowContainer && m.s.pageURL != "" {
			intel := m.s.snap.OfKind(platform.KindIntel)
			m.s.existingContainers = nil
			m.s.pendingURLLookups = len(intel)
			m.s.mode = ModeLoading
			for _, pl := range intel {
				effects = append(effects, FindContainersByURL{PageURL: m.s.pageURL, PlatformID: pl.ID})
			}
		}
	case CreatedScenario:
		if m.s.mode == ModeScenarioForm {
			m.s.mode = ModeScenarioOverview
		}
	}
	return effects
}

func (m *Machine) handleSetTypeFilter(ev Event) []Effect {
	p := ev.(SetTypeFilter)
	m.s.filter.Type = p.EntityType
	return nil
}

func (m *Machine) handleCycleFoundFilter(Event) []Effect {
	m.s.filter.Found = m.s.filter.Found.Next()
	return nil
}

func (m *Machine) handleRescan(Event) []Effect {
	return []Effect{TriggerRescan{}}
}

func (m *Machine) handleBack(Event) []Effect {
	wasResults := m.s.mode == ModeScanResults
	m.s.leaveEntityView()
	m.s.resetFlows()
	if wasResults || len(m.s.entities) == 0 {
		m.s.mode = ModeIdle
	} else {
		m.s.mode = ModeScanResults
	}
	return nil
}

func (m *Machine) handleClosePanel(Event) []Effect {
	m.s.leaveEntityView()
	m.s.resetFlows()
	m.s.entities = nil
	m.s.filter = correlate.Filter{}
	m.s.mode = ModeIdle
	return nil
}

// Ancillary completions apply whenever they land; there is no generation
// guard on these, only on entity enrichment.

func (m *Machine) handleLabelsResolved(ev Event) []Effect {
	p := ev.(LabelsResolved)
	if p.Err != nil {
		m.log.Warn("label fetch failed", "platform", p.PlatformID, "err", p.Err)
		return nil
	}
	m.s.labels[p.PlatformID] = p.Labels
	return nil
}

func (m *Machine) handleMarkingsResolved(ev Event) []Effect {
	p := ev.(MarkingsResolved)
	if p.Err != nil {
		m.log.Warn("marking fetch failed", "platform", p.PlatformID, "err", p.Err)
		return nil
	}
	m.s.markings[p.PlatformID] = p.Markings
	return nil
}

func (m *Machine) handleVocabularyResolved(ev Event) []Effect {
	p := ev.(VocabularyResolved)
	if p.Err != nil {
		m.log.Warn("vocabulary fetch failed", "platform", p.PlatformID, "field", p.Field, "err", p.Err)
		return nil
	}
	if m.s.vocabulary[p.PlatformID] == nil {
		m.s.vocabulary[p.PlatformID] = make(map[string][]string)
	}
	m.s.vocabulary[p.PlatformID][p.Field] = p.Values
	return nil
}

func (m *Machine) handlePlatformStatusResolved(ev Event) []Effect {
	p := ev.(PlatformStatusResolved)
	if p.Err != nil {
		m.log.Warn("status probe failed", "platform", p.PlatformID, "err", p.Err)
		m.s.platformAlive[p.PlatformID] = false
		return nil
	}
	m.s.platformAlive[p.PlatformID] = p.Alive
	return nil
}
