// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package panel

import (
	"github.com/monadic/intel-scout/pkg/bridge"
	"github.com/monadic/intel-scout/pkg/correlate"
	"github.com/monadic/intel-scout/pkg/platform"
)

// Flow names the multi-step flow a platform-select sub-state belongs to.
type Flow string

const (
	FlowNone          Flow = ""
	FlowContainer     Flow = "container"
	FlowInvestigation Flow = "investigation"
	FlowScenario      Flow = "scenario"
	FlowAtomic        Flow = "atomic"
	FlowAdd           Flow = "add"
)

// SearchHit tags a search result with the platform that returned it.
type SearchHit struct {
	PlatformID string
	Entity     bridge.Entity
}

// SimContext caches the sim-platform objects the scenario and atomic
// working modes need.
type SimContext struct {
	PlatformID string
	Assets     []bridge.Entity
	Teams      []bridge.Entity
	Contracts  []bridge.Entity
}

// Session is the panel's single owned store. Every mutation happens inside
// Machine.Handle on the host's event goroutine; asynchronous continuations
// never touch it directly, they come back as completion events. Exported
// methods are read-only projections for rendering.
type Session struct {
	snap *platform.Snapshot
	mode Mode

	// Scan results, rebuilt wholesale per batch.
	entities []*correlate.CorrelatedEntity
	filter   correlate.Filter

	// Entity view.
	nav          *Navigation
	activeEntity *correlate.CorrelatedEntity
	activeExists bool
	containers   []bridge.Entity

	// Preview.
	previewEntity *correlate.CorrelatedEntity

	// Flow routing for platform-select sub-states.
	pendingFlow Flow

	// Container flow.
	pageURL            string
	containerPlatform  string
	containerType      string
	existingContainers []bridge.Entity
	pendingURLLookups  int

	// Investigation flow.
	intelPlatform string

	// Sim flows.
	simPlatform    string
	simContext     SimContext
	scenarioSeed   []string
	atomicPattern  string
	importPlatform string
	importedCount  int

	// Search.
	searchText    string
	searchResults []SearchHit

	// Ancillary caches, applied unconditionally on arrival.
	labels        map[string][]string
	markings      map[string][]string
	vocabulary    map[string]map[string][]string
	platformAlive map[string]bool

	// Degraded and error text.
	unavailableReason string
	errorText         string
}

// NewSession builds an idle session over a platform snapshot.
func NewSession(snap *platform.Snapshot) *Session {
	if snap == nil {
		snap = platform.EmptySnapshot()
	}
	return &Session{
		snap:          snap,
		mode:          ModeIdle,
		nav:           NewNavigation(),
		labels:        make(map[string][]string),
		markings:      make(map[string][]string),
		vocabulary:    make(map[string]map[string][]string),
		platformAlive: make(map[string]bool),
	}
}

// Mode returns the current panel mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Snapshot returns the platform configuration the session runs against.
func (s *Session) Snapshot() *platform.Snapshot {
	return s.snap
}

// Entities returns the correlated collection narrowed by the active
// filters, in first-seen order.
func (s *Session) Entities() []*correlate.CorrelatedEntity {
	return s.filter.Apply(s.entities)
}

// AllEntities returns the unfiltered correlated collection.
func (s *Session) AllEntities() []*correlate.CorrelatedEntity {
	out := make([]*correlate.CorrelatedEntity, len(s.entities))
	copy(out, s.entities)
	return out
}

// Filter returns the active scan-results filter.
func (s *Session) Filter() correlate.Filter {
	return s.filter
}

// EntityByKey finds one entity in the unfiltered collection.
func (s *Session) EntityByKey(groupKey string) (*correlate.CorrelatedEntity, bool) {
	for _, e := range s.entities {
		if e.GroupKey == groupKey {
			return e, true
		}
	}
	return nil, false
}

// Nav returns the navigation state for rendering.
func (s *Session) Nav() *Navigation {
	return s.nav
}

// ActiveEntity returns the logical entity in the entity view, nil outside
// it.
func (s *Session) ActiveEntity() *correlate.CorrelatedEntity {
	return s.activeEntity
}

// ActiveData returns the raw payload of the slot under the cursor. The
// entity view renders from this; enrichment swaps it in place.
func (s *Session) ActiveData() bridge.Entity {
	cur, ok := s.nav.Current()
	if !ok {
		return nil
	}
	return bridge.Entity(cur.Match.Data)
}

// ActiveExists reports the exists-in-platform flag of the open entity.
func (s *Session) ActiveExists() bool {
	return s.activeExists
}

// Containers returns the containers referencing the open entity.
func (s *Session) Containers() []bridge.Entity {
	return s.containers
}

// PreviewEntity returns the entity under preview, nil outside preview.
func (s *Session) PreviewEntity() *correlate.CorrelatedEntity {
	return s.previewEntity
}

// PendingFlow reports which flow a platform-select sub-state belongs to.
func (s *Session) PendingFlow() Flow {
	return s.pendingFlow
}

// PageURL returns the page the container flow is about.
func (s *Session) PageURL() string {
	return s.pageURL
}

// ContainerPlatform returns the platform chosen for the container flow.
func (s *Session) ContainerPlatform() string {
	return s.containerPlatform
}

// ContainerType returns the chosen container type.
func (s *Session) ContainerType() string {
	return s.containerType
}

// ExistingContainers returns containers already referencing the page URL.
func (s *Session) ExistingContainers() []bridge.Entity {
	return s.existingContainers
}

// IntelPlatform returns the platform chosen for the investigation flow.
func (s *Session) IntelPlatform() string {
	return s.intelPlatform
}

// SimPlatform returns the platform chosen for sim flows.
func (s *Session) SimPlatform() string {
	return s.simPlatform
}

// Sim returns the cached sim context.
func (s *Session) Sim() SimContext {
	return s.simContext
}

// ScenarioSeed returns the attack-pattern names seeding the scenario flow.
func (s *Session) ScenarioSeed() []string {
	return s.scenarioSeed
}

// AtomicPattern returns the attack pattern of the atomic-testing flow.
func (s *Session) AtomicPattern() string {
	return s.atomicPattern
}

// ImportPlatform returns the platform receiving imported observables.
func (s *Session) ImportPlatform() string {
	return s.importPlatform
}

// ImportedCount returns how many observables the last import created.
func (s *Session) ImportedCount() int {
	return s.importedCount
}

// SearchText returns the live search query.
func (s *Session) SearchText() string {
	return s.searchText
}

// SearchResults returns the accumulated cross-platform hits.
func (s *Session) SearchResults() []SearchHit {
	return s.searchResults
}

// Labels returns the cached label vocabulary for a platform.
func (s *Session) Labels(platformID string) []string {
	return s.labels[platformID]
}

// Markings returns the cached marking definitions for a platform.
func (s *Session) Markings(platformID string) []string {
	return s.markings[platformID]
}

// Vocabulary returns one cached open-vocabulary field for a platform.
func (s *Session) Vocabulary(platformID, field string) []string {
	if m, ok := s.vocabulary[platformID]; ok {
		return m[field]
	}
	return nil
}

// PlatformAlive reports the last liveness probe result.
func (s *Session) PlatformAlive(platformID string) (bool, bool) {
	alive, ok := s.platformAlive[platformID]
	return alive, ok
}

// UnavailableReason explains the degraded display-only mode.
func (s *Session) UnavailableReason() string {
	return s.unavailableReason
}

// ErrorText explains the error mode.
func (s *Session) ErrorText() string {
	return s.errorText
}

// NotFoundCount returns how many scan rows no platform knows, the add
// flow's candidate pool.
func (s *Session) NotFoundCount() int {
	n := 0
	for _, e := range s.entities {
		if !e.Found {
			n++
		}
	}
	return n
}

// leaveEntityView drops the navigation state and entity-adjacent caches.
// Outstanding enrichment tickets become stale here.
func (s *Session) leaveEntityView() {
	s.nav.Clear()
	s.activeEntity = nil
	s.activeExists = false
	s.containers = nil
}

// resetFlows clears every multi-step flow's intermediate state.
func (s *Session) resetFlows() {
	s.pendingFlow = FlowNone
	s.pageURL = ""
	s.containerPlatform = ""
	s.containerType = ""
	s.existingContainers = nil
	s.pendingURLLookups = 0
	s.intelPlatform = ""
	s.simPlatform = ""
	s.simContext = SimContext{}
	s.scenarioSeed = nil
	s.atomicPattern = ""
	s.importPlatform = ""
	s.importedCount = 0
	s.searchText = ""
	s.searchResults = nil
	s.previewEntity = nil
	s.unavailableReason = ""
	s.errorText = ""
}
