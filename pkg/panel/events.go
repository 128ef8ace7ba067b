// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package panel

import (
	"github.com/monadic/intel-scout/pkg/bridge"
	"github.com/monadic/intel-scout/pkg/correlate"
)

// EventType keys the transition table together with the current mode.
type EventType string

const (
	// Inbound intents.
	EvShowEntity          EventType = "show-entity"
	EvShowScanResults     EventType = "show-scan-results"
	EvShowCreateContainer EventType = "show-create-container"
	EvShowInvestigation   EventType = "show-investigation"
	EvShowScenario        EventType = "show-scenario"
	EvShowAtomicTesting   EventType = "show-atomic-testing"
	EvShowUnifiedSearch   EventType = "show-unified-search"
	EvShowAddEntity       EventType = "show-add-entity"
	EvShowPreview         EventType = "show-preview"
	EvSelectEntity        EventType = "select-entity"
	EvSelectPlatform      EventType = "select-platform"
	EvSelectContainerType EventType = "select-container-type"
	EvSetTypeFilter       EventType = "set-type-filter"
	EvCycleFoundFilter    EventType = "cycle-found-filter"
	EvNextPlatform        EventType = "next-platform"
	EvPrevPlatform        EventType = "prev-platform"
	EvOpenScenarioForm    EventType = "open-scenario-form"
	EvSubmitSearch        EventType = "submit-search"
	EvSubmitContainer     EventType = "submit-container"
	EvSubmitImport        EventType = "submit-import"
	EvSubmitInvestigation EventType = "submit-investigation"
	EvSubmitScenario      EventType = "submit-scenario"
	EvLaunchAtomic        EventType = "launch-atomic"
	EvRescan              EventType = "rescan"
	EvBack                EventType = "back"
	EvClosePanel          EventType = "close-panel"

	// Async completions.
	EvEnrichmentResolved     EventType = "enrichment-resolved"
	EvContainersResolved     EventType = "containers-resolved"
	EvURLContainersResolved  EventType = "url-containers-resolved"
	EvSimContextResolved     EventType = "sim-context-resolved"
	EvSearchResolved         EventType = "search-resolved"
	EvCreateResolved         EventType = "create-resolved"
	EvImportResolved         EventType = "import-resolved"
	EvLabelsResolved         EventType = "labels-resolved"
	EvMarkingsResolved       EventType = "markings-resolved"
	EvVocabularyResolved     EventType = "vocabulary-resolved"
	EvPlatformStatusResolved EventType = "platform-status-resolved"
)

// Event is one message into the state machine. Implementations are plain
// payload structs; Type is the table key.
type Event interface {
	Type() EventType
}

// ShowEntity opens the entity view for one correlated entity. The exists
// flag is supplied by the caller: scan rows pass their found state, search
// hits pass true.
type ShowEntity struct {
	Entity           *correlate.CorrelatedEntity
	ExistsInPlatform bool
}

// ShowScanResults replaces the correlated collection with a fresh batch.
type ShowScanResults struct {
	Batch correlate.Batch
}

// ShowCreateContainer starts the container flow for the current page.
type ShowCreateContainer struct {
	PageURL string
}

// ShowInvestigation starts the investigation flow on an intel platform.
type ShowInvestigation struct{}

// ShowScenario starts the scenario flow, seeded with attack-pattern names
// detected on the page.
type ShowScenario struct {
	AttackPatterns []string
}

// ShowAtomicTesting starts the atomic-testing flow for one attack pattern.
type ShowAtomicTesting struct {
	AttackPattern string
}

// ShowUnifiedSearch opens cross-platform search, optionally running an
// initial query.
type ShowUnifiedSearch struct {
	Initial string
}

// ShowAddEntity starts the flow that pushes unknown detections into an
// intel platform as new observables.
type ShowAddEntity struct{}

// ShowPreview opens the read-only detail preview for one scan row.
type ShowPreview struct {
	GroupKey string
}

// SelectEntity opens the entity view for a scan row by its group key.
type SelectEntity struct {
	GroupKey string
}

// SelectPlatform resolves a pending platform choice.
type SelectPlatform struct {
	PlatformID string
}

// SelectContainerType picks the container type in the container flow.
type SelectContainerType struct {
	ContainerType string
}

// SetTypeFilter narrows scan results to one display type; empty clears.
type SetTypeFilter struct {
	EntityType string
}

// CycleFoundFilter rotates the found filter: all, found, missing.
type CycleFoundFilter struct{}

// NextPlatform moves the navigation cursor forward.
type NextPlatform struct{}

// PrevPlatform moves the navigation cursor back.
type PrevPlatform struct{}

// OpenScenarioForm advances from the scenario overview to the form.
type OpenScenarioForm struct{}

// SubmitSearch runs a cross-platform search.
type SubmitSearch struct {
	Text string
}

// SubmitContainer submits the container form.
type SubmitContainer struct {
	Name        string
	Description string
}

// SubmitImport pushes the chosen not-found detections to the add platform.
// Empty GroupKeys means every not-found row.
type SubmitImport struct {
	GroupKeys []string
}

// SubmitInvestigation creates an investigation from the found intel
// entities of the current scan.
type SubmitInvestigation struct {
	Name string
}

// SubmitScenario submits the scenario form.
type SubmitScenario struct {
	Name        string
	Description string
}

// LaunchAtomic launches the atomic test against one asset.
type LaunchAtomic struct {
	AssetID string
}

// Rescan asks the host to rescan the page and deliver a fresh batch.
type Rescan struct{}

// Back leaves the current mode toward scan results or idle.
type Back struct{}

// ClosePanel resets to idle.
type ClosePanel struct{}

// EnrichmentResolved completes a guarded detail fetch. Err marks transport
// or remote failure; the ticket decides whether anything is applied.
type EnrichmentResolved struct {
	Ticket Ticket
	Entity bridge.Entity
	Err    error
}

// ContainersResolved completes the container lookup for an open entity.
type ContainersResolved struct {
	GroupKey   string
	Containers []bridge.Entity
	Err        error
}

// URLContainersResolved completes one platform's containers-by-URL lookup.
type URLContainersResolved struct {
	PlatformID string
	Containers []bridge.Entity
	Err        error
}

// SimContextResolved completes the asset/team/contract prefetch for a sim
// platform.
type SimContextResolved struct {
	PlatformID string
	Assets     []bridge.Entity
	Teams      []bridge.Entity
	Contracts  []bridge.Entity
	Err        error
}

// SearchResolved completes one platform's search.
type SearchResolved struct {
	PlatformID string
	Results    []bridge.Entity
	Err        error
}

// CreateResolved completes a user-initiated create. What names the object
// kind: container, investigation, scenario, atomic.
type CreateResolved struct {
	What string
	ID   string
	Err  error
}

// ImportResolved completes an observable import.
type ImportResolved struct {
	Created int
	Err     error
}

// LabelsResolved delivers a platform's label vocabulary. Applied
// unconditionally on arrival; there is no staleness guard on ancillary
// fetches.
type LabelsResolved struct {
	PlatformID string
	Labels     []string
	Err        error
}

// MarkingsResolved delivers a platform's marking definitions.
type MarkingsResolved struct {
	PlatformID string
	Markings   []string
	Err        error
}

// VocabularyResolved delivers one open-vocabulary field's values.
type VocabularyResolved struct {
	PlatformID string
	Field      string
	Values     []string
	Err        error
}

// PlatformStatusResolved delivers a platform liveness probe result.
type PlatformStatusResolved struct {
	PlatformID string
	Alive      bool
	Err        error
}

func (ShowEntity) Type() EventType             { return EvShowEntity }
func (ShowScanResults) Type() EventType        { return EvShowScanResults }
func (ShowCreateContainer) Type() EventType    { return EvShowCreateContainer }
func (ShowInvestigation) Type() EventType      { return EvShowInvestigation }
func (ShowScenario) Type() EventType           { return EvShowScenario }
func (ShowAtomicTesting) Type() EventType      { return EvShowAtomicTesting }
func (ShowUnifiedSearch) Type() EventType      { return EvShowUnifiedSearch }
func (ShowAddEntity) Type() EventType          { return EvShowAddEntity }
func (ShowPreview) Type() EventType            { return EvShowPreview }
func (SelectEntity) Type() EventType           { return EvSelectEntity }
func (SelectPlatform) Type() EventType         { return EvSelectPlatform }
func (SelectContainerType) Type() EventType    { return EvSelectContainerType }
func (SetTypeFilter) Type() EventType          { return EvSetTypeFilter }
func (CycleFoundFilter) Type() EventType       { return EvCycleFoundFilter }
func (NextPlatform) Type() EventType           { return EvNextPlatform }
func (PrevPlatform) Type() EventType           { return EvPrevPlatform }
func (OpenScenarioForm) Type() EventType       { return EvOpenScenarioForm }
func (SubmitSearch) Type() EventType           { return EvSubmitSearch }
func (SubmitContainer) Type() EventType        { return EvSubmitContainer }
func (SubmitImport) Type() EventType           { return EvSubmitImport }
func (SubmitInvestigation) Type() EventType    { return EvSubmitInvestigation }
func (SubmitScenario) Type() EventType         { return EvSubmitScenario }
func (LaunchAtomic) Type() EventType           { return EvLaunchAtomic }
func (Rescan) Type() EventType                 { return EvRescan }
func (Back) Type() EventType                   { return EvBack }
func (ClosePanel) Type() EventType             { return EvClosePanel }
func (EnrichmentResolved) Type() EventType     { return EvEnrichmentResolved }
func (ContainersResolved) Type() EventType     { return EvContainersResolved }
func (URLContainersResolved) Type() EventType  { return EvURLContainersResolved }
func (SimContextResolved) Type() EventType     { return EvSimContextResolved }
func (SearchResolved) Type() EventType         { return EvSearchResolved }
func (CreateResolved) Type() EventType         { return EvCreateResolved }
func (ImportResolved) Type() EventType         { return EvImportResolved }
func (LabelsResolved) Type() EventType         { return EvLabelsResolved }
func (MarkingsResolved) Type() EventType       { return EvMarkingsResolved }
func (VocabularyResolved) Type() EventType     { return EvVocabularyResolved }
func (PlatformStatusResolved) Type() EventType { return EvPlatformStatusResolved }
