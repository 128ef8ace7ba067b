// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package panel

import (
	"github.com/monadic/intel-scout/pkg/correlate"
)

// Effect describes work the host performs after a transition, typically a
// platform call whose outcome re-enters the machine as a completion event.
// Handle returns effects in a deterministic order; the host may run them
// concurrently.
type Effect interface {
	effect()
}

// NotifyLevel grades user-facing notices.
type NotifyLevel int

const (
	NotifyInfo NotifyLevel = iota
	NotifyWarn
	NotifyError
)

func (l NotifyLevel) String() string {
	switch l {
	case NotifyWarn:
		return "warn"
	case NotifyError:
		return "error"
	default:
		return "info"
	}
}

// FetchEnrichment requests full detail for one platform match. The ticket
// must round-trip unchanged into EnrichmentResolved.
type FetchEnrichment struct {
	Ticket Ticket
	Match  correlate.PlatformMatch
}

// FetchContainers requests the containers referencing an open entity.
type FetchContainers struct {
	GroupKey   string
	EntityID   string
	PlatformID string
}

// FindContainersByURL looks up containers referencing a page URL on one
// intel platform.
type FindContainersByURL struct {
	PageURL    string
	PlatformID string
}

// PrefetchSimContext loads assets, teams, and injector contracts from a sim
// platform before its working modes open.
type PrefetchSimContext struct {
	PlatformID string
}

// RunSearch searches one platform for free text.
type RunSearch struct {
	PlatformID string
	Text       string
}

// CreateContainer creates a container on an intel platform.
type CreateContainer struct {
	PlatformID    string
	ContainerType string
	Name          string
	Description   string
	PageURL       string
}

// CreateObservables pushes not-found detections to an intel platform.
type CreateObservables struct {
	PlatformID string
	Entities   []*correlate.CorrelatedEntity
}

// CreateInvestigation starts an investigation seeded with entity ids.
type CreateInvestigation struct {
	PlatformID string
	Name       string
	EntityIDs  []string
}

// CreateScenario creates a simulation scenario from attack patterns.
type CreateScenario struct {
	PlatformID     string
	Name           string
	Description    string
	AttackPatterns []string
}

// LaunchAtomicTest launches one attack pattern against one asset.
type LaunchAtomicTest struct {
	PlatformID    string
	AttackPattern string
	AssetID       string
}

// FetchLabels loads a platform's label vocabulary.
type FetchLabels struct {
	PlatformID string
}

// FetchMarkings loads a platform's marking definitions.
type FetchMarkings struct {
	PlatformID string
}

// FetchVocabulary loads one open-vocabulary field.
type FetchVocabulary struct {
	PlatformID string
	Field      string
}

// CheckPlatformStatus probes a platform's liveness.
type CheckPlatformStatus struct {
	PlatformID string
}

// Notify surfaces a user-visible notice. Only user-initiated mutations
// produce error-level notices; background failures degrade silently.
type Notify struct {
	Level   NotifyLevel
	Message string
}

// TriggerRescan asks the host to rescan the page source.
type TriggerRescan struct{}

func (FetchEnrichment) effect()     {}
func (FetchContainers) effect()     {}
func (FindContainersByURL) effect() {}
func (PrefetchSimContext) effect()  {}
func (RunSearch) effect()           {}
func (CreateContainer) effect()     {}
func (CreateObservables) effect()   {}
func (CreateInvestigation) effect() {}
func (CreateScenario) effect()      {}
func (LaunchAtomicTest) effect()    {}
func (FetchLabels) effect()         {}
func (FetchMarkings) effect()       {}
func (FetchVocabulary) effect()     {}
func (CheckPlatformStatus) effect() {}
func (Notify) effect()              {}
func (TriggerRescan) effect()       {}
