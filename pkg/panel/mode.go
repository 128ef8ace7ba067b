// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package panel is the side panel's core: the mode state machine, the owned
// session store, and the multi-platform navigator with its enrichment
// staleness guard. It contains no rendering and no I/O; hosts feed events in
// and execute the effects that come back.
package panel

// Mode is the panel's top-level state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeLoading
	ModeEntity
	ModeNotFound
	ModeScanResults
	ModePreview
	ModeAdd
	ModeAddSelection
	ModePlatformSelect
	ModeContainerType
	ModeContainerForm
	ModeExistingContainers
	ModeInvestigation
	ModeScenarioOverview
	ModeScenarioForm
	ModeAtomicTesting
	ModeUnifiedSearch
	ModeImportResults
	ModeUnavailable
	ModeError
)

// ModeAny is the wildcard row key in the transition table; it is never a
// session mode.
const ModeAny Mode = -1

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeLoading:
		return "loading"
	case ModeEntity:
		return "entity"
	case ModeNotFound:
		return "not-found"
	case ModeScanResults:
		return "scan-results"
	case ModePreview:
		return "preview"
	case ModeAdd:
		return "add"
	case ModeAddSelection:
		return "add-selection"
	case ModePlatformSelect:
		return "platform-select"
	case ModeContainerType:
		return "container-type"
	case ModeContainerForm:
		return "container-form"
	case ModeExistingContainers:
		return "existing-containers"
	case ModeInvestigation:
		return "investigation"
	case ModeScenarioOverview:
		return "scenario-overview"
	case ModeScenarioForm:
		return "scenario-form"
	case ModeAtomicTesting:
		return "atomic-testing"
	case ModeUnifiedSearch:
		return "unified-search"
	case ModeImportResults:
		return "import-results"
	case ModeUnavailable:
		return "unavailable"
	case ModeError:
		return "error"
	case ModeAny:
		return "any"
	default:
		return "unknown"
	}
}
