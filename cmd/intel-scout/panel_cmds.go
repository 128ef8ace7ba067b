// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/monadic/intel-scout/pkg/bridge"
	"github.com/monadic/intel-scout/pkg/panel"
	"github.com/monadic/intel-scout/pkg/platform"
)

// effectCmd turns one machine effect into the platform call that performs
// it. Every completion re-enters the machine as a panelEventMsg; the machine
// decides whether the result still applies.
func (m PanelModel) effectCmd(ef panel.Effect) tea.Cmd {
	switch ef := ef.(type) {
	case panel.FetchEnrichment:
		return m.fetchEnrichmentCmd(ef)
	case panel.FetchContainers:
		return m.fetchContainersCmd(ef)
	case panel.FindContainersByURL:
		return m.findContainersByURLCmd(ef)
	case panel.PrefetchSimContext:
		return m.prefetchSimContextCmd(ef)
	case panel.RunSearch:
		return m.runSearchCmd(ef)
	case panel.CreateContainer:
		return m.createContainerCmd(ef)
	case panel.CreateObservables:
		return m.createObservablesCmd(ef)
	case panel.CreateInvestigation:
		return m.createInvestigationCmd(ef)
	case panel.CreateScenario:
		return m.createScenarioCmd(ef)
	case panel.LaunchAtomicTest:
		return m.launchAtomicTestCmd(ef)
	case panel.FetchLabels:
		return m.fetchLabelsCmd(ef)
	case panel.FetchMarkings:
		return m.fetchMarkingsCmd(ef)
	case panel.FetchVocabulary:
		return m.fetchVocabularyCmd(ef)
	case panel.CheckPlatformStatus:
		return m.statusCmd(ef.PlatformID)
	}
	return nil
}

// callPlatform performs one bridge call, folding a delivered remote failure
// into the returned error.
func (m PanelModel) callPlatform(req bridge.Request) (bridge.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), bridgeTimeout)
	defer cancel()
	resp, err := m.caller.Call(ctx, req)
	if err != nil {
		return resp, err
	}
	return resp, resp.Err()
}

func (m PanelModel) fetchEnrichmentCmd(ef panel.FetchEnrichment) tea.Cmd {
	reqType := bridge.GetIntelEntity
	if ef.Match.Kind == platform.KindSim {
		reqType = bridge.GetSimEntity
	}
	return func() tea.Msg {
		resp, err := m.callPlatform(bridge.Request{
			Type:       reqType,
			PlatformID: ef.Match.PlatformID,
			Payload: map[string]any{
				"entityId":   ef.Match.EntityID,
				"entityType": ef.Match.Type,
			},
		})
		var entity bridge.Entity
		if err == nil {
			entity, err = resp.DecodeEntity()
		}
		return panelEventMsg{ev: panel.EnrichmentResolved{Ticket: ef.Ticket, Entity: entity, Err: err}}
	}
}

func (m PanelModel) fetchContainersCmd(ef panel.FetchContainers) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.callPlatform(bridge.Request{
			Type:       bridge.GetEntityContainers,
			PlatformID: ef.PlatformID,
			Payload:    map[string]any{"entityId": ef.EntityID},
		})
		var containers []bridge.Entity
		if err == nil {
			containers, err = resp.DecodeEntities()
		}
		return panelEventMsg{ev: panel.ContainersResolved{GroupKey: ef.GroupKey, Containers: containers, Err: err}}
	}
}

func (m PanelModel) findContainersByURLCmd(ef panel.FindContainersByURL) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.callPlatform(bridge.Request{
			Type:       bridge.FindContainersByURL,
			PlatformID: ef.PlatformID,
			Payload:    map[string]any{"url": ef.PageURL},
		})
		var containers []bridge.Entity
		if err == nil {
			containers, err = resp.DecodeEntities()
		}
		return panelEventMsg{ev: panel.URLContainersResolved{PlatformID: ef.PlatformID, Containers: containers, Err: err}}
	}
}

// prefetchSimContextCmd loads assets, teams, and injector contracts in one
// command; the first failure marks the whole prefetch failed and the machine
// enters the working mode with an empty context.
func (m PanelModel) prefetchSimContextCmd(ef panel.PrefetchSimContext) tea.Cmd {
	return func() tea.Msg {
		out := panel.SimContextResolved{PlatformID: ef.PlatformID}
		fetch := func(t bridge.RequestType) []bridge.Entity {
			if out.Err != nil {
				return nil
			}
			resp, err := m.callPlatform(bridge.Request{Type: t, PlatformID: ef.PlatformID})
			if err != nil {
				out.Err = err
				return nil
			}
			entities, err := resp.DecodeEntities()
			if err != nil {
				out.Err = err
				return nil
			}
			return entities
		}
		out.Assets = fetch(bridge.GetSimAssets)
		out.Teams = fetch(bridge.GetSimTeams)
		out.Contracts = fetch(bridge.GetSimInjectorContracts)
		return panelEventMsg{ev: out}
	}
}

func (m PanelModel) runSearchCmd(ef panel.RunSearch) tea.Cmd {
	reqType := bridge.SearchIntel
	if pl, ok := m.machine.Session().Snapshot().ByID(ef.PlatformID); ok && pl.Kind == platform.KindSim {
		reqType = bridge.SearchSim
	}
	return func() tea.Msg {
		resp, err := m.callPlatform(bridge.Request{
			Type:       reqType,
			PlatformID: ef.PlatformID,
			Payload:    map[string]any{"search": ef.Text},
		})
		var results []bridge.Entity
		if err == nil {
			results, err = resp.DecodeEntities()
		}
		return panelEventMsg{ev: panel.SearchResolved{PlatformID: ef.PlatformID, Results: results, Err: err}}
	}
}

func (m PanelModel) createContainerCmd(ef panel.CreateContainer) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.callPlatform(bridge.Request{
			Type:       bridge.CreateContainer,
			PlatformID: ef.PlatformID,
			Payload: map[string]any{
				"containerType": ef.ContainerType,
				"name":          ef.Name,
				"description":   ef.Description,
				"url":           ef.PageURL,
			},
		})
		ev := panel.CreateResolved{What: panel.CreatedContainer, Err: err}
		if err == nil {
			if entity, decErr := resp.DecodeEntity(); decErr == nil && entity != nil {
				ev.ID = entity.ID()
			}
		}
		return panelEventMsg{ev: ev}
	}
}

func (m PanelModel) createObservablesCmd(ef panel.CreateObservables) tea.Cmd {
	observables := make([]map[string]any, 0, len(ef.Entities))
	for _, e := range ef.Entities {
		observables = append(observables, map[string]any{
			"type":  e.Type,
			"value": e.Ident(),
		})
	}
	return func() tea.Msg {
		resp, err := m.callPlatform(bridge.Request{
			Type:       bridge.CreateObservables,
			PlatformID: ef.PlatformID,
			Payload:    map[string]any{"observables": observables},
		})
		ev := panel.ImportResolved{Err: err}
		if err == nil {
			ev.Created = len(observables)
			if created, decErr := resp.DecodeEntities(); decErr == nil && len(created) > 0 {
				ev.Created = len(created)
			}
		}
		return panelEventMsg{ev: ev}
	}
}

func (m PanelModel) createInvestigationCmd(ef panel.CreateInvestigation) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.callPlatform(bridge.Request{
			Type:       bridge.CreateInvestigation,
			PlatformID: ef.PlatformID,
			Payload: map[string]any{
				"name":      ef.Name,
				"entityIds": ef.EntityIDs,
			},
		})
		ev := panel.CreateResolved{What: panel.CreatedInvestigation, Err: err}
		if err == nil {
			if entity, decErr := resp.DecodeEntity(); decErr == nil && entity != nil {
				ev.ID = entity.ID()
			}
		}
		return panelEventMsg{ev: ev}
	}
}

func (m PanelModel) createScenarioCmd(ef panel.CreateScenario) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.callPlatform(bridge.Request{
			Type:       bridge.CreateScenario,
			PlatformID: ef.PlatformID,
			Payload: map[string]any{
				"name":           ef.Name,
				"description":    ef.Description,
				"attackPatterns": ef.AttackPatterns,
			},
		})
		ev := panel.CreateResolved{What: panel.CreatedScenario, Err: err}
		if err == nil {
			if entity, decErr := resp.DecodeEntity(); decErr == nil && entity != nil {
				ev.ID = entity.ID()
			}
		}
		return panelEventMsg{ev: ev}
	}
}

func (m PanelModel) launchAtomicTestCmd(ef panel.LaunchAtomicTest) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.callPlatform(bridge.Request{
			Type:       bridge.LaunchAtomicTest,
			PlatformID: ef.PlatformID,
			Payload: map[string]any{
				"attackPattern": ef.AttackPattern,
				"assetId":       ef.AssetID,
			},
		})
		ev := panel.CreateResolved{What: panel.CreatedAtomic, Err: err}
		if err == nil {
			if entity, decErr := resp.DecodeEntity(); decErr == nil && entity != nil {
				ev.ID = entity.ID()
			}
		}
		return panelEventMsg{ev: ev}
	}
}

func (m PanelModel) fetchLabelsCmd(ef panel.FetchLabels) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.callPlatform(bridge.Request{
			Type:       bridge.GetLabels,
			PlatformID: ef.PlatformID,
		})
		var labels []string
		if err == nil {
			labels, err = decodeStrings(resp, "value", "name")
		}
		return panelEventMsg{ev: panel.LabelsResolved{PlatformID: ef.PlatformID, Labels: labels, Err: err}}
	}
}

func (m PanelModel) fetchMarkingsCmd(ef panel.FetchMarkings) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.callPlatform(bridge.Request{
			Type:       bridge.GetMarkings,
			PlatformID: ef.PlatformID,
		})
		var markings []string
		if err == nil {
			markings, err = decodeStrings(resp, "definition", "name")
		}
		return panelEventMsg{ev: panel.MarkingsResolved{PlatformID: ef.PlatformID, Markings: markings, Err: err}}
	}
}

func (m PanelModel) fetchVocabularyCmd(ef panel.FetchVocabulary) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.callPlatform(bridge.Request{
			Type:       bridge.GetVocabulary,
			PlatformID: ef.PlatformID,
			Payload:    map[string]any{"field": ef.Field},
		})
		var values []string
		if err == nil {
			values, err = decodeStrings(resp, "name", "value")
		}
		return panelEventMsg{ev: panel.VocabularyResolved{PlatformID: ef.PlatformID, Field: ef.Field, Values: values, Err: err}}
	}
}

func (m PanelModel) statusCmd(platformID string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.callPlatform(bridge.Request{
			Type:       bridge.GetPlatformStatus,
			PlatformID: platformID,
		})
		return panelEventMsg{ev: panel.PlatformStatusResolved{PlatformID: platformID, Alive: err == nil, Err: err}}
	}
}

// decodeStrings reads a reply that is either a plain string list or a list
// of objects carrying the wanted value under one of the given fields.
func decodeStrings(resp bridge.Response, fields ...string) ([]string, error) {
	if len(resp.Data) == 0 {
		return nil, nil
	}
	var plain []string
	if err := json.Unmarshal(resp.Data, &plain); err == nil {
		return plain, nil
	}
	entities, err := resp.DecodeEntities()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		if v := e.First(fields...); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}
