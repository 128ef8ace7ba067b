// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/monadic/intel-scout/internal/panellog"
	"github.com/monadic/intel-scout/pkg/bridge"
	"github.com/monadic/intel-scout/pkg/pagescan"
	"github.com/monadic/intel-scout/pkg/platform"
)

var demoPrintPage bool

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the panel against canned data",
	Long: `Run the panel against a canned advisory, with no live platforms.

Three fake platforms answer from fixed data: two intel instances and one
simulation range. Every panel flow works against them: open entities,
create a container, draft a scenario, run atomic tests, search, import.

Examples:
  # Open the demo panel
  intel-scout demo

  # Print the canned advisory text (pipe it into scan)
  intel-scout demo --page | intel-scout scan --missing
`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().BoolVar(&demoPrintPage, "page", false, "Print the demo advisory text and exit")
}

const demoPageURL = "https://soc.example.net/advisories/graphene-loader"

const demoPageText = `GrapheneLoader: invoice-themed phishing wave

The SOC is tracking an ongoing phishing campaign (T1566) that delivers
the GrapheneLoader dropper through invoice lures. Messages carry a PDF
link staged at hxxps://update[.]stage-check[.]net/invoice.pdf; replies
go to billing@stage-check.net.

Once executed, the loader beacons to 45.143.200.14 over HTTPS
(Application Layer Protocol) and stages follow-on tooling for OS
Credential Dumping. In two cases the wave ended with Data Encrypted
for Impact.

Exploitation of CVE-2024-3400 on perimeter devices was observed as an
alternate entry vector for the same operator.

Dropped sample (SHA-256):
4c2fb5d3a1e67f0b9c88d21b0a97e53f6d04c1a28e9b77f3d6105c2a84fe9b31
`

func runDemo(cmd *cobra.Command, args []string) error {
	if demoPrintPage {
		fmt.Print(demoPageText)
		return nil
	}

	snap, err := demoSnapshot()
	if err != nil {
		return err
	}

	logSession, err := panellog.Open("demo")
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	logger := logSession.Logger()

	caller := demoCaller()
	scanner := pagescan.NewScanner(caller, snap, nil, logger)

	m := newPanelModel(snap, caller, scanner, logger, demoPageText, demoPageURL)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running demo panel: %w", err)
	}

	if path := logSession.Close(); path != "" {
		fmt.Printf("session log: %s\n", path)
	}
	return nil
}

// demoSnapshot builds the fixed three-platform config the demo runs against.
func demoSnapshot() (*platform.Snapshot, error) {
	return platform.NewSnapshot([]platform.Platform{
		{ID: "cti-main", Name: "CTI Main", URL: "https://cti.demo.internal", Kind: platform.KindIntel, Enterprise: true},
		{ID: "cti-lab", Name: "CTI Lab", URL: "https://cti-lab.demo.internal", Kind: platform.KindIntel},
		{ID: "sim-range", Name: "Sim Range", URL: "https://range.demo.internal", Kind: platform.KindSim},
	}, platform.AllFeatures())
}

// demoKnown lists the minimal hits each demo platform returns to scan
// lookups and searches. Detail fields live in demoDetail so enrichment
// fetches have something to add.
var demoKnown = map[string][]bridge.Entity{
	"cti-main": {
		{"id": "indicator--1f0c2a9e", "entity_type": "Domain-Name", "observable_value": "update.stage-check.net"},
		{"id": "indicator--7b44d1c3", "entity_type": "IPv4-Addr", "observable_value": "45.143.200.14"},
		{"id": "vulnerability--9e02d755", "entity_type": "Vulnerability", "name": "CVE-2024-3400"},
		{"id": "attack-pattern--4ba8e601", "entity_type": "Attack-Pattern", "name": "Phishing", "x_mitre_id": "T1566"},
		{"id": "file--c2d90f5a", "entity_type": "StixFile", "observable_value": "4c2fb5d3a1e67f0b9c88d21b0a97e53f6d04c1a28e9b77f3d6105c2a84fe9b31"},
	},
	"cti-lab": {
		{"id": "indicator--88f2c6d0", "entity_type": "Domain-Name", "observable_value": "update.stage-check.net"},
	},
	"sim-range": {
		{"id": "payload--52e1b7aa", "entity_type": "Payload", "name": "Phishing Kit Simulation"},
	},
}

// demoDetail holds the full payloads served on enrichment fetches.
var demoDetail = map[string]bridge.Entity{
	"indicator--1f0c2a9e": {
		"id": "indicator--1f0c2a9e", "entity_type": "Domain-Name",
		"observable_value": "update.stage-check.net",
		"description":      "Staging domain serving the GrapheneLoader dropper.",
		"labels":           []string{"phishing", "loader"},
		"confidence":       85,
		"created_at":       "2026-07-02T09:14:00Z",
	},
	"indicator--7b44d1c3": {
		"id": "indicator--7b44d1c3", "entity_type": "IPv4-Addr",
		"observable_value": "45.143.200.14",
		"description":      "Callback address for GrapheneLoader beacons.",
		"labels":           []string{"c2"},
		"confidence":       70,
		"created_at":       "2026-07-02T09:21:00Z",
	},
	"vulnerability--9e02d755": {
		"id": "vulnerability--9e02d755", "entity_type": "Vulnerability",
		"name":        "CVE-2024-3400",
		"description": "Command injection in a perimeter VPN gateway, exploited for initial access.",
		"created_at":  "2026-04-12T16:40:00Z",
	},
	"attack-pattern--4ba8e601": {
		"id": "attack-pattern--4ba8e601", "entity_type": "Attack-Pattern",
		"name":        "Phishing",
		"x_mitre_id":  "T1566",
		"description": "Adversary-sent messages carrying malicious attachments or links.",
	},
	"file--c2d90f5a": {
		"id": "file--c2d90f5a", "entity_type": "StixFile",
		"observable_value": "4c2fb5d3a1e67f0b9c88d21b0a97e53f6d04c1a28e9b77f3d6105c2a84fe9b31",
		"description":      "GrapheneLoader dropper sample.",
		"labels":           []string{"loader"},
		"hashes":           map[string]any{"SHA-256": "4c2fb5d3a1e67f0b9c88d21b0a97e53f6d04c1a28e9b77f3d6105c2a84fe9b31"},
	},
	"indicator--88f2c6d0": {
		"id": "indicator--88f2c6d0", "entity_type": "Domain-Name",
		"observable_value": "update.stage-check.net",
		"description":      "Mirrored from the main feed for detection tuning.",
		"labels":           []string{"staging"},
	},
	"payload--52e1b7aa": {
		"id": "payload--52e1b7aa", "entity_type": "Payload",
		"name":              "Phishing Kit Simulation",
		"description":       "Mail lure chain used by the standard phishing exercise.",
		"payload_type":      "email",
		"payload_platforms": []string{"windows", "linux"},
	},
}

var demoCreateSeq atomic.Int64

// demoCaller answers every bridge request from the canned dataset.
// Containers created during the session show up in later URL lookups,
// the way a live platform would return them.
func demoCaller() bridge.Caller {
	var (
		mu                 sync.Mutex
		createdContainers  = map[string][]bridge.Entity{}
		createdObservables = map[string][]bridge.Entity{}
	)
	return bridge.CallerFunc(func(ctx context.Context, req bridge.Request) (bridge.Response, error) {
		switch req.Type {
		case bridge.SearchIntel, bridge.SearchSim:
			mu.Lock()
			extra := append([]bridge.Entity{}, createdObservables[req.PlatformID]...)
			mu.Unlock()
			return demoOK(demoSearch(req, extra))

		case bridge.GetIntelEntity, bridge.GetSimEntity:
			id, _ := req.Payload["entityId"].(string)
			if full, ok := demoDetail[id]; ok {
				return demoOK(full)
			}
			return demoOK(bridge.Entity{"id": id})

		case bridge.GetEntityContainers:
			id, _ := req.Payload["entityId"].(string)
			if req.PlatformID == "cti-main" && strings.HasPrefix(id, "indicator--") {
				return demoOK([]bridge.Entity{
					{"id": "report--e41b09d2", "entity_type": "Report", "name": "GrapheneLoader Phishing Wave"},
				})
			}
			return demoOK([]bridge.Entity{})

		case bridge.FindContainersByURL:
			mu.Lock()
			defer mu.Unlock()
			return demoOK(append([]bridge.Entity{}, createdContainers[req.PlatformID]...))

		case bridge.CreateContainer:
			ent := bridge.Entity{
				"id":          fmt.Sprintf("report--demo-%d", demoCreateSeq.Add(1)),
				"entity_type": req.Payload["containerType"],
				"name":        req.Payload["name"],
			}
			mu.Lock()
			createdContainers[req.PlatformID] = append(createdContainers[req.PlatformID], ent)
			mu.Unlock()
			return demoOK(ent)

		case bridge.CreateObservables:
			items, _ := req.Payload["observables"].([]map[string]any)
			created := make([]bridge.Entity, 0, len(items))
			for _, it := range items {
				created = append(created, bridge.Entity{
					"id":               fmt.Sprintf("observable--demo-%d", demoCreateSeq.Add(1)),
					"entity_type":      it["type"],
					"observable_value": it["value"],
				})
			}
			// A rescan after the import sees these as known.
			mu.Lock()
			createdObservables[req.PlatformID] = append(createdObservables[req.PlatformID], created...)
			mu.Unlock()
			return demoOK(created)

		case bridge.CreateInvestigation:
			return demoOK(bridge.Entity{
				"id":   fmt.Sprintf("workspace--demo-%d", demoCreateSeq.Add(1)),
				"name": req.Payload["name"],
			})

		case bridge.CreateScenario:
			return demoOK(bridge.Entity{
				"id":   fmt.Sprintf("scenario--demo-%d", demoCreateSeq.Add(1)),
				"name": req.Payload["name"],
			})

		case bridge.LaunchAtomicTest:
			return demoOK(bridge.Entity{
				"id": fmt.Sprintf("inject--demo-%d", demoCreateSeq.Add(1)),
			})

		case bridge.GetLabels:
			return demoOK([]string{"phishing", "loader", "demo-data"})

		case bridge.GetMarkings:
			return demoOK([]string{"TLP:CLEAR", "TLP:GREEN", "TLP:AMBER"})

		case bridge.GetVocabulary:
			if field, _ := req.Payload["field"].(string); field == "report_types_ov" {
				return demoOK([]string{"threat-report", "incident-report", "internal-report"})
			}
			return demoOK([]string{})

		case bridge.GetPlatformStatus:
			return demoOK(map[string]any{"alive": true, "version": "demo"})

		case bridge.GetSimAssets:
			return demoOK([]bridge.Entity{
				{"asset_id": "endpoint--a1", "asset_name": "WIN11-SALES-07", "entity_type": "Endpoint"},
				{"asset_id": "endpoint--a2", "asset_name": "UBU-BUILD-02", "entity_type": "Endpoint"},
			})

		case bridge.GetSimTeams:
			return demoOK([]bridge.Entity{
				{"id": "team--t1", "name": "Blue Team"},
				{"id": "team--t2", "name": "Red Team"},
			})

		case bridge.GetSimInjectorContracts:
			return demoOK([]bridge.Entity{
				{"id": "contract--c1", "name": "Send phishing email"},
				{"id": "contract--c2", "name": "Run command on endpoint"},
			})

		default:
			return bridge.Response{Success: false, Error: "unsupported demo request: " + string(req.Type)}, nil
		}
	})
}

// demoSearch matches canned entities against scan lookup terms or a
// unified-search string. Observables created during the session join the
// platform's own dataset.
func demoSearch(req bridge.Request, extra []bridge.Entity) []bridge.Entity {
	var terms []string
	switch v := req.Payload["terms"].(type) {
	case []string:
		terms = v
	case []any:
		for _, t := range v {
			if s, ok := t.(string); ok {
				terms = append(terms, s)
			}
		}
	}
	if s, ok := req.Payload["search"].(string); ok && s != "" {
		terms = append(terms, s)
	}

	out := []bridge.Entity{}
	for _, e := range append(append([]bridge.Entity{}, demoKnown[req.PlatformID]...), extra...) {
		haystack := strings.ToLower(e.Name() + " " + e.First("observable_value", "value") + " " + e.First("x_mitre_id"))
		for _, term := range terms {
			if term != "" && strings.Contains(haystack, strings.ToLower(term)) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func demoOK(v any) (bridge.Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return bridge.Response{}, err
	}
	return bridge.Response{Success: true, Data: data}, nil
}
